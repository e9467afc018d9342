package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestValue_Variants(t *testing.T) {
	s := StringValue("hello")
	str, ok := s.AsString()
	assert.True(t, ok)
	assert.Equal(t, "hello", str)
	_, ok = s.AsNumber()
	assert.False(t, ok)

	n := NumberValue(3.5)
	num, ok := n.AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 3.5, num)

	var zero Value
	assert.True(t, zero.IsNull())
	assert.Equal(t, KindNull, zero.Kind())
}

func TestValue_MapCopiesOnRead(t *testing.T) {
	v := MapValue(map[string]Value{"k": StringValue("v")})
	m, ok := v.AsMap()
	require.True(t, ok)
	m["k"] = StringValue("mutated")

	again, _ := v.AsMap()
	got, _ := again["k"].AsString()
	assert.Equal(t, "v", got)
}

func TestValue_JSONRoundTrip(t *testing.T) {
	v := MapValue(map[string]Value{
		"subject": StringValue("perf"),
		"samples": ListValue(NumberValue(1), NumberValue(2)),
		"urgent":  BoolValue(true),
	})
	data, err := json.Marshal(v)
	require.NoError(t, err)

	var decoded Value
	require.NoError(t, json.Unmarshal(data, &decoded))
	m, ok := decoded.AsMap()
	require.True(t, ok)
	subject, _ := m["subject"].AsString()
	assert.Equal(t, "perf", subject)
	samples, ok := m["samples"].AsList()
	require.True(t, ok)
	assert.Len(t, samples, 2)
	urgent, _ := m["urgent"].AsBool()
	assert.True(t, urgent)
}

func TestMessage_Validate(t *testing.T) {
	valid := Message{
		Sender:    "infra",
		Recipient: "quality",
		Type:      TypeRequest,
		Priority:  PriorityMedium,
		Content:   Content{Subject: "perf"},
	}
	assert.NoError(t, valid.Validate())

	badType := valid
	badType.Type = "shout"
	assert.ErrorIs(t, badType.Validate(), ErrInvalidMessage)

	badPriority := valid
	badPriority.Priority = "urgent-ish"
	assert.ErrorIs(t, badPriority.Validate(), ErrInvalidMessage)

	noRecipient := valid
	noRecipient.Recipient = ""
	assert.ErrorIs(t, noRecipient.Validate(), ErrInvalidMessage)

	responseWithoutCorrelation := valid
	responseWithoutCorrelation.Type = TypeResponse
	assert.ErrorIs(t, responseWithoutCorrelation.Validate(), ErrInvalidMessage)

	requestWithCorrelation := valid
	requestWithCorrelation.CorrelationID = "m1"
	assert.ErrorIs(t, requestWithCorrelation.Validate(), ErrInvalidMessage)

	broadcast := Message{
		Sender:   "infra",
		Type:     TypeBroadcast,
		Priority: PriorityLow,
	}
	assert.NoError(t, broadcast.Validate())
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 1.0, ClampConfidence(1.4))
	assert.Equal(t, 0.0, ClampConfidence(-0.2))
	assert.Equal(t, 0.9, ClampConfidence(0.9))
}

func TestKnowledgeItem_AppliesTo(t *testing.T) {
	item := KnowledgeItem{Applicability: []string{"infra", "caching"}}
	assert.True(t, item.AppliesTo(Agent{Name: "infra"}))
	assert.True(t, item.AppliesTo(Agent{Name: "ux", Capabilities: []string{"caching"}}))
	assert.False(t, item.AppliesTo(Agent{Name: "security"}))

	global := KnowledgeItem{Applicability: []string{ApplicabilityAll}}
	assert.True(t, global.AppliesTo(Agent{Name: "anyone"}))
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, SessionProposed.Terminal())
	assert.False(t, SessionActive.Terminal())
	assert.True(t, SessionResolved.Terminal())
	assert.True(t, SessionAbandoned.Terminal())

	assert.False(t, TeamForming.Terminal())
	assert.True(t, TeamCompleted.Terminal())
	assert.True(t, TeamDissolved.Terminal())
}

func TestInitError(t *testing.T) {
	err := &InitError{Stage: "hub", Err: ErrAlreadyInitialized}
	assert.Contains(t, err.Error(), "hub")
	assert.True(t, errors.Is(err, ErrAlreadyInitialized))
}
