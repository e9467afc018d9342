package hub

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/coordmesh/coordmesh/core"
	"github.com/coordmesh/coordmesh/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ core.MessageSender = (*Hub)(nil)
)

func newTestHub(t *testing.T, agents ...core.Agent) (*Hub, *registry.InMemory) {
	t.Helper()
	reg := registry.NewInMemory()
	for _, a := range agents {
		require.NoError(t, reg.Register(a))
	}
	h := New(reg)
	require.NoError(t, h.Initialize())
	t.Cleanup(h.Close)
	return h, reg
}

func request(sender, recipient, subject string) core.Message {
	return core.Message{
		Sender:    sender,
		Recipient: recipient,
		Type:      core.TypeRequest,
		Priority:  core.PriorityMedium,
		Content:   core.Content{Subject: subject},
	}
}

func TestHub_InitializeIdempotent(t *testing.T) {
	h := New(registry.NewInMemory())
	require.NoError(t, h.Initialize())
	assert.True(t, h.Ready())
	// A repeat call on a ready hub is a no-op success.
	assert.NoError(t, h.Initialize())
	h.Close()
}

func TestHub_SendBeforeInitialize(t *testing.T) {
	h := New(registry.NewInMemory())
	_, err := h.Send(request("a", "b", "x"))
	assert.ErrorIs(t, err, core.ErrDependencyNotReady)
}

func TestHub_SendAssignsUniqueIDs(t *testing.T) {
	h, _ := newTestHub(t,
		core.Agent{Name: "infra"}, core.Agent{Name: "quality"})

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		id, err := h.Send(request("infra", "quality", fmt.Sprintf("msg-%d", i)))
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestHub_SendValidation(t *testing.T) {
	h, _ := newTestHub(t, core.Agent{Name: "infra"}, core.Agent{Name: "quality"})

	_, err := h.Send(request("ghost", "quality", "x"))
	assert.ErrorIs(t, err, core.ErrUnknownAgent)

	_, err = h.Send(request("infra", "ghost", "x"))
	assert.ErrorIs(t, err, core.ErrUnknownAgent)

	bad := request("infra", "quality", "x")
	bad.Priority = "asap"
	_, err = h.Send(bad)
	assert.ErrorIs(t, err, core.ErrInvalidMessage)
}

func TestHub_PerPairDeliveryOrder(t *testing.T) {
	h, _ := newTestHub(t, core.Agent{Name: "infra"}, core.Agent{Name: "quality"})

	inbox, cancel := h.Subscribe("quality")
	defer cancel()

	const n = 25
	sent := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id, err := h.Send(request("infra", "quality", fmt.Sprintf("m-%d", i)))
		require.NoError(t, err)
		sent = append(sent, id)
	}

	got := make([]string, 0, n)
	for i := 0; i < n; i++ {
		select {
		case msg := <-inbox:
			got = append(got, msg.ID)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d deliveries", i)
		}
	}
	assert.Equal(t, sent, got)

	// History preserves the same order.
	history := h.History("infra", "quality")
	ids := make([]string, 0, len(history))
	for _, m := range history {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, sent, ids)
}

func TestHub_ResponseCorrelation(t *testing.T) {
	h, _ := newTestHub(t, core.Agent{Name: "infra"}, core.Agent{Name: "quality"})

	req := request("infra", "quality", "perf")
	req.RequiresResponse = true
	m1, err := h.Send(req)
	require.NoError(t, err)
	assert.True(t, h.AwaitingResponse(m1))

	resp := core.Message{
		Sender:        "quality",
		Recipient:     "infra",
		Type:          core.TypeResponse,
		Priority:      core.PriorityMedium,
		Content:       core.Content{Subject: "re: perf"},
		CorrelationID: m1,
	}
	_, err = h.Send(resp)
	require.NoError(t, err)
	assert.False(t, h.AwaitingResponse(m1))

	// A second response to the same request dangles.
	_, err = h.Send(resp)
	assert.ErrorIs(t, err, core.ErrDanglingCorrelation)

	// As does a response to a request that never asked for one.
	noAsk, err := h.Send(request("infra", "quality", "fyi"))
	require.NoError(t, err)
	resp.CorrelationID = noAsk
	_, err = h.Send(resp)
	assert.ErrorIs(t, err, core.ErrDanglingCorrelation)

	// And a response to a made-up id.
	resp.CorrelationID = "no-such-message"
	_, err = h.Send(resp)
	assert.ErrorIs(t, err, core.ErrDanglingCorrelation)
}

func TestHub_CorrelationExpiresWithRetention(t *testing.T) {
	reg := registry.NewInMemory()
	require.NoError(t, reg.Register(core.Agent{Name: "infra"}))
	require.NoError(t, reg.Register(core.Agent{Name: "quality"}))
	h := New(reg, func(o *Options) {
		o.Config.HistoryRetentionSeconds = 1
	})
	require.NoError(t, h.Initialize())
	t.Cleanup(h.Close)

	req := request("infra", "quality", "perf")
	req.RequiresResponse = true
	m1, err := h.Send(req)
	require.NoError(t, err)
	assert.True(t, h.AwaitingResponse(m1))

	// Pending correlation state ages out with the retention window instead
	// of accumulating for the process lifetime.
	assert.Eventually(t, func() bool { return !h.AwaitingResponse(m1) },
		3*time.Second, 50*time.Millisecond)

	_, err = h.Send(core.Message{
		Sender:        "quality",
		Recipient:     "infra",
		Type:          core.TypeResponse,
		Priority:      core.PriorityMedium,
		Content:       core.Content{Subject: "re: perf"},
		CorrelationID: m1,
	})
	assert.ErrorIs(t, err, core.ErrDanglingCorrelation)
}

func TestHub_BroadcastFanOut(t *testing.T) {
	h, _ := newTestHub(t,
		core.Agent{Name: "infra"}, core.Agent{Name: "quality"}, core.Agent{Name: "ux"})

	qualityInbox, cancelQ := h.Subscribe("quality")
	defer cancelQ()
	uxInbox, cancelU := h.Subscribe("ux")
	defer cancelU()

	id, err := h.Send(core.Message{
		Sender:   "infra",
		Type:     core.TypeBroadcast,
		Priority: core.PriorityHigh,
		Content:  core.Content{Subject: "deploy window"},
	})
	require.NoError(t, err)

	for _, inbox := range []<-chan core.Message{qualityInbox, uxInbox} {
		select {
		case msg := <-inbox:
			assert.Equal(t, id, msg.ID)
		case <-time.After(2 * time.Second):
			t.Fatal("broadcast not delivered")
		}
	}
}

func TestHub_BroadcastPartialFailure(t *testing.T) {
	h, _ := newTestHub(t, core.Agent{Name: "infra"}, core.Agent{Name: "quality"})

	inbox, cancel := h.Subscribe("quality")
	defer cancel()

	id, err := h.Send(core.Message{
		Sender:     "infra",
		Recipients: []string{"quality", "ghost"},
		Type:       core.TypeBroadcast,
		Priority:   core.PriorityMedium,
		Content:    core.Content{Subject: "rollout"},
	})
	require.NoError(t, err, "one unknown recipient must not abort the others")

	select {
	case msg := <-inbox:
		assert.Equal(t, id, msg.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("live recipient not delivered")
	}

	var failed *DeliveryRecord
	for _, rec := range h.DeliveryLog() {
		if rec.MessageID == id && !rec.OK() {
			failed = &rec
			break
		}
	}
	require.NotNil(t, failed, "failure must be recorded individually")
	assert.Equal(t, "ghost", failed.Recipient)
}

func TestHub_DeliveredPolling(t *testing.T) {
	h, _ := newTestHub(t, core.Agent{Name: "infra"}, core.Agent{Name: "quality"})

	id, err := h.Send(request("infra", "quality", "x"))
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return h.Delivered(id) }, 2*time.Second, 5*time.Millisecond)

	msg, ok := h.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, "x", msg.Content.Subject)
}

func TestHub_DeregisteredRecipientFailsSubsequentSends(t *testing.T) {
	h, reg := newTestHub(t, core.Agent{Name: "infra"}, core.Agent{Name: "quality"})

	_, err := h.Send(request("infra", "quality", "before"))
	require.NoError(t, err)

	require.NoError(t, reg.Deregister("quality"))
	_, err = h.Send(request("infra", "quality", "after"))
	assert.ErrorIs(t, err, core.ErrUnknownAgent)

	// History referencing the deregistered agent stays intact.
	assert.NotEmpty(t, h.History("infra", "quality"))
}

func TestHub_ConcurrentSends(t *testing.T) {
	h, _ := newTestHub(t, core.Agent{Name: "infra"}, core.Agent{Name: "quality"})

	var wg sync.WaitGroup
	ids := make(chan string, 200)
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				id, err := h.Send(request("infra", "quality", "concurrent"))
				assert.NoError(t, err)
				ids <- id
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Len(t, seen, 200)
}

func TestHub_DelegationsRequireBinding(t *testing.T) {
	h, _ := newTestHub(t, core.Agent{Name: "infra"})

	_, err := h.ShareKnowledge(core.KnowledgeItem{Source: "infra"})
	assert.ErrorIs(t, err, core.ErrDependencyNotReady)

	_, err = h.RequestCollaboration("infra", []string{"quality"}, "goal", nil)
	assert.ErrorIs(t, err, core.ErrDependencyNotReady)
}
