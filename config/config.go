// Package config defines the tunable settings for the coordination core and
// loads them from YAML files. All fields have safe in-process defaults so the
// library works without any configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Activation policies for sessions and teams. The trigger for leaving the
// proposed/forming state is a policy choice, not fixed behavior.
const (
	// ActivateOnAck activates sessions on the first participant accept and
	// teams once every member acknowledged.
	ActivateOnAck = "on_ack"
	// ActivateImmediately activates sessions and teams at creation, for
	// callers that treat proposals as pre-agreed.
	ActivateImmediately = "immediate"
)

// Config aggregates per-component settings.
type Config struct {
	Hub           HubConfig           `yaml:"hub"`
	Knowledge     KnowledgeConfig     `yaml:"knowledge"`
	Collaboration CollaborationConfig `yaml:"collaboration"`
}

// HubConfig tunes the Communication Hub.
type HubConfig struct {
	// DeliveryBufferSize sets the per-recipient delivery channel capacity.
	DeliveryBufferSize int `yaml:"delivery_buffer_size"`
	// SubscriberBufferSize sets the capacity of subscription channels.
	// Slow subscribers drop messages rather than stall delivery.
	SubscriberBufferSize int `yaml:"subscriber_buffer_size"`
	// HistoryRetentionSeconds is the audit history retention window.
	HistoryRetentionSeconds int `yaml:"history_retention_seconds"`
	// HistoryPerPair caps retained messages per sender->recipient pair.
	HistoryPerPair int `yaml:"history_per_pair"`
	// DeliveryLogSize caps the delivery log; oldest records are dropped.
	DeliveryLogSize int `yaml:"delivery_log_size"`
}

// HistoryRetention returns the retention window as a duration.
func (h HubConfig) HistoryRetention() time.Duration {
	return time.Duration(h.HistoryRetentionSeconds) * time.Second
}

// KnowledgeConfig tunes the Knowledge Exchange.
type KnowledgeConfig struct {
	// RelatedDepth bounds the RelatedTo transitive closure.
	RelatedDepth int `yaml:"related_depth"`
}

// CollaborationConfig tunes the Collaboration Engine.
type CollaborationConfig struct {
	// ActivationPolicy is ActivateOnAck or ActivateImmediately.
	ActivationPolicy string `yaml:"activation_policy"`
	// ProposalTimeoutSeconds is the suggested proposal age after which a
	// scheduler should abandon unacknowledged sessions. The engine runs no
	// timer itself; AbandonExpired applies this when called.
	ProposalTimeoutSeconds int `yaml:"proposal_timeout_seconds"`
}

// ProposalTimeout returns the proposal timeout as a duration.
func (c CollaborationConfig) ProposalTimeout() time.Duration {
	return time.Duration(c.ProposalTimeoutSeconds) * time.Second
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Hub: HubConfig{
			DeliveryBufferSize:      100,
			SubscriberBufferSize:    100,
			HistoryRetentionSeconds: 3600,
			HistoryPerPair:          100,
			DeliveryLogSize:         1000,
		},
		Knowledge: KnowledgeConfig{
			RelatedDepth: 2,
		},
		Collaboration: CollaborationConfig{
			ActivationPolicy:       ActivateOnAck,
			ProposalTimeoutSeconds: 300,
		},
	}
}

// Load reads a YAML config file, applying defaults for unset fields.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Collaboration.ActivationPolicy {
	case ActivateOnAck, ActivateImmediately:
	default:
		return fmt.Errorf("unknown activation policy %q", c.Collaboration.ActivationPolicy)
	}
	if c.Hub.DeliveryBufferSize <= 0 {
		return fmt.Errorf("delivery_buffer_size must be positive")
	}
	if c.Hub.HistoryRetentionSeconds <= 0 {
		return fmt.Errorf("history_retention_seconds must be positive")
	}
	if c.Knowledge.RelatedDepth <= 0 {
		return fmt.Errorf("related_depth must be positive")
	}
	return nil
}
