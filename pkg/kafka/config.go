package kafka

import (
	"time"
)

// Config holds Kafka configuration
type Config struct {
	Brokers  []string
	ClientID string

	// Producer settings
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int // 0: no ack, 1: leader ack, -1: all replicas ack

	// TLS settings
	TLSEnabled bool
	TLSCert    string
	TLSKey     string
	TLSCA      string

	// SASL settings
	SASLEnabled   bool
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Brokers:  []string{"localhost:9092"},
		ClientID: "cellar-service",

		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1,

		TLSEnabled:  false,
		SASLEnabled: false,
	}
}

// Topics contains all cellar Kafka topic names
var Topics = struct {
	LayoutEvents    string
	InventoryEvents string
}{
	LayoutEvents:    "cellar.layout.events",
	InventoryEvents: "cellar.inventory.events",
}

// TopicConfig holds configuration for a Kafka topic
type TopicConfig struct {
	Name              string
	Partitions        int
	ReplicationFactor int
	RetentionMs       int64
}

// DefaultTopicConfigs returns default configurations for cellar topics
func DefaultTopicConfigs() []TopicConfig {
	return []TopicConfig{
		{Name: Topics.LayoutEvents, Partitions: 3, ReplicationFactor: 1, RetentionMs: 7 * 24 * 60 * 60 * 1000},
		{Name: Topics.InventoryEvents, Partitions: 3, ReplicationFactor: 1, RetentionMs: 7 * 24 * 60 * 60 * 1000},
	}
}
