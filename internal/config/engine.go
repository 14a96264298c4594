package config

import "time"

// EngineConfig tunes the reservation engine.
type EngineConfig struct {
	// StrictTransitions rejects status changes other than Pending->Approved,
	// Pending->Rejected and Approved->Rejected.
	StrictTransitions bool
	TxTimeout         time.Duration
}

func LoadEngineConfig() EngineConfig {
	c := EngineConfig{
		StrictTransitions: envBool("RESERVATION_STRICT_TRANSITIONS", false),
		TxTimeout:         envDur("RESERVATION_TX_TIMEOUT", 5*time.Second),
	}
	if c.TxTimeout <= 0 {
		c.TxTimeout = 5 * time.Second
	}
	return c
}
