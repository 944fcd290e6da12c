package pipeline

import "time"

// Config carries the tunables the driver and executor need. It replaces
// module-level constants so tests can override pricing and retry bounds
// without touching global state.
type Config struct {
	// MaxAttempts is the total number of call attempts per stage
	// (1 initial + MaxAttempts-1 retries).
	MaxAttempts int
	// BaseBackoff is the base delay; attempt k waits BaseBackoff * 2^k.
	BaseBackoff time.Duration
	// CallTimeout bounds each individual model call so a hung call cannot
	// wedge the job. Distinct from the retry backoff.
	CallTimeout time.Duration

	Temperature     float64
	MaxOutputTokens int

	// Price table, USD per million tokens.
	InputPricePerMTok  float64
	OutputPricePerMTok float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:        3,
		BaseBackoff:        2 * time.Second,
		CallTimeout:        120 * time.Second,
		Temperature:        0.1,
		MaxOutputTokens:    8192,
		InputPricePerMTok:  3.0,
		OutputPricePerMTok: 15.0,
	}
}
