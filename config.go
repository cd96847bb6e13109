package reactor

import (
	"fmt"
	"time"
)

// Defaults applied by [AgentConfig.Normalize] to zero-valued fields.
const (
	DefaultMaxIterations            = 10
	DefaultPerStepTimeout           = 60 * time.Second
	DefaultTotalTimeout             = 5 * time.Minute
	DefaultMaxObservationLength     = 4000
	DefaultMaxConsecutiveToolErrors = 3
	DefaultMaxParallelCalls         = 1
)

// AgentConfig holds the options of a single run. It is read once at run start and
// never modified afterwards.
type AgentConfig struct {
	// MaxIterations bounds the number of ToolCall turns in a run.
	MaxIterations int

	// PerStepTimeout bounds each reasoning call and each tool call.
	PerStepTimeout time.Duration

	// TotalTimeout bounds the whole run.
	TotalTimeout time.Duration

	// ModelSelector picks the reasoning backend. Empty selects the engine's default.
	ModelSelector string

	// Model is the model identifier passed to the backend. Empty lets the backend
	// use its own default.
	Model string

	// Temperature is clamped to [0, 1].
	Temperature float64

	// MaxObservationLength bounds each Observation, in runes.
	MaxObservationLength int

	// MaxConsecutiveToolErrors aborts the run with StatusToolError once the number of
	// failed tool results in a row exceeds it. Negative disables the limit.
	MaxConsecutiveToolErrors int

	// MaxParallelCalls bounds how many calls of one Act batch run at the same time.
	MaxParallelCalls int
}

// Normalize returns a copy with defaults applied and the temperature clamped.
func (c AgentConfig) Normalize() AgentConfig {
	if c.MaxIterations == 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.PerStepTimeout == 0 {
		c.PerStepTimeout = DefaultPerStepTimeout
	}
	if c.TotalTimeout == 0 {
		c.TotalTimeout = DefaultTotalTimeout
	}
	if c.MaxObservationLength == 0 {
		c.MaxObservationLength = DefaultMaxObservationLength
	}
	if c.MaxConsecutiveToolErrors == 0 {
		c.MaxConsecutiveToolErrors = DefaultMaxConsecutiveToolErrors
	}
	if c.MaxParallelCalls <= 0 {
		c.MaxParallelCalls = DefaultMaxParallelCalls
	}
	c.Temperature = min(max(c.Temperature, 0), 1)
	return c
}

// Validate rejects values that cannot be normalized into a usable config.
func (c AgentConfig) Validate() error {
	switch {
	case c.MaxIterations < 0:
		return fmt.Errorf("%w: max_iterations must be > 0, got %d", ErrInvalidConfig, c.MaxIterations)
	case c.PerStepTimeout < 0:
		return fmt.Errorf("%w: per_step_timeout must not be negative", ErrInvalidConfig)
	case c.TotalTimeout < 0:
		return fmt.Errorf("%w: total_timeout must not be negative", ErrInvalidConfig)
	case c.MaxObservationLength < 0:
		return fmt.Errorf("%w: max_observation_length must not be negative", ErrInvalidConfig)
	}
	return nil
}
