// File: utils/config.go
package utils

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfiguration is returned when a configuration refuses to validate.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ValidatorConfig holds the tuning of the validation engine. It is treated as an
// immutable value: reconfiguring means validating and swapping a whole new struct.
type ValidatorConfig struct {
	// Speed range
	MinSpeed float64 `yaml:"minSpeed" json:"minSpeed"` // Non-zero speeds below this are scaled up
	MaxSpeed float64 `yaml:"maxSpeed" json:"maxSpeed"` // Speeds above this are scaled down

	// Stuck body
	StuckVelocityThreshold     float64 `yaml:"stuckVelocityThreshold" json:"stuckVelocityThreshold"`         // Speed under which a moving body counts as stalled (<= 0 disables)
	StuckTimeLimit             float64 `yaml:"stuckTimeLimit" json:"stuckTimeLimit"`                         // Seconds a body may stay stalled (<= 0 disables)
	CorrectionImpulseMagnitude float64 `yaml:"correctionImpulseMagnitude" json:"correctionImpulseMagnitude"` // Magnitude of the unsticking impulse

	// Tunneling
	TunnelDistanceMultiplier float64 `yaml:"tunnelDistanceMultiplier" json:"tunnelDistanceMultiplier"` // Minimum per-tick travel before a jump is suspicious

	// Simultaneous collisions
	MaxSimultaneousCollisions int `yaml:"maxSimultaneousCollisions" json:"maxSimultaneousCollisions"` // Events resolved per tick; the queue ceiling is 10x this

	// Event log
	LogRetentionSeconds float64 `yaml:"logRetentionSeconds" json:"logRetentionSeconds"` // Age after which entries are pruned
	MaxLogEntries       int     `yaml:"maxLogEntries" json:"maxLogEntries"`             // Hard capacity of the log
}

// QueueCeilingFactor multiplies MaxSimultaneousCollisions to get the hard queue ceiling.
const QueueCeilingFactor = 10

// Upper bounds accepted by Validate.
const (
	MaxLogEntriesLimit             = 1 << 20
	MaxSimultaneousCollisionsLimit = 1 << 16
)

// QueueCeiling is the number of pending collision events kept before the oldest are dropped.
func (c ValidatorConfig) QueueCeiling() int {
	return c.MaxSimultaneousCollisions * QueueCeilingFactor
}

// StuckDetectionEnabled is false when either stuck threshold or the correction
// impulse is non-positive.
func (c ValidatorConfig) StuckDetectionEnabled() bool {
	return c.StuckTimeLimit > 0 && c.StuckVelocityThreshold > 0 && c.CorrectionImpulseMagnitude > 0
}

// DefaultConfig returns a ValidatorConfig with default values.
func DefaultConfig() ValidatorConfig {
	return ValidatorConfig{
		MinSpeed: 3.0,
		MaxSpeed: 15.0,

		StuckVelocityThreshold:     0.1,
		StuckTimeLimit:             2.0,
		CorrectionImpulseMagnitude: 5.0,

		TunnelDistanceMultiplier: 1.0,

		MaxSimultaneousCollisions: 3,

		LogRetentionSeconds: 10.0,
		MaxLogEntries:       256,
	}
}

// Validate reports every out-of-range value at once, wrapped in ErrInvalidConfiguration.
func (c ValidatorConfig) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	for _, f := range []struct {
		name  string
		value float64
	}{
		{"minSpeed", c.MinSpeed},
		{"maxSpeed", c.MaxSpeed},
		{"stuckVelocityThreshold", c.StuckVelocityThreshold},
		{"stuckTimeLimit", c.StuckTimeLimit},
		{"correctionImpulseMagnitude", c.CorrectionImpulseMagnitude},
		{"tunnelDistanceMultiplier", c.TunnelDistanceMultiplier},
		{"logRetentionSeconds", c.LogRetentionSeconds},
	} {
		check(!math.IsNaN(f.value) && !math.IsInf(f.value, 0), "%s must be finite, got %v", f.name, f.value)
	}

	check(c.MinSpeed >= 0, "minSpeed must not be negative, got %v", c.MinSpeed)
	check(c.MaxSpeed > c.MinSpeed, "maxSpeed (%v) must be greater than minSpeed (%v)", c.MaxSpeed, c.MinSpeed)
	check(c.StuckVelocityThreshold >= 0, "stuckVelocityThreshold must not be negative, got %v", c.StuckVelocityThreshold)
	check(c.StuckTimeLimit >= 0, "stuckTimeLimit must not be negative, got %v", c.StuckTimeLimit)
	check(c.CorrectionImpulseMagnitude >= 0, "correctionImpulseMagnitude must not be negative, got %v", c.CorrectionImpulseMagnitude)
	check(c.TunnelDistanceMultiplier >= 0, "tunnelDistanceMultiplier must not be negative, got %v", c.TunnelDistanceMultiplier)
	check(c.MaxSimultaneousCollisions >= 1 && c.MaxSimultaneousCollisions <= MaxSimultaneousCollisionsLimit,
		"maxSimultaneousCollisions must be in [1, %d], got %d", MaxSimultaneousCollisionsLimit, c.MaxSimultaneousCollisions)
	check(c.LogRetentionSeconds > 0, "logRetentionSeconds must be positive, got %v", c.LogRetentionSeconds)
	check(c.MaxLogEntries >= 1 && c.MaxLogEntries <= MaxLogEntriesLimit,
		"maxLogEntries must be in [1, %d], got %d", MaxLogEntriesLimit, c.MaxLogEntries)

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfiguration, errors.Join(errs...))
}

// HostConfig configures the demo host: the arena simulation, its diagnostics
// server and the validator it drives.
type HostConfig struct {
	// Timing
	TickPeriod time.Duration `yaml:"tickPeriod"` // Fixed physics timestep
	RandomSeed int64         `yaml:"randomSeed"` // Seed for the stuck-correction direction

	// Arena & Ball
	ArenaSize    float64 `yaml:"arenaSize"`    // Side of the square arena in world units
	BallRadius   float64 `yaml:"ballRadius"`   // Collider radius of the ball
	BallMass     float64 `yaml:"ballMass"`     // Mass used to turn impulses into velocity changes
	BallSpeed    float64 `yaml:"ballSpeed"`    // Launch speed
	PaddleLength float64 `yaml:"paddleLength"` // Length of the bottom paddle
	PaddleWidth  float64 `yaml:"paddleWidth"`  // Thickness of the bottom paddle
	BrickRows    int     `yaml:"brickRows"`    // Rows of bricks in the top half
	BrickCols    int     `yaml:"brickCols"`    // Columns of bricks in the top half

	// Diagnostics
	ListenAddr string `yaml:"listenAddr"` // HTTP listen address for /events, /subscribe and /metrics
	LogLevel   string `yaml:"logLevel"`   // logrus level name
	LogFormat  string `yaml:"logFormat"`  // "text" or "json"

	Validator ValidatorConfig `yaml:"validator"`
}

// DefaultHostConfig returns a HostConfig with default values.
func DefaultHostConfig() HostConfig {
	return HostConfig{
		TickPeriod: Period,
		RandomSeed: 1,

		ArenaSize:    20,
		BallRadius:   0.3,
		BallMass:     1,
		BallSpeed:    8,
		PaddleLength: 4,
		PaddleWidth:  0.5,
		BrickRows:    3,
		BrickCols:    8,

		ListenAddr: ":3001",
		LogLevel:   "info",
		LogFormat:  "text",

		Validator: DefaultConfig(),
	}
}

// Validate checks the host fields and the embedded validator configuration.
func (c HostConfig) Validate() error {
	var errs []error
	if c.TickPeriod <= 0 {
		errs = append(errs, fmt.Errorf("tickPeriod must be positive, got %s", c.TickPeriod))
	}
	if !(c.ArenaSize > 0) {
		errs = append(errs, fmt.Errorf("arenaSize must be positive, got %v", c.ArenaSize))
	}
	if !(c.BallRadius > 0) || c.BallRadius*2 >= c.ArenaSize {
		errs = append(errs, fmt.Errorf("ballRadius must be positive and fit the arena, got %v", c.BallRadius))
	}
	if !(c.BallMass > 0) {
		errs = append(errs, fmt.Errorf("ballMass must be positive, got %v", c.BallMass))
	}
	if c.BrickRows < 0 || c.BrickCols < 0 {
		errs = append(errs, fmt.Errorf("brick grid must not be negative, got %dx%d", c.BrickRows, c.BrickCols))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, errors.Join(errs...))
	}
	if err := c.Validator.Validate(); err != nil {
		return fmt.Errorf("validator: %w", err)
	}
	return nil
}

// LoadConfig reads a YAML file over the defaults and validates the result.
// Keys missing from the file keep their default values.
func LoadConfig(path string) (HostConfig, error) {
	cfg := DefaultHostConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
