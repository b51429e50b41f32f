package validator

import (
	"github.com/lguibr/ballguard/utils"
)

// StuckDetector frees a body that is supposed to move but has stalled below
// StuckVelocityThreshold for StuckTimeLimit seconds. It kicks the body with an
// impulse whose direction is biased upward so it leaves the surface it rests on.
type StuckDetector struct {
	threshold float64
	limit     float64
	magnitude float64
	rng       utils.RandomSource

	timer    float64
	awaiting bool // corrected, waiting for speed to come back
}

// NewStuckDetector builds a detector from cfg. rng drives the impulse direction;
// a nil rng falls back to a fixed-seed source.
func NewStuckDetector(cfg utils.ValidatorConfig, rng utils.RandomSource) *StuckDetector {
	if rng == nil {
		rng = utils.NewRandomSource(1)
	}
	return &StuckDetector{
		threshold: cfg.StuckVelocityThreshold,
		limit:     cfg.StuckTimeLimit,
		magnitude: cfg.CorrectionImpulseMagnitude,
		rng:       rng,
	}
}

// Enabled is false when the threshold, the time limit or the impulse magnitude
// is non-positive. A zero impulse would never free the body.
func (d *StuckDetector) Enabled() bool {
	return d.threshold > 0 && d.limit > 0 && d.magnitude > 0
}

// Timer returns the seconds accumulated toward the stuck limit.
func (d *StuckDetector) Timer() float64 { return d.timer }

// Stuck reports whether a correction was applied and recovery has not been seen yet.
func (d *StuckDetector) Stuck() bool { return d.awaiting }

func (d *StuckDetector) Reset() {
	d.timer = 0
	d.awaiting = false
}

// Evaluate advances the stall timer by dt and, once the limit is reached, returns
// an impulse directive with StuckDetected and StuckCorrected events.
func (d *StuckDetector) Evaluate(state BodyState, moving bool, dt, now float64) Outcome {
	var out Outcome
	if !d.Enabled() {
		return out
	}

	speed := state.Speed()
	if d.awaiting && speed >= d.threshold {
		d.awaiting = false
		out.detect(newEvent(KindRecovery, state, now,
			newDetails().set("source", "stuck").set("speed", speed).String()))
	}

	if moving && speed < d.threshold {
		d.timer += dt
	} else {
		d.timer = 0
	}

	if d.timer+utils.Epsilon < d.limit {
		return out
	}

	stalledFor := d.timer
	d.timer = 0
	d.awaiting = true

	impulse := utils.RandomUpwardDirection(d.rng).Mul(d.magnitude)
	out.detect(newEvent(KindStuckDetected, state, now,
		newDetails().set("speed", speed).set("stalled", stalledFor).String()))
	out.correct(Impulse(impulse), newEvent(KindStuckCorrected, state, now,
		newDetails().set("impulse", impulse).String()))
	return out
}
