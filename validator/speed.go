package validator

import (
	"github.com/lguibr/ballguard/utils"
)

// SpeedValidator keeps non-zero speeds inside [MinSpeed, MaxSpeed]. Only the
// magnitude is corrected; the direction is kept exactly.
type SpeedValidator struct {
	min float64
	max float64
}

func NewSpeedValidator(cfg utils.ValidatorConfig) *SpeedValidator {
	return &SpeedValidator{min: cfg.MinSpeed, max: cfg.MaxSpeed}
}

// Clamp returns the corrected velocity and the kind of correction applied.
// ok is false when v is already in range or is zero. Speeds within Epsilon of a
// bound count as in range, which keeps Clamp idempotent under rounding.
func (s *SpeedValidator) Clamp(v utils.Vector2) (utils.Vector2, Kind, bool) {
	speed := v.Len()
	switch {
	case speed == 0 || !utils.IsFiniteFloat(speed):
		return v, 0, false
	case speed+utils.Epsilon < s.min:
		return utils.WithLength(v, s.min), KindSpeedBelowMin, true
	case speed > s.max+utils.Epsilon:
		return utils.WithLength(v, s.max), KindSpeedAboveMax, true
	default:
		return v, 0, false
	}
}

// Evaluate clamps the current velocity and reports the correction.
func (s *SpeedValidator) Evaluate(state BodyState, now float64) Outcome {
	var out Outcome
	clamped, kind, ok := s.Clamp(state.Velocity)
	if !ok {
		return out
	}
	out.correct(SetVelocity(clamped), newEvent(kind, state, now,
		newDetails().set("speed", state.Speed()).set("clamped", clamped.Len()).String()))
	return out
}
