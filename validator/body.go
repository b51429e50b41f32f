package validator

import (
	"github.com/lguibr/ballguard/utils"
)

// BodyAccessor exposes the tracked body to the engine. The engine borrows it; the
// same accessor may be shared with the integrator and any renderer.
type BodyAccessor interface {
	GetPosition() utils.Vector2
	GetVelocity() utils.Vector2
	GetColliderRadius() float64
	// IsIntentionallyMoving is false for a body deliberately at rest, which must
	// never be flagged as stuck.
	IsIntentionallyMoving() bool
	SetVelocity(v utils.Vector2)
	SetPosition(p utils.Vector2)
	ApplyImpulse(j utils.Vector2)
}

// BodyState is the per-tick copy of the body that detectors read.
type BodyState struct {
	Position       utils.Vector2
	Velocity       utils.Vector2
	ColliderRadius float64
}

// ReadState snapshots the accessor.
func ReadState(body BodyAccessor) BodyState {
	return BodyState{
		Position:       body.GetPosition(),
		Velocity:       body.GetVelocity(),
		ColliderRadius: body.GetColliderRadius(),
	}
}

func (s BodyState) Speed() float64 {
	return s.Velocity.Len()
}

// Finite reports whether position and velocity are free of NaN and Inf.
func (s BodyState) Finite() bool {
	return utils.IsFinite(s.Position) && utils.IsFinite(s.Velocity)
}

// radius is the collider radius with corrupt values read as zero.
func (s BodyState) radius() float64 {
	if !utils.IsFiniteFloat(s.ColliderRadius) || s.ColliderRadius < 0 {
		return 0
	}
	return s.ColliderRadius
}
