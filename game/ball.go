package game

import (
	"github.com/lguibr/ballguard/utils"
	"github.com/lguibr/ballguard/validator"
)

// Ball is the single tracked body. It integrates its own motion and exposes
// itself to the validator through validator.BodyAccessor.
type Ball struct {
	ID       string        `json:"id"`
	Position utils.Vector2 `json:"position"`
	Velocity utils.Vector2 `json:"velocity"`
	Radius   float64       `json:"radius"`
	Mass     float64       `json:"mass"`
	Moving   bool          `json:"moving"`
}

var _ validator.BodyAccessor = (*Ball)(nil)

// NewBall places a ball above the paddle, launched upward at cfg.BallSpeed in a
// direction drawn from rng.
func NewBall(cfg utils.HostConfig, rng utils.RandomSource) *Ball {
	spawn := utils.Vec(cfg.ArenaSize/2, cfg.PaddleWidth*2+cfg.BallRadius*4)
	return &Ball{
		ID:       "ball",
		Position: spawn,
		Velocity: utils.RandomUpwardDirection(rng).Mul(cfg.BallSpeed),
		Radius:   cfg.BallRadius,
		Mass:     cfg.BallMass,
		Moving:   true,
	}
}

// Move advances the ball by dt seconds at constant velocity.
func (b *Ball) Move(dt float64) {
	if !b.Moving {
		return
	}
	b.Position = b.Position.Add(b.Velocity.Mul(dt))
}

// Bounce reflects the velocity off a surface whose normal points from the ball
// into the surface. A ball already moving away is left alone.
func (b *Ball) Bounce(normal utils.Vector2) bool {
	if b.Velocity.Dot(normal) <= 0 {
		return false
	}
	b.Velocity = utils.ReflectAlong(b.Velocity, normal)
	return true
}

func (b *Ball) GetPosition() utils.Vector2  { return b.Position }
func (b *Ball) GetVelocity() utils.Vector2  { return b.Velocity }
func (b *Ball) GetColliderRadius() float64  { return b.Radius }
func (b *Ball) IsIntentionallyMoving() bool { return b.Moving }
func (b *Ball) SetVelocity(v utils.Vector2) { b.Velocity = v }
func (b *Ball) SetPosition(p utils.Vector2) { b.Position = p }

// ApplyImpulse changes velocity by j / mass. A non-positive mass is treated as
// unit mass.
func (b *Ball) ApplyImpulse(j utils.Vector2) {
	mass := b.Mass
	if mass <= 0 {
		mass = 1
	}
	b.Velocity = b.Velocity.Add(j.Mul(1 / mass))
}
