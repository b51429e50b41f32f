package game

import (
	"fmt"

	"github.com/lguibr/ballguard/utils"
	"github.com/lguibr/ballguard/validator"
)

// Brick is a destructible obstacle.
type Brick struct {
	ID   string        `json:"id"`
	Min  utils.Vector2 `json:"min"`
	Max  utils.Vector2 `json:"max"`
	Life int           `json:"life"`
}

func (b *Brick) Alive() bool { return b.Life > 0 }

// Arena is the square world the ball moves in: four walls, a paddle and a
// block of bricks in the upper half. It is the collision source for the
// validator.
type Arena struct {
	Size    float64
	Walls   [4]Wall
	Paddle  *Paddle
	Bricks  []*Brick
	tracker *CollisionTracker
	cfg     utils.HostConfig
}

func NewArena(cfg utils.HostConfig) *Arena {
	a := &Arena{
		Size:    cfg.ArenaSize,
		Walls:   NewWalls(cfg.ArenaSize),
		Paddle:  NewPaddle(cfg),
		tracker: NewCollisionTracker(),
		cfg:     cfg,
	}
	a.ResetBricks()
	return a
}

// ResetBricks lays out BrickRows x BrickCols bricks across the top third.
func (a *Arena) ResetBricks() {
	rows, cols := a.cfg.BrickRows, a.cfg.BrickCols
	a.Bricks = make([]*Brick, 0, rows*cols)
	if rows <= 0 || cols <= 0 {
		return
	}
	cellW := a.Size / float64(cols)
	cellH := a.Size / 3 / float64(rows)
	gap := cellH * 0.1
	top := a.Size - cellH
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			min := utils.Vec(float64(c)*cellW+gap, top-float64(r+1)*cellH+gap)
			max := utils.Vec(float64(c+1)*cellW-gap, top-float64(r)*cellH-gap)
			a.Bricks = append(a.Bricks, &Brick{
				ID:   fmt.Sprintf("brick-%d-%d", r, c),
				Min:  min,
				Max:  max,
				Life: rows - r,
			})
		}
	}
}

// AliveBricks counts bricks that can still be hit.
func (a *Arena) AliveBricks() int {
	n := 0
	for _, b := range a.Bricks {
		if b.Alive() {
			n++
		}
	}
	return n
}

func (a *Arena) Tracker() *CollisionTracker { return a.tracker }

type surface struct {
	id       string
	category validator.Category
	contact  Contact
	hit      bool
	brick    *Brick
}

func (a *Arena) surfaces(ball *Ball) []surface {
	out := make([]surface, 0, len(a.Walls)+1+len(a.Bricks))
	for _, w := range a.Walls {
		c, hit := w.Touch(ball.Position, ball.Radius)
		out = append(out, surface{id: w.ID, category: validator.CategoryBoundary, contact: c, hit: hit})
	}
	min, max := a.Paddle.Bounds()
	c, hit := CircleRect(ball.Position, ball.Radius, min, max)
	out = append(out, surface{id: a.Paddle.ID, category: validator.CategoryPaddle, contact: c, hit: hit})
	for _, b := range a.Bricks {
		if !b.Alive() {
			continue
		}
		c, hit := CircleRect(ball.Position, ball.Radius, b.Min, b.Max)
		out = append(out, surface{id: b.ID, category: validator.CategoryObstacle, contact: c, hit: hit, brick: b})
	}
	return out
}

// Step moves the paddle, resolves the ball against every surface and returns a
// collision event for each contact that began this step. Ongoing contacts are
// reported once; a contact ends when the surfaces separate.
func (a *Arena) Step(ball *Ball, dt, now float64) []validator.CollisionEvent {
	a.Paddle.Track(ball.Position.X())
	a.Paddle.Move(dt)

	var events []validator.CollisionEvent
	for _, s := range a.surfaces(ball) {
		key := CollisionKey{Object1ID: ball.ID, Object2ID: s.id}
		if !s.hit {
			a.tracker.EndCollision(key)
			continue
		}
		if !a.tracker.BeginCollision(key, now) {
			continue
		}

		ball.Bounce(s.contact.Normal)
		if s.brick != nil {
			s.brick.Life--
			if !s.brick.Alive() {
				a.tracker.EndCollision(key)
			}
		}
		events = append(events, validator.CollisionEvent{
			ContactPoint:  s.contact.Point,
			ContactNormal: s.contact.Normal,
			OtherID:       s.id,
			Category:      s.category,
			Timestamp:     now,
		})
	}

	if len(a.Bricks) > 0 && a.AliveBricks() == 0 {
		a.ResetBricks()
	}
	return events
}
