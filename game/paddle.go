package game

import (
	"github.com/lguibr/ballguard/utils"
)

// Paddle is an axis-aligned rectangle sliding along the bottom of the arena.
type Paddle struct {
	ID     string        `json:"id"`
	Center utils.Vector2 `json:"center"`
	Length float64       `json:"length"`
	Width  float64       `json:"width"`
	Speed  float64       `json:"speed"`
	// Direction is -1 (left), 0 (still) or 1 (right).
	Direction  int `json:"direction"`
	arenaWidth float64
}

func NewPaddle(cfg utils.HostConfig) *Paddle {
	return &Paddle{
		ID:         "paddle",
		Center:     utils.Vec(cfg.ArenaSize/2, cfg.PaddleWidth),
		Length:     cfg.PaddleLength,
		Width:      cfg.PaddleWidth,
		Speed:      cfg.BallSpeed,
		arenaWidth: cfg.ArenaSize,
	}
}

// Bounds returns the bottom-left and top-right corners.
func (p *Paddle) Bounds() (utils.Vector2, utils.Vector2) {
	half := utils.Vec(p.Length/2, p.Width/2)
	return p.Center.Sub(half), p.Center.Add(half)
}

// Move slides the paddle by Direction*Speed*dt, clamped to the arena.
func (p *Paddle) Move(dt float64) {
	if p.Direction == 0 {
		return
	}
	x := p.Center.X() + float64(p.Direction)*p.Speed*dt
	p.Center = utils.Vec(utils.Clamp(x, p.Length/2, p.arenaWidth-p.Length/2), p.Center.Y())
}

// Track points the paddle toward x, stopping when within a tenth of its length.
func (p *Paddle) Track(x float64) {
	offset := x - p.Center.X()
	switch {
	case offset > p.Length/10:
		p.Direction = 1
	case offset < -p.Length/10:
		p.Direction = -1
	default:
		p.Direction = 0
	}
}
