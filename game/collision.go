package game

import (
	"math"

	"github.com/lguibr/ballguard/utils"
)

// Contact describes where a circle touches a surface. Normal points from the
// circle's center into the surface.
type Contact struct {
	Point  utils.Vector2
	Normal utils.Vector2
}

// CircleRect tests a circle against the axis-aligned rectangle [min, max] using
// the closest point on the rectangle. A center inside the rectangle is pushed
// out through the nearest face.
func CircleRect(center utils.Vector2, radius float64, min, max utils.Vector2) (Contact, bool) {
	closest := utils.ClosestPointOnRect(center, min, max)
	distance := utils.Distance(center, closest)
	if distance >= radius {
		return Contact{}, false
	}
	if distance > utils.Epsilon {
		return Contact{Point: closest, Normal: utils.Normalize(closest.Sub(center))}, true
	}
	return insideContact(center, min, max), true
}

func insideContact(center, min, max utils.Vector2) Contact {
	faces := [4]struct {
		depth  float64
		point  utils.Vector2
		normal utils.Vector2
	}{
		{center.X() - min.X(), utils.Vec(min.X(), center.Y()), utils.Vec(1, 0)},
		{max.X() - center.X(), utils.Vec(max.X(), center.Y()), utils.Vec(-1, 0)},
		{center.Y() - min.Y(), utils.Vec(center.X(), min.Y()), utils.Vec(0, 1)},
		{max.Y() - center.Y(), utils.Vec(center.X(), max.Y()), utils.Vec(0, -1)},
	}
	best := 0
	depth := math.Inf(1)
	for i, f := range faces {
		if f.depth < depth {
			best, depth = i, f.depth
		}
	}
	return Contact{Point: faces[best].point, Normal: faces[best].normal}
}

// Wall is one side of the arena. Normal points out of the arena.
type Wall struct {
	ID     string
	Normal utils.Vector2
	Offset float64 // coordinate of the wall along its normal axis
}

// Touch reports the contact between a circle and the wall, including a center
// that has already crossed it.
func (w Wall) Touch(center utils.Vector2, radius float64) (Contact, bool) {
	switch {
	case w.Normal.X() < 0:
		if center.X()-radius > w.Offset {
			return Contact{}, false
		}
		return Contact{Point: utils.Vec(w.Offset, center.Y()), Normal: w.Normal}, true
	case w.Normal.X() > 0:
		if center.X()+radius < w.Offset {
			return Contact{}, false
		}
		return Contact{Point: utils.Vec(w.Offset, center.Y()), Normal: w.Normal}, true
	case w.Normal.Y() < 0:
		if center.Y()-radius > w.Offset {
			return Contact{}, false
		}
		return Contact{Point: utils.Vec(center.X(), w.Offset), Normal: w.Normal}, true
	default:
		if center.Y()+radius < w.Offset {
			return Contact{}, false
		}
		return Contact{Point: utils.Vec(center.X(), w.Offset), Normal: w.Normal}, true
	}
}

// NewWalls builds the four sides of a square arena of the given size.
func NewWalls(size float64) [4]Wall {
	return [4]Wall{
		{ID: "wall-left", Normal: utils.Vec(-1, 0), Offset: 0},
		{ID: "wall-right", Normal: utils.Vec(1, 0), Offset: size},
		{ID: "wall-bottom", Normal: utils.Vec(0, -1), Offset: 0},
		{ID: "wall-top", Normal: utils.Vec(0, 1), Offset: size},
	}
}
