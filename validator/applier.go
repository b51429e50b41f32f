package validator

import (
	"fmt"

	"github.com/lguibr/ballguard/utils"
)

// DirectiveKind selects how a Directive mutates the body.
type DirectiveKind int

const (
	DirectiveNone DirectiveKind = iota
	DirectiveImpulse
	DirectiveSnapPosition
	DirectiveSetVelocity
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveImpulse:
		return "impulse"
	case DirectiveSnapPosition:
		return "snap"
	case DirectiveSetVelocity:
		return "velocity"
	default:
		return "none"
	}
}

// Directive is a single correction produced by a detector.
type Directive struct {
	Kind   DirectiveKind
	Vector utils.Vector2
}

func Impulse(j utils.Vector2) Directive     { return Directive{Kind: DirectiveImpulse, Vector: j} }
func SnapTo(p utils.Vector2) Directive      { return Directive{Kind: DirectiveSnapPosition, Vector: p} }
func SetVelocity(v utils.Vector2) Directive { return Directive{Kind: DirectiveSetVelocity, Vector: v} }

func (d Directive) IsNone() bool { return d.Kind == DirectiveNone }

func (d Directive) String() string {
	if d.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%s(%.4f,%.4f)", d.Kind, d.Vector.X(), d.Vector.Y())
}

// Applier executes directives against the body accessor.
type Applier struct {
	body BodyAccessor
}

func NewApplier(body BodyAccessor) *Applier {
	return &Applier{body: body}
}

// Apply executes d and returns the body state read back afterwards, so callers
// always continue from what the accessor actually holds.
func (a *Applier) Apply(d Directive) BodyState {
	switch d.Kind {
	case DirectiveImpulse:
		a.body.ApplyImpulse(d.Vector)
	case DirectiveSnapPosition:
		a.body.SetPosition(d.Vector)
	case DirectiveSetVelocity:
		a.body.SetVelocity(d.Vector)
	}
	return ReadState(a.body)
}
