package validator

import (
	"github.com/lguibr/ballguard/utils"
)

// ContactCorrector moves a body back to the surface of a contact it has drifted
// away from. TunnelingDetector implements it and CollisionResolver uses it, so
// both call sites share one correction routine.
type ContactCorrector interface {
	CorrectAgainst(position utils.Vector2, radius float64, contact CollisionEvent) (utils.Vector2, bool)
}

// TunnelingDetector is a safety net for bodies that crossed a thin obstacle
// between two ticks without the collision source reporting it.
type TunnelingDetector struct {
	distance float64

	hasPrevious      bool
	previousPosition utils.Vector2
	previousVelocity utils.Vector2
	flagged          bool
}

func NewTunnelingDetector(cfg utils.ValidatorConfig) *TunnelingDetector {
	return &TunnelingDetector{distance: cfg.TunnelDistanceMultiplier}
}

// Flagged reports whether the last evaluation detected tunneling.
func (d *TunnelingDetector) Flagged() bool { return d.flagged }

func (d *TunnelingDetector) Reset() {
	d.hasPrevious = false
	d.previousPosition = utils.Vector2{}
	d.previousVelocity = utils.Vector2{}
	d.flagged = false
}

// Observe records the end-of-tick state the next evaluation compares against.
func (d *TunnelingDetector) Observe(state BodyState) {
	if !state.Finite() {
		return
	}
	d.hasPrevious = true
	d.previousPosition = state.Position
	d.previousVelocity = state.Velocity
}

// Tunneled applies the detection rule: the body travelled more than the
// configured distance and more than twice what its previous velocity allows.
func (d *TunnelingDetector) Tunneled(traveled, expected float64) bool {
	return traveled > d.distance && traveled > 2*expected
}

// Evaluate compares state with the previously observed state. When tunneling is
// detected, every pending contact is used as an anchor for CorrectAgainst.
func (d *TunnelingDetector) Evaluate(state BodyState, dt, now float64, contacts []CollisionEvent) Outcome {
	var out Outcome
	if !d.hasPrevious {
		return out
	}

	traveled := utils.Distance(state.Position, d.previousPosition)
	expected := d.previousVelocity.Len() * dt

	if !d.Tunneled(traveled, expected) {
		if d.flagged {
			d.flagged = false
			out.detect(newEvent(KindRecovery, state, now,
				newDetails().set("source", "tunneling").set("traveled", traveled).set("expected", expected).String()))
		}
		return out
	}

	d.flagged = true
	detected := newDetails().
		set("traveled", traveled).
		set("expected", expected).
		set("from", d.previousPosition)
	if len(contacts) == 0 {
		detected.set("anchor", "none")
	} else {
		detected.set("contacts", len(contacts))
	}
	out.detect(newEvent(KindTunnelingDetected, state, now, detected.String()))

	if position, anchor, snaps := correctAll(d, state, contacts); snaps > 0 {
		out.correct(SnapTo(position), newEvent(KindTunnelingCorrected, state, now,
			newDetails().set("anchor", anchor.OtherID).set("contact", anchor.ContactPoint).set("snaps", snaps).String()))
	}
	return out
}

// CorrectAgainst checks that contact lies within two collider radii of position.
// When it lies farther, the body is placed tangent to the surface at
// contactPoint - contactNormal*radius. A second call with the corrected position
// returns ok == false, so the correction never compounds.
func (d *TunnelingDetector) CorrectAgainst(position utils.Vector2, radius float64, contact CollisionEvent) (utils.Vector2, bool) {
	if !utils.IsFinite(contact.ContactPoint) || !utils.IsFinite(contact.ContactNormal) {
		return position, false
	}
	if utils.Distance(position, contact.ContactPoint) <= 2*radius {
		return position, false
	}

	normal := utils.Normalize(contact.ContactNormal)
	if normal.Len() == 0 {
		// No usable normal: back off toward where the body is.
		normal = utils.Normalize(contact.ContactPoint.Sub(position))
	}
	return contact.ContactPoint.Sub(normal.Mul(radius)), true
}

// correctAll folds CorrectAgainst over contacts in order, each check starting from
// the position produced by the previous one. It returns the final position, the
// last contact that moved the body and how many contacts did.
func correctAll(corrector ContactCorrector, state BodyState, contacts []CollisionEvent) (utils.Vector2, CollisionEvent, int) {
	position := state.Position
	radius := state.radius()
	var anchor CollisionEvent
	snaps := 0
	for _, contact := range contacts {
		corrected, ok := corrector.CorrectAgainst(position, radius, contact)
		if !ok {
			continue
		}
		position = corrected
		anchor = contact
		snaps++
	}
	return position, anchor, snaps
}
