package validator

import (
	"math"
	"testing"

	"github.com/lguibr/ballguard/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTunnelingDetector_JumpThroughObstacle(t *testing.T) {
	d := NewTunnelingDetector(utils.DefaultConfig())
	d.Observe(BodyState{Position: utils.Vec(0, 0), Velocity: utils.Vec(1, 0), ColliderRadius: 0.3})

	state := BodyState{Position: utils.Vec(3, 0), Velocity: utils.Vec(1, 0), ColliderRadius: 0.3}
	contact := CollisionEvent{ContactPoint: utils.Vec(1.5, 0), ContactNormal: utils.Vec(-1, 0), OtherID: "brick-1"}

	out := d.Evaluate(state, 0.02, 0.02, []CollisionEvent{contact})
	require.Len(t, out.Detected, 1)
	assert.Equal(t, KindTunnelingDetected, out.Detected[0].Kind)
	assert.Contains(t, out.Detected[0].Detail, "traveled=3.0000")
	assert.Contains(t, out.Detected[0].Detail, "expected=0.0200")

	require.Len(t, out.Corrected, 1)
	assert.Equal(t, KindTunnelingCorrected, out.Corrected[0].Kind)
	assert.Contains(t, out.Corrected[0].Detail, "anchor=brick-1")
	assert.Equal(t, DirectiveSnapPosition, out.Directive.Kind)
	assert.InDelta(t, 1.8, out.Directive.Vector.X(), 1e-9)
	assert.InDelta(t, 0, out.Directive.Vector.Y(), 1e-9)
	assert.True(t, d.Flagged())
}

func TestTunnelingDetector_NoAnchor(t *testing.T) {
	d := NewTunnelingDetector(utils.DefaultConfig())
	d.Observe(BodyState{Velocity: utils.Vec(1, 0)})

	out := d.Evaluate(BodyState{Position: utils.Vec(5, 0)}, 0.02, 0.02, nil)
	require.Len(t, out.Detected, 1)
	assert.Contains(t, out.Detected[0].Detail, "anchor=none")
	assert.True(t, out.Directive.IsNone())
	assert.Empty(t, out.Corrected)
}

func TestTunnelingDetector_NormalMotionNotFlagged(t *testing.T) {
	d := NewTunnelingDetector(utils.DefaultConfig())
	d.Observe(BodyState{Velocity: utils.Vec(10, 0)})

	// 0.2 travelled at 10 u/s over 0.02s: exactly what was expected.
	out := d.Evaluate(BodyState{Position: utils.Vec(0.2, 0)}, 0.02, 0.02, nil)
	assert.True(t, out.Empty())

	// Fast but consistent with velocity: 2 > 1 but 2 <= 2*2.
	d.Observe(BodyState{Velocity: utils.Vec(100, 0)})
	out = d.Evaluate(BodyState{Position: utils.Vec(2, 0)}, 0.02, 0.04, nil)
	assert.True(t, out.Empty())
}

func TestTunnelingDetector_FirstEvaluationWithoutHistory(t *testing.T) {
	d := NewTunnelingDetector(utils.DefaultConfig())
	out := d.Evaluate(BodyState{Position: utils.Vec(100, 100)}, 0.02, 0.02, nil)
	assert.True(t, out.Empty())
}

func TestTunnelingDetector_RecoveryOnNextCleanTick(t *testing.T) {
	d := NewTunnelingDetector(utils.DefaultConfig())
	d.Observe(BodyState{Velocity: utils.Vec(1, 0)})
	d.Evaluate(BodyState{Position: utils.Vec(4, 0)}, 0.02, 0.02, nil)
	d.Observe(BodyState{Position: utils.Vec(4, 0), Velocity: utils.Vec(1, 0)})

	out := d.Evaluate(BodyState{Position: utils.Vec(4.02, 0)}, 0.02, 0.04, nil)
	require.Len(t, out.Detected, 1)
	assert.Equal(t, KindRecovery, out.Detected[0].Kind)
	assert.False(t, d.Flagged())
}

func TestCorrectAgainst_PlacesBodyAtRadius(t *testing.T) {
	d := NewTunnelingDetector(utils.DefaultConfig())
	testCases := []struct {
		name     string
		position utils.Vector2
		contact  CollisionEvent
	}{
		{"left wall", utils.Vec(-3, 4), CollisionEvent{ContactPoint: utils.Vec(0, 4), ContactNormal: utils.Vec(1, 0)}},
		{"unnormalized normal", utils.Vec(10, 10), CollisionEvent{ContactPoint: utils.Vec(2, 2), ContactNormal: utils.Vec(0, -7)}},
		{"diagonal", utils.Vec(5, 5), CollisionEvent{ContactPoint: utils.Vec(0, 0), ContactNormal: utils.Vec(-1, -1)}},
		{"zero normal", utils.Vec(4, 0), CollisionEvent{ContactPoint: utils.Vec(0, 0)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			corrected, ok := d.CorrectAgainst(tc.position, 0.5, tc.contact)
			require.True(t, ok)
			assert.InDelta(t, 0.5, utils.Distance(corrected, tc.contact.ContactPoint), 1e-4)

			again, ok := d.CorrectAgainst(corrected, 0.5, tc.contact)
			assert.False(t, ok, "a corrected position needs no further correction")
			assert.Equal(t, corrected, again)
		})
	}
}

func TestCorrectAgainst_IgnoresCloseAndCorruptContacts(t *testing.T) {
	d := NewTunnelingDetector(utils.DefaultConfig())

	_, ok := d.CorrectAgainst(utils.Vec(0, 0), 0.5, CollisionEvent{ContactPoint: utils.Vec(0.9, 0)})
	assert.False(t, ok)

	_, ok = d.CorrectAgainst(utils.Vec(0, 0), 0.5, CollisionEvent{ContactPoint: utils.Vec(math.NaN(), 0)})
	assert.False(t, ok)
}

func TestCorrectAll_FoldsInOrder(t *testing.T) {
	d := NewTunnelingDetector(utils.DefaultConfig())
	state := BodyState{Position: utils.Vec(10, 0), ColliderRadius: 0.5}
	contacts := []CollisionEvent{
		{ContactPoint: utils.Vec(5, 0), ContactNormal: utils.Vec(1, 0), OtherID: "a"},
		{ContactPoint: utils.Vec(5, 0.1), ContactNormal: utils.Vec(1, 0), OtherID: "b"},
		{ContactPoint: utils.Vec(0, 0), ContactNormal: utils.Vec(1, 0), OtherID: "c"},
	}

	position, anchor, snaps := correctAll(d, state, contacts)
	assert.Equal(t, 2, snaps, "b is within two radii of the position a produced")
	assert.Equal(t, "c", anchor.OtherID)
	assert.InDelta(t, -0.5, position.X(), 1e-9)
}
