package validator

import (
	"github.com/lguibr/ballguard/utils"
)

// CollisionResolver processes simultaneous collision events nearest-first and
// caps the work done per tick. Events over the cap wait for the next tick.
type CollisionResolver struct {
	limit     int
	ceiling   int
	corrector ContactCorrector
}

// Resolution is the resolver's Outcome plus what it did to the queue.
type Resolution struct {
	Outcome
	Processed []CollisionEvent
	Dropped   int
	Remaining int
}

// NewCollisionResolver builds a resolver that runs corrector against every
// processed contact.
func NewCollisionResolver(cfg utils.ValidatorConfig, corrector ContactCorrector) *CollisionResolver {
	return &CollisionResolver{
		limit:     cfg.MaxSimultaneousCollisions,
		ceiling:   cfg.QueueCeiling(),
		corrector: corrector,
	}
}

func (r *CollisionResolver) Limit() int   { return r.limit }
func (r *CollisionResolver) Ceiling() int { return r.ceiling }

// Resolve drains up to the cap from queue, nearest to the body first, and runs
// the contact correction against each in that order. If what is left in the
// queue exceeds the ceiling, the oldest excess is dropped and noted.
func (r *CollisionResolver) Resolve(queue *CollisionQueue, state BodyState, now float64) Resolution {
	var res Resolution
	res.Processed = queue.DrainNearest(state.Position, r.limit)
	res.Dropped = queue.TrimTo(r.ceiling)
	res.Remaining = queue.Len()

	if res.Dropped > 0 {
		res.detect(newEvent(KindRecovery, state, now,
			newDetails().set("source", "collision-queue").set("dropped", res.Dropped).set("ceiling", r.ceiling).String()))
	}

	if r.corrector != nil {
		if position, anchor, snaps := correctAll(r.corrector, state, res.Processed); snaps > 0 {
			res.correct(SnapTo(position), newEvent(KindTunnelingCorrected, state, now,
				newDetails().set("source", "resolver").set("anchor", anchor.OtherID).set("contact", anchor.ContactPoint).set("snaps", snaps).String()))
		}
	}

	if len(res.Processed) > 1 {
		res.Corrected = append(res.Corrected, newEvent(KindSimultaneousCollisionResolved, state, now,
			newDetails().set("processed", len(res.Processed)).set("dropped", res.Dropped).set("remaining", res.Remaining).String()))
	}
	return res
}
