package validator

import (
	"math"
	"sort"

	"github.com/lguibr/ballguard/utils"
)

type queuedCollision struct {
	event CollisionEvent
	seq   uint64 // arrival order, breaks distance ties
}

// CollisionQueue buffers collision events in arrival (FIFO) order until the
// resolver drains them.
type CollisionQueue struct {
	items   []queuedCollision
	nextSeq uint64
}

func NewCollisionQueue() *CollisionQueue {
	return &CollisionQueue{}
}

func (q *CollisionQueue) Enqueue(e CollisionEvent) {
	q.items = append(q.items, queuedCollision{event: e, seq: q.nextSeq})
	q.nextSeq++
}

func (q *CollisionQueue) Len() int { return len(q.items) }

// Pending returns a copy of the queued events in arrival order.
func (q *CollisionQueue) Pending() []CollisionEvent {
	out := make([]CollisionEvent, len(q.items))
	for i, item := range q.items {
		out[i] = item.event
	}
	return out
}

// DrainNearest removes and returns up to limit events, nearest contact point to
// origin first; equal distances keep arrival order. Events not selected stay
// queued in arrival order.
func (q *CollisionQueue) DrainNearest(origin utils.Vector2, limit int) []CollisionEvent {
	if limit <= 0 || len(q.items) == 0 {
		return nil
	}

	order := make([]int, len(q.items))
	distances := make([]float64, len(q.items))
	for i, item := range q.items {
		order[i] = i
		d := utils.Distance(origin, item.event.ContactPoint)
		if math.IsNaN(d) {
			d = math.Inf(1)
		}
		distances[i] = d
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, db := distances[order[a]], distances[order[b]]
		if da != db {
			return da < db
		}
		return q.items[order[a]].seq < q.items[order[b]].seq
	})

	if limit > len(order) {
		limit = len(order)
	}
	selected := make(map[int]bool, limit)
	drained := make([]CollisionEvent, 0, limit)
	for _, idx := range order[:limit] {
		selected[idx] = true
		drained = append(drained, q.items[idx].event)
	}

	remaining := q.items[:0]
	for i, item := range q.items {
		if !selected[i] {
			remaining = append(remaining, item)
		}
	}
	q.items = remaining
	return drained
}

// TrimTo drops the oldest events until at most ceiling remain and returns how
// many were dropped.
func (q *CollisionQueue) TrimTo(ceiling int) int {
	if ceiling < 0 {
		ceiling = 0
	}
	excess := len(q.items) - ceiling
	if excess <= 0 {
		return 0
	}
	q.items = append(q.items[:0], q.items[excess:]...)
	return excess
}

func (q *CollisionQueue) Clear() {
	q.items = q.items[:0]
}
