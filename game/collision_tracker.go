package game

import (
	"sync"

	"github.com/elliotchance/orderedmap/v2"
)

// CollisionKey represents a unique collision pair.
// Object1ID is the active object (the ball), Object2ID the surface it touches.
type CollisionKey struct {
	Object1ID string
	Object2ID string
}

// CollisionTracker manages active collision states.
// It ensures that an action associated with a collision start
// is triggered only once until the collision ends and restarts.
// Active collisions are kept in the order they began.
type CollisionTracker struct {
	mu     sync.RWMutex
	active *orderedmap.OrderedMap[CollisionKey, float64] // key -> time the contact began
}

// NewCollisionTracker creates a new, empty collision tracker.
func NewCollisionTracker() *CollisionTracker {
	return &CollisionTracker{
		active: orderedmap.NewOrderedMap[CollisionKey, float64](),
	}
}

// BeginCollision registers the start of a collision at time now.
// It returns true if this is a new collision, false if it was already active.
func (ct *CollisionTracker) BeginCollision(key CollisionKey, now float64) bool {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	if _, exists := ct.active.Get(key); exists {
		return false
	}
	ct.active.Set(key, now)
	return true
}

// EndCollision removes a collision registration for the given key.
func (ct *CollisionTracker) EndCollision(key CollisionKey) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.active.Delete(key)
}

func (ct *CollisionTracker) IsColliding(key CollisionKey) bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	_, exists := ct.active.Get(key)
	return exists
}

// Since returns when the collision began.
func (ct *CollisionTracker) Since(key CollisionKey) (float64, bool) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.active.Get(key)
}

// ActiveFor returns, oldest first, the active collisions of object1ID.
func (ct *CollisionTracker) ActiveFor(object1ID string) []CollisionKey {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	keys := make([]CollisionKey, 0, ct.active.Len())
	for _, key := range ct.active.Keys() {
		if key.Object1ID == object1ID {
			keys = append(keys, key)
		}
	}
	return keys
}

func (ct *CollisionTracker) Len() int {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.active.Len()
}

// ClearAll removes all currently tracked collisions.
func (ct *CollisionTracker) ClearAll() {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.active = orderedmap.NewOrderedMap[CollisionKey, float64]()
}
