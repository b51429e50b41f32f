package validator

import (
	"time"

	"github.com/lguibr/ballguard/utils"
)

// fakeBody is an in-memory BodyAccessor with unit mass by default.
type fakeBody struct {
	position utils.Vector2
	velocity utils.Vector2
	radius   float64
	mass     float64
	moving   bool

	impulses []utils.Vector2
	snaps    []utils.Vector2
}

func newFakeBody(position, velocity utils.Vector2) *fakeBody {
	return &fakeBody{position: position, velocity: velocity, radius: 0.3, mass: 1, moving: true}
}

func (b *fakeBody) GetPosition() utils.Vector2  { return b.position }
func (b *fakeBody) GetVelocity() utils.Vector2  { return b.velocity }
func (b *fakeBody) GetColliderRadius() float64  { return b.radius }
func (b *fakeBody) IsIntentionallyMoving() bool { return b.moving }
func (b *fakeBody) SetVelocity(v utils.Vector2) { b.velocity = v }
func (b *fakeBody) SetPosition(p utils.Vector2) { b.position = p; b.snaps = append(b.snaps, p) }
func (b *fakeBody) ApplyImpulse(j utils.Vector2) {
	b.impulses = append(b.impulses, j)
	b.velocity = b.velocity.Add(j.Mul(1 / b.mass))
}

type countingRecorder struct {
	ticks  int
	events map[Kind]int
	depth  int
	size   int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{events: map[Kind]int{}}
}

func (r *countingRecorder) ObserveTick(_ time.Duration, queueDepth, logSize int) {
	r.ticks++
	r.depth = queueDepth
	r.size = logSize
}

func (r *countingRecorder) ObserveEvent(kind Kind) { r.events[kind]++ }

func kindsOf(events []ValidationEvent) []Kind {
	out := make([]Kind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func countKind(events []ValidationEvent, kind Kind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func contactAt(x, y float64, id string) CollisionEvent {
	return CollisionEvent{
		ContactPoint:  utils.Vec(x, y),
		ContactNormal: utils.Vec(-1, 0),
		OtherID:       id,
		Category:      CategoryObstacle,
	}
}

func newTestOrchestrator(cfg utils.ValidatorConfig, body BodyAccessor, opts ...Option) *Orchestrator {
	opts = append([]Option{WithRandomSource(utils.NewRandomSource(7))}, opts...)
	o, err := NewOrchestrator(cfg, body, opts...)
	if err != nil {
		panic(err)
	}
	return o
}
