package validator

import (
	"errors"
	"fmt"
	"time"

	"github.com/lguibr/ballguard/utils"
	"github.com/sirupsen/logrus"
)

// ErrInvalidConfiguration is returned by NewOrchestrator and Reload when the
// configuration does not validate.
var ErrInvalidConfiguration = utils.ErrInvalidConfiguration

// ErrNilBody is returned by NewOrchestrator without a body accessor.
var ErrNilBody = errors.New("validator: nil body accessor")

// NonFiniteDetail is the detail of the Recovery event written when the body
// reported NaN or Inf state.
const NonFiniteDetail = "NaN/Inf state corrected"

// Recorder receives per-tick measurements. metrics.Collector implements it.
type Recorder interface {
	ObserveTick(duration time.Duration, queueDepth, logSize int)
	ObserveEvent(kind Kind)
}

type nopRecorder struct{}

func (nopRecorder) ObserveTick(time.Duration, int, int) {}
func (nopRecorder) ObserveEvent(Kind)                   {}

// Detectors groups the four detectors so callers can construct them
// independently and inject them. Nil fields are built from the configuration.
type Detectors struct {
	Stuck     *StuckDetector
	Tunneling *TunnelingDetector
	Speed     *SpeedValidator
	Resolver  *CollisionResolver
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRandomSource sets the source of the stuck-correction direction.
func WithRandomSource(rng utils.RandomSource) Option {
	return func(o *Orchestrator) { o.rng = rng }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

func WithDetectors(d Detectors) Option {
	return func(o *Orchestrator) { o.detectors = d }
}

// Orchestrator runs one validation pass per fixed tick. It owns the detectors,
// the collision queue and the event log, and borrows the body accessor.
//
// An Orchestrator is not safe for concurrent use: the goroutine calling Tick
// owns it, and other goroutines should read the log through Snapshot copies
// handed over by that goroutine.
type Orchestrator struct {
	cfg       utils.ValidatorConfig
	body      BodyAccessor
	applier   *Applier
	queue     *CollisionQueue
	log       *EventLog
	detectors Detectors

	rng         utils.RandomSource
	logger      logrus.FieldLogger
	recorder    Recorder
	subscribers []func([]ValidationEvent)

	now      float64
	ticks    uint64
	lastGood utils.Vector2
}

// NewOrchestrator validates cfg and builds an orchestrator around body. It is the
// only operation in the package that fails hard.
func NewOrchestrator(cfg utils.ValidatorConfig, body BodyAccessor, opts ...Option) (*Orchestrator, error) {
	if body == nil {
		return nil, ErrNilBody
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		cfg:     cfg,
		body:    body,
		applier: NewApplier(body),
		queue:   NewCollisionQueue(),
		log:     NewEventLog(cfg.MaxLogEntries, cfg.LogRetentionSeconds),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = utils.DiscardLogger()
	}
	if o.recorder == nil {
		o.recorder = nopRecorder{}
	}
	if o.rng == nil {
		o.rng = utils.NewRandomSource(time.Now().UnixNano())
	}
	o.detectors = o.buildDetectors(cfg, o.detectors)
	o.observeInitialState()
	return o, nil
}

// buildDetectors returns d with every nil detector built from cfg.
func (o *Orchestrator) buildDetectors(cfg utils.ValidatorConfig, d Detectors) Detectors {
	if d.Stuck == nil {
		d.Stuck = NewStuckDetector(cfg, o.rng)
	}
	if d.Tunneling == nil {
		d.Tunneling = NewTunnelingDetector(cfg)
	}
	if d.Speed == nil {
		d.Speed = NewSpeedValidator(cfg)
	}
	if d.Resolver == nil {
		d.Resolver = NewCollisionResolver(cfg, d.Tunneling)
	}
	return d
}

func (o *Orchestrator) observeInitialState() {
	state := ReadState(o.body)
	if state.Finite() {
		o.lastGood = state.Position
		o.detectors.Tunneling.Observe(state)
	}
}

// Reload validates cfg and swaps it in as a whole. Detector runtime state is
// reset and the log is resized; queued collisions and log entries are kept.
func (o *Orchestrator) Reload(cfg utils.ValidatorConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	detectors := o.buildDetectors(cfg, Detectors{})
	o.log.Resize(cfg.MaxLogEntries, cfg.LogRetentionSeconds)
	o.cfg = cfg
	o.detectors = detectors
	o.observeInitialState()
	o.logger.WithFields(logrus.Fields{
		"minSpeed": cfg.MinSpeed,
		"maxSpeed": cfg.MaxSpeed,
	}).Info("validator configuration reloaded")
	return nil
}

// Resync takes the body's current state as the baseline for the next tick and
// clears stall and tunneling history. Hosts call it after moving the body on
// purpose so the jump is not reported as tunneling.
func (o *Orchestrator) Resync() {
	o.detectors.Stuck.Reset()
	o.detectors.Tunneling.Reset()
	o.observeInitialState()
}

func (o *Orchestrator) Config() utils.ValidatorConfig { return o.cfg }

// Now is the simulation time in seconds: the sum of every accepted dt.
func (o *Orchestrator) Now() float64 { return o.now }

func (o *Orchestrator) Ticks() uint64 { return o.ticks }

// Enqueue buffers a collision event for the next tick.
func (o *Orchestrator) Enqueue(e CollisionEvent) {
	o.queue.Enqueue(e)
}

func (o *Orchestrator) QueueLen() int { return o.queue.Len() }

// Pending returns a copy of the queued collision events in arrival order.
func (o *Orchestrator) Pending() []CollisionEvent { return o.queue.Pending() }

func (o *Orchestrator) Query(match func(ValidationEvent) bool) []ValidationEvent {
	return o.log.Query(match)
}

func (o *Orchestrator) Snapshot() []ValidationEvent { return o.log.Snapshot() }

func (o *Orchestrator) LogLen() int { return o.log.Len() }

// Subscribe registers fn to receive the events of every tick that emitted any.
// fn runs synchronously on the ticking goroutine and must not retain the slice.
func (o *Orchestrator) Subscribe(fn func([]ValidationEvent)) {
	if fn != nil {
		o.subscribers = append(o.subscribers, fn)
	}
}

// Tick runs one validation pass: enqueue events, guard against corrupt state,
// run Stuck, Tunneling, Speed and the collision resolver in that order applying
// each directive immediately, then log, prune and notify. It returns the events
// emitted during this tick.
//
// A dt that is not a positive finite number skips the pass; the skip itself is
// reported as a Recovery event and events passed along stay queued.
func (o *Orchestrator) Tick(dt float64, events []CollisionEvent) []ValidationEvent {
	start := time.Now()
	for _, e := range events {
		o.queue.Enqueue(e)
	}

	if !(dt > 0) || !utils.IsFiniteFloat(dt) {
		skipped := newEvent(KindRecovery, o.safeState(), o.now,
			newDetails().set("source", "tick").set("reason", "invalid dt").set("dt", dt).String())
		o.logger.WithFields(logrus.Fields{"dt": dt, "queued": o.queue.Len()}).Warn("invalid tick skipped")
		emitted := []ValidationEvent{skipped}
		o.commit(emitted, start)
		return emitted
	}

	o.now += dt
	o.ticks++
	emitted := make([]ValidationEvent, 0, 4)

	state := ReadState(o.body)
	if !state.Finite() {
		state, emitted = o.recoverNonFinite(state, emitted)
	}

	d := o.detectors
	state, emitted = o.apply(d.Stuck.Evaluate(state, o.body.IsIntentionallyMoving(), dt, o.now), state, emitted)
	state, emitted = o.apply(d.Tunneling.Evaluate(state, dt, o.now, o.queue.Pending()), state, emitted)
	state, emitted = o.apply(d.Speed.Evaluate(state, o.now), state, emitted)

	resolution := d.Resolver.Resolve(o.queue, state, o.now)
	if resolution.Dropped > 0 {
		o.logger.WithFields(logrus.Fields{
			"dropped": resolution.Dropped,
			"ceiling": d.Resolver.Ceiling(),
		}).Warn("collision queue overflow, oldest events dropped")
	}
	state, emitted = o.apply(resolution.Outcome, state, emitted)

	d.Tunneling.Observe(state)
	if state.Finite() {
		o.lastGood = state.Position
	}

	o.commit(emitted, start)
	return emitted
}

// apply records a detector outcome: detected events as evaluated, the directive
// through the applier, corrected events stamped with the resulting state.
func (o *Orchestrator) apply(out Outcome, state BodyState, emitted []ValidationEvent) (BodyState, []ValidationEvent) {
	emitted = append(emitted, out.Detected...)
	if !out.Directive.IsNone() {
		state = o.applier.Apply(out.Directive)
		o.logger.WithFields(logrus.Fields{
			"directive": out.Directive.String(),
			"t":         o.now,
		}).Debug("correction applied")
	}
	for _, e := range out.Corrected {
		e.Position = state.Position
		e.Velocity = state.Velocity
		emitted = append(emitted, e)
	}
	return state, emitted
}

// recoverNonFinite zeroes velocity and puts the body back at the last finite
// position it held.
func (o *Orchestrator) recoverNonFinite(state BodyState, emitted []ValidationEvent) (BodyState, []ValidationEvent) {
	o.logger.WithFields(logrus.Fields{
		"position": fmt.Sprint(state.Position),
		"velocity": fmt.Sprint(state.Velocity),
		"restore":  fmt.Sprint(o.lastGood),
	}).Warn("non-finite body state reset")

	o.body.SetVelocity(utils.Vector2{})
	o.body.SetPosition(o.lastGood)
	state = ReadState(o.body)
	return state, append(emitted, newEvent(KindRecovery, state, o.now, NonFiniteDetail))
}

// safeState reads the body for reporting, substituting the last good position
// and zero velocity for non-finite values.
func (o *Orchestrator) safeState() BodyState {
	state := ReadState(o.body)
	if !utils.IsFinite(state.Position) {
		state.Position = o.lastGood
	}
	if !utils.IsFinite(state.Velocity) {
		state.Velocity = utils.Vector2{}
	}
	return state
}

func (o *Orchestrator) commit(emitted []ValidationEvent, start time.Time) {
	for _, e := range emitted {
		o.log.Append(e)
		o.recorder.ObserveEvent(e.Kind)
		o.logger.WithFields(logrus.Fields{
			"kind":   e.Kind.String(),
			"t":      e.Timestamp,
			"detail": e.Detail,
		}).Debug("validation event")
	}
	o.log.Prune(o.now)
	o.recorder.ObserveTick(time.Since(start), o.queue.Len(), o.log.Len())

	if len(emitted) == 0 {
		return
	}
	for _, fn := range o.subscribers {
		fn(emitted)
	}
}
