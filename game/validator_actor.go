package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/lguibr/ballguard/bollywood"
	"github.com/lguibr/ballguard/utils"
	"github.com/lguibr/ballguard/validator"
	"github.com/sirupsen/logrus"
)

// ValidatorActorConfig wires a ValidatorActor to its collaborators.
type ValidatorActorConfig struct {
	Host        utils.HostConfig
	Broadcaster *bollywood.PID
	Recorder    validator.Recorder
	Logger      logrus.FieldLogger
	// ManualTicks disables the internal ticker; TickCommands must be sent by the caller.
	ManualTicks bool
}

// ValidatorActor owns the ball, the arena and the orchestrator. Every
// TickCommand moves the ball, collects contacts from the arena and runs one
// validation pass; event batches go to the broadcaster.
type ValidatorActor struct {
	cfg          ValidatorActorConfig
	ball         *Ball
	arena        *Arena
	orchestrator *validator.Orchestrator
	logger       logrus.FieldLogger
	selfPID      *bollywood.PID
	engine       *bollywood.Engine

	tickerMu     sync.Mutex
	ticker       *time.Ticker
	stopTickerCh chan struct{}
}

// NewValidatorActorProducer builds the ball, arena and orchestrator up front so
// configuration errors surface before the actor is spawned.
func NewValidatorActorProducer(cfg ValidatorActorConfig) (bollywood.Producer, error) {
	if err := cfg.Host.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = utils.DiscardLogger()
	}
	logger = logger.WithField("component", "validator")

	rng := utils.NewRandomSource(cfg.Host.RandomSeed)
	ball := NewBall(cfg.Host, rng)
	opts := []validator.Option{
		validator.WithRandomSource(rng),
		validator.WithLogger(logger),
	}
	if cfg.Recorder != nil {
		opts = append(opts, validator.WithRecorder(cfg.Recorder))
	}
	orchestrator, err := validator.NewOrchestrator(cfg.Host.Validator, ball, opts...)
	if err != nil {
		return nil, fmt.Errorf("validator actor: %w", err)
	}

	actor := &ValidatorActor{
		cfg:          cfg,
		ball:         ball,
		arena:        NewArena(cfg.Host),
		orchestrator: orchestrator,
		logger:       logger,
	}
	return func() bollywood.Actor { return actor }, nil
}

func (a *ValidatorActor) Receive(ctx bollywood.Context) {
	if a.selfPID == nil {
		a.selfPID = ctx.Self()
		a.engine = ctx.Engine()
	}

	switch msg := ctx.Message().(type) {
	case bollywood.Started:
		a.orchestrator.Subscribe(a.forward)
		if !a.cfg.ManualTicks {
			a.startTicker()
		}
		a.logger.WithFields(logrus.Fields{
			"pid":    a.selfPID.String(),
			"period": a.cfg.Host.TickPeriod,
			"manual": a.cfg.ManualTicks,
		}).Info("validator actor started")

	case TickCommand:
		a.step(msg.Dt)

	case QueryEventsRequest:
		ctx.Reply(a.query(msg))

	case ReloadConfigCommand:
		if err := a.orchestrator.Reload(msg.Config); err != nil {
			a.logger.WithError(err).Warn("configuration reload rejected")
			ctx.Reply(err)
			return
		}
		ctx.Reply(ReloadConfigResponse{Config: a.orchestrator.Config()})

	case SetMovingCommand:
		a.ball.Moving = msg.Moving
		ctx.Reply(*a.ball)

	case SetBallStateCommand:
		a.ball.Position = msg.Position
		a.ball.Velocity = msg.Velocity
		a.orchestrator.Resync()
		ctx.Reply(*a.ball)

	case bollywood.Stopping:
		a.stopTicker()

	case bollywood.Stopped:

	default:
		a.logger.Warnf("unknown message type %T", msg)
	}
}

// step integrates the ball, then validates it against this step's contacts.
func (a *ValidatorActor) step(dt float64) {
	var contacts []validator.CollisionEvent
	if dt > 0 && utils.IsFiniteFloat(dt) {
		a.ball.Move(dt)
		contacts = a.arena.Step(a.ball, dt, a.orchestrator.Now()+dt)
	}
	a.orchestrator.Tick(dt, contacts)
}

func (a *ValidatorActor) forward(events []validator.ValidationEvent) {
	if a.cfg.Broadcaster == nil || a.engine == nil {
		return
	}
	batch := EventBatch{
		MessageType: EventBatchMessageType,
		Tick:        a.orchestrator.Ticks(),
		Now:         a.orchestrator.Now(),
		Events:      append([]validator.ValidationEvent(nil), events...),
	}
	a.engine.Send(a.cfg.Broadcaster, batch, a.selfPID)
}

func (a *ValidatorActor) query(req QueryEventsRequest) QueryEventsResponse {
	match := validator.All(validator.Since(req.Since))
	if len(req.Kinds) > 0 {
		match = validator.All(validator.Since(req.Since), validator.OfKind(req.Kinds...))
	}
	events := a.orchestrator.Query(match)
	if req.Limit > 0 && len(events) > req.Limit {
		events = events[len(events)-req.Limit:]
	}
	return QueryEventsResponse{
		Now:    a.orchestrator.Now(),
		Ticks:  a.orchestrator.Ticks(),
		Queued: a.orchestrator.QueueLen(),
		Ball:   *a.ball,
		Events: events,
	}
}

func (a *ValidatorActor) startTicker() {
	a.tickerMu.Lock()
	defer a.tickerMu.Unlock()
	if a.ticker != nil {
		return
	}
	period := a.cfg.Host.TickPeriod
	a.ticker = time.NewTicker(period)
	a.stopTickerCh = make(chan struct{})

	tickerCh, stopCh := a.ticker.C, a.stopTickerCh
	engine, self := a.engine, a.selfPID
	dt := period.Seconds()
	go func() {
		for {
			select {
			case <-stopCh:
				return
			case <-tickerCh:
				engine.Send(self, TickCommand{Dt: dt}, nil)
			}
		}
	}()
}

func (a *ValidatorActor) stopTicker() {
	a.tickerMu.Lock()
	defer a.tickerMu.Unlock()
	if a.ticker == nil {
		return
	}
	a.ticker.Stop()
	close(a.stopTickerCh)
	a.ticker = nil
}
