package bollywood

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrTimeout is returned by Ask when no reply arrives in time.
	ErrTimeout = errors.New("bollywood: ask timed out")
	// ErrActorNotFound is returned by Ask for an unknown or stopped PID.
	ErrActorNotFound = errors.New("bollywood: actor not found")
	// ErrEngineStopping is returned by Ask once Shutdown has started.
	ErrEngineStopping = errors.New("bollywood: engine is stopping")
)

// Engine manages the lifecycle and message dispatching for actors.
type Engine struct {
	pidCounter uint64
	actors     map[string]*process
	mu         sync.RWMutex // Protects the actors map
	stopping   atomic.Bool  // Indicates if the engine is shutting down
	logger     logrus.FieldLogger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger routes engine and actor diagnostics to logger.
func WithLogger(logger logrus.FieldLogger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates a new actor engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		actors: make(map[string]*process),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logrus.StandardLogger()
	}
	return e
}

func (e *Engine) Logger() logrus.FieldLogger { return e.logger }

// nextPID generates a unique process ID.
func (e *Engine) nextPID() *PID {
	id := atomic.AddUint64(&e.pidCounter, 1)
	return &PID{ID: fmt.Sprintf("actor-%d", id)}
}

// Spawn creates and starts a new actor based on the provided Props.
// It returns the PID of the newly created actor, or nil once Shutdown has begun.
func (e *Engine) Spawn(props *Props) *PID {
	if e.stopping.Load() {
		e.logger.Warn("engine is stopping, cannot spawn new actors")
		return nil
	}

	pid := e.nextPID()
	proc := newProcess(e, pid, props)

	e.mu.Lock()
	e.actors[pid.ID] = proc
	e.mu.Unlock()

	go proc.run()

	e.Send(pid, Started{}, nil)
	return pid
}

func (e *Engine) lookup(pid *PID) (*process, bool) {
	if pid == nil {
		return nil, false
	}
	e.mu.RLock()
	proc, ok := e.actors[pid.ID]
	e.mu.RUnlock()
	return proc, ok
}

// Send delivers a message to the actor identified by the PID. Messages to
// unknown actors are dropped.
func (e *Engine) Send(pid *PID, message interface{}, sender *PID) {
	if e.stopping.Load() && !isSystemMessage(message) {
		return
	}
	if proc, ok := e.lookup(pid); ok {
		proc.sendMessage(&messageEnvelope{Sender: sender, Message: message})
	}
}

// Ask sends message to pid and waits up to timeout for the actor to call
// Context.Reply. A reply that is itself an error is returned as the error.
func (e *Engine) Ask(pid *PID, message interface{}, timeout time.Duration) (interface{}, error) {
	if e.stopping.Load() {
		return nil, ErrEngineStopping
	}
	proc, ok := e.lookup(pid)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActorNotFound, pid)
	}

	replyCh := make(chan interface{}, 1)
	requestID := uuid.NewString()
	if !proc.sendMessage(&messageEnvelope{Message: message, RequestID: requestID, ReplyCh: replyCh}) {
		return nil, fmt.Errorf("%w: %s", ErrActorNotFound, pid)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case reply := <-replyCh:
		if err, isErr := reply.(error); isErr {
			return nil, err
		}
		return reply, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w after %s waiting on %s (%T)", ErrTimeout, timeout, pid, message)
	}
}

// Stop requests an actor to stop processing messages and shut down.
// It sends the Stopping message and also directly signals the actor's stop channel.
func (e *Engine) Stop(pid *PID) {
	proc, ok := e.lookup(pid)
	if !ok {
		return
	}
	e.Send(pid, Stopping{}, nil)
	proc.signalStop()
}

// remove removes an actor process from the engine's tracking.
func (e *Engine) remove(pid *PID) {
	e.mu.Lock()
	delete(e.actors, pid.ID)
	e.mu.Unlock()
}

// ActorCount returns how many actors are currently running.
func (e *Engine) ActorCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.actors)
}

// Shutdown stops all actors and waits for them to terminate gracefully.
func (e *Engine) Shutdown(timeout time.Duration) {
	if !e.stopping.CompareAndSwap(false, true) {
		e.logger.Debug("engine already shutting down")
		return
	}

	e.mu.RLock()
	pidsToStop := make([]*PID, 0, len(e.actors))
	for _, proc := range e.actors {
		pidsToStop = append(pidsToStop, proc.pid)
	}
	e.mu.RUnlock()

	e.logger.WithField("actors", len(pidsToStop)).Info("engine shutdown initiated")
	for _, pid := range pidsToStop {
		e.Stop(pid)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if e.ActorCount() == 0 {
			e.logger.Info("engine shutdown complete")
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	e.mu.Lock()
	remaining := make([]string, 0, len(e.actors))
	for id := range e.actors {
		remaining = append(remaining, id)
	}
	e.actors = make(map[string]*process)
	e.mu.Unlock()
	e.logger.WithField("remaining", remaining).Warn("engine shutdown timed out, actors did not stop gracefully")
}
