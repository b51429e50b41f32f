package bollywood

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

const defaultMailboxSize = 1024

// process represents the running instance of an actor, including its state and mailbox.
type process struct {
	engine   *Engine
	pid      *PID
	actor    Actor
	mailbox  chan *messageEnvelope
	props    *Props
	stopCh   chan struct{} // Signal to stop the run loop
	stopOnce sync.Once
	stopped  atomic.Bool
	logger   logrus.FieldLogger
}

func newProcess(engine *Engine, pid *PID, props *Props) *process {
	size := props.mailboxSize
	if size <= 0 {
		size = defaultMailboxSize
	}
	return &process{
		engine:  engine,
		pid:     pid,
		props:   props,
		mailbox: make(chan *messageEnvelope, size),
		stopCh:  make(chan struct{}),
		logger:  engine.logger.WithField("actor", pid.ID),
	}
}

func (p *process) signalStop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

// sendMessage queues an envelope without blocking. It reports false when the
// actor is stopped or its mailbox is full.
func (p *process) sendMessage(envelope *messageEnvelope) bool {
	if p.stopped.Load() && !isSystemMessage(envelope.Message) {
		return false
	}
	select {
	case p.mailbox <- envelope:
		return true
	default:
		p.logger.WithField("message", fmt.Sprintf("%T", envelope.Message)).Warn("mailbox full, dropping message")
		return false
	}
}

// run is the main loop for the actor process.
func (p *process) run() {
	defer func() {
		p.stopped.Store(true)
		if p.actor != nil {
			p.invokeReceive(&messageEnvelope{Message: Stopped{}})
		}
		// Remove from engine *after* Stopped message is processed
		p.engine.remove(p.pid)
	}()

	defer func() {
		if r := recover(); r != nil {
			p.logger.WithField("panic", r).Errorf("actor panicked\n%s", debug.Stack())
			p.stopped.Store(true)
			p.signalStop()
		}
	}()

	p.actor = p.props.Produce()
	if p.actor == nil {
		panic(fmt.Sprintf("actor %s producer returned nil actor", p.pid.ID))
	}

	for {
		select {
		case <-p.stopCh:
			if p.stopped.CompareAndSwap(false, true) {
				p.invokeReceive(&messageEnvelope{Message: Stopping{}})
			}
			return

		case envelope := <-p.mailbox:
			if p.stopped.Load() && !isSystemMessage(envelope.Message) {
				continue
			}

			switch envelope.Message.(type) {
			case Stopping:
				if p.stopped.CompareAndSwap(false, true) {
					p.invokeReceive(envelope)
					p.signalStop()
				}
			case Stopped:
				// Delivered by the deferred cleanup only.
			default:
				p.invokeReceive(envelope)
			}
		}
	}
}

// invokeReceive calls the actor's Receive method within a protected context.
func (p *process) invokeReceive(envelope *messageEnvelope) {
	ctx := &context{
		engine:    p.engine,
		self:      p.pid,
		sender:    envelope.Sender,
		message:   envelope.Message,
		requestID: envelope.RequestID,
		replyCh:   envelope.ReplyCh,
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.WithFields(logrus.Fields{
				"panic":   r,
				"message": fmt.Sprintf("%T", envelope.Message),
			}).Errorf("actor panicked during Receive\n%s", debug.Stack())
			ctx.Reply(fmt.Errorf("actor %s panicked: %v", p.pid.ID, r))
		}
	}()
	p.actor.Receive(ctx)
}
