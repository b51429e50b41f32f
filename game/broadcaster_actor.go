package game

import (
	"github.com/google/uuid"
	"github.com/lguibr/ballguard/bollywood"
	"github.com/lguibr/ballguard/validator"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"
)

// EventSink receives event batches for one subscriber.
type EventSink interface {
	Send(batch EventBatch) error
	Close() error
}

// WebsocketSink writes batches to a websocket connection as JSON frames.
type WebsocketSink struct {
	Conn *websocket.Conn
}

func (s WebsocketSink) Send(batch EventBatch) error {
	return websocket.JSON.Send(s.Conn, &batch)
}

func (s WebsocketSink) Close() error {
	return s.Conn.Close()
}

// SubscriberGauge is told how many subscribers are connected.
type SubscriberGauge interface {
	SetSubscribers(n int)
}

type subscriber struct {
	sink  EventSink
	kinds map[validator.Kind]bool
}

// filter returns the events the subscriber asked for, or all of them when it
// did not ask for specific kinds.
func (s subscriber) filter(events []validator.ValidationEvent) []validator.ValidationEvent {
	if len(s.kinds) == 0 {
		return events
	}
	out := make([]validator.ValidationEvent, 0, len(events))
	for _, e := range events {
		if s.kinds[e.Kind] {
			out = append(out, e)
		}
	}
	return out
}

// EventBroadcasterActor fans validation event batches out to stream subscribers.
type EventBroadcasterActor struct {
	subscribers map[string]subscriber
	selfPID     *bollywood.PID
	logger      logrus.FieldLogger
	gauge       SubscriberGauge
}

// NewEventBroadcasterProducer creates a producer for EventBroadcasterActor.
// gauge may be nil.
func NewEventBroadcasterProducer(logger logrus.FieldLogger, gauge SubscriberGauge) bollywood.Producer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func() bollywood.Actor {
		return &EventBroadcasterActor{
			subscribers: make(map[string]subscriber),
			logger:      logger.WithField("component", "broadcaster"),
			gauge:       gauge,
		}
	}
}

func (a *EventBroadcasterActor) Receive(ctx bollywood.Context) {
	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case bollywood.Started:
		a.logger.WithField("pid", a.selfPID.String()).Debug("broadcaster started")

	case AddSubscriber:
		if msg.Sink == nil {
			ctx.Reply(SubscriberAdded{})
			return
		}
		id := uuid.NewString()
		sub := subscriber{sink: msg.Sink}
		if len(msg.Kinds) > 0 {
			sub.kinds = make(map[validator.Kind]bool, len(msg.Kinds))
			for _, k := range msg.Kinds {
				sub.kinds[k] = true
			}
		}
		a.subscribers[id] = sub
		a.updateGauge()
		a.logger.WithFields(logrus.Fields{"subscriber": id, "total": len(a.subscribers)}).Info("subscriber added")
		ctx.Reply(SubscriberAdded{ID: id})

	case RemoveSubscriber:
		if _, ok := a.subscribers[msg.ID]; ok {
			delete(a.subscribers, msg.ID)
			a.updateGauge()
			a.logger.WithField("subscriber", msg.ID).Info("subscriber removed")
		}

	case EventBatch:
		a.broadcast(msg)

	case SubscriberCountRequest:
		ctx.Reply(len(a.subscribers))

	case bollywood.Stopping:
		a.closeAll()

	case bollywood.Stopped:

	default:
		a.logger.Warnf("unknown message type %T", msg)
	}
}

func (a *EventBroadcasterActor) broadcast(batch EventBatch) {
	if len(a.subscribers) == 0 {
		return
	}
	batch.MessageType = EventBatchMessageType

	var failed []string
	for id, sub := range a.subscribers {
		events := sub.filter(batch.Events)
		if len(events) == 0 {
			continue
		}
		out := batch
		out.Events = events
		if err := sub.sink.Send(out); err != nil {
			a.logger.WithError(err).WithField("subscriber", id).Debug("send failed, dropping subscriber")
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		_ = a.subscribers[id].sink.Close()
		delete(a.subscribers, id)
	}
	if len(failed) > 0 {
		a.updateGauge()
	}
}

func (a *EventBroadcasterActor) closeAll() {
	if len(a.subscribers) > 0 {
		a.logger.WithField("subscribers", len(a.subscribers)).Info("closing subscriber connections")
	}
	for id, sub := range a.subscribers {
		_ = sub.sink.Close()
		delete(a.subscribers, id)
	}
	a.updateGauge()
}

func (a *EventBroadcasterActor) updateGauge() {
	if a.gauge != nil {
		a.gauge.SetSubscribers(len(a.subscribers))
	}
}
