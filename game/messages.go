package game

import (
	"github.com/lguibr/ballguard/utils"
	"github.com/lguibr/ballguard/validator"
)

// --- ValidatorActor messages ---

// TickCommand advances the simulation and runs one validation pass.
type TickCommand struct {
	Dt float64
}

// QueryEventsRequest asks the ValidatorActor (via Ask) for logged events.
// Empty Kinds matches every kind; Limit <= 0 means no limit, otherwise the
// newest Limit matches are returned.
type QueryEventsRequest struct {
	Kinds []validator.Kind
	Since float64
	Limit int
}

// QueryEventsResponse is the reply to QueryEventsRequest.
type QueryEventsResponse struct {
	Now    float64                     `json:"now"`
	Ticks  uint64                      `json:"ticks"`
	Queued int                         `json:"queued"`
	Ball   Ball                        `json:"ball"`
	Events []validator.ValidationEvent `json:"events"`
}

// ReloadConfigCommand swaps the validator configuration. Sent through Ask it
// replies with ReloadConfigResponse or the validation error.
type ReloadConfigCommand struct {
	Config utils.ValidatorConfig
}

type ReloadConfigResponse struct {
	Config utils.ValidatorConfig `json:"config"`
}

// SetMovingCommand toggles whether the ball is meant to be moving.
type SetMovingCommand struct {
	Moving bool
}

// SetBallStateCommand overwrites the ball's position and velocity.
// Diagnostics use it to reproduce anomalies.
type SetBallStateCommand struct {
	Position utils.Vector2
	Velocity utils.Vector2
}

// --- EventBroadcasterActor messages ---

// EventBatch carries the events one tick produced. It is also the JSON frame
// written to stream subscribers.
type EventBatch struct {
	MessageType string                      `json:"messageType"` // "validationEvents"
	Tick        uint64                      `json:"tick"`
	Now         float64                     `json:"now"`
	Events      []validator.ValidationEvent `json:"events"`
}

const EventBatchMessageType = "validationEvents"

// AddSubscriber registers a sink. Sent through Ask it replies with SubscriberAdded.
type AddSubscriber struct {
	Sink  EventSink
	Kinds []validator.Kind
}

type SubscriberAdded struct {
	ID string
}

type RemoveSubscriber struct {
	ID string
}

// SubscriberCountRequest is answered with an int.
type SubscriberCountRequest struct{}
