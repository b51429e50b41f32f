package bollywood

// --- System Messages ---

// Started is sent to an actor after its goroutine has started.
type Started struct{}

// Stopping is sent to an actor to signal it should prepare to stop.
// The actor should finish its current message and perform cleanup.
// No more user messages will be delivered after Stopping.
type Stopping struct{}

// Stopped is sent to an actor just before its goroutine exits.
// This is the final message an actor will receive.
type Stopped struct{}

// --- Message Envelope ---

// messageEnvelope wraps a user message with sender and reply information.
type messageEnvelope struct {
	Sender    *PID
	Message   interface{}
	RequestID string
	ReplyCh   chan interface{}
}

func isSystemMessage(message interface{}) bool {
	switch message.(type) {
	case Started, Stopping, Stopped:
		return true
	}
	return false
}
