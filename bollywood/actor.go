package bollywood

// Actor is the interface that defines actor behavior.
// Actors process messages sequentially received from their mailbox.
type Actor interface {
	// Receive processes incoming messages. The actor can use the context
	// to interact with the system (self PID, sender PID, replies to Ask).
	Receive(ctx Context)
}

// PID (Process ID) represents a unique reference to an actor instance.
type PID struct {
	ID string
}

func (pid *PID) String() string {
	if pid == nil {
		return "<nil>"
	}
	return pid.ID
}

// Producer is a function that creates a new instance of an Actor.
type Producer func() Actor

// Props is a configuration object used to create actors.
type Props struct {
	producer    Producer
	mailboxSize int
}

// NewProps creates a new Props object with the given actor producer.
func NewProps(producer Producer) *Props {
	if producer == nil {
		panic("bollywood: producer cannot be nil")
	}
	return &Props{producer: producer, mailboxSize: defaultMailboxSize}
}

// WithMailboxSize overrides the mailbox buffer length.
func (p *Props) WithMailboxSize(size int) *Props {
	if size > 0 {
		p.mailboxSize = size
	}
	return p
}

// Produce creates a new actor instance using the configured producer.
func (p *Props) Produce() Actor {
	return p.producer()
}
