package utils

import "time"

const (
	// Period is the default fixed timestep of the demo host (50 Hz).
	Period = 20 * time.Millisecond

	// AskTimeout bounds how long HTTP handlers wait on the validator actor.
	AskTimeout = 250 * time.Millisecond

	// ShutdownTimeout bounds actor engine shutdown.
	ShutdownTimeout = 2 * time.Second
)
