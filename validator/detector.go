package validator

// Outcome is what one detector produced for one tick: at most one directive,
// events describing the state before it, and events describing the result.
type Outcome struct {
	Directive Directive
	// Detected events carry the state the detector evaluated.
	Detected []ValidationEvent
	// Corrected events are stamped with the body state read back after the
	// directive has been applied.
	Corrected []ValidationEvent
}

func (o *Outcome) detect(e ValidationEvent) {
	o.Detected = append(o.Detected, e)
}

func (o *Outcome) correct(d Directive, e ValidationEvent) {
	o.Directive = d
	o.Corrected = append(o.Corrected, e)
}

// Empty reports whether the detector had nothing to say this tick.
func (o Outcome) Empty() bool {
	return o.Directive.IsNone() && len(o.Detected) == 0 && len(o.Corrected) == 0
}

// Events returns detected then corrected events, unstamped.
func (o Outcome) Events() []ValidationEvent {
	out := make([]ValidationEvent, 0, len(o.Detected)+len(o.Corrected))
	out = append(out, o.Detected...)
	return append(out, o.Corrected...)
}
