package validator

// EventLog is a bounded, time-ordered ring of validation events. Appending never
// fails: when full, the oldest entry is evicted. Storage grows with use up to
// the capacity.
type EventLog struct {
	entries   []ValidationEvent
	head      int
	size      int
	capacity  int
	retention float64
}

// NewEventLog creates a log holding at most capacity entries, each kept for at
// most retention seconds. capacity is raised to 1 when smaller.
func NewEventLog(capacity int, retention float64) *EventLog {
	if capacity < 1 {
		capacity = 1
	}
	return &EventLog{
		capacity:  capacity,
		retention: retention,
	}
}

func (l *EventLog) Len() int { return l.size }
func (l *EventLog) Cap() int { return l.capacity }

func (l *EventLog) at(i int) *ValidationEvent {
	return &l.entries[(l.head+i)%len(l.entries)]
}

func (l *EventLog) popOldest() {
	l.entries[l.head] = ValidationEvent{}
	l.head = (l.head + 1) % len(l.entries)
	l.size--
}

// linearize rewrites the ring oldest first starting at index 0.
func (l *EventLog) linearize() {
	if l.head == 0 {
		return
	}
	l.entries = l.Snapshot()
	l.head = 0
}

// Append stores e, evicting the oldest entry when the log is full. An event
// stamped earlier than the newest entry is stamped with the newest timestamp so
// the log stays ordered.
func (l *EventLog) Append(e ValidationEvent) {
	if l.size > 0 {
		if newest := l.at(l.size - 1).Timestamp; e.Timestamp < newest {
			e.Timestamp = newest
		}
	}
	if l.size == len(l.entries) {
		if len(l.entries) < l.capacity {
			l.linearize()
			l.entries = append(l.entries, e)
			l.size++
			return
		}
		l.popOldest()
	}
	*l.at(l.size) = e
	l.size++
}

// Prune removes entries older than the retention window relative to now and
// returns how many were removed.
func (l *EventLog) Prune(now float64) int {
	cutoff := now - l.retention
	removed := 0
	for l.size > 0 && l.at(0).Timestamp < cutoff {
		l.popOldest()
		removed++
	}
	return removed
}

// Query returns, oldest first, copies of the entries match accepts. A nil
// predicate matches everything.
func (l *EventLog) Query(match func(ValidationEvent) bool) []ValidationEvent {
	out := make([]ValidationEvent, 0, l.size)
	for i := 0; i < l.size; i++ {
		e := *l.at(i)
		if match == nil || match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Snapshot copies the whole log, oldest first.
func (l *EventLog) Snapshot() []ValidationEvent {
	return l.Query(nil)
}

// Resize changes capacity and retention, keeping the newest entries that fit.
func (l *EventLog) Resize(capacity int, retention float64) {
	kept := l.Snapshot()
	if capacity < 1 {
		capacity = 1
	}
	if len(kept) > capacity {
		kept = kept[len(kept)-capacity:]
	}
	l.entries = kept
	l.head = 0
	l.size = len(kept)
	l.capacity = capacity
	l.retention = retention
}

// OfKind matches events whose kind is one of kinds.
func OfKind(kinds ...Kind) func(ValidationEvent) bool {
	return func(e ValidationEvent) bool {
		for _, k := range kinds {
			if e.Kind == k {
				return true
			}
		}
		return false
	}
}

// Since matches events stamped at or after t.
func Since(t float64) func(ValidationEvent) bool {
	return func(e ValidationEvent) bool {
		return e.Timestamp >= t
	}
}

// All matches events every predicate accepts.
func All(predicates ...func(ValidationEvent) bool) func(ValidationEvent) bool {
	return func(e ValidationEvent) bool {
		for _, p := range predicates {
			if p != nil && !p(e) {
				return false
			}
		}
		return true
	}
}
