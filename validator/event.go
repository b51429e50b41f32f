package validator

import (
	"fmt"
	"strings"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/lguibr/ballguard/utils"
)

// Category classifies what the body collided with.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryPaddle
	CategoryObstacle
	CategoryBoundary
	CategorySpecial
)

var categoryNames = [...]string{
	CategoryUnknown:  "Unknown",
	CategoryPaddle:   "Paddle",
	CategoryObstacle: "Obstacle",
	CategoryBoundary: "Boundary",
	CategorySpecial:  "Special",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return categoryNames[CategoryUnknown]
	}
	return categoryNames[c]
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// CollisionEvent is one raw contact notification from the collision source.
type CollisionEvent struct {
	ContactPoint  utils.Vector2 `json:"contactPoint"`
	ContactNormal utils.Vector2 `json:"contactNormal"`
	OtherID       string        `json:"otherId"`
	Category      Category      `json:"category"`
	Timestamp     float64       `json:"timestamp"`
}

// Kind identifies what a ValidationEvent records.
type Kind int

const (
	KindStuckDetected Kind = iota + 1
	KindStuckCorrected
	KindTunnelingDetected
	KindTunnelingCorrected
	KindSpeedBelowMin
	KindSpeedAboveMax
	KindSimultaneousCollisionResolved
	KindRecovery
)

var kindNames = map[Kind]string{
	KindStuckDetected:                 "StuckDetected",
	KindStuckCorrected:                "StuckCorrected",
	KindTunnelingDetected:             "TunnelingDetected",
	KindTunnelingCorrected:            "TunnelingCorrected",
	KindSpeedBelowMin:                 "SpeedBelowMin",
	KindSpeedAboveMax:                 "SpeedAboveMax",
	KindSimultaneousCollisionResolved: "SimultaneousCollisionResolved",
	KindRecovery:                      "Recovery",
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindStuckDetected, KindStuckCorrected,
		KindTunnelingDetected, KindTunnelingCorrected,
		KindSpeedBelowMin, KindSpeedAboveMax,
		KindSimultaneousCollisionResolved, KindRecovery,
	}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind resolves a kind name case-insensitively.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds() {
		if strings.EqualFold(k.String(), name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown validation event kind %q", name)
}

// ValidationEvent is an audit record of a detection or correction.
type ValidationEvent struct {
	Kind      Kind          `json:"kind"`
	Position  utils.Vector2 `json:"position"`
	Velocity  utils.Vector2 `json:"velocity"`
	Timestamp float64       `json:"timestamp"`
	Detail    string        `json:"detail"`
}

func newEvent(kind Kind, state BodyState, now float64, detail string) ValidationEvent {
	return ValidationEvent{
		Kind:      kind,
		Position:  state.Position,
		Velocity:  state.Velocity,
		Timestamp: now,
		Detail:    detail,
	}
}

// details builds "key=value" detail strings in insertion order.
type details struct {
	fields *orderedmap.OrderedMap[string, any]
}

func newDetails() *details {
	return &details{fields: orderedmap.NewOrderedMap[string, any]()}
}

func (d *details) set(key string, value any) *details {
	d.fields.Set(key, value)
	return d
}

func (d *details) String() string {
	parts := make([]string, 0, d.fields.Len())
	for _, key := range d.fields.Keys() {
		v, _ := d.fields.Get(key)
		switch value := v.(type) {
		case float64:
			parts = append(parts, fmt.Sprintf("%s=%.4f", key, value))
		case utils.Vector2:
			parts = append(parts, fmt.Sprintf("%s=(%.4f,%.4f)", key, value.X(), value.Y()))
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", key, value))
		}
	}
	return strings.Join(parts, " ")
}
