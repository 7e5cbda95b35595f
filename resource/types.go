package resource

import "fmt"

// Handle is an opaque reference to an entry in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Kind tags the entity an entry represents. A handle is only valid for the
// kind it was issued with.
type Kind uint8

const (
	KindRequest Kind = iota + 1
	KindResponse
	KindBody
	KindEndpoint
)

var kindNames = map[Kind]string{
	KindRequest:  "request",
	KindResponse: "response",
	KindBody:     "body",
	KindEndpoint: "endpoint",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Kinds lists every entity kind a table can hold.
func Kinds() []Kind {
	return []Kind{KindRequest, KindResponse, KindBody, KindEndpoint}
}

// EventType classifies lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

func (e EventType) String() string {
	if e == EventCreated {
		return "created"
	}
	return "dropped"
}

// Event is a lifecycle notification for one entry.
type Event struct {
	Value  any
	Handle Handle
	Kind   Kind
	Type   EventType
}

// Observer receives lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Backend stores entries by handle.
type Backend interface {
	// Create stores a value and returns a handle.
	Create(kind Kind, value any) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// Kind returns the kind the handle was issued with.
	Kind(handle Handle) (Kind, bool)

	// Drop removes an entry and returns its value.
	Drop(handle Handle) (any, bool)

	// Close releases all entries.
	Close() error
}

// Dropper is optionally implemented by values that hold resources of their
// own, such as open readers.
type Dropper interface {
	Drop()
}
