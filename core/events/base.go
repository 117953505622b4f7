package events

import "time"

// Kind is a namespaced event discriminant, such as "cursor.proposed" or
// "assistant_playback.interrupted". The namespaces are listed in the
// package documentation.
type Kind string

// Event is implemented by every session event. Events carry their kind for
// dispatch and the time they were created on the client.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base supplies the Event implementation for concrete event types. The
// timestamp is taken at construction, which for inbound events is the
// moment the frame was decoded, not the moment the server produced it.
type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
