package events

const (
	// KindSessionOpened identifies transport open confirmation.
	KindSessionOpened Kind = "session.opened"
	// KindSessionConfigured identifies the server's setup acknowledgement.
	KindSessionConfigured Kind = "session.configured"
	// KindSessionClosed identifies orderly transport close.
	KindSessionClosed Kind = "session.closed"
	// KindSessionFailed identifies a terminal session error.
	KindSessionFailed Kind = "session.failed"
)

// SessionOpened marks the transport as open; setup has been sent but not yet
// acknowledged.
type SessionOpened struct {
	Base
}

// NewSessionOpened creates a session opened event.
func NewSessionOpened() SessionOpened {
	return SessionOpened{Base: NewBase(KindSessionOpened)}
}

// SessionConfigured marks the server's setup acknowledgement; the session is
// active from this point.
type SessionConfigured struct {
	Base
}

// NewSessionConfigured creates a session configured event.
func NewSessionConfigured() SessionConfigured {
	return SessionConfigured{Base: NewBase(KindSessionConfigured)}
}

// SessionClosed marks an orderly transport close.
type SessionClosed struct {
	Base
	Code   int
	Reason string
}

// NewSessionClosed creates a session closed event.
func NewSessionClosed(code int, reason string) SessionClosed {
	return SessionClosed{Base: NewBase(KindSessionClosed), Code: code, Reason: reason}
}

// SessionFailed marks a terminal transport or protocol error. The session is
// over; a fresh connect is required.
type SessionFailed struct {
	Base
	Err error
}

// NewSessionFailed creates a session failed event.
func NewSessionFailed(err error) SessionFailed {
	return SessionFailed{Base: NewBase(KindSessionFailed), Err: err}
}
