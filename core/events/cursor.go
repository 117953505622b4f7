package events

const (
	// KindCursorSequenceStarted identifies an accepted choreography run.
	KindCursorSequenceStarted Kind = "cursor.sequence_started"
	// KindCursorProposed identifies a grounded cursor position proposal.
	KindCursorProposed Kind = "cursor.proposed"
	// KindCursorSequenceEnded identifies run completion or cancellation.
	KindCursorSequenceEnded Kind = "cursor.sequence_ended"
)

// CursorSequenceStarted marks the start of a choreography run.
type CursorSequenceStarted struct {
	Base
	RunID  string
	Points int
}

// NewCursorSequenceStarted creates a cursor sequence started event.
func NewCursorSequenceStarted(runID string, points int) CursorSequenceStarted {
	return CursorSequenceStarted{Base: NewBase(KindCursorSequenceStarted), RunID: runID, Points: points}
}

// CursorProposed is a timed cursor position proposal in the normalized
// 0-1000 space, x along columns and y along rows.
type CursorProposed struct {
	Base
	RunID       string
	X           int
	Y           int
	Description string
}

// NewCursorProposed creates a cursor proposed event.
func NewCursorProposed(runID string, x, y int, description string) CursorProposed {
	return CursorProposed{Base: NewBase(KindCursorProposed), RunID: runID, X: x, Y: y, Description: description}
}

// CursorSequenceEnded marks the end of a choreography run. Cancelled is true
// when the run was cut short by a newer sequence or a disconnect.
type CursorSequenceEnded struct {
	Base
	RunID     string
	Cancelled bool
}

// NewCursorSequenceEnded creates a cursor sequence ended event.
func NewCursorSequenceEnded(runID string, cancelled bool) CursorSequenceEnded {
	return CursorSequenceEnded{Base: NewBase(KindCursorSequenceEnded), RunID: runID, Cancelled: cancelled}
}
