package events

const (
	// KindContentSegment identifies a streamed model text piece.
	KindContentSegment Kind = "assistant_content.segment"
	// KindContentFinal identifies the end of a model turn.
	KindContentFinal Kind = "assistant_content.final"
)

// ContentSegment carries an incremental piece of the model's text output.
type ContentSegment struct {
	Base
	Segment string
}

// NewContentSegment creates a content segment event.
func NewContentSegment(segment string) ContentSegment {
	return ContentSegment{Base: NewBase(KindContentSegment), Segment: segment}
}

// ContentFinal marks the end of the current model turn.
type ContentFinal struct {
	Base
}

// NewContentFinal creates a content final event.
func NewContentFinal() ContentFinal {
	return ContentFinal{Base: NewBase(KindContentFinal)}
}
