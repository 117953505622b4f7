// Package vision grounds natural-language descriptions of on-screen
// elements in captured frames.
package vision

import "context"

// Point is a location in the service's normalized coordinate space, where
// both axes run 0 to 1000 regardless of the frame's pixel dimensions. The
// grounding service reports points row first.
type Point struct {
	Row int
	Col int
}

// Frame is one captured still image.
type Frame struct {
	MIMEType string
	Data     []byte
}

// Locator resolves a description like "the blue submit button" to a point
// on the frame.
type Locator interface {
	Locate(ctx context.Context, frame Frame, description string) (Point, error)
}
