package session

import (
	"encoding/json"
	"fmt"

	"github.com/JoaquinRaya/gemini-2-clippo/core/live"
	"github.com/invopop/jsonschema"
)

const cursorToolName = "move_cursor_sequence"

const cursorToolDescription = "Move a visible cursor through a timed sequence of on-screen " +
	"elements. Each point names an element visible on the user's screen and a delay in " +
	"seconds relative to the previous point. Use this to walk the user through a UI " +
	"while narrating."

// CursorPoint is one step of a requested cursor sequence.
type CursorPoint struct {
	Description  string  `json:"description" jsonschema_description:"What to point at, e.g. 'the blue submit button'"`
	DelaySeconds float64 `json:"delay_seconds" jsonschema_description:"Seconds to wait after the previous point before moving here"`
}

type cursorSequenceArgs struct {
	Points []CursorPoint `json:"points"`
}

func cursorToolDeclaration() live.FunctionDeclaration {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(&cursorSequenceArgs{})
	schema.Version = ""

	return live.FunctionDeclaration{
		Name:        cursorToolName,
		Description: cursorToolDescription,
		Parameters:  schema,
	}
}

func parseCursorSequenceArgs(raw json.RawMessage) (cursorSequenceArgs, error) {
	var args cursorSequenceArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return cursorSequenceArgs{}, fmt.Errorf("failed to parse cursor sequence arguments: %w", err)
	}
	if len(args.Points) == 0 {
		return cursorSequenceArgs{}, fmt.Errorf("cursor sequence has no points")
	}
	for i, point := range args.Points {
		if point.Description == "" {
			return cursorSequenceArgs{}, fmt.Errorf("cursor sequence point %d has no description", i)
		}
		if point.DelaySeconds < 0 {
			return cursorSequenceArgs{}, fmt.Errorf("cursor sequence point %d has a negative delay", i)
		}
	}
	return args, nil
}
