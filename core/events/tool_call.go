package events

import "encoding/json"

const (
	// KindToolCallRequested identifies a server function call request.
	KindToolCallRequested Kind = "tool_call.requested"
	// KindToolCallCancelled identifies withdrawal of requested calls.
	KindToolCallCancelled Kind = "tool_call.cancelled"
)

// FunctionCall is one named call requested by the server. Arguments are kept
// raw; the protocol layer does not validate them.
type FunctionCall struct {
	ID   string
	Name string
	Args json.RawMessage
}

// ToolCallRequested carries one or more function calls to be answered or
// acted upon by the client.
type ToolCallRequested struct {
	Base
	Calls []FunctionCall
}

// NewToolCallRequested creates a tool call requested event.
func NewToolCallRequested(calls []FunctionCall) ToolCallRequested {
	return ToolCallRequested{Base: NewBase(KindToolCallRequested), Calls: calls}
}

// ToolCallCancelled withdraws previously requested calls by id.
type ToolCallCancelled struct {
	Base
	IDs []string
}

// NewToolCallCancelled creates a tool call cancelled event.
func NewToolCallCancelled(ids []string) ToolCallCancelled {
	return ToolCallCancelled{Base: NewBase(KindToolCallCancelled), IDs: ids}
}
