package events

const (
	// KindLogLine identifies an informational protocol log line.
	KindLogLine Kind = "log.line"
)

// LogLine surfaces an informational line from the protocol layer, such as a
// dropped malformed frame.
type LogLine struct {
	Base
	Message string
}

// NewLogLine creates a log line event.
func NewLogLine(message string) LogLine {
	return LogLine{Base: NewBase(KindLogLine), Message: message}
}
