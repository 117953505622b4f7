package events

const (
	// KindSpeechFrame identifies a raw PCM chunk from the server.
	KindSpeechFrame Kind = "assistant_speech.frame"
)

// SpeechFrame carries one decoded PCM chunk of synthesized speech.
type SpeechFrame struct {
	Base
	Audio []byte
}

// NewSpeechFrame creates a speech frame event.
func NewSpeechFrame(audio []byte) SpeechFrame {
	return SpeechFrame{Base: NewBase(KindSpeechFrame), Audio: audio}
}
