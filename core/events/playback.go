package events

const (
	// KindPlaybackInterrupted identifies a server-side interruption.
	KindPlaybackInterrupted Kind = "assistant_playback.interrupted"
	// KindPlaybackVolume identifies a periodic output level report.
	KindPlaybackVolume Kind = "assistant_playback.volume"
)

// PlaybackInterrupted signals that the server discarded in-flight generation
// and buffered playback was flushed.
type PlaybackInterrupted struct {
	Base
}

// NewPlaybackInterrupted creates a playback interrupted event.
func NewPlaybackInterrupted() PlaybackInterrupted {
	return PlaybackInterrupted{Base: NewBase(KindPlaybackInterrupted)}
}

// PlaybackVolume carries an aggregate output level in [0, 1]. Observational
// only; it never affects scheduling.
type PlaybackVolume struct {
	Base
	Level float64
}

// NewPlaybackVolume creates a playback volume event.
func NewPlaybackVolume(level float64) PlaybackVolume {
	return PlaybackVolume{Base: NewBase(KindPlaybackVolume), Level: level}
}
