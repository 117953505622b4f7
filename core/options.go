package session

import (
	"time"

	"github.com/JoaquinRaya/gemini-2-clippo/core/audio"
	"github.com/JoaquinRaya/gemini-2-clippo/core/events"
	"github.com/JoaquinRaya/gemini-2-clippo/core/live"
	"github.com/JoaquinRaya/gemini-2-clippo/core/vision"
)

type ClientOption func(*Client)

// FrameSource exposes the most recent captured frame, typically backed by a
// screen or camera capture loop.
type FrameSource interface {
	// CurrentFrame returns the latest frame and whether one is available.
	CurrentFrame() (vision.Frame, bool)
}

// WithPlaybackClock wires the device clock used to schedule assistant audio.
// Without one, inbound audio is surfaced through callbacks but not played.
func WithPlaybackClock(clock PlaybackClock) ClientOption {
	return func(c *Client) { c.playbackClock = clock }
}

// WithAudioEncoding overrides the assumed encoding of assistant audio.
func WithAudioEncoding(encodingInfo audio.EncodingInfo) ClientOption {
	return func(c *Client) { c.encoding = encodingInfo }
}

// WithScheduleLead overrides how far ahead of the device clock the first
// chunk of a burst is scheduled.
func WithScheduleLead(lead time.Duration) ClientOption {
	return func(c *Client) {
		if lead > 0 {
			c.scheduleLead = lead
		}
	}
}

// WithFrameSource wires the capture loop consulted when a cursor sequence
// needs a frame to ground against.
func WithFrameSource(source FrameSource) ClientOption {
	return func(c *Client) { c.frameSource = source }
}

// WithVisionLocator wires the grounding model used to resolve cursor
// sequence descriptions. Cursor choreography requires both a locator and a
// frame source; without them the cursor tool is not advertised.
func WithVisionLocator(locator vision.Locator) ClientOption {
	return func(c *Client) { c.locator = locator }
}

// WithModel overrides the generative model requested at session setup.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithVoice selects the prebuilt voice for spoken responses.
func WithVoice(voice string) ClientOption {
	return func(c *Client) { c.voice = voice }
}

// WithSystemInstruction sets the session's standing instruction.
func WithSystemInstruction(instruction string) ClientOption {
	return func(c *Client) { c.systemInstruction = instruction }
}

// WithResponseModalities overrides the modalities requested from the model.
func WithResponseModalities(modalities ...string) ClientOption {
	return func(c *Client) { c.modalities = modalities }
}

// WithTools advertises additional client tools alongside the built-in
// cursor tool. Calls to them are surfaced through the tool call callback.
func WithTools(tools ...live.FunctionDeclaration) ClientOption {
	return func(c *Client) { c.extraTools = append(c.extraTools, tools...) }
}

// WithLiveOptions forwards options to the underlying protocol client.
func WithLiveOptions(opts ...live.Option) ClientOption {
	return func(c *Client) { c.liveOpts = append(c.liveOpts, opts...) }
}

type SessionOptions struct {
	onContentSegment func(segment string)
	onContentFinal   func()
	onInterruption   func()
	onVolume         func(level float64)
	onAudio          func(pcm []byte)
	onCursor         func(x, y int, description string)
	onCursorSequence func(runID string, started bool)
	onStateChanged   func(state live.State)
	onToolCall       func(call events.FunctionCall) (map[string]any, error)
	onLog            func(line string)
	onSessionClosed  func(code int, reason string)
	onSessionFailed  func(err error)
}

type SessionOption func(*SessionOptions)

// WithContentSegmentCallback registers a callback for streamed response
// text segments.
func WithContentSegmentCallback(callback func(segment string)) SessionOption {
	return func(o *SessionOptions) { o.onContentSegment = callback }
}

// WithContentFinalCallback registers a callback fired when the assistant
// finishes a turn.
func WithContentFinalCallback(callback func()) SessionOption {
	return func(o *SessionOptions) { o.onContentFinal = callback }
}

// WithInterruptionCallback registers a callback fired when the server
// abandons in-flight output, after local playback has been flushed.
func WithInterruptionCallback(callback func()) SessionOption {
	return func(o *SessionOptions) { o.onInterruption = callback }
}

// WithVolumeCallback registers a callback for playback volume levels in the
// range 0 to 1, derived from audio as it renders.
func WithVolumeCallback(callback func(level float64)) SessionOption {
	return func(o *SessionOptions) { o.onVolume = callback }
}

// WithAudioCallback registers a callback for raw assistant audio chunks, in
// arrival order, independent of playback scheduling.
func WithAudioCallback(callback func(pcm []byte)) SessionOption {
	return func(o *SessionOptions) { o.onAudio = callback }
}

// WithCursorCallback registers a callback for grounded cursor positions.
// Coordinates are in the normalized 0-1000 space with x horizontal.
func WithCursorCallback(callback func(x, y int, description string)) SessionOption {
	return func(o *SessionOptions) { o.onCursor = callback }
}

// WithCursorSequenceCallback registers a callback fired when a cursor
// sequence starts (started true) and when it ends or is cancelled.
func WithCursorSequenceCallback(callback func(runID string, started bool)) SessionOption {
	return func(o *SessionOptions) { o.onCursorSequence = callback }
}

// WithStateChangedCallback registers a callback for session lifecycle
// transitions.
func WithStateChangedCallback(callback func(state live.State)) SessionOption {
	return func(o *SessionOptions) { o.onStateChanged = callback }
}

// WithToolCallHandler registers a handler for calls to tools advertised via
// WithTools. The returned map is sent back as the tool response; a non-nil
// error is reported to the model as a failure.
func WithToolCallHandler(handler func(call events.FunctionCall) (map[string]any, error)) SessionOption {
	return func(o *SessionOptions) { o.onToolCall = handler }
}

// WithLogCallback registers a callback for human-readable session notices,
// such as dropped malformed frames.
func WithLogCallback(callback func(line string)) SessionOption {
	return func(o *SessionOptions) { o.onLog = callback }
}

// WithSessionClosedCallback registers a callback fired when the session
// ends cleanly.
func WithSessionClosedCallback(callback func(code int, reason string)) SessionOption {
	return func(o *SessionOptions) { o.onSessionClosed = callback }
}

// WithSessionFailedCallback registers a callback fired when the session
// ends with an error.
func WithSessionFailedCallback(callback func(err error)) SessionOption {
	return func(o *SessionOptions) { o.onSessionFailed = callback }
}
