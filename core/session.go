// Package session ties the protocol client, playback scheduling and cursor
// choreography into one realtime conversation facade.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JoaquinRaya/gemini-2-clippo/core/audio"
	"github.com/JoaquinRaya/gemini-2-clippo/core/events"
	"github.com/JoaquinRaya/gemini-2-clippo/core/live"
	"github.com/JoaquinRaya/gemini-2-clippo/core/vision"
)

const (
	defaultModel = "models/gemini-2.0-flash-exp"

	inputAudioMIMEType = "audio/pcm;rate=16000"
)

// Client is a realtime generative-media session. It forwards assistant
// audio to a playback clock as it arrives, runs cursor choreography for the
// built-in cursor tool and surfaces everything else through callbacks.
type Client struct {
	apiKey            string
	model             string
	voice             string
	systemInstruction string
	modalities        []string
	extraTools        []live.FunctionDeclaration
	liveOpts          []live.Option

	playbackClock PlaybackClock
	encoding      audio.EncodingInfo
	scheduleLead  time.Duration
	frameSource   FrameSource
	locator       vision.Locator

	live        *live.Client
	closeOnce   sync.Once
	baseContext context.Context
	cancelBase  context.CancelFunc

	mu            sync.Mutex
	emitter       eventEmitter
	options       SessionOptions
	scheduler     *outputScheduler
	choreographer *cursorChoreographer
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	baseContext, cancelBase := context.WithCancel(context.Background())
	c := &Client{
		apiKey:      apiKey,
		model:       defaultModel,
		modalities:  []string{"AUDIO"},
		encoding:    audio.GetDefaultEncodingInfo(),
		emitter:     noopEventEmitter,
		baseContext: baseContext,
		cancelBase:  cancelBase,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.live = live.NewClient(apiKey, append(c.liveOpts, live.WithEventHandler(c.handleEvent))...)
	return c
}

// Connect opens a session and applies the per-session callbacks. A repeat
// call supersedes the previous session.
func (c *Client) Connect(ctx context.Context, opts ...SessionOption) error {
	options := SessionOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	emitter := newCallbackEventEmitter(options)

	c.mu.Lock()
	c.options = options
	c.emitter = emitter
	if c.playbackClock != nil {
		c.scheduler = newOutputScheduler(c.playbackClock, c.encoding, c.scheduleLead, func(level float64) {
			// Runs on the device render goroutine; emitEvent takes the
			// lock so a concurrent reconnect cannot race the emitter swap.
			c.emitEvent(events.NewPlaybackVolume(level))
		})
	}
	if c.locator != nil && c.frameSource != nil {
		c.choreographer = newCursorChoreographer(c.locator, c.frameSource, c.emitEvent, func(response live.FunctionResponse) error {
			return c.live.SendToolResponse(response)
		})
	}
	c.mu.Unlock()

	err := c.live.Connect(ctx, live.Config{
		Model:              c.model,
		ResponseModalities: c.modalities,
		Voice:              c.voice,
		SystemInstruction:  c.systemInstruction,
		Tools:              c.sessionTools(),
	})
	c.notifyState()
	return err
}

// Disconnect ends the session, cancelling any running choreography and
// flushing scheduled playback.
func (c *Client) Disconnect() {
	c.mu.Lock()
	choreographer := c.choreographer
	scheduler := c.scheduler
	c.mu.Unlock()

	choreographer.CancelAll()
	scheduler.Flush()
	c.live.Disconnect()
	c.notifyState()
}

// Close releases the client. The configured playback clock and frame source
// are owned by the caller and are not closed here.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.Disconnect()
		c.cancelBase()
	})
}

// State reports the underlying session lifecycle position.
func (c *Client) State() live.State {
	return c.live.State()
}

// SendText submits one completed user text turn.
func (c *Client) SendText(text string) error {
	return c.live.SendText(text)
}

// SendRealtimeAudio streams one chunk of captured microphone audio.
func (c *Client) SendRealtimeAudio(pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}
	return c.live.SendRealtime(live.MediaChunk{MIMEType: inputAudioMIMEType, Data: pcm})
}

// SendRealtimeFrame streams one captured still frame, such as a screen or
// camera image.
func (c *Client) SendRealtimeFrame(mimeType string, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return c.live.SendRealtime(live.MediaChunk{MIMEType: mimeType, Data: data})
}

func (c *Client) sessionTools() []live.FunctionDeclaration {
	tools := append([]live.FunctionDeclaration(nil), c.extraTools...)
	c.mu.Lock()
	hasChoreography := c.choreographer != nil
	c.mu.Unlock()
	if hasChoreography {
		tools = append(tools, cursorToolDeclaration())
	}
	return tools
}

// handleEvent is the live client's sink. It runs on the read loop
// goroutine, so reactions here keep inbound ordering.
func (c *Client) handleEvent(event events.Event) {
	c.mu.Lock()
	scheduler := c.scheduler
	choreographer := c.choreographer
	options := c.options
	c.mu.Unlock()

	switch typedEvent := event.(type) {
	case events.SpeechFrame:
		if err := scheduler.Enqueue(typedEvent.Audio); err != nil {
			logger.Warn("failed to schedule assistant audio", "error", err)
		}

	case events.PlaybackInterrupted:
		// Flush before the callback so the interruption is audible
		// immediately, not after the backlog drains.
		scheduler.Flush()

	case events.ToolCallRequested:
		for _, call := range typedEvent.Calls {
			c.dispatchToolCall(call, choreographer, options)
		}
		return

	case events.ToolCallCancelled:
		choreographer.CancelCalls(typedEvent.IDs)
		return

	case events.SessionClosed, events.SessionFailed:
		choreographer.CancelAll()
		scheduler.Flush()
		defer c.notifyState()
	}

	c.emitEvent(event)
}

func (c *Client) dispatchToolCall(call events.FunctionCall, choreographer *cursorChoreographer, options SessionOptions) {
	if call.Name == cursorToolName && choreographer != nil {
		choreographer.HandleCall(c.baseContext, call)
		return
	}

	if options.onToolCall != nil {
		response, err := options.onToolCall(call)
		if err != nil {
			response = map[string]any{"success": false, "error": err.Error()}
		} else if response == nil {
			response = map[string]any{"success": true}
		}
		if err := c.live.SendToolResponse(live.FunctionResponse{ID: call.ID, Name: call.Name, Response: response}); err != nil {
			logger.Warn("failed to send tool response", "call_id", call.ID, "error", err)
		}
		return
	}

	logger.Warn("rejecting unsupported tool call", "tool", call.Name, "call_id", call.ID)
	c.emitEvent(events.NewLogLine(fmt.Sprintf("unsupported tool call: %s", call.Name)))
	err := c.live.SendToolResponse(live.FunctionResponse{
		ID:   call.ID,
		Name: call.Name,
		Response: map[string]any{
			"success": false,
			"error":   fmt.Sprintf("tool %q is not available", call.Name),
		},
	})
	if err != nil {
		logger.Warn("failed to send tool response", "call_id", call.ID, "error", err)
	}
}

func (c *Client) emitEvent(event events.Event) {
	c.mu.Lock()
	emitter := c.emitter
	c.mu.Unlock()
	emitter(event)
}

func (c *Client) notifyState() {
	c.mu.Lock()
	callback := c.options.onStateChanged
	c.mu.Unlock()
	if callback != nil {
		callback(c.live.State())
	}
}
