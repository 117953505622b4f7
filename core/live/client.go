// Package live implements the session protocol client: one logical session
// with the generative-media service over a persistent websocket.
package live

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/JoaquinRaya/gemini-2-clippo/core/events"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultEndpoint       = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
	defaultConnectTimeout = 15 * time.Second
	closeWriteTimeout     = 2 * time.Second
)

// State is the session lifecycle position. Transitions are strictly linear
// except for error short-circuits into StateFailed.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateActive
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// Client owns exactly one logical session at a time. A Connect from any
// non-idle state tears the previous transport down first.
type Client struct {
	apiKey         string
	endpoint       string
	dialer         *websocket.Dialer
	connectTimeout time.Duration
	onEvent        func(events.Event)

	mu      sync.Mutex
	conn    *websocket.Conn
	state   State
	lastErr error
	// gen distinguishes transport generations so a stale read loop or a
	// superseded connect cannot clobber a newer session's state.
	gen uint64

	writeMu sync.Mutex
}

type Option func(*Client)

// WithEndpoint overrides the service websocket endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithDialer overrides the websocket dialer.
func WithDialer(dialer *websocket.Dialer) Option {
	return func(c *Client) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

// WithConnectTimeout bounds dialing and the setup acknowledgement wait.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.connectTimeout = timeout
		}
	}
}

// WithEventHandler registers the inbound event sink. Events are delivered in
// wire arrival order from the read loop goroutine.
func WithEventHandler(handler func(events.Event)) Option {
	return func(c *Client) {
		if handler != nil {
			c.onEvent = handler
		}
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:         apiKey,
		endpoint:       defaultEndpoint,
		dialer:         websocket.DefaultDialer,
		connectTimeout: defaultConnectTimeout,
		state:          StateIdle,
		onEvent:        func(events.Event) {},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// State returns the current session lifecycle position.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the terminal session error, if any.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Connect opens the transport, sends the setup frame built from cfg and
// waits for the server's acknowledgement. Any prior session is torn down
// first. On success the session is Active and the read loop is running.
func (c *Client) Connect(ctx context.Context, cfg Config) error {
	ctx, span := tracer.Start(ctx, "connect live session")
	defer span.End()

	c.mu.Lock()
	c.teardownLocked()
	c.state = StateConnecting
	c.lastErr = nil
	gen := c.gen
	c.mu.Unlock()

	dialCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.connectTimeout)
		defer cancel()
	}

	conn, resp, err := c.dialer.DialContext(dialCtx, c.sessionURL(), nil)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("status %d: %w", resp.StatusCode, err)
		}
		return c.failConnect(gen, span, &ConnectionError{Op: "dial", Err: err})
	}

	if err := conn.WriteJSON(buildSetup(cfg)); err != nil {
		_ = conn.Close()
		return c.failConnect(gen, span, &ConnectionError{Op: "setup", Err: err})
	}

	_ = conn.SetReadDeadline(time.Now().Add(c.connectTimeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return c.failConnect(gen, span, &ConnectionError{Op: "setup ack", Err: err})
	}
	_ = conn.SetReadDeadline(time.Time{})

	acked, err := decodeServerFrame(payload)
	if err != nil {
		_ = conn.Close()
		return c.failConnect(gen, span, &ConnectionError{Op: "setup ack", Err: err})
	}
	if !containsConfigured(acked) {
		_ = conn.Close()
		return c.failConnect(gen, span, &ConnectionError{Op: "setup ack", Err: fmt.Errorf("unexpected first frame")})
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		_ = conn.Close()
		return &ConnectionError{Op: "connect", Err: fmt.Errorf("superseded by a newer connect")}
	}
	c.conn = conn
	c.state = StateActive
	c.mu.Unlock()

	c.emit(events.NewSessionOpened())
	for _, event := range acked {
		c.emit(event)
	}

	go c.readLoop(conn, gen)
	return nil
}

// Disconnect closes the transport if open and always leaves the session
// Closed. Closing an already-closed session is a no-op.
func (c *Client) Disconnect() {
	c.mu.Lock()
	wasLive := c.conn != nil
	c.teardownLocked()
	c.state = StateClosed
	c.mu.Unlock()

	if wasLive {
		c.emit(events.NewSessionClosed(websocket.CloseNormalClosure, "client disconnect"))
	}
}

// SendText frames text as a single completed user turn.
func (c *Client) SendText(text string) error {
	return c.send(clientMessage{ClientContent: &clientContent{
		Turns:        []content{{Role: "user", Parts: []part{{Text: text}}}},
		TurnComplete: true,
	}})
}

// SendRealtime writes each chunk as its own realtime-input frame. There is
// no batching guarantee and no message-level retry; the first write failure
// aborts the remainder.
func (c *Client) SendRealtime(chunks ...MediaChunk) error {
	for _, chunk := range chunks {
		msg := clientMessage{RealtimeInput: &realtimeInput{MediaChunks: []mediaBlob{{
			MIMEType: chunk.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(chunk.Data),
		}}}}
		if err := c.send(msg); err != nil {
			return err
		}
	}
	return nil
}

// SendToolResponse answers one or more server function calls.
func (c *Client) SendToolResponse(responses ...FunctionResponse) error {
	if len(responses) == 0 {
		return nil
	}

	frs := make([]functionResponse, 0, len(responses))
	for _, response := range responses {
		frs = append(frs, functionResponse{ID: response.ID, Name: response.Name, Response: response.Response})
	}
	return c.send(clientMessage{ToolResponse: &toolResponse{FunctionResponses: frs}})
}

func (c *Client) send(msg clientMessage) error {
	c.mu.Lock()
	if c.state != StateActive || c.conn == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	conn := c.conn
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(msg); err != nil {
		return &ConnectionError{Op: "write", Err: err}
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.finishRead(gen, err)
			return
		}

		// Binary and text frames alike carry JSON envelopes.
		decoded, err := decodeServerFrame(data)
		if err != nil {
			droppedFrames.Add(context.Background(), 1)
			logger.Warn("dropping malformed server frame", "error", err)
			c.emit(events.NewLogLine(fmt.Sprintf("dropped malformed frame: %v", err)))
			continue
		}

		if !c.currentGen(gen) {
			return
		}
		for _, event := range decoded {
			c.emit(event)
		}
	}
}

func (c *Client) finishRead(gen uint64, err error) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.gen++

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.state = StateClosed
		c.mu.Unlock()

		code, reason := websocket.CloseNormalClosure, ""
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) {
			code, reason = closeErr.Code, closeErr.Text
		}
		c.emit(events.NewSessionClosed(code, reason))
		return
	}

	connErr := &ConnectionError{Op: "read", Err: err}
	c.state = StateFailed
	c.lastErr = connErr
	c.mu.Unlock()

	c.emit(events.NewSessionFailed(connErr))
}

func (c *Client) failConnect(gen uint64, span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return err
	}
	c.state = StateFailed
	c.lastErr = err
	c.mu.Unlock()

	c.emit(events.NewSessionFailed(err))
	return err
}

func (c *Client) sessionURL() string {
	values := url.Values{}
	values.Set("key", c.apiKey)
	return c.endpoint + "?" + values.Encode()
}

// teardownLocked closes the current transport, if any, and bumps the
// generation so in-flight loops for the old transport become inert.
func (c *Client) teardownLocked() {
	if c.conn != nil {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWriteTimeout))
		c.writeMu.Unlock()
		_ = c.conn.Close()
		c.conn = nil
	}
	c.gen++
}

func (c *Client) currentGen(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

func (c *Client) emit(event events.Event) {
	if c.onEvent != nil {
		c.onEvent(event)
	}
}

func containsConfigured(decoded []events.Event) bool {
	for _, event := range decoded {
		if event.Kind() == events.KindSessionConfigured {
			return true
		}
	}
	return false
}
