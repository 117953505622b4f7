package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JoaquinRaya/gemini-2-clippo/core/events"
	"github.com/gorilla/websocket"
)

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) record(event events.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) snapshot() []events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]events.Event(nil), l.events...)
}

func (l *eventLog) countKind(kind events.Kind) int {
	count := 0
	for _, event := range l.snapshot() {
		if event.Kind() == kind {
			count++
		}
	}
	return count
}

// newLiveServer upgrades every request, acknowledges the setup frame and
// then hands the connection to serve.
func newLiveServer(t *testing.T, serve func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("expected upgrade to succeed, got %v", err)
			return
		}
		defer conn.Close()

		var setup map[string]json.RawMessage
		if err := conn.ReadJSON(&setup); err != nil {
			t.Errorf("expected a setup frame, got %v", err)
			return
		}
		if _, ok := setup["setup"]; !ok {
			t.Errorf("expected first frame to be setup, got %v", setup)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"setupComplete":{}}`)); err != nil {
			return
		}

		if serve != nil {
			serve(conn)
		}
	}))
}

func wsEndpoint(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func waitFor(t *testing.T, what string, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestConnectActivatesSession(t *testing.T) {
	done := make(chan struct{})
	server := newLiveServer(t, func(conn *websocket.Conn) { <-done })
	defer server.Close()
	defer close(done)

	log := &eventLog{}
	client := NewClient("test-key",
		WithEndpoint(wsEndpoint(server)),
		WithEventHandler(log.record),
	)

	if err := client.Connect(context.Background(), Config{Model: "models/test"}); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}
	defer client.Disconnect()

	if got := client.State(); got != StateActive {
		t.Fatalf("expected state %v, got %v", StateActive, got)
	}

	recorded := log.snapshot()
	if len(recorded) < 2 {
		t.Fatalf("expected at least two events, got %d", len(recorded))
	}
	if recorded[0].Kind() != events.KindSessionOpened {
		t.Fatalf("expected %q first, got %q", events.KindSessionOpened, recorded[0].Kind())
	}
	if recorded[1].Kind() != events.KindSessionConfigured {
		t.Fatalf("expected %q second, got %q", events.KindSessionConfigured, recorded[1].Kind())
	}
}

func TestSendRequiresActiveSession(t *testing.T) {
	client := NewClient("test-key")

	if err := client.SendText("hello"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected %v, got %v", ErrNotConnected, err)
	}
	if err := client.SendRealtime(MediaChunk{MIMEType: "audio/pcm", Data: []byte{0, 0}}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected %v, got %v", ErrNotConnected, err)
	}
	if err := client.SendToolResponse(FunctionResponse{Name: "noop"}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected %v, got %v", ErrNotConnected, err)
	}
}

func TestSendTextFramesCompletedTurn(t *testing.T) {
	frames := make(chan map[string]json.RawMessage, 1)
	server := newLiveServer(t, func(conn *websocket.Conn) {
		var frame map[string]json.RawMessage
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		frames <- frame
	})
	defer server.Close()

	client := NewClient("test-key", WithEndpoint(wsEndpoint(server)))
	if err := client.Connect(context.Background(), Config{Model: "models/test"}); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}
	defer client.Disconnect()

	if err := client.SendText("hi there"); err != nil {
		t.Fatalf("expected send to succeed, got %v", err)
	}

	select {
	case frame := <-frames:
		raw, ok := frame["clientContent"]
		if !ok {
			t.Fatalf("expected a clientContent frame, got %v", frame)
		}
		var payload struct {
			Turns []struct {
				Role  string `json:"role"`
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"turns"`
			TurnComplete bool `json:"turnComplete"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Fatalf("expected clientContent to parse, got %v", err)
		}
		if !payload.TurnComplete {
			t.Fatalf("expected a completed turn")
		}
		if len(payload.Turns) != 1 || len(payload.Turns[0].Parts) != 1 {
			t.Fatalf("expected one single-part turn, got %+v", payload.Turns)
		}
		if payload.Turns[0].Parts[0].Text != "hi there" {
			t.Fatalf("expected text %q, got %q", "hi there", payload.Turns[0].Parts[0].Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the content frame")
	}
}

func TestReadLoopSkipsMalformedFrames(t *testing.T) {
	done := make(chan struct{})
	server := newLiveServer(t, func(conn *websocket.Conn) {
		frames := []string{
			`{"serverContent":{"modelTurn":{"parts":[{"text":"first "}]}}}`,
			`this is not a frame`,
			`{"serverContent":{"modelTurn":{"parts":[{"text":"second"}]},"turnComplete":true}}`,
		}
		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		<-done
	})
	defer server.Close()
	defer close(done)

	log := &eventLog{}
	client := NewClient("test-key",
		WithEndpoint(wsEndpoint(server)),
		WithEventHandler(log.record),
	)
	if err := client.Connect(context.Background(), Config{Model: "models/test"}); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}
	defer client.Disconnect()

	waitFor(t, "the final content event", func() bool {
		return log.countKind(events.KindContentFinal) == 1
	})

	var text strings.Builder
	for _, event := range log.snapshot() {
		if segment, ok := event.(events.ContentSegment); ok {
			text.WriteString(segment.Segment)
		}
	}
	if text.String() != "first second" {
		t.Fatalf("expected accumulated text %q, got %q", "first second", text.String())
	}
	if log.countKind(events.KindSessionFailed) != 0 {
		t.Fatalf("expected no session failure from a malformed frame")
	}
	if log.countKind(events.KindLogLine) == 0 {
		t.Fatalf("expected a log line for the dropped frame")
	}
}

func TestConnectSupersedesPriorSession(t *testing.T) {
	done := make(chan struct{})
	firstGone := make(chan struct{}, 2)
	server := newLiveServer(t, func(conn *websocket.Conn) {
		if _, _, err := conn.ReadMessage(); err != nil {
			firstGone <- struct{}{}
			return
		}
		<-done
	})
	defer server.Close()
	defer close(done)

	client := NewClient("test-key", WithEndpoint(wsEndpoint(server)))
	if err := client.Connect(context.Background(), Config{Model: "models/test"}); err != nil {
		t.Fatalf("expected first connect to succeed, got %v", err)
	}
	if err := client.Connect(context.Background(), Config{Model: "models/test"}); err != nil {
		t.Fatalf("expected second connect to succeed, got %v", err)
	}
	defer client.Disconnect()

	select {
	case <-firstGone:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the first transport to be torn down")
	}
	if got := client.State(); got != StateActive {
		t.Fatalf("expected state %v after reconnect, got %v", StateActive, got)
	}
	if err := client.SendText("still here"); err != nil {
		t.Fatalf("expected the new session to accept writes, got %v", err)
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	done := make(chan struct{})
	server := newLiveServer(t, func(conn *websocket.Conn) { <-done })
	defer server.Close()
	defer close(done)

	log := &eventLog{}
	client := NewClient("test-key",
		WithEndpoint(wsEndpoint(server)),
		WithEventHandler(log.record),
	)
	if err := client.Connect(context.Background(), Config{Model: "models/test"}); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}

	client.Disconnect()
	client.Disconnect()

	if got := client.State(); got != StateClosed {
		t.Fatalf("expected state %v, got %v", StateClosed, got)
	}
	if got := log.countKind(events.KindSessionClosed); got != 1 {
		t.Fatalf("expected exactly one closed event, got %d", got)
	}
	if err := client.SendText("too late"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected %v after disconnect, got %v", ErrNotConnected, err)
	}
}

func TestConnectFailureIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no websockets here", http.StatusForbidden)
	}))
	defer server.Close()

	log := &eventLog{}
	client := NewClient("test-key",
		WithEndpoint(wsEndpoint(server)),
		WithEventHandler(log.record),
		WithConnectTimeout(time.Second),
	)

	err := client.Connect(context.Background(), Config{Model: "models/test"})
	if err == nil {
		t.Fatalf("expected connect to fail")
	}
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected a connection error, got %T: %v", err, err)
	}
	if got := client.State(); got != StateFailed {
		t.Fatalf("expected state %v, got %v", StateFailed, got)
	}
	if log.countKind(events.KindSessionFailed) != 1 {
		t.Fatalf("expected one failure event")
	}
	if client.Err() == nil {
		t.Fatalf("expected the terminal error to be retained")
	}
}
