package live

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/JoaquinRaya/gemini-2-clippo/core/events"
)

func TestDecodeSetupComplete(t *testing.T) {
	decoded, err := decodeServerFrame([]byte(`{"setupComplete":{}}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected one event, got %d", len(decoded))
	}
	if got := decoded[0].Kind(); got != events.KindSessionConfigured {
		t.Fatalf("expected kind %q, got %q", events.KindSessionConfigured, got)
	}
}

func TestDecodeModelTurnTextSegments(t *testing.T) {
	frame := `{"serverContent":{"modelTurn":{"parts":[{"text":"Hello"},{"text":" world"}]}}}`

	decoded, err := decodeServerFrame([]byte(frame))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected two events, got %d", len(decoded))
	}

	first, ok := decoded[0].(events.ContentSegment)
	if !ok {
		t.Fatalf("expected a content segment, got %T", decoded[0])
	}
	if first.Segment != "Hello" {
		t.Fatalf("expected segment %q, got %q", "Hello", first.Segment)
	}
	second := decoded[1].(events.ContentSegment)
	if second.Segment != " world" {
		t.Fatalf("expected segment %q, got %q", " world", second.Segment)
	}
}

func TestDecodeTurnCompleteAppendsContentFinal(t *testing.T) {
	frame := `{"serverContent":{"modelTurn":{"parts":[{"text":"done"}]},"turnComplete":true}}`

	decoded, err := decodeServerFrame([]byte(frame))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected two events, got %d", len(decoded))
	}
	if got := decoded[1].Kind(); got != events.KindContentFinal {
		t.Fatalf("expected trailing kind %q, got %q", events.KindContentFinal, got)
	}
}

func TestDecodeInterruptedComesFirst(t *testing.T) {
	frame := `{"serverContent":{"interrupted":true,"modelTurn":{"parts":[{"text":"stale"}]}}}`

	decoded, err := decodeServerFrame([]byte(frame))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected two events, got %d", len(decoded))
	}
	if got := decoded[0].Kind(); got != events.KindPlaybackInterrupted {
		t.Fatalf("expected interruption first, got %q", got)
	}
}

func TestDecodeInlineAudioPart(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0}
	frame := `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"` +
		base64.StdEncoding.EncodeToString(pcm) + `"}}]}}}`

	decoded, err := decodeServerFrame([]byte(frame))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected one event, got %d", len(decoded))
	}
	speech, ok := decoded[0].(events.SpeechFrame)
	if !ok {
		t.Fatalf("expected a speech frame, got %T", decoded[0])
	}
	if string(speech.Audio) != string(pcm) {
		t.Fatalf("expected audio %v, got %v", pcm, speech.Audio)
	}
}

func TestDecodeToolCall(t *testing.T) {
	frame := `{"toolCall":{"functionCalls":[{"id":"call-1","name":"move_cursor_sequence","args":{"points":[]}}]}}`

	decoded, err := decodeServerFrame([]byte(frame))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	requested, ok := decoded[0].(events.ToolCallRequested)
	if !ok {
		t.Fatalf("expected a tool call request, got %T", decoded[0])
	}
	if len(requested.Calls) != 1 {
		t.Fatalf("expected one call, got %d", len(requested.Calls))
	}
	if requested.Calls[0].Name != "move_cursor_sequence" {
		t.Fatalf("expected call name %q, got %q", "move_cursor_sequence", requested.Calls[0].Name)
	}
	if requested.Calls[0].ID != "call-1" {
		t.Fatalf("expected call id %q, got %q", "call-1", requested.Calls[0].ID)
	}
}

func TestDecodeToolCallCancellation(t *testing.T) {
	decoded, err := decodeServerFrame([]byte(`{"toolCallCancellation":{"ids":["a","b"]}}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	cancelled, ok := decoded[0].(events.ToolCallCancelled)
	if !ok {
		t.Fatalf("expected a cancellation, got %T", decoded[0])
	}
	if len(cancelled.IDs) != 2 || cancelled.IDs[0] != "a" || cancelled.IDs[1] != "b" {
		t.Fatalf("expected ids [a b], got %v", cancelled.IDs)
	}
}

func TestDecodeMalformedFrames(t *testing.T) {
	testCases := []struct {
		name  string
		frame string
	}{
		{name: "not json", frame: `not even json`},
		{name: "missing discriminant", frame: `{"somethingElse":{}}`},
		{name: "bad inline audio", frame: `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm","data":"!!!"}}]}}}`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := decodeServerFrame([]byte(testCase.frame)); err == nil {
				t.Fatalf("expected an error for frame %q", testCase.frame)
			}
		})
	}
}

func TestBuildSetupShape(t *testing.T) {
	msg := buildSetup(Config{
		Model:              "models/gemini-2.0-flash-exp",
		ResponseModalities: []string{"AUDIO"},
		Voice:              "Aoede",
		SystemInstruction:  "be brief",
		Tools:              []FunctionDeclaration{{Name: "move_cursor_sequence"}},
	})

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("expected setup to marshal, got %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("expected setup to round-trip, got %v", err)
	}
	setup, ok := parsed["setup"].(map[string]any)
	if !ok {
		t.Fatalf("expected a setup envelope, got %v", parsed)
	}
	if setup["model"] != "models/gemini-2.0-flash-exp" {
		t.Fatalf("expected model in setup, got %v", setup["model"])
	}
	if _, ok := setup["generationConfig"]; !ok {
		t.Fatalf("expected generationConfig in setup, got %v", setup)
	}
	if _, ok := setup["systemInstruction"]; !ok {
		t.Fatalf("expected systemInstruction in setup, got %v", setup)
	}
	if _, ok := setup["tools"]; !ok {
		t.Fatalf("expected tools in setup, got %v", setup)
	}
}
