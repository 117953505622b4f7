package live

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/JoaquinRaya/gemini-2-clippo/core/events"
	"github.com/invopop/jsonschema"
)

// Client frames are JSON envelopes with exactly one top-level key set.

type clientMessage struct {
	Setup         *setupPayload  `json:"setup,omitempty"`
	ClientContent *clientContent `json:"clientContent,omitempty"`
	RealtimeInput *realtimeInput `json:"realtimeInput,omitempty"`
	ToolResponse  *toolResponse  `json:"toolResponse,omitempty"`
}

type setupPayload struct {
	Model             string             `json:"model"`
	GenerationConfig  *generationConfig  `json:"generationConfig,omitempty"`
	SystemInstruction *content           `json:"systemInstruction,omitempty"`
	Tools             []toolDeclarations `json:"tools,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig *voiceConfig `json:"voiceConfig,omitempty"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig *prebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string     `json:"text,omitempty"`
	InlineData *mediaBlob `json:"inlineData,omitempty"`
}

type mediaBlob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type clientContent struct {
	Turns        []content `json:"turns"`
	TurnComplete bool      `json:"turnComplete"`
}

type realtimeInput struct {
	MediaChunks []mediaBlob `json:"mediaChunks"`
}

type toolResponse struct {
	FunctionResponses []functionResponse `json:"functionResponses"`
}

type functionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type toolDeclarations struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations"`
}

// FunctionDeclaration advertises one callable client tool in the setup frame.
type FunctionDeclaration struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// MediaChunk is one discrete realtime unit (audio or image) streamed to the
// service outside the main text channel.
type MediaChunk struct {
	MIMEType string
	Data     []byte
}

// FunctionResponse answers one server function call.
type FunctionResponse struct {
	ID       string
	Name     string
	Response map[string]any
}

// Config describes one session. It must not be mutated once a connect
// attempt starts.
type Config struct {
	Model              string
	ResponseModalities []string
	Voice              string
	SystemInstruction  string
	Tools              []FunctionDeclaration
}

func buildSetup(cfg Config) clientMessage {
	setup := setupPayload{Model: cfg.Model}

	if len(cfg.ResponseModalities) > 0 || cfg.Voice != "" {
		setup.GenerationConfig = &generationConfig{ResponseModalities: cfg.ResponseModalities}
		if cfg.Voice != "" {
			setup.GenerationConfig.SpeechConfig = &speechConfig{
				VoiceConfig: &voiceConfig{
					PrebuiltVoiceConfig: &prebuiltVoiceConfig{VoiceName: cfg.Voice},
				},
			}
		}
	}

	if cfg.SystemInstruction != "" {
		setup.SystemInstruction = &content{Parts: []part{{Text: cfg.SystemInstruction}}}
	}

	if len(cfg.Tools) > 0 {
		setup.Tools = []toolDeclarations{{FunctionDeclarations: cfg.Tools}}
	}

	return clientMessage{Setup: &setup}
}

// Server frames share the envelope shape: one top-level discriminant key.

type serverMessage struct {
	SetupComplete        *struct{}             `json:"setupComplete,omitempty"`
	ServerContent        *serverContent        `json:"serverContent,omitempty"`
	ToolCall             *serverToolCall       `json:"toolCall,omitempty"`
	ToolCallCancellation *toolCallCancellation `json:"toolCallCancellation,omitempty"`
}

type serverContent struct {
	ModelTurn    *content `json:"modelTurn,omitempty"`
	TurnComplete bool     `json:"turnComplete,omitempty"`
	Interrupted  bool     `json:"interrupted,omitempty"`
}

type serverToolCall struct {
	FunctionCalls []functionCallPayload `json:"functionCalls"`
}

type functionCallPayload struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type toolCallCancellation struct {
	IDs []string `json:"ids"`
}

// decodeServerFrame parses one wire frame into typed events, preserving part
// order within a model turn. Interruption is surfaced before any content so
// consumers flush stale playback first.
func decodeServerFrame(data []byte) ([]events.Event, error) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode server frame: %w", err)
	}

	switch {
	case msg.SetupComplete != nil:
		return []events.Event{events.NewSessionConfigured()}, nil

	case msg.ServerContent != nil:
		var out []events.Event
		if msg.ServerContent.Interrupted {
			out = append(out, events.NewPlaybackInterrupted())
		}
		if msg.ServerContent.ModelTurn != nil {
			for _, turnPart := range msg.ServerContent.ModelTurn.Parts {
				if turnPart.Text != "" {
					out = append(out, events.NewContentSegment(turnPart.Text))
				}
				if turnPart.InlineData != nil {
					pcm, err := base64.StdEncoding.DecodeString(turnPart.InlineData.Data)
					if err != nil {
						return nil, fmt.Errorf("decode inline audio: %w", err)
					}
					out = append(out, events.NewSpeechFrame(pcm))
				}
			}
		}
		if msg.ServerContent.TurnComplete {
			out = append(out, events.NewContentFinal())
		}
		return out, nil

	case msg.ToolCall != nil:
		calls := make([]events.FunctionCall, 0, len(msg.ToolCall.FunctionCalls))
		for _, call := range msg.ToolCall.FunctionCalls {
			calls = append(calls, events.FunctionCall{ID: call.ID, Name: call.Name, Args: call.Args})
		}
		return []events.Event{events.NewToolCallRequested(calls)}, nil

	case msg.ToolCallCancellation != nil:
		return []events.Event{events.NewToolCallCancelled(msg.ToolCallCancellation.IDs)}, nil

	default:
		return nil, fmt.Errorf("server frame missing discriminant")
	}
}
