// Package gemini resolves element descriptions to screen coordinates using
// a Gemini vision model.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/JoaquinRaya/gemini-2-clippo/core/vision"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

const locatePrompt = "Point to the UI element that best matches this description: %q. " +
	"Answer with a JSON array [row, col] of the element's center in a " +
	"normalized 0-1000 coordinate space, and nothing else."

type Locator struct {
	client *genai.Client
	model  string
}

type LocatorOption func(*Locator)

// WithModel overrides the vision model used for grounding.
func WithModel(model string) LocatorOption {
	return func(l *Locator) {
		if model != "" {
			l.model = model
		}
	}
}

func NewLocator(ctx context.Context, apiKey string, opts ...LocatorOption) (*Locator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}

	l := &Locator{client: client, model: defaultModel}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Locate asks the vision model for the described element's center point.
func (l *Locator) Locate(ctx context.Context, frame vision.Frame, description string) (vision.Point, error) {
	ctx, span := tracer.Start(ctx, "locate element")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.model", l.model),
		attribute.String("request.description", description),
	)

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			genai.NewPartFromBytes(frame.Data, frame.MIMEType),
			genai.NewPartFromText(fmt.Sprintf(locatePrompt, description)),
		},
	}}

	temperature := float32(0)
	resp, err := l.client.Models.GenerateContent(ctx, l.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      &temperature,
	})
	if err != nil {
		err = fmt.Errorf("failed to ground %q: %w", description, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return vision.Point{}, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		err := fmt.Errorf("no candidates grounding %q", description)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return vision.Point{}, err
	}

	var text strings.Builder
	for _, responsePart := range resp.Candidates[0].Content.Parts {
		text.WriteString(responsePart.Text)
	}

	point, err := parsePoint(text.String())
	if err != nil {
		err = fmt.Errorf("failed to parse grounding for %q: %w", description, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("unparseable grounding response", "response", text.String())
		return vision.Point{}, err
	}

	span.SetAttributes(
		attribute.Int("response.row", point.Row),
		attribute.Int("response.col", point.Col),
	)
	return point, nil
}

// parsePoint extracts a [row, col] pair from the model's reply. Replies
// vary between a bare array, a nested array of candidates and an object
// keyed "point", so parsing is deliberately tolerant.
func parsePoint(raw string) (vision.Point, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var pair []float64
	if err := json.Unmarshal([]byte(cleaned), &pair); err == nil {
		return pointFromPair(pair)
	}

	var pairs [][]float64
	if err := json.Unmarshal([]byte(cleaned), &pairs); err == nil && len(pairs) > 0 {
		return pointFromPair(pairs[0])
	}

	var keyed struct {
		Point []float64 `json:"point"`
	}
	if err := json.Unmarshal([]byte(cleaned), &keyed); err == nil && len(keyed.Point) > 0 {
		return pointFromPair(keyed.Point)
	}

	return vision.Point{}, fmt.Errorf("no coordinate pair in %q", raw)
}

func pointFromPair(pair []float64) (vision.Point, error) {
	if len(pair) != 2 {
		return vision.Point{}, fmt.Errorf("expected a [row, col] pair, got %d values", len(pair))
	}
	return vision.Point{Row: clampAxis(pair[0]), Col: clampAxis(pair[1])}, nil
}

func clampAxis(value float64) int {
	if value < 0 {
		return 0
	}
	if value > 1000 {
		return 1000
	}
	return int(value)
}
