package session

import (
	"context"
	"sync"
	"time"

	"github.com/JoaquinRaya/gemini-2-clippo/core/events"
	"github.com/JoaquinRaya/gemini-2-clippo/core/live"
	"github.com/JoaquinRaya/gemini-2-clippo/core/vision"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// cursorChoreographer turns move_cursor_sequence tool calls into timed
// cursor proposals. Grounding lookups for all points start immediately
// against one shared frame; each proposal is withheld until its cumulative
// delay from the start of the sequence has elapsed.
//
// At most one sequence runs at a time. A new call supersedes the active run.
type cursorChoreographer struct {
	locator vision.Locator
	frames  FrameSource
	emit    eventEmitter
	respond func(response live.FunctionResponse) error

	mu     sync.Mutex
	active *cursorRun
}

type cursorRun struct {
	id     string
	callID string
	cancel context.CancelFunc
	done   chan struct{}
}

func newCursorChoreographer(locator vision.Locator, frames FrameSource, emit eventEmitter, respond func(live.FunctionResponse) error) *cursorChoreographer {
	if emit == nil {
		emit = noopEventEmitter
	}
	return &cursorChoreographer{
		locator: locator,
		frames:  frames,
		emit:    emit,
		respond: respond,
	}
}

// HandleCall validates and starts a choreography run for one tool call. It
// returns once the run is launched; proposals are emitted asynchronously.
func (c *cursorChoreographer) HandleCall(ctx context.Context, call events.FunctionCall) {
	if c == nil {
		return
	}

	ctx, span := tracer.Start(ctx, "choreograph cursor sequence")
	span.SetAttributes(attribute.String("tool.call_id", call.ID))

	args, err := parseCursorSequenceArgs(call.Args)
	if err != nil {
		c.failCall(call, err.Error())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return
	}
	span.SetAttributes(attribute.Int("sequence.points", len(args.Points)))

	frame, ok := c.frames.CurrentFrame()
	if !ok {
		c.failCall(call, "no screen frame is available to ground against")
		span.SetStatus(codes.Error, "no frame available")
		span.End()
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &cursorRun{
		id:     uuid.NewString(),
		callID: call.ID,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	c.mu.Lock()
	prior := c.active
	c.active = run
	c.mu.Unlock()
	if prior != nil {
		prior.cancel()
		<-prior.done
	}

	c.emit(events.NewCursorSequenceStarted(run.id, len(args.Points)))

	go func() {
		defer span.End()
		defer close(run.done)

		start := time.Now()
		var wg sync.WaitGroup
		cumulative := time.Duration(0)
		for _, point := range args.Points {
			cumulative += time.Duration(point.DelaySeconds * float64(time.Second))
			wg.Add(1)
			go c.runPoint(runCtx, &wg, run.id, frame, point, start.Add(cumulative))
		}
		wg.Wait()

		cancelled := runCtx.Err() != nil
		c.emit(events.NewCursorSequenceEnded(run.id, cancelled))
		if !cancelled {
			c.respondTo(call, map[string]any{
				"success":      true,
				"points_shown": len(args.Points),
			})
		}

		c.mu.Lock()
		if c.active == run {
			c.active = nil
		}
		c.mu.Unlock()
	}()
}

// runPoint grounds one point and emits its proposal at the scheduled time.
// A failed lookup skips only this point.
func (c *cursorChoreographer) runPoint(ctx context.Context, wg *sync.WaitGroup, runID string, frame vision.Frame, point CursorPoint, at time.Time) {
	defer wg.Done()

	located, err := c.locator.Locate(ctx, frame, point.Description)
	if err != nil {
		logger.Warn("failed to ground cursor point",
			"description", point.Description, "error", err)
		c.emit(events.NewLogLine("could not locate " + point.Description))
		return
	}

	if remaining := time.Until(at); remaining > 0 {
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
	if ctx.Err() != nil {
		return
	}

	c.emit(events.NewCursorProposed(runID, located.Col, located.Row, point.Description))
}

// CancelCalls cancels the active run if its originating tool call is named.
// Cancelled calls get no response; the server has already abandoned them.
func (c *cursorChoreographer) CancelCalls(ids []string) {
	if c == nil {
		return
	}

	c.mu.Lock()
	run := c.active
	c.mu.Unlock()
	if run == nil {
		return
	}

	for _, id := range ids {
		if id == run.callID {
			run.cancel()
			return
		}
	}
}

// CancelAll cancels any active run, for use on disconnect.
func (c *cursorChoreographer) CancelAll() {
	if c == nil {
		return
	}

	c.mu.Lock()
	run := c.active
	c.mu.Unlock()
	if run != nil {
		run.cancel()
	}
}

// Wait blocks until the active run, if any, has finished.
func (c *cursorChoreographer) Wait() {
	if c == nil {
		return
	}

	c.mu.Lock()
	run := c.active
	c.mu.Unlock()
	if run != nil {
		<-run.done
	}
}

func (c *cursorChoreographer) failCall(call events.FunctionCall, reason string) {
	logger.Warn("rejecting cursor sequence", "call_id", call.ID, "reason", reason)
	c.respondTo(call, map[string]any{"success": false, "error": reason})
}

func (c *cursorChoreographer) respondTo(call events.FunctionCall, response map[string]any) {
	if c.respond == nil {
		return
	}
	if err := c.respond(live.FunctionResponse{ID: call.ID, Name: call.Name, Response: response}); err != nil {
		logger.Warn("failed to send tool response", "call_id", call.ID, "error", err)
	}
}
