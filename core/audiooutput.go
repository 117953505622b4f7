package session

import (
	"context"
	"sync"
	"time"

	"github.com/JoaquinRaya/gemini-2-clippo/core/audio"
)

const defaultScheduleLead = 60 * time.Millisecond

const volumeWindow = 50 * time.Millisecond

// PlaybackClock is a device-backed playback timeline. Now is the amount of
// audio time rendered since the clock started; ScheduleAt places a chunk at
// an absolute position on that timeline.
type PlaybackClock interface {
	Now() time.Duration
	ScheduleAt(pcm []byte, at time.Duration) error
	// Flush discards every chunk that has not yet rendered.
	Flush()
}

// renderTapClock is an optional clock capability: a tap invoked with audio
// as it actually renders, used for volume metering.
type renderTapClock interface {
	SetRenderTap(tap func(pcm []byte))
}

// outputScheduler packs inbound chunks onto the playback timeline without
// gaps. It keeps a write cursor that trails arrival bursts: consecutive
// chunks are placed back to back, and after the backlog drains the cursor
// snaps back to a small lead ahead of the device clock.
type outputScheduler struct {
	clock    PlaybackClock
	encoding audio.EncodingInfo
	lead     time.Duration
	meter    *audio.Meter

	mu      sync.Mutex
	cursor  time.Duration
	started bool
}

func newOutputScheduler(clock PlaybackClock, encodingInfo audio.EncodingInfo, lead time.Duration, onLevel func(level float64)) *outputScheduler {
	if lead <= 0 {
		lead = defaultScheduleLead
	}

	s := &outputScheduler{
		clock:    clock,
		encoding: encodingInfo,
		lead:     lead,
	}

	if onLevel != nil {
		s.meter = audio.NewMeter(encodingInfo, volumeWindow, onLevel)
		if tapClock, ok := clock.(renderTapClock); ok {
			tapClock.SetRenderTap(s.meter.Observe)
		}
	}

	return s
}

// Enqueue places one chunk at the current cursor and advances the cursor by
// the chunk's duration. Empty chunks are ignored.
func (s *outputScheduler) Enqueue(pcm []byte) error {
	if s == nil || len(pcm) == 0 {
		return nil
	}

	s.mu.Lock()
	now := s.clock.Now()
	if !s.started || s.cursor < now {
		// The backlog drained (or this is the first chunk): scheduling at
		// a past position would clip, so restart a little ahead of the
		// device clock.
		s.cursor = now + s.lead
		s.started = true
	}
	at := s.cursor
	s.cursor += audio.Duration(len(pcm), s.encoding)
	s.mu.Unlock()

	scheduledAudio.Add(context.Background(), int64(len(pcm)))
	return s.clock.ScheduleAt(pcm, at)
}

// Flush discards all scheduled but unrendered audio and resets the cursor
// so the next chunk starts a fresh burst.
func (s *outputScheduler) Flush() {
	if s == nil {
		return
	}

	s.mu.Lock()
	s.started = false
	s.cursor = 0
	s.mu.Unlock()

	s.clock.Flush()
	if s.meter != nil {
		s.meter.Reset()
	}
}
