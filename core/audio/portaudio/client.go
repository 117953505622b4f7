// Package portaudio backs playback scheduling with a blocking-write
// PortAudio stream, as an alternative to the miniaudio device client.
package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/JoaquinRaya/gemini-2-clippo/core/audio"
	"github.com/gordonklaus/portaudio"
)

// Client pumps scheduled audio into an output stream. A background loop
// assembles fixed-size windows from the scheduled buffers and writes them;
// the blocking writes pace the timeline.
type Client struct {
	bufferSize int
	encoding   audio.EncodingInfo
	stream     *portaudio.Stream
	out        []int16

	mu       sync.Mutex
	buffers  []scheduledBuffer
	rendered int64
	tap      func(pcm []byte)

	stop chan struct{}
	done chan struct{}
}

type scheduledBuffer struct {
	pcm        []byte
	startFrame int64
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	encoding := audio.GetDefaultEncodingInfo()
	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(encoding.SampleRate), bufferSize, out)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open PortAudio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to start PortAudio stream: %w", err)
	}

	c := &Client{
		bufferSize: bufferSize,
		encoding:   encoding,
		stream:     stream,
		out:        out,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	go c.pump()
	return c, nil
}

// Now is the amount of audio time written to the device since the client
// started.
func (c *Client) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return audio.FramesDuration(c.rendered, c.encoding.SampleRate)
}

// ScheduleAt places a chunk at an absolute timeline position.
func (c *Client) ScheduleAt(pcm []byte, at time.Duration) error {
	if len(pcm) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	buffer := scheduledBuffer{
		pcm:        append([]byte(nil), pcm...),
		startFrame: audio.Frames(at, c.encoding.SampleRate),
	}
	index := sort.Search(len(c.buffers), func(i int) bool {
		return c.buffers[i].startFrame > buffer.startFrame
	})
	c.buffers = append(c.buffers, scheduledBuffer{})
	copy(c.buffers[index+1:], c.buffers[index:])
	c.buffers[index] = buffer
	return nil
}

// Flush drops every scheduled buffer that has not been written yet.
func (c *Client) Flush() {
	c.mu.Lock()
	c.buffers = nil
	c.mu.Unlock()
}

// SetRenderTap registers a tap invoked with each written window.
func (c *Client) SetRenderTap(tap func(pcm []byte)) {
	c.mu.Lock()
	c.tap = tap
	c.mu.Unlock()
}

// StartCapture opens a capture stream at the service input rate and feeds
// onAudio until ctx is done.
func (c *Client) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	in := make([]int16, c.bufferSize)
	capture, err := portaudio.OpenDefaultStream(1, 0, float64(audio.DefaultInputSampleRate), c.bufferSize, in)
	if err != nil {
		return fmt.Errorf("failed to open capture stream: %w", err)
	}
	if err := capture.Start(); err != nil {
		_ = capture.Close()
		return fmt.Errorf("failed to start capture stream: %w", err)
	}

	go func() {
		defer capture.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			default:
				if err := capture.Read(); err != nil {
					return
				}
				audioBuffer := bytes.Buffer{}
				_ = binary.Write(&audioBuffer, binary.LittleEndian, in)
				onAudio(audioBuffer.Bytes())
			}
		}
	}()
	return nil
}

func (c *Client) Close() {
	close(c.stop)
	<-c.done
	_ = c.stream.Close()
	_ = portaudio.Terminate()
}

// pump writes one window at a time. Each window is assembled from the
// buffers overlapping it, with silence elsewhere.
func (c *Client) pump() {
	defer close(c.done)

	window := make([]byte, c.bufferSize*2)
	for {
		select {
		case <-c.stop:
			return
		default:
		}

		c.fillWindow(window)
		_ = binary.Read(bytes.NewBuffer(window), binary.LittleEndian, c.out)
		if err := c.stream.Write(); err != nil {
			// Underruns are expected when scheduling runs dry; keep pacing.
			continue
		}

		c.mu.Lock()
		tap := c.tap
		c.mu.Unlock()
		if tap != nil {
			tap(window)
		}
	}
}

func (c *Client) fillWindow(window []byte) {
	for i := range window {
		window[i] = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	windowStart := c.rendered
	windowFrames := int64(c.bufferSize)

	kept := c.buffers[:0]
	for _, buffer := range c.buffers {
		bufferFrames := int64(len(buffer.pcm)) / 2
		bufferEnd := buffer.startFrame + bufferFrames

		if bufferEnd <= windowStart {
			continue
		}
		if buffer.startFrame >= windowStart+windowFrames {
			kept = append(kept, buffer)
			continue
		}

		sourceFrame := int64(0)
		if buffer.startFrame < windowStart {
			sourceFrame = windowStart - buffer.startFrame
		}
		destFrame := int64(0)
		if buffer.startFrame > windowStart {
			destFrame = buffer.startFrame - windowStart
		}
		frames := bufferFrames - sourceFrame
		if available := windowFrames - destFrame; frames > available {
			frames = available
		}

		copy(window[destFrame*2:(destFrame+frames)*2], buffer.pcm[sourceFrame*2:(sourceFrame+frames)*2])

		if bufferEnd > windowStart+windowFrames {
			kept = append(kept, buffer)
		}
	}
	c.buffers = kept
	c.rendered += windowFrames
}
