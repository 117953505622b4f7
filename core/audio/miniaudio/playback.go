package miniaudio

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/JoaquinRaya/gemini-2-clippo/core/audio"
	"github.com/gen2brain/malgo"
)

// playbackClient renders chunks scheduled at absolute positions on the
// device timeline. The timeline is counted in frames rendered since the
// device started; the render callback copies whichever scheduled buffers
// overlap the current window and fills the rest with silence.
type playbackClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig

	encoding      audio.EncodingInfo
	bytesPerFrame int

	mu       sync.Mutex
	buffers  []scheduledBuffer
	rendered int64
	tap      func(pcm []byte)
}

type scheduledBuffer struct {
	pcm        []byte
	startFrame int64
}

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.encoding = audio.GetDefaultEncodingInfo()
	sampleRate := uint32(c.encoding.SampleRate)
	channels := 1
	format := malgo.FormatS16
	c.bytesPerFrame = malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Playback)
	c.config.SampleRate = sampleRate
	c.config.Playback.Format = format
	c.config.Playback.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	// Short periods keep scheduling granularity close to the lead time.
	c.config.PeriodSizeInFrames = sampleRate / 100
	c.config.Periods = 3

	c.audioContext = audioContext

	var err error
	if c.device, err = malgo.InitDevice(
		c.audioContext.Context,
		c.config,
		malgo.DeviceCallbacks{Data: c.renderAudio()},
	); err != nil {
		return err
	}

	return nil
}

func (c *playbackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	return nil
}

func (c *playbackClient) Stop() error {
	c.mu.Lock()
	device := c.device
	c.mu.Unlock()
	if device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := device.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback device: %w", err)
	}

	c.Flush()
	return nil
}

// Now is the amount of audio time rendered since the device started.
func (c *playbackClient) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return audio.FramesDuration(c.rendered, c.encoding.SampleRate)
}

// ScheduleAt places a chunk at an absolute timeline position. Chunks wholly
// in the past never render; a partially late chunk renders its remainder.
func (c *playbackClient) ScheduleAt(pcm []byte, at time.Duration) error {
	if len(pcm) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

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

// Flush drops every scheduled buffer that has not finished rendering.
func (c *playbackClient) Flush() {
	c.mu.Lock()
	c.buffers = nil
	c.mu.Unlock()
}

// SetRenderTap registers a synchronous tap invoked with each rendered
// window, silence included. The tap runs on the device callback and must
// not block.
func (c *playbackClient) SetRenderTap(tap func(pcm []byte)) {
	c.mu.Lock()
	c.tap = tap
	c.mu.Unlock()
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	c.device.Uninit()
	c.device = nil

	return nil
}

func (c *playbackClient) renderAudio() malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		for i := range pOutput {
			pOutput[i] = 0
		}

		c.mu.Lock()
		windowStart := c.rendered
		windowFrames := int64(frameCount)

		kept := c.buffers[:0]
		for _, buffer := range c.buffers {
			bufferFrames := int64(len(buffer.pcm)) / int64(c.bytesPerFrame)
			bufferEnd := buffer.startFrame + bufferFrames

			if bufferEnd <= windowStart {
				// Wholly in the past, drop without rendering.
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

			copy(
				pOutput[destFrame*int64(c.bytesPerFrame):(destFrame+frames)*int64(c.bytesPerFrame)],
				buffer.pcm[sourceFrame*int64(c.bytesPerFrame):(sourceFrame+frames)*int64(c.bytesPerFrame)],
			)

			if bufferEnd > windowStart+windowFrames {
				kept = append(kept, buffer)
			}
		}
		c.buffers = kept
		c.rendered += windowFrames
		tap := c.tap
		c.mu.Unlock()

		if tap != nil {
			tap(pOutput)
		}
	}
}
