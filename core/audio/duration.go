package audio

import "time"

// Duration converts a byte count of encoded audio into playback time.
func Duration(byteLen int, encodingInfo EncodingInfo) time.Duration {
	if encodingInfo.IsZero() || byteLen <= 0 {
		return 0
	}
	return time.Duration(float64(byteLen) / float64(encodingInfo.SampleRate) * float64(time.Second) / float64(encodingInfo.Format.ByteSize()))
}

// Bytes converts playback time into a byte count of encoded audio.
func Bytes(duration time.Duration, encodingInfo EncodingInfo) int {
	if encodingInfo.IsZero() || duration <= 0 {
		return 0
	}
	return int(float64(duration) / float64(time.Second) * float64(encodingInfo.SampleRate) * float64(encodingInfo.Format.ByteSize()))
}

// Frames converts playback time into a whole number of sample frames.
func Frames(duration time.Duration, sampleRate int) int64 {
	if sampleRate <= 0 || duration <= 0 {
		return 0
	}
	return int64(float64(duration) / float64(time.Second) * float64(sampleRate))
}

// FramesDuration converts a frame count back into playback time.
func FramesDuration(frames int64, sampleRate int) time.Duration {
	if sampleRate <= 0 || frames <= 0 {
		return 0
	}
	return time.Duration(float64(frames) / float64(sampleRate) * float64(time.Second))
}
