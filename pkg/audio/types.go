// Package audio decodes uploaded recordings into 16-bit PCM and converts them
// into the shape speech recognisers expect.
//
// All PCM handled by this package is signed 16-bit little-endian with
// interleaved channels.
package audio

import "time"

// bytesPerSample is fixed by the 16-bit PCM representation.
const bytesPerSample = 2

// Whisper-family recognisers want 16 kHz mono input.
const (
	WhisperSampleRate = 16000
	WhisperChannels   = 1
)

// Clip is a fully decoded recording held in memory.
type Clip struct {
	// Data is interleaved 16-bit little-endian PCM.
	Data []byte

	// SampleRate in Hz (e.g. 44100 for a typical MP3, 16000 for STT).
	SampleRate int

	// Channels: 1 for mono, 2 for stereo.
	Channels int
}

// Frames returns the number of sample frames (one sample per channel).
func (c Clip) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.Data) / (bytesPerSample * c.Channels)
}

// Duration returns the playback length of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}
