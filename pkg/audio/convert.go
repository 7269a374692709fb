package audio

import (
	"encoding/binary"
	"fmt"
)

// ToWhisperPCM converts c to 16 kHz mono. A clip already in that format is
// returned unchanged. Channels are mixed down before resampling so only one
// channel has to be interpolated.
func ToWhisperPCM(c Clip) Clip {
	return Convert(c, WhisperSampleRate, WhisperChannels)
}

// Convert resamples c to sampleRate and changes its channel layout to
// channels. Supported layout changes are N→1, 1→2 and identity.
func Convert(c Clip, sampleRate, channels int) Clip {
	if c.SampleRate == sampleRate && c.Channels == channels {
		return c
	}

	pcm := c.Data
	ch := c.Channels

	if channels == 1 && ch > 1 {
		pcm = Downmix(pcm, ch)
		ch = 1
	}

	if c.SampleRate != sampleRate {
		if ch == 1 {
			pcm = ResampleMono16(pcm, c.SampleRate, sampleRate)
		} else {
			pcm = ResampleStereo16(pcm, c.SampleRate, sampleRate)
		}
	}

	if channels == 2 && ch == 1 {
		pcm = MonoToStereo(pcm)
		ch = 2
	}

	return Clip{Data: pcm, SampleRate: sampleRate, Channels: ch}
}

// Downmix averages every frame of interleaved multi-channel PCM into a
// single mono sample. Uses int32 arithmetic to prevent overflow.
func Downmix(pcm []byte, channels int) []byte {
	if channels <= 1 {
		return pcm
	}
	frameBytes := channels * bytesPerSample
	frames := len(pcm) / frameBytes
	out := make([]byte, frames*bytesPerSample)
	for i := range frames {
		var sum int32
		for ch := range channels {
			off := i*frameBytes + ch*bytesPerSample
			sum += int32(int16(binary.LittleEndian.Uint16(pcm[off:])))
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(sum/int32(channels))))
	}
	return out
}

// MonoToStereo duplicates each int16 mono sample into a stereo L+R pair.
func MonoToStereo(pcm []byte) []byte {
	out := make([]byte, (len(pcm)/2)*4)
	for i := 0; i+1 < len(pcm); i += 2 {
		lo, hi := pcm[i], pcm[i+1]
		j := i * 2
		out[j] = lo
		out[j+1] = hi
		out[j+2] = lo
		out[j+3] = hi
	}
	return out
}

// maxUpsampleRatio bounds how much resampling may grow the input.
const maxUpsampleRatio = 16

// ResampleMono16 resamples 16-bit mono PCM from srcRate to dstRate using linear
// interpolation. If srcRate == dstRate, the input is returned unchanged.
// Upsampling by more than 16x yields nil.
func ResampleMono16(pcm []byte, srcRate, dstRate int) []byte {
	return resample16(pcm, 1, srcRate, dstRate)
}

// ResampleStereo16 resamples 16-bit interleaved stereo PCM from srcRate to
// dstRate using linear interpolation on each channel.
func ResampleStereo16(pcm []byte, srcRate, dstRate int) []byte {
	return resample16(pcm, 2, srcRate, dstRate)
}

func resample16(pcm []byte, channels, srcRate, dstRate int) []byte {
	frameBytes := channels * bytesPerSample
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(pcm) < frameBytes {
		return pcm
	}
	srcFrames := len(pcm) / frameBytes
	dstFrames := int(int64(srcFrames) * int64(dstRate) / int64(srcRate))
	if dstFrames == 0 || dstFrames > srcFrames*maxUpsampleRatio {
		return nil
	}

	sample := func(frame, ch int) float64 {
		off := frame*frameBytes + ch*bytesPerSample
		return float64(int16(binary.LittleEndian.Uint16(pcm[off:])))
	}

	out := make([]byte, dstFrames*frameBytes)
	ratio := float64(srcRate) / float64(dstRate)
	for i := range dstFrames {
		srcPos := float64(i) * ratio
		idx := int(srcPos)
		frac := srcPos - float64(idx)
		next := min(idx+1, srcFrames-1)
		for ch := range channels {
			v := sample(idx, ch)*(1-frac) + sample(next, ch)*frac
			binary.LittleEndian.PutUint16(out[i*frameBytes+ch*bytesPerSample:], uint16(int16(v)))
		}
	}
	return out
}

// PCMToFloat32 converts 16-bit PCM to float32 samples normalised to
// [-1.0, 1.0]. A trailing odd byte is ignored.
func PCMToFloat32(pcm []byte) []float32 {
	n := len(pcm) / 2
	samples := make([]float32, n)
	for i := range n {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768.0
	}
	return samples
}

// FormatString returns a human-readable form such as "48000Hz stereo".
func FormatString(rate, channels int) string {
	ch := "mono"
	if channels == 2 {
		ch = "stereo"
	} else if channels > 2 {
		ch = fmt.Sprintf("%dch", channels)
	}
	return fmt.Sprintf("%dHz %s", rate, ch)
}
