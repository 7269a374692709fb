package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE

	// Accepted header ranges. Anything outside is treated as unsupported
	// rather than decoded and resampled.
	minWAVSampleRate = 4000
	maxWAVSampleRate = 384000
	maxWAVChannels   = 8
)

var errMalformedWAV = errors.New("audio: malformed WAV")

// EncodeWAV wraps raw 16-bit PCM in a canonical 44-byte RIFF/WAVE header.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	const bps = 16
	byteRate := sampleRate * channels * bps / 8
	blockAlign := channels * bps / 8
	dataSize := len(pcm)

	buf := make([]byte, 44+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], bps)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], pcm)

	return buf
}

// EncodeClipWAV is EncodeWAV for a decoded clip.
func EncodeClipWAV(c Clip) []byte {
	return EncodeWAV(c.Data, c.SampleRate, c.Channels)
}

func isWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// decodeWAV walks the RIFF chunks of data and returns the audio as 16-bit
// PCM. Integer PCM of 8, 16, 24 and 32 bits and 32-bit float are accepted.
func decodeWAV(data []byte) (Clip, error) {
	if !isWAV(data) {
		return Clip{}, fmt.Errorf("%w: missing RIFF/WAVE header", errMalformedWAV)
	}

	var (
		format     uint16
		channels   int
		sampleRate int
		bits       int
		haveFmt    bool
		samples    []byte
		haveData   bool
	)

	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := data[off+8:]
		if size > len(body) {
			// Streaming encoders sometimes leave the size unset; take what exists.
			size = len(body)
		}
		body = body[:size]

		switch id {
		case "fmt ":
			if size < 16 {
				return Clip{}, fmt.Errorf("%w: fmt chunk of %d bytes", errMalformedWAV, size)
			}
			format = binary.LittleEndian.Uint16(body[0:2])
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bits = int(binary.LittleEndian.Uint16(body[14:16]))
			if format == wavFormatExtensible && size >= 26 {
				// The sub-format GUID starts with the plain format code.
				format = binary.LittleEndian.Uint16(body[24:26])
			}
			haveFmt = true
		case "data":
			samples = body
			haveData = true
		}

		// Chunks are word aligned.
		off += 8 + size + size%2
	}

	switch {
	case !haveFmt:
		return Clip{}, fmt.Errorf("%w: no fmt chunk", errMalformedWAV)
	case !haveData:
		return Clip{}, fmt.Errorf("%w: no data chunk", errMalformedWAV)
	case channels <= 0 || sampleRate <= 0:
		return Clip{}, fmt.Errorf("%w: %d channels at %d Hz", errMalformedWAV, channels, sampleRate)
	case sampleRate < minWAVSampleRate || sampleRate > maxWAVSampleRate:
		return Clip{}, fmt.Errorf("%w: WAV sample rate %d Hz", ErrUnsupportedFormat, sampleRate)
	case channels > maxWAVChannels:
		return Clip{}, fmt.Errorf("%w: WAV with %d channels", ErrUnsupportedFormat, channels)
	}

	pcm, err := toPCM16(samples, format, bits)
	if err != nil {
		return Clip{}, err
	}
	return Clip{Data: pcm, SampleRate: sampleRate, Channels: channels}, nil
}

func toPCM16(raw []byte, format uint16, bits int) ([]byte, error) {
	switch {
	case format == wavFormatPCM && bits == 16:
		return raw[:len(raw)/2*2], nil

	case format == wavFormatPCM && bits == 8:
		// 8-bit WAV is unsigned with a 128 bias.
		out := make([]byte, len(raw)*2)
		for i, b := range raw {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(int(b)-128)<<8))
		}
		return out, nil

	case format == wavFormatPCM && (bits == 24 || bits == 32):
		// Keep the two most significant bytes of each little-endian sample.
		width := bits / 8
		n := len(raw) / width
		out := make([]byte, n*2)
		for i := range n {
			copy(out[i*2:i*2+2], raw[i*width+width-2:i*width+width])
		}
		return out, nil

	case format == wavFormatFloat && bits == 32:
		n := len(raw) / 4
		out := make([]byte, n*2)
		for i := range n {
			f := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
			v := max(-1, min(1, float64(f)))
			binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v*32767)))
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: WAV format %d with %d bits per sample", ErrUnsupportedFormat, format, bits)
	}
}
