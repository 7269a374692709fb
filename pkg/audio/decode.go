package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/hajimehoshi/go-mp3"
)

// ErrUnsupportedFormat is returned by [Decode] for containers or encodings it
// cannot turn into PCM.
var ErrUnsupportedFormat = errors.New("audio: unsupported format")

// Container identifies an uploaded file format.
type Container int

const (
	ContainerUnknown Container = iota
	ContainerWAV
	ContainerMP3
	ContainerOggOpus
)

// String returns the lower-case container name.
func (c Container) String() string {
	switch c {
	case ContainerWAV:
		return "wav"
	case ContainerMP3:
		return "mp3"
	case ContainerOggOpus:
		return "ogg/opus"
	default:
		return "unknown"
	}
}

// Sniff determines the container of data. Magic bytes win over the declared
// content type, which browsers often get wrong.
func Sniff(data []byte, contentType string) Container {
	switch {
	case isWAV(data):
		return ContainerWAV
	case isOggOpus(data):
		return ContainerOggOpus
	case isMP3(data):
		return ContainerMP3
	}

	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch mt {
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
		return ContainerWAV
	case "audio/mpeg", "audio/mp3", "audio/mpeg3", "audio/x-mpeg-3":
		return ContainerMP3
	case "audio/ogg", "audio/opus":
		return ContainerOggOpus
	default:
		return ContainerUnknown
	}
}

// Decode turns an uploaded WAV, MP3 or Ogg Opus file into 16-bit PCM.
func Decode(data []byte, contentType string) (Clip, error) {
	switch c := Sniff(data, contentType); c {
	case ContainerWAV:
		clip, err := decodeWAV(data)
		if err != nil {
			return Clip{}, fmt.Errorf("audio: decode wav: %w", err)
		}
		return clip, nil
	case ContainerMP3:
		clip, err := decodeMP3(data)
		if err != nil {
			return Clip{}, fmt.Errorf("audio: decode mp3: %w", err)
		}
		return clip, nil
	case ContainerOggOpus:
		clip, err := decodeOggOpus(data)
		if err != nil {
			return Clip{}, fmt.Errorf("audio: decode ogg opus: %w", err)
		}
		return clip, nil
	default:
		return Clip{}, fmt.Errorf("%w: content type %q", ErrUnsupportedFormat, contentType)
	}
}

func isMP3(data []byte) bool {
	if len(data) >= 3 && string(data[:3]) == "ID3" {
		return true
	}
	// MPEG audio frame sync: 11 set bits.
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

// decodeMP3 uses go-mp3, which always produces 16-bit stereo.
func decodeMP3(data []byte) (Clip, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return Clip{}, err
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return Clip{}, err
	}
	return Clip{Data: pcm, SampleRate: dec.SampleRate(), Channels: 2}, nil
}
