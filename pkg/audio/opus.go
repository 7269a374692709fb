package audio

import (
	"encoding/binary"
	"fmt"

	"layeh.com/gopus"
)

// Opus always decodes at 48 kHz. A single packet holds at most 120 ms.
const (
	opusSampleRate   = 48000
	opusMaxFrameSize = opusSampleRate * 120 / 1000 // 5760
)

// opusHead is the identification header of an Ogg Opus stream.
type opusHead struct {
	channels int
	preSkip  int
}

func parseOpusHead(p []byte) (opusHead, error) {
	if len(p) < 19 || string(p[:8]) != "OpusHead" {
		return opusHead{}, fmt.Errorf("%w: missing OpusHead", errMalformedOgg)
	}
	h := opusHead{
		channels: int(p[9]),
		preSkip:  int(binary.LittleEndian.Uint16(p[10:12])),
	}
	if family := p[18]; family != 0 || h.channels < 1 || h.channels > 2 {
		return opusHead{}, fmt.Errorf("%w: opus mapping family %d with %d channels", ErrUnsupportedFormat, family, h.channels)
	}
	return h, nil
}

func isOggOpus(data []byte) bool {
	if !isOgg(data) || len(data) < oggPageHeaderLen {
		return false
	}
	body := oggPageHeaderLen + int(data[26])
	return len(data) >= body+8 && string(data[body:body+8]) == "OpusHead"
}

// decodeOggOpus decodes an Ogg Opus file, the usual output of browser
// recorders, into 48 kHz PCM with the stream's channel count.
func decodeOggOpus(data []byte) (Clip, error) {
	packets, err := oggPackets(data)
	if err != nil {
		return Clip{}, err
	}
	head, err := parseOpusHead(packets[0])
	if err != nil {
		return Clip{}, err
	}
	// packets[1] is OpusTags.
	if len(packets) < 2 {
		return Clip{}, fmt.Errorf("%w: missing OpusTags", errMalformedOgg)
	}

	dec, err := gopus.NewDecoder(opusSampleRate, head.channels)
	if err != nil {
		return Clip{}, fmt.Errorf("create opus decoder: %w", err)
	}

	var pcm []byte
	for i, pkt := range packets[2:] {
		if len(pkt) == 0 {
			continue
		}
		samples, err := dec.Decode(pkt, opusMaxFrameSize, false)
		if err != nil {
			return Clip{}, fmt.Errorf("opus packet %d: %w", i, err)
		}
		pcm = append(pcm, int16sToBytes(samples)...)
	}

	skip := head.preSkip * head.channels * bytesPerSample
	pcm = pcm[min(skip, len(pcm)):]
	return Clip{Data: pcm, SampleRate: opusSampleRate, Channels: head.channels}, nil
}

// int16sToBytes converts int16 PCM samples to little-endian bytes.
func int16sToBytes(pcm []int16) []byte {
	b := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		b[i*2] = byte(s)
		b[i*2+1] = byte(s >> 8)
	}
	return b
}
