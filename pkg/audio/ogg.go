package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var errMalformedOgg = errors.New("audio: malformed Ogg stream")

const (
	oggPageHeaderLen = 27
	oggContinued     = 0x01
)

func isOgg(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "OggS"
}

// oggPackets splits the first logical bitstream of an Ogg file into packets.
// Pages of other streams are skipped. CRCs are not verified.
func oggPackets(data []byte) ([][]byte, error) {
	var (
		packets [][]byte
		partial []byte
		serial  uint32
		haveSN  bool
	)
	for off := 0; off < len(data); {
		if len(data)-off < oggPageHeaderLen || string(data[off:off+4]) != "OggS" {
			return nil, fmt.Errorf("%w: bad page header at offset %d", errMalformedOgg, off)
		}
		hdr := data[off : off+oggPageHeaderLen]
		if hdr[4] != 0 {
			return nil, fmt.Errorf("%w: unsupported version %d", errMalformedOgg, hdr[4])
		}
		flags := hdr[5]
		sn := binary.LittleEndian.Uint32(hdr[14:18])
		nsegs := int(hdr[26])

		segStart := off + oggPageHeaderLen
		bodyStart := segStart + nsegs
		if bodyStart > len(data) {
			return nil, fmt.Errorf("%w: truncated segment table", errMalformedOgg)
		}
		lacing := data[segStart:bodyStart]
		bodyLen := 0
		for _, l := range lacing {
			bodyLen += int(l)
		}
		if bodyStart+bodyLen > len(data) {
			return nil, fmt.Errorf("%w: truncated page body", errMalformedOgg)
		}
		off = bodyStart + bodyLen

		if !haveSN {
			serial, haveSN = sn, true
		}
		if sn != serial {
			continue
		}
		if flags&oggContinued == 0 && len(partial) > 0 {
			// The previous page promised a continuation that never came.
			partial = nil
		}

		body := data[bodyStart : bodyStart+bodyLen]
		for _, l := range lacing {
			partial = append(partial, body[:l]...)
			body = body[l:]
			if l < 255 {
				packets = append(packets, partial)
				partial = nil
			}
		}
	}
	if len(packets) == 0 {
		return nil, fmt.Errorf("%w: no packets", errMalformedOgg)
	}
	return packets, nil
}
