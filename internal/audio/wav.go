package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// wavInfo describes the PCM payload of a parsed WAV file.
type wavInfo struct {
	sampleRate    int
	channels      int
	bitsPerSample int
	data          []byte
}

var errNotWAV = errors.New("not a RIFF/WAVE file")

// parseWAV walks the RIFF chunks of b and extracts the format and data
// chunks. Only uncompressed PCM is supported, which is all the worker
// produces.
func parseWAV(b []byte) (wavInfo, error) {
	var info wavInfo

	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return info, errNotWAV
	}

	var haveFmt, haveData bool
	offset := 12
	for offset+8 <= len(b) {
		chunkID := string(b[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(b[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(b) {
			chunkSize = len(b) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return info, fmt.Errorf("fmt chunk too short: %d bytes", chunkSize)
			}
			format := binary.LittleEndian.Uint16(b[body : body+2])
			if format != 1 {
				return info, fmt.Errorf("unsupported WAV format code %d", format)
			}
			info.channels = int(binary.LittleEndian.Uint16(b[body+2 : body+4]))
			info.sampleRate = int(binary.LittleEndian.Uint32(b[body+4 : body+8]))
			info.bitsPerSample = int(binary.LittleEndian.Uint16(b[body+14 : body+16]))
			haveFmt = true
		case "data":
			info.data = b[body : body+chunkSize]
			haveData = true
		}

		// Chunks are word-aligned.
		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if !haveFmt || !haveData {
		return info, errors.New("missing fmt or data chunk")
	}
	if info.channels < 1 || info.sampleRate <= 0 {
		return info, fmt.Errorf("invalid format: %d channels at %d Hz", info.channels, info.sampleRate)
	}

	return info, nil
}
