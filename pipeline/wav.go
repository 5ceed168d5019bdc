package pipeline

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// wavFormat is the subset of a RIFF/WAVE header the pipeline checks.
type wavFormat struct {
	AudioFormat   uint16
	Channels      int
	SampleRate    int
	BitsPerSample int
	DataBytes     uint32
}

func inspectWAV(path string) (wavFormat, error) {
	file, err := os.Open(path)
	if err != nil {
		return wavFormat{}, err
	}
	defer file.Close()

	return readWAVHeader(file)
}

func readWAVHeader(r io.Reader) (wavFormat, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return wavFormat{}, fmt.Errorf("short RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return wavFormat{}, errors.New("not a RIFF/WAVE file")
	}

	var format wavFormat
	var sawFmt bool
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if sawFmt {
				return wavFormat{}, errors.New("missing data chunk")
			}
			return wavFormat{}, errors.New("missing fmt chunk")
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return wavFormat{}, fmt.Errorf("fmt chunk too small: %d bytes", size)
			}
			// Only the 16-byte PCM core is read; extension bytes are skipped.
			var body [16]byte
			if _, err := io.ReadFull(r, body[:]); err != nil {
				return wavFormat{}, fmt.Errorf("short fmt chunk: %w", err)
			}
			if rest := int64(size) - 16 + int64(size%2); rest > 0 {
				if _, err := io.CopyN(io.Discard, r, rest); err != nil {
					return wavFormat{}, fmt.Errorf("short fmt chunk: %w", err)
				}
			}
			format.AudioFormat = binary.LittleEndian.Uint16(body[0:2])
			format.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			format.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			format.BitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))
			if format.AudioFormat != wavFormatPCM && format.AudioFormat != wavFormatExtensible {
				return wavFormat{}, fmt.Errorf("unsupported WAV encoding %#x", format.AudioFormat)
			}
			sawFmt = true
		case "data":
			if !sawFmt {
				return wavFormat{}, errors.New("data chunk before fmt chunk")
			}
			format.DataBytes = size
			return format, nil
		default:
			if _, err := io.CopyN(io.Discard, r, int64(size)+int64(size%2)); err != nil {
				return wavFormat{}, fmt.Errorf("skip %q chunk: %w", id, err)
			}
		}
	}
}
