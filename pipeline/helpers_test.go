package pipeline

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// wavBytes builds a 16-bit PCM WAV with an optional LIST chunk before data,
// the way ffmpeg lays files out.
func wavBytes(channels, sampleRate, samples int, withList bool) []byte {
	data := make([]byte, samples*channels*2)

	var body bytes.Buffer
	body.WriteString("WAVE")

	body.WriteString("fmt ")
	binary.Write(&body, binary.LittleEndian, uint32(16))
	binary.Write(&body, binary.LittleEndian, uint16(wavFormatPCM))
	binary.Write(&body, binary.LittleEndian, uint16(channels))
	binary.Write(&body, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&body, binary.LittleEndian, uint32(sampleRate*channels*2))
	binary.Write(&body, binary.LittleEndian, uint16(channels*2))
	binary.Write(&body, binary.LittleEndian, uint16(16))

	if withList {
		list := []byte("INFOISFT\x0e\x00\x00\x00Lavf60.16.100\x00")
		body.WriteString("LIST")
		binary.Write(&body, binary.LittleEndian, uint32(len(list)))
		body.Write(list)
	}

	body.WriteString("data")
	binary.Write(&body, binary.LittleEndian, uint32(len(data)))
	body.Write(data)

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func mustWriteWAV(t *testing.T, path string, channels, sampleRate, samples int) {
	t.Helper()
	if err := os.WriteFile(path, wavBytes(channels, sampleRate, samples, true), 0o644); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
}

// mustWriteSparseWAV writes a header claiming dataBytes of audio and extends
// the file to match without writing the samples.
func mustWriteSparseWAV(t *testing.T, path string, channels, sampleRate int, dataBytes int64) {
	t.Helper()
	header := wavBytes(channels, sampleRate, 0, false)
	binary.LittleEndian.PutUint32(header[4:8], uint32(int64(len(header))-8+dataBytes))
	binary.LittleEndian.PutUint32(header[len(header)-4:], uint32(dataBytes))
	if err := os.WriteFile(path, header, 0o644); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
	if err := os.Truncate(path, int64(len(header))+dataBytes); err != nil {
		t.Fatalf("truncate wav %s: %v", path, err)
	}
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected %s to be empty, found %v", dir, names)
	}
}
