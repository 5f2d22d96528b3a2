package pipeline

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/rbright/dictum/internal/audio"
)

// wavHeader is the canonical 44-byte RIFF header for uncompressed PCM.
type wavHeader struct {
	Riff          [4]byte
	ChunkSize     uint32
	Wave          [4]byte
	Fmt           [4]byte
	FmtSize       uint32
	Format        uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Data          [4]byte
	DataSize      uint32
}

const (
	bitsPerSample = 16
	formatPCM     = 1
)

func newWAVHeader(dataLen, sampleRate, channels int) wavHeader {
	if channels <= 0 {
		channels = 1
	}
	block := channels * bitsPerSample / 8
	return wavHeader{
		Riff:          [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + dataLen),
		Wave:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		Format:        formatPCM,
		Channels:      uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * block),
		BlockAlign:    uint16(block),
		BitsPerSample: bitsPerSample,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      uint32(dataLen),
	}
}

// writePCM16WAV frames little-endian 16-bit PCM as a WAV stream.
func writePCM16WAV(w io.Writer, pcm []byte, sampleRate int, channels int) error {
	if err := binary.Write(w, binary.LittleEndian, newWAVHeader(len(pcm), sampleRate, channels)); err != nil {
		return err
	}
	_, err := w.Write(pcm)
	return err
}

// utteranceWAV wraps captured mono audio for upload.
func utteranceWAV(pcm []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	// bytes.Buffer writes cannot fail.
	_ = writePCM16WAV(&buf, pcm, audio.SampleRate, 1)
	return buf.Bytes()
}
