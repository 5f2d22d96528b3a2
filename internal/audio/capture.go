package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const (
	// SampleRate is the capture rate in Hz; samples are mono s16le.
	SampleRate = 16000

	// DefaultMaxDuration caps one utterance.
	DefaultMaxDuration = 5 * time.Minute

	bytesPerSecond = SampleRate * 2
	fragmentBytes  = bytesPerSecond / 50 // 20ms
)

// PCMDuration converts a byte count of 16kHz mono s16 audio to a duration.
func PCMDuration(n int) time.Duration {
	return time.Duration(n) * time.Second / bytesPerSecond
}

// utterance is the capped PCM sink the record stream writes into. Once closed
// it rejects writes with io.EOF so Pulse tears the stream down.
type utterance struct {
	mu        sync.Mutex
	pcm       []byte
	limit     int
	truncated bool
	closed    bool
}

func newUtterance(maxDuration time.Duration) *utterance {
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}
	return &utterance{limit: int(maxDuration/time.Second) * bytesPerSecond}
}

// Write keeps at most limit bytes and always reports the full frame as
// consumed so Pulse never retries a dropped tail.
func (u *utterance) Write(frame []byte) (int, error) {
	if len(frame) == 0 {
		return 0, nil
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return 0, io.EOF
	}
	kept := frame
	if room := max(u.limit-len(u.pcm), 0); len(kept) > room {
		u.truncated = true
		kept = kept[:room]
	}
	u.pcm = append(u.pcm, kept...)
	return len(frame), nil
}

// close marks the sink closed; it reports false when already closed. A frame
// being written holds the lock, so close returns only after it lands.
func (u *utterance) close() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return false
	}
	u.closed = true
	return true
}

func (u *utterance) snapshot() (pcm []byte, truncated bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]byte(nil), u.pcm...), u.truncated
}

func (u *utterance) size() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.pcm)
}

// Capture records one utterance from a selected source.
type Capture struct {
	device Device
	buf    *utterance
	done   chan struct{}

	client *pulse.Client
	stream *pulse.RecordStream
}

// StartCapture opens a 16kHz mono s16 record stream on the device. Audio past
// maxDuration is dropped; zero means DefaultMaxDuration. Cancelling ctx stops
// the capture.
func StartCapture(ctx context.Context, device Device, maxDuration time.Duration) (*Capture, error) {
	client, err := dial()
	if err != nil {
		return nil, err
	}
	source, err := client.SourceByID(device.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", device.ID, err)
	}

	c := newCapture(device, maxDuration)
	c.client = client
	c.stream, err = client.NewRecord(
		pulse.NewWriter(c.buf, pulseproto.FormatInt16LE),
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(SampleRate),
		pulse.RecordBufferFragmentSize(fragmentBytes),
		pulse.RecordMediaName("dictum dictation"),
	)
	if err != nil {
		_ = c.Stop()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}
	c.stream.Start()

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Stop()
		case <-c.done:
		}
	}()
	return c, nil
}

func newCapture(device Device, maxDuration time.Duration) *Capture {
	return &Capture{device: device, buf: newUtterance(maxDuration), done: make(chan struct{})}
}

// Device is the source being recorded.
func (c *Capture) Device() Device { return c.device }

// BytesCaptured is the number of PCM bytes kept so far.
func (c *Capture) BytesCaptured() int64 { return int64(c.buf.size()) }

// Duration is the length of the kept audio.
func (c *Capture) Duration() time.Duration { return PCMDuration(c.buf.size()) }

// Truncated reports whether audio was dropped at the duration cap.
func (c *Capture) Truncated() bool {
	_, truncated := c.buf.snapshot()
	return truncated
}

// RawPCM copies the kept audio.
func (c *Capture) RawPCM() []byte {
	pcm, _ := c.buf.snapshot()
	return pcm
}

// Stop ends the stream. Repeated calls are no-ops.
func (c *Capture) Stop() error {
	if !c.buf.close() {
		return nil
	}
	close(c.done)
	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
	}
	if c.client != nil {
		c.client.Close()
	}
	return nil
}
