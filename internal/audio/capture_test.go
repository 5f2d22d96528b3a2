package audio

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUtteranceKeepsFramesInOrder(t *testing.T) {
	c := newCapture(Device{ID: "mic-1"}, time.Minute)

	first := []byte{1, 2, 3, 4}
	second := make([]byte, fragmentBytes)
	for i := range second {
		second[i] = byte(i)
	}

	n, err := c.buf.Write(first)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	n, err = c.buf.Write(second)
	require.NoError(t, err)
	require.Equal(t, fragmentBytes, n)

	require.Equal(t, append(append([]byte(nil), first...), second...), c.RawPCM())
	require.Equal(t, int64(4+fragmentBytes), c.BytesCaptured())
	require.False(t, c.Truncated())
}

func TestUtteranceDropsAudioPastLimit(t *testing.T) {
	c := newCapture(Device{}, time.Second)

	_, err := c.buf.Write(make([]byte, bytesPerSecond-10))
	require.NoError(t, err)

	n, err := c.buf.Write(make([]byte, 64))
	require.NoError(t, err)
	require.Equal(t, 64, n, "the whole frame counts as consumed")
	require.True(t, c.Truncated())
	require.Equal(t, int64(bytesPerSecond), c.BytesCaptured())
	require.Equal(t, time.Second, c.Duration())

	n, err = c.buf.Write([]byte{9})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, int64(bytesPerSecond), c.BytesCaptured())
}

func TestUtteranceEmptyFrame(t *testing.T) {
	c := newCapture(Device{}, time.Second)
	n, err := c.buf.Write(nil)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestCaptureStopRejectsLateFrames(t *testing.T) {
	c := newCapture(Device{ID: "mic-1"}, 0)
	require.Equal(t, int(DefaultMaxDuration/time.Second)*bytesPerSecond, c.buf.limit)

	_, err := c.buf.Write([]byte{1, 2})
	require.NoError(t, err)

	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())

	select {
	case <-c.done:
	default:
		t.Fatal("stop should close the done channel")
	}

	n, err := c.buf.Write([]byte{3})
	require.ErrorIs(t, err, io.EOF)
	require.Zero(t, n)
	require.Equal(t, []byte{1, 2}, c.RawPCM(), "audio kept before stop survives")
	require.Equal(t, "mic-1", c.Device().ID)
}

func TestRawPCMReturnsCopy(t *testing.T) {
	c := newCapture(Device{}, time.Second)
	_, _ = c.buf.Write([]byte{1, 2, 3})

	pcm := c.RawPCM()
	pcm[0] = 42
	require.Equal(t, byte(1), c.RawPCM()[0])
}

func TestPCMDuration(t *testing.T) {
	require.Equal(t, 500*time.Millisecond, PCMDuration(bytesPerSecond/2))
	require.Equal(t, 20*time.Millisecond, PCMDuration(fragmentBytes))
	require.Zero(t, PCMDuration(0))
}
