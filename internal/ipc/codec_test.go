package ipc

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteLineTerminatesWithNewline(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeLine(&buf, Request{Command: "say", Text: "insert progress"}))
	require.Equal(t, "{\"command\":\"say\",\"text\":\"insert progress\"}\n", buf.String())
}

func TestReadLineSplitsMessages(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("{\"a\":1}\n{\"b\":2}"))

	line, err := readLine(r)
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, string(line))

	line, err = readLine(r)
	require.NoError(t, err)
	require.Equal(t, `{"b":2}`, string(line), "unterminated final line is accepted")

	_, err = readLine(r)
	require.ErrorIs(t, err, io.EOF)
}

func TestReadLineSpansSmallBuffers(t *testing.T) {
	long := strings.Repeat("x", 100)
	r := bufio.NewReaderSize(strings.NewReader(long+"\n"), 16)

	line, err := readLine(r)
	require.NoError(t, err)
	require.Equal(t, long, string(line))
}

func TestReadLineRejectsOversizedMessages(t *testing.T) {
	r := bufio.NewReader(io.MultiReader(
		strings.NewReader(strings.Repeat("x", maxLineBytes+1)),
		strings.NewReader("\n"),
	))
	_, err := readLine(r)
	require.ErrorIs(t, err, ErrLineTooLong)
}
