package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// maxLineBytes bounds one JSON line. Rendered documents ride in responses,
// so the cap is generous.
const maxLineBytes = 4 << 20

// ErrLineTooLong is returned when a peer sends more than maxLineBytes
// without a newline.
var ErrLineTooLong = errors.New("ipc message exceeds size limit")

func writeLine(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	_, err = w.Write(append(payload, '\n'))
	return err
}

// readLine returns one newline-terminated message without the newline. A final
// unterminated line is accepted at EOF.
func readLine(r *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > maxLineBytes {
			return nil, ErrLineTooLong
		}
		switch {
		case err == nil:
			return line[:len(line)-1], nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && len(line) > 0:
			return line, nil
		default:
			return nil, err
		}
	}
}
