package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// defaultTimeout applies when Client.Timeout is unset.
const defaultTimeout = 2 * time.Second

// Client sends one request per connection to the session owner.
type Client struct {
	Path    string
	Timeout time.Duration
}

// Do dials the owner, writes req, and waits for the reply. The exchange is
// bounded by Timeout or by ctx's deadline, whichever comes first.
func (c Client) Do(ctx context.Context, req Request) (Response, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, "unix", c.Path)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()
	if err := conn.SetDeadline(deadline); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}

	if err := writeLine(conn, req); err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}
	line, err := readLine(bufio.NewReader(conn))
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// Send is a one-shot Client.Do.
func Send(ctx context.Context, path string, req Request, timeout time.Duration) (Response, error) {
	return Client{Path: path, Timeout: timeout}.Do(ctx, req)
}

// Probe reports whether an owner answers a status request on path. Missing
// sockets and refused connections mean no owner; other failures are returned.
func Probe(ctx context.Context, path string, timeout time.Duration) (bool, error) {
	_, err := Send(ctx, path, Request{Command: "status"}, timeout)
	switch {
	case err == nil:
		return true, nil
	case Unreachable(err):
		return false, nil
	default:
		return false, fmt.Errorf("probe socket: %w", err)
	}
}

// Unreachable reports dial failures that mean nobody owns the socket.
func Unreachable(err error) bool {
	return err != nil && (errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED))
}
