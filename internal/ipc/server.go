package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// requestReadTimeout drops clients that connect and never send a line.
const requestReadTimeout = 5 * time.Second

// Handler answers one request from a client.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve answers clients on listener until ctx is cancelled or the listener is
// closed. It waits for open connections before returning.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var conns sync.WaitGroup
	defer conns.Wait()

	stop := context.AfterFunc(ctx, func() { _ = listener.Close() })
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}
		conns.Add(1)
		go func() {
			defer conns.Done()
			serveConn(ctx, conn, handler)
		}()
	}
}

func serveConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(requestReadTimeout))

	line, err := readLine(bufio.NewReader(conn))
	if err != nil {
		_ = writeLine(conn, failure("read request", err))
		return
	}
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		_ = writeLine(conn, failure("decode request", err))
		return
	}
	_ = conn.SetReadDeadline(time.Time{})
	_ = writeLine(conn, dispatch(ctx, handler, req))
}

// dispatch turns a handler panic into an internal failure so one bad request
// cannot take the owner down.
func dispatch(ctx context.Context, handler Handler, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = Response{Error: fmt.Sprintf("%s: handler panic: %v", req.Command, r), Code: "internal"}
		}
	}()
	return handler.Handle(ctx, req)
}

func failure(stage string, err error) Response {
	return Response{Error: fmt.Sprintf("%s: %v", stage, err), Code: "bad_request"}
}
