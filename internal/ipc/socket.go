package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// ErrAlreadyRunning means another owner answers on the socket.
var ErrAlreadyRunning = errors.New("dictum session already running")

// RuntimeSocketPath is $XDG_RUNTIME_DIR/dictum.sock.
func RuntimeSocketPath() (string, error) {
	dir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if dir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(dir, "dictum.sock"), nil
}

// AcquireOptions tune how Acquire handles an existing socket file.
type AcquireOptions struct {
	// ProbeTimeout bounds the status request sent to a possible owner.
	ProbeTimeout time.Duration
	// Retries is how many extra listen attempts follow a stale-socket cleanup.
	Retries int
	// OnStale is called with the path after a dead socket file is removed.
	OnStale func(path string)
}

// Acquire listens on path, making this process the single session owner.
// A socket that answers a probe yields ErrAlreadyRunning. A socket nobody
// answers is removed and listening is retried. A socket that neither answers
// nor refuses is left alone.
func Acquire(ctx context.Context, path string, opts AcquireOptions) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}

	for attempt := 0; ; attempt++ {
		listener, err := net.Listen("unix", path)
		if err == nil {
			_ = os.Chmod(path, 0o600)
			return listener, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}
		if err := reclaim(ctx, path, opts); err != nil {
			return nil, err
		}
		if attempt >= opts.Retries {
			return nil, fmt.Errorf("failed to acquire socket %s after %d retries", path, opts.Retries)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 25 * time.Millisecond):
		}
	}
}

// reclaim removes path when no owner answers on it.
func reclaim(ctx context.Context, path string, opts AcquireOptions) error {
	alive, err := Probe(ctx, path, opts.ProbeTimeout)
	if alive {
		return ErrAlreadyRunning
	}
	if err != nil {
		return fmt.Errorf("probe existing socket %s: %w", path, err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket %s: %w", path, err)
	}
	if opts.OnStale != nil {
		opts.OnStale(path)
	}
	return nil
}
