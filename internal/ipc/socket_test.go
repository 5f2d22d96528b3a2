package ipc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireCreatesPrivateSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "dictum.sock")

	listener, err := Acquire(context.Background(), path, AcquireOptions{ProbeTimeout: 50 * time.Millisecond})
	require.NoError(t, err)
	defer listener.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAcquireReclaimsStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dictum.sock")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	var reclaimed []string
	listener, err := Acquire(context.Background(), path, AcquireOptions{
		ProbeTimeout: 50 * time.Millisecond,
		Retries:      2,
		OnStale:      func(p string) { reclaimed = append(reclaimed, p) },
	})
	require.NoError(t, err)
	defer listener.Close()
	require.Equal(t, []string{path}, reclaimed)
}

func TestAcquireRefusesLiveOwner(t *testing.T) {
	path := startOwner(t, HandlerFunc(func(context.Context, Request) Response {
		return Response{OK: true, State: "recording"}
	}))

	_, err := Acquire(context.Background(), path, AcquireOptions{ProbeTimeout: 200 * time.Millisecond, Retries: 1})
	require.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestAcquireLeavesUnresponsiveSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dictum.sock")
	listener, err := net.Listen("unix", path)
	require.NoError(t, err)

	accepted := make(chan struct{})
	go func() {
		defer close(accepted)
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				time.Sleep(250 * time.Millisecond)
			}(conn)
		}
	}()

	_, err = Acquire(context.Background(), path, AcquireOptions{ProbeTimeout: 30 * time.Millisecond})
	require.ErrorContains(t, err, "probe existing socket")
	require.NotErrorIs(t, err, ErrAlreadyRunning)

	_, err = os.Stat(path)
	require.NoError(t, err, "socket file must survive an inconclusive probe")
	require.NoError(t, listener.Close())
	<-accepted
}

func TestRuntimeSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")
	_, err := RuntimeSocketPath()
	require.Error(t, err)

	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)
	path, err := RuntimeSocketPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "dictum.sock"), path)
}
