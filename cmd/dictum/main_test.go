package main

import (
	"errors"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestMain lets the test binary stand in for dictum: with DICTUM_RUN_MAIN set
// it runs main with the remaining arguments instead of the tests.
func TestMain(m *testing.M) {
	if os.Getenv("DICTUM_RUN_MAIN") == "1" {
		os.Args = append([]string{"dictum"}, os.Args[1:]...)
		main()
		return
	}
	os.Exit(m.Run())
}

func dictum(t *testing.T, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(os.Args[0], args...)
	cmd.Env = append(os.Environ(), "DICTUM_RUN_MAIN=1", "XDG_CONFIG_HOME="+t.TempDir(), "DICTUM_CONFIG=")
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return string(out), 0
	case errors.As(err, &exitErr):
		return string(out), exitErr.ExitCode()
	default:
		require.NoError(t, err)
		return "", -1
	}
}

func TestHelp(t *testing.T) {
	out, code := dictum(t, "--help")
	require.Zero(t, code, out)
	require.Contains(t, out, "Usage:")
	require.Contains(t, out, "say TEXT")
}

func TestUnknownCommand(t *testing.T) {
	out, code := dictum(t, "dictate-harder")
	require.Equal(t, 2, code)
	require.Contains(t, out, "unknown command")
}

func TestVersion(t *testing.T) {
	out, code := dictum(t, "version")
	require.Zero(t, code, out)
	require.Contains(t, out, "dictum ")
}

func TestForwardWithoutOwner(t *testing.T) {
	runtime := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runtime)

	out, code := dictum(t, "render")
	require.Equal(t, 1, code)
	require.Contains(t, out, "no active dictum session")
}
