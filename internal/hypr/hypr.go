// Package hypr talks to the running Hyprland compositor through hyprctl.
package hypr

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// ctl runs hyprctl and returns stdout. Failures carry the combined output.
func ctl(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "hyprctl", args...).CombinedOutput()
	if err == nil {
		return out, nil
	}
	if detail := strings.TrimSpace(string(out)); detail != "" {
		return nil, fmt.Errorf("hyprctl %v failed: %w (%s)", args, err, detail)
	}
	return nil, fmt.Errorf("hyprctl %v failed: %w", args, err)
}

// dispatch runs `hyprctl --quiet dispatch <args>`.
func dispatch(ctx context.Context, args ...string) error {
	_, err := ctl(ctx, append([]string{"--quiet", "dispatch"}, args...)...)
	return err
}

// query decodes `hyprctl -j <target>` into T.
func query[T any](ctx context.Context, target string) (T, error) {
	var v T
	out, err := ctl(ctx, "-j", target)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(out, &v); err != nil {
		return v, fmt.Errorf("decode hyprctl %s json: %w", target, err)
	}
	return v, nil
}
