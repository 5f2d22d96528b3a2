package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Selection is the source dictation records from. Warning is set when the
// configured input could not be used and a fallback was taken.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// SelectDevice resolves audio.input and audio.fallback against live sources.
func SelectDevice(ctx context.Context, input, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return choose(devices, input, fallback)
}

// preference is a normalized audio.input or audio.fallback value. The empty
// preference and "default" both mean the server default source.
type preference string

func newPreference(raw string) preference {
	return preference(strings.ToLower(strings.TrimSpace(raw)))
}

func (p preference) isDefault() bool {
	return p == "" || p == "default"
}

// matches is a case-insensitive substring test on ID and description.
func (p preference) matches(d Device) bool {
	if p == "" {
		return false
	}
	term := string(p)
	return strings.Contains(strings.ToLower(d.ID), term) ||
		strings.Contains(strings.ToLower(d.Description), term)
}

func (p preference) resolve(devices []Device) (Device, error) {
	if p.isDefault() {
		for _, d := range devices {
			if d.Default {
				return d, nil
			}
		}
		return Device{}, errors.New("default audio source is unavailable")
	}
	for _, d := range devices {
		if p.matches(d) {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("audio.input %q did not match any device", string(p))
}

func choose(devices []Device, input, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errors.New("no audio input devices found")
	}

	primary, err := newPreference(input).resolve(devices)
	if err != nil {
		return Selection{}, err
	}
	why := primary.Problem()
	if why == "" {
		return Selection{Device: primary}, nil
	}

	backup := newPreference(fallback)
	alt, err := backup.resolve(devices)
	if err != nil {
		if backup.isDefault() {
			return Selection{}, fmt.Errorf("primary input %q is %s and no usable fallback: %w", primary.ID, why, err)
		}
		return Selection{}, fmt.Errorf("primary input %q is %s and fallback %q not found", primary.ID, why, string(backup))
	}
	if altWhy := alt.Problem(); altWhy != "" {
		return Selection{}, fmt.Errorf("audio fallback device %q is %s", alt.ID, altWhy)
	}

	return Selection{
		Device:   alt,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, why, alt.ID),
		Fallback: alt.ID != primary.ID,
	}, nil
}
