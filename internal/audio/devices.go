// Package audio lists PulseAudio input sources, picks the dictation source,
// and buffers one utterance of 16kHz mono PCM.
package audio

import (
	"context"
	"fmt"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Device describes one Pulse input source.
type Device struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	State       string `json:"state"`
	Available   bool   `json:"available"`
	Muted       bool   `json:"muted"`
	Default     bool   `json:"default"`
}

// Label is the human-facing name used in logs and feedback.
func (d Device) Label() string {
	switch {
	case d.Description != "" && d.ID != "":
		return fmt.Sprintf("%s (%s)", d.Description, d.ID)
	case d.Description != "":
		return d.Description
	default:
		return d.ID
	}
}

// Problem names why a device cannot record, or "" when it can.
func (d Device) Problem() string {
	switch {
	case !d.Available:
		return "unavailable"
	case d.Muted:
		return "muted"
	default:
		return ""
	}
}

func dial() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("dictum"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// ListDevices returns every Pulse input source with default and port metadata.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := dial()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	def, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}

	var reply pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &reply); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return devicesFromReply(reply, def.ID()), nil
}

func devicesFromReply(reply pulseproto.GetSourceInfoListReply, defaultID string) []Device {
	out := make([]Device, 0, len(reply))
	for _, info := range reply {
		if info == nil {
			continue
		}
		out = append(out, Device{
			ID:          info.SourceName,
			Description: info.Device,
			State:       stateName(info.State),
			Available:   activePortAvailable(info),
			Muted:       info.Mute,
			Default:     info.SourceName == defaultID,
		})
	}
	return out
}

var stateNames = map[uint32]string{0: "running", 1: "idle", 2: "suspended"}

func stateName(state uint32) string {
	if name, ok := stateNames[state]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", state)
}

// activePortAvailable treats port availability "unknown" (0) and "yes" (2)
// as usable. Sources without ports, or whose active port is not listed, are
// assumed usable.
func activePortAvailable(info *pulseproto.GetSourceInfoReply) bool {
	if info == nil {
		return false
	}
	for _, port := range info.Ports {
		if port.Name == info.ActivePortName {
			return port.Available != 1
		}
	}
	return true
}
