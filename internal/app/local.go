package app

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/rbright/dictum/internal/audio"
	"github.com/rbright/dictum/internal/doctor"
)

func (r Runner) commandDoctor(ctx context.Context, inv invocation) int {
	report := doctor.Run(ctx, inv.loaded)
	exit := 0
	if !report.OK() {
		exit = 1
	}
	if inv.parsed.JSON {
		return max(exit, r.printJSON(report))
	}
	fmt.Fprintln(r.Stdout, report.String())
	return exit
}

func (r Runner) commandDevices(ctx context.Context, inv invocation) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if inv.parsed.JSON {
		if devices == nil {
			devices = []audio.Device{}
		}
		return r.printJSON(devices)
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}
	writeDevices(r, devices)
	return 0
}

// writeDevices prints an aligned table; the default source is starred.
func writeDevices(r Runner, devices []audio.Device) {
	tw := tabwriter.NewWriter(r.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tDESCRIPTION\tSTATE\tNOTE")
	for _, d := range devices {
		mark := ""
		if d.Default {
			mark = "*"
		}
		note := d.Problem()
		if note == "" {
			note = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, d.ID, d.Description, d.State, note)
	}
	_ = tw.Flush()
}
