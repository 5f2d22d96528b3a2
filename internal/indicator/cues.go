package indicator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"

	"github.com/rbright/dictum/internal/config"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueComplete
	cueCancel
	cueError
)

const (
	cueRate     = 16000
	cueGap      = 22 * time.Millisecond
	cueMaxRamp  = 5 * time.Millisecond
	cueFileWait = 4 * time.Second
)

// tone is one sine segment of a synthesized cue.
type tone struct {
	hz     float64
	length time.Duration
	gain   float64
}

// melodies are the synthesized cues, used when no sound file is configured
// or the file cannot be played.
var melodies = map[cueKind][]tone{
	cueStart:    {{880, 70 * time.Millisecond, 0.18}, {1175, 70 * time.Millisecond, 0.18}},
	cueStop:     {{620, 120 * time.Millisecond, 0.18}},
	cueComplete: {{740, 65 * time.Millisecond, 0.18}, {988, 90 * time.Millisecond, 0.18}},
	cueCancel:   {{480, 75 * time.Millisecond, 0.18}, {360, 90 * time.Millisecond, 0.18}},
	cueError:    {{330, 90 * time.Millisecond, 0.2}, {330, 90 * time.Millisecond, 0.2}},
}

var renderedMelodies = sync.OnceValue(func() map[cueKind][]int16 {
	out := make(map[cueKind][]int16, len(melodies))
	for kind, tones := range melodies {
		out[kind] = render(tones)
	}
	return out
})

func sampleCount(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueRate))
}

// render joins tones with short silences.
func render(tones []tone) []int16 {
	var pcm []int16
	for i, t := range tones {
		if i > 0 {
			pcm = append(pcm, make([]int16, sampleCount(cueGap))...)
		}
		pcm = append(pcm, t.samples()...)
	}
	return pcm
}

// samples renders t with a linear fade at both ends to avoid clicks.
func (t tone) samples() []int16 {
	n := sampleCount(t.length)
	if n == 0 || t.hz <= 0 || t.gain <= 0 {
		return nil
	}
	ramp := min(max(n/10, 1), sampleCount(cueMaxRamp))

	out := make([]int16, n)
	for i := range out {
		fade := min(1, float64(i)/float64(ramp), float64(n-1-i)/float64(ramp))
		phase := 2 * math.Pi * t.hz * float64(i) / cueRate
		out[i] = int16(math.Round(math.Sin(phase) * t.gain * fade * math.MaxInt16))
	}
	return out
}

// cuePlayer plays cues one at a time in the background.
type cuePlayer struct {
	cfg    config.IndicatorConfig
	logger *slog.Logger
	mu     sync.Mutex
}

func (p *cuePlayer) file(kind cueKind) string {
	switch kind {
	case cueStart:
		return p.cfg.SoundStartFile
	case cueStop:
		return p.cfg.SoundStopFile
	case cueComplete:
		return p.cfg.SoundCompleteFile
	case cueCancel:
		return p.cfg.SoundCancelFile
	case cueError:
		return p.cfg.SoundErrorFile
	}
	return ""
}

func (p *cuePlayer) play(kind cueKind) {
	if !p.cfg.SoundEnable {
		return
	}
	go func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if err := p.emit(context.Background(), kind); err != nil && p.logger != nil {
			p.logger.Debug("indicator audio cue failed", "cue", int(kind), "error", err.Error())
		}
	}()
}

// emit prefers the configured sound file and falls back to the melody.
func (p *cuePlayer) emit(ctx context.Context, kind cueKind) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("emit cue: %w", err)
	}
	if path := p.file(kind); path != "" {
		err := playFile(ctx, path)
		if err == nil {
			return nil
		}
		if p.logger != nil {
			p.logger.Debug("cue file unavailable; using tone", "path", path, "error", err.Error())
		}
	}
	pcm := renderedMelodies()[kind]
	if len(pcm) == 0 {
		return nil
	}
	return playPCM(pcm)
}

func playFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("stat cue file: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, cueFileWait)
	defer cancel()
	if err := exec.CommandContext(ctx, "pw-play", "--media-role", "Notification", path).Run(); err != nil {
		return fmt.Errorf("play cue file %q: %w", path, err)
	}
	return nil
}

// playPCM streams mono s16 samples to the default Pulse sink and waits for
// them to drain.
func playPCM(pcm []int16) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("dictum"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	rest := pcm
	source := pulse.Int16Reader(func(buf []int16) (int, error) {
		n := copy(buf, rest)
		rest = rest[n:]
		if len(rest) == 0 {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		source,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("dictum cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return nil
}
