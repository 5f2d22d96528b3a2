package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	oai "github.com/openai/openai-go"

	"github.com/rbright/dictum/internal/transcript"
)

// Transcription is one speech-to-text result.
type Transcription struct {
	Text          string
	Language      string
	Segments      []transcript.Segment
	AudioDuration time.Duration
	Latency       time.Duration
}

// SpeechClient sends WAV audio to an OpenAI-compatible transcription endpoint.
type SpeechClient struct {
	client   oai.Client
	model    string
	language string
}

// NewSpeechClient builds a speech client. An empty model uses whisper-1.
func NewSpeechClient(cfg ClientConfig, language string) *SpeechClient {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = string(oai.AudioModelWhisper1)
	}
	return &SpeechClient{client: newOpenAIClient(cfg), model: model, language: strings.TrimSpace(language)}
}

type verboseTranscription struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads wav and returns the recognized text with timing.
func (s *SpeechClient) Transcribe(ctx context.Context, wav []byte) (Transcription, error) {
	if len(wav) == 0 {
		return Transcription{}, errors.New("transcribe: no audio")
	}

	params := oai.AudioTranscriptionNewParams{
		File:           oai.File(bytes.NewReader(wav), "audio.wav", "audio/wav"),
		Model:          oai.AudioModel(s.model),
		ResponseFormat: oai.AudioResponseFormatVerboseJSON,
	}
	if s.language != "" {
		params.Language = oai.String(s.language)
	}

	started := time.Now()
	resp, err := s.client.Audio.Transcriptions.New(ctx, params)
	latency := time.Since(started)
	if err != nil {
		return Transcription{Latency: latency}, fmt.Errorf("openai: transcription: %w", err)
	}

	out := Transcription{Text: resp.Text, Latency: latency}

	var verbose verboseTranscription
	if raw := resp.RawJSON(); raw != "" && json.Unmarshal([]byte(raw), &verbose) == nil {
		out.Language = verbose.Language
		out.AudioDuration = seconds(verbose.Duration)
		for _, seg := range verbose.Segments {
			out.Segments = append(out.Segments, transcript.Segment{
				Start: seconds(seg.Start),
				End:   seconds(seg.End),
				Text:  seg.Text,
			})
		}
	}
	if out.Text == "" {
		out.Text = verbose.Text
	}
	return out, nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
