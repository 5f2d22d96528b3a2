package inference

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rbright/dictum/internal/transcript"
	"github.com/stretchr/testify/require"
)

func TestSpeechClientVerboseJSON(t *testing.T) {
	var form map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			http.NotFound(w, r)
			return
		}
		require.NoError(t, r.ParseMultipartForm(1<<20))
		form = map[string]string{
			"model":           r.FormValue("model"),
			"language":        r.FormValue("language"),
			"response_format": r.FormValue("response_format"),
		}
		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		body, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, "RIFF", string(body[:4]))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"text": "the indication is rest pain",
			"language": "english",
			"duration": 2.5,
			"segments": [
				{"start": 0.0, "end": 1.2, "text": " the indication"},
				{"start": 1.2, "end": 2.5, "text": " is rest pain"}
			]
		}`))
	}))
	defer server.Close()

	client := NewSpeechClient(ClientConfig{BaseURL: server.URL + "/", APIKey: "test"}, "en")
	got, err := client.Transcribe(context.Background(), []byte("RIFF....WAVEfmt "))
	require.NoError(t, err)

	require.Equal(t, "whisper-1", form["model"])
	require.Equal(t, "en", form["language"])
	require.Equal(t, "verbose_json", form["response_format"])

	require.Equal(t, "the indication is rest pain", got.Text)
	require.Equal(t, "english", got.Language)
	require.Equal(t, 2500*time.Millisecond, got.AudioDuration)
	require.Equal(t, []transcript.Segment{
		{Start: 0, End: 1200 * time.Millisecond, Text: " the indication"},
		{Start: 1200 * time.Millisecond, End: 2500 * time.Millisecond, Text: " is rest pain"},
	}, got.Segments)
}

func TestSpeechClientRejectsEmptyAudio(t *testing.T) {
	client := NewSpeechClient(ClientConfig{APIKey: "test"}, "")
	_, err := client.Transcribe(context.Background(), nil)
	require.ErrorContains(t, err, "no audio")
}
