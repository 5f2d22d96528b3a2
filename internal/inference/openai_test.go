package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rbright/dictum/internal/extract"
	"github.com/stretchr/testify/require"
)

func TestChatExtractorRequestsJSONObject(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {
					"role": "assistant",
					"content": "{\"fields\": {\"indication\": {\"value\": \"claudication\", \"confidence\": 0.82}}}"
				}
			}]
		}`))
	}))
	defer server.Close()

	extractor, err := NewChatExtractor(ClientConfig{BaseURL: server.URL + "/", APIKey: "test", Model: "gpt-4o-mini"})
	require.NoError(t, err)

	got, err := extractor.Extract(context.Background(), extract.Request{
		Text:     "indication is claudication",
		Fields:   []string{"indication", "findings"},
		MacroKey: "arteriogram",
	})
	require.NoError(t, err)
	require.Equal(t, map[string]extract.Candidate{
		"indication": {Value: "claudication", Confidence: 0.82},
	}, got)

	require.Equal(t, "gpt-4o-mini", captured["model"])
	format, ok := captured["response_format"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "json_object", format["type"])
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)
	require.Contains(t, user["content"], "Fields: indication, findings")
	require.Contains(t, user["content"], "Template: arteriogram")
}

func TestChatExtractorServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer server.Close()

	extractor, err := NewChatExtractor(ClientConfig{BaseURL: server.URL + "/", APIKey: "test", Model: "gpt-4o-mini"})
	require.NoError(t, err)

	_, err = extractor.Extract(context.Background(), extract.Request{Fields: []string{"indication"}})
	require.ErrorContains(t, err, "openai: chat completion")
}

func TestNewChatExtractorRequiresModel(t *testing.T) {
	_, err := NewChatExtractor(ClientConfig{APIKey: "test"})
	require.ErrorContains(t, err, "model must not be empty")
}

func TestBuildUserPromptWithoutMacro(t *testing.T) {
	prompt := buildUserPrompt(extract.Request{Text: "plan is walk", Fields: []string{"plan"}})
	require.Equal(t, "Fields: plan\nDictation:\nplan is walk", prompt)
}
