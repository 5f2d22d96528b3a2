package inference

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/rbright/dictum/internal/extract"
)

const extractionPrompt = `You fill clinical note templates from dictation.
Return only a JSON object of the form {"fields": {"<field>": {"value": "<text>", "confidence": <0..1>}}}.
Include only the requested fields you can support from the dictation. Never invent values.`

// ClientConfig holds connection settings shared by the OpenAI-compatible
// collaborators.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

func newOpenAIClient(cfg ClientConfig) oai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	return oai.NewClient(opts...)
}

// ChatExtractor asks a chat model for field values.
type ChatExtractor struct {
	client oai.Client
	model  string
}

// NewChatExtractor builds an extractor for an OpenAI-compatible endpoint.
func NewChatExtractor(cfg ClientConfig) (*ChatExtractor, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("openai extraction: model must not be empty")
	}
	return &ChatExtractor{client: newOpenAIClient(cfg), model: cfg.Model}, nil
}

// Extract implements extract.Primary.
func (c *ChatExtractor) Extract(ctx context.Context, req extract.Request) (map[string]extract.Candidate, error) {
	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(extractionPrompt),
			oai.UserMessage(buildUserPrompt(req)),
		},
		ResponseFormat: oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: empty choices in response")
	}
	return ParseFieldsJSON(resp.Choices[0].Message.Content)
}

func buildUserPrompt(req extract.Request) string {
	var b strings.Builder
	if req.MacroKey != "" {
		fmt.Fprintf(&b, "Template: %s\n", req.MacroKey)
	}
	fmt.Fprintf(&b, "Fields: %s\n", strings.Join(req.Fields, ", "))
	b.WriteString("Dictation:\n")
	b.WriteString(req.Text)
	return b.String()
}
