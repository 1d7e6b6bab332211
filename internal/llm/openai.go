package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIClient calls the OpenAI Chat Completions API with text and image parts.
type OpenAIClient struct {
	model     openai.ChatModel
	maxTokens int64
	client    *openai.Client
}

const (
	defaultChatTimeout     = 60 * time.Second
	defaultChatTemperature = 0.7
	defaultMaxTokens       = 1000
)

const improvePrompt = `You review a single presentation slide. You receive its text and the pictures placed on it.
Suggest concrete improvements to wording, structure and visual balance. Keep the answer short and actionable.`

const citationsPrompt = `You review a single presentation slide for missing citations.
Identify figures, tables, charts and factual claims that need a source. For each one, state what is missing
and propose a reference in APA format. Reply "No citations needed." when nothing needs a source.`

// NewOpenAIClient builds a client with defaults against api.openai.com.
func NewOpenAIClient(apiKey string, model openai.ChatModel, maxTokens int64, opts ...option.RequestOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = openai.ChatModelGPT4o
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	cli := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIClient{
		model:     model,
		maxTokens: maxTokens,
		client:    &cli,
	}, nil
}

func (c *OpenAIClient) Model() string { return string(c.model) }

func (c *OpenAIClient) Suggest(ctx context.Context, p Prompt) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("nil openai client")
	}
	reqCtx, cancel := context.WithTimeout(ctx, defaultChatTimeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Model:               c.model,
		Messages:            buildMessages(systemPrompt(p.Mode), p),
		MaxCompletionTokens: openai.Int(c.maxTokens),
		Temperature:         openai.Float(defaultChatTemperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func systemPrompt(mode Mode) string {
	if mode == ModeCitations {
		return citationsPrompt
	}
	return improvePrompt
}

func buildMessages(system string, p Prompt) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(system),
		openai.UserMessage(userParts(p)),
	}
}

func userParts(p Prompt) []openai.ChatCompletionContentPartUnionParam {
	text := strings.TrimSpace(p.Text)
	if text == "" {
		text = "(the slide has no text)"
	}
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(p.Images)+1)
	parts = append(parts, openai.TextContentPart("Slide text:\n"+text))
	for _, img := range p.Images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL:    "data:image/png;base64," + img,
			Detail: "high",
		}))
	}
	return parts
}
