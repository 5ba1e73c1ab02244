package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/sengokudaikon/opendeepsearch-mcp/internal/config"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/models"
	"github.com/sengokudaikon/opendeepsearch-mcp/pkg/logger"
)

// Client talks to an OpenAI-compatible chat completions endpoint
type Client struct {
	api         openai.Client
	temperature float64
}

// NewClient creates a chat completions client. BaseURL includes the API
// version prefix, e.g. https://api.openai.com/v1.
func NewClient(cfg config.LLMConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120
	}

	opts := []option.RequestOption{
		option.WithRequestTimeout(time.Duration(cfg.Timeout) * time.Second),
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}

	return &Client{
		api:         openai.NewClient(opts...),
		temperature: cfg.Temperature,
	}
}

// Complete sends the messages to model and returns the first choice's content
func (c *Client) Complete(ctx context.Context, model string, messages []models.ChatMessage) (string, error) {
	log := logger.FromContext(ctx)

	params := openai.ChatCompletionNewParams{
		Model:       model,
		Messages:    toParams(messages),
		Temperature: openai.Float(c.temperature),
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = apiErr.Error()
			}
			return "", fmt.Errorf("llm error: status %d: %s", apiErr.StatusCode, msg)
		}
		return "", fmt.Errorf("failed to send request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}

	log.Debug("llm usage",
		zap.String("model", resp.Model),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)

	return resp.Choices[0].Message.Content, nil
}

func toParams(messages []models.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
