package connectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/flowdeck/flowdeck/pkg/domain"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sashabaranov/go-openai"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

type CompletionConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
}

// NewCompletionService builds the completion collaborator for the configured
// provider. Unknown providers are rejected at startup rather than at run time.
func NewCompletionService(cfg CompletionConfig) (domain.CompletionService, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAICompletionService(cfg.APIKey, cfg.Model), nil
	case ProviderAnthropic:
		return NewAnthropicCompletionService(cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}

// OpenAICompletionService implements domain.CompletionService over the
// OpenAI chat completion API.
type OpenAICompletionService struct {
	client *openai.Client
	model  string
}

func NewOpenAICompletionService(apiKey, model string) *OpenAICompletionService {
	if model == "" {
		model = openai.GPT4o
	}

	return &OpenAICompletionService{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (s *OpenAICompletionService) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)

	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserPrompt,
	})

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return domain.CompletionResult{}, fmt.Errorf("openai returned no choices")
	}

	return domain.CompletionResult{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// AnthropicCompletionService implements domain.CompletionService over the
// Anthropic messages API.
type AnthropicCompletionService struct {
	client anthropic.Client
	model  string
}

func NewAnthropicCompletionService(apiKey, model string) *AnthropicCompletionService {
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_0)
	}

	return &AnthropicCompletionService{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (s *AnthropicCompletionService) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	msgReq := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	}

	if req.SystemPrompt != "" {
		msgReq.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	if req.Temperature > 0 {
		msgReq.Temperature = anthropic.Float(float64(req.Temperature))
	}

	resp, err := s.client.Messages.New(ctx, msgReq)
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("anthropic api error: %w", err)
	}

	var text strings.Builder

	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return domain.CompletionResult{
		Text:             text.String(),
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}, nil
}
