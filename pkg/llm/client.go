package llm

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/moodqueue/moodqueue/pkg/config"
	"github.com/moodqueue/moodqueue/pkg/models"
)

// ChatClient sends one prompt exchange to the language model and returns the
// raw text of the first choice. Stateless; no automatic retries.
type ChatClient interface {
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// OpenAIClient is the production ChatClient over the OpenAI chat-completions
// API, with a fixed request timeout on the underlying HTTP client.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	log         *zap.Logger
}

func NewOpenAIClient(cfg *config.Config, log *zap.Logger) *OpenAIClient {
	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.LLMTimeout}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.OpenAIModel,
		maxTokens:   cfg.LLMMaxTokens,
		temperature: float32(cfg.LLMTemperature),
		log:         log,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	request := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, message := range messages {
		request.Messages = append(request.Messages, openai.ChatCompletionMessage{
			Role:    toOpenAIRole(message.Role),
			Content: message.Content,
		})
	}

	response, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	c.log.Debug("chat completion finished",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", response.Usage.PromptTokens),
		zap.Int("completion_tokens", response.Usage.CompletionTokens))

	return response.Choices[0].Message.Content, nil
}

func toOpenAIRole(role string) string {
	switch role {
	case "assistant":
		return openai.ChatMessageRoleAssistant
	case "system":
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}
