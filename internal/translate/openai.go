package translate

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const requestTimeout = 60 * time.Second

const systemPromptFormat = `You are a professional translator for a digitalization and AI consulting company.
Translate the user's text into the language with code %q.

Rules:
1. Preserve the meaning and tone of the original.
2. Render these technical terms exactly as given:
%s
3. Keep URLs, numbers, and product names unchanged.
4. Output only the translated text, nothing else.`

// OpenAIClient implements Translator via the OpenAI chat completions API.
type OpenAIClient struct {
	client *openai.Client
	model  openai.ChatModel
}

// NewOpenAIClient creates a client authenticated with the given API key.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{
		client: &client,
		model:  openai.ChatModelGPT4oMini,
	}
}

// Translate sends one chat completion request and returns the translated text.
func (c *OpenAIClient) Translate(ctx context.Context, text, targetLang string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	system := fmt.Sprintf(systemPromptFormat, targetLang, GlossaryPromptBlock())

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}
