package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAITransport calls the Chat Completions API directly instead of going
// through the proxy. It has no server-side session, so replies never carry a
// session id.
type OpenAITransport struct {
	client *openai.Client
	model  string
}

// NewOpenAITransport creates a direct transport. baseURL and httpClient are optional.
func NewOpenAITransport(apiKey, baseURL, model string, httpClient *http.Client) (*OpenAITransport, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai: API key must not be empty")
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		config.BaseURL = baseURL
	}
	if httpClient != nil {
		config.HTTPClient = httpClient
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAITransport{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// Send maps the request onto a chat completion
func (t *OpenAITransport) Send(ctx context.Context, req Request) (Reply, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := openai.ChatMessageRoleAssistant
		if turn.Role == "user" {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Text()})
	}
	messages = append(messages, userCompletionMessage(req))

	LogDebug("Chat completion with %s (%d messages, %d images)", t.model, len(messages), len(req.Images))

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    t.model,
		Messages: messages,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return Reply{}, &HTTPStatusError{
				StatusCode: apiErr.HTTPStatusCode,
				URL:        "chat/completions",
				Body:       apiErr.Message,
				Message:    apiErr.Message,
			}
		}
		return Reply{}, fmt.Errorf("openai: request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Reply{}, errors.New("openai: no choices in response")
	}
	return Reply{Text: resp.Choices[0].Message.Content}, nil
}

// userCompletionMessage builds the current turn. Text attachments are inlined
// after the prompt and images travel as data URLs.
func userCompletionMessage(req Request) openai.ChatCompletionMessage {
	text := req.Message
	if req.Attachment != nil && isTextual(*req.Attachment) {
		text = strings.TrimSpace(text + "\n\n[" + req.Attachment.FileName + "]\n" + string(req.Attachment.Data))
	}

	if len(req.Images) == 0 {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text}
	}

	parts := make([]openai.ChatMessagePart, 0, len(req.Images)+1)
	if text != "" {
		parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: text})
	}
	for _, img := range req.Images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    DataURL(img.MimeType, img.Data),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts}
}

func isTextual(part WirePart) bool {
	if strings.HasPrefix(part.MimeType, "text/") {
		return true
	}
	switch part.MimeType {
	case "application/json", "application/xml", "application/yaml", "application/toml":
		return true
	}
	return part.MimeType == "" && utf8.Valid(part.Data)
}
