package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/llms"
)

var (
	ErrMissingAPIKey = errors.New("missing API key")
	ErrEmptyResponse = errors.New("no response")
)

// LLM is an llms.Model for OpenAI-compatible proxy endpoints.
type LLM struct {
	client           *openai.Client
	model            string
	temperature      float64
	responseFormat   *openai.ChatCompletionResponseFormat
	CallbacksHandler callbacks.Handler
}

var _ llms.Model = (*LLM)(nil)

// New returns a proxy LLM.
//
// The API key comes from WithAPIKey or the GPTSAPI_API_KEY environment
// variable.
//
//	llm, err := proxy.New(
//		proxy.WithModel("gpt-4o-mini"),
//		proxy.WithTemperature(0.2),
//	)
func New(opts ...Option) (*LLM, error) {
	options := &options{
		apiKey:  getEnvOrDefault(APIKeyEnv, ""),
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.apiKey == "" {
		return nil, fmt.Errorf(`%w
You can pass it with proxy.New(proxy.WithAPIKey("{API Key}"))
or
export %s={API Key}`, ErrMissingAPIKey, APIKeyEnv)
	}

	config := openai.DefaultConfig(options.apiKey)
	config.BaseURL = strings.TrimRight(options.baseURL, "/")
	if options.httpClient != nil {
		config.HTTPClient = options.httpClient
	} else {
		config.HTTPClient = &http.Client{Timeout: options.timeout}
	}

	llm := &LLM{
		client:           openai.NewClientWithConfig(config),
		model:            options.model,
		temperature:      options.temperature,
		CallbacksHandler: options.callbacksHandler,
	}

	if s := options.responseSchema; s != nil {
		data, err := json.Marshal(s.JSONSchema())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response schema: %w", err)
		}
		llm.responseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName(s.Title()),
				Schema: json.RawMessage(data),
			},
		}
	}

	return llm, nil
}

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func schemaName(title string) string {
	name := invalidNameChars.ReplaceAllString(title, "_")
	if strings.Trim(name, "_") == "" {
		return "record"
	}
	return name
}

// Call generates a response from the LLM for the given prompt.
func (o *LLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, o, prompt, options...)
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if o.CallbacksHandler != nil {
		o.CallbacksHandler.HandleLLMGenerateContentStart(ctx, messages)
	}

	opts := &llms.CallOptions{}
	for _, opt := range options {
		opt(opts)
	}

	req := openai.ChatCompletionRequest{
		Model:          o.model,
		Messages:       toChatMessages(messages),
		Temperature:    float32(o.temperature),
		MaxTokens:      opts.MaxTokens,
		TopP:           float32(opts.TopP),
		Stop:           opts.StopWords,
		Seed:           seed(opts),
		ResponseFormat: o.responseFormat,
	}
	if opts.Model != "" {
		req.Model = opts.Model
	}
	if opts.Temperature != 0 {
		req.Temperature = float32(opts.Temperature)
	}
	if opts.JSONMode && req.ResponseFormat == nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	result, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		err = fmt.Errorf("proxy request failed: %w", err)
		if o.CallbacksHandler != nil {
			o.CallbacksHandler.HandleLLMError(ctx, err)
		}
		return nil, err
	}
	if len(result.Choices) == 0 {
		if o.CallbacksHandler != nil {
			o.CallbacksHandler.HandleLLMError(ctx, ErrEmptyResponse)
		}
		return nil, ErrEmptyResponse
	}

	resp := &llms.ContentResponse{
		Choices: make([]*llms.ContentChoice, 0, len(result.Choices)),
	}
	for _, c := range result.Choices {
		resp.Choices = append(resp.Choices, &llms.ContentChoice{
			Content:    c.Message.Content,
			StopReason: string(c.FinishReason),
			GenerationInfo: map[string]any{
				"prompt_tokens":     result.Usage.PromptTokens,
				"completion_tokens": result.Usage.CompletionTokens,
				"total_tokens":      result.Usage.TotalTokens,
			},
		})
	}

	if o.CallbacksHandler != nil {
		o.CallbacksHandler.HandleLLMGenerateContentEnd(ctx, resp)
	}

	return resp, nil
}

func seed(opts *llms.CallOptions) *int {
	if opts.Seed == 0 {
		return nil
	}
	s := opts.Seed
	return &s
}

func toChatMessages(messages []llms.MessageContent) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		var role string
		switch msg.Role {
		case llms.ChatMessageTypeSystem:
			role = openai.ChatMessageRoleSystem
		case llms.ChatMessageTypeAI:
			role = openai.ChatMessageRoleAssistant
		case llms.ChatMessageTypeTool:
			role = openai.ChatMessageRoleTool
		default:
			role = openai.ChatMessageRoleUser
		}

		var content strings.Builder
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				content.WriteString(text.Text)
			}
		}

		out = append(out, openai.ChatCompletionMessage{
			Role:    role,
			Content: content.String(),
		})
	}
	return out
}
