// Package gateway sends the model-facing transcript to an OpenAI-compatible
// chat completions endpoint and returns the reply and requested tool calls.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
	llmx "github.com/tanpawarit/storage-chat-agent/agent/llm"
	openrouterx "github.com/tanpawarit/storage-chat-agent/pkg/openrouter"
)

var _ contractx.Gateway = (*Gateway)(nil)

type Gateway struct {
	client      openai.Client
	temperature float64
	maxTokens   int64
	limiter     *rate.Limiter
	logger      zerolog.Logger
}

type Option func(*gatewayOptions)

type gatewayOptions struct {
	httpClient *http.Client
	logger     *zerolog.Logger
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *gatewayOptions) {
		o.httpClient = client
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *gatewayOptions) {
		o.logger = &logger
	}
}

func New(cfg llmx.Config, opts ...Option) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o gatewayOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	clientCfg := cfg.Client()
	clientCfg.HTTPClient = o.httpClient

	g := &Gateway{
		client:      openrouterx.NewClient(clientCfg),
		temperature: cfg.Temperature,
		maxTokens:   int64(cfg.MaxCompletionToken),
		logger:      log.Logger.With().Str("component", "gateway").Logger(),
	}
	if o.logger != nil {
		g.logger = *o.logger
	}
	if cfg.RequestsPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return g, nil
}

func (g *Gateway) Complete(ctx context.Context, req contractx.CompletionRequest) (contractx.Completion, error) {
	model := strings.TrimSpace(req.Credentials.Model)
	if model == "" {
		return contractx.Completion{}, contractx.ErrMissingModel
	}
	if strings.TrimSpace(req.Credentials.APIKey) == "" {
		return contractx.Completion{}, contractx.ErrMissingCredential
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return contractx.Completion{}, &contractx.GatewayError{Message: "rate limiter: " + err.Error(), Err: err}
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       model,
		Messages:    ToOpenAIMessages(req.Messages),
		Tools:       ToOpenAITools(req.Tools),
		Temperature: openai.Float(g.temperature),
		MaxTokens:   openai.Int(g.maxTokens),
	}
	if len(params.Tools) > 0 {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String("auto"),
		}
	}

	started := time.Now()
	completion, err := g.client.Chat.Completions.New(ctx, params, option.WithAPIKey(req.Credentials.APIKey))
	if err != nil {
		gwErr := toGatewayError(err)
		g.logger.Error().
			Err(err).
			Str("model", model).
			Int("status", gwErr.StatusCode).
			Dur("latency", time.Since(started)).
			Msg("chat completion failed")
		return contractx.Completion{}, gwErr
	}
	if len(completion.Choices) == 0 {
		return contractx.Completion{}, &contractx.GatewayError{Message: "provider returned no choices"}
	}

	out := FromOpenAIMessage(completion.Choices[0].Message)

	g.logger.Debug().
		Str("model", model).
		Int("messages", len(req.Messages)).
		Int("tool_calls", len(out.ToolCalls)).
		Dur("latency", time.Since(started)).
		Msg("chat completion")
	return out, nil
}

func toGatewayError(err error) *contractx.GatewayError {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return &contractx.GatewayError{StatusCode: apiErr.StatusCode, Message: msg, Err: err}
	}
	return &contractx.GatewayError{Message: err.Error(), Err: err}
}

// FromOpenAIMessage maps the provider reply. Tool calls without an id get a
// generated one so tool entries can still be correlated.
func FromOpenAIMessage(msg openai.ChatCompletionMessage) contractx.Completion {
	out := contractx.Completion{
		Text: msg.Content,
	}
	seen := make(map[string]struct{}, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		id := strings.TrimSpace(tc.ID)
		if _, dup := seen[id]; id == "" || dup {
			id = "call_" + uuid.NewString()
		}
		seen[id] = struct{}{}
		out.ToolCalls = append(out.ToolCalls, contractx.ToolCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}

func ToOpenAIMessages(messages []contractx.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case contractx.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case contractx.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case contractx.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		case contractx.RoleAssistant:
			out = append(out, toAssistantParam(m))
		}
	}
	return out
}

func toAssistantParam(m contractx.Message) openai.ChatCompletionMessageParamUnion {
	var p openai.ChatCompletionMessageParamUnion
	if m.Content != "" || !m.HasToolCalls() {
		p = openai.AssistantMessage(m.Content)
	} else {
		p = openai.ChatCompletionMessageParamUnion{
			OfAssistant: &openai.ChatCompletionAssistantMessageParam{},
		}
	}

	for _, call := range m.ToolCalls {
		p.OfAssistant.ToolCalls = append(p.OfAssistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: call.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      call.Name,
					Arguments: call.Arguments,
				},
			},
		})
	}
	return p
}

func ToOpenAITools(defs []contractx.ToolDefinition) []openai.ChatCompletionToolUnionParam {
	if len(defs) == 0 {
		return nil
	}
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(defs))
	for _, def := range defs {
		out = append(out, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        def.Name,
					Description: openai.String(def.Description),
					Parameters:  openai.FunctionParameters(def.Parameters),
				},
			},
		})
	}
	return out
}
