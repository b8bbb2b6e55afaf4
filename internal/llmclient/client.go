// Package llmclient implements the LLM Client (spec.md §4.10), grounded
// on the teacher's internal/llm/openaiadapter (the OpenAI
// chat-completions wire shape), pointed at a LiteLLM-compatible gateway
// via LITE_LLM_API_BASE/LITE_LLM_API_KEY instead of the OpenAI-hosted
// endpoint — LiteLLM gateways speak the same chat-completions protocol,
// so no separate wire format is needed.
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared"
	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/manishiitg/agentctl/internal/xlog"
)

// Message is one chat turn in the conversation handed to the model.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Response is the model's reply plus usage accounting.
type Response struct {
	Text      string
	TokensIn  int
	TokensOut int
}

// Client calls the configured LLM gateway and accumulates token counters.
type Client struct {
	sdk         openai.Client
	model       string
	temperature float64
	logger      xlog.Logger
	maxRetries  int

	tokensIn  atomic.Int64
	tokensOut atomic.Int64
}

// New builds a Client pointed at apiBase using apiKey, matching the
// teacher's openai.NewClient(option.WithAPIKey(...)) construction with an
// added WithBaseURL for the gateway endpoint.
func New(model string, temperature float64, apiKey, apiBase string, logger xlog.Logger) *Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if apiBase != "" {
		opts = append(opts, option.WithBaseURL(apiBase))
	}
	return &Client{
		sdk:         openai.NewClient(opts...),
		model:       model,
		temperature: temperature,
		logger:      logger,
		maxRetries:  3,
	}
}

// Call sends messages to the model and returns its text reply. Transient
// errors (network, 5xx, rate-limit) are retried with exponential
// backoff starting at 500ms, doubling, capped at 8s, jittered ±20%
// (spec.md §9 decision).
func (c *Client) Call(ctx context.Context, messages []Message) (Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    toOpenAIMessages(messages),
		Temperature: param.NewOpt(c.temperature),
	}

	var lastErr error
	backoff := 500 * time.Millisecond
	const maxBackoff = 8 * time.Second

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		completion, err := c.sdk.Chat.Completions.New(ctx, params)
		if err == nil {
			return c.toResponse(completion, messages), nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == c.maxRetries-1 {
			break
		}
		c.logger.Warnf("llm call attempt %d/%d failed, retrying: %v", attempt+1, c.maxRetries, err)

		jitter := time.Duration(float64(backoff) * (0.8 + 0.4*rand.Float64()))
		select {
		case <-time.After(jitter):
		case <-ctx.Done():
			return Response{}, ctx.Err()
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return Response{}, fmt.Errorf("LLMError: %w", lastErr)
}

func (c *Client) toResponse(completion *openai.ChatCompletion, messages []Message) Response {
	text := ""
	if len(completion.Choices) > 0 {
		text = completion.Choices[0].Message.Content
	}

	tokensIn := int(completion.Usage.PromptTokens)
	tokensOut := int(completion.Usage.CompletionTokens)
	if tokensIn == 0 && tokensOut == 0 {
		tokensIn = estimateTokens(renderPrompt(messages))
		tokensOut = estimateTokens(text)
	}

	c.tokensIn.Add(int64(tokensIn))
	c.tokensOut.Add(int64(tokensOut))

	return Response{Text: text, TokensIn: tokensIn, TokensOut: tokensOut}
}

// TotalTokens returns the accumulated input/output token counters.
func (c *Client) TotalTokens() (in, out int) {
	return int(c.tokensIn.Load()), int(c.tokensOut.Load())
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
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

func renderPrompt(messages []Message) string {
	out := ""
	for _, m := range messages {
		out += m.Role + ": " + m.Content + "\n"
	}
	return out
}

// estimateTokens falls back to a cl100k_base tiktoken estimate when the
// gateway response omits usage accounting (spec.md §4.10 expansion).
func estimateTokens(text string) int {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

func isRetryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	// Network-level errors (no structured API error) are treated as
	// transient and retried.
	return true
}
