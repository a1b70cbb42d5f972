// Package genai talks to the hosted generative providers: a chat-completions
// endpoint that turns a user request into an image prompt, and an image
// endpoint that renders that prompt.
//
// The API key is supplied per call because every user brings their own.
// Any transport error, non-2xx status, or unusable body is reported as an
// error wrapping ErrUpstream; provider error bodies stay reachable through
// errors.As as *openai.APIError or *openai.RequestError.
package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/go-image-studio/internal/observability"
)

// ErrUpstream marks every provider failure.
var ErrUpstream = errors.New("upstream service failure")

// DefaultBaseURL is the provider API root used when none is configured.
const DefaultBaseURL = "https://api.openai.com/v1"

// Config holds the provider endpoints and fixed generation parameters.
type Config struct {
	BaseURL           string
	PromptModel       string
	PromptTemperature float64
	ImageModel        string
	ImageSize         string
	ImageQuality      string
	ImageStyle        string
}

// Client calls the provider API on behalf of a user.
type Client struct {
	cfg  Config
	http *http.Client
}

// New returns a Client. A nil hc uses a client without its own timeout;
// callers bound each call through the context.
func New(cfg Config, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{cfg: cfg, http: hc}
}

// api returns a provider client authenticated with apiKey.
func (c *Client) api(apiKey string) *openai.Client {
	oc := openai.DefaultConfig(apiKey)
	oc.BaseURL = c.cfg.BaseURL
	oc.HTTPClient = c.http
	return openai.NewClientWithConfig(oc)
}

// SynthesizePrompt asks the chat model to write an image prompt for request,
// steered by the system instruction.
func (c *Client) SynthesizePrompt(ctx context.Context, apiKey, instruction, request string) (text string, err error) {
	ctx, done := c.observe(ctx, "prompt", "/chat/completions")
	defer func() { done(err) }()

	if strings.TrimSpace(apiKey) == "" {
		return "", fmt.Errorf("%w: missing API key", ErrUpstream)
	}

	resp, err := c.api(apiKey).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.PromptModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instruction},
			{Role: openai.ChatMessageRoleUser, Content: request},
		},
		Temperature: float32(c.cfg.PromptTemperature),
	})
	if err != nil {
		return "", upstream(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrUpstream)
	}
	text = strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty prompt returned", ErrUpstream)
	}
	return text, nil
}

// SynthesizeImage renders prompt and returns the URL of the single image.
func (c *Client) SynthesizeImage(ctx context.Context, apiKey, prompt string) (url string, err error) {
	ctx, done := c.observe(ctx, "image", "/images/generations")
	defer func() { done(err) }()

	if strings.TrimSpace(apiKey) == "" {
		return "", fmt.Errorf("%w: missing API key", ErrUpstream)
	}

	resp, err := c.api(apiKey).CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.cfg.ImageModel,
		N:              1,
		Quality:        c.cfg.ImageQuality,
		Size:           c.cfg.ImageSize,
		Style:          c.cfg.ImageStyle,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", upstream(err)
	}
	if len(resp.Data) == 0 || strings.TrimSpace(resp.Data[0].URL) == "" {
		return "", fmt.Errorf("%w: no image returned", ErrUpstream)
	}
	return resp.Data[0].URL, nil
}

// observe starts the span for one provider call. The returned func records
// the outcome, the latency and the provider status, then ends the span.
func (c *Client) observe(ctx context.Context, service, endpoint string) (context.Context, func(error)) {
	ctx, span := observability.Tracer().Start(ctx, "genai."+service)
	span.SetAttributes(attribute.String("genai.endpoint", endpoint))
	start := time.Now()

	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			if status := StatusCode(err); status != 0 {
				span.SetAttributes(attribute.Int("http.response.status_code", status))
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.ObserveUpstream(service, outcome, time.Since(start))
		span.End()
	}
}

// upstream wraps a provider or transport error so it matches ErrUpstream
// while keeping the original reachable.
func upstream(err error) error {
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}

// StatusCode returns the HTTP status reported by the provider for err, or 0
// when the call never got a response.
func StatusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
