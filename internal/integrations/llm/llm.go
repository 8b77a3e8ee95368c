package llm

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/GoMudEngine/npcchat/internal/configs"
	"github.com/GoMudEngine/npcchat/internal/conversations"
	"github.com/GoMudEngine/npcchat/internal/mudlog"
)

const (
	DefaultFallbackText = `I'm having trouble responding right now.`

	MaxTokens   = 256
	Temperature = 0.7

	requestQueueSize = 64
	maxLoggedBody    = 500
)

// Client talks to an OpenAI compatible endpoint.
// Every request runs on the client's own worker pool, never on the caller's goroutine.
type Client struct {
	settings *configs.Settings
	fallback func() string
	pool     *workerPool
	tokens   *TokenTracker

	httpLock    sync.Mutex
	httpClient  *http.Client
	httpTimeout time.Duration

	waitMutex sync.RWMutex
	waitUntil time.Time
}

type Option func(*Client)

// WithFallbackText replaces the text used whenever a reply can't be obtained.
func WithFallbackText(text string) Option {
	return WithFallbackSource(func() string { return text })
}

// WithFallbackSource looks the fallback text up on every use.
func WithFallbackSource(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.fallback = fn
		}
	}
}

func NewClient(settings *configs.Settings, opts ...Option) *Client {
	c := &Client{
		settings: settings,
		fallback: func() string { return DefaultFallbackText },
		tokens:   NewTokenTracker(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.pool = newWorkerPool(int(settings.Get().Workers), requestQueueSize)
	settings.OnReload(c.warnWorkersChanged)

	mudlog.Info("LLM", "info", "client initialized", "workers", settings.Get().Workers)

	return c
}

// Workers is how many requests can be in flight. It is fixed when the client is created.
func (c *Client) Workers() int {
	return c.pool.size
}

func (c *Client) warnWorkersChanged(cfg configs.LLMChat) {
	if int(cfg.Workers) != c.pool.size {
		mudlog.Warn("LLM", "info", "Workers only changes on restart", "running", c.pool.size, "configured", cfg.Workers)
	}
}

// FallbackText is what every failed request resolves to
func (c *Client) FallbackText() string {
	if text := c.fallback(); strings.TrimSpace(text) != `` {
		return text
	}
	return DefaultFallbackText
}

func (c *Client) TokenUsage() map[string]TokenUsage {
	return c.tokens.Snapshot()
}

// Shutdown stops accepting requests and waits for queued ones until ctx ends.
func (c *Client) Shutdown(ctx context.Context) error {
	err := c.pool.Stop(ctx)

	c.httpLock.Lock()
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
	c.httpLock.Unlock()

	return err
}

// DetectModel asks the endpoint which models it serves and remembers the first one.
// It returns immediately. Failures are logged and leave the settings untouched.
// The only error returned is a failure to queue the request.
func (c *Client) DetectModel() error {
	return c.pool.Submit(c.detectModel)
}

func (c *Client) detectModel() {
	cfg := c.settings.Get()

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.RequestTimeout())
	defer cancel()

	list, err := c.api(cfg).ListModels(ctx)
	if err != nil {
		mudlog.Warn("LLM", "detect", "model detection failed", "endpoint", cfg.EndpointURL, "error", describeError(err))
		return
	}

	if len(list.Models) == 0 || strings.TrimSpace(list.Models[0].ID) == `` {
		mudlog.Warn("LLM", "detect", "endpoint listed no models", "endpoint", cfg.EndpointURL)
		return
	}

	// A reload may have pointed us somewhere else while we waited
	if c.settings.Get().EndpointURL != cfg.EndpointURL {
		mudlog.Info("LLM", "detect", "endpoint changed during detection, discarding", "model", list.Models[0].ID)
		return
	}

	c.settings.SetDetectedModel(list.Models[0].ID)
	mudlog.Info("LLM", "detect", "model detected", "model", list.Models[0].ID)
}

// SendChatRequest queues a chat completion. done is called exactly once from a worker
// goroutine, with either the assistant's text or the fallback text.
// An error means the request was never queued and done will not be called.
func (c *Client) SendChatRequest(messages []conversations.ChatMessage, done func(reply string)) error {
	return c.pool.Submit(func() {
		done(c.complete(messages))
	})
}

func (c *Client) complete(messages []conversations.ChatMessage) (reply string) {

	defer func() {
		if r := recover(); r != nil {
			mudlog.Error("LLM", "error", "panic during chat completion", "panic", fmt.Sprint(r))
			reply = c.FallbackText()
		}
	}()

	if c.isRequestBackoff() {
		mudlog.Warn("LLM", "info", "LLM service is in backoff")
		return c.FallbackText()
	}

	cfg := c.settings.Get()
	model := c.settings.EffectiveModel()

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(messages),
		MaxTokens:   MaxTokens,
		Temperature: Temperature,
	}

	mudlog.Debug("LLM", "request", "sending chat completion", "model", model, "messages", len(messages))

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.RequestTimeout())
	defer cancel()

	start := time.Now()

	resp, err := c.api(cfg).CreateChatCompletion(ctx, req)
	if err != nil {
		mudlog.Error("LLM", "error", "chat completion failed", "model", model, "error", describeError(err))
		c.doRequestBackoff(cfg)
		return c.FallbackText()
	}

	if len(resp.Choices) == 0 {
		mudlog.Error("LLM", "error", "no choices in response", "model", model)
		c.doRequestBackoff(cfg)
		return c.FallbackText()
	}

	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == `` {
		mudlog.Error("LLM", "error", "empty content in response", "model", model)
		c.doRequestBackoff(cfg)
		return c.FallbackText()
	}

	inputTokens, outputTokens := resp.Usage.PromptTokens, resp.Usage.CompletionTokens
	if resp.Usage.TotalTokens == 0 {
		for _, m := range messages {
			inputTokens += EstimateTokenCount(m.Content)
		}
		outputTokens = EstimateTokenCount(text)
	}
	c.tokens.RecordTokenUsage(model, inputTokens, outputTokens)

	mudlog.Info("LLM", "response", "received reply", "model", model, "duration", time.Since(start))

	return text
}

func (c *Client) api(cfg configs.LLMChat) *openai.Client {
	oc := openai.DefaultConfig(string(cfg.APIKey))
	oc.BaseURL = string(cfg.EndpointURL)
	oc.HTTPClient = c.httpClientFor(cfg.RequestTimeout())
	return openai.NewClientWithConfig(oc)
}

// httpClientFor reuses one transport for as long as the timeout doesn't change.
func (c *Client) httpClientFor(timeout time.Duration) *http.Client {
	c.httpLock.Lock()
	defer c.httpLock.Unlock()

	if c.httpClient != nil && c.httpTimeout == timeout {
		return c.httpClient
	}

	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}

	c.httpTimeout = timeout
	c.httpClient = &http.Client{
		Transport: statusCheck{next: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       90 * time.Second,
		}},
	}

	return c.httpClient
}

// StatusError is returned for any response other than 200 OK, including other 2xx codes.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf(`status %d: %s`, e.StatusCode, e.Body)
}

// statusCheck fails every round trip that doesn't come back 200 OK
type statusCheck struct {
	next http.RoundTripper
}

func (s statusCheck) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := s.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
	resp.Body.Close()

	return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
}

func (s statusCheck) CloseIdleConnections() {
	if t, ok := s.next.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
}

func toOpenAIMessages(messages []conversations.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}

// describeError pulls the status code and body out of API errors for the log.
func describeError(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf(`status %d: %s`, apiErr.HTTPStatusCode, truncate(apiErr.Message, maxLoggedBody))
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return truncate(statusErr.Error(), maxLoggedBody)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Sprintf(`status %d: %v`, reqErr.HTTPStatusCode, reqErr.Err)
	}

	return truncate(err.Error(), maxLoggedBody)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + `...`
}

// Returns true if requests are in a penalty box
func (c *Client) isRequestBackoff() bool {
	c.waitMutex.RLock()
	defer c.waitMutex.RUnlock()
	return c.waitUntil.After(time.Now())
}

// Sets a time for requests to resume
func (c *Client) doRequestBackoff(cfg configs.LLMChat) {
	if cfg.FailureBackoffSeconds <= 0 {
		return
	}
	c.waitMutex.Lock()
	c.waitUntil = time.Now().Add(time.Duration(cfg.FailureBackoffSeconds) * time.Second)
	c.waitMutex.Unlock()
}
