// Package judge provides the HTTP JSON chat-completion client the
// single-doc and pairwise evaluators call into, keyed by (provider,
// model) per spec.md §6.3. A circuit breaker per provider implements
// spec.md §7's "three consecutive auth failures or five consecutive
// rate-limit signals pauses that provider" rule.
package judge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/codeready-toolchain/acm/pkg/config"
)

// CallError classifies why a judge call failed, so callers can apply
// spec.md §7's auth/rate-limit breaker thresholds.
type CallError struct {
	Err         error
	AuthError   bool
	RateLimited bool
}

func (e *CallError) Error() string { return e.Err.Error() }
func (e *CallError) Unwrap() error { return e.Err }

// ErrProviderPaused is returned when a provider's circuit breaker is open.
var ErrProviderPaused = fmt.Errorf("judge: provider paused by circuit breaker")

// Client calls one configured judge provider/model over langchaingo's
// unified llms.Model interface, guarded by a per-provider circuit
// breaker.
type Client struct {
	name    string
	model   llms.Model
	modelID string
	breaker *providerBreaker
}

// registry holds one providerBreaker per provider so repeated failures
// against one provider don't also throttle a healthy second provider.
var (
	breakerMu sync.Mutex
	breakers  = map[string]*providerBreaker{}
)

func breakerFor(provider string) *providerBreaker {
	breakerMu.Lock()
	defer breakerMu.Unlock()
	if b, ok := breakers[provider]; ok {
		return b
	}
	b := newProviderBreaker(provider, 3, 5, 30*time.Second)
	breakers[provider] = b
	return b
}

// New constructs a Client for one configured judge entry.
func New(name string, cfg config.JudgeYAMLConfig, apiKey string) (*Client, error) {
	var model llms.Model
	var err error

	switch cfg.Provider {
	case config.JudgeProviderOpenAI:
		opts := []openai.Option{openai.WithModel(cfg.Model), openai.WithToken(apiKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)
	case config.JudgeProviderAnthropic:
		opts := []anthropic.Option{anthropic.WithModel(cfg.Model), anthropic.WithToken(apiKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		model, err = anthropic.New(opts...)
	default:
		return nil, fmt.Errorf("judge: unsupported provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("judge: construct %s client: %w", cfg.Provider, err)
	}

	return &Client{
		name:    name,
		model:   model,
		modelID: cfg.Model,
		breaker: breakerFor(string(cfg.Provider)),
	}, nil
}

// Name is the configured judge alias (distinct from the model ID).
func (c *Client) Name() string { return c.name }

// Complete sends a strict-JSON chat-completion prompt at low temperature
// and returns the raw text response. Callers are responsible for
// defensive JSON extraction (pkg/evaluator, pkg/pairwise).
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, timeout time.Duration) (string, error) {
	if c.breaker.open() {
		return "", ErrProviderPaused
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}
	resp, err := c.model.GenerateContent(callCtx, content,
		llms.WithTemperature(temperature),
		llms.WithModel(c.modelID),
	)
	if err != nil {
		callErr := classifyCallError(err)
		c.breaker.record(callErr)
		return "", callErr
	}
	if len(resp.Choices) == 0 {
		callErr := &CallError{Err: fmt.Errorf("judge %s: empty choices", c.name)}
		c.breaker.record(callErr)
		return "", callErr
	}
	c.breaker.record(nil)
	return resp.Choices[0].Content, nil
}
