// Package llm is a small client for the Gemini generateContent and embedding
// APIs: multi-turn history, inline file parts, automatic function calling,
// retries with exponential backoff and client-side rate limiting.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/omny/internal/config"
	"github.com/hyperjump/omny/pkg/utils"
)

const (
	defaultEndpoint = "https://generativelanguage.googleapis.com"
	defaultTimeout  = 60 * time.Second
	initialBackoff  = 1 * time.Second
	maxErrorBody    = 2048
)

// Generator produces model replies.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Request is one user turn plus the context the model needs.
type Request struct {
	Model       string
	System      string
	History     []Content
	Parts       []Part
	Tools       *Toolset
	Safety      []SafetySetting
	Temperature *float64
}

// ToolCall records a function executed during automatic function calling.
type ToolCall struct {
	Name   string
	Args   map[string]any
	Result map[string]any
}

// Response is the final reply after any function-calling rounds.
type Response struct {
	Text         string
	Model        string
	FinishReason string
	ToolCalls    []ToolCall
	Usage        Usage
	LatencyMs    int64
}

// Options configure a Client.
type Options struct {
	Endpoint          string
	APIKey            string
	Timeout           time.Duration
	MaxRetries        int
	InitialBackoff    time.Duration
	RequestsPerMinute int
}

// OptionsFromConfig maps the llm section of the config file.
func OptionsFromConfig(cfg config.LLMConfig) Options {
	return Options{
		Endpoint:          cfg.Endpoint,
		APIKey:            cfg.APIKey,
		Timeout:           cfg.Timeout,
		MaxRetries:        cfg.MaxRetries,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}
}

// Client talks to the Gemini REST API. It is safe for concurrent use.
type Client struct {
	opts     Options
	http     *http.Client
	limiter  *rate.Limiter
	observer Observer
	logger   *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithObserver sets the call observer.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = utils.OrNop(l) }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a client. A missing API key is reported by each call, not here.
func NewClient(opts Options, options ...Option) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = defaultEndpoint
	}
	opts.Endpoint = strings.TrimRight(opts.Endpoint, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = initialBackoff
	}
	c := &Client{
		opts:     opts,
		http:     &http.Client{},
		observer: NoopObserver{},
		logger:   zap.NewNop(),
	}
	if opts.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), opts.RequestsPerMinute)
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// HasAPIKey reports whether calls can be authenticated.
func (c *Client) HasAPIKey() bool {
	return c.opts.APIKey != ""
}

// Generate sends the request and runs automatic function calling until the
// model answers with text, up to MaxToolRounds tool rounds.
func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, rounds, err := c.generate(ctx, req)
	latency := time.Since(start).Milliseconds()

	event := CallEvent{
		Model:     req.Model,
		LatencyMs: latency,
		Rounds:    rounds,
		Success:   err == nil,
		ErrorCode: errorCode(err),
	}
	if resp != nil {
		resp.LatencyMs = latency
		event.ToolCalls = len(resp.ToolCalls)
		event.Usage = resp.Usage
	}
	c.observer.OnCallComplete(event)
	return resp, err
}

func (c *Client) generate(ctx context.Context, req Request) (*Response, int, error) {
	if req.Model == "" {
		return nil, 0, fmt.Errorf("model is required")
	}
	contents := make([]Content, 0, len(req.History)+1)
	contents = append(contents, req.History...)
	contents = append(contents, Content{Role: RoleUser, Parts: req.Parts})

	body := generateRequest{SafetySettings: req.Safety}
	if body.SafetySettings == nil {
		body.SafetySettings = DefaultSafetySettings()
	}
	if req.System != "" {
		body.SystemInstruction = &Content{Parts: []Part{TextPart(req.System)}}
	}
	if req.Tools.Len() > 0 {
		body.Tools = []toolDecl{{FunctionDeclarations: req.Tools.Declarations()}}
	}
	if req.Temperature != nil {
		body.GenerationConfig = &generationConfig{Temperature: req.Temperature}
	}

	out := &Response{Model: req.Model}
	path := "/v1beta/models/" + strings.TrimPrefix(req.Model, "models/") + ":generateContent"
	for round := 1; ; round++ {
		body.Contents = contents
		var gr generateResponse
		if err := c.Do(ctx, path, body, &gr); err != nil {
			return nil, round, err
		}
		out.Usage.add(gr.UsageMetadata)

		if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
			return nil, round, fmt.Errorf("%w: prompt %s", ErrBlocked, gr.PromptFeedback.BlockReason)
		}
		if len(gr.Candidates) == 0 {
			return nil, round, ErrEmptyResponse
		}
		cand := gr.Candidates[0]
		out.FinishReason = cand.FinishReason

		calls := cand.functionCalls()
		if len(calls) == 0 || req.Tools.Len() == 0 {
			text := cand.text()
			if text == "" {
				if blockedFinish(cand.FinishReason) {
					return nil, round, fmt.Errorf("%w: %s", ErrBlocked, cand.FinishReason)
				}
				return nil, round, ErrEmptyResponse
			}
			out.Text = text
			return out, round, nil
		}
		if round > MaxToolRounds {
			return nil, round, ErrToolLoop
		}

		contents = append(contents, Content{Role: RoleModel, Parts: cand.Content.Parts})
		results := make([]Part, 0, len(calls))
		for _, call := range calls {
			result, err := req.Tools.Call(ctx, call)
			if err != nil {
				c.logger.Warn("Tool call failed", zap.String("tool", call.Name), zap.Error(err))
			} else {
				c.logger.Debug("Tool call", zap.String("tool", call.Name), zap.Any("args", call.Args))
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{Name: call.Name, Args: call.Args, Result: result})
			results = append(results, Part{FunctionResponse: &FunctionResponse{Name: call.Name, Response: result}})
		}
		contents = append(contents, Content{Role: RoleUser, Parts: results})
	}
}

// Do POSTs in as JSON to path and decodes the reply into out, retrying
// transport errors, 429 and 5xx with exponential backoff. Each attempt is
// bounded by the configured timeout.
func (c *Client) Do(ctx context.Context, path string, in, out any) error {
	if c.opts.APIKey == "" {
		return ErrMissingAPIKey
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	attempts := 1 + c.opts.MaxRetries
	backoff := c.opts.InitialBackoff
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			c.logger.Warn("Retrying gemini request",
				zap.String("path", path), zap.Int("attempt", i+1), zap.Duration("backoff", backoff), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return contextError(ctx, lastErr)
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return contextError(ctx, err)
			}
		}

		lastErr = c.post(ctx, path, payload, out)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return contextError(ctx, lastErr)
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, lastErr)
}

func (c *Client) post(ctx context.Context, path string, payload []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.opts.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func contextError(ctx context.Context, cause error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, cause)
	}
	return ctx.Err()
}
