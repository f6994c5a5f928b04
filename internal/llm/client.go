// Package llm implements the LLM tool-dispatch loop (C9): it drives a
// model↔tool exchange to a bounded depth and synthesizes a structured
// AnalysisEnvelope, degrading to a rule-based fallback analyzer when the
// model is unreachable.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
	"github.com/sys3222/akshare-mcp-adapter/internal/resilience"
	"github.com/sys3222/akshare-mcp-adapter/internal/tools"
)

// breakerKey names the one circuit breaker C9 keeps in the shared
// resilience.Registry: unlike C4, which breaks per upstream interface,
// there is exactly one LLM endpoint to protect.
const breakerKey = "llm-endpoint"

// retryConfig matches C4's backoff shape with a shorter attempt budget:
// the dispatcher has its own wall-clock ceiling (MaxWall) and a slow
// per-attempt retry loop would eat into it fast.
func retryConfig() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = 2
	cfg.Retryable = func(err error) bool {
		return errors.Is(err, errors.KindModelUnreachable)
	}
	return cfg
}

// Message is one turn in the model conversation.
type Message struct {
	Role       string     `json:"role"` // "system", "user", "assistant", "tool"
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is one model-emitted tool invocation.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Request is sent to the model endpoint each turn.
type Request struct {
	Model    string              `json:"model"`
	Messages []Message           `json:"messages"`
	Tools    []tools.Descriptor  `json:"tools,omitempty"`
}

// Response is the model's reply: either a tool-call batch or final prose.
type Response struct {
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason"`
}

// Client talks to the configured LLM HTTP endpoint through the same
// httputil-built client and resilience.Registry breaker C4 uses for
// upstream calls, so one misbehaving model endpoint degrades the same way
// one misbehaving upstream interface does.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
	breakers *resilience.Registry
}

// NewClient builds a Client bound to endpoint/apiKey/model, using
// httpClient for outbound calls and breakers for circuit breaking around
// the endpoint.
func NewClient(endpoint, apiKey, model string, httpClient *http.Client, breakers *resilience.Registry) *Client {
	return &Client{endpoint: endpoint, apiKey: apiKey, model: model, http: httpClient, breakers: breakers}
}

// Generate sends one turn to the model and returns its reply, retrying
// transient failures behind the shared circuit breaker.
func (c *Client) Generate(ctx context.Context, messages []Message, toolDescs []tools.Descriptor) (*Response, error) {
	reqBody := Request{Model: c.model, Messages: messages, Tools: toolDescs}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Internal("failed to encode LLM request", err)
	}

	breaker := c.breakers.Get(breakerKey)

	var out Response
	err = breaker.Execute(ctx, func() error {
		return resilience.Retry(ctx, retryConfig(), func() error {
			resp, rerr := c.doRequest(ctx, payload)
			if rerr != nil {
				return rerr
			}
			out = *resp
			return nil
		})
	})
	if err != nil {
		if svcErr, ok := err.(*errors.ServiceError); ok {
			return nil, svcErr
		}
		return nil, errors.ModelUnreachable("LLM endpoint unreachable", err)
	}
	return &out, nil
}

func (c *Client) doRequest(ctx context.Context, payload []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.ModelUnreachable("failed to build LLM request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.ModelUnreachable("LLM endpoint unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, errors.ModelUnreachable(fmt.Sprintf("LLM endpoint returned status %d", resp.StatusCode), nil)
	}
	if resp.StatusCode >= 400 {
		return nil, errors.UpstreamError(fmt.Sprintf("LLM endpoint rejected request with status %d", resp.StatusCode), nil)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.ParseError("failed to parse LLM response", err)
	}
	return &out, nil
}

// defaultTimeout equals the LLM_REQUEST_TIMEOUT default. Generate does
// not read it: the per-request bound applied is the Timeout of the
// http.Client passed to NewClient.
const defaultTimeout = 20 * time.Second
