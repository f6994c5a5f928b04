package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
	"github.com/sys3222/akshare-mcp-adapter/internal/tools"
)

// state is the dispatcher's internal state machine position (§4.9).
type state int

const (
	stateAwaitingModel state = iota
	stateExecutingTools
	stateSynthesizing
	stateDone
	stateDegraded
)

// DispatcherConfig bounds one analyze() call's turn/time budget.
type DispatcherConfig struct {
	MaxTurns int
	MaxWall  time.Duration
}

// DefaultDispatcherConfig matches spec.md §4.9: N_max=6, T_llm=60s.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{MaxTurns: 6, MaxWall: 60 * time.Second}
}

// generator is the model-calling surface the dispatcher drives; *Client
// satisfies it, and tests substitute a fake to avoid real HTTP calls.
type generator interface {
	Generate(ctx context.Context, messages []Message, toolDescs []tools.Descriptor) (*Response, error)
}

// Dispatcher drives the model↔tool exchange to a bounded depth and
// synthesizes a structured AnalysisEnvelope.
type Dispatcher struct {
	client   generator
	registry *tools.Registry
	cfg      DispatcherConfig
	audit    *zap.Logger
	fallback *FallbackAnalyzer
}

// NewDispatcher wires a Dispatcher from its collaborators. audit is a
// dedicated structured logger for the tool-dispatch state machine,
// distinct from the request-facing gateway logger.
func NewDispatcher(client generator, registry *tools.Registry, cfg DispatcherConfig, audit *zap.Logger, fallback *FallbackAnalyzer) *Dispatcher {
	return &Dispatcher{client: client, registry: registry, cfg: cfg, audit: audit, fallback: fallback}
}

const systemPreamble = "You are a financial-data analysis assistant. Use the provided tools to fetch data before answering. Respond with a final answer containing a summary, insights, recommendations, a risk level, and a confidence score."

// Analyze implements C9's contract: analyze(prompt, caller) -> AnalysisEnvelope.
// forceFallback lets callers explicitly request the degraded rule-based
// path (§4.9's "callers can explicitly request this mode via a flag").
func (d *Dispatcher) Analyze(ctx context.Context, prompt, caller string, forceFallback bool) (AnalysisEnvelope, error) {
	d.audit.Info("analyze started", zap.String("caller", caller), zap.Bool("force_fallback", forceFallback))

	if forceFallback {
		return d.runFallback(ctx, prompt, caller, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.MaxWall)
	defer cancel()

	history := []Message{
		{Role: "system", Content: d.systemContext()},
		{Role: "user", Content: prompt},
	}

	var lastErr error
	for turn := 0; turn < d.cfg.MaxTurns; turn++ {
		if ctx.Err() != nil {
			d.audit.Warn("analyze wall-clock budget exhausted", zap.String("caller", caller), zap.Int("turn", turn))
			return d.runFallback(ctx, prompt, caller, lastErr)
		}

		resp, err := d.client.Generate(ctx, history, d.registry.Descriptors())
		if err != nil {
			d.audit.Warn("model unreachable", zap.String("caller", caller), zap.Error(err))
			if errors.Is(err, errors.KindModelUnreachable) {
				return d.runFallback(ctx, prompt, caller, err)
			}
			lastErr = err
			return d.runFallback(ctx, prompt, caller, err)
		}

		if len(resp.ToolCalls) == 0 {
			d.audit.Info("analyze produced final answer", zap.String("caller", caller), zap.Int("turn", turn))
			env := synthesize(resp.Content)
			return env, nil
		}

		history = append(history, Message{Role: "assistant", Content: resp.Content, ToolCalls: resp.ToolCalls})
		results := d.dispatchToolCalls(ctx, caller, resp.ToolCalls)
		history = append(history, results...)
	}

	d.audit.Warn("analyze reached max turns without a final answer", zap.String("caller", caller))
	return d.runFallback(ctx, prompt, caller, fmt.Errorf("reached maximum turn count without a final answer"))
}

// dispatchToolCalls executes a model-emitted batch. Calls may run in
// parallel, but the appended history entries are ordered deterministically
// by emission index (§5).
func (d *Dispatcher) dispatchToolCalls(ctx context.Context, caller string, calls []ToolCall) []Message {
	results := make([]Message, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call ToolCall) {
			defer wg.Done()
			results[i] = d.executeOne(ctx, caller, call)
		}(i, call)
	}
	wg.Wait()
	return results
}

func (d *Dispatcher) executeOne(ctx context.Context, caller string, call ToolCall) Message {
	out, err := d.registry.Dispatch(ctx, caller, call.Name, call.Arguments)
	if err != nil {
		d.audit.Warn("tool call failed", zap.String("caller", caller), zap.String("tool", call.Name), zap.Error(err))
		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		return Message{Role: "tool", ToolCallID: call.ID, Name: call.Name, Content: string(payload)}
	}

	payload, merr := json.Marshal(out)
	if merr != nil {
		payload = []byte(`{"error":"failed to encode tool result"}`)
	}
	d.audit.Info("tool call executed", zap.String("caller", caller), zap.String("tool", call.Name))
	return Message{Role: "tool", ToolCallID: call.ID, Name: call.Name, Content: string(payload)}
}

func (d *Dispatcher) systemContext() string {
	descs, err := json.Marshal(d.registry.Descriptors())
	if err != nil {
		return systemPreamble
	}
	return systemPreamble + "\nAvailable tools:\n" + string(descs)
}

// runFallback degrades to the rule-based analyzer (§4.9's fallback path),
// surfacing the original error only if the fallback itself fails.
func (d *Dispatcher) runFallback(ctx context.Context, prompt, caller string, cause error) (AnalysisEnvelope, error) {
	env, err := d.fallback.Analyze(ctx, prompt, caller)
	if err != nil {
		if cause != nil {
			return AnalysisEnvelope{}, errors.ModelUnreachable("model unreachable and fallback analyzer failed", cause)
		}
		return AnalysisEnvelope{}, err
	}
	return env, nil
}
