package llm

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sys3222/akshare-mcp-adapter/internal/tools"
	"github.com/sys3222/akshare-mcp-adapter/internal/upstream"
)

type fakeGenerator struct {
	responses []*Response
	calls     int
}

func (f *fakeGenerator) Generate(ctx context.Context, messages []Message, toolDescs []tools.Descriptor) (*Response, error) {
	i := f.calls
	f.calls++
	if i >= len(f.responses) {
		return f.responses[len(f.responses)-1], nil
	}
	return f.responses[i], nil
}

func emptyRegistries(t *testing.T) (*tools.Registry, *upstream.Registry) {
	t.Helper()
	return tools.NewRegistry(), &upstream.Registry{}
}

func TestAnalyzeReturnsFinalAnswerWithoutToolCalls(t *testing.T) {
	toolReg, upReg := emptyRegistries(t)
	fallback := NewFallbackAnalyzer(upReg, toolReg)
	gen := &fakeGenerator{responses: []*Response{
		{Content: "摘要: 一切正常", FinishReason: "stop"},
	}}
	d := NewDispatcher(gen, toolReg, DefaultDispatcherConfig(), zap.NewNop(), fallback)

	env, err := d.Analyze(context.Background(), "how is the market", "alice", false)
	require.NoError(t, err)
	assert.Contains(t, env.Summary, "一切正常")
	assert.Equal(t, 1, gen.calls)
}

func TestAnalyzeRespectsMaxTurnsBound(t *testing.T) {
	toolReg, upReg := emptyRegistries(t)
	toolReg.Register(tools.Tool{
		Descriptor: tools.Descriptor{Name: "describe_interfaces"},
		Handler: func(ctx context.Context, caller string, args json.RawMessage) (interface{}, error) {
			return nil, nil
		},
	})
	fallback := NewFallbackAnalyzer(upReg, toolReg)

	loopingCall := ToolCall{ID: "1", Name: "describe_interfaces", Arguments: []byte(`{}`)}
	responses := make([]*Response, 0)
	for i := 0; i < 20; i++ {
		responses = append(responses, &Response{ToolCalls: []ToolCall{loopingCall}})
	}
	gen := &fakeGenerator{responses: responses}

	cfg := DispatcherConfig{MaxTurns: 3, MaxWall: time.Second}
	d := NewDispatcher(gen, toolReg, cfg, zap.NewNop(), fallback)

	env, err := d.Analyze(context.Background(), "symbol 600000", "alice", false)
	require.NoError(t, err)
	assert.True(t, env.Degraded)
	assert.LessOrEqual(t, gen.calls, cfg.MaxTurns)
}

func TestAnalyzeForcedFallbackSkipsModel(t *testing.T) {
	toolReg, upReg := emptyRegistries(t)
	fallback := NewFallbackAnalyzer(upReg, toolReg)
	gen := &fakeGenerator{responses: []*Response{{Content: "should not be called"}}}
	d := NewDispatcher(gen, toolReg, DefaultDispatcherConfig(), zap.NewNop(), fallback)

	env, err := d.Analyze(context.Background(), "symbol 600000", "alice", true)
	require.NoError(t, err)
	assert.True(t, env.Degraded)
	assert.Equal(t, 0, gen.calls)
}
