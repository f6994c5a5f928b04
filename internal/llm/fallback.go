package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/sys3222/akshare-mcp-adapter/internal/tools"
	"github.com/sys3222/akshare-mcp-adapter/internal/upstream"
)

// stockCodePattern matches a bare A-share style 6-digit code, the common
// shape a user prompt names a symbol by.
var stockCodePattern = regexp.MustCompile(`\b\d{6}\b`)

// FallbackAnalyzer is the rule-based degraded path used when the model is
// unreachable: it regex-extracts a stock code from the prompt, calls
// fetch_market_data directly for the registry's default interface, and
// returns a templated envelope with confidence=null (§4.9).
type FallbackAnalyzer struct {
	registry *upstream.Registry
	tools    *tools.Registry
}

// NewFallbackAnalyzer builds a FallbackAnalyzer bound to the upstream
// registry (for its declared default interface) and the tool registry
// (to reuse fetch_market_data's execution path).
func NewFallbackAnalyzer(registry *upstream.Registry, toolRegistry *tools.Registry) *FallbackAnalyzer {
	return &FallbackAnalyzer{registry: registry, tools: toolRegistry}
}

// Analyze produces a degraded AnalysisEnvelope without consulting the
// model at all.
func (f *FallbackAnalyzer) Analyze(ctx context.Context, prompt, caller string) (AnalysisEnvelope, error) {
	code := stockCodePattern.FindString(prompt)

	defaultName := f.registry.Default()
	params := map[string]string{}
	if defaultName != "" {
		if iface, ok := f.registry.Get(defaultName); ok {
			for k, v := range iface.ExampleParams {
				params[k] = fmt.Sprintf("%v", v)
			}
		}
	}
	if code != "" {
		params["symbol"] = code
	}

	args, _ := json.Marshal(map[string]interface{}{
		"interface": defaultName,
		"params":    params,
	})

	summary := "degraded mode: the analysis model was unreachable, so this is a rule-based summary only."
	_, err := f.tools.Dispatch(ctx, caller, "fetch_market_data", args)
	if err != nil {
		summary = summary + fmt.Sprintf(" data fetch also failed: %s", err.Error())
	}

	return AnalysisEnvelope{
		Summary:         summary,
		Insights:        []string{},
		Recommendations: []string{},
		RiskLevel:       nil,
		Confidence:      nil,
		Raw:             "",
		Degraded:        true,
	}, nil
}
