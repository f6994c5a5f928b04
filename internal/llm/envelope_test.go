package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeParsesFencedJSON(t *testing.T) {
	raw := "Here is my analysis:\n```json\n{\"summary\":\"looks good\",\"insights\":[\"a\"],\"recommendations\":[\"b\"],\"risk_level\":\"中等风险\",\"confidence\":0.8}\n```\n"
	env := synthesize(raw)

	assert.Equal(t, "looks good", env.Summary)
	assert.Equal(t, []string{"a"}, env.Insights)
	require.NotNil(t, env.RiskLevel)
	assert.Equal(t, "中等风险", *env.RiskLevel)
	require.NotNil(t, env.Confidence)
	assert.Equal(t, 0.8, *env.Confidence)
}

func TestSynthesizeFallsBackToHeadingHeuristic(t *testing.T) {
	raw := "摘要: 市场整体平稳\n洞察:\n- 成交量上升\n- 波动率下降\n建议:\n- 关注成交量\n风险: 中等风险\n置信度: 0.75"
	env := synthesize(raw)

	assert.Contains(t, env.Summary, "市场整体平稳")
	assert.Equal(t, []string{"成交量上升", "波动率下降"}, env.Insights)
	assert.Equal(t, []string{"关注成交量"}, env.Recommendations)
	require.NotNil(t, env.RiskLevel)
	assert.Equal(t, "中等风险", *env.RiskLevel)
	require.NotNil(t, env.Confidence)
	assert.InDelta(t, 0.75, *env.Confidence, 0.01)
}

func TestSynthesizePlainProseBecomesSummary(t *testing.T) {
	env := synthesize("just a plain sentence with no structure")
	assert.Equal(t, "just a plain sentence with no structure", env.Summary)
	assert.Nil(t, env.RiskLevel)
	assert.Nil(t, env.Confidence)
}
