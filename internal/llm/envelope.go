package llm

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// AnalysisEnvelope is C9's terminal output (§3).
type AnalysisEnvelope struct {
	Summary         string   `json:"summary"`
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
	RiskLevel       *string  `json:"risk_level"`
	Confidence      *float64 `json:"confidence"`
	Raw             string   `json:"raw"`
	Degraded        bool     `json:"degraded,omitempty"`
}

var validRiskLevels = map[string]bool{"低风险": true, "中等风险": true, "高风险": true}

var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// synthesize parses the model's final prose into an AnalysisEnvelope.
// It first tries structured extraction (a fenced JSON block matching the
// envelope shape); on failure it falls back to heuristic section
// extraction keyed on the Chinese section headings (§4.9).
func synthesize(raw string) AnalysisEnvelope {
	if env, ok := parseFencedJSON(raw); ok {
		env.Raw = raw
		return env
	}
	return parseHeadingHeuristic(raw)
}

// parseFencedJSON extracts the fenced ```json ... ``` block (regexp, since
// locating the block inside surrounding model prose isn't a JSON-parsing
// concern) and validates/reads it with gjson rather than decoding into a
// struct, so a block with extra or oddly-typed fields still yields
// whatever envelope fields are present instead of failing outright.
func parseFencedJSON(raw string) (AnalysisEnvelope, bool) {
	match := fencedJSONPattern.FindStringSubmatch(raw)
	if match == nil {
		return AnalysisEnvelope{}, false
	}
	candidate := match[1]
	if !gjson.Valid(candidate) {
		return AnalysisEnvelope{}, false
	}

	parsed := gjson.Parse(candidate)
	env := AnalysisEnvelope{
		Summary: parsed.Get("summary").String(),
	}
	for _, insight := range parsed.Get("insights").Array() {
		env.Insights = append(env.Insights, insight.String())
	}
	for _, rec := range parsed.Get("recommendations").Array() {
		env.Recommendations = append(env.Recommendations, rec.String())
	}
	if conf := parsed.Get("confidence"); conf.Exists() {
		f := conf.Float()
		env.Confidence = &f
	}
	if level := parsed.Get("risk_level").String(); validRiskLevels[level] {
		env.RiskLevel = &level
	}
	return env, true
}

// chinese section headings the heuristic fallback recognizes, in the
// order they are expected to appear.
var headingMarkers = []struct {
	heading string
	assign  func(*AnalysisEnvelope, string)
}{
	{"摘要", func(e *AnalysisEnvelope, body string) { e.Summary = strings.TrimSpace(body) }},
	{"洞察", func(e *AnalysisEnvelope, body string) { e.Insights = splitLines(body) }},
	{"建议", func(e *AnalysisEnvelope, body string) { e.Recommendations = splitLines(body) }},
	{"风险", func(e *AnalysisEnvelope, body string) {
		trimmed := strings.TrimSpace(body)
		for level := range validRiskLevels {
			if strings.Contains(trimmed, level) {
				e.RiskLevel = &level
				return
			}
		}
	}},
	{"置信度", func(e *AnalysisEnvelope, body string) {
		if f, ok := extractFloat(body); ok {
			e.Confidence = &f
		}
	}},
}

func parseHeadingHeuristic(raw string) AnalysisEnvelope {
	env := AnalysisEnvelope{Raw: raw}

	sections := splitByHeadings(raw)
	for _, marker := range headingMarkers {
		if body, ok := sections[marker.heading]; ok {
			marker.assign(&env, body)
		}
	}
	if env.Summary == "" && len(sections) == 0 {
		env.Summary = strings.TrimSpace(raw)
	}
	return env
}

// splitByHeadings finds each known heading's following block of text, up
// to the next known heading or end of string.
func splitByHeadings(raw string) map[string]string {
	sections := make(map[string]string)
	type pos struct {
		heading string
		idx     int
	}
	var positions []pos
	for _, marker := range headingMarkers {
		if idx := strings.Index(raw, marker.heading); idx >= 0 {
			positions = append(positions, pos{marker.heading, idx})
		}
	}
	if len(positions) == 0 {
		return sections
	}
	for i, p := range positions {
		start := p.idx + len(p.heading)
		start = skipSeparator(raw, start)
		end := len(raw)
		if i+1 < len(positions) {
			end = positions[i+1].idx
		}
		if start < end {
			sections[p.heading] = raw[start:end]
		}
	}
	return sections
}

func skipSeparator(s string, idx int) int {
	rest := s[idx:]
	trimmed := strings.TrimLeft(rest, ":： \n\r\t")
	return idx + (len(rest) - len(trimmed))
}

func splitLines(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		trimmed = strings.TrimPrefix(trimmed, "-")
		trimmed = strings.TrimPrefix(trimmed, "•")
		trimmed = strings.TrimSpace(trimmed)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func extractFloat(body string) (float64, bool) {
	re := regexp.MustCompile(`[0-9]*\.?[0-9]+`)
	match := re.FindString(body)
	if match == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	if f > 1 {
		f = f / 100
	}
	return f, true
}
