// Package advisor implements the deterministic rule-based response generator
// used when no model-backed service is reachable. It maps a free-text query to
// a canned advice body plus derived insight tags via ordered keyword buckets.
//
// The generator is a stand-in for a real inference service and stays swappable
// behind the same shape: text in, body plus insights out.
package advisor

import "strings"

// Insight is a short derived annotation surfaced alongside (not inside) the
// main response text.
type Insight struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Importance  string `json:"importance"`
}

// Response is the generated advice for one query.
type Response struct {
	Body     string
	Insights []Insight
}

// Generate maps userText to a Response. It is pure and total: every input,
// including the empty string, yields a non-empty body and at least one insight.
//
// Body selection is strict first-match over the ordered buckets; insight
// extraction is independent, appending the tag of every matching bucket.
func Generate(userText string) Response {
	lower := strings.ToLower(userText)

	var resp Response
	for _, b := range buckets {
		if !b.matches(lower) {
			continue
		}

		// First matching bucket wins the body; later matches only add insights.
		if resp.Body == "" {
			resp.Body = b.body
		}
		resp.Insights = append(resp.Insights, b.insight)
	}

	if resp.Body == "" {
		resp.Body = fallbackBody
	}
	if len(resp.Insights) == 0 {
		resp.Insights = []Insight{fallbackInsight}
	}

	return resp
}

func (b bucket) matches(lower string) bool {
	for _, kw := range b.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
