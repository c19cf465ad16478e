package runner

import (
	"bytes"
	"text/template"

	"github.com/memorybench/harness/model"
)

// renderAnswerTemplate renders a benchmark config's answer_prompt_template
// against item/retrieved, falling back to the literal template string on a
// parse/exec error so a typo in a config-supplied template never crashes a
// run, matching pack.renderTemplate's fallback behavior for the unsealed
// (config-owned) prompt path.
func renderAnswerTemplate(tmpl string, item model.BenchmarkItem, retrieved []model.SearchResult) string {
	t, err := template.New("answer").Parse(tmpl)
	if err != nil {
		return tmpl
	}
	var buf bytes.Buffer
	data := struct {
		Contexts []model.SearchResult
		Question string
	}{Contexts: retrieved, Question: item.Question}
	if err := t.Execute(&buf, data); err != nil {
		return tmpl
	}
	return buf.String()
}
