package webshell

import (
	"fmt"
	"strings"

	"github.com/JNC4/webshell-scanner/internal/detectors"
	"github.com/JNC4/webshell-scanner/internal/signatures"
	"github.com/JNC4/webshell-scanner/pkg/models"
)

// TaintDetector reports request input reaching an execution sink.
// Only proximity is checked: the input must appear inside the sink's
// argument list. Assignments and function boundaries are not followed.
type TaintDetector struct {
	*detectors.BaseDetector
}

// NewTaintDetector creates a new input-to-execution detector
func NewTaintDetector(tables *signatures.Tables) *TaintDetector {
	return &TaintDetector{
		BaseDetector: detectors.NewBaseDetector("taint", models.CategoryInputToEval, tables),
	}
}

// Detect reports tainted sink calls and input used directly as a callee
func (d *TaintDetector) Detect(content string, lang models.Language) []models.Detection {
	set := d.Rules(lang)
	var lines *signatures.LineIndex
	index := func() *signatures.LineIndex {
		if lines == nil {
			lines = signatures.NewLineIndex(content)
		}
		return lines
	}

	counts := make(map[string]int)
	var detections []models.Detection

	for _, c := range sinkCalls(content, set) {
		if counts[c.rule.ID] >= MaxPerRule {
			continue
		}
		args := c.args(content)
		sources := set.TaintSources.FindAll(args)
		if len(sources) == 0 {
			continue
		}
		counts[c.rule.ID]++

		description := fmt.Sprintf("%s receives %s", c.rule.Name, sources[0].Rule.Name)
		detections = append(detections, d.NewDetection(index(), c.rule.ID, description, content[c.start:c.end(content)], c.start))
	}

	for _, m := range set.TaintedCallees.FindAll(content) {
		if counts[m.Rule.ID] >= MaxPerRule {
			continue
		}
		counts[m.Rule.ID]++

		end := signatures.StatementEnd(content, m.Start, models.MaxPatternLength)
		pattern := strings.TrimRight(content[m.Start:end], "\r\n")
		detections = append(detections, d.NewDetection(index(), m.Rule.ID, describe(m.Rule), pattern, m.Start))
	}

	detectors.SortByOffset(detections)
	return detections
}
