package webshell

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/JNC4/webshell-scanner/internal/detectors"
	"github.com/JNC4/webshell-scanner/internal/signatures"
	"github.com/JNC4/webshell-scanner/pkg/models"
)

// SplitNameRuleID identifies function names reassembled from fragments
const SplitNameRuleID = "dynamic.split_name"

var literalPattern = regexp.MustCompile(`"([^"]*)"|'([^']*)'`)

// DynamicDetector reports code that picks what to execute at run time:
// variable variables, computed callees, reflection, and function names
// split into concatenated string fragments
type DynamicDetector struct {
	*detectors.BaseDetector
}

// NewDynamicDetector creates a new dynamic-execution detector
func NewDynamicDetector(tables *signatures.Tables) *DynamicDetector {
	return &DynamicDetector{
		BaseDetector: detectors.NewBaseDetector("dynamic", models.CategoryDynamicExecution, tables),
	}
}

// Detect reports idiom matches and reassembled function names
func (d *DynamicDetector) Detect(content string, lang models.Language) []models.Detection {
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

	for _, m := range set.Dynamic.FindAll(content) {
		if counts[m.Rule.ID] >= MaxPerRule {
			continue
		}
		counts[m.Rule.ID]++
		detections = append(detections, d.NewDetection(index(), m.Rule.ID, describe(m.Rule), content[m.Start:m.End], m.Start))
	}

	for _, loc := range set.ConcatChains(content) {
		if counts[SplitNameRuleID] >= MaxPerRule {
			break
		}
		fragment := content[loc[0]:loc[1]]
		name := joinLiterals(fragment)
		rule, ok := set.LookupName(name)
		if !ok {
			continue
		}
		counts[SplitNameRuleID]++

		description := fmt.Sprintf("Function name %q assembled from string fragments", rule.Name)
		detections = append(detections, d.NewDetection(index(), SplitNameRuleID, description, fragment, loc[0]))
	}

	detectors.SortByOffset(detections)
	return detections
}

// joinLiterals concatenates the quoted literals of a chain
func joinLiterals(chain string) string {
	var b strings.Builder
	for _, sub := range literalPattern.FindAllStringSubmatch(chain, -1) {
		b.WriteString(sub[1])
		b.WriteString(sub[2])
	}
	return b.String()
}
