package webshell

import (
	"strings"

	"github.com/JNC4/webshell-scanner/internal/detectors"
	"github.com/JNC4/webshell-scanner/internal/signatures"
	"github.com/JNC4/webshell-scanner/pkg/models"
)

// MaxPerRule caps detections per rule so a file full of one call
// cannot flood the result
const MaxPerRule = 10

// FunctionDetector reports calls to functions that execute code or
// commands or build code at run time
type FunctionDetector struct {
	*detectors.BaseDetector
}

// NewFunctionDetector creates a new suspicious-function detector
func NewFunctionDetector(tables *signatures.Tables) *FunctionDetector {
	return &FunctionDetector{
		BaseDetector: detectors.NewBaseDetector("function", models.CategorySuspiciousFunction, tables),
	}
}

// countKey separates constant and variable calls of a rule so the cap
// never hides a variable call behind constant ones
type countKey struct {
	rule     string
	variable bool
}

// Detect reports each call site, up to MaxPerRule per rule and argument
// kind. Process sinks whose command is not a constant are marked Variable.
func (d *FunctionDetector) Detect(content string, lang models.Language) []models.Detection {
	matches := d.Rules(lang).Functions.FindAll(content)
	if len(matches) == 0 {
		return nil
	}

	lines := signatures.NewLineIndex(content)
	counts := make(map[countKey]int)
	var detections []models.Detection

	for _, m := range matches {
		if !callable(content, m) {
			continue
		}
		variable := variableCommand(content, m)
		key := countKey{rule: m.Rule.ID, variable: variable}
		if counts[key] >= MaxPerRule {
			continue
		}
		counts[key]++

		end := signatures.StatementEnd(content, m.Start, models.MaxPatternLength)
		pattern := strings.TrimRight(content[m.Start:end], "\r\n")
		description := describe(m.Rule)
		if variable {
			description += " with a non-constant argument"
		}
		detection := d.NewDetection(lines, m.Rule.ID, description, pattern, m.Start)
		detection.Variable = variable
		detections = append(detections, detection)
	}
	return detections
}

// variableCommand reports whether m is a process sink run with a command
// that is not a literal
func variableCommand(content string, m signatures.Match) bool {
	if !m.Rule.Sink || m.Rule.Kind != signatures.KindProcess {
		return false
	}
	c, ok := locateCall(content, m)
	return ok && !c.constantCommand(content)
}

func describe(rule *signatures.Rule) string {
	if rule.Description != "" {
		return rule.Description
	}
	return rule.Name
}
