package heuristic

import (
	"regexp"
	"strings"
)

// IdentifierPattern represents a degenerate identifier naming pattern
type IdentifierPattern struct {
	Name        string
	Pattern     *regexp.Regexp
	Description string
}

// IdentifierAnalyzer finds machine-generated identifier names
type IdentifierAnalyzer struct {
	patterns    []IdentifierPattern
	identRegex  *regexp.Regexp
	shortCommon map[string]bool
}

// Short variable names that ordinary code uses freely
var commonShortNames = []string{
	"i", "j", "k", "n", "m", "x", "y", "z", "e", "v", "s", "f", "t",
	"id", "db", "fp", "ch", "ok", "wp", "fn", "cb", "ip", "os", "io",
}

// NewIdentifierAnalyzer creates a new identifier analyzer
func NewIdentifierAnalyzer() *IdentifierAnalyzer {
	ia := &IdentifierAnalyzer{
		identRegex:  regexp.MustCompile(`(\$?)([A-Za-z_\x7f-\xff][A-Za-z0-9_\x7f-\xff]*)`),
		shortCommon: make(map[string]bool, len(commonShortNames)),
	}
	for _, name := range commonShortNames {
		ia.shortCommon[name] = true
	}

	ia.patterns = []IdentifierPattern{
		{
			Name:        "O0_Pattern",
			Pattern:     regexp.MustCompile(`^[O0_]*(?:O0|0O)[O0_]*$`),
			Description: "Identifier uses O/0 obfuscation pattern",
		},
		{
			Name:        "Il1_Pattern",
			Pattern:     regexp.MustCompile(`^(?:[Il1]*I[Il1]*[l1][Il1]*|[Il1]*[l1][Il1]*I[Il1]*)$`),
			Description: "Identifier uses I/l/1 obfuscation pattern",
		},
		{
			Name:        "Hex_Pattern",
			Pattern:     regexp.MustCompile(`^_0x[0-9a-fA-F]{3,}$`),
			Description: "Identifier uses hex obfuscation pattern",
		},
		{
			Name:        "Mixed_Case_Noise",
			Pattern:     regexp.MustCompile(`^(?:[A-Z][a-z]){4,}$|^(?:[a-z][A-Z]){4,}$`),
			Description: "Alternating case pattern",
		},
	}

	return ia
}

// IdentifierAnalysis contains analysis results
type IdentifierAnalysis struct {
	TotalIdentifiers int
	Degenerate       []DegenerateIdentifier
	UniquePatterns   map[string]int
}

// DegenerateIdentifier represents a found degenerate identifier
type DegenerateIdentifier struct {
	Name        string
	PatternName string
	Position    int
}

// Analyze collects distinct degenerate identifiers in content
func (ia *IdentifierAnalyzer) Analyze(content string) *IdentifierAnalysis {
	analysis := &IdentifierAnalysis{
		UniquePatterns: make(map[string]int),
	}

	seen := make(map[string]bool)
	for _, match := range ia.identRegex.FindAllStringSubmatchIndex(content, -1) {
		analysis.TotalIdentifiers++

		isVar := match[3] > match[2]
		name := content[match[4]:match[5]]
		key := content[match[0]:match[1]]
		if seen[key] {
			continue
		}
		seen[key] = true

		if patternName := ia.classify(name, isVar); patternName != "" {
			analysis.Degenerate = append(analysis.Degenerate, DegenerateIdentifier{
				Name:        key,
				PatternName: patternName,
				Position:    match[0],
			})
			analysis.UniquePatterns[patternName]++
		}
	}

	return analysis
}

func (ia *IdentifierAnalyzer) classify(name string, isVar bool) string {
	// Short names only count as variables; keywords and operators such
	// as "if", "in" or "or" are everywhere.
	if isVar && len(name) <= 2 {
		if ia.shortCommon[strings.ToLower(name)] || strings.HasPrefix(name, "_") {
			return ""
		}
		return "Short_Variable"
	}
	if len(name) < 3 {
		return ""
	}

	for _, pattern := range ia.patterns {
		if pattern.Pattern.MatchString(name) {
			return pattern.Name
		}
	}
	return ""
}

// identifierScore maps the number of distinct degenerate identifiers
// onto the score scale. A few are tolerated.
func identifierScore(analysis *IdentifierAnalysis) int {
	n := len(analysis.Degenerate)
	if n <= 3 {
		return 0
	}
	return capScore(3*(n-3), 20)
}
