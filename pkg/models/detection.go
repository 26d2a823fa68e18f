package models

import "unicode/utf8"

// MaxPatternLength bounds Detection.Pattern
const MaxPatternLength = 200

// Category represents the kind of evidence a detection carries.
// Declaration order is the output order of detections.
type Category int

const (
	CategoryInputToEval Category = iota
	CategoryDecodeChain
	CategoryKnownSignature
	CategorySuspiciousFunction
	CategoryDynamicExecution
	CategoryObfuscation
)

var categoryNames = map[Category]string{
	CategoryInputToEval:        "input_to_eval",
	CategoryDecodeChain:        "decode_chain",
	CategoryKnownSignature:     "known_signature",
	CategorySuspiciousFunction: "suspicious_function",
	CategoryDynamicExecution:   "dynamic_execution",
	CategoryObfuscation:        "obfuscation",
}

// Categories returns all categories in output order
func Categories() []Category {
	return []Category{
		CategoryInputToEval,
		CategoryDecodeChain,
		CategoryKnownSignature,
		CategorySuspiciousFunction,
		CategoryDynamicExecution,
		CategoryObfuscation,
	}
}

// Name returns the stable display name
func (c Category) Name() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// String implements fmt.Stringer
func (c Category) String() string {
	return c.Name()
}

// MarshalText encodes the category by display name
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.Name()), nil
}

// ParseCategory returns the category with the given display name
func ParseCategory(name string) (Category, bool) {
	for c, n := range categoryNames {
		if n == name {
			return c, true
		}
	}
	return 0, false
}

// Detection is a single piece of evidence found by a detector
type Detection struct {
	Category    Category `json:"category"`
	RuleID      string   `json:"rule_id"`
	Description string   `json:"description"`
	Pattern     string   `json:"pattern"`          // Matched fragment, at most MaxPatternLength bytes
	Line        int      `json:"line,omitempty"`   // 1-based, 0 when unknown
	Offset      int      `json:"-"`                // Byte offset of the match
	Weight      int      `json:"weight,omitempty"` // Severity weight
	Variable    bool     `json:"-"`                // Process sink run with a non-constant command
}

// HasLine reports whether the line number is known
func (d Detection) HasLine() bool {
	return d.Line > 0
}

// ClampPattern cuts s to MaxPatternLength bytes without splitting a rune
func ClampPattern(s string) string {
	if len(s) <= MaxPatternLength {
		return s
	}
	cut := MaxPatternLength
	for i := 1; i < utf8.UTFMax && cut > 0 && !utf8.RuneStart(s[cut]); i++ {
		cut--
	}
	return s[:cut]
}
