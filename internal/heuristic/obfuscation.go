package heuristic

import (
	"regexp"
	"sort"

	"github.com/JNC4/webshell-scanner/internal/signatures"
)

// MaxScore is the upper bound of an obfuscation score
const MaxScore = 100

// Signal caps
const (
	escapeCap     = 25
	identifierCap = 20
	base64Cap     = 25
	minifiedScore = 10
	decoderCap    = 15
)

// EscapeWindow is the window used for escape density
const EscapeWindow = 1024

// Base64MinRun is the shortest base64 run that counts as a payload
const Base64MinRun = 100

var (
	escapePattern = regexp.MustCompile(`\\x[0-9A-Fa-f]{2}|\\u[0-9A-Fa-f]{4}|\\[0-7]{3}`)
	base64Pattern = regexp.MustCompile(`[A-Za-z0-9+/]{100,}={0,2}`)
)

// Analysis is the per-signal breakdown of an obfuscation score
type Analysis struct {
	EscapeDensity int // Most escapes in any EscapeWindow bytes
	Degenerate    int // Distinct degenerate identifiers
	Base64Runs    int
	LongestBase64 int
	Minified      bool
	DecoderCalls  int
	MaxEntropy    float64

	EscapeScore     int
	IdentifierScore int
	Base64Score     int
	MinifiedScore   int
	DecoderScore    int
	EntropyScore    int
	Total           uint32
}

// Scorer computes a language-independent obfuscation score in
// [0, MaxScore]. Every signal is a count or a maximum over windows, so
// adding content never lowers the score. Safe for concurrent use.
type Scorer struct {
	identifiers *IdentifierAnalyzer
	decoders    *signatures.RuleList
}

// NewScorer creates a new scorer. Decoder names are taken from every
// language's table; nil tables uses the embedded rules.
func NewScorer(tables *signatures.Tables) *Scorer {
	if tables == nil {
		tables = signatures.Default()
	}
	return &Scorer{
		identifiers: NewIdentifierAnalyzer(),
		decoders:    tables.Decoders(),
	}
}

// Score returns the obfuscation score of content
func (s *Scorer) Score(content string) uint32 {
	return s.Analyze(content).Total
}

// Analyze returns the score with its breakdown
func (s *Scorer) Analyze(content string) *Analysis {
	a := &Analysis{}

	a.EscapeDensity = escapeDensity(content)
	a.EscapeScore = capScore(a.EscapeDensity/4, escapeCap)

	idents := s.identifiers.Analyze(content)
	a.Degenerate = len(idents.Degenerate)
	a.IdentifierScore = identifierScore(idents)

	for _, loc := range base64Pattern.FindAllStringIndex(content, -1) {
		if !mixedClasses(content[loc[0]:loc[1]]) {
			continue
		}
		a.Base64Runs++
		if n := loc[1] - loc[0]; n > a.LongestBase64 {
			a.LongestBase64 = n
		}
	}
	if a.Base64Runs > 0 {
		a.Base64Score = capScore(8*a.Base64Runs+a.LongestBase64/500, base64Cap)
	}

	if a.Minified = IsLikelyMinified(content); a.Minified {
		a.MinifiedScore = minifiedScore
	}

	a.DecoderCalls = len(s.decoders.FindAll(content))
	a.DecoderScore = capScore(3*a.DecoderCalls, decoderCap)

	a.MaxEntropy = MaxChunkEntropy(content)
	a.EntropyScore = entropyScore(content)

	total := a.EscapeScore + a.IdentifierScore + a.Base64Score + a.MinifiedScore + a.DecoderScore + a.EntropyScore
	a.Total = uint32(capScore(total, MaxScore))
	return a
}

// escapeDensity returns the largest number of escape sequences and
// non-printable bytes found in any EscapeWindow-byte window
func escapeDensity(content string) int {
	var positions []int
	for _, loc := range escapePattern.FindAllStringIndex(content, -1) {
		positions = append(positions, loc[0])
	}
	for i := 0; i < len(content); i++ {
		if c := content[i]; (c < 0x20 && c != '\t' && c != '\n' && c != '\r') || c == 0x7f {
			positions = append(positions, i)
		}
	}
	if len(positions) == 0 {
		return 0
	}
	sort.Ints(positions)

	best, lo := 0, 0
	for hi, pos := range positions {
		for positions[lo] <= pos-EscapeWindow {
			lo++
		}
		if n := hi - lo + 1; n > best {
			best = n
		}
	}
	return best
}

// mixedClasses reports whether s has upper case, lower case and digits,
// which plain words and hex strings do not
func mixedClasses(s string) bool {
	var upper, lower, digit bool
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= '0' && c <= '9':
			digit = true
		}
	}
	return upper && lower && digit
}

func capScore(v, limit int) int {
	if v > limit {
		return limit
	}
	if v < 0 {
		return 0
	}
	return v
}
