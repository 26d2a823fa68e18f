package signatures

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/JNC4/webshell-scanner/pkg/models"
	"github.com/cloudflare/ahocorasick"
)

// Signature is a known-webshell entry: literal markers and/or a
// lightly wildcarded expression.
type Signature struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description,omitempty"`
	Markers     []string `yaml:"markers" json:"markers,omitempty"`
	Regex       string   `yaml:"regex" json:"regex,omitempty"`
	Languages   []string `yaml:"languages" json:"languages,omitempty"`

	langs []models.Language
	re    *regexp.Regexp
}

// AppliesTo reports whether the signature is scoped to lang.
// Unscoped signatures and unknown languages always apply.
func (s *Signature) AppliesTo(lang models.Language) bool {
	if len(s.langs) == 0 || lang == models.LanguageUnknown {
		return true
	}
	for _, l := range s.langs {
		if l == lang {
			return true
		}
	}
	return false
}

// SignatureMatch is a signature hit in scanned content
type SignatureMatch struct {
	Signature *Signature
	Start     int
	End       int
}

// SignatureSet matches every literal marker in one Aho-Corasick pass
// over the lower-cased content, then runs the regex entries.
type SignatureSet struct {
	entries   []*Signature
	literals  []string
	owners    []int // literal index -> entry index
	automaton *ahocorasick.Matcher
	regexes   []int // entry indexes with a regex
}

func compileSignatureSet(entries []*Signature) (*SignatureSet, error) {
	set := &SignatureSet{entries: entries}
	seen := make(map[string]bool)

	for i, sig := range entries {
		if len(sig.Markers) == 0 && sig.Regex == "" {
			return nil, fmt.Errorf("signature %s has neither markers nor regex", sig.ID)
		}

		for _, name := range sig.Languages {
			lang, err := models.ParseLanguage(name)
			if err != nil {
				return nil, fmt.Errorf("signature %s: %w", sig.ID, err)
			}
			sig.langs = append(sig.langs, lang)
		}

		for _, marker := range sig.Markers {
			literal := asciiLower(marker)
			if literal == "" || seen[literal] {
				continue
			}
			seen[literal] = true
			set.literals = append(set.literals, literal)
			set.owners = append(set.owners, i)
		}

		if sig.Regex != "" {
			re, err := regexp.Compile(sig.Regex)
			if err != nil {
				return nil, fmt.Errorf("signature %s: %w", sig.ID, err)
			}
			sig.re = re
			set.regexes = append(set.regexes, i)
		}
	}

	if len(set.literals) > 0 {
		set.automaton = ahocorasick.NewStringMatcher(set.literals)
	}

	return set, nil
}

// Entries returns all signatures in table order
func (s *SignatureSet) Entries() []*Signature {
	return s.entries
}

// Len returns the number of signatures
func (s *SignatureSet) Len() int {
	return len(s.entries)
}

// Match returns at most one hit per signature (its earliest occurrence),
// ordered by position.
func (s *SignatureSet) Match(content string, lang models.Language) []SignatureMatch {
	best := make(map[int]SignatureMatch)

	if s.automaton != nil {
		lower := asciiLower(content)
		for _, idx := range s.automaton.MatchThreadSafe([]byte(lower)) {
			entry := s.owners[idx]
			sig := s.entries[entry]
			if !sig.AppliesTo(lang) {
				continue
			}
			literal := s.literals[idx]
			pos := strings.Index(lower, literal)
			if pos < 0 {
				continue
			}
			if prev, ok := best[entry]; !ok || pos < prev.Start {
				best[entry] = SignatureMatch{Signature: sig, Start: pos, End: pos + len(literal)}
			}
		}
	}

	for _, entry := range s.regexes {
		sig := s.entries[entry]
		if !sig.AppliesTo(lang) {
			continue
		}
		loc := sig.re.FindStringIndex(content)
		if loc == nil {
			continue
		}
		if prev, ok := best[entry]; !ok || loc[0] < prev.Start {
			best[entry] = SignatureMatch{Signature: sig, Start: loc[0], End: loc[1]}
		}
	}

	matches := make([]SignatureMatch, 0, len(best))
	for _, m := range best {
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Start != matches[j].Start {
			return matches[i].Start < matches[j].Start
		}
		return matches[i].Signature.ID < matches[j].Signature.ID
	})
	return matches
}

// asciiLower lower-cases ASCII letters only, so byte offsets are preserved
func asciiLower(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if b[j] >= 'A' && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}
