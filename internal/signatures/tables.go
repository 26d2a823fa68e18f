package signatures

import "github.com/JNC4/webshell-scanner/pkg/models"

// Tables is the immutable, compiled collection of all rule tables.
// It is safe for concurrent use.
type Tables struct {
	signatures *SignatureSet
	sets       map[models.Language]*RuleSet
	union      *RuleSet
}

// Signatures returns the known-signature table
func (t *Tables) Signatures() *SignatureSet {
	return t.signatures
}

// For returns the rule set of a language. LanguageUnknown yields the
// union of every language's rules.
func (t *Tables) For(lang models.Language) *RuleSet {
	if set, ok := t.sets[lang]; ok {
		return set
	}
	return t.union
}

// Decoders returns the decoder rules of every language
func (t *Tables) Decoders() *RuleList {
	return t.union.Decoders
}
