package models

// ThreatLevel is the verdict of a scan. Levels are ordered.
type ThreatLevel int

const (
	ThreatClean ThreatLevel = iota
	ThreatSuspicious
	ThreatMalicious
)

// String implements fmt.Stringer
func (t ThreatLevel) String() string {
	switch t {
	case ThreatMalicious:
		return "Malicious"
	case ThreatSuspicious:
		return "Suspicious"
	default:
		return "Clean"
	}
}

// MarshalText encodes the level by name
func (t ThreatLevel) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ScanResult is the outcome of scanning one piece of content
type ScanResult struct {
	IsMalicious      bool        `json:"is_malicious"`
	ThreatLevel      ThreatLevel `json:"threat_level"`
	Language         Language    `json:"language"`
	ObfuscationScore uint32      `json:"obfuscation_score"`
	Detections       []Detection `json:"detections"`
}

// HasLanguage reports whether the language was resolved
func (r *ScanResult) HasLanguage() bool {
	return r.Language != LanguageUnknown
}

// CountByCategory returns the number of detections in a category
func (r *ScanResult) CountByCategory(c Category) int {
	n := 0
	for _, d := range r.Detections {
		if d.Category == c {
			n++
		}
	}
	return n
}
