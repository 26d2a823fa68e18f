package heuristic

import "strings"

// Minified-code line thresholds
const (
	MinifiedLineLength   = 2000 // Any line this long
	DenseLineLength      = 500  // Lines this long are checked for whitespace
	DenseWhitespaceRatio = 0.05
)

// IsLikelyMinified reports whether content looks minified or packed:
// a very long line, or a long line that is almost free of whitespace.
func IsLikelyMinified(content string) bool {
	for len(content) > 0 {
		line := content
		if i := strings.IndexByte(content, '\n'); i >= 0 {
			line, content = content[:i], content[i+1:]
		} else {
			content = ""
		}

		if len(line) >= MinifiedLineLength {
			return true
		}
		if len(line) >= DenseLineLength && whitespaceRatio(line) < DenseWhitespaceRatio {
			return true
		}
	}
	return false
}

func whitespaceRatio(line string) float64 {
	spaces := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ', '\t', '\r', '\v', '\f':
			spaces++
		}
	}
	return float64(spaces) / float64(len(line))
}
