package webshell

import (
	"strings"

	"github.com/JNC4/webshell-scanner/internal/signatures"
)

// MaxSpan bounds how far an argument list is followed
const MaxSpan = 1024

// call is a located function call with its argument span
type call struct {
	rule  *signatures.Rule
	start int // Start of the callee name
	open  int // Offset of '('
	close int // Offset of ')', or the cut-off point
}

// end returns the offset just past the call
func (c call) end(content string) int {
	if c.close < len(content) {
		return c.close + 1
	}
	return len(content)
}

// args returns the argument text including the parentheses
func (c call) args(content string) string {
	return content[c.open:c.end(content)]
}

// contains reports whether offset lies inside the argument list
func (c call) contains(offset int) bool {
	return offset > c.open && offset < c.close
}

// locateCall resolves the argument span of a rule match. Most patterns
// end at the opening parenthesis; the others are searched for it.
func locateCall(content string, m signatures.Match) (call, bool) {
	var open int
	if m.End > m.Start && content[m.End-1] == '(' {
		open = m.End - 1
	} else {
		open = signatures.OpenParen(content, m.Start, m.End)
	}
	if open < 0 {
		return call{}, false
	}

	closeAt, _ := signatures.CallSpan(content, open, MaxSpan)
	return call{rule: m.Rule, start: m.Start, open: open, close: closeAt}, true
}

// callable filters out bare-name rules used as methods or variables
func callable(content string, m signatures.Match) bool {
	return !m.Rule.Bare || !signatures.IsMemberAccess(content, m.Start)
}

// sinkCalls returns every execution-sink call in content
func sinkCalls(content string, set *signatures.RuleSet) []call {
	var calls []call
	for _, m := range set.Functions.FindAll(content) {
		if !m.Rule.Sink || !callable(content, m) {
			continue
		}
		if c, ok := locateCall(content, m); ok {
			calls = append(calls, c)
		}
	}
	return calls
}

// constantCommand reports whether the first argument is built only from
// string and number literals, such as system('id') or
// subprocess.call(["ls", "-l"]). Variables, calls and interpolated
// strings are not constant.
func (c call) constantCommand(content string) bool {
	if c.close >= len(content) || content[c.close] != ')' {
		return false
	}
	args := content[c.open+1 : c.close]

	depth := 0
	for i := 0; i < len(args); {
		ch := args[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			i++
		case ch == ',' && depth == 0:
			return true
		case ch == '(' || ch == '[' || ch == '{':
			depth++
			i++
		case ch == ')' || ch == ']' || ch == '}':
			depth--
			i++
		case ch == ',' || ch == '.' || ch == '+':
			i++
		case ch == '\'' || ch == '"':
			end, ok := skipLiteral(args, i)
			if !ok {
				return false
			}
			i = end
		case ch >= '0' && ch <= '9':
			for i < len(args) && isNumberByte(args[i]) {
				i++
			}
		case isStringPrefix(args, i):
			for args[i] != '\'' && args[i] != '"' {
				i++
			}
		default:
			return false
		}
	}
	return true
}

// skipLiteral returns the offset past the quoted string starting at i.
// Double-quoted strings that interpolate a variable are not literals.
func skipLiteral(s string, i int) (int, bool) {
	quote := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '$':
			if quote == '"' && j+1 < len(s) && (isIdentByte(s[j+1]) || s[j+1] == '{') {
				return 0, false
			}
		case quote:
			return j + 1, true
		}
	}
	return 0, false
}

// isStringPrefix matches Python string prefixes such as r"..." or b'...'
func isStringPrefix(s string, i int) bool {
	j := i
	for j < len(s) && j-i < 2 && strings.ContainsRune("rRbBuU", rune(s[j])) {
		j++
	}
	return j > i && j < len(s) && (s[j] == '\'' || s[j] == '"')
}

func isNumberByte(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F' || b == 'x' || b == 'X' || b == '_'
}

func isIdentByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= 0x80
}
