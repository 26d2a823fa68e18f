package signatures

import (
	"sort"
	"strings"

	"github.com/JNC4/webshell-scanner/pkg/models"
)

// LineIndex maps byte offsets to 1-based line numbers
type LineIndex struct {
	newlines []int
}

// NewLineIndex indexes the newline positions of content
func NewLineIndex(content string) *LineIndex {
	idx := &LineIndex{}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			idx.newlines = append(idx.newlines, i)
		}
	}
	return idx
}

// Line returns the line containing offset
func (idx *LineIndex) Line(offset int) int {
	return 1 + sort.SearchInts(idx.newlines, offset)
}

// Fragment returns content[start:end] bounded to models.MaxPatternLength
func Fragment(content string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(content) {
		end = len(content)
	}
	if start >= end {
		return ""
	}
	return models.ClampPattern(content[start:end])
}

// StatementEnd returns the offset just past the statement starting at
// from: the first ';' or newline, at most limit bytes away.
func StatementEnd(content string, from, limit int) int {
	end := from + limit
	if end > len(content) {
		end = len(content)
	}
	if i := strings.IndexAny(content[from:end], ";\n"); i >= 0 {
		return from + i + 1
	}
	return end
}

// CallSpan finds the parenthesis closing the one at open, looking at
// most limit bytes ahead. Parentheses inside quoted strings are ignored.
// When no closing parenthesis is found the span is cut at the limit and
// ok is false.
func CallSpan(content string, open, limit int) (closeAt int, ok bool) {
	end := open + limit
	if end > len(content) {
		end = len(content)
	}

	depth := 0
	var quote byte
	for i := open; i < end; i++ {
		c := content[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}

		switch c {
		case '\'', '"', '`':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return end, false
}

// OpenParen returns the offset of the first '(' in content[start:end], or -1
func OpenParen(content string, start, end int) int {
	if i := strings.IndexByte(content[start:end], '('); i >= 0 {
		return start + i
	}
	return -1
}

// IsMemberAccess reports whether the name starting at pos is accessed as
// a method or property ($obj->exec, Foo::exec, re.compile) or is a
// variable ($exec).
func IsMemberAccess(content string, pos int) bool {
	if pos > 0 && (content[pos-1] == '$' || content[pos-1] == '.') {
		return true
	}

	i := pos - 1
	for i >= 0 && (content[i] == ' ' || content[i] == '\t') {
		i--
	}
	if i < 0 {
		return false
	}

	switch content[i] {
	case '>':
		return i > 0 && content[i-1] == '-'
	case ':':
		return i > 0 && content[i-1] == ':'
	}
	return false
}

// SkipSpace returns the first offset at or after pos that is not
// whitespace or a PHP error-suppression '@'
func SkipSpace(content string, pos int) int {
	for pos < len(content) {
		switch content[pos] {
		case ' ', '\t', '\r', '\n', '@':
			pos++
		default:
			return pos
		}
	}
	return pos
}
