package webshell

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JNC4/webshell-scanner/internal/detectors"
	"github.com/JNC4/webshell-scanner/internal/signatures"
	"github.com/JNC4/webshell-scanner/pkg/models"
)

// DecodeChainRuleID identifies decode-chain detections
const DecodeChainRuleID = "decode.chain"

// Chain weights
const (
	weightPerLevel = 10
	weightSink     = 20
)

// Limits of the sequential chain heuristic
const (
	maxLinkGap        = 256 // Bytes between an assigning decoder and its consumer
	maxLinkStatements = 2   // Statement boundaries between them
	maxChainNames     = 16  // Calls named in a description
)

// DecodeDetector reports nested decode/transform calls such as
// gzinflate(base64_decode(...)), and decoders applied in turn to a value
// assigned a statement or two earlier:
//
//	$a = base64_decode($x);
//	$b = gzinflate($a);
//
// The sequential form is matched by proximity only.
type DecodeDetector struct {
	*detectors.BaseDetector
}

// NewDecodeDetector creates a new decode-chain detector
func NewDecodeDetector(tables *signatures.Tables) *DecodeDetector {
	return &DecodeDetector{
		BaseDetector: detectors.NewBaseDetector("decode", models.CategoryDecodeChain, tables),
	}
}

type decodeNode struct {
	call
	parent int
	root   int
	depth  int // Nesting depth within the root
	link   int // Root whose result this call decodes again, or -1
	extra  int // Chain depth carried over from link
}

// chainDepth is the length of the longest chain ending at this call
func (n *decodeNode) chainDepth() int {
	return n.depth + n.extra
}

// Detect reports one detection per outermost decoder whose chain depth
// is at least two. A root consumed by a later decoder is reported as
// part of that decoder's chain.
func (d *DecodeDetector) Detect(content string, lang models.Language) []models.Detection {
	set := d.Rules(lang)

	var nodes []decodeNode
	for _, m := range set.Decoders.FindAll(content) {
		if c, ok := locateCall(content, m); ok {
			nodes = append(nodes, decodeNode{call: c, parent: -1, link: -1, depth: 1})
		}
	}
	if len(nodes) < 2 {
		return nil
	}

	// Calls arrive ordered by start, so an enclosing call is always on
	// the stack when its children are visited.
	deepest := make(map[int]int) // root -> node with the longest chain
	consumed := make(map[int]bool)
	assigned := make(map[string]int) // variable -> assigning root
	var (
		roots   []int
		stack   []int
		pending string // Variable assigned by the current root
	)
	for i := range nodes {
		for len(stack) > 0 && !nodes[stack[len(stack)-1]].contains(nodes[i].start) {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			nodes[i].parent = parent
			nodes[i].root = stack[0]
			nodes[i].depth = nodes[parent].depth + 1
		} else {
			if pending != "" {
				assigned[pending] = roots[len(roots)-1]
			}
			nodes[i].root = i
			roots = append(roots, i)
			pending = assignedVariable(content, nodes[i].start)
		}

		if name, ok := soleVariable(content, nodes[i].call); ok {
			if p, ok := assigned[name]; ok && adjacent(content, nodes[p].end(content), nodes[i].start) {
				nodes[i].link = p
				nodes[i].extra = nodes[deepest[p]].chainDepth()
				consumed[p] = true
			}
		}

		root := nodes[i].root
		if best, ok := deepest[root]; !ok || nodes[i].chainDepth() > nodes[best].chainDepth() {
			deepest[root] = i
		}
		stack = append(stack, i)
	}

	sinks := sinkCalls(content, set)
	wrapping := make(map[int]call, len(sinks)) // first argument offset -> sink
	for _, s := range sinks {
		at := signatures.SkipSpace(content, s.open+1)
		if _, ok := wrapping[at]; !ok {
			wrapping[at] = s
		}
	}

	var lines *signatures.LineIndex
	var detections []models.Detection

	for _, root := range roots {
		if consumed[root] {
			continue
		}
		inner := deepest[root]
		depth := nodes[inner].chainDepth()
		if depth < 2 {
			continue
		}

		chain, first := chainNames(nodes, deepest, inner)
		start := nodes[first].start
		end := nodes[root].end(content)
		weight := weightPerLevel * depth

		if sink, ok := wrapping[nodes[root].start]; ok {
			chain = append([]string{sink.rule.Name}, chain...)
			if first == root {
				start = sink.start
			}
			end = sink.end(content)
			weight += weightSink
		} else if sink, ok := nestedSink(sinks, nodes[inner].call); ok {
			chain = append(chain, sink.rule.Name)
			weight += weightSink
		}

		if lines == nil {
			lines = signatures.NewLineIndex(content)
		}
		description := fmt.Sprintf("Decode chain of depth %d: %s", depth, formatChain(chain))
		detection := d.NewDetection(lines, DecodeChainRuleID, description, content[start:end], start)
		detection.Weight = weight
		detections = append(detections, detection)
	}

	detectors.SortByOffset(detections)
	return detections
}

// chainNames lists the calls of the chain ending at inner, outermost
// first, following sequential links back to earlier roots. It also
// returns the root where the listed chain begins. At most maxChainNames
// names are listed.
func chainNames(nodes []decodeNode, deepest map[int]int, inner int) ([]string, int) {
	var names []string
	first := nodes[inner].root
	for i := inner; len(names) < maxChainNames; i = deepest[nodes[i].link] {
		var segment []string
		for j := i; j >= 0; j = nodes[j].parent {
			segment = append(segment, nodes[j].rule.Name)
		}
		for k := len(segment) - 1; k >= 0; k-- {
			names = append(names, segment[k])
		}
		first = nodes[i].root
		if nodes[i].link < 0 {
			break
		}
	}
	if len(names) > maxChainNames {
		names = names[:maxChainNames]
	}
	return names, first
}

// nestedSink finds the first sink inside the decoder's arguments.
// Sinks are ordered by start.
func nestedSink(sinks []call, decoder call) (call, bool) {
	k := sort.Search(len(sinks), func(k int) bool { return sinks[k].start > decoder.open })
	if k < len(sinks) && decoder.contains(sinks[k].start) {
		return sinks[k], true
	}
	return call{}, false
}

// assignedVariable returns the variable on the left of a plain
// assignment ending right before offset, as in "$a = " or "data=".
func assignedVariable(content string, offset int) string {
	i := offset - 1
	for i >= 0 && offset-i <= 16 && (content[i] == ' ' || content[i] == '\t' || content[i] == '@') {
		i--
	}
	if i < 1 || content[i] != '=' {
		return ""
	}
	switch content[i-1] {
	case '=', '!', '<', '>', '.', '+', '-', '*', '/', '%', '&', '|', '^', '?', ':':
		return ""
	}

	i--
	for i >= 0 && offset-i <= 32 && (content[i] == ' ' || content[i] == '\t') {
		i--
	}
	end := i + 1
	for i >= 0 && end-i <= 64 && isIdentByte(content[i]) {
		i--
	}
	if i >= 0 && content[i] == '$' {
		i--
	}

	name := content[i+1 : end]
	ident := strings.TrimPrefix(name, "$")
	if ident == "" || ident[0] >= '0' && ident[0] <= '9' {
		return ""
	}
	return name
}

// soleVariable returns the variable when it is the call's only argument
func soleVariable(content string, c call) (string, bool) {
	if c.close >= len(content) || content[c.close] != ')' {
		return "", false
	}
	arg := strings.TrimSpace(content[c.open+1 : c.close])
	name := strings.TrimPrefix(arg, "$")
	if name == "" || name[0] >= '0' && name[0] <= '9' {
		return "", false
	}
	for i := 0; i < len(name); i++ {
		if !isIdentByte(name[i]) {
			return "", false
		}
	}
	return arg, true
}

// adjacent reports whether content[from:to] spans at most
// maxLinkStatements statement boundaries and maxLinkGap bytes
func adjacent(content string, from, to int) bool {
	if from > to || to-from > maxLinkGap {
		return false
	}
	boundaries := 0
	inBoundary := false
	for i := from; i < to; i++ {
		switch content[i] {
		case ';', '\n':
			if !inBoundary {
				boundaries++
				inBoundary = true
			}
		case ' ', '\t', '\r':
		default:
			inBoundary = false
		}
	}
	return boundaries <= maxLinkStatements
}

// formatChain renders names as nested calls: eval(gzinflate(...))
func formatChain(names []string) string {
	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('(')
	}
	b.WriteString("...")
	b.WriteString(strings.Repeat(")", len(names)))
	return b.String()
}
