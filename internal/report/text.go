package report

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
)

var (
	maliciousStyle  = color.New(color.FgRed, color.Bold)
	suspiciousStyle = color.New(color.FgYellow, color.Bold)
	cleanStyle      = color.New(color.FgGreen)
	categoryStyle   = color.New(color.FgCyan)
	dimStyle        = color.New(color.Faint)
)

// generateText prints one block per entry, then the summary on errOut
func (g *Generator) generateText(outputs []*Output, summary Summary) error {
	for _, o := range outputs {
		g.printEntry(o)
	}

	fmt.Fprintln(g.errOut)
	fmt.Fprintln(g.errOut, dimStyle.Sprintf("Scanned %d file(s) in %s", summary.Scanned, FormatDuration(summary.Duration)))
	if summary.Malicious > 0 {
		fmt.Fprintln(g.errOut, maliciousStyle.Sprintf("Found %d malicious file(s)", summary.Malicious))
	} else {
		fmt.Fprintln(g.errOut, cleanStyle.Sprint("No webshells detected"))
	}
	return nil
}

func (g *Generator) printEntry(o *Output) {
	var status string
	switch o.ThreatLevel {
	case "Malicious":
		status = maliciousStyle.Sprint("MALICIOUS")
	case "Suspicious":
		status = suspiciousStyle.Sprint("SUSPICIOUS")
	default:
		status = cleanStyle.Sprint("CLEAN")
	}
	fmt.Fprintf(g.out, "%s %s\n", status, o.Path)

	arrow := dimStyle.Sprint("→")
	for _, d := range o.Detections {
		lineInfo := ""
		if d.Line != nil {
			lineInfo = ":" + strconv.Itoa(*d.Line)
		}
		fmt.Fprintf(g.out, "  %s [%s%s] %s\n", arrow, categoryStyle.Sprint(d.Category), dimStyle.Sprint(lineInfo), d.Description)
		if d.Pattern != "" {
			fmt.Fprintf(g.out, "    %s\n", dimStyle.Sprint(d.Pattern))
		}
	}

	if o.ObfuscationScore > 0 {
		fmt.Fprintf(g.out, "  %s Obfuscation score: %d\n", arrow, o.ObfuscationScore)
	}
	fmt.Fprintln(g.out)
}
