package core

import (
	"github.com/JNC4/webshell-scanner/internal/framework"
)

// ScanContext carries what is known about where content came from
type ScanContext struct {
	Path      string
	Framework framework.Framework
	Allowlist *framework.Allowlist // nil when no idioms apply
}

// NewScanContext creates a context for path with no framework
func NewScanContext(path string) *ScanContext {
	return &ScanContext{Path: path}
}

// FromPathWithDetector resolves the framework of path and its allowlist.
// A nil detector yields a context without a framework.
func FromPathWithDetector(path string, detector *framework.Detector) *ScanContext {
	ctx := NewScanContext(path)
	if detector == nil {
		return ctx
	}

	if fw, ok := detector.Detect(path); ok {
		ctx.Framework = fw
		ctx.Allowlist = framework.AllowlistFor(fw)
	}
	return ctx
}

// HasFramework reports whether a framework was recognized
func (c *ScanContext) HasFramework() bool {
	return c != nil && c.Framework != framework.None
}
