package framework

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"go.uber.org/zap"
)

// MaxAncestors bounds how many directories above a file are checked for
// framework markers
const MaxAncestors = 8

type compiledProfile struct {
	Profile
	globs []glob.Glob
}

// Detector recognizes the framework a file belongs to from its path and
// from marker files in its ancestor directories. Marker results are
// cached per directory, so one Detector can serve concurrent scans.
type Detector struct {
	profiles []compiledProfile
	cache    sync.Map // directory -> Framework
	logger   *zap.Logger
}

// NewDetector creates a framework detector with the built-in profiles
func NewDetector(logger *zap.Logger) *Detector {
	d, err := NewDetectorWithProfiles(defaultProfiles, logger)
	if err != nil {
		panic(fmt.Sprintf("framework: built-in profiles: %v", err))
	}
	return d
}

// NewDetectorWithProfiles creates a framework detector with custom profiles
func NewDetectorWithProfiles(profiles []Profile, logger *zap.Logger) (*Detector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Detector{logger: logger}
	for _, p := range profiles {
		cp := compiledProfile{Profile: p}
		for _, pattern := range p.PathGlobs {
			g, err := glob.Compile(pattern, '/')
			if err != nil {
				return nil, fmt.Errorf("invalid path glob %q for %s: %w", pattern, p.Framework, err)
			}
			cp.globs = append(cp.globs, g)
		}
		d.profiles = append(d.profiles, cp)
	}
	return d, nil
}

// Detect returns the framework the file at filePath belongs to
func (d *Detector) Detect(filePath string) (Framework, bool) {
	if filePath == "" {
		return None, false
	}

	abs, err := filepath.Abs(filePath)
	if err != nil {
		abs = filePath
	}

	slashed := "/" + strings.TrimPrefix(filepath.ToSlash(abs), "/")
	for _, p := range d.profiles {
		for _, g := range p.globs {
			if g.Match(slashed) {
				d.logger.Debug("Framework recognized by path",
					zap.String("path", filePath),
					zap.String("framework", p.Framework.String()))
				return p.Framework, true
			}
		}
	}

	dir := filepath.Dir(abs)
	for i := 0; i < MaxAncestors; i++ {
		if fw := d.dirFramework(dir); fw != None {
			return fw, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return None, false
}

// dirFramework returns the framework whose root is dir, if any
func (d *Detector) dirFramework(dir string) Framework {
	if cached, ok := d.cache.Load(dir); ok {
		return cached.(Framework)
	}

	fw := None
	for _, p := range d.profiles {
		confidence := 0
		var indicators []string
		for _, m := range p.Markers {
			if d.hasMarker(dir, m) {
				confidence += m.Weight
				indicators = append(indicators, m.Path)
			}
		}
		if confidence >= Threshold {
			d.logger.Debug("Framework recognized by markers",
				zap.String("root", dir),
				zap.String("framework", p.Framework.String()),
				zap.Int("confidence", confidence),
				zap.Strings("indicators", indicators))
			fw = p.Framework
			break
		}
	}

	d.cache.Store(dir, fw)
	return fw
}

func (d *Detector) hasMarker(dir string, m Marker) bool {
	isDir := strings.HasSuffix(m.Path, "/")
	full := filepath.Join(dir, filepath.FromSlash(path.Clean(m.Path)))

	info, err := os.Stat(full)
	if err != nil {
		return false
	}
	if info.IsDir() != isDir {
		return false
	}
	if m.Contains == "" {
		return true
	}
	return checkFileContains(full, m.Contains)
}

// checkFileContains checks if file contains a string
func checkFileContains(filePath, searchString string) bool {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), searchString)
}
