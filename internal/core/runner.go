package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/JNC4/webshell-scanner/internal/config"
	"github.com/JNC4/webshell-scanner/internal/filesystem"
	"github.com/JNC4/webshell-scanner/internal/framework"
	"github.com/JNC4/webshell-scanner/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
)

// FileResult is the outcome of scanning one file
type FileResult struct {
	Path    string
	Result  *models.ScanResult // nil when Err is set or the file was skipped
	Err     error
	Skipped bool // Over the size limit
}

// Runner scans files and directories with bounded parallelism
type Runner struct {
	scanner    *Scanner
	config     *config.Config
	walker     *filesystem.Walker
	frameworks *framework.Detector // nil unless context-aware
	maxSize    int64
	fallback   encoding.Encoding
	workers    int
	logger     *zap.Logger
}

// NewRunner creates a runner for scanner configured by cfg
func NewRunner(scanner *Scanner, cfg *config.Config, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxSize, err := filesystem.ParseSize(cfg.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to parse max size: %w", err)
	}
	fallback, err := filesystem.LookupEncoding(cfg.FallbackEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fallback encoding: %w", err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	r := &Runner{
		scanner:  scanner,
		config:   cfg,
		walker:   filesystem.NewWalker(cfg.Exclude, logger),
		maxSize:  maxSize,
		fallback: fallback,
		workers:  workers,
		logger:   logger,
	}
	if cfg.ContextAware {
		r.frameworks = framework.NewDetector(logger)
	}
	return r, nil
}

// Run scans every candidate file under paths. Results follow the order
// in which files were found. Per-file errors are stored on the result;
// only cancellation of ctx aborts the run.
func (r *Runner) Run(ctx context.Context, paths []string) ([]*FileResult, error) {
	files, err := r.collect(ctx, paths)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Starting scan",
		zap.Int("files", len(files)),
		zap.Int("workers", r.workers),
		zap.Bool("context_aware", r.frameworks != nil))

	results := make([]*FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, f := range files {
		i, f := i, f
		if f.Err != nil {
			results[i] = f.FileResult
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.scanFile(f.Path, f.lang)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Info("Scan completed", zap.Int("files", len(results)))
	return results, nil
}

// candidate is a file selected for scanning
type candidate struct {
	*FileResult
	lang models.Language
}

// collect expands paths into candidate files. Files named directly are
// gated by extension like walked ones. A path that cannot be accessed
// becomes a result carrying the error.
func (r *Runner) collect(ctx context.Context, paths []string) ([]candidate, error) {
	var files []candidate
	add := func(path string) {
		lang, ok := r.config.ShouldScanFile(path)
		if !ok {
			r.logger.Debug("Skipping file", zap.String("path", path))
			return
		}
		files = append(files, candidate{FileResult: &FileResult{Path: path}, lang: lang})
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			r.logger.Warn("Error accessing path", zap.String("path", path), zap.Error(err))
			files = append(files, candidate{FileResult: &FileResult{Path: path, Err: fmt.Errorf("failed to access path: %w", err)}})
			continue
		}

		if !info.IsDir() {
			add(path)
			continue
		}

		err = r.walker.Walk(path, r.config.Recursive, func(file string) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			add(file)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", path, err)
		}
	}
	return files, nil
}

// scanFile reads, decodes and scans one file
func (r *Runner) scanFile(path string, lang models.Language) *FileResult {
	res := &FileResult{Path: path}

	raw, err := filesystem.ReadFile(path, r.maxSize)
	if err != nil {
		if errors.Is(err, filesystem.ErrTooLarge) {
			r.logger.Debug("File too large, skipping", zap.String("path", path), zap.Int64("max_size", r.maxSize))
			res.Skipped = true
			return res
		}
		r.logger.Warn("Failed to read file", zap.String("path", path), zap.Error(err))
		res.Err = err
		return res
	}

	content := filesystem.Decode(raw, r.fallback)
	if r.frameworks != nil {
		res.Result = r.scanner.ScanWithContext(content, FromPathWithDetector(path, r.frameworks))
	} else {
		res.Result = r.scanner.ScanLanguage(content, lang)
	}
	return res
}
