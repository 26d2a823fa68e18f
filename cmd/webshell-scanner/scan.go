package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/JNC4/webshell-scanner/internal/config"
	"github.com/JNC4/webshell-scanner/internal/core"
	"github.com/JNC4/webshell-scanner/internal/filesystem"
	"github.com/JNC4/webshell-scanner/internal/report"
	"github.com/JNC4/webshell-scanner/internal/signatures"
	"github.com/JNC4/webshell-scanner/pkg/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// scanOptions are the scan flags that are not configuration keys
type scanOptions struct {
	configFile string
	stdin      bool
	language   string
}

// scanCmd creates the scan command, which is also the root command
func (a *app) scanCmd() *cobra.Command {
	var (
		opts         scanOptions
		format       string
		threshold    uint32
		recursive    bool
		contextAware bool
		showClean    bool
		quiet        bool
		workers      int
		maxSize      string
		exclude      []string
		rulesPath    string
	)

	cmd := &cobra.Command{
		Use:   "webshell-scanner [paths...]",
		Short: "Detect webshells in PHP, JSP, ASP.NET, and Python files",
		Long: `Scan files and directories for webshells: known shell signatures, request
input reaching code execution, decode chains, dynamic execution and obfuscation.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateArgs(cmd, opts, args); err != nil {
				return err
			}

			// Load configuration
			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}

			// Override config with CLI flags
			flags := cmd.Flags()
			if flags.Changed("format") {
				cfg.Format = format
			}
			if flags.Changed("threshold") {
				cfg.Threshold = threshold
			}
			if flags.Changed("recursive") {
				cfg.Recursive = recursive
			}
			if flags.Changed("context-aware") {
				cfg.ContextAware = contextAware
			}
			if flags.Changed("show-clean") {
				cfg.ShowClean = showClean
			}
			if flags.Changed("quiet") {
				cfg.Quiet = quiet
			}
			if flags.Changed("workers") {
				cfg.Workers = workers
			}
			if flags.Changed("max-size") {
				cfg.MaxSize = maxSize
			}
			if flags.Changed("exclude") {
				cfg.Exclude = exclude
			}
			if flags.Changed("rules") {
				cfg.RulesPath = rulesPath
			}
			if err := cfg.Validate(); err != nil {
				return &usageError{err: err}
			}

			return a.runScan(cmd, cfg, opts, args)
		},
	}

	// Flags
	cmd.Flags().StringVar(&opts.configFile, "config", "", "Config file (default: ./webshell-scanner.yaml if present)")
	cmd.Flags().BoolVar(&opts.stdin, "stdin", false, "Read content from stdin (use with --language)")
	cmd.Flags().StringVar(&opts.language, "language", "", "Language for stdin input: php, jsp, asp, python")
	cmd.Flags().StringVarP(&format, "format", "f", config.FormatText, "Output format: text, json, jsonl")
	cmd.Flags().Uint32VarP(&threshold, "threshold", "t", core.DefaultThreshold, "Obfuscation threshold")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Scan recursively")
	cmd.Flags().BoolVarP(&contextAware, "context-aware", "c", false, "Enable context-aware scanning (reduces false positives)")
	cmd.Flags().BoolVar(&showClean, "show-clean", false, "Show clean files in output")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all output (exit code 1 if malicious files are found)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of worker goroutines (default: CPU cores * 2)")
	cmd.Flags().StringVar(&maxSize, "max-size", "", "Maximum file size to scan, e.g. 650K (default: no limit)")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Directories to exclude (comma-separated)")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "Directory of extra rule files")

	return cmd
}

// validateArgs checks flag combinations
func validateArgs(cmd *cobra.Command, opts scanOptions, args []string) error {
	switch {
	case opts.stdin && len(args) > 0:
		return usagef("--stdin cannot be used with paths")
	case !opts.stdin && len(args) == 0:
		return usagef("at least one path is required unless --stdin is set")
	case cmd.Flags().Changed("language") && !opts.stdin:
		return usagef("--language requires --stdin")
	}
	if opts.language != "" {
		if _, err := models.ParseLanguage(opts.language); err != nil {
			return &usageError{err: err}
		}
	}
	return nil
}

// loadTables returns the embedded rule tables merged with rulesPath
func loadTables(rulesPath string) (*signatures.Tables, error) {
	if rulesPath == "" {
		return signatures.Default(), nil
	}
	tables, err := signatures.NewLoader(rulesPath).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	return tables, nil
}

func (a *app) runScan(cmd *cobra.Command, cfg *config.Config, opts scanOptions, paths []string) error {
	tables, err := loadTables(cfg.RulesPath)
	if err != nil {
		return err
	}
	scanner := core.NewScannerWithTables(cfg.Threshold, tables, a.logger)

	generator, err := report.NewGenerator(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), a.logger)
	if err != nil {
		return err
	}

	start := time.Now()
	var results []*core.FileResult
	if opts.stdin {
		result, err := a.scanStdin(cmd.InOrStdin(), cfg, scanner, opts.language)
		if err != nil {
			return err
		}
		results = []*core.FileResult{result}
	} else {
		runner, err := core.NewRunner(scanner, cfg, a.logger)
		if err != nil {
			return err
		}
		if results, err = runner.Run(context.Background(), paths); err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
	}

	summary := report.Summarize(results, time.Since(start))
	if err := generator.Generate(results, summary); err != nil {
		return err
	}

	a.logger.Info("Scan finished",
		zap.Int("scanned", summary.Scanned),
		zap.Int("malicious", summary.Malicious),
		zap.Int("errors", summary.Errors))

	if summary.Malicious > 0 {
		return errMalicious
	}
	return nil
}

// scanStdin scans standard input with the given language, or with every
// language's rules when none is given
func (a *app) scanStdin(stdin io.Reader, cfg *config.Config, scanner *core.Scanner, language string) (*core.FileResult, error) {
	raw, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read from stdin: %w", err)
	}
	fallback, err := filesystem.LookupEncoding(cfg.FallbackEncoding)
	if err != nil {
		return nil, err
	}
	content := filesystem.Decode(raw, fallback)

	result := &core.FileResult{Path: report.StdinPath}
	if language == "" {
		result.Result = scanner.Scan(content)
		return result, nil
	}

	lang, err := models.ParseLanguage(language)
	if err != nil {
		return nil, err
	}
	result.Result = scanner.ScanLanguage(content, lang)
	return result, nil
}
