package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	exitOK        = 0
	exitMalicious = 1
	exitUsage     = 2
)

var version = "0.1.0"

// errMalicious is returned by the scan command when a malicious file was found
var errMalicious = errors.New("malicious files found")

// usageError marks invalid command-line input
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// app holds state shared by the commands
type app struct {
	verbose bool
	logger  *zap.Logger
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{logger: zap.NewNop()}
	rootCmd := a.rootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	_ = a.logger.Sync()

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errMalicious):
		return exitMalicious
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
}

func (a *app) rootCmd() *cobra.Command {
	cmd := a.scanCmd()
	cmd.Version = version
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	// Global verbose flag
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.initLogger(cmd.ErrOrStderr())
	}

	cmd.AddCommand(a.rulesCmd())
	cmd.AddCommand(a.frameworksCmd())
	return cmd
}

// initLogger builds a development logger under --verbose and an
// error-only JSON logger otherwise
func (a *app) initLogger(stderr io.Writer) error {
	var (
		logger *zap.Logger
		err    error
	)
	if a.verbose {
		logger, err = zap.NewDevelopment()
	} else {
		// Silent logger - only errors
		logger = zap.New(zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.Lock(zapcore.AddSync(stderr)),
			zapcore.ErrorLevel,
		))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}
