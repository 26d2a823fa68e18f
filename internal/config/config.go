package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/JNC4/webshell-scanner/internal/filesystem"
	"github.com/JNC4/webshell-scanner/pkg/models"
	"github.com/spf13/viper"
)

// Output formats
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
)

// Config represents the scanner configuration
type Config struct {
	// Scan settings
	Threshold    uint32   `mapstructure:"threshold"`     // obfuscation score threshold
	Recursive    bool     `mapstructure:"recursive"`     // descend into subdirectories
	ContextAware bool     `mapstructure:"context_aware"` // framework-aware suppression
	Workers      int      `mapstructure:"workers"`       // number of worker goroutines
	MaxSize      string   `mapstructure:"max_size"`      // maximum file size to scan, empty for no limit
	Exclude      []string `mapstructure:"exclude"`       // directories to exclude
	Languages    []string `mapstructure:"languages"`     // languages to scan, empty for all

	// Input settings
	FallbackEncoding string `mapstructure:"fallback_encoding"` // encoding tried for invalid UTF-8
	RulesPath        string `mapstructure:"rules_path"`        // extra rule files merged over the embedded ones

	// Report settings
	Format    string `mapstructure:"format"`     // text, json, jsonl
	ShowClean bool   `mapstructure:"show_clean"` // list clean files too
	Quiet     bool   `mapstructure:"quiet"`      // suppress all output
}

// LoadConfig loads configuration from environment variables, an optional
// webshell-scanner.yaml in the working directory, and defaults
func LoadConfig() (*Config, error) {
	return Load("")
}

// Load loads configuration like LoadConfig, reading configFile instead of
// searching for one when it is not empty
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("threshold", 50)
	v.SetDefault("recursive", false)
	v.SetDefault("context_aware", false)
	v.SetDefault("workers", runtime.NumCPU()*2)
	v.SetDefault("max_size", "")
	v.SetDefault("exclude", []string{".git", "node_modules", ".svn", ".hg"})
	v.SetDefault("languages", []string{})
	v.SetDefault("fallback_encoding", "gbk")
	v.SetDefault("rules_path", "")
	v.SetDefault("format", FormatText)
	v.SetDefault("show_clean", false)
	v.SetDefault("quiet", false)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("webshell-scanner")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Read environment variables
	v.SetEnvPrefix("WEBSHELL")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// Validate checks option values that cannot be checked while decoding
func (c *Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON, FormatJSONL:
	default:
		return fmt.Errorf("unknown output format: %q", c.Format)
	}

	if c.Threshold == 0 {
		return errors.New("threshold must be positive")
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid worker count: %d", c.Workers)
	}
	if _, err := filesystem.ParseSize(c.MaxSize); err != nil {
		return fmt.Errorf("invalid max_size: %w", err)
	}
	if _, err := filesystem.LookupEncoding(c.FallbackEncoding); err != nil {
		return fmt.Errorf("invalid fallback_encoding: %w", err)
	}
	for _, name := range c.Languages {
		if _, err := models.ParseLanguage(name); err != nil {
			return fmt.Errorf("invalid languages entry: %w", err)
		}
	}
	return nil
}

// ShouldScanFile determines if a file should be scanned based on its
// extension and returns its language
func (c *Config) ShouldScanFile(path string) (models.Language, bool) {
	lang, ok := models.IdentifyLanguage(path)
	if !ok {
		return models.LanguageUnknown, false
	}

	if len(c.Languages) == 0 {
		return lang, true
	}
	for _, name := range c.Languages {
		if allowed, err := models.ParseLanguage(name); err == nil && allowed == lang {
			return lang, true
		}
	}
	return lang, false
}
