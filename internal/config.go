package internal

import (
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notamaton/internal/classifier"
)

// Run modes.
const (
	ModeAnalyze  = "analyze"
	ModeFeedback = "feedback"
	ModeProcess  = "process"
	ModeReport   = "report"
	ModeWatch    = "watch"
	ModeMCP      = "mcp"
)

// Modes lists every accepted run mode.
var Modes = []string{ModeAnalyze, ModeFeedback, ModeProcess, ModeReport, ModeWatch, ModeMCP}

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Vault    VaultConfig       `yaml:"vault"`
	Taxonomy TaxonomyConfig    `yaml:"taxonomy"`
	Cache    CacheConfig       `yaml:"cache"`
	Analyzer AnalyzerConfig    `yaml:"analyzer"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Taxonomy.Validate(); err != nil {
		return err
	}
	return c.Analyzer.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// VaultConfig holds the vault directory and discovery ignore globs.
type VaultConfig struct {
	Path string `yaml:"path"`
	// Ignore lists doublestar globs excluded from discovery, matched
	// case-insensitively against relative paths and file names.
	Ignore []string `yaml:"ignore"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// TaxonomyConfig holds the path to the taxonomy document.
type TaxonomyConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the taxonomy configuration.
func (c *TaxonomyConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// CacheConfig holds the SQLite analysis cache location. An empty path
// disables caching; every note is then classified from scratch.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// AnalyzerConfig holds the classification and ledger policy knobs.
type AnalyzerConfig struct {
	MinConfidence    float64 `yaml:"min_confidence"`
	TitleWeight      int     `yaml:"title_weight"`
	MaxTags          int     `yaml:"max_tags"`
	MaxConnections   int     `yaml:"max_connections"`
	MinContentLength int     `yaml:"min_content_length"`
	LedgerFile       string  `yaml:"ledger_file"`
	ReportFile       string  `yaml:"report_file"`
}

// Validate validates the analyzer configuration.
func (c *AnalyzerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MinConfidence, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.TitleWeight, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxTags, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxConnections, validation.Min(0)),
		validation.Field(&c.LedgerFile, validation.Required),
		validation.Field(&c.ReportFile, validation.Required),
	)
}

// ClassifierConfig converts the analyzer knobs into the classifier policy.
func (c *AnalyzerConfig) ClassifierConfig() classifier.Config {
	cfg := classifier.DefaultConfig()
	cfg.MinConfidence = c.MinConfidence
	cfg.TitleWeight = c.TitleWeight
	cfg.MaxTags = c.MaxTags
	cfg.MaxConnections = c.MaxConnections
	cfg.MinContentLength = c.MinContentLength
	return cfg
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	defaults := classifier.DefaultConfig()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Vault: VaultConfig{
			Ignore: []string{"*template*"},
		},
		Analyzer: AnalyzerConfig{
			MinConfidence:    defaults.MinConfidence,
			TitleWeight:      defaults.TitleWeight,
			MaxTags:          defaults.MaxTags,
			MaxConnections:   defaults.MaxConnections,
			MinContentLength: defaults.MinContentLength,
			LedgerFile:       "cacd_feedback.md",
			ReportFile:       "cacd_study_report.md",
		},
	}
}
