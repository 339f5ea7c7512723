package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/ludo-technologies/pydup/domain"
)

// Config represents the main configuration structure
type Config struct {
	// Dup holds duplication detection configuration
	Dup DupConfig `mapstructure:"dup" yaml:"dup"`

	// Input holds file collection configuration
	Input InputConfig `mapstructure:"input" yaml:"input"`

	// Output holds output formatting configuration
	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

// DupConfig holds configuration for duplication detection
type DupConfig struct {
	// MinLOC is the minimum line count for a function to be fingerprinted
	MinLOC int `mapstructure:"min_loc" yaml:"min_loc"`

	// MinStmt is the minimum statement count for a function to be fingerprinted
	MinStmt int `mapstructure:"min_stmt" yaml:"min_stmt"`

	// BlockSize is the number of consecutive statements per block window
	BlockSize int `mapstructure:"block_size" yaml:"block_size"`

	// MaxBlocks caps accepted block windows per function
	MaxBlocks int `mapstructure:"max_blocks" yaml:"max_blocks"`

	// MinGroupSize is the minimum number of members for a reported group
	MinGroupSize int `mapstructure:"min_group_size" yaml:"min_group_size"`

	// Normalization toggles
	IgnoreDocstrings      bool `mapstructure:"ignore_docstrings" yaml:"ignore_docstrings"`
	IgnoreTypeAnnotations bool `mapstructure:"ignore_type_annotations" yaml:"ignore_type_annotations"`
	NormalizeNames        bool `mapstructure:"normalize_names" yaml:"normalize_names"`
	NormalizeAttributes   bool `mapstructure:"normalize_attributes" yaml:"normalize_attributes"`
	NormalizeConstants    bool `mapstructure:"normalize_constants" yaml:"normalize_constants"`
}

// InputConfig holds file collection configuration
type InputConfig struct {
	// Recursive controls directory traversal
	Recursive bool `mapstructure:"recursive" yaml:"recursive"`

	// IncludePatterns are glob patterns for files to analyze
	IncludePatterns []string `mapstructure:"include_patterns" yaml:"include_patterns"`

	// ExcludePatterns are glob patterns for files to skip
	ExcludePatterns []string `mapstructure:"exclude_patterns" yaml:"exclude_patterns"`
}

// OutputConfig holds output formatting configuration
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, csv
	Format string `mapstructure:"format" yaml:"format"`

	// ShowDetails controls whether all group members are listed
	ShowDetails bool `mapstructure:"show_details" yaml:"show_details"`

	// NoProgress disables the progress bar
	NoProgress bool `mapstructure:"no_progress" yaml:"no_progress"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Dup: DupConfig{
			MinLOC:                domain.DefaultMinLOC,
			MinStmt:               domain.DefaultMinStmt,
			BlockSize:             domain.DefaultBlockSize,
			MaxBlocks:             domain.DefaultMaxBlocks,
			MinGroupSize:          domain.DefaultMinGroupSize,
			IgnoreDocstrings:      true,
			IgnoreTypeAnnotations: true,
			NormalizeNames:        true,
			NormalizeAttributes:   true,
			NormalizeConstants:    true,
		},
		Input: InputConfig{
			Recursive:       true,
			IncludePatterns: []string{"**/*.py"},
			ExcludePatterns: domain.DefaultExcludePatterns(),
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// LoadConfig loads configuration with the following priority:
// explicit path > .pydup.yaml (walking up) > .pydup.toml /
// pyproject.toml [tool.pydup] > defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath == "" {
		configPath = findDefaultConfig()
	}

	if configPath == "" {
		// No YAML config; fall back to TOML discovery.
		cwd, err := os.Getwd()
		if err != nil {
			return config, nil
		}
		return NewTomlConfigLoader().LoadConfig(cwd, config)
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("failed to read config file %s", configPath), err)
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, domain.NewConfigError("failed to unmarshal config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, domain.NewConfigError("invalid configuration", err)
	}

	return config, nil
}

// findDefaultConfig looks for default configuration files in the
// current directory, then the home directory.
func findDefaultConfig() string {
	candidates := []string{
		".pydup.yaml",
		".pydup.yml",
		"pydup.yaml",
		"pydup.yml",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		for _, candidate := range candidates {
			path := filepath.Join(home, candidate)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Dup.MinLOC < 1 {
		return fmt.Errorf("dup.min_loc must be >= 1, got %d", c.Dup.MinLOC)
	}
	if c.Dup.MinStmt < 1 {
		return fmt.Errorf("dup.min_stmt must be >= 1, got %d", c.Dup.MinStmt)
	}
	if c.Dup.BlockSize < 2 {
		return fmt.Errorf("dup.block_size must be >= 2, got %d", c.Dup.BlockSize)
	}
	if c.Dup.MaxBlocks < 1 {
		return fmt.Errorf("dup.max_blocks must be >= 1, got %d", c.Dup.MaxBlocks)
	}
	if c.Dup.MinGroupSize < 2 {
		return fmt.Errorf("dup.min_group_size must be >= 2, got %d", c.Dup.MinGroupSize)
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
		"yaml": true,
		"csv":  true,
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format '%s', must be one of: text, json, yaml, csv", c.Output.Format)
	}

	if len(c.Input.IncludePatterns) == 0 {
		return fmt.Errorf("input.include_patterns cannot be empty")
	}

	return nil
}

// ToRequest converts the configuration into a scan request for the
// given paths.
func (c *Config) ToRequest(paths []string) *domain.DupRequest {
	req := domain.DefaultDupRequest()
	req.Paths = paths
	req.Recursive = c.Input.Recursive
	req.IncludePatterns = c.Input.IncludePatterns
	req.ExcludePatterns = c.Input.ExcludePatterns
	req.MinLOC = c.Dup.MinLOC
	req.MinStmt = c.Dup.MinStmt
	req.BlockSize = c.Dup.BlockSize
	req.MaxBlocks = c.Dup.MaxBlocks
	req.MinGroupSize = c.Dup.MinGroupSize
	req.IgnoreDocstrings = c.Dup.IgnoreDocstrings
	req.IgnoreTypeAnnotations = c.Dup.IgnoreTypeAnnotations
	req.NormalizeNames = c.Dup.NormalizeNames
	req.NormalizeAttributes = c.Dup.NormalizeAttributes
	req.NormalizeConstants = c.Dup.NormalizeConstants
	req.OutputFormat = domain.OutputFormat(c.Output.Format)
	req.ShowDetails = c.Output.ShowDetails
	req.NoProgress = c.Output.NoProgress
	return req
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("dup", config.Dup)
	v.Set("input", config.Input)
	v.Set("output", config.Output)

	return v.WriteConfig()
}
