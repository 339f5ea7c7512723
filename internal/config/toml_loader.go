package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// tomlConfig mirrors the structure of .pydup.toml and the [tool.pydup]
// table of pyproject.toml. All scalar fields are pointers so an unset
// key can be told apart from a zero value when merging over defaults.
type tomlConfig struct {
	Dup    tomlDupSection    `toml:"dup"`
	Input  tomlInputSection  `toml:"input"`
	Output tomlOutputSection `toml:"output"`
}

type tomlDupSection struct {
	MinLOC       *int `toml:"min_loc"`
	MinStmt      *int `toml:"min_stmt"`
	BlockSize    *int `toml:"block_size"`
	MaxBlocks    *int `toml:"max_blocks"`
	MinGroupSize *int `toml:"min_group_size"`

	IgnoreDocstrings      *bool `toml:"ignore_docstrings"`
	IgnoreTypeAnnotations *bool `toml:"ignore_type_annotations"`
	NormalizeNames        *bool `toml:"normalize_names"`
	NormalizeAttributes   *bool `toml:"normalize_attributes"`
	NormalizeConstants    *bool `toml:"normalize_constants"`
}

type tomlInputSection struct {
	Recursive       *bool    `toml:"recursive"`
	IncludePatterns []string `toml:"include_patterns"`
	ExcludePatterns []string `toml:"exclude_patterns"`
}

type tomlOutputSection struct {
	Format      *string `toml:"format"`
	ShowDetails *bool   `toml:"show_details"`
	NoProgress  *bool   `toml:"no_progress"`
}

// pyprojectFile is the subset of pyproject.toml we read.
type pyprojectFile struct {
	Tool struct {
		Pydup tomlConfig `toml:"pydup"`
	} `toml:"tool"`
}

// TomlConfigLoader handles TOML configuration loading
type TomlConfigLoader struct{}

// NewTomlConfigLoader creates a new TOML configuration loader
func NewTomlConfigLoader() *TomlConfigLoader {
	return &TomlConfigLoader{}
}

// LoadConfig loads configuration from TOML files with ruff-like
// priority: .pydup.toml, then pyproject.toml with a [tool.pydup]
// table, then the passed-in defaults unchanged.
func (l *TomlConfigLoader) LoadConfig(startDir string, defaults *Config) (*Config, error) {
	if path, err := findUp(startDir, ".pydup.toml"); err == nil {
		return l.loadPydupToml(path, defaults)
	}

	if path, err := findUp(startDir, "pyproject.toml"); err == nil {
		cfg, err := l.loadPyprojectToml(path, defaults)
		if err == nil {
			return cfg, nil
		}
	}

	return defaults, nil
}

func (l *TomlConfigLoader) loadPydupToml(path string, defaults *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var parsed tomlConfig
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}

	merged := *defaults
	mergeToml(&merged, &parsed)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

func (l *TomlConfigLoader) loadPyprojectToml(path string, defaults *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var parsed pyprojectFile
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}

	merged := *defaults
	mergeToml(&merged, &parsed.Tool.Pydup)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// mergeToml applies set TOML values over the defaults.
func mergeToml(dst *Config, src *tomlConfig) {
	setInt(&dst.Dup.MinLOC, src.Dup.MinLOC)
	setInt(&dst.Dup.MinStmt, src.Dup.MinStmt)
	setInt(&dst.Dup.BlockSize, src.Dup.BlockSize)
	setInt(&dst.Dup.MaxBlocks, src.Dup.MaxBlocks)
	setInt(&dst.Dup.MinGroupSize, src.Dup.MinGroupSize)

	setBool(&dst.Dup.IgnoreDocstrings, src.Dup.IgnoreDocstrings)
	setBool(&dst.Dup.IgnoreTypeAnnotations, src.Dup.IgnoreTypeAnnotations)
	setBool(&dst.Dup.NormalizeNames, src.Dup.NormalizeNames)
	setBool(&dst.Dup.NormalizeAttributes, src.Dup.NormalizeAttributes)
	setBool(&dst.Dup.NormalizeConstants, src.Dup.NormalizeConstants)

	setBool(&dst.Input.Recursive, src.Input.Recursive)
	if len(src.Input.IncludePatterns) > 0 {
		dst.Input.IncludePatterns = src.Input.IncludePatterns
	}
	if len(src.Input.ExcludePatterns) > 0 {
		dst.Input.ExcludePatterns = src.Input.ExcludePatterns
	}

	setString(&dst.Output.Format, src.Output.Format)
	setBool(&dst.Output.ShowDetails, src.Output.ShowDetails)
	setBool(&dst.Output.NoProgress, src.Output.NoProgress)
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// findUp walks up from startDir looking for a file name.
func findUp(startDir, name string) (string, error) {
	dir := startDir
	for {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", os.ErrNotExist
}
