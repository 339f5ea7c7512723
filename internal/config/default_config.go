package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/ludo-technologies/pydup/domain"
)

// defaultConfigTmpl contains the embedded default configuration template
//
//go:embed default_config.toml.tmpl
var defaultConfigTmpl string

// DefaultConfigValues holds all values used to render the default config
// template. All values are sourced from the domain package so the
// generated file and the compiled defaults cannot drift apart.
type DefaultConfigValues struct {
	MinLOC       int
	MinStmt      int
	BlockSize    int
	MaxBlocks    int
	MinGroupSize int
}

func newDefaultConfigValues() DefaultConfigValues {
	return DefaultConfigValues{
		MinLOC:       domain.DefaultMinLOC,
		MinStmt:      domain.DefaultMinStmt,
		BlockSize:    domain.DefaultBlockSize,
		MaxBlocks:    domain.DefaultMaxBlocks,
		MinGroupSize: domain.DefaultMinGroupSize,
	}
}

// GenerateDefaultConfigTOML renders the default config template with
// domain values and returns the resulting TOML string.
func GenerateDefaultConfigTOML() (string, error) {
	tmpl, err := template.New("default_config").Parse(defaultConfigTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse default config template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, newDefaultConfigValues()); err != nil {
		return "", fmt.Errorf("failed to render default config template: %w", err)
	}

	return buf.String(), nil
}
