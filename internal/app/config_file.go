package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Flags take
// precedence over file values, file values over built-in defaults.
type FileConfig struct {
	Output    string `yaml:"output" json:"output"`
	OutputPDF string `yaml:"outputPDF" json:"outputPDF"`

	Registry struct {
		Base    string `yaml:"base" json:"base"`
		Listing string `yaml:"listing" json:"listing"`
	} `yaml:"registry" json:"registry"`

	HTTP struct {
		UserAgent string `yaml:"userAgent" json:"userAgent"`
		// RequestTimeout is a Go duration string such as "15s".
		RequestTimeout string `yaml:"requestTimeout" json:"requestTimeout"`
	} `yaml:"http" json:"http"`

	// Timeout is a Go duration string bounding the whole pipeline.
	Timeout string `yaml:"timeout" json:"timeout"`
	Verbose bool   `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// Apply overlays the file values onto cfg. Empty file values leave the
// existing setting untouched. Malformed duration strings are reported rather
// than silently dropped.
func (fc FileConfig) Apply(cfg Config) (Config, error) {
	if fc.Output != "" {
		cfg.OutputPath = fc.Output
	}
	if fc.OutputPDF != "" {
		cfg.PDFPath = fc.OutputPDF
	}
	if fc.Registry.Base != "" {
		cfg.BaseURL = fc.Registry.Base
	}
	if fc.Registry.Listing != "" {
		cfg.ListingPath = fc.Registry.Listing
	}
	if fc.HTTP.UserAgent != "" {
		cfg.UserAgent = fc.HTTP.UserAgent
	}
	if fc.HTTP.RequestTimeout != "" {
		d, err := time.ParseDuration(fc.HTTP.RequestTimeout)
		if err != nil {
			return cfg, fmt.Errorf("http.requestTimeout: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return cfg, fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}
