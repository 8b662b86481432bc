// Package config loads and validates program configuration.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"
)

//go:embed config.yaml
var defaultConfig []byte

type (
	ClassesConfig struct {
		Text   string `yaml:"text" validate:"required"`
		Image  string `yaml:"image" validate:"required"`
		Button string `yaml:"button" validate:"required"`
	}

	DocumentConfig struct {
		Base         string        `yaml:"base"`
		ContentBase  string        `yaml:"content_base" validate:"omitempty,url"`
		BodyWidth    int           `yaml:"body_width" validate:"min=320,max=2000"`
		LastSection  string        `yaml:"last_section" validate:"oneof=trailing-footer strict"`
		Styles       []string      `yaml:"styles" validate:"dive,required"`
		InlineStyles []string      `yaml:"inline_styles" validate:"dive,required"`
		Classes      ClassesConfig `yaml:"classes"`
	}

	RendererConfig struct {
		Kind    string   `yaml:"kind" validate:"oneof=mjml none"`
		Command string   `yaml:"command" validate:"required_if=Kind mjml"`
		Args    []string `yaml:"args"`
	}

	Config struct {
		Version  int            `yaml:"version" validate:"eq=1"`
		Document DocumentConfig `yaml:"document"`
		Renderer RendererConfig `yaml:"renderer"`
		Logging  LoggingConfig  `yaml:"logging"`
	}
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// only fields we defined are allowed, so no yaml.Unmarshal here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := validate.Struct(cfg); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of the embedded defaults and performs
// validation.
func LoadConfiguration(path string) (*Config, error) {
	haveFile := len(path) > 0

	cfg, err := unmarshalConfig(defaultConfig, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process default configuration: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare returns the embedded default configuration.
func Prepare() []byte {
	return append([]byte(nil), defaultConfig...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
