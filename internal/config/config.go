// Package config loads the picker configuration from TOML or YAML and
// resolves it into the compiled values the application consumes.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvConfig names the config file when --config is not given.
const EnvConfig = "RPICK_CONFIG"

const (
	DefaultPrompt        = "> "
	DefaultSourceCommand = "find . -type f"
	DefaultCase          = "smart"
	DefaultTickMS        = 1000
	DefaultDebounceMS    = 50
	DefaultOutput        = "{}"
)

// Config mirrors the file layout. Zero values mean "not set" and are
// filled by Default or left to Resolve.
type Config struct {
	Prompt      *string  `toml:"prompt" yaml:"prompt"`
	Header      string   `toml:"header" yaml:"header"`
	Footer      string   `toml:"footer" yaml:"footer"`
	Query       string   `toml:"query" yaml:"query"`
	Case        string   `toml:"case" yaml:"case"`
	TickMS      int      `toml:"tick_ms" yaml:"tick_ms"`
	Shell       string   `toml:"shell" yaml:"shell"`
	History     []string `toml:"history" yaml:"history"`
	HistoryFile string   `toml:"history_file" yaml:"history_file"`

	Source  SourceConfig  `toml:"source" yaml:"source"`
	Columns ColumnsConfig `toml:"columns" yaml:"columns"`
	Preview PreviewConfig `toml:"preview" yaml:"preview"`
	Output  OutputConfig  `toml:"output" yaml:"output"`

	// Binds maps a trigger spec to an action list given as a string or an
	// array of strings.
	Binds map[string]any `toml:"binds" yaml:"binds"`

	// ExtraBinds holds "trigger:actions" lines from the command line. They
	// are applied after Binds.
	ExtraBinds []string `toml:"-" yaml:"-"`
}

type SourceConfig struct {
	Command string `toml:"command" yaml:"command"`
}

type ColumnsConfig struct {
	Delimiter string   `toml:"delimiter" yaml:"delimiter"`
	Regexes   []string `toml:"regexes" yaml:"regexes"`
	Trim      bool     `toml:"trim" yaml:"trim"`
	Names     []string `toml:"names" yaml:"names"`
	Hidden    []string `toml:"hidden" yaml:"hidden"`
	NoFilter  []string `toml:"nofilter" yaml:"nofilter"`
	// Active is a column index or name.
	Active any `toml:"active" yaml:"active"`
}

type PreviewSourceConfig struct {
	Name    string `toml:"name" yaml:"name"`
	Command string `toml:"command" yaml:"command"`
}

type LayoutConfig struct {
	Side       string `toml:"side" yaml:"side"`
	Percentage int    `toml:"percentage" yaml:"percentage"`
	Min        int    `toml:"min" yaml:"min"`
	Max        int    `toml:"max" yaml:"max"`
}

type PreviewConfig struct {
	Sources    []PreviewSourceConfig `toml:"sources" yaml:"sources"`
	Layouts    []LayoutConfig        `toml:"layouts" yaml:"layouts"`
	DebounceMS *int                  `toml:"debounce_ms" yaml:"debounce_ms"`
	Wrap       bool                  `toml:"wrap" yaml:"wrap"`
	KeepScroll bool                  `toml:"keep_scroll" yaml:"keep_scroll"`
	Hidden     bool                  `toml:"hidden" yaml:"hidden"`
}

type OutputConfig struct {
	Template   string `toml:"template" yaml:"template"`
	Select1    bool   `toml:"select_1" yaml:"select_1"`
	AllowEmpty bool   `toml:"allow_empty" yaml:"allow_empty"`
	Print0     bool   `toml:"print0" yaml:"print0"`
	PrintQuery bool   `toml:"print_query" yaml:"print_query"`
}

// Default returns the built-in configuration.
func Default() *Config {
	prompt := DefaultPrompt
	debounce := DefaultDebounceMS
	return &Config{
		Prompt: &prompt,
		Case:   DefaultCase,
		TickMS: DefaultTickMS,
		Source: SourceConfig{Command: DefaultSourceCommand},
		Preview: PreviewConfig{
			DebounceMS: &debounce,
		},
		Output: OutputConfig{Template: DefaultOutput},
	}
}

// Load reads the config named by path, RPICK_CONFIG or the default
// location, in that order. Only a missing default file is tolerated.
func Load(path string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	explicit := true
	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(getenv(EnvConfig))
	}
	if path == "" {
		explicit = false
		path = DefaultPath(getenv)
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile decodes path over the defaults. The format follows the
// extension: .yaml/.yml is YAML, anything else TOML.
func LoadFromFile(path string) (*Config, error) {
	path, err := expandPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, &ConfigError{Field: path, Err: fmt.Errorf("parse config: %w", err)}
	}
	cfg.fillDefaults()
	return cfg, nil
}

// fillDefaults restores defaults that an explicit empty value cleared.
func (c *Config) fillDefaults() {
	if c.Case == "" {
		c.Case = DefaultCase
	}
	if c.TickMS <= 0 {
		c.TickMS = DefaultTickMS
	}
	if strings.TrimSpace(c.Source.Command) == "" {
		c.Source.Command = DefaultSourceCommand
	}
	if c.Output.Template == "" {
		c.Output.Template = DefaultOutput
	}
	if c.Preview.DebounceMS == nil {
		debounce := DefaultDebounceMS
		c.Preview.DebounceMS = &debounce
	}
}

// SetPrompt overrides the prompt text, including with an empty prompt.
func (c *Config) SetPrompt(prompt string) {
	c.Prompt = &prompt
}

func (c *Config) prompt() string {
	if c.Prompt == nil {
		return DefaultPrompt
	}
	return *c.Prompt
}
