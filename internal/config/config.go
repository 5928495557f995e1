// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"

	"github.com/jeranaias/nova-tui/internal/model"
	"github.com/jeranaias/nova-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete nova configuration.
type Config struct {
	// DefaultModel is the model selected at startup.
	DefaultModel string `toml:"default_model"`
	// ThinkingEnabled turns the reasoning budget on at startup.
	ThinkingEnabled bool `toml:"thinking_enabled"`
	// ThinkingBudget overrides the per-model budget. 0 keeps the model default.
	ThinkingBudget int `toml:"thinking_budget"`

	API    APIConfig    `toml:"api"`
	Speech SpeechConfig `toml:"speech"`
	UI     UIConfig     `toml:"ui"`
	Log    LogConfig    `toml:"log"`
}

// APIConfig holds the remote service settings.
type APIConfig struct {
	// Key is used only when no key variable is set in the environment.
	Key string `toml:"key"`
	// TimeoutSecs bounds the wait for response headers. Streams are not cut.
	TimeoutSecs int `toml:"timeout_secs"`
}

// SpeechConfig holds read-aloud settings.
type SpeechConfig struct {
	Model string `toml:"model"`
	Voice string `toml:"voice"`
	// TimeoutSecs bounds one synthesis request.
	TimeoutSecs int `toml:"timeout_secs"`
	// OutputDir receives the WAV files handed to the player.
	OutputDir string `toml:"output_dir"`
	// PlayerCommand is e.g. "aplay -q". Empty picks one from PATH; "none"
	// only writes files.
	PlayerCommand string `toml:"player_command"`
}

// UIConfig holds front end settings.
type UIConfig struct {
	Language   string `toml:"language"`
	RefreshFPS int    `toml:"refresh_fps"`
	WordWrap   int    `toml:"word_wrap"`
	Welcome    bool   `toml:"welcome"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Path  string `toml:"path"`
	Level string `toml:"level"`
}

// PlayerNone disables the external audio player.
const PlayerNone = "none"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DefaultModel:    model.DefaultModel,
		ThinkingEnabled: false,
		ThinkingBudget:  0,
		API: APIConfig{
			TimeoutSecs: 120,
		},
		Speech: SpeechConfig{
			Model:       "gemini-2.5-flash-preview-tts",
			Voice:       "Kore",
			TimeoutSecs: 60,
			OutputDir:   "~/.nova/audio",
		},
		UI: UIConfig{
			Language:   "pt-BR",
			RefreshFPS: 30,
			WordWrap:   100,
			Welcome:    true,
		},
		Log: LogConfig{
			Path:  "~/.nova/nova.log",
			Level: "info",
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns ~/.nova.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".nova"), nil
}

// ConfigPath returns ~/.nova/config.toml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ExpandPath replaces a leading ~ with the home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ensureSecurePermissions restricts a config file holding a key to its owner.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().Perm()&0o077 != 0 {
		return os.Chmod(path, 0o600)
	}
	return nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads ~/.nova/config.toml when present, then applies environment
// overrides and validates. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		return finish(Default())
	}
	return LoadFromPath(path)
}

// LoadFromPath loads a specific TOML file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

// LoadTOML decodes path over cfg. Keys absent from the file keep the
// values already in cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %v\n", path, undecoded)
	}
	fillDefaults(cfg)
	return nil
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults restores zero values that have no meaning of their own.
func fillDefaults(cfg *Config) {
	def := Default()
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = def.DefaultModel
	}
	if cfg.API.TimeoutSecs == 0 {
		cfg.API.TimeoutSecs = def.API.TimeoutSecs
	}
	if cfg.Speech.Model == "" {
		cfg.Speech.Model = def.Speech.Model
	}
	if cfg.Speech.Voice == "" {
		cfg.Speech.Voice = def.Speech.Voice
	}
	if cfg.Speech.TimeoutSecs == 0 {
		cfg.Speech.TimeoutSecs = def.Speech.TimeoutSecs
	}
	if cfg.Speech.OutputDir == "" {
		cfg.Speech.OutputDir = def.Speech.OutputDir
	}
	if cfg.UI.Language == "" {
		cfg.UI.Language = def.UI.Language
	}
	if cfg.UI.RefreshFPS == 0 {
		cfg.UI.RefreshFPS = def.UI.RefreshFPS
	}
	if cfg.UI.WordWrap == 0 {
		cfg.UI.WordWrap = def.UI.WordWrap
	}
	if cfg.Log.Path == "" {
		cfg.Log.Path = def.Log.Path
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
}

// =============================================================================
// SAVING
// =============================================================================

// SaveTOML writes cfg to path with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# nova configuration file\n")
	buf.WriteString("# API keys are better kept in NOVA_API_KEY or GEMINI_API_KEY.\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFileWithDir(path, buf.Bytes(), 0o600, 0o700)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// MaxThinkingBudget caps thinking_budget.
const MaxThinkingBudget = 32768

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks every field and returns all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if _, ok := model.LookupModel(c.DefaultModel); !ok {
		errs = append(errs, ValidationError{
			Field:   "default_model",
			Message: fmt.Sprintf("unknown model %q (known: %s)", c.DefaultModel, strings.Join(model.ModelIDs(), ", ")),
		})
	}
	if c.ThinkingBudget < 0 || c.ThinkingBudget > MaxThinkingBudget {
		errs = append(errs, ValidationError{
			Field:   "thinking_budget",
			Message: fmt.Sprintf("must be between 0 and %d", MaxThinkingBudget),
		})
	}
	if c.API.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "api.timeout_secs", Message: "must not be negative"})
	}
	if c.Speech.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "speech.timeout_secs", Message: "must not be negative"})
	}
	if strings.TrimSpace(c.Speech.Voice) == "" {
		errs = append(errs, ValidationError{Field: "speech.voice", Message: "must not be empty"})
	}
	if _, err := language.Parse(c.UI.Language); err != nil {
		errs = append(errs, ValidationError{Field: "ui.language", Message: fmt.Sprintf("invalid language tag %q", c.UI.Language)})
	}
	if c.UI.RefreshFPS < 1 || c.UI.RefreshFPS > 120 {
		errs = append(errs, ValidationError{Field: "ui.refresh_fps", Message: "must be between 1 and 120"})
	}
	if c.UI.WordWrap < 20 {
		errs = append(errs, ValidationError{Field: "ui.word_wrap", Message: "must be at least 20"})
	}
	if !logLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{Field: "log.level", Message: "must be one of debug, info, warn, error"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

// envOverrides lists the NOVA_* variables. Pointer fields stay nil when the
// variable is unset.
type envOverrides struct {
	Model          *string `env:"NOVA_MODEL"`
	Thinking       *bool   `env:"NOVA_THINKING"`
	ThinkingBudget *int    `env:"NOVA_THINKING_BUDGET"`
	Language       *string `env:"NOVA_LANGUAGE"`
	Voice          *string `env:"NOVA_VOICE"`
	SpeechModel    *string `env:"NOVA_SPEECH_MODEL"`
	Player         *string `env:"NOVA_PLAYER"`
	AudioDir       *string `env:"NOVA_AUDIO_DIR"`
	LogLevel       *string `env:"NOVA_LOG_LEVEL"`
	LogPath        *string `env:"NOVA_LOG_PATH"`
}

// ApplyEnvOverrides applies NOVA_* variables on top of the file values.
func (c *Config) ApplyEnvOverrides() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return err
	}

	setString(&c.DefaultModel, o.Model)
	setString(&c.UI.Language, o.Language)
	setString(&c.Speech.Voice, o.Voice)
	setString(&c.Speech.Model, o.SpeechModel)
	setString(&c.Speech.PlayerCommand, o.Player)
	setString(&c.Speech.OutputDir, o.AudioDir)
	setString(&c.Log.Level, o.LogLevel)
	setString(&c.Log.Path, o.LogPath)
	if o.Thinking != nil {
		c.ThinkingEnabled = *o.Thinking
	}
	if o.ThinkingBudget != nil {
		c.ThinkingBudget = *o.ThinkingBudget
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}

// keyEnv lists the credential variables in lookup order.
type keyEnv struct {
	Nova   string `env:"NOVA_API_KEY"`
	Gemini string `env:"GEMINI_API_KEY"`
	Plain  string `env:"API_KEY"`
}

// APIKey resolves the credential: NOVA_API_KEY, GEMINI_API_KEY, API_KEY, then
// api.key from the file. It reads the environment on every call.
func (c *Config) APIKey() string {
	var k keyEnv
	if err := env.Parse(&k); err == nil {
		for _, v := range []string{k.Nova, k.Gemini, k.Plain} {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return strings.TrimSpace(c.API.Key)
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// ThinkingBudgetOverride returns nil when the per-model default applies.
func (c *Config) ThinkingBudgetOverride() *int {
	if c.ThinkingBudget <= 0 {
		return nil
	}
	b := c.ThinkingBudget
	return &b
}

// APITimeout returns api.timeout_secs as a duration.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// SpeechTimeout returns speech.timeout_secs as a duration.
func (c *Config) SpeechTimeout() time.Duration {
	return time.Duration(c.Speech.TimeoutSecs) * time.Second
}

// RefreshInterval is the minimum gap between streamed redraws.
func (c *Config) RefreshInterval() time.Duration {
	if c.UI.RefreshFPS <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(c.UI.RefreshFPS)
}

// Clone returns a copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
