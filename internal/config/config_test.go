// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/nova-tui/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"NOVA_API_KEY", "GEMINI_API_KEY", "API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, model.DefaultModel, cfg.DefaultModel)
	assert.Equal(t, "pt-BR", cfg.UI.Language)
	assert.True(t, cfg.UI.Welcome)
	assert.Nil(t, cfg.ThinkingBudgetOverride())
	assert.Equal(t, time.Second/30, cfg.RefreshInterval())
	assert.Equal(t, 60*time.Second, cfg.SpeechTimeout())
}

func TestLoadFromPath_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
default_model = "gemini-3-pro-preview"
thinking_enabled = true
thinking_budget = 2048

[ui]
language = "en"
welcome = false

[speech]
voice = "Puck"
`)
	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, model.ModelPro, cfg.DefaultModel)
	assert.True(t, cfg.ThinkingEnabled)
	require.NotNil(t, cfg.ThinkingBudgetOverride())
	assert.Equal(t, 2048, *cfg.ThinkingBudgetOverride())
	assert.Equal(t, "en", cfg.UI.Language)
	assert.False(t, cfg.UI.Welcome)
	assert.Equal(t, "Puck", cfg.Speech.Voice)

	assert.Equal(t, 30, cfg.UI.RefreshFPS)
	assert.Equal(t, "gemini-2.5-flash-preview-tts", cfg.Speech.Model)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromPath_Invalid(t *testing.T) {
	path := writeConfig(t, `
default_model = "gpt-4"
thinking_budget = -1

[ui]
refresh_fps = 500

[log]
level = "loud"
`)
	_, err := LoadFromPath(path)
	require.Error(t, err)

	var verrs ValidateErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"default_model", "thinking_budget", "ui.refresh_fps", "log.level"}, fields)
}

func TestLoadFromPath_Malformed(t *testing.T) {
	path := writeConfig(t, "default_model = \n")
	_, err := LoadFromPath(path)
	assert.ErrorContains(t, err, "failed to decode TOML")
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("NOVA_MODEL", model.ModelFlashLite)
	t.Setenv("NOVA_THINKING", "true")
	t.Setenv("NOVA_LANGUAGE", "en")
	t.Setenv("NOVA_LOG_LEVEL", "debug")
	t.Setenv("NOVA_PLAYER", PlayerNone)

	cfg := Default()
	require.NoError(t, cfg.ApplyEnvOverrides())
	assert.Equal(t, model.ModelFlashLite, cfg.DefaultModel)
	assert.True(t, cfg.ThinkingEnabled)
	assert.Equal(t, "en", cfg.UI.Language)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, PlayerNone, cfg.Speech.PlayerCommand)
	assert.Equal(t, "Kore", cfg.Speech.Voice, "unset variables leave values alone")
}

func TestApplyEnvOverrides_BadValue(t *testing.T) {
	t.Setenv("NOVA_THINKING", "maybe")
	assert.Error(t, Default().ApplyEnvOverrides())
}

func TestAPIKey_Precedence(t *testing.T) {
	clearKeyEnv(t)
	cfg := Default()
	assert.Empty(t, cfg.APIKey())

	cfg.API.Key = " from-file "
	assert.Equal(t, "from-file", cfg.APIKey())

	t.Setenv("API_KEY", "plain")
	assert.Equal(t, "plain", cfg.APIKey())

	t.Setenv("GEMINI_API_KEY", "gemini")
	assert.Equal(t, "gemini", cfg.APIKey())

	t.Setenv("NOVA_API_KEY", "nova")
	assert.Equal(t, "nova", cfg.APIKey())
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	clearKeyEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.DefaultModel = model.ModelPro
	cfg.API.Key = "secret"
	cfg.UI.WordWrap = 80
	require.NoError(t, SaveTOML(cfg, path))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, "secret", loaded.APIKey())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".nova", "nova.log"), ExpandPath("~/.nova/nova.log"))
	assert.Equal(t, "/tmp/x", ExpandPath("/tmp/x"))
	assert.Equal(t, "~user/x", ExpandPath("~user/x"))
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "thinking_enabled = false\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, Watch(ctx, path, 20*time.Millisecond, logger, func(c *Config) { got <- c }))

	// An invalid intermediate state is skipped.
	require.NoError(t, os.WriteFile(path, []byte("default_model = \"nope\"\n"), 0o600))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("thinking_enabled = true\n"), 0o600))

	select {
	case cfg := <-got:
		assert.True(t, cfg.ThinkingEnabled)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload observed")
	}
}
