package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ENV", "PORT", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
		"MEETING_API_URL", "INVITE_ORIGIN", "DISCORD_WEBHOOK_URL", "DISCORD_SILENT",
		"ANALYSIS_ENDPOINT", "SUPABASE_URL", "SUPABASE_ANON_KEY",
		"RECORDINGS_DIR", "FFMPEG_PATH", "AUDIO_INPUT_FORMAT", "AUDIO_DEVICE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Server.Env)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "http://localhost:4000/run-analysis", cfg.Analysis.Endpoint)
	assert.Equal(t, "./recordings", cfg.Recording.Dir)
	assert.False(t, cfg.RealtimeEnabled())
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, ":8000", cfg.GetServerAddr())
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadConfig_EnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("PORT")
	os.Unsetenv("SUPABASE_URL")
	os.Unsetenv("SUPABASE_ANON_KEY")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"PORT=9100\nSUPABASE_URL=https://abc.supabase.co\nSUPABASE_ANON_KEY=anon-key-123456\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("SUPABASE_URL")
		os.Unsetenv("SUPABASE_ANON_KEY")
	})

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.True(t, cfg.RealtimeEnabled())
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadConfig_MissingEnvFileIsIgnored(t *testing.T) {
	clearEnv(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestValidateConfig_CollectsAllProblems(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	cfg.Server.Port = "70000"
	cfg.Log.Level = "verbose"
	cfg.Log.Format = "xml"
	cfg.Server.Env = "qa"
	cfg.Analysis.Endpoint = "localhost:4000"
	cfg.Realtime.ProjectURL = "https://abc.supabase.co"
	cfg.Meeting.DiscordWebhookURL = "https://example.com/hook"

	err = ValidateConfig(cfg)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "configuration validation failed")
	assert.Contains(t, msg, "invalid PORT")
	assert.Contains(t, msg, "invalid LOG_LEVEL")
	assert.Contains(t, msg, "invalid LOG_FORMAT")
	assert.Contains(t, msg, "invalid ENV")
	assert.Contains(t, msg, "invalid ANALYSIS_ENDPOINT")
	assert.Contains(t, msg, "must be set together")
	assert.Contains(t, msg, "invalid DISCORD_WEBHOOK_URL")
}

func TestPrintConfig_MasksSecrets(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	cfg.Realtime.APIKey = "supersecretanonkey"

	out := cfg.PrintConfig()
	assert.NotContains(t, out, "supersecretanonkey")
	assert.Contains(t, out, "supe***nkey")
	assert.Contains(t, out, "Discord Webhook: <not set>")
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "<not set>", maskSecret(""))
	assert.Equal(t, "***", maskSecret("short"))
	assert.Equal(t, "abcd***wxyz", maskSecret("abcdefghijklmnopqrstuvwxyz"))
}
