package config

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SCOREBOARD_HERO_MODEL", "SCOREBOARD_PROBA_MODEL", "SCOREBOARD_OCR_WORKERS",
		"SCOREBOARD_OCR_LANG", "SCOREBOARD_TESSDATA", "SCOREBOARD_CALL_TIMEOUT",
		"SCOREBOARD_OWN_TEAM_ONLY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "", cfg.HeroModelPath)
	assert.Equal(t, "", cfg.ProbaModelPath)
	assert.Equal(t, runtime.NumCPU(), cfg.OCRWorkers)
	assert.Equal(t, "eng", cfg.OCRLanguage)
	assert.Equal(t, time.Duration(0), cfg.CallTimeout)
	assert.False(t, cfg.OwnTeamOnly)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCOREBOARD_HERO_MODEL", "/models/heroes.onnx")
	t.Setenv("SCOREBOARD_PROBA_MODEL", "/models/win.json")
	t.Setenv("SCOREBOARD_OCR_WORKERS", "3")
	t.Setenv("SCOREBOARD_OCR_LANG", "deu")
	t.Setenv("SCOREBOARD_TESSDATA", "/usr/share/tessdata")
	t.Setenv("SCOREBOARD_CALL_TIMEOUT", "15s")
	t.Setenv("SCOREBOARD_OWN_TEAM_ONLY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/models/heroes.onnx", cfg.HeroModelPath)
	assert.Equal(t, "/models/win.json", cfg.ProbaModelPath)
	assert.Equal(t, 3, cfg.OCRWorkers)
	assert.Equal(t, "deu", cfg.OCRLanguage)
	assert.Equal(t, "/usr/share/tessdata", cfg.TessdataPrefix)
	assert.Equal(t, 15*time.Second, cfg.CallTimeout)
	assert.True(t, cfg.OwnTeamOnly)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCOREBOARD_OCR_WORKERS", "many")
	t.Setenv("SCOREBOARD_CALL_TIMEOUT", "soon")
	t.Setenv("SCOREBOARD_OWN_TEAM_ONLY", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, runtime.NumCPU(), cfg.OCRWorkers)
	assert.Equal(t, time.Duration(0), cfg.CallTimeout)
	assert.False(t, cfg.OwnTeamOnly)
}

func TestLoadRejectsInvalidRanges(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero workers", "SCOREBOARD_OCR_WORKERS", "0"},
		{"negative timeout", "SCOREBOARD_CALL_TIMEOUT", "-1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
