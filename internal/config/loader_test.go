package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "./models", cfg.ModelDir)
	assert.Equal(t, 30, cfg.Analysis.WindowDays)
	assert.Equal(t, 9, cfg.Analysis.WorkStartHour)
	assert.Equal(t, 18, cfg.Analysis.WorkEndHour)
	assert.Equal(t, []int{0, 6}, cfg.Analysis.WeekendDays)
	assert.Equal(t, 5, cfg.Analysis.HighValuePoints)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TEAMPULSE_ADDR", ":9999")
	t.Setenv("TEAMPULSE_MODEL_DIR", "/tmp/models")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "/tmp/models", cfg.ModelDir)
	// Untouched keys keep their defaults.
	assert.Equal(t, "./data", cfg.DataDir)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("addr: \":7070\"\nanalysis:\n  window_days: 14\n  work_start_hour: 8\n  work_end_hour: 17\n")
	require.NoError(t, os.WriteFile(path, body, 0o644))
	t.Setenv("TEAMPULSE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, 14, cfg.Analysis.WindowDays)
	assert.Equal(t, 8, cfg.Analysis.WorkStartHour)
	assert.Equal(t, 17, cfg.Analysis.WorkEndHour)
}

func TestLoadRejectsBadWorkHours(t *testing.T) {
	t.Setenv("TEAMPULSE_CONFIG", "")
	t.Setenv("TEAMPULSE_ANALYSIS.WORK_START_HOUR", "")

	cfg := New()
	cfg.Analysis.WorkStartHour = 20
	cfg.Analysis.WorkEndHour = 9
	assert.Error(t, validate(cfg))

	cfg = New()
	cfg.Analysis.WindowDays = 0
	assert.Error(t, validate(cfg))

	cfg = New()
	cfg.Analysis.WeekendDays = []int{7}
	assert.Error(t, validate(cfg))
}
