package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"DB_DRIVER", "DB_DSN", "OLLAMA_MODEL", "OCR_LANGUAGE", "PIPELINE_WORKERS"} {
		t.Setenv(key, "")
	}
	cfg := LoadConfig()
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "nfse.db", cfg.Database.DSN)
	require.Equal(t, "llava:13b", cfg.Extractor.Model)
	require.Equal(t, "por", cfg.Extractor.OCRLanguage)
	require.Equal(t, 4, cfg.Pipeline.Workers)
	require.NoError(t, cfg.Validate())
}

func TestMergeFileOverlaysValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"database:\n  driver: postgres\n  dsn: postgres://localhost/nfse\npipeline:\n  workers: 8\n"), 0o644))

	cfg := LoadConfig()
	require.NoError(t, cfg.MergeFile(path))
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "postgres://localhost/nfse", cfg.Database.DSN)
	require.Equal(t, 8, cfg.Pipeline.Workers)
	require.Equal(t, "llava:13b", cfg.Extractor.Model)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := LoadConfig()
	cfg.Database.Driver = "oracle"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroWorkers(t *testing.T) {
	cfg := LoadConfig()
	cfg.Pipeline.Workers = 0
	require.Error(t, cfg.Validate())
}
