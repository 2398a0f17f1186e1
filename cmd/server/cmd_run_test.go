package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"exoml-server/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand_StdoutIsOnlyTheReport(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs the false utility")
	}

	dir := t.TempDir()
	notebooks := filepath.Join(dir, "Notebooks")
	require.NoError(t, os.Mkdir(notebooks, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(notebooks, "TESS.ipynb"), []byte(`{"cells": []}`), 0o644))

	t.Setenv("EXOML_CONFIG", "")
	t.Setenv("NOTEBOOKS_DIR", notebooks)
	t.Setenv("DATABASE_URL", filepath.Join(dir, "exoml.sqlite3"))
	t.Setenv("JUPYTER_BIN", "false")
	t.Setenv("LOG_OUTPUT", "stdout")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ARTIFACT_BUCKET", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"run", "TESS.ipynb"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	assert.Error(t, err, "a failed run exits non-zero")

	var report models.ExecutionReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report), out.String())
	assert.False(t, report.Success)
	assert.Equal(t, "TESS.ipynb", report.JobIdentifier)
	assert.Equal(t, "TESS", report.DatasetTag)
}
