package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLayout(t *testing.T) Layout {
	t.Helper()
	root := t.TempDir()
	layout := Layout{
		ResultsDir: filepath.Join(root, "results"),
		ModelsDir:  filepath.Join(root, "models"),
		PlotsDir:   filepath.Join(root, "plots"),
	}
	for _, dir := range []string{layout.ResultsDir, layout.ModelsDir, layout.PlotsDir} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	return layout
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	return path
}

func TestFSLocator_SingleFiles(t *testing.T) {
	layout := newTestLayout(t)
	loc := NewFSLocator(layout)

	metrics := touch(t, layout.ResultsDir, "Kepler_metrics.json")
	require.NoError(t, os.Mkdir(filepath.Join(layout.ResultsDir, "Kepler_feature_medians.json"), 0o755))

	got, err := loc.MetricsFile("Kepler")
	require.NoError(t, err)
	assert.Equal(t, metrics, got)

	got, err = loc.TrainingColumnsFile("Kepler")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = loc.FeatureMediansFile("Kepler")
	require.NoError(t, err)
	assert.Empty(t, got, "directories are not artifacts")

	got, err = loc.MetricsFile("TESS")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFSLocator_Scans(t *testing.T) {
	layout := newTestLayout(t)
	loc := NewFSLocator(layout)

	rf := touch(t, layout.ModelsDir, "Kepler_rf_pipeline.pkl")
	xgb := touch(t, layout.ModelsDir, "Kepler_xgb_pipeline.pkl")
	touch(t, layout.ModelsDir, "Kepler_scaler.pkl")
	touch(t, layout.ModelsDir, "TESS_rf_pipeline.pkl")

	roc := touch(t, layout.PlotsDir, "Kepler_roc_curve.png")
	cm := touch(t, layout.PlotsDir, "Kepler_confusion_matrix.PNG")
	touch(t, layout.PlotsDir, "Kepler_roc_curve.svg")

	top := touch(t, layout.ResultsDir, "Kepler_rf_top_features.json")
	touch(t, layout.ResultsDir, "Kepler_top_features.csv")
	touch(t, layout.ResultsDir, "TESS_top_features.json")

	models, err := loc.ModelFiles("Kepler")
	require.NoError(t, err)
	assert.Equal(t, []string{rf, xgb}, models)

	plots, err := loc.PlotFiles("Kepler")
	require.NoError(t, err)
	assert.Equal(t, []string{cm, roc}, plots)

	tops, err := loc.TopFeaturesFiles("Kepler")
	require.NoError(t, err)
	assert.Equal(t, []string{top}, tops)
}

func TestFSLocator_MissingDirectories(t *testing.T) {
	root := t.TempDir()
	loc := NewFSLocator(Layout{
		ResultsDir: filepath.Join(root, "nope", "results"),
		ModelsDir:  filepath.Join(root, "nope", "models"),
		PlotsDir:   filepath.Join(root, "nope", "plots"),
	})

	models, err := loc.ModelFiles("Kepler")
	require.NoError(t, err)
	assert.Equal(t, []string{}, models)

	plots, err := loc.PlotFiles("Kepler")
	require.NoError(t, err)
	assert.Equal(t, []string{}, plots)

	metrics, err := loc.MetricsFile("Kepler")
	require.NoError(t, err)
	assert.Empty(t, metrics)
}

func TestDefaultLayout(t *testing.T) {
	layout := DefaultLayout()
	assert.Equal(t, filepath.Join("static", "results"), layout.ResultsDir)
	assert.Equal(t, layout, NewFSLocator(layout).Layout())
}
