package interpreter

import (
	"errors"
	"testing"

	"exoml-server/core/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMetrics(t *testing.T) {
	loc := &fakeLocator{
		metrics: "static/results/Kepler_metrics.json",
		files: map[string]string{
			"static/results/Kepler_metrics.json": `{
				"xgboost": {"accuracy": 0.91, "precision": 0.9, "recall": 0.88, "f1": 0.89},
				"random_forest": {"accuracy": 0.93, "precision": 0.92, "recall": 0.9, "f1_score": 0.91, "auc": 0.97}
			}`,
		},
	}

	stored, err := newTestInterpreter(loc).ReadMetrics(notebook)
	require.NoError(t, err)

	assert.Equal(t, "Kepler", stored.Dataset)
	assert.Equal(t, "static/results/Kepler_metrics.json", stored.File)
	require.Len(t, stored.Models, 2)
	assert.Equal(t, "xgboost", stored.Models[0].Model)
	assert.Equal(t, 89.0, stored.Models[0].Metrics["f1_score"])
	assert.Equal(t, 97.0, stored.Models[1].Metrics["auc"])
	require.NotNil(t, stored.BestModel)
	assert.Equal(t, "random_forest", *stored.BestModel)
}

func TestReadMetrics_Errors(t *testing.T) {
	theory := []struct {
		name    string
		dataset string
		loc     *fakeLocator
		wantErr error
	}{
		{"no file", "Kepler", &fakeLocator{}, apperr.ErrNotFound},
		{"empty dataset", " ", &fakeLocator{}, apperr.ErrInvalidInput},
		{"path escape", "../secrets", &fakeLocator{}, apperr.ErrInvalidInput},
		{"parent only", "..", &fakeLocator{}, apperr.ErrInvalidInput},
	}
	for _, tt := range theory {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestInterpreter(tt.loc).ReadMetrics(tt.dataset)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	broken := &fakeLocator{
		metrics: "Kepler_metrics.json",
		files:   map[string]string{"Kepler_metrics.json": `[1, 2]`},
	}
	_, err := newTestInterpreter(broken).ReadMetrics("Kepler")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)

	_, err = newTestInterpreter(&fakeLocator{err: errors.New("disk gone")}).ReadMetrics("Kepler")
	assert.Error(t, err)
}

func TestReadTopFeatures(t *testing.T) {
	loc := &fakeLocator{
		topFeatures: []string{"static/results/TESS_rf_top_features.json", "static/results/TESS_xgb_top_features.json"},
		files: map[string]string{
			"static/results/TESS_rf_top_features.json":  `["pl_rade", "st_teff"]`,
			"static/results/TESS_xgb_top_features.json": `{"pl_orbper": 0.4}`,
		},
	}

	stored, err := newTestInterpreter(loc).ReadTopFeatures("TESS.ipynb")
	require.NoError(t, err)

	assert.Equal(t, "TESS", stored.Dataset)
	require.Len(t, stored.Rankings, 2)
	assert.Equal(t, "static/results/TESS_rf_top_features.json", stored.Rankings[0].File)
	assert.JSONEq(t, `["pl_rade", "st_teff"]`, string(stored.Rankings[0].Content))
	assert.JSONEq(t, `{"pl_orbper": 0.4}`, string(stored.Rankings[1].Content))
}

func TestReadTopFeatures_Errors(t *testing.T) {
	_, err := newTestInterpreter(&fakeLocator{}).ReadTopFeatures("TESS")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = newTestInterpreter(&fakeLocator{}).ReadTopFeatures("a/b")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	invalid := &fakeLocator{
		topFeatures: []string{"TESS_top_features.json"},
		files:       map[string]string{"TESS_top_features.json": `not json`},
	}
	_, err = newTestInterpreter(invalid).ReadTopFeatures("TESS")
	assert.Error(t, err)

	missing := &fakeLocator{topFeatures: []string{"gone.json"}}
	_, err = newTestInterpreter(missing).ReadTopFeatures("TESS")
	assert.Error(t, err)
}
