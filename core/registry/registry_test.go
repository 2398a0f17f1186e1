package registry

import (
	"os"
	"path/filepath"
	"testing"

	"exoml-server/core/apperr"
	"exoml-server/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	reg := Default()

	assert.Equal(t, []string{"K2", "Kepler", "TESS"}, reg.IDs())

	ids := []string{}
	for _, spec := range reg.Models() {
		ids = append(ids, spec.ID)
		assert.NotEmpty(t, spec.Features, spec.ID)
	}
	assert.Equal(t, []string{"Kepler", "TESS", "K2"}, ids)
}

func TestLookup(t *testing.T) {
	reg := Default()

	spec, err := reg.Lookup("tess")
	require.NoError(t, err)
	assert.Equal(t, "TESS", spec.ID)
	assert.Equal(t, models.FamilyTransit, spec.Family)

	_, err = reg.Lookup("Hubble")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLookupReturnsCopy(t *testing.T) {
	reg := Default()

	spec, err := reg.Lookup("Kepler")
	require.NoError(t, err)
	spec.Features[0].Name = "changed"

	again, err := reg.Lookup("Kepler")
	require.NoError(t, err)
	assert.Equal(t, "koi_score", again.Features[0].Name)
}

func TestNew_Validation(t *testing.T) {
	theory := []struct {
		name string
		spec models.ModelSpec
	}{
		{"missing id", models.ModelSpec{}},
		{"unnamed feature", models.ModelSpec{ID: "m", Features: []models.FeatureSpec{{Min: 0, Max: 1}}}},
		{"duplicate feature", models.ModelSpec{ID: "m", Features: []models.FeatureSpec{
			{Name: "a", Min: 0, Max: 1},
			{Name: "a", Min: 0, Max: 1},
		}}},
		{"empty range", models.ModelSpec{ID: "m", Features: []models.FeatureSpec{{Name: "a", Min: 1, Max: 1, Default: 1}}}},
		{"default out of range", models.ModelSpec{ID: "m", Features: []models.FeatureSpec{{Name: "a", Min: 0, Max: 1, Default: 2}}}},
	}
	for _, tt := range theory {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.spec)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
}

func TestLoad_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
models:
  - id: Kepler
    model_type: Kepler retrained
    family: disposition
    features:
      - name: koi_score
        min: 0
        max: 1
        default: 0.4
  - id: CoRoT
    model_type: CoRoT classifier
    family: transit
    features:
      - name: pl_trandep
        min: 0
        max: 20000
        default: 1000
`), 0o644))

	reg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"CoRoT", "K2", "Kepler", "TESS"}, reg.IDs())

	kepler, err := reg.Lookup("Kepler")
	require.NoError(t, err)
	assert.Equal(t, "Kepler retrained", kepler.ModelType)
	require.Len(t, kepler.Features, 1)
	assert.Equal(t, 0.4, kepler.Features[0].Default)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("models: [\n"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	reg, err := Load("")
	require.NoError(t, err)
	assert.Len(t, reg.Models(), 3)
}

func TestLookup_CaseFoldPrefersFirstRegistered(t *testing.T) {
	feature := []models.FeatureSpec{{Name: "koi_score", Min: 0, Max: 1, Default: 0.5}}
	reg, err := New(
		models.ModelSpec{ID: "Kepler", ModelType: "first", Features: feature},
		models.ModelSpec{ID: "kepler", ModelType: "second", Features: feature},
	)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		spec, err := reg.Lookup("KEPLER")
		require.NoError(t, err)
		require.Equal(t, "first", spec.ModelType)
	}

	exact, err := reg.Lookup("kepler")
	require.NoError(t, err)
	assert.Equal(t, "second", exact.ModelType)
}
