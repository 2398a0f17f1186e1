package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"exoml-server/core/apperr"
	"exoml-server/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func samplePrediction(model string, p float64) *models.PredictionRecord {
	return &models.PredictionRecord{
		Dataset:     model,
		Model:       model,
		Features:    map[string]any{"koi_score": 0.9},
		Probability: p,
		Label:       models.LabelCandidate,
		Raw:         &models.Explanation{Family: models.FamilyDisposition, BaseScore: p},
	}
}

func TestPredictionRepository_RecordAndRecent(t *testing.T) {
	repo := NewPredictionRepository(newTestDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		id, err := repo.Record(ctx, samplePrediction(fmt.Sprintf("m%d", i), 0.1*float64(i)))
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), id)
	}

	recent, err := repo.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []string{"m4", "m3", "m2"}, []string{recent[0].Model, recent[1].Model, recent[2].Model})

	first := recent[0]
	assert.Equal(t, int64(5), first.ID)
	assert.Equal(t, models.LabelCandidate, first.Label)
	assert.Equal(t, map[string]any{"koi_score": 0.9}, first.Features)
	require.NotNil(t, first.Raw)
	assert.Equal(t, models.FamilyDisposition, first.Raw.Family)
	assert.False(t, first.CreatedAt.IsZero())
}

func TestPredictionRepository_DefaultLimitAndEmpty(t *testing.T) {
	repo := NewPredictionRepository(newTestDB(t))

	recent, err := repo.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, recent)
	assert.Empty(t, recent)
}

func TestPredictionRepository_NilRaw(t *testing.T) {
	repo := NewPredictionRepository(newTestDB(t))
	ctx := context.Background()

	rec := samplePrediction("K2", 0.3)
	rec.Raw = nil
	_, err := repo.Record(ctx, rec)
	require.NoError(t, err)

	recent, err := repo.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Nil(t, recent[0].Raw)
}

func TestPredictionRepository_ClearAll(t *testing.T) {
	repo := NewPredictionRepository(newTestDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Record(ctx, samplePrediction("TESS", 0.5))
		require.NoError(t, err)
	}

	deleted, err := repo.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	recent, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestPredictionRepository_ConcurrentRecord(t *testing.T) {
	repo := NewPredictionRepository(newTestDB(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Record(ctx, samplePrediction("Kepler", 0.6))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	recent, err := repo.Recent(ctx, 100)
	require.NoError(t, err)
	require.Len(t, recent, 20)
	for i := 1; i < len(recent); i++ {
		assert.Greater(t, recent[i-1].ID, recent[i].ID)
	}
}

func sampleReport(success bool) *models.ExecutionReport {
	report := &models.ExecutionReport{
		Success:              success,
		JobIdentifier:        "Kepler_Exoplanet_Modeling_FlaskReady.ipynb",
		DatasetTag:           "Kepler",
		ExecutionTimeSeconds: 12.5,
		Timestamp:            "2026-03-01T12:00:00Z",
	}
	if success {
		best := "rf"
		report.Message = "Notebook executed successfully"
		report.Results = &models.Results{ModelsTrained: []string{"rf"}, BestModel: &best, Metrics: map[string]float64{"accuracy": 91}}
		report.Artifacts = &models.Artifacts{}
	} else {
		report.Message = "Execution time exceeded 300s limit"
		report.ErrorDetails = &models.ErrorDetails{ErrorType: "TimeoutError", ErrorMessage: report.Message, TimeoutLimitSeconds: 300}
		report.Troubleshooting = []string{"Increase NOTEBOOK_TIMEOUT (current: 300s)"}
	}
	return report
}

func TestRunRepository(t *testing.T) {
	repo := NewRunRepository(newTestDB(t))
	ctx := context.Background()

	ok, err := repo.Record(ctx, sampleReport(true))
	require.NoError(t, err)
	failed, err := repo.Record(ctx, sampleReport(false))
	require.NoError(t, err)
	assert.NotEqual(t, ok.ID, failed.ID)
	assert.Equal(t, "TimeoutError", failed.ErrorType)

	runs, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, failed.ID, runs[0].ID)
	assert.Equal(t, "TimeoutError", runs[0].ErrorType)
	assert.Nil(t, runs[0].Report)
	assert.True(t, runs[1].Success)
	assert.Empty(t, runs[1].ErrorType)

	got, err := repo.Get(ctx, ok.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Report)
	assert.Equal(t, "Kepler", got.Dataset)
	assert.Equal(t, 12.5, got.ExecutionTimeSeconds)
	require.NotNil(t, got.Report.Results.BestModel)
	assert.Equal(t, "rf", *got.Report.Results.BestModel)

	_, err = repo.Get(ctx, "no-such-run")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRebind(t *testing.T) {
	pg := Wrap(nil, DriverPostgres)
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.Rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := Wrap(nil, DriverSQLite)
	assert.Equal(t, "SELECT ?", lite.Rebind("SELECT ?"))
}

func TestParseDatabaseURL(t *testing.T) {
	theory := []struct {
		url        string
		wantDriver Driver
		wantDSN    string
	}{
		{"postgres://u:p@db/exoml?sslmode=disable", DriverPostgres, "postgres://u:p@db/exoml?sslmode=disable"},
		{"postgresql://db/exoml", DriverPostgres, "postgresql://db/exoml"},
		{":memory:", DriverSQLite, ":memory:"},
		{"sqlite://data/exoml.db", DriverSQLite, "data/exoml.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
		{"", DriverSQLite, "exoml.sqlite3?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
	}
	for _, tt := range theory {
		t.Run(tt.url, func(t *testing.T) {
			driver, dsn := parseDatabaseURL(tt.url)
			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.wantDSN, dsn)
		})
	}
}

func TestStatus(t *testing.T) {
	db := newTestDB(t)
	assert.Equal(t, "connected", db.Status(context.Background()))

	var missing *DB
	assert.Equal(t, "disconnected", missing.Status(context.Background()))
}
