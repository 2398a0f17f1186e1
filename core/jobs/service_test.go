package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"exoml-server/core/apperr"
	"exoml-server/core/executor"
	"exoml-server/core/interpreter"
	"exoml-server/core/models"
	"exoml-server/core/monitoring"
	"exoml-server/storage"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	notebooks map[string]bool
	result    executor.Result
	ran       []string
}

func (f *fakeRunner) ResolveNotebook(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("notebook name is required: %w", apperr.ErrInvalidInput)
	}
	if !f.notebooks[name] {
		return "", fmt.Errorf("notebook %q: %w", name, apperr.ErrNotFound)
	}
	return "/nb/" + name, nil
}

func (f *fakeRunner) ListNotebooks() ([]string, error) {
	names := []string{}
	for name := range f.notebooks {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeRunner) Run(_ context.Context, path string) executor.Result {
	f.ran = append(f.ran, path)
	return f.result
}

func (f *fakeRunner) Timeout() time.Duration { return 300 * time.Second }

type emptyLocator struct {
	models []string
}

func (emptyLocator) MetricsFile(string) (string, error)         { return "", nil }
func (emptyLocator) TrainingColumnsFile(string) (string, error) { return "", nil }
func (emptyLocator) FeatureMediansFile(string) (string, error)  { return "", nil }
func (emptyLocator) TopFeaturesFiles(string) ([]string, error)  { return nil, nil }
func (l emptyLocator) ModelFiles(string) ([]string, error)      { return l.models, nil }
func (emptyLocator) PlotFiles(string) ([]string, error)         { return nil, nil }
func (emptyLocator) ReadFile(string) ([]byte, error)            { return nil, errors.New("no files") }

type fakeRecorder struct {
	err     error
	reports []*models.ExecutionReport
}

func (f *fakeRecorder) Record(_ context.Context, report *models.ExecutionReport) (*models.RunRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.reports = append(f.reports, report)
	return &models.RunRecord{ID: fmt.Sprintf("run-%d", len(f.reports))}, nil
}

type fakeArchiver struct {
	mu    sync.Mutex
	calls chan []string
}

func (f *fakeArchiver) Archive(_ context.Context, runID, tag string, paths []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls <- append([]string{runID, tag}, paths...)
	return paths, nil
}

const kepler = "Kepler_Exoplanet_Modeling_FlaskReady.ipynb"

func newService(runner *fakeRunner, loc emptyLocator, rec RunRecorder, arch *fakeArchiver, m *monitoring.Metrics) *Service {
	var archiver storage.Archiver
	if arch != nil {
		archiver = arch
	}
	return NewService(runner, interpreter.New(loc, nil), rec, archiver, m, nil)
}

func TestRunNotebook_Success(t *testing.T) {
	runner := &fakeRunner{notebooks: map[string]bool{kepler: true}, result: executor.Result{ExitCode: 0}}
	recorder := &fakeRecorder{}
	archiver := &fakeArchiver{calls: make(chan []string, 1)}
	metrics := monitoring.NewMetrics()

	svc := newService(runner, emptyLocator{models: []string{"static/models/Kepler_rf_pipeline.pkl"}}, recorder, archiver, metrics)

	outcome, err := svc.RunNotebook(context.Background(), kepler)
	require.NoError(t, err)

	assert.True(t, outcome.Report.Success)
	assert.Equal(t, "Kepler", outcome.Report.DatasetTag)
	assert.Equal(t, "run-1", outcome.RunID)
	assert.Equal(t, []string{"/nb/" + kepler}, runner.ran)
	require.Len(t, recorder.reports, 1)
	assert.Same(t, outcome.Report, recorder.reports[0])

	select {
	case call := <-archiver.calls:
		assert.Equal(t, []string{"run-1", "Kepler", "static/models/Kepler_rf_pipeline.pkl"}, call)
	case <-time.After(2 * time.Second):
		t.Fatal("artifacts were not archived")
	}

	done := make(chan struct{})
	go func() {
		svc.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after the archive finished")
	}

	count, err := testutil.GatherAndCount(metrics.Registry(), "exoml_notebook_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunNotebook_FailureIsReportNotError(t *testing.T) {
	runner := &fakeRunner{
		notebooks: map[string]bool{kepler: true},
		result:    executor.Result{ExitCode: 1, Stderr: "ValueError: bad input"},
	}
	recorder := &fakeRecorder{}
	archiver := &fakeArchiver{calls: make(chan []string, 1)}

	outcome, err := newService(runner, emptyLocator{}, recorder, archiver, nil).RunNotebook(context.Background(), kepler)
	require.NoError(t, err)

	assert.False(t, outcome.Report.Success)
	assert.Equal(t, "ValueError", outcome.Report.ErrorDetails.ErrorType)
	assert.Len(t, recorder.reports, 1)
	assert.Empty(t, archiver.calls)
}

func TestRunNotebook_ResolveErrors(t *testing.T) {
	runner := &fakeRunner{notebooks: map[string]bool{}}
	svc := newService(runner, emptyLocator{}, nil, nil, nil)

	_, err := svc.RunNotebook(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.RunNotebook(context.Background(), "TESS.ipynb")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, runner.ran)
}

func TestRunNotebook_RecordFailureStillReports(t *testing.T) {
	runner := &fakeRunner{notebooks: map[string]bool{kepler: true}, result: executor.Result{ExitCode: 0}}
	archiver := &fakeArchiver{calls: make(chan []string, 1)}

	svc := newService(runner, emptyLocator{models: []string{"m_pipeline.pkl"}}, &fakeRecorder{err: errors.New("disk full")}, archiver, nil)

	outcome, err := svc.RunNotebook(context.Background(), kepler)
	require.NoError(t, err)
	assert.True(t, outcome.Report.Success)
	assert.Empty(t, outcome.RunID)
	assert.Empty(t, archiver.calls)
}
