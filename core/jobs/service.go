package jobs

import (
	"context"
	"sync"
	"time"

	"exoml-server/core/executor"
	"exoml-server/core/interpreter"
	"exoml-server/core/models"
	"exoml-server/core/monitoring"
	"exoml-server/storage"

	"go.uber.org/zap"
)

// archive uploads get their own budget, detached from the request
const archiveTimeout = 2 * time.Minute

// Runner executes a notebook
type Runner interface {
	ResolveNotebook(name string) (string, error)
	ListNotebooks() ([]string, error)
	Run(ctx context.Context, notebookPath string) executor.Result
	Timeout() time.Duration
}

// RunRecorder persists execution reports
type RunRecorder interface {
	Record(ctx context.Context, report *models.ExecutionReport) (*models.RunRecord, error)
}

// Service runs a notebook end to end: execute, interpret, record, archive.
// Concurrent runs of the same notebook write to the same artifact paths; the
// report of each reflects whatever is on disk when it finishes.
type Service struct {
	runner      Runner
	interpreter *interpreter.Interpreter
	runs        RunRecorder
	archiver    storage.Archiver
	metrics     *monitoring.Metrics
	logger      *zap.Logger

	pending sync.WaitGroup
}

// NewService wires the training pipeline. runs, archiver and metrics may be nil.
func NewService(
	runner Runner,
	interp *interpreter.Interpreter,
	runs RunRecorder,
	archiver storage.Archiver,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Service {
	if archiver == nil {
		archiver = storage.NopArchiver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		runner:      runner,
		interpreter: interp,
		runs:        runs,
		archiver:    archiver,
		metrics:     metrics,
		logger:      logger,
	}
}

// Outcome is what a caller gets back from RunNotebook
type Outcome struct {
	Report *models.ExecutionReport
	RunID  string
}

// ListNotebooks returns the notebooks available to run
func (s *Service) ListNotebooks() ([]string, error) {
	return s.runner.ListNotebooks()
}

// RunNotebook executes the named notebook and returns its report.
// Errors are only returned for a bad or unknown notebook name; a failed or
// timed-out run is a report with Success=false.
func (s *Service) RunNotebook(ctx context.Context, name string) (*Outcome, error) {
	path, err := s.runner.ResolveNotebook(name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := s.runner.Run(ctx, path)
	report := s.interpreter.Interpret(name, result, start, s.runner.Timeout())

	log := s.logger.With(
		zap.String("notebook", name),
		zap.String("dataset", report.DatasetTag),
		zap.Bool("success", report.Success))
	if report.ErrorDetails != nil {
		log = log.With(zap.String("error_type", report.ErrorDetails.ErrorType))
	}
	log.Info("notebook run interpreted", zap.Float64("execution_time_seconds", report.ExecutionTimeSeconds))

	if s.metrics != nil {
		s.metrics.ObserveRun(report)
	}

	outcome := &Outcome{Report: report}

	if s.runs != nil {
		// the run happened even if the caller went away
		rec, err := s.runs.Record(context.WithoutCancel(ctx), report)
		if err != nil {
			log.Error("failed to record run", zap.Error(err))
		} else {
			outcome.RunID = rec.ID
		}
	}

	if report.Success && outcome.RunID != "" {
		paths := report.Artifacts.Paths()
		if len(paths) > 0 {
			s.pending.Add(1)
			go s.archive(outcome.RunID, report.DatasetTag, paths)
		}
	}

	return outcome, nil
}

// Wait blocks until background archive uploads have finished
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) archive(runID, tag string, paths []string) {
	defer s.pending.Done()

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	if _, err := s.archiver.Archive(ctx, runID, tag, paths); err != nil {
		s.logger.Warn("failed to archive artifacts",
			zap.String("run_id", runID),
			zap.String("dataset", tag),
			zap.Error(err))
	}
}
