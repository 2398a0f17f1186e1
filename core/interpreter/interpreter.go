package interpreter

import (
	"math"
	"strings"
	"time"

	"exoml-server/core/executor"
	"exoml-server/core/models"

	"go.uber.org/zap"
)

// DefaultSuffixes are stripped from a notebook name to get its dataset tag.
// The first match wins.
var DefaultSuffixes = []string{"_Exoplanet_Modeling_FlaskReady.ipynb", ".ipynb"}

// Interpreter turns a finished notebook run into an ExecutionReport.
// It is synchronous and never fails: unreadable artifacts are logged and
// reported as absent.
type Interpreter struct {
	locator  ArtifactLocator
	suffixes []string
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures an Interpreter
type Option func(*Interpreter)

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(i *Interpreter) { i.now = now }
}

// WithSuffixes replaces DefaultSuffixes
func WithSuffixes(suffixes ...string) Option {
	return func(i *Interpreter) { i.suffixes = append([]string(nil), suffixes...) }
}

// New creates an interpreter over locator
func New(locator ArtifactLocator, logger *zap.Logger, opts ...Option) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	i := &Interpreter{
		locator:  locator,
		suffixes: DefaultSuffixes,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// DatasetTag strips the first matching suffix from jobID
func DatasetTag(jobID string, suffixes []string) string {
	for _, suffix := range suffixes {
		if suffix != "" && strings.HasSuffix(jobID, suffix) {
			return strings.TrimSuffix(jobID, suffix)
		}
	}
	return jobID
}

// DatasetTag applies the interpreter's suffix convention
func (i *Interpreter) DatasetTag(jobID string) string {
	return DatasetTag(jobID, i.suffixes)
}

// Interpret builds the report for one run. A timed-out run is always a
// timeout failure whatever its exit code; otherwise exit code 0 is success.
func (i *Interpreter) Interpret(jobID string, res executor.Result, start time.Time, timeout time.Duration) *models.ExecutionReport {
	report := &models.ExecutionReport{
		JobIdentifier:        jobID,
		DatasetTag:           i.DatasetTag(jobID),
		ExecutionTimeSeconds: i.elapsed(res, start),
		Timestamp:            i.now().UTC().Format(time.RFC3339),
	}

	switch {
	case res.TimedOut:
		details := timeoutDetails(timeout)
		report.Message = details.ErrorMessage
		report.ErrorDetails = &details
		report.Troubleshooting = timeoutTroubleshooting(timeout)
	case res.ExitCode == 0:
		i.fillSuccess(report)
	default:
		details := failureDetails(res)
		report.Message = details.ErrorMessage
		report.ErrorDetails = &details
		report.Troubleshooting = troubleshootingFor(details.ErrorType)
	}

	return report
}

func (i *Interpreter) fillSuccess(report *models.ExecutionReport) {
	tag := report.DatasetTag
	log := i.logger.With(zap.String("dataset", tag))

	artifacts := &models.Artifacts{
		Models: models.ModelArtifacts{Files: []string{}},
		Plots:  models.PlotArtifacts{ByType: emptyPlotBuckets()},
		DataFiles: models.DataFiles{
			TopFeatures: []string{},
		},
	}
	summary := trainingSummary{modelsTrained: []string{}, metrics: map[string]float64{}}

	if path := i.single(log, "metrics", tag, i.locator.MetricsFile); path != "" {
		artifacts.DataFiles.Metrics = &path
		if entries, err := i.readMetrics(path); err != nil {
			log.Warn("metrics file unreadable", zap.String("path", path), zap.Error(err))
		} else {
			summary = summarize(entries)
		}
	}
	if path := i.single(log, "training columns", tag, i.locator.TrainingColumnsFile); path != "" {
		artifacts.DataFiles.TrainingColumns = &path
	}
	if path := i.single(log, "feature medians", tag, i.locator.FeatureMediansFile); path != "" {
		artifacts.DataFiles.FeatureMedians = &path
	}
	artifacts.DataFiles.TopFeatures = i.multi(log, "top features", tag, i.locator.TopFeaturesFiles)

	artifacts.Models.Files = i.multi(log, "models", tag, i.locator.ModelFiles)
	artifacts.Models.Count = len(artifacts.Models.Files)

	for _, path := range i.multi(log, "plots", tag, i.locator.PlotFiles) {
		category := CategorizePlot(tag, path)
		artifacts.Plots.ByType[category] = append(artifacts.Plots.ByType[category], path)
		artifacts.Plots.Count++
	}

	results := &models.Results{
		ModelsTrained: summary.modelsTrained,
		BestModel:     summary.bestModel,
		Metrics:       summary.metrics,
	}

	report.Success = true
	report.Message = "Notebook executed successfully"
	report.Results = results
	report.Artifacts = artifacts
	report.NextSteps = nextSteps(results, artifacts)
}

func (i *Interpreter) readMetrics(path string) ([]modelMetrics, error) {
	data, err := i.locator.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseMetrics(data)
}

func (i *Interpreter) single(log *zap.Logger, what, tag string, find func(string) (string, error)) string {
	path, err := find(tag)
	if err != nil {
		log.Warn("artifact lookup failed", zap.String("artifact", what), zap.Error(err))
		return ""
	}
	return path
}

func (i *Interpreter) multi(log *zap.Logger, what, tag string, find func(string) ([]string, error)) []string {
	paths, err := find(tag)
	if err != nil {
		log.Warn("artifact lookup failed", zap.String("artifact", what), zap.Error(err))
		return []string{}
	}
	if paths == nil {
		return []string{}
	}
	return paths
}

// elapsed is measured to the process exit when known, so re-interpreting the
// same result gives the same figure.
func (i *Interpreter) elapsed(res executor.Result, start time.Time) float64 {
	end := res.FinishedAt
	if end.IsZero() {
		end = i.now()
	}
	secs := end.Sub(start).Seconds()
	if secs < 0 {
		secs = 0
	}
	return math.Round(secs*10) / 10
}
