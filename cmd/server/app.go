package main

import (
	"context"
	"fmt"

	"exoml-server/config"
	"exoml-server/core/executor"
	"exoml-server/core/interpreter"
	"exoml-server/core/jobs"
	"exoml-server/core/monitoring"
	"exoml-server/core/predictor"
	"exoml-server/core/registry"
	"exoml-server/core/repository"
	"exoml-server/logging"
	"exoml-server/storage"
	"exoml-server/training/frameworks"

	"go.uber.org/zap"
)

// app holds the wired components shared by the subcommands
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *repository.DB
	registry *registry.Registry
	engine   *predictor.Engine
	jobs     *jobs.Service
	interp   *interpreter.Interpreter
	metrics  *monitoring.Metrics
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := logging.New(cfg.Logging())

	reg, err := registry.Load(cfg.FeaturesFile)
	if err != nil {
		return nil, err
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logger.Info("database connected", zap.String("driver", string(db.Driver)))

	var archiver storage.Archiver = storage.NopArchiver{}
	if cfg.ArtifactBucket != "" {
		s3Archiver, err := storage.NewS3Archiver(ctx, storage.S3ArchiverConfig{
			Bucket: cfg.ArtifactBucket,
			Region: cfg.AWSRegion,
			Prefix: cfg.ArtifactPrefix,
		}, logger.Named("archiver"))
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set up artifact archive: %w", err)
		}
		archiver = s3Archiver
		logger.Info("artifact archive enabled", zap.String("bucket", cfg.ArtifactBucket))
	}

	metrics := monitoring.NewMetrics()
	engine := predictor.NewEngine(reg, predictor.NewGaussianNoise(predictor.DefaultJitterStdDev), logger.Named("predictor"))

	runner := executor.NewNotebookRunner(
		cfg.NotebooksDir,
		cfg.NotebookTimeout,
		&frameworks.JupyterSetup{Binary: cfg.JupyterBin},
		logger.Named("runner"),
	)
	locator := storage.NewFSLocator(storage.Layout{
		ResultsDir: cfg.ResultsDir,
		ModelsDir:  cfg.ModelsDir,
		PlotsDir:   cfg.PlotsDir,
	})
	interp := interpreter.New(locator, logger.Named("interpreter"))
	service := jobs.NewService(
		runner,
		interp,
		repository.NewRunRepository(db),
		archiver,
		metrics,
		logger.Named("jobs"),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		registry: reg,
		engine:   engine,
		jobs:     service,
		interp:   interp,
		metrics:  metrics,
	}, nil
}

func (a *app) Close() {
	a.jobs.Wait()
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", zap.Error(err))
	}
	a.logger.Sync()
}
