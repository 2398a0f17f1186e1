package interpreter

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"exoml-server/core/apperr"
	"exoml-server/core/models"
)

// ReadMetrics returns the per-model metrics stored for dataset, which may also
// be given as a notebook name.
func (i *Interpreter) ReadMetrics(dataset string) (*models.StoredMetrics, error) {
	tag, err := i.storedTag(dataset)
	if err != nil {
		return nil, err
	}

	path, err := i.locator.MetricsFile(tag)
	if err != nil {
		return nil, fmt.Errorf("failed to locate metrics for %s: %w", tag, err)
	}
	if path == "" {
		return nil, fmt.Errorf("no metrics for dataset %q: %w", tag, apperr.ErrNotFound)
	}

	entries, err := i.readMetrics(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metrics file %s: %w", path, err)
	}

	stored := &models.StoredMetrics{
		Dataset:   tag,
		File:      path,
		Models:    make([]models.ModelScore, 0, len(entries)),
		BestModel: summarize(entries).bestModel,
	}
	for _, m := range entries {
		stored.Models = append(stored.Models, models.ModelScore{Model: m.name, Metrics: m.percentages()})
	}
	return stored, nil
}

// ReadTopFeatures returns the top-features files stored for dataset in name order
func (i *Interpreter) ReadTopFeatures(dataset string) (*models.StoredTopFeatures, error) {
	tag, err := i.storedTag(dataset)
	if err != nil {
		return nil, err
	}

	paths, err := i.locator.TopFeaturesFiles(tag)
	if err != nil {
		return nil, fmt.Errorf("failed to locate top features for %s: %w", tag, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no top features for dataset %q: %w", tag, apperr.ErrNotFound)
	}

	stored := &models.StoredTopFeatures{
		Dataset:  tag,
		Rankings: make([]models.FeatureRanking, 0, len(paths)),
	}
	for _, path := range paths {
		data, err := i.locator.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if !json.Valid(data) {
			return nil, fmt.Errorf("top features file %s is not JSON", path)
		}
		stored.Rankings = append(stored.Rankings, models.FeatureRanking{File: path, Content: data})
	}
	return stored, nil
}

// storedTag turns a dataset or notebook name into a tag safe to join onto artifact dirs
func (i *Interpreter) storedTag(dataset string) (string, error) {
	tag := i.DatasetTag(strings.TrimSpace(dataset))
	if tag == "" || tag == "." || tag == ".." || strings.ContainsAny(tag, `/\`) || tag != filepath.Base(tag) {
		return "", fmt.Errorf("invalid dataset %q: %w", dataset, apperr.ErrInvalidInput)
	}
	return tag, nil
}
