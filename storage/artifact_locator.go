package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Layout names the directories a training notebook writes into
type Layout struct {
	ResultsDir string // <tag>_metrics.json, <tag>_training_columns.json, ...
	ModelsDir  string // <tag>*_pipeline.pkl
	PlotsDir   string // <tag>*.png
}

// DefaultLayout mirrors the notebooks' static/ tree
func DefaultLayout() Layout {
	return Layout{
		ResultsDir: filepath.Join("static", "results"),
		ModelsDir:  filepath.Join("static", "models"),
		PlotsDir:   filepath.Join("static", "plots"),
	}
}

const (
	modelSuffix = "_pipeline.pkl"
	plotExt     = ".png"
)

// FSLocator finds notebook artifacts on the local filesystem.
// Only files that exist at call time are returned; missing directories are
// treated as empty.
type FSLocator struct {
	layout Layout
}

// NewFSLocator creates a locator over layout
func NewFSLocator(layout Layout) *FSLocator {
	return &FSLocator{layout: layout}
}

// Layout returns the directories the locator searches
func (l *FSLocator) Layout() Layout {
	return l.layout
}

// MetricsFile returns <results>/<tag>_metrics.json if it exists
func (l *FSLocator) MetricsFile(tag string) (string, error) {
	return l.existing(filepath.Join(l.layout.ResultsDir, tag+"_metrics.json"))
}

// TrainingColumnsFile returns <results>/<tag>_training_columns.json if it exists
func (l *FSLocator) TrainingColumnsFile(tag string) (string, error) {
	return l.existing(filepath.Join(l.layout.ResultsDir, tag+"_training_columns.json"))
}

// FeatureMediansFile returns <results>/<tag>_feature_medians.json if it exists
func (l *FSLocator) FeatureMediansFile(tag string) (string, error) {
	return l.existing(filepath.Join(l.layout.ResultsDir, tag+"_feature_medians.json"))
}

// TopFeaturesFiles returns every <results>/<tag>_*top_features*.json
func (l *FSLocator) TopFeaturesFiles(tag string) ([]string, error) {
	prefix := tag + "_"
	return l.scan(l.layout.ResultsDir, func(name string) bool {
		if !strings.HasPrefix(name, prefix) || filepath.Ext(name) != ".json" {
			return false
		}
		rest := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json")
		return strings.Contains(rest, "top_features")
	})
}

// ModelFiles returns every <models>/<tag>*_pipeline.pkl
func (l *FSLocator) ModelFiles(tag string) ([]string, error) {
	return l.scan(l.layout.ModelsDir, func(name string) bool {
		return strings.HasPrefix(name, tag) && strings.HasSuffix(name, modelSuffix)
	})
}

// PlotFiles returns every <plots>/<tag>*.png
func (l *FSLocator) PlotFiles(tag string) ([]string, error) {
	return l.scan(l.layout.PlotsDir, func(name string) bool {
		return strings.HasPrefix(name, tag) && strings.EqualFold(filepath.Ext(name), plotExt)
	})
}

// ReadFile reads an artifact
func (l *FSLocator) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (l *FSLocator) existing(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", nil
	}
	return path, nil
}

// scan lists regular files in dir accepted by match, sorted by name
func (l *FSLocator) scan(dir string, match func(name string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	paths := []string{}
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !match(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
