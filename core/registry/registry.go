package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"exoml-server/core/apperr"
	"exoml-server/core/models"

	"gopkg.in/yaml.v3"
)

// Registry maps model identifiers to their feature schema.
// It is built once at startup and never mutated afterwards, so it is safe to
// share between goroutines without locking.
type Registry struct {
	models map[string]models.ModelSpec
	order  []string
}

// FileSpec is the YAML overlay format
type FileSpec struct {
	Models []models.ModelSpec `yaml:"models"`
}

// New builds a registry from specs. Later specs with the same ID replace earlier ones.
func New(specs ...models.ModelSpec) (*Registry, error) {
	r := &Registry{models: make(map[string]models.ModelSpec, len(specs))}
	for _, spec := range specs {
		if err := validate(spec); err != nil {
			return nil, err
		}
		if _, exists := r.models[spec.ID]; !exists {
			r.order = append(r.order, spec.ID)
		}
		r.models[spec.ID] = clone(spec)
	}
	return r, nil
}

// Default returns the built-in registry
func Default() *Registry {
	r, err := New(Builtin()...)
	if err != nil {
		// built-in table is static
		panic(err)
	}
	return r
}

// Load returns the built-in registry overlaid with the models declared in path.
// An empty path returns the built-ins.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read features file: %w", err)
	}

	var file FileSpec
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse features file %s: %w", path, err)
	}

	return New(append(Builtin(), file.Models...)...)
}

// Lookup returns a copy of the model spec. An exact ID wins, then the first
// registered ID that matches case-insensitively.
func (r *Registry) Lookup(modelID string) (models.ModelSpec, error) {
	if spec, ok := r.models[modelID]; ok {
		return clone(spec), nil
	}
	for _, id := range r.order {
		if strings.EqualFold(id, modelID) {
			return clone(r.models[id]), nil
		}
	}
	return models.ModelSpec{}, fmt.Errorf("model %q: %w", modelID, apperr.ErrNotFound)
}

// Models returns every model spec in registration order
func (r *Registry) Models() []models.ModelSpec {
	out := make([]models.ModelSpec, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, clone(r.models[id]))
	}
	return out
}

// IDs returns the sorted model identifiers
func (r *Registry) IDs() []string {
	ids := append([]string(nil), r.order...)
	sort.Strings(ids)
	return ids
}

func validate(spec models.ModelSpec) error {
	if spec.ID == "" {
		return fmt.Errorf("model spec without id: %w", apperr.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(spec.Features))
	for _, f := range spec.Features {
		if f.Name == "" {
			return fmt.Errorf("model %s: feature without name: %w", spec.ID, apperr.ErrInvalidInput)
		}
		if seen[f.Name] {
			return fmt.Errorf("model %s: duplicate feature %s: %w", spec.ID, f.Name, apperr.ErrInvalidInput)
		}
		seen[f.Name] = true
		if f.Max <= f.Min {
			return fmt.Errorf("model %s: feature %s has empty range [%g, %g]: %w", spec.ID, f.Name, f.Min, f.Max, apperr.ErrInvalidInput)
		}
		if f.Default < f.Min || f.Default > f.Max {
			return fmt.Errorf("model %s: feature %s default %g outside [%g, %g]: %w", spec.ID, f.Name, f.Default, f.Min, f.Max, apperr.ErrInvalidInput)
		}
	}
	return nil
}

func clone(spec models.ModelSpec) models.ModelSpec {
	spec.Features = append([]models.FeatureSpec(nil), spec.Features...)
	return spec
}
