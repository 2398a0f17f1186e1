package predictor

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"exoml-server/core/apperr"
	"exoml-server/core/models"
	"exoml-server/core/registry"

	"go.uber.org/zap"
)

// Label cut points
const (
	ConfirmedThreshold = 0.7
	CandidateThreshold = 0.5
)

// familyWeights holds the per-feature weights of each model family. Each vector sums to 1.
var familyWeights = map[models.Family]map[string]float64{
	models.FamilyDisposition: {
		"koi_score":     0.45,
		"koi_model_snr": 0.20,
		"koi_prad":      0.15,
		"koi_depth":     0.10,
		"koi_period":    0.10,
	},
	models.FamilyTransit: {
		"pl_trandep":  0.30,
		"pl_trandurh": 0.25,
		"pl_rade":     0.20,
		"pl_orbper":   0.15,
		"st_teff":     0.10,
	},
	models.FamilyShapePeriodicity: {
		"pl_orbper":   0.25,
		"pl_ratror":   0.25,
		"pl_rade":     0.20,
		"pl_orbeccen": 0.15,
		"st_rad":      0.15,
	},
}

// Prediction is the engine's output
type Prediction struct {
	Probability  float64
	Label        models.Label
	Explanation  models.Explanation
	FeaturesUsed []string
}

// Engine scores feature vectors against the registry
type Engine struct {
	registry *registry.Registry
	noise    Noise
	logger   *zap.Logger
}

// NewEngine creates a prediction engine. A nil noise source disables jitter.
func NewEngine(reg *registry.Registry, noise Noise, logger *zap.Logger) *Engine {
	if noise == nil {
		noise = NoNoise{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		registry: reg,
		noise:    noise,
		logger:   logger,
	}
}

// Predict normalizes raw against the model's schema and scores it.
// The only error returned wraps apperr.ErrInvalidInput and means there was nothing
// to score. Bad feature values yield an Error-labelled prediction instead.
func (e *Engine) Predict(modelID string, raw map[string]any) (Prediction, error) {
	spec, err := e.registry.Lookup(modelID)
	if err != nil {
		spec = adHocSpec(modelID, raw)
	}
	if len(spec.Features) == 0 {
		return Prediction{}, fmt.Errorf("model %q has no features to score: %w", modelID, apperr.ErrInvalidInput)
	}

	normalized := make(map[string]float64, len(spec.Features))
	used := make([]string, 0, len(spec.Features))
	var defaulted []string

	for _, f := range spec.Features {
		used = append(used, f.Name)

		value, present := raw[f.Name]
		if !present || value == nil {
			normalized[f.Name] = Normalize(f.Default, f.Min, f.Max)
			defaulted = append(defaulted, f.Name)
			continue
		}

		x, err := Coerce(value)
		if err != nil {
			e.logger.Debug("feature coercion failed",
				zap.String("model", modelID),
				zap.String("feature", f.Name),
				zap.Error(err))
			return errorPrediction(spec.Family, used, fmt.Errorf("feature %s: %w", f.Name, err)), nil
		}
		normalized[f.Name] = Clamp01(Normalize(x, f.Min, f.Max))
	}

	weights := weightsFor(spec)
	base := 0.0
	for _, f := range spec.Features {
		base += weights[f.Name] * normalized[f.Name]
	}

	jitter := e.noise.Jitter()
	probability := Clamp01(base + jitter)

	return Prediction{
		Probability:  probability,
		Label:        Classify(probability),
		FeaturesUsed: used,
		Explanation: models.Explanation{
			Family:     spec.Family,
			Normalized: normalized,
			Weights:    weights,
			Defaulted:  defaulted,
			BaseScore:  base,
			Jitter:     jitter,
			Confidence: math.Abs(probability-0.5) * 2,
		},
	}, nil
}

// Normalize maps value linearly from [min, max] to [0, 1] without clamping.
// A degenerate range maps everything to 0.
func Normalize(value, min, max float64) float64 {
	if max <= min {
		return 0
	}
	return (value - min) / (max - min)
}

// Clamp01 limits x to [0, 1]
func Clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return 0
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}

// Classify applies the label cut points
func Classify(p float64) models.Label {
	switch {
	case p > ConfirmedThreshold:
		return models.LabelConfirmed
	case p > CandidateThreshold:
		return models.LabelCandidate
	default:
		return models.LabelNotAMatch
	}
}

// Coerce converts a decoded JSON value to a finite float64
func Coerce(v any) (float64, error) {
	var x float64
	switch t := v.(type) {
	case float64:
		x = t
	case float32:
		x = float64(t)
	case int:
		x = float64(t)
	case int64:
		x = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", t.String())
		}
		x = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", t)
		}
		x = f
	case bool:
		if t {
			x = 1
		}
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("not a finite number: %v", v)
	}
	return x, nil
}

// weightsFor returns the weights to apply to spec's features. Weights of the
// family that match the schema are rescaled to sum to 1; with no match every
// feature gets an equal share.
func weightsFor(spec models.ModelSpec) map[string]float64 {
	weights := make(map[string]float64, len(spec.Features))
	if table, ok := familyWeights[spec.Family]; ok {
		total := 0.0
		for _, f := range spec.Features {
			total += table[f.Name]
		}
		if total > 0 {
			for _, f := range spec.Features {
				weights[f.Name] = table[f.Name] / total
			}
			return weights
		}
	}

	share := 1 / float64(len(spec.Features))
	for _, f := range spec.Features {
		weights[f.Name] = share
	}
	return weights
}

// adHocSpec treats every supplied feature of an unregistered model as already
// normalized to [0, 1] and averages them.
func adHocSpec(modelID string, raw map[string]any) models.ModelSpec {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	spec := models.ModelSpec{ID: modelID, Family: models.FamilyAverage}
	for _, name := range names {
		spec.Features = append(spec.Features, models.FeatureSpec{Name: name, Min: 0, Max: 1})
	}
	return spec
}

func errorPrediction(family models.Family, used []string, err error) Prediction {
	return Prediction{
		Probability:  0,
		Label:        models.LabelPredictErr,
		FeaturesUsed: used,
		Explanation: models.Explanation{
			Family: family,
			Error:  err.Error(),
		},
	}
}
