package models

// Family selects the weight vector the prediction engine applies to a model
type Family string

const (
	FamilyDisposition      Family = "disposition"
	FamilyTransit          Family = "transit"
	FamilyShapePeriodicity Family = "shape_periodicity"
	FamilyAverage          Family = "average" // fallback for unrecognized models
)

// FeatureSpec describes one input feature a model expects
type FeatureSpec struct {
	Name        string  `json:"name" yaml:"name"`
	Label       string  `json:"label" yaml:"label"`
	Description string  `json:"description" yaml:"description"`
	Unit        string  `json:"unit" yaml:"unit"`
	Min         float64 `json:"min" yaml:"min"`
	Max         float64 `json:"max" yaml:"max"`
	Default     float64 `json:"default" yaml:"default"`
}

// ModelSpec is a model's identity plus its ordered feature schema
type ModelSpec struct {
	ID        string        `json:"model" yaml:"id"`
	ModelType string        `json:"model_type" yaml:"model_type"`
	Family    Family        `json:"family" yaml:"family"`
	Features  []FeatureSpec `json:"features" yaml:"features"`
}
