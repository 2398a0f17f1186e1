package models

// Plot categories used in Artifacts.Plots.ByType
const (
	PlotConfusionMatrices = "confusion_matrices"
	PlotROCCurves         = "roc_curves"
	PlotFeatureImportance = "feature_importance"
	PlotOther             = "other"
)

// ExecutionReport is the normalized outcome of a notebook run.
// Exactly one of (Results, Artifacts) or (ErrorDetails, Troubleshooting) is set.
type ExecutionReport struct {
	Success              bool          `json:"success"`
	Message              string        `json:"message"`
	JobIdentifier        string        `json:"job_identifier"`
	DatasetTag           string        `json:"derived_dataset_tag"`
	ExecutionTimeSeconds float64       `json:"execution_time_seconds"`
	Timestamp            string        `json:"timestamp"`
	Results              *Results      `json:"results,omitempty"`
	Artifacts            *Artifacts    `json:"artifacts,omitempty"`
	ErrorDetails         *ErrorDetails `json:"error_details,omitempty"`
	Troubleshooting      []string      `json:"troubleshooting,omitempty"`
	NextSteps            []string      `json:"next_steps,omitempty"`
}

// Results summarizes what the notebook trained
type Results struct {
	ModelsTrained []string           `json:"models_trained"`
	BestModel     *string            `json:"best_model"`
	Metrics       map[string]float64 `json:"metrics"`
}

// Artifacts lists files the notebook left behind
type Artifacts struct {
	Models    ModelArtifacts `json:"models"`
	Plots     PlotArtifacts  `json:"plots"`
	DataFiles DataFiles      `json:"data_files"`
}

type ModelArtifacts struct {
	Count int      `json:"count"`
	Files []string `json:"files"`
}

type PlotArtifacts struct {
	Count  int                 `json:"count"`
	ByType map[string][]string `json:"by_type"`
}

type DataFiles struct {
	Metrics         *string  `json:"metrics"`
	TrainingColumns *string  `json:"training_columns"`
	FeatureMedians  *string  `json:"feature_medians"`
	TopFeatures     []string `json:"top_features"`
}

// ErrorDetails describes a failed or timed-out run
type ErrorDetails struct {
	ErrorType           string   `json:"error_type"`
	ErrorMessage        string   `json:"error_message"`
	Traceback           []string `json:"traceback,omitempty"`
	TimeoutLimitSeconds float64  `json:"timeout_limit_seconds,omitempty"`
}

// Paths returns every artifact path in the report, models first
func (a *Artifacts) Paths() []string {
	if a == nil {
		return nil
	}
	var paths []string
	paths = append(paths, a.Models.Files...)
	for _, category := range []string{PlotConfusionMatrices, PlotROCCurves, PlotFeatureImportance, PlotOther} {
		paths = append(paths, a.Plots.ByType[category]...)
	}
	for _, p := range []*string{a.DataFiles.Metrics, a.DataFiles.TrainingColumns, a.DataFiles.FeatureMedians} {
		if p != nil {
			paths = append(paths, *p)
		}
	}
	return append(paths, a.DataFiles.TopFeatures...)
}
