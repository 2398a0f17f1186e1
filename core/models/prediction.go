package models

import "time"

// Label is the three-way ordinal classification (plus Error)
type Label string

const (
	LabelConfirmed  Label = "Confirmed"
	LabelCandidate  Label = "Candidate"
	LabelNotAMatch  Label = "Not-a-match"
	LabelPredictErr Label = "Error"
)

// Explanation is the structured "raw" blob returned with every prediction
type Explanation struct {
	Family     Family             `json:"family"`
	Normalized map[string]float64 `json:"normalized,omitempty"`
	Weights    map[string]float64 `json:"weights,omitempty"`
	Defaulted  []string           `json:"defaulted,omitempty"`
	BaseScore  float64            `json:"base_score"`
	Jitter     float64            `json:"jitter"`
	Confidence float64            `json:"confidence"`
	Error      string             `json:"error,omitempty"`
}

// PredictionRecord is one row of prediction history. Never mutated once stored.
type PredictionRecord struct {
	ID          int64          `json:"id"`
	Dataset     string         `json:"dataset"`
	Model       string         `json:"model"`
	Features    map[string]any `json:"features"`
	Probability float64        `json:"probability"`
	Label       Label          `json:"label"`
	Raw         *Explanation   `json:"raw_output"`
	CreatedAt   time.Time      `json:"created_at"`
}
