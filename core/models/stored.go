package models

import "encoding/json"

// ModelScore is one trained model's metrics, as percentages
type ModelScore struct {
	Model   string             `json:"model"`
	Metrics map[string]float64 `json:"metrics"`
}

// StoredMetrics is what the last training run of a dataset left in its metrics file
type StoredMetrics struct {
	Dataset   string       `json:"dataset"`
	File      string       `json:"file"`
	Models    []ModelScore `json:"models"`
	BestModel *string      `json:"best_model"`
}

// FeatureRanking is the content of one top-features file
type FeatureRanking struct {
	File    string          `json:"file"`
	Content json.RawMessage `json:"content"`
}

// StoredTopFeatures lists the top-features files of a dataset
type StoredTopFeatures struct {
	Dataset  string           `json:"dataset"`
	Rankings []FeatureRanking `json:"top_features"`
}
