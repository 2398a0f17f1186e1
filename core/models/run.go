package models

import "time"

// RunRecord is a persisted notebook execution
type RunRecord struct {
	ID                   string           `json:"id"`
	Notebook             string           `json:"notebook"`
	Dataset              string           `json:"dataset"`
	Success              bool             `json:"success"`
	ErrorType            string           `json:"error_type,omitempty"`
	ExecutionTimeSeconds float64          `json:"execution_time_seconds"`
	Report               *ExecutionReport `json:"report,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
}
