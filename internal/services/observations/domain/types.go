// Package domain holds the observations store contracts
package domain

import "bioreactor/internal/core/observation"

// BatchInfo summarizes one stored batch
type BatchInfo struct {
	BatchID   string  `json:"batch_id"    example:"B001"`
	Rows      int64   `json:"rows"        example:"50"`
	MinTimeHr float64 `json:"min_time_hr" example:"0"`
	MaxTimeHr float64 `json:"max_time_hr" example:"120"`
}

// Row is one stored observation; FeedRate is the ground truth when known
type Row struct {
	observation.Observation
	FeedRate *float64 `json:"feed_rate_ml_per_hr,omitempty"`
}
