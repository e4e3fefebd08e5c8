// Package domain holds the advisor request and response shapes and ports
package domain

import (
	"bioreactor/internal/core/advisor"
	"bioreactor/internal/core/anomaly"
	"bioreactor/internal/core/feed"
	"bioreactor/internal/core/observation"
)

// MaxAdviseRows caps an inline batch; keep the max tag on AdviseInput.Rows in step
const MaxAdviseRows = 10000

// RowInput is one reading posted to /batches/advise
type RowInput struct {
	TimeHr      float64 `json:"time_hr"         validate:"finite,gte=0" example:"12.5"`
	VCD         float64 `json:"vcd_e6_per_ml"   validate:"finite"       example:"3.2"`
	Glucose     float64 `json:"glucose_g_per_L" validate:"finite"       example:"4.1"`
	Lactate     float64 `json:"lactate_g_per_L" validate:"finite"       example:"1.3"`
	PH          float64 `json:"ph"              validate:"finite"       example:"7.02"`
	DO          float64 `json:"do_pct"          validate:"finite"       example:"62"`
	Temperature float64 `json:"temperature_C"   validate:"finite"       example:"37"`
	Agitation   float64 `json:"agitation_rpm"   validate:"finite"       example:"120"`
	Airflow     float64 `json:"airflow_slpm"    validate:"finite"       example:"1.5"`
}

// AdviseInput is an inline batch; rows need not be sorted
type AdviseInput struct {
	BatchID string     `json:"batch_id,omitempty" validate:"omitempty,batchid" example:"B001"`
	Rows    []RowInput `json:"rows"               validate:"required,min=1,max=10000,dive"`
}

// Observations converts the rows, stamping the batch id on each
func (in AdviseInput) Observations(batchID string) []observation.Observation {
	out := make([]observation.Observation, len(in.Rows))
	for i, r := range in.Rows {
		out[i] = observation.Observation{
			BatchID:     batchID,
			TimeHr:      r.TimeHr,
			VCD:         r.VCD,
			Glucose:     r.Glucose,
			Lactate:     r.Lactate,
			PH:          r.PH,
			DO:          r.DO,
			Temperature: r.Temperature,
			Agitation:   r.Agitation,
			Airflow:     r.Airflow,
		}
	}
	return out
}

// ObservationsResponse is an annotated batch in time order
type ObservationsResponse struct {
	BatchID string                    `json:"batch_id" example:"B001"`
	Rows    []observation.Observation `json:"rows"`
	Summary anomaly.Summary           `json:"summary"`
}

// RecommendationsResponse holds one record per time point
type RecommendationsResponse struct {
	BatchID   string           `json:"batch_id"  example:"B001"`
	Predictor string           `json:"predictor" example:"linear"`
	Records   []advisor.Record `json:"records"`
}

// SummaryResponse condenses a batch for list views
type SummaryResponse struct {
	BatchID           string          `json:"batch_id"             example:"B001"`
	StartHr           float64         `json:"start_hr"             example:"0"`
	EndHr             float64         `json:"end_hr"               example:"120"`
	Anomalies         anomaly.Summary `json:"anomalies"`
	MeanPredictedFeed float64         `json:"mean_predicted_feed"  example:"11.42"`
	LastAdvice        string          `json:"last_recommendation"`
}

// EngineInfo describes the active rule parameters and predictor
type EngineInfo struct {
	Thresholds anomaly.Thresholds `json:"thresholds"`
	Rules      feed.Rules         `json:"rules"`
	Predictor  string             `json:"predictor" example:"linear"`
	Workers    int                `json:"workers"   example:"1"`
}
