// Package synth generates deterministic fed-batch cultures for seeding and demos.
// Curves follow a CHO-like process: logistic growth, glucose depletion,
// lactate build up, slow pH and DO decline
package synth

import (
	"math"
	"math/rand/v2"

	"bioreactor/internal/core/batchid"
	"bioreactor/internal/core/observation"
	perr "bioreactor/internal/platform/errors"
)

// Options control the generated set
type Options struct {
	Batches      int
	RowsPerBatch int
	Seed         uint64
	HorizonHr    float64
}

// DefaultOptions returns 20 batches of 50 points over 120 h, seed 42
func DefaultOptions() Options {
	return Options{Batches: 20, RowsPerBatch: 50, Seed: 42, HorizonHr: 120}
}

// Row is an observation plus the ground-truth feed rate used for fitting
type Row struct {
	observation.Observation
	FeedRate float64 `json:"feed_rate_ml_per_hr"`
}

// Generate returns Batches*RowsPerBatch rows grouped by batch in time order.
// The same Options always yield the same rows
func Generate(opt Options) ([]Row, error) {
	if opt.Batches <= 0 || opt.RowsPerBatch <= 0 {
		return nil, perr.InvalidArgf("synth: batches and rows per batch must be positive")
	}
	if opt.HorizonHr < 0 || math.IsNaN(opt.HorizonHr) {
		return nil, perr.InvalidArgf("synth: horizon must be non-negative")
	}

	rng := rand.New(rand.NewPCG(opt.Seed, opt.Seed^0x9e3779b97f4a7c15))
	norm := func(sd float64) float64 { return rng.NormFloat64() * sd }

	out := make([]Row, 0, opt.Batches*opt.RowsPerBatch)
	for b := 1; b <= opt.Batches; b++ {
		id := batchid.Format(b)
		rows := make([]Row, opt.RowsPerBatch)
		minVCD := math.Inf(1)
		for i := range rows {
			t := linspace(opt.HorizonHr, opt.RowsPerBatch, i)
			o := observation.Observation{
				BatchID:     id,
				TimeHr:      t,
				VCD:         0.3 + 10/(1+math.Exp(-0.08*(t-50))) + norm(0.3),
				Glucose:     math.Max(6.5-0.04*t+norm(0.2), 0.1),
				Lactate:     math.Max(0.1+0.03*t+norm(0.1), 0.05),
				PH:          7.1 - 0.003*t + norm(0.03),
				DO:          clip(95-0.4*t+norm(2), 5, 100),
				Temperature: 36.8 + norm(0.1),
				Agitation:   150 + 0.5*t + norm(5),
				Airflow:     0.5 + 0.02*t + norm(0.05),
			}
			minVCD = math.Min(minVCD, o.VCD)
			rows[i] = Row{Observation: o}
		}
		for i := range rows {
			f := 5 + 0.8*(rows[i].VCD-minVCD) + norm(1)
			if rows[i].Glucose < 2 {
				f += 3
			}
			rows[i].FeedRate = math.Max(f, 0)
		}
		out = append(out, rows...)
	}
	return out, nil
}

// Observations strips the ground truth
func Observations(rows []Row) []observation.Observation {
	out := make([]observation.Observation, len(rows))
	for i, r := range rows {
		out[i] = r.Observation
	}
	return out
}

// FeedRates returns the ground-truth column aligned with rows
func FeedRates(rows []Row) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.FeedRate
	}
	return out
}

// linspace returns the i-th of n evenly spaced points over [0, end], endpoints included
func linspace(end float64, n, i int) float64 {
	if n == 1 {
		return 0
	}
	return end * float64(i) / float64(n-1)
}

func clip(v, lo, hi float64) float64 { return math.Min(math.Max(v, lo), hi) }
