// Package advisor composes anomaly detection and feed recommendation into one record per time point
package advisor

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"bioreactor/internal/core/anomaly"
	"bioreactor/internal/core/feed"
	"bioreactor/internal/core/observation"
)

// Record is the display row for one time point
type Record struct {
	TimeHr             float64           `json:"time_hr"`
	PredictedFeed      float64           `json:"predicted_feed_ml_per_hr"`
	FeedRecommendation string            `json:"feed_recommendation"`
	AnomalyExplanation string            `json:"anomaly_explanation"`
	Flags              observation.Flags `json:"flags"`

	rawFeed float64 // unrounded prediction for aggregates
}

// Config for an Advisor
type Config struct {
	Workers int // 0 or 1 = sequential
}

// Advisor runs the ordered detection pass, then recommendations per row
type Advisor struct {
	Det *anomaly.Detector
	Rec *feed.Recommender
	Cfg Config
}

// New constructs an Advisor; nil detector or recommender fall back to defaults
func New(det *anomaly.Detector, rec *feed.Recommender, cfg Config) *Advisor {
	if det == nil {
		det = anomaly.New()
	}
	if rec == nil {
		rec = feed.New()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Advisor{Det: det, Rec: rec, Cfg: cfg}
}

// Annotate returns the detector output for rows
func (a *Advisor) Annotate(rows []observation.Observation) []observation.Observation {
	return a.Det.Detect(rows)
}

// Run returns one Record per row in ascending time order.
// The first predictor error stops the run and is returned unchanged
func (a *Advisor) Run(ctx context.Context, rows []observation.Observation, p feed.Predictor) ([]Record, error) {
	annotated := a.Det.Detect(rows)
	out := make([]Record, len(annotated))
	if len(annotated) == 0 {
		return out, nil
	}

	if a.Cfg.Workers <= 1 {
		for i, o := range annotated {
			r, err := a.record(ctx, o, p)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once     sync.Once
		firstErr error
		done     atomic.Int64
	)
	sem := make(chan struct{}, a.Cfg.Workers)
	wg := sync.WaitGroup{}

	for i := range annotated {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer func() { <-sem; wg.Done() }()
			if ctx.Err() != nil {
				return
			}
			r, err := a.record(ctx, annotated[i], p)
			if err != nil {
				once.Do(func() { firstErr = err; cancel() })
				return
			}
			out[i] = r
			done.Add(1)
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if int(done.Load()) != len(out) {
		// parent context ended before every row was recommended
		return nil, context.Cause(ctx)
	}
	return out, nil
}

func (a *Advisor) record(ctx context.Context, o observation.Observation, p feed.Predictor) (Record, error) {
	rec, err := a.Rec.Recommend(ctx, o, p)
	if err != nil {
		return Record{}, err
	}
	var fl observation.Flags
	if o.Flags != nil {
		fl = *o.Flags
	}
	return Record{
		TimeHr:             o.TimeHr,
		PredictedFeed:      Round2(rec.PredictedFeed),
		FeedRecommendation: rec.Advice,
		AnomalyExplanation: a.Det.Explain(o),
		Flags:              fl,
		rawFeed:            rec.PredictedFeed,
	}, nil
}

// Round2 rounds the exact binary value to two decimals, exact ties to even.
// 2.675 is stored just below the midpoint and becomes 2.67
func Round2(x float64) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	if err != nil {
		return x
	}
	return v
}

// MeanFeed averages the unrounded predictions and rounds once; zero for none
func MeanFeed(rs []Record) float64 {
	if len(rs) == 0 {
		return 0
	}
	var s float64
	for _, r := range rs {
		s += r.rawFeed
	}
	return Round2(s / float64(len(rs)))
}
