// Package feed turns one observation into a feed-rate prediction plus rule based advice
package feed

import (
	"context"
	"strings"

	"bioreactor/internal/core/observation"
	perr "bioreactor/internal/platform/errors"
)

// Advisory sentences, evaluated in this order
const (
	MsgGlucoseLow = "Glucose is low; consider increasing feed to avoid depletion."
	MsgDOLow      = "DO is low; check aeration and agitation before increasing feed."
	MsgVCDHigh    = "High cell density; ensure sufficient nutrients and oxygen."
	MsgStable     = "Process conditions are stable; maintain current feed strategy."
)

// Predictor maps the canonical feature vector to a feed rate in mL/hr.
// Implementations must be safe for concurrent use
type Predictor interface {
	Predict(ctx context.Context, f observation.Features) (float64, error)
}

// PredictorFunc adapts a plain function to Predictor
type PredictorFunc func(ctx context.Context, f observation.Features) (float64, error)

// Predict calls fn
func (fn PredictorFunc) Predict(ctx context.Context, f observation.Features) (float64, error) {
	return fn(ctx, f)
}

// Rules holds the advisory thresholds
type Rules struct {
	GlucoseLow float64 `json:"glucose_low"` // strictly below, g/L
	DOLow      float64 `json:"do_low"`      // strictly below, percent
	VCDHigh    float64 `json:"vcd_high"`    // strictly above, 1e6 cells/mL
}

// DefaultRules returns the process defaults
func DefaultRules() Rules {
	return Rules{GlucoseLow: 2, DOLow: 30, VCDHigh: 8}
}

// Recommendation is the pair produced for one row
type Recommendation struct {
	PredictedFeed float64 `json:"predicted_feed_ml_per_hr"`
	Advice        string  `json:"feed_recommendation"`
}

// Recommender evaluates advisory rules and consults a predictor
type Recommender struct {
	rules Rules
}

// New creates a Recommender with default rules
func New() *Recommender { return NewWithRules(DefaultRules()) }

// NewWithRules creates a Recommender with custom rules
func NewWithRules(r Rules) *Recommender { return &Recommender{rules: r} }

// Rules returns the active rules
func (r *Recommender) Rules() Rules { return r.rules }

// Recommend predicts once with o's features and derives advice from the raw row.
// A predictor failure is returned as is
func (r *Recommender) Recommend(ctx context.Context, o observation.Observation, p Predictor) (Recommendation, error) {
	if p == nil {
		return Recommendation{}, perr.InvalidArgf("feed: nil predictor")
	}
	v, err := p.Predict(ctx, o.Features())
	if err != nil {
		return Recommendation{}, err
	}
	return Recommendation{PredictedFeed: v, Advice: r.Advise(o)}, nil
}

// Advise returns the advisory text for o; the prediction never influences it
func (r *Recommender) Advise(o observation.Observation) string {
	msgs := make([]string, 0, 3)
	if o.Glucose < r.rules.GlucoseLow {
		msgs = append(msgs, MsgGlucoseLow)
	}
	if o.DO < r.rules.DOLow {
		msgs = append(msgs, MsgDOLow)
	}
	if o.VCD > r.rules.VCDHigh {
		msgs = append(msgs, MsgVCDHigh)
	}
	if len(msgs) == 0 {
		return MsgStable
	}
	return strings.Join(msgs, " ")
}

// Advise returns the advisory text for o under default rules
func Advise(o observation.Observation) string { return New().Advise(o) }

// Recommend runs the default Recommender
func Recommend(ctx context.Context, o observation.Observation, p Predictor) (Recommendation, error) {
	return New().Recommend(ctx, o, p)
}
