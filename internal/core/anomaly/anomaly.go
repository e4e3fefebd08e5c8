// Package anomaly flags abrupt changes between consecutive observations of a batch
package anomaly

import (
	"math"
	"strings"

	"bioreactor/internal/core/observation"
)

// Explanation sentences, one per flag, reported in this order
const (
	MsgDODrop       = "DO dropped rapidly; likely due to increased oxygen demand or insufficient aeration."
	MsgLactateSpike = "Lactate spiked; this may indicate overfeeding or metabolic stress."
	MsgPHDrift      = "pH drift observed; possible CO₂ accumulation or buffer issues."
	MsgNone         = "No significant anomalies detected at this time point."
)

// Thresholds are the first-difference limits for each flag
type Thresholds struct {
	// DODrop trips when do_pct[i] - do_pct[i-1] is below it (negative, percentage points)
	DODrop float64 `json:"do_drop"`
	// LactateSpike trips when lactate[i] - lactate[i-1] is above it (g/L)
	LactateSpike float64 `json:"lactate_spike"`
	// PHDrift trips when |ph[i] - ph[i-1]| is above it
	PHDrift float64 `json:"ph_drift"`
}

// DefaultThresholds returns the process defaults
func DefaultThresholds() Thresholds {
	return Thresholds{DODrop: -15, LactateSpike: 0.8, PHDrift: 0.1}
}

// Detector annotates batches; the zero value is not useful, use New
type Detector struct {
	th Thresholds
}

// New creates a Detector with default thresholds
func New() *Detector { return NewWithThresholds(DefaultThresholds()) }

// NewWithThresholds creates a Detector with custom thresholds
func NewWithThresholds(th Thresholds) *Detector { return &Detector{th: th} }

// Thresholds returns the active thresholds
func (d *Detector) Thresholds() Thresholds { return d.th }

// Detect returns a time-sorted copy of rows with flags set on every row.
// The first row never has a predecessor so all its flags are false
func (d *Detector) Detect(rows []observation.Observation) []observation.Observation {
	out := observation.SortByTime(rows)
	for i := range out {
		if i == 0 {
			out[i].Flags = &observation.Flags{}
			continue
		}
		prev, cur := out[i-1], out[i]
		out[i].Flags = &observation.Flags{
			DODrop:       cur.DO-prev.DO < d.th.DODrop,
			LactateSpike: cur.Lactate-prev.Lactate > d.th.LactateSpike,
			PHDrift:      math.Abs(cur.PH-prev.PH) > d.th.PHDrift,
		}
	}
	return out
}

// Explain renders the flags of one row as text
func (d *Detector) Explain(o observation.Observation) string { return Explain(o) }

// Explain renders the flags of one row as text. Unannotated rows read as no flags
func Explain(o observation.Observation) string {
	msgs := make([]string, 0, 3)
	if o.Flag(observation.FlagDODrop) {
		msgs = append(msgs, MsgDODrop)
	}
	if o.Flag(observation.FlagLactateSpike) {
		msgs = append(msgs, MsgLactateSpike)
	}
	if o.Flag(observation.FlagPHDrift) {
		msgs = append(msgs, MsgPHDrift)
	}
	if len(msgs) == 0 {
		return MsgNone
	}
	return strings.Join(msgs, " ")
}

// Detect annotates rows with the default thresholds
func Detect(rows []observation.Observation) []observation.Observation {
	return New().Detect(rows)
}

// Summary counts flagged rows of an annotated batch
type Summary struct {
	Rows         int `json:"rows"`
	Flagged      int `json:"flagged"`
	DODrop       int `json:"do_drop"`
	LactateSpike int `json:"lactate_spike"`
	PHDrift      int `json:"ph_drift"`
}

// Summarize counts flags; unannotated rows count as unflagged
func Summarize(rows []observation.Observation) Summary {
	s := Summary{Rows: len(rows)}
	for _, r := range rows {
		if r.Flag(observation.FlagDODrop) {
			s.DODrop++
		}
		if r.Flag(observation.FlagLactateSpike) {
			s.LactateSpike++
		}
		if r.Flag(observation.FlagPHDrift) {
			s.PHDrift++
		}
		if r.Flags != nil && r.Flags.Any() {
			s.Flagged++
		}
	}
	return s
}
