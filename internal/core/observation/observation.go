// Package observation defines the per-timepoint bioreactor sensor record
package observation

import (
	"math"
	"slices"
	"sort"

	perr "bioreactor/internal/platform/errors"
)

// FeatureCount is the width of the predictor input vector
const FeatureCount = 9

// Features is the ordered predictor input; see FeatureNames for the order
type Features [FeatureCount]float64

// FeatureNames lists feature columns in the order Features carries them.
// Predictors are fit against this exact ordering
var FeatureNames = [FeatureCount]string{
	"time_hr",
	"vcd_e6_per_ml",
	"glucose_g_per_L",
	"lactate_g_per_L",
	"ph",
	"do_pct",
	"temperature_C",
	"agitation_rpm",
	"airflow_slpm",
}

// FlagKind names one derived anomaly flag
type FlagKind uint8

const (
	// FlagDODrop marks a dissolved oxygen drop between consecutive points
	FlagDODrop FlagKind = iota
	// FlagLactateSpike marks an absolute lactate rise between consecutive points
	FlagLactateSpike
	// FlagPHDrift marks a pH move in either direction between consecutive points
	FlagPHDrift
)

// String returns the column name of the flag
func (k FlagKind) String() string {
	switch k {
	case FlagDODrop:
		return "do_drop"
	case FlagLactateSpike:
		return "lactate_spike"
	case FlagPHDrift:
		return "ph_drift"
	default:
		return "unknown"
	}
}

// Flags holds the derived anomaly flags written by the anomaly detector
type Flags struct {
	DODrop       bool `json:"do_drop"`
	LactateSpike bool `json:"lactate_spike"`
	PHDrift      bool `json:"ph_drift"`
}

// Any reports whether at least one flag is set
func (f Flags) Any() bool { return f.DODrop || f.LactateSpike || f.PHDrift }

// Observation is one sensor reading of a batch at a point in time
type Observation struct {
	BatchID     string  `json:"batch_id"`
	TimeHr      float64 `json:"time_hr"`
	VCD         float64 `json:"vcd_e6_per_ml"`
	Glucose     float64 `json:"glucose_g_per_L"`
	Lactate     float64 `json:"lactate_g_per_L"`
	PH          float64 `json:"ph"`
	DO          float64 `json:"do_pct"`
	Temperature float64 `json:"temperature_C"`
	Agitation   float64 `json:"agitation_rpm"`
	Airflow     float64 `json:"airflow_slpm"`

	// Flags is nil until the row has been annotated
	Flags *Flags `json:"flags,omitempty"`
}

// Flag returns the derived flag k, reading an unannotated row as false
func (o Observation) Flag(k FlagKind) bool {
	if o.Flags == nil {
		return false
	}
	switch k {
	case FlagDODrop:
		return o.Flags.DODrop
	case FlagLactateSpike:
		return o.Flags.LactateSpike
	case FlagPHDrift:
		return o.Flags.PHDrift
	default:
		return false
	}
}

// Annotated reports whether the detector has written flags on this row
func (o Observation) Annotated() bool { return o.Flags != nil }

// Features returns the predictor input in FeatureNames order
func (o Observation) Features() Features {
	return Features{
		o.TimeHr,
		o.VCD,
		o.Glucose,
		o.Lactate,
		o.PH,
		o.DO,
		o.Temperature,
		o.Agitation,
		o.Airflow,
	}
}

// Slice returns the features as a fresh []float64
func (f Features) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, f[:])
	return out
}

// Validate checks the row can be stored or served; detection never calls it
func (o Observation) Validate() error {
	for i, v := range o.Features() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return perr.WithField(perr.InvalidArgf("%s must be finite", FeatureNames[i]), FeatureNames[i])
		}
	}
	if o.TimeHr < 0 {
		return perr.WithField(perr.InvalidArgf("time_hr must be non-negative"), "time_hr")
	}
	return nil
}

// SortByTime returns a copy of rows stably ordered by TimeHr ascending.
// Flags are deep-copied so callers never share annotation state with the input
func SortByTime(rows []Observation) []Observation {
	out := Clone(rows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].TimeHr < out[j].TimeHr })
	return out
}

// IsSorted reports whether rows are already in non-decreasing TimeHr order
func IsSorted(rows []Observation) bool {
	return slices.IsSortedFunc(rows, func(a, b Observation) int {
		switch {
		case a.TimeHr < b.TimeHr:
			return -1
		case a.TimeHr > b.TimeHr:
			return 1
		default:
			return 0
		}
	})
}

// Clone copies rows including their flags
func Clone(rows []Observation) []Observation {
	if rows == nil {
		return nil
	}
	out := make([]Observation, len(rows))
	for i, r := range rows {
		if r.Flags != nil {
			f := *r.Flags
			r.Flags = &f
		}
		out[i] = r
	}
	return out
}
