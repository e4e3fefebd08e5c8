// Package model holds pre-fit feed predictors that satisfy feed.Predictor.
// Nothing here trains; coefficients and trees are supplied fully formed
package model

import (
	"context"
	"math"
	"sort"
	"strconv"

	"bioreactor/internal/core/feed"
	"bioreactor/internal/core/observation"
	perr "bioreactor/internal/platform/errors"
)

var (
	_ feed.Predictor = Linear{}
	_ feed.Predictor = (*Forest)(nil)
	_ feed.Predictor = (*Table)(nil)
)

// Linear is an affine model over the canonical feature order
type Linear struct {
	Intercept float64                           `json:"intercept"`
	Coef      [observation.FeatureCount]float64 `json:"coef"`
}

// Predict returns Intercept + Coef·f
func (l Linear) Predict(_ context.Context, f observation.Features) (float64, error) {
	v := l.Intercept
	for i := range f {
		v += l.Coef[i] * f[i]
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, perr.InvalidArgf("model: linear prediction is not finite")
	}
	return v, nil
}

// Node is one regression tree node. Leaves have Left and Right set to -1
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Leaf reports whether n terminates a path
func (n Node) Leaf() bool { return n.Left < 0 && n.Right < 0 }

// Tree is a flat array of nodes rooted at index 0.
// Samples with f[Feature] <= Threshold go Left
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Eval walks the tree for f
func (t Tree) Eval(f observation.Features) (float64, error) {
	if len(t.Nodes) == 0 {
		return 0, perr.InvalidArgf("model: empty tree")
	}
	i := 0
	// a well formed tree visits each node at most once
	for steps := 0; steps <= len(t.Nodes); steps++ {
		n := t.Nodes[i]
		if n.Leaf() {
			return n.Value, nil
		}
		if n.Feature < 0 || n.Feature >= observation.FeatureCount {
			return 0, perr.InvalidArgf("model: node %d splits on feature %d out of range", i, n.Feature)
		}
		next := n.Right
		if f[n.Feature] <= n.Threshold {
			next = n.Left
		}
		if next < 0 || next >= len(t.Nodes) {
			return 0, perr.InvalidArgf("model: node %d points to child %d out of range", i, next)
		}
		i = next
	}
	return 0, perr.InvalidArgf("model: tree has a cycle")
}

// Forest averages the output of its trees
type Forest struct {
	Trees []Tree `json:"trees"`
}

// Predict evaluates every tree and returns the mean
func (fr *Forest) Predict(_ context.Context, f observation.Features) (float64, error) {
	if fr == nil || len(fr.Trees) == 0 {
		return 0, perr.InvalidArgf("model: forest has no trees")
	}
	var sum float64
	for i, t := range fr.Trees {
		v, err := t.Eval(f)
		if err != nil {
			return 0, perr.WithOp(err, "tree "+strconv.Itoa(i))
		}
		sum += v
	}
	return sum / float64(len(fr.Trees)), nil
}

// TablePoint is one (time_hr, feed rate) pair
type TablePoint struct {
	TimeHr float64 `json:"time_hr"`
	Feed   float64 `json:"feed_ml_per_hr"`
}

// Table predicts the feed rate of the point nearest in time_hr.
// Ties go to the earlier point
type Table struct {
	points []TablePoint
}

// NewTable copies and sorts points by time
func NewTable(points []TablePoint) (*Table, error) {
	if len(points) == 0 {
		return nil, perr.InvalidArgf("model: table needs at least one point")
	}
	ps := make([]TablePoint, len(points))
	copy(ps, points)
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].TimeHr < ps[j].TimeHr })
	return &Table{points: ps}, nil
}

// Predict looks up the nearest point by time_hr
func (t *Table) Predict(_ context.Context, f observation.Features) (float64, error) {
	if t == nil || len(t.points) == 0 {
		return 0, perr.InvalidArgf("model: empty table")
	}
	x := f[0]
	if math.IsNaN(x) {
		return 0, perr.InvalidArgf("model: time_hr is NaN")
	}
	i := sort.Search(len(t.points), func(i int) bool { return t.points[i].TimeHr >= x })
	switch {
	case i == 0:
		return t.points[0].Feed, nil
	case i == len(t.points):
		return t.points[i-1].Feed, nil
	}
	lo, hi := t.points[i-1], t.points[i]
	if x-lo.TimeHr <= hi.TimeHr-x {
		return lo.Feed, nil
	}
	return hi.Feed, nil
}
