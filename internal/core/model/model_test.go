package model

import (
	"context"
	"math"
	"testing"

	"bioreactor/internal/core/observation"
	perr "bioreactor/internal/platform/errors"
)

var ctx = context.Background()

func TestLinear(t *testing.T) {
	l := Linear{Intercept: 5, Coef: [observation.FeatureCount]float64{0, 0.8, 0, 0, 0, 0, 0, 0, 0}}
	got, err := l.Predict(ctx, observation.Features{0, 10})
	if err != nil {
		t.Fatal(err)
	}
	if got != 13 {
		t.Fatalf("Predict = %v want 13", got)
	}

	l.Coef[0] = math.Inf(1)
	if _, err := l.Predict(ctx, observation.Features{1}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("expected invalid argument for non-finite output, got %v", err)
	}
}

// stump splits on glucose at 2 g/L
func stump(low, high float64) Tree {
	return Tree{Nodes: []Node{
		{Feature: 2, Threshold: 2, Left: 1, Right: 2},
		{Left: -1, Right: -1, Value: low},
		{Left: -1, Right: -1, Value: high},
	}}
}

func TestForest_Averages(t *testing.T) {
	f := &Forest{Trees: []Tree{stump(10, 4), stump(8, 6)}}
	cases := []struct {
		name    string
		glucose float64
		want    float64
	}{
		{"low glucose", 1.5, 9},
		{"at threshold goes left", 2, 9},
		{"high glucose", 5, 5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := f.Predict(ctx, observation.Features{0, 0, c.glucose})
			if err != nil {
				t.Fatal(err)
			}
			if got != c.want {
				t.Fatalf("Predict = %v want %v", got, c.want)
			}
		})
	}
}

func TestForest_Malformed(t *testing.T) {
	cases := []struct {
		name string
		f    *Forest
	}{
		{"nil", nil},
		{"no trees", &Forest{}},
		{"empty tree", &Forest{Trees: []Tree{{}}}},
		{"feature out of range", &Forest{Trees: []Tree{{Nodes: []Node{
			{Feature: 9, Left: 1, Right: 1},
			{Left: -1, Right: -1},
		}}}}},
		{"child out of range", &Forest{Trees: []Tree{{Nodes: []Node{
			{Feature: 0, Threshold: 100, Left: 7, Right: 1},
			{Left: -1, Right: -1},
		}}}}},
		{"cycle", &Forest{Trees: []Tree{{Nodes: []Node{
			{Feature: 0, Threshold: 100, Left: 1, Right: 1},
			{Feature: 0, Threshold: 100, Left: 0, Right: 0},
		}}}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := c.f.Predict(ctx, observation.Features{})
			if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	}
}

func TestTable_Nearest(t *testing.T) {
	tb, err := NewTable([]TablePoint{{TimeHr: 10, Feed: 2}, {TimeHr: 0, Feed: 1}, {TimeHr: 20, Feed: 3}})
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		at   float64
		want float64
	}{
		{-5, 1},
		{0, 1},
		{4, 1},
		{5, 1},
		{6, 2},
		{10, 2},
		{16, 3},
		{500, 3},
	}
	for _, c := range cases {
		got, err := tb.Predict(ctx, observation.Features{c.at})
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Fatalf("Predict(%v) = %v want %v", c.at, got, c.want)
		}
	}

	if _, err := tb.Predict(ctx, observation.Features{math.NaN()}); err == nil {
		t.Fatal("expected NaN time to fail")
	}
	if _, err := NewTable(nil); err == nil {
		t.Fatal("expected empty table to fail")
	}
}
