package advisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"bioreactor/internal/core/anomaly"
	"bioreactor/internal/core/feed"
	"bioreactor/internal/core/observation"
)

// byTime predicts time_hr * 1.005 so each record is traceable to its row
var byTime = feed.PredictorFunc(func(_ context.Context, f observation.Features) (float64, error) {
	return f[0] * 1.005, nil
})

func batch() []observation.Observation {
	return []observation.Observation{
		{BatchID: "B001", TimeHr: 2, Glucose: 1.5, DO: 50, VCD: 3, Lactate: 0.3, PH: 7.1},
		{BatchID: "B001", TimeHr: 0, Glucose: 6, DO: 90, VCD: 1, Lactate: 0.1, PH: 7.1},
		{BatchID: "B001", TimeHr: 1, Glucose: 5, DO: 70, VCD: 2, Lactate: 0.2, PH: 7.1},
	}
}

func TestRun_SequentialOrderAndContent(t *testing.T) {
	a := New(nil, nil, Config{})
	got, err := a.Run(context.Background(), batch(), byTime)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	for i, r := range got {
		if r.TimeHr != float64(i) {
			t.Fatalf("record %d has time %v", i, r.TimeHr)
		}
	}
	if got[0].AnomalyExplanation != anomaly.MsgNone || got[0].Flags.Any() {
		t.Fatalf("first record should be clear: %+v", got[0])
	}
	if !got[1].Flags.DODrop || got[1].AnomalyExplanation != anomaly.MsgDODrop {
		t.Fatalf("second record should carry do_drop: %+v", got[1])
	}
	if got[2].FeedRecommendation != feed.MsgGlucoseLow {
		t.Fatalf("third record advice = %q", got[2].FeedRecommendation)
	}
	if got[2].PredictedFeed != 2.01 {
		t.Fatalf("predicted feed should round to 2.01, got %v", got[2].PredictedFeed)
	}
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	rows := make([]observation.Observation, 64)
	for i := range rows {
		rows[len(rows)-1-i] = observation.Observation{TimeHr: float64(i), DO: float64(100 - i), Glucose: float64(i % 4), VCD: float64(i % 10)}
	}
	seq, err := New(nil, nil, Config{Workers: 1}).Run(context.Background(), rows, byTime)
	if err != nil {
		t.Fatal(err)
	}
	par, err := New(nil, nil, Config{Workers: 8}).Run(context.Background(), rows, byTime)
	if err != nil {
		t.Fatal(err)
	}
	if len(seq) != len(par) {
		t.Fatalf("len %d vs %d", len(seq), len(par))
	}
	for i := range seq {
		if seq[i] != par[i] {
			t.Fatalf("record %d differs: %+v vs %+v", i, seq[i], par[i])
		}
	}
}

func TestRun_PredictorErrorStops(t *testing.T) {
	boom := errors.New("model exploded")
	var calls atomic.Int32
	p := feed.PredictorFunc(func(_ context.Context, f observation.Features) (float64, error) {
		calls.Add(1)
		if f[0] == 1 {
			return 0, boom
		}
		return 1, nil
	})
	for _, w := range []int{1, 4} {
		calls.Store(0)
		_, err := New(nil, nil, Config{Workers: w}).Run(context.Background(), batch(), p)
		if !errors.Is(err, boom) {
			t.Fatalf("workers=%d: expected predictor error, got %v", w, err)
		}
	}
}

func TestRun_EmptyBatch(t *testing.T) {
	got, err := New(nil, nil, Config{Workers: 3}).Run(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no records, got %d", len(got))
	}
}

func TestRun_CancelledParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil, nil, Config{Workers: 2}).Run(ctx, batch(), byTime)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	in := batch()
	if _, err := New(nil, nil, Config{}).Run(context.Background(), in, byTime); err != nil {
		t.Fatal(err)
	}
	if in[0].TimeHr != 2 || in[0].Flags != nil {
		t.Fatal("input batch was modified")
	}
}

func TestRound2AndMean(t *testing.T) {
	cases := map[float64]float64{
		1.234:  1.23,
		1.236:  1.24,
		-1.236: -1.24,
		7:      7,
		2.675:  2.67,
		0.125:  0.12,
		0.375:  0.38,
		10.625: 10.62,
		-0.125: -0.12,
	}
	for in, want := range cases {
		if got := Round2(in); got != want {
			t.Fatalf("Round2(%v) = %v want %v", in, got, want)
		}
	}
	if MeanFeed(nil) != 0 {
		t.Fatal("mean of nothing should be zero")
	}
	if got := MeanFeed([]Record{{PredictedFeed: 1, rawFeed: 1}, {PredictedFeed: 2, rawFeed: 2}}); got != 1.5 {
		t.Fatalf("MeanFeed = %v", got)
	}
	rs := []Record{{PredictedFeed: 9, rawFeed: 1.004}, {PredictedFeed: 9, rawFeed: 1.024}}
	if got := MeanFeed(rs); got != 1.01 {
		t.Fatalf("MeanFeed rounded = %v", got)
	}
}

func TestRun_MeanUsesRawPredictions(t *testing.T) {
	rows := []observation.Observation{{BatchID: "B", TimeHr: 0}, {BatchID: "B", TimeHr: 1}}
	// displayed 0.01 and 0.02 average to 0.015; the raw mean 0.019 rounds to 0.02
	preds := []float64{0.014, 0.024}
	i := 0
	p := feed.PredictorFunc(func(context.Context, observation.Features) (float64, error) {
		v := preds[i]
		i++
		return v, nil
	})
	recs, err := New(nil, nil, Config{}).Run(context.Background(), rows, p)
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].PredictedFeed != 0.01 || recs[1].PredictedFeed != 0.02 || MeanFeed(recs) != 0.02 {
		t.Fatalf("records %+v mean %v", recs, MeanFeed(recs))
	}
}
