package service

import (
	"context"
	"testing"

	"bioreactor/internal/core/advisor"
	"bioreactor/internal/core/anomaly"
	"bioreactor/internal/core/feed"
	"bioreactor/internal/core/model"
	"bioreactor/internal/core/observation"
	perr "bioreactor/internal/platform/errors"
	"bioreactor/internal/platform/testkit"
	"bioreactor/internal/services/advisor/domain"
	obsdomain "bioreactor/internal/services/observations/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type memReader struct {
	batches map[string][]observation.Observation
}

func (m memReader) ListBatches(context.Context) ([]obsdomain.BatchInfo, error) {
	out := []obsdomain.BatchInfo{}
	for id, rows := range m.batches {
		out = append(out, obsdomain.BatchInfo{BatchID: id, Rows: int64(len(rows))})
	}
	return out, nil
}

func (m memReader) ListByBatch(_ context.Context, id string) ([]observation.Observation, error) {
	rows, ok := m.batches[id]
	if !ok {
		return nil, perr.WithField(perr.NotFoundf("batch %s not found", id), "batch_id")
	}
	return rows, nil
}

func row(t, vcd, glucose, lactate, ph, do float64) observation.Observation {
	return observation.Observation{
		BatchID: "B001", TimeHr: t, VCD: vcd, Glucose: glucose, Lactate: lactate,
		PH: ph, DO: do, Temperature: 37, Agitation: 150, Airflow: 1,
	}
}

// three rows stored out of order; DO falls 20 points each hour and lactate spikes at 2h
func fixture() memReader {
	return memReader{batches: map[string][]observation.Observation{
		"B001": {
			row(2, 9, 1.5, 2.5, 7.0, 40),
			row(0, 1, 6, 0.5, 7.0, 80),
			row(1, 2, 5, 1.0, 7.0, 60),
		},
	}}
}

func newSvc(reader obsdomain.ReaderPort, p feed.Predictor) *Svc {
	return New(reader, advisor.New(nil, nil, advisor.Config{}), p, KindLinear)
}

var vcdModel = model.Linear{Intercept: 1, Coef: [observation.FeatureCount]float64{0, 0.5}}

func TestRecommendations_SortedAndExplained(t *testing.T) {
	s := newSvc(fixture(), vcdModel)
	got, err := s.Recommendations(context.Background(), " b001 ")
	if err != nil {
		t.Fatal(err)
	}
	if got.BatchID != "B001" || got.Predictor != KindLinear || len(got.Records) != 3 {
		t.Fatalf("response %+v", got)
	}
	for i, want := range []float64{0, 1, 2} {
		if got.Records[i].TimeHr != want {
			t.Fatalf("record %d at %v", i, got.Records[i].TimeHr)
		}
	}
	first, last := got.Records[0], got.Records[2]
	if first.AnomalyExplanation != anomaly.MsgNone || first.FeedRecommendation != feed.MsgStable {
		t.Fatalf("first %+v", first)
	}
	testkit.Near(t, last.PredictedFeed, 5.5, 1e-9)
	testkit.MustContain(t, last.AnomalyExplanation, anomaly.MsgDODrop)
	testkit.MustContain(t, last.AnomalyExplanation, anomaly.MsgLactateSpike)
	testkit.MustContain(t, last.FeedRecommendation, feed.MsgGlucoseLow)
	testkit.MustContain(t, last.FeedRecommendation, feed.MsgVCDHigh)
}

func TestObservations_AnnotatesAndSummarizes(t *testing.T) {
	s := newSvc(fixture(), vcdModel)
	got, err := s.Observations(context.Background(), "B001")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Rows) != 3 || got.Rows[0].Flags == nil || got.Rows[0].TimeHr != 0 {
		t.Fatalf("rows %+v", got.Rows)
	}
	want := anomaly.Summary{Rows: 3, Flagged: 2, DODrop: 2, LactateSpike: 1}
	if got.Summary != want {
		t.Fatalf("summary %+v want %+v", got.Summary, want)
	}
}

func TestSummary(t *testing.T) {
	s := newSvc(fixture(), vcdModel)
	got, err := s.Summary(context.Background(), "B001")
	if err != nil {
		t.Fatal(err)
	}
	if got.StartHr != 0 || got.EndHr != 2 || got.Anomalies.Flagged != 2 {
		t.Fatalf("summary %+v", got)
	}
	// predictions 1.5, 2, 5.5
	testkit.Near(t, got.MeanPredictedFeed, 3, 1e-9)
	testkit.MustContain(t, got.LastAdvice, feed.MsgGlucoseLow)
}

func TestStoredReads_Errors(t *testing.T) {
	s := newSvc(fixture(), vcdModel)
	if _, err := s.Recommendations(context.Background(), "B404"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("want not found, got %v", err)
	}

	noStore := newSvc(nil, vcdModel)
	if _, err := noStore.Batches(context.Background()); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("want unavailable, got %v", err)
	}
	if _, err := noStore.Summary(context.Background(), "B001"); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("want unavailable, got %v", err)
	}
}

func TestAdvise(t *testing.T) {
	s := newSvc(nil, vcdModel)
	in := domain.AdviseInput{BatchID: "b-7", Rows: []domain.RowInput{
		{TimeHr: 1, VCD: 2, Glucose: 5, DO: 60, PH: 7},
		{TimeHr: 0, VCD: 1, Glucose: 6, DO: 80, PH: 7},
	}}
	got, err := s.Advise(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if got.BatchID != "B-7" || len(got.Records) != 2 || got.Records[0].TimeHr != 0 {
		t.Fatalf("advise %+v", got)
	}

	cases := []struct {
		name  string
		in    domain.AdviseInput
		code  perr.ErrorCode
		field string
	}{
		{"empty", domain.AdviseInput{}, perr.ErrorCodeValidation, "rows"},
		{"too many", domain.AdviseInput{Rows: make([]domain.RowInput, domain.MaxAdviseRows+1)}, perr.ErrorCodeValidation, "rows"},
		{"bad id", domain.AdviseInput{BatchID: "B 1", Rows: in.Rows}, perr.ErrorCodeInvalidArgument, "batch_id"},
		{"negative time", domain.AdviseInput{Rows: []domain.RowInput{{TimeHr: -1}}}, perr.ErrorCodeInvalidArgument, "time_hr"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Advise(context.Background(), tc.in)
			e, ok := perr.As(err)
			if !ok || e.Code() != tc.code || e.Field() != tc.field {
				t.Fatalf("got %v", err)
			}
		})
	}
}

func TestAdvise_PredictorFailure(t *testing.T) {
	boom := perr.Unavailablef("model server down")
	s := newSvc(nil, feed.PredictorFunc(func(context.Context, observation.Features) (float64, error) {
		return 0, boom
	}))
	_, err := s.Advise(context.Background(), domain.AdviseInput{Rows: []domain.RowInput{{TimeHr: 0}}})
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("got %v", err)
	}
	if e, _ := perr.As(err); e.Op() != "predict" {
		t.Fatalf("op %q", e.Op())
	}
}

func TestEngine(t *testing.T) {
	th := anomaly.Thresholds{DODrop: -5, LactateSpike: 1, PHDrift: 0.2}
	adv := advisor.New(anomaly.NewWithThresholds(th), nil, advisor.Config{Workers: 4})
	info := New(nil, adv, vcdModel, KindRemote).Engine()
	if info.Thresholds != th || info.Rules != feed.DefaultRules() || info.Workers != 4 || info.Predictor != KindRemote {
		t.Fatalf("engine %+v", info)
	}
}

func TestNew_PanicsWithoutEngine(t *testing.T) {
	testkit.MustPanic(t, func() { New(nil, nil, vcdModel, KindLinear) })
	testkit.MustPanic(t, func() { New(nil, advisor.New(nil, nil, advisor.Config{}), nil, KindLinear) })
}

func TestRunMetrics(t *testing.T) {
	okInline := testutil.ToFloat64(runsTotal.WithLabelValues(sourceInline, "ok"))
	errInline := testutil.ToFloat64(runsTotal.WithLabelValues(sourceInline, "error"))
	okStored := testutil.ToFloat64(runsTotal.WithLabelValues(sourceStored, "ok"))
	rows := testutil.ToFloat64(rowsTotal)

	s := newSvc(fixture(), vcdModel)
	if _, err := s.Recommendations(context.Background(), "B001"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Advise(context.Background(), domain.AdviseInput{Rows: []domain.RowInput{{TimeHr: 0}}}); err != nil {
		t.Fatal(err)
	}
	failing := newSvc(nil, feed.PredictorFunc(func(context.Context, observation.Features) (float64, error) {
		return 0, perr.Unavailablef("down")
	}))
	_, _ = failing.Advise(context.Background(), domain.AdviseInput{Rows: []domain.RowInput{{TimeHr: 0}}})

	if d := testutil.ToFloat64(runsTotal.WithLabelValues(sourceStored, "ok")) - okStored; d != 1 {
		t.Fatalf("stored ok delta %v", d)
	}
	if d := testutil.ToFloat64(runsTotal.WithLabelValues(sourceInline, "ok")) - okInline; d != 1 {
		t.Fatalf("inline ok delta %v", d)
	}
	if d := testutil.ToFloat64(runsTotal.WithLabelValues(sourceInline, "error")) - errInline; d != 1 {
		t.Fatalf("inline error delta %v", d)
	}
	if d := testutil.ToFloat64(rowsTotal) - rows; d != 4 {
		t.Fatalf("rows delta %v", d)
	}
}
