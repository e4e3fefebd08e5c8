// Package service runs the detection and recommendation engine over stored or inline batches
package service

import (
	"context"
	"strconv"
	"time"

	"bioreactor/internal/core/advisor"
	"bioreactor/internal/core/anomaly"
	"bioreactor/internal/core/batchid"
	"bioreactor/internal/core/feed"
	"bioreactor/internal/core/observation"
	perr "bioreactor/internal/platform/errors"
	"bioreactor/internal/platform/logger"
	"bioreactor/internal/services/advisor/domain"
	obsdomain "bioreactor/internal/services/observations/domain"
)

// Service is the advisor service contract
type Service interface {
	domain.ServicePort
	domain.EnginePort
}

// Svc implements Service
type Svc struct {
	reader obsdomain.ReaderPort
	adv    *advisor.Advisor
	pred   feed.Predictor
	kind   string
}

var _ Service = (*Svc)(nil)

// New constructs the service; a nil reader leaves only inline advice available
func New(reader obsdomain.ReaderPort, adv *advisor.Advisor, pred feed.Predictor, kind string) *Svc {
	if adv == nil {
		panic("advisor.Service requires an Advisor")
	}
	if pred == nil {
		panic("advisor.Service requires a Predictor")
	}
	if reader == nil {
		reader = noStore{}
	}
	return &Svc{reader: reader, adv: adv, pred: pred, kind: kind}
}

// Engine reports the active configuration
func (s *Svc) Engine() domain.EngineInfo {
	return domain.EngineInfo{
		Thresholds: s.adv.Det.Thresholds(),
		Rules:      s.adv.Rec.Rules(),
		Predictor:  s.kind,
		Workers:    s.adv.Cfg.Workers,
	}
}

// Batches lists stored batches
func (s *Svc) Batches(ctx context.Context) ([]obsdomain.BatchInfo, error) {
	return s.reader.ListBatches(ctx)
}

// Observations returns the batch with anomaly flags set
func (s *Svc) Observations(ctx context.Context, batchID string) (domain.ObservationsResponse, error) {
	id, rows, err := s.load(ctx, batchID)
	if err != nil {
		return domain.ObservationsResponse{}, err
	}
	annotated := s.adv.Annotate(rows)
	return domain.ObservationsResponse{BatchID: id, Rows: annotated, Summary: anomaly.Summarize(annotated)}, nil
}

// Recommendations returns one record per stored time point
func (s *Svc) Recommendations(ctx context.Context, batchID string) (domain.RecommendationsResponse, error) {
	id, rows, err := s.load(ctx, batchID)
	if err != nil {
		return domain.RecommendationsResponse{}, err
	}
	return s.run(logger.WithBatch(ctx, id), sourceStored, id, rows)
}

// Summary condenses a stored batch
func (s *Svc) Summary(ctx context.Context, batchID string) (domain.SummaryResponse, error) {
	rec, err := s.Recommendations(ctx, batchID)
	if err != nil {
		return domain.SummaryResponse{}, err
	}
	out := domain.SummaryResponse{BatchID: rec.BatchID, MeanPredictedFeed: advisor.MeanFeed(rec.Records)}
	out.Anomalies.Rows = len(rec.Records)
	for _, r := range rec.Records {
		if r.Flags.DODrop {
			out.Anomalies.DODrop++
		}
		if r.Flags.LactateSpike {
			out.Anomalies.LactateSpike++
		}
		if r.Flags.PHDrift {
			out.Anomalies.PHDrift++
		}
		if r.Flags.Any() {
			out.Anomalies.Flagged++
		}
	}
	if n := len(rec.Records); n > 0 {
		out.StartHr = rec.Records[0].TimeHr
		out.EndHr = rec.Records[n-1].TimeHr
		out.LastAdvice = rec.Records[n-1].FeedRecommendation
	}
	return out, nil
}

// Advise runs the engine over an inline batch without touching storage
func (s *Svc) Advise(ctx context.Context, in domain.AdviseInput) (domain.RecommendationsResponse, error) {
	id := batchid.Normalize(in.BatchID)
	if id != "" && !batchid.Valid(id) {
		return domain.RecommendationsResponse{}, perr.WithField(perr.InvalidArgf("invalid batch id %q", in.BatchID), "batch_id")
	}
	if len(in.Rows) == 0 {
		return domain.RecommendationsResponse{}, perr.WithField(perr.Validationf("rows is required"), "rows")
	}
	if len(in.Rows) > domain.MaxAdviseRows {
		return domain.RecommendationsResponse{}, perr.WithField(perr.Validationf("rows must be at most %d", domain.MaxAdviseRows), "rows")
	}
	rows := in.Observations(id)
	for i, o := range rows {
		if err := o.Validate(); err != nil {
			return domain.RecommendationsResponse{}, perr.WithOp(err, "rows["+strconv.Itoa(i)+"]")
		}
	}
	return s.run(logger.WithBatch(ctx, id), sourceInline, id, rows)
}

func (s *Svc) load(ctx context.Context, batchID string) (string, []observation.Observation, error) {
	id := batchid.Normalize(batchID)
	rows, err := s.reader.ListByBatch(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return id, rows, nil
}

func (s *Svc) run(ctx context.Context, source, id string, rows []observation.Observation) (domain.RecommendationsResponse, error) {
	l := logger.C(ctx)
	if !observation.IsSorted(rows) {
		l.Debug().Int("rows", len(rows)).Msg("rows out of time order, sorting")
	}
	start := time.Now()
	recs, err := s.adv.Run(ctx, rows, s.pred)
	took := time.Since(start)
	runSeconds.WithLabelValues(s.kind).Observe(took.Seconds())
	if err != nil {
		runsTotal.WithLabelValues(source, "error").Inc()
		l.Warn().Err(err).Str("predictor", s.kind).Msg("advisor run failed")
		return domain.RecommendationsResponse{}, perr.WithOp(err, "predict")
	}
	runsTotal.WithLabelValues(source, "ok").Inc()
	rowsTotal.Add(float64(len(recs)))
	l.Debug().Int("rows", len(recs)).Dur("took", took).Msg("advisor run")
	return domain.RecommendationsResponse{BatchID: id, Predictor: s.kind, Records: recs}, nil
}

// noStore serves deployments without an observations store
type noStore struct{}

func (noStore) ListBatches(context.Context) ([]obsdomain.BatchInfo, error) {
	return nil, perr.Unavailablef("observations store not configured")
}

func (noStore) ListByBatch(context.Context, string) ([]observation.Observation, error) {
	return nil, perr.Unavailablef("observations store not configured")
}
