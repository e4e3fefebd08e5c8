// Package service contains the observations workflows
package service

import (
	"context"
	"strconv"
	"time"

	"bioreactor/internal/core/batchid"
	"bioreactor/internal/core/observation"
	perr "bioreactor/internal/platform/errors"
	"bioreactor/internal/platform/logger"
	"bioreactor/internal/services/observations/domain"
	"bioreactor/internal/services/observations/repo"

	"github.com/google/uuid"
)

// DefaultHardLimit caps rows read per batch
const DefaultHardLimit = 10000

// Service is the observations service contract
type Service interface {
	domain.ServicePort
}

// Options tunes the service
type Options struct {
	HardLimit int
}

// Svc implements Service over a storage backend
type Svc struct {
	backend repo.Backend
	limit   int
	newID   func() (uuid.UUID, error)
}

var _ Service = (*Svc)(nil)

// New constructs the service; a non-positive HardLimit uses DefaultHardLimit
func New(b repo.Backend, opt Options) *Svc {
	if b == nil {
		panic("observations.Service requires a backend")
	}
	if opt.HardLimit <= 0 {
		opt.HardLimit = DefaultHardLimit
	}
	return &Svc{backend: b, limit: opt.HardLimit, newID: uuid.NewV7}
}

// EnsureSchema creates the table when missing
func (s *Svc) EnsureSchema(ctx context.Context) error {
	return s.backend.Repo().EnsureSchema(ctx)
}

// ListBatches lists stored batches ordered by id
func (s *Svc) ListBatches(ctx context.Context) ([]domain.BatchInfo, error) {
	out, err := s.backend.Repo().ListBatches(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.BatchInfo{}
	}
	return out, nil
}

// ListByBatch returns a batch's rows in time order; an unknown batch is not found
func (s *Svc) ListByBatch(ctx context.Context, batchID string) ([]observation.Observation, error) {
	id, err := normalizeID(batchID)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithBatch(ctx, id)
	start := time.Now()

	rows, err := s.backend.Repo().ListByBatch(ctx, id, s.limit)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, perr.WithField(perr.NotFoundf("batch %s not found", id), "batch_id")
	}

	l := logger.C(ctx)
	if len(rows) == s.limit {
		l.Warn().Int("limit", s.limit).Msg("batch truncated at hard limit")
	}
	l.Debug().Str("backend", s.backend.Name()).Int("rows", len(rows)).Dur("took", time.Since(start)).Msg("batch loaded")
	return rows, nil
}

// WriteBatch validates and stores rows in one transaction; feed is nil or aligned with rows
func (s *Svc) WriteBatch(ctx context.Context, rows []observation.Observation, feed []float64) (int, error) {
	if feed != nil && len(feed) != len(rows) {
		return 0, perr.InvalidArgf("feed has %d values for %d rows", len(feed), len(rows))
	}
	recs := make([]repo.Record, len(rows))
	for i, o := range rows {
		id, err := normalizeID(o.BatchID)
		if err != nil {
			return 0, perr.WithOp(err, "row "+strconv.Itoa(i))
		}
		o.BatchID = id
		o.Flags = nil
		if err := o.Validate(); err != nil {
			return 0, perr.WithOp(err, "row "+strconv.Itoa(i))
		}
		uid, err := s.newID()
		if err != nil {
			return 0, err
		}
		recs[i] = repo.Record{ID: uid, Row: domain.Row{Observation: o}}
		if feed != nil {
			f := feed[i]
			recs[i].FeedRate = &f
		}
	}

	var n int
	err := s.backend.InTx(ctx, func(r repo.Repo) error {
		var err error
		n, err = r.Insert(ctx, recs)
		return err
	})
	if err != nil {
		return 0, err
	}
	logger.C(ctx).Debug().Str("backend", s.backend.Name()).Int("rows", n).Msg("observations written")
	return n, nil
}

func normalizeID(raw string) (string, error) {
	id := batchid.Normalize(raw)
	if !batchid.Valid(id) {
		return "", perr.WithField(perr.InvalidArgf("invalid batch id %q", raw), "batch_id")
	}
	return id, nil
}
