package repo

import (
	"context"
	"strings"
	"time"

	"bioreactor/internal/core/observation"
	perr "bioreactor/internal/platform/errors"
	"bioreactor/internal/platform/store"
	"bioreactor/internal/services/observations/domain"
)

// CHTable is the clickhouse table observations live in
const CHTable = "bioreactor.observations"

// chQueries reads and writes observations over the clickhouse seam
type chQueries struct{ ch store.Clickhouse }

// NewCH binds the repo to a clickhouse seam
func NewCH(ch store.Clickhouse) Repo { return &chQueries{ch: ch} }

var chSchema = []string{
	`create database if not exists bioreactor`,
	`create table if not exists ` + CHTable + ` (
	id                  UUID,
	batch_id            LowCardinality(String),
	time_hr             Float64,
	vcd_e6_per_ml       Float64,
	glucose_g_per_l     Float64,
	lactate_g_per_l     Float64,
	ph                  Float64,
	do_pct              Float64,
	temperature_c       Float64,
	agitation_rpm       Float64,
	airflow_slpm        Float64,
	feed_rate_ml_per_hr Nullable(Float64),
	inserted_at         DateTime64(6, 'UTC')
) engine = MergeTree
order by (batch_id, time_hr, inserted_at)`,
}

func (r *chQueries) EnsureSchema(ctx context.Context) error {
	for _, ddl := range chSchema {
		if err := r.ch.Exec(ctx, ddl); err != nil {
			return perr.FromClickhouse(err, "ensure observations schema")
		}
	}
	return nil
}

func (r *chQueries) ListBatches(ctx context.Context) ([]domain.BatchInfo, error) {
	const sql = `
select batch_id, toInt64(count()), min(time_hr), max(time_hr)
from ` + CHTable + `
group by batch_id
order by batch_id`
	rows, err := r.ch.Query(ctx, sql)
	if err != nil {
		return nil, perr.FromClickhouse(err, "list batches")
	}
	out, err := store.Collect(rows, func(row store.Row) (domain.BatchInfo, error) {
		var b domain.BatchInfo
		err := row.Scan(&b.BatchID, &b.Rows, &b.MinTimeHr, &b.MaxTimeHr)
		return b, err
	})
	return out, perr.FromClickhouse(err, "list batches")
}

func (r *chQueries) ListByBatch(ctx context.Context, batchID string, limit int) ([]observation.Observation, error) {
	sql := `select ` + strings.Join(columns[:len(columns)-1], ", ") + `
from ` + CHTable + `
where batch_id = ?
order by time_hr, inserted_at
limit ?`
	rows, err := r.ch.Query(ctx, sql, batchID, uint64(limit))
	if err != nil {
		return nil, perr.FromClickhouse(err, "list observations")
	}
	out, err := store.Collect(rows, func(row store.Row) (observation.Observation, error) {
		var o observation.Observation
		err := row.Scan(scanTargets(&o)...)
		return o, err
	})
	return out, perr.FromClickhouse(err, "list observations")
}

func (r *chQueries) Insert(ctx context.Context, recs []Record) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	batch := make([][]any, len(recs))
	for i, rec := range recs {
		o := rec.Observation
		batch[i] = []any{
			rec.ID, o.BatchID, o.TimeHr, o.VCD, o.Glucose, o.Lactate,
			o.PH, o.DO, o.Temperature, o.Agitation, o.Airflow, rec.FeedRate,
			now.Add(time.Duration(i) * time.Microsecond),
		}
	}
	if err := r.ch.Insert(ctx, CHTable, batch); err != nil {
		return 0, perr.FromClickhouse(err, "insert observations")
	}
	return len(recs), nil
}

// chBackend has no transactions; a batch insert is already atomic per block
type chBackend struct{ repo Repo }

// NewCHBackend wraps a clickhouse seam
func NewCHBackend(ch store.Clickhouse) Backend {
	if ch == nil {
		panic("observations: clickhouse backend requires a connection")
	}
	return chBackend{repo: NewCH(ch)}
}

func (b chBackend) Name() string { return "ch" }

func (b chBackend) Repo() Repo { return b.repo }

func (b chBackend) InTx(_ context.Context, fn func(Repo) error) error { return fn(b.repo) }
