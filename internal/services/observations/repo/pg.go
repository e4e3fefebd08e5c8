package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bioreactor/internal/core/observation"
	"bioreactor/internal/modkit/repokit"
	perr "bioreactor/internal/platform/errors"
	"bioreactor/internal/platform/store"
	"bioreactor/internal/services/observations/domain"
)

// pgChunk bounds rows per INSERT so a statement stays under the 65535 parameter cap
const pgChunk = 500

type (
	// PG binds the repo to a Queryer
	PG struct{}

	pgQueries struct{ q repokit.Queryer }
)

// NewPG returns the postgres binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind wires a Queryer to the repo
func (PG) Bind(q repokit.Queryer) Repo { return &pgQueries{q: q} }

const pgSchema = `
create table if not exists observations (
	id                  uuid primary key,
	batch_id            text not null,
	time_hr             double precision not null check (time_hr >= 0),
	vcd_e6_per_ml       double precision not null,
	glucose_g_per_l     double precision not null,
	lactate_g_per_l     double precision not null,
	ph                  double precision not null,
	do_pct              double precision not null,
	temperature_c       double precision not null,
	agitation_rpm       double precision not null,
	airflow_slpm        double precision not null,
	feed_rate_ml_per_hr double precision,
	created_at          timestamptz not null default now()
);
create index if not exists observations_batch_time on observations (batch_id, time_hr)
`

func (r *pgQueries) EnsureSchema(ctx context.Context) error {
	_, err := r.q.Exec(ctx, pgSchema)
	return perr.FromPostgres(err, "ensure observations schema")
}

func (r *pgQueries) ListBatches(ctx context.Context) ([]domain.BatchInfo, error) {
	const sql = `
select batch_id, count(*), min(time_hr), max(time_hr)
from observations
group by batch_id
order by batch_id
`
	out, err := store.Many(ctx, r.q, func(row store.Row) (domain.BatchInfo, error) {
		var b domain.BatchInfo
		err := row.Scan(&b.BatchID, &b.Rows, &b.MinTimeHr, &b.MaxTimeHr)
		return b, err
	}, sql)
	return out, perr.FromPostgres(err, "list batches")
}

func (r *pgQueries) ListByBatch(ctx context.Context, batchID string, limit int) ([]observation.Observation, error) {
	sql := `select ` + strings.Join(columns[:len(columns)-1], ", ") + `
from observations
where batch_id = $1
order by time_hr, created_at, id
limit $2`
	out, err := store.Many(ctx, r.q, func(row store.Row) (observation.Observation, error) {
		var o observation.Observation
		err := row.Scan(scanTargets(&o)...)
		return o, err
	}, sql, batchID, limit)
	return out, perr.FromPostgres(err, "list observations")
}

func (r *pgQueries) Insert(ctx context.Context, recs []Record) (int, error) {
	n := 0
	now := time.Now().UTC()
	for start := 0; start < len(recs); start += pgChunk {
		chunk := recs[start:min(start+pgChunk, len(recs))]
		sql, args := pgInsert(chunk, now, start)
		tag, err := r.q.Exec(ctx, sql, args...)
		if err != nil {
			return n, perr.FromPostgres(err, "insert observations")
		}
		n += int(tag.RowsAffected())
	}
	return n, nil
}

// pgInsert builds one multi-row insert. created_at is now plus the row's position in the whole
// batch (first is the chunk's offset) so a batch keeps its input order on ties across chunks
func pgInsert(recs []Record, now time.Time, first int) (string, []any) {
	cols := append([]string{"id"}, columns...)
	cols = append(cols, "created_at")
	width := len(cols)

	var b strings.Builder
	b.WriteString("insert into observations (" + strings.Join(cols, ", ") + ") values ")
	args := make([]any, 0, len(recs)*width)
	for i, rec := range recs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := range width {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", i*width+j+1)
		}
		b.WriteByte(')')
		o := rec.Observation
		args = append(args, rec.ID, o.BatchID, o.TimeHr, o.VCD, o.Glucose, o.Lactate,
			o.PH, o.DO, o.Temperature, o.Agitation, o.Airflow, rec.FeedRate, now.Add(time.Duration(first+i)*time.Microsecond))
	}
	return b.String(), args
}

// pgBackend runs writes in a transaction bounded by a statement timeout
type pgBackend struct {
	tx     repokit.TxRunner
	binder repokit.Binder[Repo]
}

// NewPGBackend wraps tx; every transaction gets SET LOCAL statement_timeout
func NewPGBackend(tx repokit.TxRunner, timeout time.Duration) Backend {
	if tx == nil {
		panic("observations: postgres backend requires a TxRunner")
	}
	return pgBackend{
		tx:     repokit.WithBeginHooks(tx, repokit.StatementTimeout(timeout)),
		binder: NewPG(),
	}
}

func (b pgBackend) Name() string { return "pg" }

func (b pgBackend) Repo() Repo { return repokit.MustBind(b.binder, b.tx) }

func (b pgBackend) InTx(ctx context.Context, fn func(Repo) error) error {
	return repokit.WithTx(ctx, b.tx, func(q repokit.Queryer) error {
		return fn(repokit.MustBind(b.binder, q))
	})
}
