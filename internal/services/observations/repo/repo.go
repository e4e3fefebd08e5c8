// Package repo provides postgres and clickhouse persistence for observations
package repo

import (
	"context"

	"bioreactor/internal/core/observation"
	"bioreactor/internal/services/observations/domain"

	"github.com/google/uuid"
)

// Record is a row with its storage id
type Record struct {
	ID uuid.UUID
	domain.Row
}

// Repo is the persistence surface both backends implement
type Repo interface {
	EnsureSchema(ctx context.Context) error
	ListBatches(ctx context.Context) ([]domain.BatchInfo, error)
	ListByBatch(ctx context.Context, batchID string, limit int) ([]observation.Observation, error)
	Insert(ctx context.Context, recs []Record) (int, error)
}

// Backend hands the service a repo, inside a transaction where the store has them
type Backend interface {
	Name() string
	Repo() Repo
	InTx(ctx context.Context, fn func(Repo) error) error
}

// columns in insert and select order, after id
var columns = []string{
	"batch_id", "time_hr", "vcd_e6_per_ml", "glucose_g_per_l", "lactate_g_per_l",
	"ph", "do_pct", "temperature_c", "agitation_rpm", "airflow_slpm", "feed_rate_ml_per_hr",
}

// scanTargets returns destinations for every column but feed rate
func scanTargets(o *observation.Observation) []any {
	return []any{
		&o.BatchID, &o.TimeHr, &o.VCD, &o.Glucose, &o.Lactate,
		&o.PH, &o.DO, &o.Temperature, &o.Agitation, &o.Airflow,
	}
}
