package domain

import (
	"context"

	"bioreactor/internal/core/observation"
)

// ReaderPort is the tabular data source the advisor reads batches from
type ReaderPort interface {
	ListBatches(ctx context.Context) ([]BatchInfo, error)
	ListByBatch(ctx context.Context, batchID string) ([]observation.Observation, error)
}

// WriterPort stores whole batches; feed may be nil or aligned with rows
type WriterPort interface {
	WriteBatch(ctx context.Context, rows []observation.Observation, feed []float64) (int, error)
}

// ServicePort is everything the observations service offers
type ServicePort interface {
	ReaderPort
	WriterPort
	EnsureSchema(ctx context.Context) error
}
