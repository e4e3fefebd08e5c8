package domain

import (
	"context"

	obsdomain "bioreactor/internal/services/observations/domain"
)

// ServicePort is consumed by handlers and the advise CLI
type ServicePort interface {
	Batches(ctx context.Context) ([]obsdomain.BatchInfo, error)
	Observations(ctx context.Context, batchID string) (ObservationsResponse, error)
	Recommendations(ctx context.Context, batchID string) (RecommendationsResponse, error)
	Summary(ctx context.Context, batchID string) (SummaryResponse, error)
	Advise(ctx context.Context, in AdviseInput) (RecommendationsResponse, error)
}

// EnginePort reports the engine configuration to the meta endpoints
type EnginePort interface {
	Engine() EngineInfo
}
