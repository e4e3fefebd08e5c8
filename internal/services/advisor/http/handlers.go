// Package http provides http transport for the advisor
package http

import (
	stdhttp "net/http"

	"bioreactor/internal/modkit/httpkit"
	"bioreactor/internal/services/advisor/domain"
)

// Register mounts advisor endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	domain.RegisterValidators()
	h := &handlers{svc: s}

	// stored batches
	httpkit.Get(r, "/", h.batches)
	httpkit.Get(r, "/{batchID}/observations", h.observations)
	httpkit.Get(r, "/{batchID}/recommendations", h.recommendations)
	httpkit.Get(r, "/{batchID}/summary", h.summary)

	// inline batch, nothing stored
	httpkit.PostJSON[domain.AdviseInput](r, "/advise", h.advise)
}

type handlers struct{ svc domain.ServicePort }

// swagger:route GET /batches Batches listBatches
// @Summary List stored batches
// @Tags Batches
// @Produce json
// @Success 200 {array} obsdomain.BatchInfo "ok"
// @Failure 503 {object} errors.Wire "store not configured"
// @Router /batches [get]
func (h *handlers) batches(r *stdhttp.Request) (any, error) {
	return h.svc.Batches(r.Context())
}

// swagger:route GET /batches/{batchID}/observations Batches batchObservations
// @Summary Annotated observations of one batch
// @Tags Batches
// @Produce json
// @Param batchID path string true "Batch id" example(B001)
// @Success 200 {object} domain.ObservationsResponse "ok"
// @Failure 404 {object} errors.Wire "unknown batch"
// @Router /batches/{batchID}/observations [get]
func (h *handlers) observations(r *stdhttp.Request) (any, error) {
	return h.svc.Observations(r.Context(), httpkit.Param(r, "batchID"))
}

// swagger:route GET /batches/{batchID}/recommendations Batches batchRecommendations
// @Summary Feed recommendation and anomaly explanation per time point
// @Tags Batches
// @Produce json
// @Param batchID path string true "Batch id" example(B001)
// @Success 200 {object} domain.RecommendationsResponse "ok"
// @Failure 404 {object} errors.Wire "unknown batch"
// @Router /batches/{batchID}/recommendations [get]
func (h *handlers) recommendations(r *stdhttp.Request) (any, error) {
	return h.svc.Recommendations(r.Context(), httpkit.Param(r, "batchID"))
}

// swagger:route GET /batches/{batchID}/summary Batches batchSummary
// @Summary Batch summary
// @Tags Batches
// @Produce json
// @Param batchID path string true "Batch id" example(B001)
// @Success 200 {object} domain.SummaryResponse "ok"
// @Router /batches/{batchID}/summary [get]
func (h *handlers) summary(r *stdhttp.Request) (any, error) {
	return h.svc.Summary(r.Context(), httpkit.Param(r, "batchID"))
}

// swagger:route POST /batches/advise Batches adviseInline
// @Summary Run the engine over an inline batch
// @Tags Batches
// @Accept json
// @Produce json
// @Param payload body domain.AdviseInput true "Batch"
// @Success 200 {object} domain.RecommendationsResponse "ok"
// @Failure 400 {object} errors.Wire "malformed body"
// @Failure 422 {object} errors.Wire "invalid row"
// @Router /batches/advise [post]
func (h *handlers) advise(r *stdhttp.Request, in domain.AdviseInput) (any, error) {
	return h.svc.Advise(r.Context(), in)
}
