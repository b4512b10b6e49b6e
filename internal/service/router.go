package service

import (
	"context"

	"divorcerisk/internal/model"
)

// RouteRequest is one batched routing call for a single partner
type RouteRequest struct {
	Texts         []string
	Items         []model.CanonicalItem
	MinConfidence float64
}

// SemanticRouter maps free-text statements onto canonical items. Results are
// positionally aligned with req.Texts; an error means the whole batch failed.
type SemanticRouter interface {
	Route(ctx context.Context, req RouteRequest) ([]model.RouteResult, error)
}
