package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"

	"divorcerisk/internal/cache"
	"divorcerisk/internal/model"

	"go.uber.org/zap"
)

// CachedRouter serves repeated batches from Redis and delegates misses.
// Cache failures never fail a route call.
type CachedRouter struct {
	inner  SemanticRouter
	cache  cache.RouteCache
	salt   string
	logger *zap.Logger
}

// NewCachedRouter wraps inner. salt should identify the backing model so a
// model change does not serve stale routes.
func NewCachedRouter(inner SemanticRouter, c cache.RouteCache, salt string, logger *zap.Logger) *CachedRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedRouter{
		inner:  inner,
		cache:  c,
		salt:   salt,
		logger: logger,
	}
}

// Route returns cached results when the same batch was routed before
func (r *CachedRouter) Route(ctx context.Context, req RouteRequest) ([]model.RouteResult, error) {
	key, err := r.cacheKey(req)
	if err != nil {
		return r.inner.Route(ctx, req)
	}

	cached, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("route cache read failed", zap.Error(err))
	} else if cached != nil && len(cached) == len(req.Texts) {
		r.logger.Debug("route cache hit", zap.Int("texts", len(req.Texts)))
		return cached, nil
	}

	results, err := r.inner.Route(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(results) == len(req.Texts) {
		if err := r.cache.Set(ctx, key, results); err != nil {
			r.logger.Warn("route cache write failed", zap.Error(err))
		}
	}
	return results, nil
}

func (r *CachedRouter) cacheKey(req RouteRequest) (string, error) {
	h := sha256.New()
	h.Write([]byte(r.salt))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(req.MinConfidence, 'f', -1, 64)))
	h.Write([]byte{0})
	enc := json.NewEncoder(h)
	if err := enc.Encode(req.Items); err != nil {
		return "", err
	}
	if err := enc.Encode(req.Texts); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
