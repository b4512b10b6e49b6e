package service

import (
	"context"
	"fmt"

	"divorcerisk/internal/catalog"
	"divorcerisk/internal/model"
	"divorcerisk/internal/scoring"

	"go.uber.org/zap"
)

// DedupPolicy resolves several answers of one partner landing on the same feature
type DedupPolicy string

const (
	// DedupBest keeps the strictly most confident answer; ties keep the first
	DedupBest DedupPolicy = "best"
	// DedupAvg keeps the mean of every answer routed to the feature
	DedupAvg DedupPolicy = "avg"
)

// ParseDedupPolicy validates a policy name
func ParseDedupPolicy(s string) (DedupPolicy, error) {
	switch DedupPolicy(s) {
	case DedupBest, DedupAvg:
		return DedupPolicy(s), nil
	}
	return "", fmt.Errorf("unknown dedup policy %q (want best or avg)", s)
}

// NormalizerOptions are the caller-tunable thresholds of answer normalization
type NormalizerOptions struct {
	RelationThreshold float64
	MinConfidence     float64
	Dedup             DedupPolicy
}

// DefaultNormalizerOptions returns the standard thresholds
func DefaultNormalizerOptions() NormalizerOptions {
	return NormalizerOptions{
		RelationThreshold: 0.65,
		MinConfidence:     0.70,
		Dedup:             DedupBest,
	}
}

// Normalizer turns one partner's raw answers into a feature vector and audit trail
type Normalizer struct {
	catalog *catalog.Catalog
	router  SemanticRouter
	opts    NormalizerOptions
	logger  *zap.Logger
}

// NewNormalizer creates a new normalizer
func NewNormalizer(cat *catalog.Catalog, router SemanticRouter, opts NormalizerOptions, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{
		catalog: cat,
		router:  router,
		opts:    opts,
		logger:  logger,
	}
}

// Options returns the thresholds in use
func (n *Normalizer) Options() NormalizerOptions {
	return n.opts
}

// Normalize routes all answers of one partner in a single batch and folds the
// results into a vector. Router failures degrade to audit entries, never errors.
func (n *Normalizer) Normalize(ctx context.Context, partner model.Partner, answers []model.RawAnswer) (model.FeatureVector, []model.AuditEntry) {
	if len(answers) == 0 {
		return Reconcile(n.catalog, partner, nil, nil, nil, n.opts)
	}

	texts := make([]string, len(answers))
	for i, a := range answers {
		texts[i] = a.Text
	}

	results, err := n.router.Route(ctx, RouteRequest{
		Texts:         texts,
		Items:         n.catalog.Items(),
		MinConfidence: n.opts.MinConfidence,
	})
	if err != nil {
		n.logger.Warn("router batch failed",
			zap.String("partner", string(partner)),
			zap.Int("texts", len(texts)),
			zap.Error(err))
		err = fmt.Errorf("%w: %v", ErrRouterBatch, err)
	} else if len(results) != len(texts) {
		n.logger.Warn("router result count does not match request",
			zap.String("partner", string(partner)),
			zap.Int("texts", len(texts)),
			zap.Int("results", len(results)))
	}

	vec, audit := Reconcile(n.catalog, partner, answers, results, err, n.opts)

	var matched, unmatched, failed int
	for _, e := range audit {
		switch e.Status {
		case model.AuditOK:
			matched++
		case model.AuditRouterMissingTarget:
			unmatched++
		case model.AuditRouterError:
			failed++
		}
	}
	n.logger.Info("answers normalized",
		zap.String("partner", string(partner)),
		zap.Int("matched", matched),
		zap.Int("unmatched", unmatched),
		zap.Int("router_errors", failed),
		zap.Int("features", vec.Present()))

	return vec, audit
}

type retained struct {
	confidence float64
	sum        float64
	count      int
	auditIdx   int
}

// Reconcile applies routing results to answers. It is the deterministic half
// of normalization: results[i] belongs to answers[i], answers past the end of
// results are unmatched, and a non-nil routeErr fails every answer.
func Reconcile(cat *catalog.Catalog, partner model.Partner, answers []model.RawAnswer, results []model.RouteResult, routeErr error, opts NormalizerOptions) (model.FeatureVector, []model.AuditEntry) {
	vec := cat.NewVector()
	audit := make([]model.AuditEntry, 0, len(answers))
	if len(answers) == 0 {
		return vec, audit
	}

	if routeErr != nil {
		for _, a := range answers {
			audit = append(audit, model.AuditEntry{
				Partner:  partner,
				RawText:  a.Text,
				RawValue: a.Value,
				Status:   model.AuditRouterError,
				Error:    routeErr.Error(),
			})
		}
		return vec, audit
	}

	taken := make(map[string]*retained)
	for i, a := range answers {
		e := model.AuditEntry{
			Partner:  partner,
			RawText:  a.Text,
			RawValue: a.Value,
		}

		if i >= len(results) {
			e.Status = model.AuditRouterMissingTarget
			e.Error = fmt.Errorf("%w: router returned no result for this answer", ErrMissingTarget).Error()
			audit = append(audit, e)
			continue
		}

		r := results[i]
		e.Relation = r.Relation
		e.Confidence = r.Confidence
		e.Alternates = r.Alternates

		item, known := cat.Item(r.TargetID)
		var missErr error
		switch {
		case !r.Matched():
			missErr = fmt.Errorf("%w: router found no match", ErrMissingTarget)
		case !known:
			e.FeatureID = r.TargetID
			missErr = fmt.Errorf("%w: unknown feature id %q", ErrMissingTarget, r.TargetID)
		case r.Confidence < opts.MinConfidence:
			e.FeatureID = item.ID
			e.CanonicalText = item.Text
			missErr = fmt.Errorf("%w: confidence %.2f below floor %.2f", ErrMissingTarget, r.Confidence, opts.MinConfidence)
		}
		if missErr != nil {
			e.Status = model.AuditRouterMissingTarget
			e.Error = missErr.Error()
			audit = append(audit, e)
			continue
		}

		value, flipped := scoring.Normalize(float64(a.Value), r.Relation, r.Confidence, opts.RelationThreshold)
		e.FeatureID = item.ID
		e.CanonicalText = item.Text
		e.NormalizedValue = &value
		e.Flipped = flipped
		e.Status = model.AuditOK

		idx := len(audit)
		prev, seen := taken[item.ID]
		switch {
		case !seen:
			taken[item.ID] = &retained{confidence: r.Confidence, sum: value, count: 1, auditIdx: idx}
			vec.Set(item.ID, value)
			e.Retained = true
		case opts.Dedup == DedupAvg:
			prev.sum += value
			prev.count++
			if r.Confidence > prev.confidence {
				prev.confidence = r.Confidence
			}
			vec.Set(item.ID, prev.sum/float64(prev.count))
			e.Retained = true
		case r.Confidence > prev.confidence:
			audit[prev.auditIdx].Retained = false
			prev.confidence = r.Confidence
			prev.auditIdx = idx
			vec.Set(item.ID, value)
			e.Retained = true
		}
		audit = append(audit, e)
	}
	return vec, audit
}

// RetainedFeatures lists the per-feature outcome of a reconciled audit, in audit order
func RetainedFeatures(vec model.FeatureVector, audit []model.AuditEntry) []model.NormalizedFeature {
	var out []model.NormalizedFeature
	conf := make(map[string]float64)
	flipped := make(map[string]bool)
	var order []string
	for _, e := range audit {
		if !e.Retained {
			continue
		}
		if _, ok := conf[e.FeatureID]; !ok {
			order = append(order, e.FeatureID)
		}
		if e.Confidence > conf[e.FeatureID] {
			conf[e.FeatureID] = e.Confidence
		}
		flipped[e.FeatureID] = flipped[e.FeatureID] || e.Flipped
	}
	for _, id := range order {
		v, ok := vec.Get(id)
		if !ok {
			continue
		}
		out = append(out, model.NormalizedFeature{
			FeatureID:        id,
			Value:            v,
			SourceConfidence: conf[id],
			Flipped:          flipped[id],
		})
	}
	return out
}
