package service

import (
	"fmt"

	"divorcerisk/internal/model"
)

// Classifier scores a fixed-order feature array (NaN for missing) into a
// positive-class probability. Implementations must be safe for concurrent use.
type Classifier interface {
	PredictProba(x []float64) (float64, error)
}

// CombineVectors merges two partners' vectors feature by feature: the mean when
// both answered, the single value when one did, missing otherwise.
func CombineVectors(a, b model.FeatureVector) model.FeatureVector {
	out := model.NewFeatureVector(a.IDs())
	for _, id := range a.IDs() {
		va, okA := a.Get(id)
		vb, okB := b.Get(id)
		switch {
		case okA && okB:
			out.Set(id, (va+vb)/2)
		case okA:
			out.Set(id, va)
		case okB:
			out.Set(id, vb)
		}
	}
	return out
}

// Classify scores vec and applies the decision threshold
func Classify(clf Classifier, vec model.FeatureVector, threshold float64) (float64, int, error) {
	p, err := clf.PredictProba(vec.Array())
	if err != nil {
		return 0, 0, fmt.Errorf("classify: %w", err)
	}
	if p < 0 || p > 1 {
		return 0, 0, fmt.Errorf("classify: probability %v outside [0,1]", p)
	}
	class := 0
	if p >= threshold {
		class = 1
	}
	return p, class, nil
}
