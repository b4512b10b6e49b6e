// Package scoring holds the feature-level arithmetic shared by answer
// normalization and domain risk aggregation: value clamping, contradiction
// flips, polarity-aware risk and severity bands.
package scoring

import (
	"fmt"
	"math"

	"divorcerisk/internal/model"
)

// MaxValue is the top of the 0..4 agreement scale
const MaxValue = model.MaxFeatureValue

// Clamp bounds v to [0, MaxValue]
func Clamp(v float64) float64 {
	return math.Max(0, math.Min(MaxValue, v))
}

// ShouldFlip reports whether a contradiction is confident enough to invert the value
func ShouldFlip(rel model.Relation, confidence, threshold float64) bool {
	return rel == model.RelationContradicts && confidence >= threshold
}

// Normalize clamps raw and inverts it when the relation is a confident contradiction
func Normalize(raw float64, rel model.Relation, confidence, threshold float64) (float64, bool) {
	v := Clamp(raw)
	if ShouldFlip(rel, confidence, threshold) {
		return MaxValue - v, true
	}
	return v, false
}

// Polarity says whether agreement with an item signals lower or higher risk
type Polarity int

const (
	// Positive items: higher agreement means lower risk
	Positive Polarity = iota
	// Negative items: higher agreement means higher risk
	Negative
)

func (p Polarity) String() string {
	if p == Negative {
		return "negative"
	}
	return "positive"
}

// PolarityTable maps feature ids to their polarity. Unknown ids are Positive.
type PolarityTable struct {
	negative map[string]struct{}
	known    map[string]struct{}
}

// NewPolarityTable builds a table from disjoint positive and negative id sets
func NewPolarityTable(positive, negative []string) (PolarityTable, error) {
	t := PolarityTable{
		negative: make(map[string]struct{}, len(negative)),
		known:    make(map[string]struct{}, len(positive)+len(negative)),
	}
	for _, id := range positive {
		t.known[id] = struct{}{}
	}
	for _, id := range negative {
		if _, dup := t.known[id]; dup {
			return PolarityTable{}, fmt.Errorf("feature %s is both positive and negative", id)
		}
		t.known[id] = struct{}{}
		t.negative[id] = struct{}{}
	}
	return t, nil
}

// Of returns the polarity of id
func (t PolarityTable) Of(id string) Polarity {
	if _, ok := t.negative[id]; ok {
		return Negative
	}
	return Positive
}

// Known reports whether id was listed in either set
func (t PolarityTable) Known(id string) bool {
	_, ok := t.known[id]
	return ok
}

// Risk converts a 0..4 value into a 0..1 risk according to the feature's polarity
func (t PolarityTable) Risk(id string, value float64) float64 {
	v := Clamp(value) / MaxValue
	if t.Of(id) == Negative {
		return v
	}
	return 1 - v
}

// BandThreshold assigns Band to risks strictly below Below
type BandThreshold struct {
	Band  model.Band
	Below float64
}

// Bands is an ascending list of half-open thresholds; risks at or above the
// last threshold get Top.
type Bands struct {
	Thresholds []BandThreshold
	Top        model.Band
}

// DefaultBands are the fixed severity cut points
var DefaultBands = Bands{
	Thresholds: []BandThreshold{
		{Band: model.BandGreen, Below: 0.25},
		{Band: model.BandYellow, Below: 0.5},
		{Band: model.BandOrange, Below: 0.75},
	},
	Top: model.BandRed,
}

// Assign returns the band for risk, evaluating thresholds in order
func (b Bands) Assign(risk float64) model.Band {
	for _, t := range b.Thresholds {
		if risk < t.Below {
			return t.Band
		}
	}
	return b.Top
}

// Validate checks that thresholds ascend strictly inside (0,1]
func (b Bands) Validate() error {
	if b.Top == "" {
		return fmt.Errorf("bands: top band is empty")
	}
	prev := 0.0
	for i, t := range b.Thresholds {
		if t.Band == "" {
			return fmt.Errorf("bands: threshold %d has no band", i)
		}
		if t.Below <= prev || t.Below > 1 {
			return fmt.Errorf("bands: threshold %d (%s < %v) out of order", i, t.Band, t.Below)
		}
		prev = t.Below
	}
	return nil
}
