package model

import "math"

// Partner identifies which member of the couple gave an answer
type Partner string

const (
	PartnerA Partner = "A"
	PartnerB Partner = "B"
)

// Valid reports whether p is one of the two known partners
func (p Partner) Valid() bool {
	return p == PartnerA || p == PartnerB
}

// Relation is the router's stance label between a user statement and a canonical item
type Relation string

const (
	RelationEntails     Relation = "entails"
	RelationContradicts Relation = "contradicts"
	RelationNeutral     Relation = "neutral"
)

// NoMatch is the router's target id when nothing clears the confidence floor
const NoMatch = "no_match"

// CanonicalItem is one of the fixed reference statements of the item bank
type CanonicalItem struct {
	ID   string `json:"id" bson:"id" yaml:"id"`
	Text string `json:"text" bson:"text" yaml:"text"`
}

// RawAnswer is a free-text answer with its 0..4 agreement value
type RawAnswer struct {
	Text    string  `json:"text" bson:"text"`
	Value   int     `json:"value" bson:"value"`
	Partner Partner `json:"partner,omitempty" bson:"partner"`
}

// Alternate is a runner-up canonical match
type Alternate struct {
	ID         string  `json:"id" bson:"id"`
	Confidence float64 `json:"confidence" bson:"confidence"`
}

// RouteResult is the router's verdict for a single text, aligned with the request order
type RouteResult struct {
	TargetID   string      `json:"target_id"`
	Relation   Relation    `json:"relation"`
	Confidence float64     `json:"confidence"`
	Alternates []Alternate `json:"alternates,omitempty"`
}

// Matched reports whether the router picked a concrete canonical item
func (r RouteResult) Matched() bool {
	return r.TargetID != "" && r.TargetID != NoMatch
}

// NormalizedFeature is the value retained for one feature of one partner
type NormalizedFeature struct {
	FeatureID        string  `json:"featureId" bson:"featureId"`
	Value            float64 `json:"value" bson:"value"`
	SourceConfidence float64 `json:"sourceConfidence" bson:"sourceConfidence"`
	Flipped          bool    `json:"flipped" bson:"flipped"`
}

// MaxFeatureValue is the top of the 0..4 agreement scale
const MaxFeatureValue = 4.0

// InFeatureRange reports whether v is a finite value on the 0..4 scale
func InFeatureRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= MaxFeatureValue
}

// FeatureVector maps every canonical feature id to a value in [0,4] or missing.
// The zero value is unusable; build one with NewFeatureVector.
type FeatureVector struct {
	ids    []string
	values map[string]float64
}

// NewFeatureVector creates an all-missing vector over ids
func NewFeatureVector(ids []string) FeatureVector {
	cp := make([]string, len(ids))
	copy(cp, ids)
	return FeatureVector{
		ids:    cp,
		values: make(map[string]float64, len(ids)),
	}
}

// IDs returns the feature ids in canonical order
func (v FeatureVector) IDs() []string {
	cp := make([]string, len(v.ids))
	copy(cp, v.ids)
	return cp
}

// Has reports whether id belongs to the vector's feature space
func (v FeatureVector) Has(id string) bool {
	for _, fid := range v.ids {
		if fid == id {
			return true
		}
	}
	return false
}

// Get returns the value for id and whether it is present
func (v FeatureVector) Get(id string) (float64, bool) {
	val, ok := v.values[id]
	return val, ok
}

// Set stores a value for id, clamped to [0,4]. Non-finite values mark the
// feature missing.
func (v FeatureVector) Set(id string, value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		delete(v.values, id)
		return
	}
	v.values[id] = math.Max(0, math.Min(MaxFeatureValue, value))
}

// Clear marks id as missing
func (v FeatureVector) Clear(id string) {
	delete(v.values, id)
}

// Present returns how many features carry a value
func (v FeatureVector) Present() int {
	return len(v.values)
}

// Array returns the values in canonical order with NaN for missing entries
func (v FeatureVector) Array() []float64 {
	out := make([]float64, len(v.ids))
	for i, id := range v.ids {
		if val, ok := v.values[id]; ok {
			out[i] = val
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// Nullable returns the storage form: every id mapped to a value or nil
func (v FeatureVector) Nullable() map[string]*float64 {
	out := make(map[string]*float64, len(v.ids))
	for _, id := range v.ids {
		if val, ok := v.values[id]; ok {
			val := val
			out[id] = &val
		} else {
			out[id] = nil
		}
	}
	return out
}

// FeatureVectorFromNullable rebuilds a vector over ids from its storage form.
// Keys outside ids are ignored; values are clamped like Set.
func FeatureVectorFromNullable(ids []string, m map[string]*float64) FeatureVector {
	v := NewFeatureVector(ids)
	for _, id := range ids {
		if p := m[id]; p != nil {
			v.Set(id, *p)
		}
	}
	return v
}

// PresentIDs returns the ids that carry a value, in canonical order
func (v FeatureVector) PresentIDs() []string {
	out := make([]string, 0, len(v.values))
	for _, id := range v.ids {
		if _, ok := v.values[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
