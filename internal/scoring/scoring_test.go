package scoring

import (
	"testing"

	"divorcerisk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      float64
		rel      model.Relation
		conf     float64
		want     float64
		wantFlip bool
	}{
		{"entails keeps value", 3, model.RelationEntails, 0.99, 3, false},
		{"neutral keeps value", 1, model.RelationNeutral, 0.99, 1, false},
		{"confident contradiction flips", 1, model.RelationContradicts, 0.9, 3, true},
		{"contradiction at threshold flips", 0, model.RelationContradicts, 0.65, 4, true},
		{"weak contradiction keeps value", 1, model.RelationContradicts, 0.64, 1, false},
		{"clamps above scale", 7, model.RelationEntails, 1, 4, false},
		{"clamps below scale then flips", -2, model.RelationContradicts, 1, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, flipped := Normalize(tt.raw, tt.rel, tt.conf, 0.65)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantFlip, flipped)
		})
	}
}

func TestNormalizeFlipProperty(t *testing.T) {
	for v := 0; v <= 4; v++ {
		for _, conf := range []float64{0, 0.3, 0.649, 0.65, 0.8, 1} {
			for _, rel := range []model.Relation{model.RelationEntails, model.RelationContradicts, model.RelationNeutral} {
				got, _ := Normalize(float64(v), rel, conf, 0.65)
				if rel == model.RelationContradicts && conf >= 0.65 {
					assert.Equal(t, float64(4-v), got, "v=%d rel=%s conf=%v", v, rel, conf)
				} else {
					assert.Equal(t, float64(v), got, "v=%d rel=%s conf=%v", v, rel, conf)
				}
			}
		}
	}
}

func TestPolarityTable(t *testing.T) {
	table, err := NewPolarityTable([]string{"Atr1"}, []string{"Atr31"})
	require.NoError(t, err)

	assert.Equal(t, Positive, table.Of("Atr1"))
	assert.Equal(t, Negative, table.Of("Atr31"))
	assert.Equal(t, Positive, table.Of("Atr99"), "unknown ids fall back to positive")
	assert.False(t, table.Known("Atr99"))

	assert.InDelta(t, 1.0, table.Risk("Atr1", 0), 1e-9)
	assert.InDelta(t, 0.25, table.Risk("Atr1", 3), 1e-9)
	assert.InDelta(t, 0.75, table.Risk("Atr31", 3), 1e-9)
	assert.InDelta(t, 0.5, table.Risk("Atr99", 2), 1e-9)
}

func TestPolarityTableRejectsOverlap(t *testing.T) {
	_, err := NewPolarityTable([]string{"Atr1", "Atr2"}, []string{"Atr2"})
	assert.Error(t, err)
}

func TestRiskMonotonicity(t *testing.T) {
	table, err := NewPolarityTable([]string{"Atr1"}, []string{"Atr31"})
	require.NoError(t, err)

	prevPos, prevNeg := table.Risk("Atr1", 0), table.Risk("Atr31", 0)
	for v := 0.25; v <= 4; v += 0.25 {
		pos, neg := table.Risk("Atr1", v), table.Risk("Atr31", v)
		assert.LessOrEqual(t, pos, prevPos, "positive risk must not increase at %v", v)
		assert.GreaterOrEqual(t, neg, prevNeg, "negative risk must not decrease at %v", v)
		prevPos, prevNeg = pos, neg
	}
}

func TestBandBoundaries(t *testing.T) {
	tests := []struct {
		risk float64
		want model.Band
	}{
		{0, model.BandGreen},
		{0.2499, model.BandGreen},
		{0.25, model.BandYellow},
		{0.4999, model.BandYellow},
		{0.5, model.BandOrange},
		{0.7499, model.BandOrange},
		{0.75, model.BandRed},
		{1, model.BandRed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultBands.Assign(tt.risk), "risk=%v", tt.risk)
	}
}

func TestBandsValidate(t *testing.T) {
	require.NoError(t, DefaultBands.Validate())

	bad := Bands{
		Thresholds: []BandThreshold{
			{Band: model.BandGreen, Below: 0.5},
			{Band: model.BandYellow, Below: 0.25},
		},
		Top: model.BandRed,
	}
	assert.Error(t, bad.Validate())
	assert.Error(t, Bands{Thresholds: DefaultBands.Thresholds}.Validate())
}
