package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"divorcerisk/internal/catalog"
	"divorcerisk/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func vectorOf(t *testing.T, values map[string]float64) model.FeatureVector {
	t.Helper()
	vec := catalog.MustDefault().NewVector()
	for id, v := range values {
		require.True(t, vec.Has(id), id)
		vec.Set(id, v)
	}
	return vec
}

func TestCombineVectors(t *testing.T) {
	a := vectorOf(t, map[string]float64{"Atr1": 4, "Atr2": 1})
	b := vectorOf(t, map[string]float64{"Atr1": 2, "Atr3": 3})

	c := CombineVectors(a, b)
	got := map[string]float64{}
	for _, id := range c.PresentIDs() {
		got[id], _ = c.Get(id)
	}
	assert.Equal(t, map[string]float64{"Atr1": 3, "Atr2": 1, "Atr3": 3}, got)

	arr := c.Array()
	require.Len(t, arr, catalog.ItemCount)
	assert.True(t, math.IsNaN(arr[3]))
}

func TestClassifyThreshold(t *testing.T) {
	vec := catalog.MustDefault().NewVector()

	p, class, err := Classify(&stubClassifier{p: 0.5}, vec, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.5, p)
	assert.Equal(t, 1, class)

	_, class, err = Classify(&stubClassifier{p: 0.49}, vec, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0, class)

	_, _, err = Classify(&stubClassifier{err: errors.New("boom")}, vec, 0.5)
	assert.Error(t, err)

	_, _, err = Classify(&stubClassifier{p: 1.5}, vec, 0.5)
	assert.Error(t, err)
}

func TestComputeDomainRisks(t *testing.T) {
	cat := catalog.MustDefault()
	// Atr1 is positive: 0 agreement is full risk. Atr32 is negative: 4 is full risk.
	vec := vectorOf(t, map[string]float64{"Atr1": 0, "Atr32": 4, "Atr2": 4})

	risks := ComputeDomainRisks(cat, vec)
	require.Len(t, risks, 8)

	names := make([]string, len(risks))
	for i, r := range risks {
		names[i] = r.Domain
	}
	assert.Equal(t, []string{"communication", "affection", "values", "love_maps", "criticism", "volatility", "stonewalling", "defensiveness"}, names)

	comm := risks[0]
	assert.InDelta(t, 2.0/3.0, comm.Risk, 1e-12)
	assert.Equal(t, model.BandOrange, comm.Band)
	assert.True(t, comm.Evidence)
	assert.Equal(t, 3, comm.Covered)

	crit := risks[4]
	assert.Equal(t, 1.0, crit.Risk)
	assert.Equal(t, model.BandRed, crit.Band)

	aff := risks[1]
	assert.Equal(t, 0.0, aff.Risk)
	assert.Equal(t, model.BandGreen, aff.Band)
	assert.False(t, aff.Evidence)
}

func TestSelectModules(t *testing.T) {
	cat := catalog.MustDefault()
	risks := []model.DomainRiskScore{
		{Domain: "communication", Band: model.BandYellow},
		{Domain: "affection", Band: model.BandYellow},
		{Domain: "values", Band: model.BandGreen},
		{Domain: "criticism", Band: model.BandRed},
	}

	modules := SelectModules(cat, risks)
	require.Len(t, modules, 2)
	assert.Equal(t, "affection", modules[0].Domain)
	assert.Equal(t, []string{"Daily rituals of connection", "One weekly date", "One daily affection gesture"}, modules[0].Tasks)
	assert.Equal(t, "criticism", modules[1].Domain)

	none := SelectModules(cat, []model.DomainRiskScore{{Domain: "communication", Band: model.BandGreen}})
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestFallbackText(t *testing.T) {
	risks := []model.DomainRiskScore{
		{Domain: "communication", Risk: 2.0 / 3.0, Band: model.BandOrange},
		{Domain: "affection", Risk: 0.1, Band: model.BandGreen},
		{Domain: "love_maps", Risk: 0.3, Band: model.BandYellow},
		{Domain: "criticism", Risk: 0.8, Band: model.BandRed},
		{Domain: "values", Risk: 0.3, Band: model.BandYellow},
	}
	want := "Top concerns: Criticism: Red (risk=0.8); Communication: Orange (risk=0.667); Love_maps: Yellow (risk=0.3)"
	assert.Equal(t, want, FallbackText(risks))

	green := []model.DomainRiskScore{{Domain: "values", Risk: 0.2, Band: model.BandGreen}}
	assert.Equal(t, NoConcernsText, FallbackText(green))
	assert.Equal(t, NoConcernsText, FallbackText(nil))
}

func TestBuildProgram(t *testing.T) {
	ctx := context.Background()
	risks := []model.DomainRiskScore{{Domain: "criticism", Risk: 0.9, Band: model.BandRed}}
	modules := []model.RecommendationModule{{Domain: "criticism", Tasks: []string{"t"}}}

	ok := &stubPersonalizer{text: "  | Week | ... |  "}
	prog := BuildProgram(ctx, ok, risks, modules, nil)
	assert.Equal(t, model.ProgramPersonalized, prog.Source)
	assert.Equal(t, "| Week | ... |", prog.Text)

	for name, p := range map[string]Personalizer{
		"error": &stubPersonalizer{err: errors.New("quota")},
		"empty": &stubPersonalizer{text: " \n"},
		"nil":   nil,
	} {
		t.Run(name, func(t *testing.T) {
			prog := BuildProgram(ctx, p, risks, modules, nil)
			assert.Equal(t, model.ProgramFallback, prog.Source)
			assert.Equal(t, "Top concerns: Criticism: Red (risk=0.9)", prog.Text)
			if diff := cmp.Diff(modules, prog.Modules); diff != "" {
				t.Errorf("modules changed (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildProgramLogsPersonalizationErrorOnce(t *testing.T) {
	risks := []model.DomainRiskScore{{Domain: "criticism", Risk: 0.9, Band: model.BandRed}}

	for name, cause := range map[string]error{
		"already tagged": fmt.Errorf("%w: %w", ErrPersonalization, errors.New("quota")),
		"plain":          errors.New("quota"),
	} {
		t.Run(name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			prog := BuildProgram(context.Background(), &stubPersonalizer{err: cause}, risks, nil, zap.New(core))
			assert.Equal(t, model.ProgramFallback, prog.Source)

			require.Equal(t, 1, logs.Len())
			msg, _ := logs.All()[0].ContextMap()["error"].(string)
			assert.Equal(t, "personalization failed: quota", msg)
		})
	}

	assert.ErrorIs(t, personalizationError(errors.New("x")), ErrPersonalization)
}

func TestSplitByPartner(t *testing.T) {
	in := []model.RawAnswer{
		{Text: "a1", Partner: model.PartnerA},
		{Text: "b1", Partner: model.PartnerB},
		{Text: "a2", Partner: model.PartnerA},
		{Text: "x", Partner: "C"},
	}
	a, b := SplitByPartner(in)
	assert.Equal(t, []model.RawAnswer{in[0], in[2]}, a)
	assert.Equal(t, []model.RawAnswer{in[1]}, b)
}
