package catalog

import (
	"fmt"
	"testing"

	"divorcerisk/internal/model"
	"divorcerisk/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	ids := c.FeatureIDs()
	require.Len(t, ids, ItemCount)
	for i, id := range ids {
		assert.Equal(t, fmt.Sprintf("Atr%d", i+1), id)
	}

	item, ok := c.Item("Atr1")
	require.True(t, ok)
	assert.Contains(t, item.Text, "apologizes")

	_, ok = c.Item("Atr55")
	assert.False(t, ok)
}

func TestDefaultPolarityCoversBank(t *testing.T) {
	c := MustDefault()
	p := c.Polarity()

	for _, id := range c.FeatureIDs() {
		assert.True(t, p.Known(id), "%s has no polarity", id)
	}
	for _, id := range []string{"Atr6", "Atr7", "Atr31", "Atr54"} {
		assert.Equal(t, scoring.Negative, p.Of(id), id)
	}
	for _, id := range []string{"Atr1", "Atr5", "Atr8", "Atr30"} {
		assert.Equal(t, scoring.Positive, p.Of(id), id)
	}
}

func TestDefaultDomains(t *testing.T) {
	c := MustDefault()
	domains := c.Domains()

	names := make([]string, len(domains))
	for i, d := range domains {
		names[i] = d.Name
	}
	assert.Equal(t, []string{
		"communication", "affection", "values", "love_maps",
		"criticism", "volatility", "stonewalling", "defensiveness",
	}, names)

	for _, d := range domains {
		assert.GreaterOrEqual(t, len(d.Tasks), 3, d.Name)
		assert.LessOrEqual(t, len(d.Tasks), 4, d.Name)
		assert.False(t, d.Triggered(model.BandGreen), d.Name)
		assert.True(t, d.Triggered(model.BandRed), d.Name)
	}

	byName := map[string]Domain{}
	for _, d := range domains {
		byName[d.Name] = d
	}
	assert.False(t, byName["communication"].Triggered(model.BandYellow))
	assert.True(t, byName["affection"].Triggered(model.BandYellow))
	assert.Equal(t, []string{"Atr48", "Atr49", "Atr50", "Atr51"}, byName["defensiveness"].Features)
}

func TestAccessorsReturnCopies(t *testing.T) {
	c := MustDefault()

	items := c.Items()
	items[0].Text = "changed"
	first, _ := c.Item("Atr1")
	assert.NotEqual(t, "changed", first.Text)

	domains := c.Domains()
	domains[0].Tasks[0] = "changed"
	assert.NotEqual(t, "changed", c.Domains()[0].Tasks[0])
}

func TestParseRejectsBrokenTables(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "items: ["},
		{"short bank", "items:\n  - {id: Atr1, text: x}\nbands: {thresholds: [{band: Green, below: 0.5}], top: Red}\n"},
		{"overlapping polarity", "polarity:\n  positive: [Atr1]\n  negative: [Atr1]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestDemoAnswers(t *testing.T) {
	answers := DemoAnswers(model.PartnerB)
	require.Len(t, answers, 20)
	for _, a := range answers {
		assert.Equal(t, model.PartnerB, a.Partner)
		assert.GreaterOrEqual(t, a.Value, 0)
		assert.LessOrEqual(t, a.Value, 4)
		assert.NotEmpty(t, a.Text)
	}
	answers[0].Text = "changed"
	assert.NotEqual(t, "changed", DemoAnswers(model.PartnerA)[0].Text)
}
