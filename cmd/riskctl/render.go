package main

import (
	"fmt"
	"strconv"
	"strings"

	"divorcerisk/internal/model"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))

	bandColors = map[model.Band]lipgloss.Color{
		model.BandGreen:  lipgloss.Color("#04B575"),
		model.BandYellow: lipgloss.Color("#E5C07B"),
		model.BandOrange: lipgloss.Color("#FF8C00"),
		model.BandRed:    lipgloss.Color("#FF5F87"),
	}
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func renderPrediction(probability float64, class int) string {
	return fmt.Sprintf("p(Divorce) = %.2f -> Class = %d", probability, class)
}

func renderAudit(audit []model.AuditEntry) string {
	t := newTable("partner", "feature", "feature_text", "user_text", "raw", "normalized", "relation", "conf", "flip", "status")
	for _, e := range audit {
		status := string(e.Status)
		if e.Status != model.AuditOK {
			status = errorStyle.Render(status)
		} else if !e.Retained {
			status = mutedStyle.Render(status + " (dropped)")
		}
		t.Row(
			string(e.Partner),
			e.FeatureID,
			truncate(e.CanonicalText, 40),
			truncate(e.RawText, 40),
			strconv.Itoa(e.RawValue),
			formatOptional(e.NormalizedValue),
			string(e.Relation),
			strconv.FormatFloat(e.Confidence, 'f', 2, 64),
			strconv.FormatBool(e.Flipped),
			status,
		)
	}
	return t.Render()
}

func renderVector(vec model.FeatureVector) string {
	ids := vec.PresentIDs()
	if len(ids) == 0 {
		return mutedStyle.Render("(no features recovered)")
	}
	t := newTable("feature", "value")
	for _, id := range ids {
		v, _ := vec.Get(id)
		t.Row(id, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return t.Render()
}

func renderRisks(risks []model.DomainRiskScore) string {
	t := newTable("domain", "risk", "band", "covered")
	for _, r := range risks {
		band := string(r.Band)
		if c, ok := bandColors[r.Band]; ok {
			band = lipgloss.NewStyle().Foreground(c).Render(band)
		}
		covered := strconv.Itoa(r.Covered)
		if !r.Evidence {
			covered = mutedStyle.Render("no evidence")
		}
		t.Row(r.Domain, strconv.FormatFloat(r.Risk, 'f', 3, 64), band, covered)
	}
	return t.Render()
}

func renderModules(modules []model.RecommendationModule) string {
	if len(modules) == 0 {
		return mutedStyle.Render("(no domain above Green)")
	}
	t := newTable("domain", "tasks")
	for _, m := range modules {
		t.Row(m.Domain, strings.Join(m.Tasks, "\n"))
	}
	return t.Render()
}

func renderBatch(results []batchResult) string {
	t := newTable("file", "answers", "matched", "features", "p(divorce)", "class")
	for _, r := range results {
		if r.Err != nil {
			t.Row(r.File, strconv.Itoa(r.Answers), "-", "-", errorStyle.Render(truncate(r.Err.Error(), 50)), "-")
			continue
		}
		t.Row(
			r.File,
			strconv.Itoa(r.Answers),
			strconv.Itoa(r.Matched),
			strconv.Itoa(r.Features),
			strconv.FormatFloat(r.Result.Probability, 'f', 2, 64),
			strconv.Itoa(r.Result.PredictedClass),
		)
	}
	return t.Render()
}

// renderMarkdown renders program text for the terminal, returning it unchanged
// when the renderer cannot be built
func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
