package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"divorcerisk/internal/model"
	"divorcerisk/internal/service"

	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Derive domain risks, modules and program text from a combined vector",
	Long: `Reads a combined feature vector ({"Atr1": 2, "Atr2": null, ...}),
computes per-domain risk bands, selects intervention modules and writes the
program text. Without GEMINI_API_KEY the text is the local summary.

Example:
  riskctl recommend -v vector.json`,
	RunE: runRecommend,
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	path, _ := cmd.Flags().GetString("vector")
	raw, err := readVector(path)
	if err != nil {
		return err
	}

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	for id := range raw {
		if _, ok := s.catalog.Item(id); !ok {
			logger.Sugar().Warnf("ignoring unknown feature %q", id)
		}
	}
	vec := model.FeatureVectorFromNullable(s.catalog.FeatureIDs(), raw)

	risks := service.ComputeDomainRisks(s.catalog, vec)
	modules := service.SelectModules(s.catalog, risks)
	program := service.BuildProgram(ctx, s.engines.Personalizer, risks, modules, logger)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("Domain risks"))
	fmt.Fprintln(out, renderRisks(program.DomainRisks))
	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render("Modules"))
	fmt.Fprintln(out, renderModules(program.Modules))
	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Program (%s)", program.Source)))
	fmt.Fprintln(out, renderMarkdown(program.Text))
	return nil
}

// readVector loads a {"Atr1": 2, "Atr2": null} file. Values off the 0..4 scale
// are rejected.
func readVector(path string) (map[string]*float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if v := raw[id]; v != nil && !model.InFeatureRange(*v) {
			return nil, fmt.Errorf("%s: %s = %v outside 0..%v", path, id, *v, model.MaxFeatureValue)
		}
	}
	return raw, nil
}
