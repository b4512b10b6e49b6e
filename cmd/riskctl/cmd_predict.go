package main

import (
	"context"
	"fmt"

	"divorcerisk/internal/catalog"
	"divorcerisk/internal/model"
	"divorcerisk/internal/service"

	"github.com/spf13/cobra"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Score one answers file and print the audit trail",
	Long: `Routes the answers through the semantic router, classifies the combined
vector and prints the probability, the audit log and the non-missing features.

Example:
  riskctl predict -i answers.json --threshold 0.6`,
	RunE: runPredict,
}

func runPredict(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	answers := catalog.DemoAnswers(model.PartnerA)
	if path, _ := cmd.Flags().GetString("input"); path != "" {
		var err error
		if answers, err = readAnswers(path); err != nil {
			return err
		}
	}

	s, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	partnerA, partnerB := service.SplitByPartner(answers)
	res, err := s.pipeline.Run(ctx, partnerA, partnerB)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("Prediction"))
	fmt.Fprintln(out, renderPrediction(res.Probability, res.PredictedClass))
	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render("Audit log"))
	fmt.Fprintln(out, renderAudit(res.Audit))
	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render("Filled feature vector (non-missing)"))
	fmt.Fprintln(out, renderVector(res.Vector))
	return nil
}
