package main

import (
	"context"
	"fmt"
	"path/filepath"

	"divorcerisk/internal/model"
	"divorcerisk/internal/service"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var batchCmd = &cobra.Command{
	Use:   "batch file...",
	Short: "Score several answers files concurrently",
	Long: `Each file is an independent assessment; files are scored in parallel,
while the partners inside one file are still routed one after the other.

Example:
  riskctl batch couples/*.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

// batchResult is the per-file outcome of a batch run
type batchResult struct {
	File     string
	Answers  int
	Matched  int
	Features int
	Result   *model.PredictionResult
	Err      error
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	s, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	results := scoreFiles(ctx, s.pipeline, args, 4)

	fmt.Fprintln(cmd.OutOrStdout(), renderBatch(results))
	for _, r := range results {
		if r.Err != nil {
			return fmt.Errorf("%d file(s) failed", countFailed(results))
		}
	}
	return nil
}

// scoreFiles runs the pipeline for every file with at most limit in flight.
// A failing file is reported in its result and does not stop the others.
func scoreFiles(ctx context.Context, p *service.Pipeline, files []string, limit int) []batchResult {
	results := make([]batchResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, file := range files {
		g.Go(func() error {
			r := batchResult{File: filepath.Base(file)}
			defer func() { results[i] = r }()

			answers, err := readAnswers(file)
			if err != nil {
				r.Err = err
				return nil
			}
			r.Answers = len(answers)

			partnerA, partnerB := service.SplitByPartner(answers)
			res, err := p.Run(ctx, partnerA, partnerB)
			if err != nil {
				r.Err = err
				return nil
			}
			r.Result = res
			r.Features = res.Vector.Present()
			for _, e := range res.Audit {
				if e.Status == model.AuditOK {
					r.Matched++
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func countFailed(results []batchResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
