package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"divorcerisk/internal/app"
	"divorcerisk/internal/catalog"
	"divorcerisk/internal/config"
	"divorcerisk/internal/model"
	"divorcerisk/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose   bool
	modelPath string
	timeout   time.Duration

	threshold    float64
	relThreshold float64
	minConf      float64
	dedup        string

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "riskctl",
	Short: "Score free-text questionnaire answers for divorce risk",
	Long: `riskctl routes free-text answers onto the 54-item bank with Gemini,
scores the resulting feature vector with an XGBoost model and derives
per-domain risks, intervention modules and a program text.

Set GEMINI_API_KEY to enable routing and personalization.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if modelPath != "" {
			cfg.ModelPath = modelPath
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&modelPath, "model", "", "XGBoost JSON model (default: MODEL_PATH)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall operation timeout")

	for _, c := range []*cobra.Command{predictCmd, batchCmd} {
		c.Flags().Float64Var(&threshold, "threshold", 0.5, "Decision threshold for class 1")
		c.Flags().Float64Var(&relThreshold, "relation-threshold", 0.65, "Minimum contradiction confidence that flips a value")
		c.Flags().Float64Var(&minConf, "min-confidence", 0.70, "Minimum routing confidence")
		c.Flags().StringVar(&dedup, "dedup", string(service.DedupBest), "Duplicate resolution: best or avg")
	}
	predictCmd.Flags().StringP("input", "i", "", "JSON list of {text, value, partner?} items (default: built-in demo answers)")
	recommendCmd.Flags().StringP("vector", "v", "", "JSON object of feature id to value or null")
	recommendCmd.MarkFlagRequired("vector")

	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(batchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// answerItem is one entry of an answers file; partner defaults to A
type answerItem struct {
	Text    string        `json:"text"`
	Value   int           `json:"value"`
	Partner model.Partner `json:"partner,omitempty"`
}

func readAnswers(path string) ([]model.RawAnswer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []answerItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	bulk := make([]model.BulkAnswerItem, len(items))
	out := make([]model.RawAnswer, len(items))
	for i, it := range items {
		if it.Partner == "" {
			it.Partner = model.PartnerA
		}
		bulk[i] = model.BulkAnswerItem{Partner: it.Partner, Value: it.Value, Text: it.Text}
		out[i] = model.RawAnswer{Text: it.Text, Value: it.Value, Partner: it.Partner}
	}
	if len(items) > 0 {
		if err := service.ValidateAnswers(bulk); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return out, nil
}

// session holds the pipeline pieces one command invocation needs
type session struct {
	catalog  *catalog.Catalog
	engines  *app.Engines
	pipeline *service.Pipeline
}

func openSession(ctx context.Context, withClassifier bool) (*session, error) {
	cat, err := catalog.Default()
	if err != nil {
		return nil, err
	}
	engines, err := app.NewEngines(ctx, cfg, nil, logger)
	if err != nil {
		return nil, err
	}
	s := &session{catalog: cat, engines: engines}
	if !withClassifier {
		return s, nil
	}

	clf, err := app.LoadClassifier(cfg, cat, logger)
	if err != nil {
		engines.Close()
		return nil, err
	}
	policy, err := service.ParseDedupPolicy(dedup)
	if err != nil {
		engines.Close()
		return nil, err
	}
	for name, v := range map[string]float64{"threshold": threshold, "relation-threshold": relThreshold, "min-confidence": minConf} {
		if v < 0 || v > 1 {
			engines.Close()
			return nil, fmt.Errorf("--%s: %v outside [0,1]", name, v)
		}
	}
	normalizer := service.NewNormalizer(cat, engines.Router, service.NormalizerOptions{
		RelationThreshold: relThreshold,
		MinConfidence:     minConf,
		Dedup:             policy,
	}, logger)
	s.pipeline = service.NewPipeline(normalizer, clf, threshold)
	return s, nil
}

func (s *session) Close() {
	if err := s.engines.Close(); err != nil {
		logger.Warn("close gemini client", zap.Error(err))
	}
}
