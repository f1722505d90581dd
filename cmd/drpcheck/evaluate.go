package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/drpcheck/internal/config"
	"github.com/fyrsmithlabs/drpcheck/internal/correct"
	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/logging"
	"github.com/fyrsmithlabs/drpcheck/internal/pipeline"
	"github.com/fyrsmithlabs/drpcheck/internal/recommend"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
	"github.com/fyrsmithlabs/drpcheck/internal/telemetry"
	"github.com/fyrsmithlabs/drpcheck/internal/validate"
	"github.com/fyrsmithlabs/drpcheck/internal/workflow"
)

var (
	evalProgram string
	evalOutput  string
	evalWorkers int
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <estimate.json> [estimate.json...]",
	Short: "Evaluate estimates against program rules",
	Long: `Evaluate one or more estimate JSON files against the configured DRP
program: validate compliance, generate recommendations, apply
high-confidence corrections, and route each estimate to a workflow path.

Examples:
  # Evaluate one estimate with the default program
  drpcheck evaluate claim-4821.json

  # Evaluate a batch under a specific program
  drpcheck evaluate --program geico_arx estimates/*.json

  # Human-readable summary instead of JSON
  drpcheck evaluate --output summary claim-4821.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&evalProgram, "program", "", "DRP program (default from config)")
	evaluateCmd.Flags().StringVar(&evalOutput, "output", "json", "output format: json or summary")
	evaluateCmd.Flags().IntVar(&evalWorkers, "workers", 0, "concurrent evaluations (default from config)")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if evalOutput != "json" && evalOutput != "summary" {
		return fmt.Errorf("output must be 'json' or 'summary', got %q", evalOutput)
	}

	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if evalProgram == "" {
		evalProgram = cfg.Program
	}
	if evalWorkers > 0 {
		cfg.Pipeline.Workers = evalWorkers
	}
	if rulesDir != "" {
		cfg.RulesDir = rulesDir
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tele, err := telemetry.New(ctx, telemetryConfig(cfg))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() { _ = tele.Shutdown(context.Background()) }()

	logger, err := newLogger(cfg, tele)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	estimates, err := loadEstimates(args)
	if err != nil {
		return err
	}
	logger.Info(ctx, "starting evaluation",
		zap.String("program", evalProgram),
		zap.Int("estimates", len(estimates)),
		zap.Int("workers", cfg.Pipeline.Workers))

	reg := prometheus.NewRegistry()
	runner, err := buildRunner(cfg, logger, reg)
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn(ctx, "metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), cfg.Pipeline.ShutdownTimeout.Duration())
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	result, err := runner.Run(ctx, evalProgram, estimates)
	if err != nil {
		return fmt.Errorf("batch run: %w", err)
	}

	if evalOutput == "summary" {
		fmt.Print(formatSummary(result))
	} else {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Println(string(out))
	}

	if len(result.Failures) > 0 {
		return fmt.Errorf("%d of %d estimates failed evaluation", len(result.Failures), len(estimates))
	}
	return nil
}

// buildRunner wires the pipeline stages from config.
func buildRunner(cfg *config.Config, logger *logging.Logger, reg prometheus.Registerer) (*pipeline.Runner, error) {
	source, err := rulesSource(cfg, logger)
	if err != nil {
		return nil, err
	}

	validator, err := validate.New(logger.Underlying())
	if err != nil {
		return nil, fmt.Errorf("init validator: %w", err)
	}
	engine, err := recommend.NewEngine(&recommend.Config{
		SourceTimeout: cfg.Recommend.SourceTimeout.Duration(),
		SourceRPS:     cfg.Recommend.SourceRPS,
		SourceBurst:   cfg.Recommend.SourceBurst,
	}, nil, logger.Underlying())
	if err != nil {
		return nil, fmt.Errorf("init recommendation engine: %w", err)
	}
	corrector, err := correct.New(validator, logger.Underlying())
	if err != nil {
		return nil, fmt.Errorf("init corrector: %w", err)
	}
	router, err := workflow.NewRouter(logger.Underlying())
	if err != nil {
		return nil, fmt.Errorf("init router: %w", err)
	}

	p, err := pipeline.New(source, validator, engine, corrector, router, logger)
	if err != nil {
		return nil, fmt.Errorf("init pipeline: %w", err)
	}
	return pipeline.NewRunner(p, pipeline.RunnerConfig{
		Workers:         cfg.Pipeline.Workers,
		EstimateTimeout: cfg.Pipeline.EstimateTimeout.Duration(),
	}, logger, reg)
}

// rulesSource loads per-program rule files when a rules directory is
// configured, otherwise serves the built-in catalog.
func rulesSource(cfg *config.Config, logger *logging.Logger) (rules.Source, error) {
	if cfg.RulesDir == "" {
		return rules.NewStaticSource(rules.NewCatalog(rules.DefaultGeicoARX())), nil
	}
	source, err := rules.NewFileSource(cfg.RulesDir, logger.Underlying())
	if err != nil {
		return nil, fmt.Errorf("load rules from %s: %w", cfg.RulesDir, err)
	}
	return source, nil
}

func telemetryConfig(cfg *config.Config) *telemetry.Config {
	tc := telemetry.NewDefaultConfig()
	tc.Enabled = cfg.Observability.Enabled
	tc.Endpoint = cfg.Observability.Endpoint
	tc.Protocol = cfg.Observability.Protocol
	tc.ServiceName = cfg.Observability.ServiceName
	tc.ServiceVersion = version
	tc.Insecure = cfg.Observability.Insecure
	return tc
}

func newLogger(cfg *config.Config, tele *telemetry.Telemetry) (*logging.Logger, error) {
	lc := logging.NewDefaultConfig()
	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Logging.Level, err)
	}
	lc.Level = level
	lc.Format = cfg.Logging.Format
	lc.Output.OTEL = cfg.Logging.OTEL && tele.IsEnabled()
	return logging.NewLogger(lc, tele.LoggerProvider())
}

func loadEstimates(paths []string) ([]*estimate.Estimate, error) {
	estimates := make([]*estimate.Estimate, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read estimate %s: %w", path, err)
		}
		var e estimate.Estimate
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("parse estimate %s: %w", path, err)
		}
		estimates = append(estimates, &e)
	}
	return estimates, nil
}

// formatSummary renders a batch result as one line per estimate plus
// totals.
func formatSummary(res *pipeline.BatchResult) string {
	out := ""
	for _, eval := range res.Evaluations {
		out += fmt.Sprintf("%-16s %-26s score=%.2f confidence=%.2f violations=%d corrections=%d triggers=%d\n",
			eval.Estimate.ID,
			eval.Decision.Path,
			eval.Score,
			eval.Confidence,
			len(eval.Result.Violations),
			len(eval.Applied),
			len(eval.Decision.Triggers))
	}
	for _, f := range res.Failures {
		out += fmt.Sprintf("%-16s FAILED: %s\n", f.EstimateID, f.Message)
	}
	for _, id := range res.Skipped {
		out += fmt.Sprintf("%-16s SKIPPED: duplicate estimate ID\n", id)
	}
	out += fmt.Sprintf("\n%d evaluated, %d failed, %d skipped\n",
		len(res.Evaluations), len(res.Failures), len(res.Skipped))
	return out
}
