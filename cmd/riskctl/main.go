package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/config"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/model"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/render"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/scoring"
	"github.com/spf13/cobra"
)

var version = "dev"

// options holds the global flags and the state initConfig derives from them
type options struct {
	configDir      string
	modelPath      string
	schema         string
	policy         string
	calibrationDir string
	logLevel       string

	cfg    *config.Config
	logger *monitoring.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "riskctl",
		Short: "Score loan applicants from the terminal",
		Long: `riskctl runs the credit risk pipeline without the dashboard: it scores
applicants, inspects the classifier artifact and calibrates the score
normalizer against a reference population.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.initConfig(cmd)
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configDir, "config-dir", "", "directory holding config.yaml (default: ./configs and .)")
	flags.StringVar(&opts.modelPath, "model", "", "classifier artifact path (overrides model.path)")
	flags.StringVar(&opts.schema, "schema", "", "feature schema: retired or age (overrides model.schema)")
	flags.StringVar(&opts.policy, "policy", "", "normalization policy: clip or naive (overrides scoring.policy)")
	flags.StringVar(&opts.calibrationDir, "calibration-dir", "", "calibration directory (overrides scoring.calibration_dir)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(scoreCmd(opts))
	rootCmd.AddCommand(inspectCmd(opts))
	rootCmd.AddCommand(calibrateCmd(opts))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err and any per-field problems it carries
func reportError(w io.Writer, err error) {
	fmt.Fprintln(w, render.Error(err))
}

func (o *options) initConfig(cmd *cobra.Command) error {
	var dirs []string
	if o.configDir != "" {
		dirs = append(dirs, o.configDir)
	}

	cfg, err := config.Load(dirs...)
	if err != nil {
		return err
	}

	if o.modelPath != "" {
		cfg.Model.Path = o.modelPath
	}
	if o.schema != "" {
		cfg.Model.Schema = o.schema
	}
	if o.policy != "" {
		cfg.Scoring.Policy = o.policy
	}
	if o.calibrationDir != "" {
		cfg.Scoring.CalibrationDir = o.calibrationDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Logs go to stderr so command output stays pipeable
	o.logger = monitoring.NewLoggerWithOptions(cmd.ErrOrStderr(), monitoring.ParseLevel(o.logLevel), "text")
	slog.SetDefault(o.logger.Logger)
	o.cfg = cfg
	return nil
}

// newScorer wires the configured artifact, calibration and policy into a
// scorer. The handle is returned so callers can inspect the artifact.
func (o *options) newScorer() (*scoring.Scorer, *model.Handle, error) {
	schema := o.cfg.FeatureSchema()

	cal, err := scoring.NewCalibrationStore(o.cfg.Scoring.CalibrationDir).LoadCalibration(schema)
	if err != nil {
		return nil, nil, err
	}
	cal.Policy = o.cfg.Policy()

	normalizer, err := scoring.NewNormalizer(cal)
	if err != nil {
		return nil, nil, err
	}

	handle := model.NewHandle(o.cfg.Model.Path, schema, o.logger)
	scorer, err := scoring.NewScorer(schema, normalizer, handle)
	if err != nil {
		return nil, nil, err
	}
	return scorer, handle, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "riskctl %s\n", version)
		},
	}
}
