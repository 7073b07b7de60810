package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/ZanzyTHEbar/credit-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/render"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/scoring"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/types"
	"github.com/gin-gonic/gin/binding"
	"github.com/spf13/cobra"
)

func calibrateCmd(opts *options) *cobra.Command {
	var (
		populationPath string
		skipInvalid    bool
		dryRun         bool
	)

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Derive the clip range from a reference population",
		Long: `Run the classifier over a reference population (one applicant JSON
object per line) and record the lowest and highest default probability as
the clip calibration for the configured schema.`,
		Example: `  riskctl calibrate --population applicants.jsonl
  riskctl calibrate --population applicants.jsonl --schema age --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scorer, handle, err := opts.newScorer()
			if err != nil {
				return err
			}
			if err := handle.Load(); err != nil {
				return err
			}

			f, err := os.Open(populationPath)
			if err != nil {
				return apperrors.WrapError(err, "failed to open population file %s", populationPath)
			}
			defer apperrors.SafeClose(f, "population file")

			probabilities, skipped, err := observePopulation(scorer, f, skipInvalid)
			if err != nil {
				return err
			}

			source := fmt.Sprintf("population %s scored by artifact %s", filepath.Base(populationPath), handle.Status().Version)
			cal, err := scoring.ObserveCalibration(probabilities, source)
			if err != nil {
				return apperrors.NewDomainError("calibrate", err.Error())
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "applicants %d (skipped %d)\np_min      %.6f\np_max      %.6f\n",
				cal.SampleSize, skipped, cal.PMin, cal.PMax)

			if dryRun {
				fmt.Fprintln(out, render.SubtleStyle.Render("dry run, calibration not saved"))
				return nil
			}

			store := scoring.NewCalibrationStore(opts.cfg.Scoring.CalibrationDir)
			if err := store.SaveCalibration(scorer.Schema(), cal); err != nil {
				return err
			}
			fmt.Fprintf(out, "saved calibration for schema %s to %s\n", scorer.Schema(), opts.cfg.Scoring.CalibrationDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&populationPath, "population", "p", "", "JSON lines file of applicants")
	cmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "skip applicants that fail validation instead of aborting")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the calibration without saving it")
	_ = cmd.MarkFlagRequired("population")

	return cmd
}

// observePopulation scores every applicant line and returns the default
// probabilities. Blank lines are ignored.
func observePopulation(scorer *scoring.Scorer, r io.Reader, skipInvalid bool) ([]float64, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		probabilities []float64
		skipped       int
		line          int
	)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		p, err := scoreLine(scorer, text)
		if err != nil {
			if skipInvalid && !apperrors.IsArtifactLoadError(err) {
				slog.Debug("Skipping applicant", "line", line, "error", err)
				skipped++
				continue
			}
			return nil, skipped, fmt.Errorf("line %d: %w", line, err)
		}
		probabilities = append(probabilities, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("failed to read population: %w", err)
	}

	return probabilities, skipped, nil
}

func scoreLine(scorer *scoring.Scorer, text string) (float64, error) {
	var req types.ScoreRequest
	if err := json.Unmarshal([]byte(text), &req); err != nil {
		return 0, apperrors.NewValidationError("malformed applicant JSON", err.Error())
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return 0, apperrors.NewValidationError("incomplete applicant record", err.Error())
	}
	return scorer.Probability(req.ToRaw())
}
