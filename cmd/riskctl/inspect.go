package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/render"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/scoring"
	"github.com/spf13/cobra"
)

type inspectReport struct {
	Path        string                      `json:"path"`
	Schema      string                      `json:"schema"`
	Version     string                      `json:"version,omitempty"`
	Trees       int                         `json:"trees"`
	Features    []string                    `json:"features"`
	Importances []scoring.FeatureImportance `json:"importances"`
}

func inspectCmd(opts *options) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the classifier's features and importances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scorer, handle, err := opts.newScorer()
			if err != nil {
				return err
			}

			importances, err := scorer.Importances()
			if err != nil {
				return err
			}

			st := handle.Status()
			report := inspectReport{
				Path:        st.Path,
				Schema:      st.Schema,
				Version:     st.Version,
				Trees:       st.Trees,
				Features:    scorer.Schema().Columns(),
				Importances: importances,
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Fprintln(out, render.TitleStyle.Render("Classifier "+report.Path))
			fmt.Fprintf(out, "schema   %s\nversion  %s\ntrees    %d\n", report.Schema, report.Version, report.Trees)
			fmt.Fprintf(out, "features %s\n\n", strings.Join(report.Features, ", "))
			fmt.Fprintln(out, render.Importances(report.Importances, 30))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the report as JSON")
	return cmd
}
