package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	apperrors "github.com/ZanzyTHEbar/credit-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/render"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/types"
	"github.com/gin-gonic/gin/binding"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// applicantFlags mirrors the dashboard form. Only flags the user set
// override the input file or the form defaults.
type applicantFlags struct {
	creditAmount  float64
	annuity       float64
	annualIncome  float64
	goodsPrice    float64
	yearsEmployed int
	numChildren   int
	regionTier    int
	retired       bool
	age           int
	ext1          float64
	ext2          float64
	ext3          float64
}

func (f *applicantFlags) register(fs *pflag.FlagSet) {
	fs.Float64Var(&f.creditAmount, "credit", 15000, "requested credit amount")
	fs.Float64Var(&f.annuity, "annuity", 5000, "annual loan installment")
	fs.Float64Var(&f.annualIncome, "income", 50000, "total annual income")
	fs.Float64Var(&f.goodsPrice, "goods-price", 15000, "price of the goods financed")
	fs.IntVar(&f.yearsEmployed, "years-employed", 5, "years at the current employer")
	fs.IntVar(&f.numChildren, "children", 0, "number of children")
	fs.IntVar(&f.regionTier, "region", 1, "region tier 1 (low risk) to 3 (high risk)")
	fs.BoolVar(&f.retired, "retired", false, "applicant is retired (retired schema)")
	fs.IntVar(&f.age, "age", 30, "applicant age in years (age schema)")
	fs.Float64Var(&f.ext1, "ext1", 0.5, "external score 1 in [0, 1]")
	fs.Float64Var(&f.ext2, "ext2", 0.5, "external score 2 in [0, 1]")
	fs.Float64Var(&f.ext3, "ext3", 0.5, "external score 3 in [0, 1]")
}

func (f *applicantFlags) apply(fs *pflag.FlagSet, req *types.ScoreRequest) {
	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}
	set("credit", func() { req.CreditAmount = f.creditAmount })
	set("annuity", func() { req.Annuity = f.annuity })
	set("income", func() { req.AnnualIncome = f.annualIncome })
	set("goods-price", func() { req.GoodsPrice = f.goodsPrice })
	set("years-employed", func() { req.YearsEmployed = &f.yearsEmployed })
	set("children", func() { req.NumChildren = &f.numChildren })
	set("region", func() { req.RegionTier = f.regionTier })
	set("retired", func() { req.IsRetired = &f.retired })
	set("age", func() { req.AgeYears = &f.age })
	set("ext1", func() { req.ExtScore1 = &f.ext1 })
	set("ext2", func() { req.ExtScore2 = &f.ext2 })
	set("ext3", func() { req.ExtScore3 = &f.ext3 })
}

func scoreCmd(opts *options) *cobra.Command {
	var (
		inputPath  string
		jsonOutput bool
		applicant  applicantFlags
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one applicant",
		Long: `Score an applicant read from a JSON file (--input, "-" for stdin) or
assembled from the form defaults and the applicant flags.`,
		Example: `  riskctl score --input applicant.json
  riskctl score --income 42000 --annuity 21000 --ext3 0.2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := types.DefaultRequest(opts.cfg.FeatureSchema())
			if inputPath != "" {
				var err error
				if req, err = readRequest(cmd.InOrStdin(), inputPath); err != nil {
					return err
				}
			}
			applicant.apply(cmd.Flags(), &req)

			if err := binding.Validator.ValidateStruct(&req); err != nil {
				return apperrors.NewValidationError("incomplete applicant record", err.Error())
			}

			scorer, _, err := opts.newScorer()
			if err != nil {
				return err
			}

			assessment, err := scorer.Score(req.ToRaw())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(types.NewScoreResponse(assessment, ""))
			}
			fmt.Fprintln(out, render.Assessment(assessment))
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "applicant JSON file, - for stdin")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the assessment as JSON")
	applicant.register(cmd.Flags())

	return cmd
}

func readRequest(stdin io.Reader, path string) (types.ScoreRequest, error) {
	var req types.ScoreRequest

	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return req, apperrors.WrapError(err, "failed to open applicant file %s", path)
		}
		defer apperrors.SafeClose(f, "applicant file")
		r = f
	}

	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return req, apperrors.NewValidationError("malformed applicant JSON", err.Error())
	}
	return req, nil
}
