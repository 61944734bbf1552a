package main

import (
	"fmt"
	"strings"

	"github.com/rpgo/lifedash/internal/calculation"
	"github.com/rpgo/lifedash/internal/config"
	"github.com/rpgo/lifedash/internal/domain"
	"github.com/rpgo/lifedash/internal/output"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newProjectCmd(a *app) *cobra.Command {
	var (
		example     bool
		format      string
		outputDir   string
		saveExample string
	)
	cmd := &cobra.Command{
		Use:   "project [parameters.yaml]",
		Short: "Run a retirement projection",
		Long: "Run a retirement projection from a parameters file, or from the\n" +
			"built-in example with --example. Formats: " + strings.Join(output.AvailableFormatterNames(), ", ") + ".",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := config.NewInputParser()

			if saveExample != "" {
				if err := output.SaveParameters(*parser.CreateExampleParameters(), saveExample); err != nil {
					return fmt.Errorf("failed to save example parameters: %w", err)
				}
				a.printf("Example parameters written to %s\n", saveExample)
				return nil
			}

			var params *domain.ProjectionParameters
			switch {
			case example:
				params = parser.CreateExampleParameters()
			case len(args) == 1:
				p, err := parser.LoadParameters(args[0])
				if err != nil {
					return err
				}
				params = p
			default:
				return fmt.Errorf("a parameters file or --example is required")
			}

			proj := calculation.Run(*params)
			if outputDir != "" {
				files, err := output.GenerateReport(proj, format, outputDir)
				if err != nil {
					return err
				}
				for _, f := range files {
					a.printf("Report written to %s\n", f)
				}
				return nil
			}

			f, err := output.Lookup(format)
			if err != nil {
				return err
			}
			data, err := f.Format(proj)
			if err != nil {
				return err
			}
			_, err = a.out.Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&example, "example", false, "use the built-in example parameters")
	cmd.Flags().StringVarP(&format, "format", "f", "console", "output format")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "write report files to this directory instead of stdout (format \"all\" writes console and csv)")
	cmd.Flags().StringVar(&saveExample, "save-example", "", "write the example parameters to this file and exit")
	return cmd
}

func newSocialSecurityCmd(a *app) *cobra.Command {
	var (
		income        string
		currentAge    int
		retirementAge int
	)
	cmd := &cobra.Command{
		Use:   "ss-estimate",
		Short: "Estimate the annual social security benefit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inc, err := decimal.NewFromString(income)
			if err != nil {
				return fmt.Errorf("income must be a number: %w", err)
			}
			a.printf("%s\n", output.FormatDollars(calculation.EstimateSocialSecurity(inc, currentAge, retirementAge)))
			return nil
		},
	}
	cmd.Flags().StringVar(&income, "income", "0", "current annual income")
	cmd.Flags().IntVar(&currentAge, "current-age", 0, "current age")
	cmd.Flags().IntVar(&retirementAge, "retirement-age", 0, "planned retirement age")
	_ = cmd.MarkFlagRequired("current-age")
	_ = cmd.MarkFlagRequired("retirement-age")
	return cmd
}
