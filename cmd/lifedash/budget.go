package main

import (
	"github.com/rpgo/lifedash/internal/calculation"
	"github.com/rpgo/lifedash/internal/config"
	"github.com/rpgo/lifedash/internal/domain"
	"github.com/rpgo/lifedash/internal/output"
	"github.com/rpgo/lifedash/internal/planning"
	"github.com/spf13/cobra"
)

func newBudgetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Monthly budget summaries and the stored budget record",
	}
	cmd.AddCommand(newBudgetSummaryCmd(a), newBudgetImportCmd(a))
	return cmd
}

func newBudgetSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary [budget.yaml]",
		Short: "Summarize a budget file, or the stored budget of --user",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rec domain.Record
			if len(args) == 1 {
				r, err := config.NewInputParser().LoadBudget(args[0])
				if err != nil {
					return err
				}
				rec = planning.NormalizeBudget(r)
			} else {
				ws, err := a.workspace(cmd.Context())
				if err != nil {
					return err
				}
				if rec, err = ws.Budget.Load(cmd.Context(), a.confirmer()); err != nil {
					return err
				}
			}
			a.printBudget(rec)
			return nil
		},
	}
}

func newBudgetImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <budget.yaml>",
		Short: "Replace the stored budget of --user with a budget file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := config.NewInputParser().LoadBudget(args[0])
			if err != nil {
				return err
			}
			ws, err := a.workspace(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := ws.Budget.Load(cmd.Context(), a.confirmer()); err != nil {
				return err
			}
			saved, err := ws.Budget.Save(cmd.Context(), rec)
			if err != nil {
				return err
			}
			a.printBudget(saved)
			return nil
		},
	}
}

func (a *app) printBudget(rec domain.Record) {
	_, _ = a.out.Write(output.FormatBudget(calculation.CalculateMonthlyBudget(calculation.CurrentMonthlyBudget(rec))))
	a.printf("\n")
	_, _ = a.out.Write(output.FormatComparison(calculation.CompareBudget(rec)))
}
