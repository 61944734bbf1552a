package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/rpgo/lifedash/internal/config"
	"github.com/rpgo/lifedash/internal/output"
	"github.com/rpgo/lifedash/internal/planning"
	"github.com/rpgo/lifedash/internal/store"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newPlanningCmd(a *app) *cobra.Command {
	var recoverLocal bool
	cmd := &cobra.Command{
		Use:   "planning",
		Short: "The stored planning record and its asset history",
	}
	cmd.PersistentFlags().BoolVar(&recoverLocal, "recover-local", false, "merge the local copy over the cloud record without asking")

	initService := func(ctx context.Context) (*planning.Service, error) {
		ws, err := a.workspace(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := ws.Planning.Init(ctx, store.LoadOptions{RecoverLocal: recoverLocal}); err != nil {
			return nil, err
		}
		return ws.Planning, nil
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored planning form as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := initService(cmd.Context())
			if err != nil {
				return err
			}
			b, err := yaml.Marshal(planning.FormFromState(svc.State()))
			if err != nil {
				return err
			}
			_, err = a.out.Write(b)
			return err
		},
	}

	recompute := &cobra.Command{
		Use:   "recompute <form.yaml>",
		Short: "Project from a planning form, save it and record today's snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := config.NewInputParser().LoadPlanningForm(args[0])
			if err != nil {
				return err
			}
			svc, err := initService(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.Recompute(cmd.Context(), form)
			if err != nil {
				return err
			}

			data, err := output.ConsoleLiteFormatter{}.Format(res.Projection)
			if err != nil {
				return err
			}
			_, _ = a.out.Write(data)
			a.printf("Total assets: %s\n", output.FormatCurrency(res.Assets.Total))
			if res.EstimatedSocialSecurity > 0 {
				a.printf("Estimated social security: %s\n", output.FormatDollars(res.EstimatedSocialSecurity))
			}
			if res.Snapshot != nil {
				a.printf("Snapshot recorded at %s\n", res.Snapshot.Timestamp)
			}
			return nil
		},
	}

	hist := &cobra.Command{
		Use:   "history",
		Short: "List the asset history snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := initService(cmd.Context())
			if err != nil {
				return err
			}
			snaps, err := svc.History(cmd.Context())
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				a.printf("No snapshots recorded\n")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "Recorded\tAge\tBalance\t")
			for _, s := range snaps {
				fmt.Fprintf(tw, "%s\t%d\t%s\t\n", s.Timestamp, s.Age, output.FormatDollars(s.Balance))
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(show, recompute, hist)
	return cmd
}
