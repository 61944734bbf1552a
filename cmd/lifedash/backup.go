package main

import (
	"context"
	"fmt"

	"github.com/rpgo/lifedash/internal/planning"
	"github.com/rpgo/lifedash/internal/store"
	"github.com/spf13/cobra"
)

func newBackupCmd(a *app) *cobra.Command {
	var record string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Local backups of a stored record",
	}
	cmd.PersistentFlags().StringVar(&record, "record", planning.PlanningRecord,
		fmt.Sprintf("record to back up (%s or %s)", planning.PlanningRecord, planning.BudgetRecord))

	backups := func(ctx context.Context) (*store.Backups, error) {
		ws, err := a.workspace(ctx)
		if err != nil {
			return nil, err
		}
		b, ok := ws.Backups(record)
		if !ok {
			return nil, fmt.Errorf("unknown record %q", record)
		}
		return b, nil
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Back up the current record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := backups(cmd.Context())
			if err != nil {
				return err
			}
			key, err := b.Create(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("%s\n", key)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List backup keys, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := backups(cmd.Context())
			if err != nil {
				return err
			}
			keys, err := b.List()
			if err != nil {
				return err
			}
			for _, k := range keys {
				a.printf("%s\n", k)
			}
			return nil
		},
	}

	restore := &cobra.Command{
		Use:   "restore <key>",
		Short: "Make a backup the current record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backups(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := b.Restore(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printf("Restored %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(create, list, restore)
	return cmd
}
