package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"taskboard/config"
	"taskboard/connection"
	"taskboard/logger"
	"taskboard/services"
)

var reconcileDryRun bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Rebuild every user's pendingTasks from the Tasks collection",
	Long: `Recompute pendingTasks for every user as the set of tasks assigned to
it that are not completed, and rewrite the users whose stored list differs.

Use after an interrupted write or a user update that reassigned tasks
without full bookkeeping.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}

		log := logger.Setup(cfg.Env, cfg.LogFile)
		ctx := context.Background()

		fb, err := connection.FBConnection(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer fb.Close()

		report, err := services.ReconcilePendingTasks(ctx, fb, log.WithField("operation", "reconcile"), reconcileDryRun)
		if err != nil {
			return err
		}

		verb := "rewrote"
		if reconcileDryRun {
			verb = "would rewrite"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "checked %d users, %s %d\n", report.Users, verb, report.Drifted)
		return nil
	},
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "report drift without writing")
}
