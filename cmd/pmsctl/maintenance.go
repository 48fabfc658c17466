package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"pms/internal/app/server"
	"pms/internal/domain/goals"
	"pms/internal/platform/storage"
)

var clearGoalsYes bool

var clearGoalsCmd = &cobra.Command{
	Use:   "clear-goals",
	Short: "Delete every goal",
	Long:  "Delete every goal together with its progress reports, assignments and freeze state. Requires --yes or typing DELETE at the prompt.",
	Args:  cobra.NoArgs,
	RunE:  runClearGoals,
}

var activateCyclesCmd = &cobra.Command{
	Use:   "activate-cycles",
	Short: "Activate scheduled review cycles and complete ended ones",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJob(cmd, "activate-cycles")
	},
}

var markOverdueCmd = &cobra.Command{
	Use:   "mark-overdue",
	Short: "Flag initiatives past their due date",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJob(cmd, "mark-overdue")
	},
}

var purgeDataCmd = &cobra.Command{
	Use:   "purge-data",
	Short: "Delete expired sessions, reset tokens and aged history",
	Long:  "Delete expired or revoked sessions, spent password reset tokens, read notifications older than NOTIFICATION_RETENTION, job runs older than JOB_RUN_RETENTION and, when AUDIT_RETENTION is set, audit events older than it.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJob(cmd, "purge-data")
	},
}

func init() {
	clearGoalsCmd.Flags().BoolVar(&clearGoalsYes, "yes", false, "Skip confirmation prompt")
}

func runClearGoals(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	if !clearGoalsYes {
		errOut := cmd.ErrOrStderr()
		fmt.Fprintln(errOut, "WARNING: This permanently deletes every goal.")
		fmt.Fprint(errOut, "Type DELETE to confirm: ")
		input, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if strings.TrimSpace(input) != "DELETE" {
			fmt.Fprintln(errOut, "Aborted.")
			return nil
		}
	}

	_, pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	deleted, err := goals.NewService(goals.NewStore(pool), nil, nil).ClearAll(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d goals\n", deleted)
	return nil
}

// runJob executes one maintenance job synchronously. Notifications raised by
// the job are stored and emailed before the command returns.
func runJob(cmd *cobra.Command, name string) error {
	ctx := commandContext(cmd)
	cfg, pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	objects, err := storage.New(cfg)
	if err != nil {
		return err
	}
	svc := server.NewServices(pool, cfg, objects, nil)

	dispatchCtx, stop := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		svc.Dispatcher.Run(dispatchCtx)
	}()
	defer func() {
		stop()
		wg.Wait()
	}()

	var details any
	switch name {
	case "activate-cycles":
		details, err = svc.Jobs.ActivateCycles(ctx)
	case "mark-overdue":
		details, err = svc.Jobs.MarkOverdue(ctx)
	case "purge-data":
		details, err = svc.Jobs.PurgeData(ctx)
	default:
		return fmt.Errorf("unknown job %q", name)
	}
	if err != nil {
		return err
	}
	out, _ := json.Marshal(details)
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, out)
	return nil
}
