package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pms/internal/platform/db"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Install the role catalogue and admin, then load YAML fixtures",
	Long:  "Install the permission and role catalogue and the bootstrap admin. With --file, also load organizations, users and goals from a YAML fixture file. Existing rows are left alone.",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "YAML fixture file")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	cfg, pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}
	if err := db.Seed(ctx, pool, cfg); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	path := seedFile
	if path == "" {
		path = cfg.SeedFile
	}
	if path == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "base catalogue seeded")
		return nil
	}

	fixtures, err := db.LoadFixtures(path)
	if err != nil {
		return err
	}
	result, err := db.ApplyFixtures(ctx, pool, fixtures)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d organizations, %d users, %d goals from %s\n",
		result.Organizations, result.Users, result.Goals, path)
	return nil
}
