package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AustinNewburry/DavisDefenseBot/internal/persistence"
)

var backupCmd = &cobra.Command{
	Use:   "backup <file>",
	Short: "Write a compressed snapshot of every player table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", args[0], err)
		}
		snap, err := persistence.Export(ctx, store, f, time.Now())
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		for _, t := range persistence.Tables {
			fmt.Printf("%-10s %d records\n", t, len(snap.Tables[t]))
		}
		fmt.Printf("Snapshot written to %s\n", args[0])
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Load a snapshot written by backup into the configured store",
	Long: `Writes every record of the snapshot into the configured store. Records
absent from the snapshot are left untouched. The snapshot may come from a
different store driver, so restore also migrates between file, sqlite and postgres.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		snap, err := persistence.ReadSnapshot(f)
		if err != nil {
			return err
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := persistence.Import(ctx, store, snap)
		if err != nil {
			return fmt.Errorf("restored %d records before failing: %w", n, err)
		}
		fmt.Printf("Restored %d records from snapshot taken %s\n", n, snap.CreatedAt.Format(time.RFC3339))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd, restoreCmd)
}
