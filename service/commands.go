package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

func newInitCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if dbExists(cfg) {
				warning(out, "Database already exists at %s. Use 'clean' first if you want to reinitialize.", cfg.DBPath())
				return nil
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			if err := store.Close(); err != nil {
				return fmt.Errorf("close database: %w", err)
			}
			success(out, "Database initialized at %s", cfg.DBPath())
			return nil
		},
	}
}

func newCleanCommand(opts *globalOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !dbExists(cfg) {
				info(out, "Database is already clean (does not exist)")
				return nil
			}
			if !yes && !confirm(cmd, "Are you sure you want to clean the database? This cannot be undone.") {
				warning(out, "Operation cancelled")
				return nil
			}
			if err := os.RemoveAll(cfg.DBPath()); err != nil {
				return fmt.Errorf("clean database: %w", err)
			}
			success(out, "Database cleaned")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newBackupCommand(opts *globalOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a backup of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !dbExists(cfg) {
				warning(out, "No database exists to back up")
				return nil
			}
			if output == "" {
				output = filepath.Join(cfg.DataDir, "backups", fmt.Sprintf("backup_%d.db", time.Now().Unix()))
			}
			if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
				return fmt.Errorf("create backup directory: %w", err)
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create backup file: %w", err)
			}
			defer f.Close()

			if err := store.Backup(f); err != nil {
				return err
			}
			success(out, "Database backed up to %s", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Backup file (default: <data-dir>/backups/backup_<unix>.db)")
	return cmd
}

func newRestoreCommand(opts *globalOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the database with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			backupFile := args[0]

			fi, err := os.Stat(backupFile)
			if err != nil {
				return fmt.Errorf("backup file does not exist: %s", backupFile)
			}
			if fi.Size() == 0 {
				return fmt.Errorf("backup file is empty: %s", backupFile)
			}

			if dbExists(cfg) {
				if !yes && !confirm(cmd, "Existing database found. Do you want to replace it?") {
					warning(out, "Operation cancelled")
					return nil
				}
				if err := os.RemoveAll(cfg.DBPath()); err != nil {
					return fmt.Errorf("remove existing database: %w", err)
				}
			}

			f, err := os.Open(backupFile)
			if err != nil {
				return fmt.Errorf("open backup file: %w", err)
			}
			defer f.Close()

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Restore(f); err != nil {
				return err
			}
			success(out, "Database restored from %s", backupFile)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Replace an existing database without asking")
	return cmd
}
