// Package service holds the blogsite command line: the web server and the
// maintenance commands that operate on its database.
package service

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"blogsite/app/config"
	"blogsite/app/media"
	"blogsite/app/repositories"
	"blogsite/app/services"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var osExit = os.Exit

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	dataDir    string
}

// NewRootCommand builds the blogsite command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "blogsite",
		Short: "A small blog with comments, accounts and profiles",
		Long: `blogsite serves a blog backed by an embedded Badger database.

Besides the web server it offers maintenance commands:
  - init, clean, backup and restore for the database
  - category add/list to manage post categories
  - user create/delete to manage accounts`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "Directory holding the database (overrides config)")

	root.AddCommand(
		newServeCommand(opts),
		newInitCommand(opts),
		newCleanCommand(opts),
		newBackupCommand(opts),
		newRestoreCommand(opts),
		newCategoryCommand(opts),
		newUserCommand(opts),
	)
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		failure(root.ErrOrStderr(), "%v", err)
		osExit(1)
	}
}

func (o *globalOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*repositories.Store, error) {
	return repositories.Open(cfg.DBPath(), repositories.StoreOptions{
		SessionTTL: cfg.SessionTTL,
		ResetTTL:   cfg.ResetTTL,
	})
}

func dbExists(cfg *config.Config) bool {
	_, err := os.Stat(cfg.DBPath())
	return err == nil
}

// accountService builds the same account service the web server uses so
// user hooks run for CLI writes too.
func accountService(cfg *config.Config, store *repositories.Store, log logrus.FieldLogger) *services.AccountService {
	return services.NewAccountService(services.AccountDeps{
		Users:       store.Users,
		Profiles:    store.Profiles,
		Sessions:    store.Sessions,
		ResetTokens: store.ResetTokens,
		Avatars:     media.NewStore(cfg.MediaRoot),
		Logger:      log,
		BaseURL:     cfg.BaseURL,
	})
}

// confirm asks a yes/no question on cmd's input. Anything but y or yes is
// a no.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
