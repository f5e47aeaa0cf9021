// Admin CLI for fitlog: schema migrations, user creation and catalog seeding.
// Usage: go run ./cmd/fitlogctl <command> (reads .env from the working directory)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lyleguay/fitlog/internal/config"
	"github.com/lyleguay/fitlog/internal/logging"
	"github.com/lyleguay/fitlog/internal/store"
)

// app is the state shared by subcommands once the root pre-run has loaded it.
type app struct {
	envFile string
	cfg     *config.Config
	log     *zap.SugaredLogger
	db      store.DB
}

// newRootCmd builds the command tree. The returned func releases whatever the
// pre-run opened and must be called after Execute, which skips post-runs when
// a command fails.
func newRootCmd() (*cobra.Command, func() error) {
	a := &app{}
	root := &cobra.Command{
		Use:           "fitlogctl",
		Short:         "fitlogctl administers a fitlog database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Path to an env file (missing is fine)")

	root.AddCommand(newMigrateCmd(a), newCreateUserCmd(a), newSeedFoodsCmd(a))
	return root, a.close
}

func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	db, err := store.Open(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.cfg, a.log, a.db = cfg, log, db
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	a.log.Sync()
	err := a.db.Close()
	a.db = nil
	return err
}

func main() {
	root, closeApp := newRootCmd()
	err := root.Execute()
	if cerr := closeApp(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
