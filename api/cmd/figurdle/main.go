// Command figurdle serves the daily puzzle API and runs the puzzle rotation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"figurdle/api/internal/config"
	"figurdle/api/internal/logging"
)

type app struct {
	cfg *config.Config
	log *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "figurdle:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "figurdle",
		Short:         "Daily guess-the-person puzzle",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			log, err := logging.New(a.cfg.Verbose)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			a.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.CompletionOptions.HiddenDefaultCmd = true
	a.cfg = config.Bind(root)

	root.AddCommand(
		a.serveCmd(),
		a.rotateCmd(),
		a.generateCmd(),
		a.checkCmd(),
	)
	return root
}
