// Command researchctl queries scholarly retrievers and LLM agents from the
// terminal and manages the provider store they read from.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/helixir/research-desk/internal/app"
	"github.com/helixir/research-desk/internal/config"
	"github.com/helixir/research-desk/internal/observability"
)

// cli carries state shared by every subcommand once the root has run.
type cli struct {
	configFile string
	logLevel   string

	cfg    *config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "researchctl",
		Short: "Search scholarly sources and query LLM agents",
		Long: `researchctl runs the same search and agent dispatchers as the research desk
server against the local provider store.

Keys are read from RESEARCHDESK_KEYS_<SLUG> environment variables and stored
with "providers seed".`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(c.configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			c.cfg = cfg
			c.logger = observability.NewLogger(observability.LoggingConfig{
				Level:      c.logLevel,
				Format:     "console",
				Output:     "stderr",
				TimeFormat: time.Kitchen,
			}).With().Str("component", "researchctl").Logger()
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default: ./config.yaml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(
		newSearchCmd(c),
		newAskCmd(c),
		newProvidersCmd(c),
		newVersionCmd(),
	)
	return root
}

// open builds the desk for one command. Metrics are never registered from
// the CLI.
func (c *cli) open(ctx context.Context) (*app.App, error) {
	return app.Open(ctx, c.cfg, nil, c.logger)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
