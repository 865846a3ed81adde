package cli

import (
	"context"

	"github.com/spf13/cobra"

	"hearth/internal/config"
	appLog "hearth/internal/log"
	"hearth/internal/luma"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "./hearth.yaml"

// NewRootCmd builds the hearth command tree. Running it without a
// subcommand starts the web server.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "hearth",
		Short:         "Hearth venue website and Luma events proxy",
		Long:          "hearth - serves the Hearth landing page with upcoming events from Luma",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", DefaultConfigPath, "Path to config file")

	serve := newServeCmd(&configPath)
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(newEventsCmd(&configPath))
	root.AddCommand(newCheckCmd(&configPath))
	root.AddCommand(newCaptureCmd(&configPath))
	root.AddCommand(newHashPasswordCmd())
	return root
}

// Execute runs the command tree with ctx, which is canceled on shutdown
// signals.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// loadConfig resolves the config file plus environment and applies the log
// level.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Resolve(path)
	if err != nil {
		return nil, err
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

func newClient(cfg *config.Config) *luma.Client {
	return luma.NewClient(luma.WithBaseURL(cfg.Luma.BaseURL))
}
