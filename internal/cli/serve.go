package cli

import (
	"github.com/spf13/cobra"

	"hearth/internal/events"
	appLog "hearth/internal/log"
	"hearth/internal/probe"
	"hearth/internal/web"
)

func newServeCmd(configPath *string) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the landing page and events API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			// --listen overrides the config file and HEARTH_LISTEN.
			if listen != "" {
				cfg.Listen = listen
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			appLog.Info("effective config",
				"listen", cfg.Listen,
				"calendar_id", cfg.Luma.CalendarID,
				"luma_configured", cfg.LumaConfigured(),
				"event_limit", cfg.Luma.EventLimit,
				"probe_cron", cfg.ProbeCron,
				"basic_auth", cfg.BasicAuth != nil,
			)
			if !cfg.LumaConfigured() {
				appLog.Info("LUMA_API_KEY not set; the landing page will show sample events")
			}

			ctx := cmd.Context()
			client := newClient(cfg)
			svc := events.NewService(client, cfg.Credentials(), cfg.Luma.EventLimit)

			var p *probe.Probe
			if cfg.ProbeCron != "" && cfg.LumaConfigured() {
				p = probe.New(client, cfg.Credentials(), 0)
				if err := p.Start(ctx, cfg.ProbeCron); err != nil {
					return err
				}
			}

			srv, err := web.NewServer(cfg, svc, p)
			if err != nil {
				return err
			}
			if err := srv.ListenAndServe(ctx); err != nil {
				return err
			}
			appLog.Info("hearth exiting")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}
