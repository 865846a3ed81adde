package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the Luma API key by fetching the account it belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			self, err := newClient(cfg).CheckConnection(cmd.Context(), cfg.Credentials())
			if err != nil {
				return fmt.Errorf("luma connection check failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "connected as %s <%s> (%s), calendar %s\n",
				self.Name, self.Email, self.APIID, cfg.Luma.CalendarID)
			return nil
		},
	}
}
