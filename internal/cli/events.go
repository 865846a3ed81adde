package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hearth/internal/events"
	"hearth/internal/model"
)

func newEventsCmd(configPath *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Fetch upcoming events once and print the cards the page would show",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			svc := events.NewService(newClient(cfg), cfg.Credentials(), cfg.Luma.EventLimit)
			res := svc.Load(cmd.Context())

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res.Events)
			}
			printEvents(out, res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print cards as JSON")
	return cmd
}

func printEvents(w io.Writer, res events.Result) {
	source := "sample"
	if res.Live {
		source = "live"
	}
	fmt.Fprintf(w, "%d %s events\n", len(res.Events), source)
	if res.Notice != "" {
		fmt.Fprintf(w, "notice: %s (%v)\n", res.Notice, res.Err)
	}
	for _, ev := range res.Events {
		fmt.Fprintf(w, "%-8s %-6s %s%s\n", ev.Date, ev.DateShort, ev.Title, linkSuffix(ev))
	}
}

func linkSuffix(ev model.DisplayEvent) string {
	if !ev.HasLink() {
		return ""
	}
	return "  " + ev.Link
}
