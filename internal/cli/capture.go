package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hearth/internal/capture"
	appLog "hearth/internal/log"
)

func newCaptureCmd(configPath *string) *cobra.Command {
	var (
		url     string
		out     string
		width   int
		height  int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Screenshot the running landing page with headless Chromium",
		Long: "capture renders the landing page in headless Chromium and writes a PNG.\n" +
			"By default it targets the configured listen address and writes to preview_path,\n" +
			"which the server exposes at /preview.png.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if url == "" {
				url = "http://" + cfg.Listen + "/"
			}
			if out == "" {
				out = cfg.PreviewPath
			}

			opts := capture.Options{
				URL:        url,
				OutputPath: out,
				Width:      width,
				Height:     height,
				Timeout:    timeout,
			}
			appLog.Info("capturing landing page", "url", url, "out", out)
			if err := capture.CapturePagePNG(cmd.Context(), opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Page to capture (default http://<listen>/)")
	cmd.Flags().StringVar(&out, "out", "", "Output PNG path (default preview_path)")
	cmd.Flags().IntVar(&width, "width", capture.DefaultWidth, "Viewport width in pixels")
	cmd.Flags().IntVar(&height, "height", capture.DefaultHeight, "Viewport height in pixels")
	cmd.Flags().DurationVar(&timeout, "timeout", capture.DefaultTimeoutSec*time.Second, "Overall capture timeout")
	return cmd
}
