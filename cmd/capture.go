// File: cmd/capture.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-locator/internal/browser"
)

func newCaptureCmd(a *app) *cobra.Command {
	var out string
	var headful bool

	captureCmd := &cobra.Command{
		Use:   "capture [url]",
		Short: "Captures a page snapshot through Chrome for later build and query runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if headful {
				a.cfg.SetBrowserHeadless(false)
			}
			capturer := browser.NewCapturer(a.logger, a.cfg.Browser())
			defer capturer.Close()

			doc, err := capturer.Capture(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			if err := doc.Encode(w); err != nil {
				return fmt.Errorf("failed to write snapshot: %w", err)
			}
			a.logger.Info("Snapshot captured.", zap.String("url", args[0]), zap.String("out", out))
			return nil
		},
	}

	captureCmd.Flags().StringVarP(&out, "out", "o", "", "Write the snapshot to this file instead of stdout.")
	captureCmd.Flags().BoolVar(&headful, "headful", false, "Show the browser window. (Overrides config/env)")
	return captureCmd
}
