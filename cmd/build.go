// File: cmd/build.go
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
	"github.com/xkilldash9x/scalpel-locator/internal/registry"
	"github.com/xkilldash9x/scalpel-locator/internal/store"
)

func newBuildCmd(a *app) *cobra.Command {
	var docPath, pointsPath, name, out string

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Builds a date selector from points recorded on a page snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name != "" {
				if err := store.ValidateName(name); err != nil {
					return err
				}
			}

			doc, err := loadDocument(docPath)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(pointsPath)
			if err != nil {
				return fmt.Errorf("failed to read points: %w", err)
			}
			var req schemas.BuildFromPointsRequest
			if err := schemas.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("invalid points file: %w", err)
			}

			locator, err := a.newLocator(registry.New())
			if err != nil {
				return err
			}
			resp, err := locator.BuildFromPoints(doc, req)
			if err != nil {
				return err
			}

			if resp.Tunneling != nil {
				a.logger.Info("Points land inside a frame, the request must be replayed on the frame document.",
					zap.Int("frame_index", resp.Tunneling.FrameIndex))
				if name != "" {
					return errors.New("cannot save a selector for a frame request; capture the frame and build again")
				}
				return writeJSON(cmd.OutOrStdout(), out, resp)
			}

			if name != "" {
				repo, release, err := a.openStore(cmd.Context())
				if err != nil {
					return err
				}
				defer release()
				if err := repo.Save(cmd.Context(), &store.SavedSelector{Name: name, Selector: resp.DateSelector}); err != nil {
					return err
				}
				a.logger.Info("Selector saved.", zap.String("name", name), zap.Int("links", len(resp.Nodes)))
			}
			return writeJSON(cmd.OutOrStdout(), out, resp.DateSelector)
		},
	}

	buildCmd.Flags().StringVarP(&docPath, "doc", "d", "", "Page snapshot (.json) or fixture markup (.html).")
	buildCmd.Flags().StringVarP(&pointsPath, "points", "p", "", "JSON file with the recorded panel points.")
	buildCmd.Flags().StringVarP(&name, "name", "n", "", "Save the selector in the store under this name.")
	buildCmd.Flags().StringVarP(&out, "out", "o", "", "Write the selector to this file instead of stdout.")
	_ = buildCmd.MarkFlagRequired("doc")
	_ = buildCmd.MarkFlagRequired("points")
	return buildCmd
}
