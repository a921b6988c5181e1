// File: cmd/query.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
	"github.com/xkilldash9x/scalpel-locator/internal/registry"
	"github.com/xkilldash9x/scalpel-locator/internal/uierr"
)

// queryResult is the outcome of re-applying a selector to one document.
type queryResult struct {
	Document  string              `json:"document"`
	Panels    []schemas.PanelUIDs `json:"panels,omitempty"`
	Tunneling *schemas.Tunneling  `json:"tunneling,omitempty"`
	Code      int                 `json:"code,omitempty"`
	Error     string              `json:"error,omitempty"`
}

func newQueryCmd(a *app) *cobra.Command {
	var selectorPath, name string
	var concurrency int

	queryCmd := &cobra.Command{
		Use:   "query [documents...]",
		Short: "Re-applies a date selector to one or more page snapshots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := a.resolveSelector(cmd.Context(), selectorPath, name)
			if err != nil {
				return err
			}
			req := schemas.QueryPanelsRequest{PanelsBase: sel.PanelsBase, Nodes: sel.Nodes}

			results, err := a.queryDocuments(cmd.Context(), args, req, concurrency)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), "", results)
		},
	}

	queryCmd.Flags().StringVarP(&selectorPath, "selector", "s", "", "JSON file holding the date selector.")
	queryCmd.Flags().StringVarP(&name, "name", "n", "", "Load the selector from the store by name.")
	queryCmd.Flags().IntVarP(&concurrency, "concurrency", "j", 4, "Number of documents queried at once.")
	queryCmd.MarkFlagsOneRequired("selector", "name")
	queryCmd.MarkFlagsMutuallyExclusive("selector", "name")
	return queryCmd
}

func (a *app) resolveSelector(ctx context.Context, path, name string) (*schemas.DateSelector, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read selector: %w", err)
		}
		return schemas.DecodeDateSelector(data)
	}

	repo, release, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	saved, err := repo.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return &saved.Selector, nil
}

// queryDocuments runs the query over every document. Documents are
// independent, so each gets its own locator and they run concurrently. A
// document that fails to match is reported in its result, not as an error.
func (a *app) queryDocuments(ctx context.Context, paths []string, req schemas.QueryPanelsRequest, concurrency int) ([]queryResult, error) {
	results := make([]queryResult, len(paths))
	reg := registry.New()

	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := loadDocument(path)
			if err != nil {
				return err
			}
			locator, err := a.newLocator(reg)
			if err != nil {
				return err
			}

			res := queryResult{Document: path}
			resp, err := locator.QueryPanels(doc, req)
			if err != nil {
				var uiErr *uierr.Error
				if !errors.As(err, &uiErr) {
					return fmt.Errorf("query on %s failed: %w", path, err)
				}
				res.Code = int(uiErr.Code)
				res.Error = uiErr.Message
				a.logger.Info("Selector did not match.", zap.String("document", path), zap.Error(err))
			} else {
				res.Panels = resp.Panels
				res.Tunneling = resp.Tunneling
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
