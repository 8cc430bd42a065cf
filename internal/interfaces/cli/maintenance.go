package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
)

// PurgeOptions holds flags for the purge command.
type PurgeOptions struct {
	*RootOptions
	Retention time.Duration
}

// NewPurgeCommand creates the purge command.
func NewPurgeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PurgeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Permanently delete records that sat in the trash longer than the retention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Retention <= 0 {
				return errors.New("--retention must be positive")
			}
			a, err := openApp(opts.RootOptions)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.purge.Purge(cmd.Context(), time.Now().UTC().Add(-opts.Retention))
			if err != nil {
				return err
			}
			out := map[string]any{"cutoff": res.Cutoff.Format(time.RFC3339), "total": res.Total}
			for kind, n := range res.Removed {
				out[kind] = n
			}
			return printResult(cmd.OutOrStdout(), opts.Format, out)
		},
	}
	cmd.Flags().DurationVar(&opts.Retention, "retention", 30*24*time.Hour, "how long deleted records stay restorable")
	return cmd
}

// NewReindexCommand creates the reindex command.
func NewReindexCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorkspaceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index of a workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts.RootOptions)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.indexer == nil {
				return errors.New("search is disabled in the configuration")
			}

			ctx := cmd.Context()
			tenantID, _, err := a.workspace(ctx, opts.Workspace, "")
			if err != nil {
				return err
			}
			n, err := a.indexer.Reindex(ctx, tenantID)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.Format, map[string]any{"documents": n})
		},
	}
	opts.bind(cmd, false)
	return cmd
}
