package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// WorkspaceOptions selects the tenant, and for some commands the user, a command acts on.
type WorkspaceOptions struct {
	*RootOptions
	Workspace string
	User      string
}

func (o *WorkspaceOptions) bind(cmd *cobra.Command, needUser bool) {
	cmd.Flags().StringVarP(&o.Workspace, "workspace", "w", "", "workspace slug (required)")
	_ = cmd.MarkFlagRequired("workspace")
	if needUser {
		cmd.Flags().StringVarP(&o.User, "user", "u", "", "email of the user who owns the connections (required)")
		_ = cmd.MarkFlagRequired("user")
	}
}

// NewImportLinkedInCommand creates the import-linkedin command.
func NewImportLinkedInCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorkspaceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import-linkedin <Connections.csv>",
		Short: "Import a LinkedIn connections export for a user",
		Long: `Import a LinkedIn "Connections.csv" export as the network of one team member.
Connections already imported for the user are updated in place.

Example:
  crmctl import-linkedin -w acme -u founder@acme.com ./Connections.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts.RootOptions)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			tenantID, userID, err := a.workspace(ctx, opts.Workspace, opts.User)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := a.network.ImportCSV(ctx, tenantID, userID, f)
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			return printResult(cmd.OutOrStdout(), opts.Format, map[string]any{
				"total_rows": res.TotalRows,
				"created":    res.Created,
				"updated":    res.Updated,
				"unchanged":  res.Unchanged,
				"failed":     res.Failed,
			})
		},
	}
	opts.bind(cmd, true)
	return cmd
}

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorkspaceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Recompute warm-intro suggestions for a workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts.RootOptions)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			tenantID, _, err := a.workspace(ctx, opts.Workspace, "")
			if err != nil {
				return err
			}
			res, err := a.network.RunMatching(ctx, tenantID, nil)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.Format, map[string]any{
				"contacts":         res.Contacts,
				"investors":        res.Investors,
				"suggested":        res.Suggested,
				"removed":          res.Removed,
				"skipped_reviewed": res.Reviewed,
			})
		},
	}
	opts.bind(cmd, false)
	return cmd
}
