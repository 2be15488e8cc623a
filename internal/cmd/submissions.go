package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/harrison/dora/internal/storage"
	"github.com/spf13/cobra"
)

// NewSubmissionsCommand creates the 'dora submissions' command group
func NewSubmissionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submissions",
		Short: "Inspect recorded submissions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recorded submissions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store storage.Store) error {
				return listSubmissions(ctx, store, cmd.OutOrStdout())
			})
		},
	})

	return cmd
}

func listSubmissions(ctx context.Context, store storage.Store, w io.Writer) error {
	records, err := store.ListSubmissions(ctx)
	if err != nil {
		return fmt.Errorf("list submissions: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "No submissions recorded")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSER\tPROVIDER\tENTITY\tSUBMITTED AT\tANSWERS\tOBSERVATIONS")
	for _, r := range records {
		p := r.Payload
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			p.ID, p.Identity.UserName, p.Identity.ProviderName, p.Identity.FinancialEntityName,
			p.SubmittedAt, len(p.Answers), len(p.Observations))
	}
	return tw.Flush()
}
