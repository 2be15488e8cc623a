package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/harrison/dora/internal/storage"
	"github.com/spf13/cobra"
)

// NewStoreCommand creates the 'dora store' command group
func NewStoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect the draft and submission store",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show the store location, schema version and record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store storage.Store) error {
				return storeInfo(ctx, store, cmd.OutOrStdout())
			})
		},
	})

	return cmd
}

func storeInfo(ctx context.Context, store storage.Store, w io.Writer) error {
	switch s := store.(type) {
	case *storage.SQLiteStore:
		fmt.Fprintf(w, "Backend:     %s\n", storage.BackendSQLite)
		fmt.Fprintf(w, "Path:        %s\n", s.Path())

		version, err := s.LatestVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Schema:      v%d\n", version)

		applied, err := s.AppliedVersions(ctx)
		if err != nil {
			return err
		}
		for _, v := range applied {
			fmt.Fprintf(w, "  v%d applied %s\n", v.Version, v.AppliedAt.UTC().Format(time.RFC3339))
		}
	case *storage.FileStore:
		fmt.Fprintf(w, "Backend:     %s\n", storage.BackendFile)
		fmt.Fprintf(w, "Path:        %s\n", s.Root())
	}

	drafts, err := store.ListDrafts(ctx)
	if err != nil {
		return fmt.Errorf("list drafts: %w", err)
	}
	submissions, err := store.ListSubmissions(ctx)
	if err != nil {
		return fmt.Errorf("list submissions: %w", err)
	}
	fmt.Fprintf(w, "Drafts:      %d\n", len(drafts))
	fmt.Fprintf(w, "Submissions: %d\n", len(submissions))
	return nil
}
