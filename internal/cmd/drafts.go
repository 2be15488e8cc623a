package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/harrison/dora/internal/models"
	"github.com/harrison/dora/internal/storage"
	"github.com/spf13/cobra"
)

// NewDraftsCommand creates the 'dora drafts' command group
func NewDraftsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Inspect and delete saved drafts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved drafts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store storage.Store) error {
				return listDrafts(ctx, store, cmd.OutOrStdout())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <draft-id>",
		Short: "Print a draft as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store storage.Store) error {
				return showDraft(ctx, store, args[0], cmd.OutOrStdout())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <draft-id>",
		Short: "Delete a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store storage.Store) error {
				return deleteDraft(ctx, store, args[0], cmd.OutOrStdout())
			})
		},
	})

	return cmd
}

// withStore opens the configured store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(context.Context, storage.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cmd.Context(), store)
}

func listDrafts(ctx context.Context, store storage.Store, w io.Writer) error {
	drafts, err := store.ListDrafts(ctx)
	if err != nil {
		return fmt.Errorf("list drafts: %w", err)
	}
	if len(drafts) == 0 {
		fmt.Fprintln(w, "No drafts saved")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSER\tSAVED AT\tQUESTION\tANSWERS\tSTATUS")
	for _, d := range drafts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			d.ID, d.Identity.UserName, d.SavedAt, d.Position+1, len(d.Answers), draftStatus(d))
	}
	return tw.Flush()
}

func draftStatus(d models.Draft) string {
	if d.Completed {
		return "completed"
	}
	return "open"
}

func showDraft(ctx context.Context, store storage.Store, id string, w io.Writer) error {
	draft, err := store.LoadDraft(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("draft %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("load draft: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(draft)
}

func deleteDraft(ctx context.Context, store storage.Store, id string, w io.Writer) error {
	err := store.DeleteDraft(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("draft %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	fmt.Fprintf(w, "Deleted draft %s\n", id)
	return nil
}
