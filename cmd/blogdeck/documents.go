package main

import (
	"context"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/blogdeck/admin/internal/document"
)

var listCmd = &cobra.Command{
	Use:       "list [posts|pages]",
	Short:     "List posts or pages",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"posts", "pages", "post", "page"},
	RunE:      runList,
}

var publishCmd = &cobra.Command{
	Use:   "publish [post-id|source]",
	Short: "Move a draft into _posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], "published", func(a *app, ctx context.Context, id string) (*document.Document, error) {
			return a.docs.Publish(ctx, id)
		})
	},
}

var unpublishCmd = &cobra.Command{
	Use:   "unpublish [post-id|source]",
	Short: "Move a published post back to _drafts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], "unpublished", func(a *app, ctx context.Context, id string) (*document.Document, error) {
			return a.docs.Unpublish(ctx, id)
		})
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(unpublishCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	kind := document.KindPost
	if len(args) == 1 {
		kind, _ = document.ParseKind(args[0])
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	docs, err := a.docs.List(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		cmd.Printf("No %ss found\n", kind)
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tDATE\tTITLE\tSOURCE")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Status, d.Date.Format("2006-01-02"), d.Title, d.Source)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	cmd.Printf("\nTotal: %d\n", len(docs))
	return nil
}

func runTransition(cmd *cobra.Command, id, verb string, fn func(*app, context.Context, string) (*document.Document, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	// ids of an in-memory store change between runs; accept the source path too
	if d, err := a.repo.FindBySource(ctx, filepath.ToSlash(id)); err == nil {
		id = d.ID
	}
	d, err := fn(a, ctx, id)
	if err != nil {
		return fmt.Errorf("%s %s: %w", verb, id, err)
	}
	cmd.Printf("%s %q -> %s\n", verb, d.Title, d.Source)
	return nil
}
