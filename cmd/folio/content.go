package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/folio"
	"github.com/eringen/folio/content"
	"github.com/eringen/folio/scaffold"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the sample posts and projects into an empty database",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := folio.NewStore(cfg.Database.Path)
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		seeded, err := store.Seed(ctx)
		if err != nil {
			return fail(cmd, err)
		}
		if !seeded {
			fmt.Fprintln(cmd.OutOrStdout(), "Database already has posts; nothing to do.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d posts and %d projects into %s\n",
			len(content.SamplePosts()), len(content.SampleProjects()), cfg.Database.Path)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import markdown posts with YAML front matter",
	Long: `Import every *.md file under dir. Posts are matched by slug, so
running the import again updates existing posts.

Front matter keys: title, slug, excerpt, category, tags, author,
cover_image, published_at, featured, draft.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := folio.NewStore(cfg.Database.Path)
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()
		author := content.DefaultAuthor
		author.Name = cfg.Site.Author
		res, err := folio.ImportDir(cmd.Context(), store, args[0], author)
		if err != nil {
			return fail(cmd, err)
		}
		out := cmd.OutOrStdout()
		for _, slug := range res.Imported {
			fmt.Fprintf(out, "imported %s\n", slug)
		}
		paths := make([]string, 0, len(res.Failed))
		for p := range res.Failed {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped %v\n", res.Failed[p])
		}
		if len(paths) > 0 {
			return fail(cmd, fmt.Errorf("%d of %d posts failed to import", len(paths), len(paths)+len(res.Imported)))
		}
		return nil
	},
}

var (
	newDir      string
	newCategory string
)

var newCmd = &cobra.Command{
	Use:   "new <title>",
	Short: "Create a draft post file",
	Long: `Create a markdown draft with front matter, ready for "folio import".

Examples:
  folio new "Learning Barre Chords" --category guitar`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.Join(args, " ")
		category, err := content.ParseCategory(newCategory)
		if err != nil {
			return fail(cmd, fmt.Errorf("%w: %q (choose one of %v)", err, newCategory, content.Categories()))
		}
		path, err := scaffold.NewPost(newDir, scaffold.PostData{
			Title:    title,
			Slug:     content.Slugify(title),
			Category: string(category),
			Author:   cfg.Site.Author,
		})
		if err != nil {
			return fail(cmd, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
		return nil
	},
}

func init() {
	newCmd.Flags().StringVar(&newDir, "dir", "content/posts", "directory for the new file")
	newCmd.Flags().StringVar(&newCategory, "category", string(content.CategoryOther), "post category")
}
