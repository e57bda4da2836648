package main

import (
	"encoding/json"
	"fmt"
	"folio/internal/blog"
	"folio/internal/domain/content"
	"github.com/spf13/cobra"
	"io"
	"strings"
	"text/tabwriter"
)

func listCmd() *cobra.Command {
	var (
		production bool
		tag        string
		limit      int
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List post previews, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			previews, err := cli.repo.ListPreviews(cmd.Context(), production)
			if err != nil {
				return err
			}
			previews = blog.FilterByTag(previews, tag)
			if limit > 0 {
				previews = blog.Recent(previews, limit)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), previews)
			}
			return writePreviews(cmd.OutOrStdout(), previews)
		},
	}
	cmd.Flags().BoolVar(&production, "production", false, "hide drafts and unpublished posts")
	cmd.Flags().StringVar(&tag, "tag", "", "only posts with this tag")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of posts (0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func showCmd() *cobra.Command {
	var html bool
	cmd := &cobra.Command{
		Use:   "show <slug>",
		Short: "Show one post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			post, ok, err := cli.repo.GetBySlug(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("post %q not found", args[0])
			}
			out := cmd.OutOrStdout()
			if html {
				return post.Body.Render(out)
			}

			m := post.Meta
			fmt.Fprintf(out, "%s\n", m.Title)
			fmt.Fprintf(out, "date:    %s\n", m.Date)
			if a := m.AuthorName(); a != "" {
				fmt.Fprintf(out, "author:  %s\n", a)
			}
			if len(m.Tags) > 0 {
				fmt.Fprintf(out, "tags:    %s\n", strings.Join(m.Tags, ", "))
			}
			fmt.Fprintf(out, "reading: %g min\n", m.ReadingTime)
			if m.DevelopmentOnly {
				fmt.Fprintln(out, "status:  development only")
			}
			fmt.Fprintf(out, "\n%s\n", m.Excerpt)

			if hs := post.Body.Headings(); len(hs) > 0 {
				fmt.Fprintln(out, "\ncontents:")
				for _, h := range hs {
					fmt.Fprintf(out, "%s- %s (#%s)\n", strings.Repeat("  ", h.Level-2), h.Text, h.ID)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&html, "html", false, "print the rendered HTML body")
	return cmd
}

func tagsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Tag counts across posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			previews, err := cli.repo.ListPreviews(cmd.Context(), false)
			if err != nil {
				return err
			}
			stats := blog.TagStats(previews)
			if !cmd.Flags().Changed("limit") {
				limit = cli.cfg.Blog.TagLimit
			}
			if limit > 0 && len(stats) > limit {
				stats = stats[:limit]
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, s := range stats {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Count, s.Label, s.Tag)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of tags (0 = all)")
	return cmd
}

func popularCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "popular",
		Short: "Curated or featured posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			previews, err := cli.repo.ListPreviews(cmd.Context(), false)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				limit = cli.cfg.Blog.PopularLimit
			}
			return writePreviews(cmd.OutOrStdout(), blog.Popular(previews, limit, cli.cfg.Blog.Popular))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of posts")
	return cmd
}

func recentCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Most recent posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			previews, err := cli.repo.ListPreviews(cmd.Context(), false)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				limit = cli.cfg.Blog.RecentLimit
			}
			return writePreviews(cmd.OutOrStdout(), blog.Recent(previews, limit))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of posts")
	return cmd
}

func writePreviews(w io.Writer, previews []content.Preview) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range previews {
		flag := ""
		if p.Meta.DevelopmentOnly {
			flag = "[dev]"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Meta.Date, p.Slug, p.Meta.Title, flag)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
