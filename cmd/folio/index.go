package main

import (
	"context"
	"errors"
	"fmt"
	"folio/internal/domain/config"
	"folio/internal/index"
	"folio/internal/watch"
	"github.com/spf13/cobra"
	"log"
)

func indexCmd() *cobra.Command {
	var watchDir bool
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Write the post metadata index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := rebuildIndex(ctx); err != nil {
				return err
			}
			if !watchDir {
				return nil
			}
			if cli.cfg.Content.Source != config.SourceFS {
				return errors.New("--watch needs a file system content source")
			}
			return watch.Run(ctx, cli.cfg.Content.Dir, 0, func(ctx context.Context) error {
				cli.repo.Reset()
				return rebuildIndex(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&watchDir, "watch", false, "rebuild when the content directory changes")
	return cmd
}

func rebuildIndex(ctx context.Context) error {
	previews, err := cli.repo.ListPreviews(ctx, true)
	if err != nil {
		return err
	}
	records := index.BuildRecords(previews, cli.cfg.Site.Author)

	if p := cli.cfg.Index.JSONPath; p != "" {
		if err := index.WriteJSON(p, records); err != nil {
			return fmt.Errorf("write %s: %w", p, err)
		}
		log.Printf("[index] wrote %d posts to %s", len(records), p)
	}

	if p := cli.cfg.Index.DBPath; p != "" {
		st, err := index.Open(index.OpenOptions{Path: p, LockTimeout: cli.cfg.Index.LockTimeout})
		if err != nil {
			return fmt.Errorf("failed to open index: %w", err)
		}
		defer st.Close()

		changed, err := st.Sync(records)
		if err != nil {
			return fmt.Errorf("failed to rebuild index: %w", err)
		}
		if changed {
			log.Printf("[index] rebuilt %s", st.Path())
		} else {
			log.Printf("[index] %s is up to date", st.Path())
		}
	}
	return nil
}

func metaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "meta <slug>",
		Short: "Print one record from the metadata index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := cli.cfg.Index.DBPath
			if p == "" {
				return errors.New("index.db_path is not configured")
			}
			st, err := index.Open(index.OpenOptions{
				Path:        p,
				ReadOnly:    true,
				LockTimeout: cli.cfg.Index.LockTimeout,
			})
			if err != nil {
				return fmt.Errorf("failed to open index: %w", err)
			}
			defer st.Close()

			r, err := st.Get(args[0])
			if errors.Is(err, index.ErrNotFound) {
				return fmt.Errorf("%q is not in the index", args[0])
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), index.Entry{Slug: args[0], Record: r})
		},
	}
}
