package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/teltube/internal/formatter"
	"github.com/desertthunder/teltube/internal/shared"
	"github.com/desertthunder/teltube/internal/tasks"
	"github.com/urfave/cli/v3"
)

// CatalogList prints the newest catalog entries.
func (r *Runner) CatalogList(ctx context.Context, cmd *cli.Command) error {
	controller, err := r.open()
	if err != nil {
		return err
	}

	result, err := controller.Catalog(ctx)
	if err != nil {
		return err
	}
	return r.writeListing(ctx, cmd, "Latest videos", result)
}

// CatalogChannel prints one channel's entries; without --user, the signed-in user's.
func (r *Runner) CatalogChannel(ctx context.Context, cmd *cli.Command) error {
	controller, err := r.open()
	if err != nil {
		return err
	}

	var ownerID *int64
	title := "My videos"
	if cmd.IsSet("user") {
		id := int64(cmd.Int("user"))
		if id <= 0 {
			return fmt.Errorf("%w: --user must be a positive user id", shared.ErrInvalidArgument)
		}
		ownerID = &id
		title = fmt.Sprintf("Channel %d", id)
	}

	result, err := controller.Channel(ctx, ownerID)
	if err != nil {
		return err
	}
	return r.writeListing(ctx, cmd, title, result)
}

// CatalogView records a view of one video and prints the new count.
func (r *Runner) CatalogView(ctx context.Context, cmd *cli.Command) error {
	raw := strings.TrimSpace(cmd.StringArg("id"))
	if raw == "" {
		return fmt.Errorf("%w: video id", shared.ErrMissingArgument)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: video id %q is not a number", shared.ErrInvalidArgument, raw)
	}

	views, err := r.catalog.RecordView(ctx, id)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Video %d now has %d views\n", id, views)
}

func (r *Runner) writeListing(ctx context.Context, cmd *cli.Command, title string, result *tasks.FeedResult) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	listing := &formatter.Listing{
		Title:    title,
		Entries:  result.Entries,
		Stale:    result.Stale,
		CachedAt: result.CachedAt,
	}
	if result.Stale {
		r.logger.Warn("catalog unreachable, showing cached listing", "cached_at", result.CachedAt)
	}

	output := cmd.String("output")
	switch {
	case output == "":
		data, err := formatter.Render(listing, format)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	case format == formatter.FormatMarkdown:
		export, err := formatter.WriteMarkdownExport(ctx, listing, output, r.httpClient)
		if err != nil {
			return err
		}
		for _, w := range export.Warnings {
			r.logger.Warn("thumbnail skipped", "detail", w)
		}
		return r.writePlain("✓ Exported %d videos and %d thumbnails to %s\n", len(listing.Entries), export.Thumbnails, export.Directory)
	default:
		if err := formatter.WriteExport(listing, format, output); err != nil {
			return err
		}
		return r.writePlain("✓ Exported %d videos to %s\n", len(listing.Entries), output)
	}
}
