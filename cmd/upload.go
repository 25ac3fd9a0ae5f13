package main

import (
	"context"
	"errors"

	"github.com/desertthunder/teltube/internal/models"
	"github.com/desertthunder/teltube/internal/shared"
	"github.com/desertthunder/teltube/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Upload publishes a local video: encode, upload, then register in the catalog.
//
// When the upload succeeds but registration fails, registration alone is retried up to
// --register-retries times (none by default); the media is never uploaded twice by one
// invocation. A rejected token ends the session, so it is never retried.
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	controller, err := r.open()
	if err != nil {
		return err
	}
	if !controller.CanUpload() {
		return shared.NewError(shared.ErrNotAuthenticated, 0, "sign in first with 'teltube auth login'", nil)
	}

	draft := models.NewDraft()
	draft.Title = cmd.String("title")
	draft.Description = cmd.String("description")
	draft.MaxBytes = r.config.Upload.MaxFileBytes()
	if err := draft.AttachMedia(cmd.String("file")); err != nil {
		return err
	}
	if err := draft.AttachThumbnail(cmd.String("thumbnail")); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan struct{})
	go r.printProgress(progress, done)

	ref, err := controller.Publish(ctx, draft, progress)

	for i := 0; i < cmd.Int("register-retries"); i++ {
		var pubErr *tasks.PublishError
		if !errors.As(err, &pubErr) || !pubErr.CanRegisterOnly() {
			break
		}
		if errors.Is(err, shared.ErrTokenRejected) || !controller.CanUpload() {
			break
		}
		r.logger.Warn("catalog registration failed, retrying", "attempt", i+1, "error", pubErr.Err)
		ref, err = controller.RegisterUploaded(ctx, draft, pubErr.Uploaded, progress)
	}

	close(progress)
	<-done

	if err != nil {
		var pubErr *tasks.PublishError
		if errors.As(err, &pubErr) && pubErr.CanRegisterOnly() {
			r.writePlain("Media was uploaded but is not listed in the catalog:\n")
			r.writePlain("  video: %s\n", pubErr.Uploaded.VideoURL)
			if pubErr.Uploaded.ThumbnailURL != "" {
				r.writePlain("  thumbnail: %s\n", pubErr.Uploaded.ThumbnailURL)
			}
		}
		if errors.Is(err, shared.ErrTokenRejected) {
			r.writePlain("Your session has expired and was removed; sign in again\n")
		}
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(ref, true)
	}
	r.writePlain("✓ Published %q (#%d)\n", ref.Title, ref.ID)
	if ref.VideoURL != "" {
		r.writePlain("URL: %s\n", ref.VideoURL)
	}
	return nil
}

// printProgress writes each update as it arrives and closes done once progress is closed.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for update := range progress {
		if update.Phase == tasks.Done {
			continue
		}
		r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
	}
}
