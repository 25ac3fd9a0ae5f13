// Package tasks orchestrates the client's multi-step operations with real-time progress reporting.
//
// # Publishing
//
// [UploadPipeline.Publish] is a two-step saga with no compensating action:
//
//  1. Validate : non-empty title, media attached, within the size cap, signed in; no network on failure
//  2. Encode : the media (and optional thumbnail) is base64-encoded fully in memory
//  3. Upload : the encoded payload is posted to the upload endpoint
//  4. Register : the returned URLs and duration are posted to the catalog with action "create"
//
// Every failure is a *[PublishError] naming the [Phase] that broke. A [Register] failure means the
// media is stored but not listed; [PublishError.Uploaded] carries what the upload returned so
// [UploadPipeline.Register] can retry registration alone. Calling Publish again re-uploads and may
// produce a duplicate entry, since the endpoints offer no idempotency key.
//
// On success the draft is cleared. On failure it is left untouched for another attempt.
//
// # Concurrency
//
// There is no lock across publishes unless [PipelineOpts] enables SingleFlight, which rejects a second
// publish of the same draft id with [shared.ErrPublishInFlight] while the first is running.
//
// # Progress Reporting
//
// Operations accept an optional progress channel. [ProgressUpdate] values are sent with select/default so
// a slow or absent reader never blocks a publish.
//
// # Catalog Feed
//
// [CatalogFeed] lists the catalog and mirrors each listing into a [CatalogCache]. When the catalog is
// unreachable the cached listing is returned with Stale set. A successful publish should be followed by
// [CatalogFeed.Invalidate].
package tasks
