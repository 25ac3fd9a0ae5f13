// Package ui implements an interactive terminal client using bubbletea's Elm architecture.
//
// The TUI moves between five views:
//  1. [CatalogView] : browse the newest videos, or the signed-in user's channel
//  2. [LoginView] : sign in or create an account
//  3. [UploadView] : fill in a draft (title, description, media and thumbnail paths)
//  4. [PublishView] : follow the publish steps as they report progress
//  5. [ResultView] : the new entry, or what failed and how to retry
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// It reads identity and gating from a [Session], normally a *session.Controller. The upload key is only active while
// [Session.CanUpload] holds, so signing out (or a rejected token) hides it immediately.
//
// A draft exists from the moment the upload view opens until it is published or the view is closed with esc.
// A failed publish keeps the draft; a failure after the media was stored offers a registration-only retry.
//
// Network calls run as [tea.Cmd] goroutines. Progress arrives over a channel and is rendered non-blocking.
package ui
