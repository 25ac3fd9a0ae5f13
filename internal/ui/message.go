package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/teltube/internal/models"
	"github.com/desertthunder/teltube/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCatalogLoaded MsgKind = iota
	MsgSignedIn
	MsgProgressUpdate
	MsgPublishComplete
	MsgViewRecorded
)

type catalogLoaded struct {
	feed *tasks.FeedResult
	err  error
}

type signedIn struct {
	session *models.Session
	err     error
}

type publishComplete struct {
	ref *models.CatalogEntryRef
	err error
}

type viewRecorded struct {
	id    int64
	views int64
	err   error
}

// catalogLoadedMsg is the constructor for [MsgCatalogLoaded]
func catalogLoadedMsg(feed *tasks.FeedResult, err error) Msg {
	return Msg{kind: MsgCatalogLoaded, data: catalogLoaded{feed, err}}
}

// signedInMsg is the constructor for [MsgSignedIn]
func signedInMsg(session *models.Session, err error) Msg {
	return Msg{kind: MsgSignedIn, data: signedIn{session, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// publishCompleteMsg is the constructor for [MsgPublishComplete]
func publishCompleteMsg(ref *models.CatalogEntryRef, err error) Msg {
	return Msg{kind: MsgPublishComplete, data: publishComplete{ref, err}}
}

// viewRecordedMsg is the constructor for [MsgViewRecorded]
func viewRecordedMsg(id, views int64, err error) Msg {
	return Msg{kind: MsgViewRecorded, data: viewRecorded{id, views, err}}
}
