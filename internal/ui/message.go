package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/riff/internal/models"
	"github.com/desertthunder/riff/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var _ tea.Msg = Msg{}

const (
	MsgTrackRemoved MsgKind = iota
	MsgProgressUpdate
	MsgSaveComplete
)

type trackRemoved struct {
	track models.Track
	err   error
}

type saveComplete struct {
	playlist *models.Playlist
	draft    *models.Draft
	err      error
}

// trackRemovedMsg is the constructor for [MsgTrackRemoved]
func trackRemovedMsg(track models.Track, err error) Msg {
	return Msg{kind: MsgTrackRemoved, data: trackRemoved{track, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// saveCompleteMsg is the constructor for [MsgSaveComplete]
func saveCompleteMsg(pl *models.Playlist, draft *models.Draft, err error) Msg {
	return Msg{kind: MsgSaveComplete, data: saveComplete{pl, draft, err}}
}
