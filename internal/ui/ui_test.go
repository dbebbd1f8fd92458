package ui

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/riff/internal/auth"
	"github.com/desertthunder/riff/internal/models"
	"github.com/desertthunder/riff/internal/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDrafts struct {
	mu      sync.Mutex
	updates []*models.Draft
	err     error
}

func (d *memDrafts) Update(draft *models.Draft) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updates = append(d.updates, draft)
	return d.err
}

type fakeSaver struct {
	err error
}

func (s fakeSaver) Save(ctx context.Context, progress chan<- tasks.ProgressUpdate, draft *models.Draft) (*models.Playlist, error) {
	progress <- tasks.ProgressUpdate{Phase: tasks.CreatePlaylist, Message: "Creating playlist"}
	if s.err != nil {
		return nil, s.err
	}
	n := len(draft.SaveableURIs())
	draft.SetTracks(nil)
	return &models.Playlist{ID: "pl-1", Name: "Night Drive", TrackCount: n}, nil
}

func keyPress(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

func newTestModel(saver Saver, drafts *memDrafts) *Model {
	draft := models.NewDraft("Night Drive", "")
	draft.SetID("d1")
	draft.SetTracks([]models.Track{
		{ID: "t1", Title: "Teardrop", Artist: "Massive Attack"},
		{ID: "t2", Title: "Glory Box", Artist: "Portishead"},
		{ID: "temp-1-0", Title: "Ghost", Artist: "Nobody"},
	})
	m := NewModel(context.Background(), draft, drafts, saver)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	return m
}

// run drains cmd until a message other than a progress update arrives.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		_, cmd = m.Update(msg)
		if um, ok := msg.(Msg); ok && um.kind != MsgProgressUpdate {
			return
		}
	}
}

func TestRemoveTrack(t *testing.T) {
	drafts := &memDrafts{}
	m := newTestModel(fakeSaver{}, drafts)

	_, cmd := m.Update(keyPress("d"))
	require.NotNil(t, cmd)
	run(t, m, cmd)

	assert.Equal(t, 2, m.Draft().Len())
	require.Len(t, drafts.updates, 1)
	assert.Equal(t, 2, drafts.updates[0].Len())
	assert.Contains(t, m.View(), "Removed Teardrop")
}

func TestRemoveTrackPersistFailure(t *testing.T) {
	m := newTestModel(fakeSaver{}, &memDrafts{err: errors.New("disk full")})

	_, cmd := m.Update(keyPress("d"))
	run(t, m, cmd)
	assert.Contains(t, m.View(), "disk full")
}

func TestSaveFlow(t *testing.T) {
	drafts := &memDrafts{}
	m := newTestModel(fakeSaver{}, drafts)

	m.Update(keyPress("s"))
	assert.Equal(t, ConfirmView, m.view)
	assert.Contains(t, m.View(), "1 suggested tracks were not found")

	m.Update(keyPress("n"))
	assert.Equal(t, DraftView, m.view)

	m.Update(keyPress("s"))
	_, cmd := m.Update(keyPress("y"))
	assert.Equal(t, SavingView, m.view)
	run(t, m, cmd)

	assert.Equal(t, ResultView, m.view)
	assert.Contains(t, m.View(), "saved to Spotify")
	assert.Zero(t, m.Draft().Len())
	require.Len(t, drafts.updates, 1)
	assert.Zero(t, drafts.updates[0].Len())

	m.Update(keyPress("r"))
	assert.Equal(t, DraftView, m.view)
}

func TestSaveFailureKeepsDraft(t *testing.T) {
	drafts := &memDrafts{}
	m := newTestModel(fakeSaver{err: errors.New("boom")}, drafts)

	m.Update(keyPress("s"))
	_, cmd := m.Update(keyPress("y"))
	run(t, m, cmd)

	assert.Equal(t, ResultView, m.view)
	assert.Contains(t, m.View(), "Failed to save: boom")
	assert.Equal(t, 3, m.Draft().Len())
	assert.Empty(t, drafts.updates)
}

func TestEmptyDraftCannotSave(t *testing.T) {
	draft := models.NewDraft("Empty", "")
	m := NewModel(context.Background(), draft, &memDrafts{}, fakeSaver{})
	m.Update(keyPress("s"))
	assert.Equal(t, DraftView, m.view)
	assert.Contains(t, m.View(), "Nothing to save yet.")
}

func TestRenderNotice(t *testing.T) {
	assert.Contains(t, RenderNotice(auth.Notice{Level: auth.LevelSuccess, Message: "Connected to Spotify!"}), "Connected to Spotify!")
	assert.Contains(t, RenderNotice(auth.Notice{Level: auth.LevelError, Message: "State mismatch. Please try again."}), "✗")
	assert.Contains(t, RenderNotice(auth.Notice{Level: auth.LevelInfo, Message: "Connecting to Spotify..."}), "→")
}

func TestTrackItem(t *testing.T) {
	item := trackItem{track: models.Track{ID: "temp-1", Title: "Ghost", Artist: "Nobody", Album: "Void", DurationMS: 61000}}
	assert.Equal(t, "Ghost (not on Spotify)", item.Title())
	assert.Equal(t, "Nobody • Void • 1:01", item.Description())
}

func TestPasswordPrompt(t *testing.T) {
	p := newPasswordPrompt("Profile password", 4)

	var m tea.Model = p
	m, _ = m.Update(keyPress("abc"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.View(), "at least 4 characters")
	assert.NotContains(t, m.View(), "abc")

	m, _ = m.Update(keyPress("d"))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	final := m.(passwordPrompt)
	assert.True(t, final.done)
	assert.Equal(t, "abcd", final.input.Value())
}

func TestPasswordPromptCancel(t *testing.T) {
	var m tea.Model = newPasswordPrompt("Profile password", 4)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.(passwordPrompt).cancelled)
}
