package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/riff/internal/models"
	"github.com/desertthunder/riff/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	DraftView ViewState = iota
	ConfirmView
	SavingView
	ResultView
)

// DraftStore persists draft edits. repositories.DraftRepository satisfies it.
type DraftStore interface {
	Update(draft *models.Draft) error
}

// Saver creates a catalog playlist from a draft. [tasks.Engine] satisfies it.
type Saver interface {
	Save(ctx context.Context, progress chan<- tasks.ProgressUpdate, draft *models.Draft) (*models.Playlist, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	draft     *models.Draft
	drafts    DraftStore
	saver     Saver
	width     int
	height    int
	trackList list.Model
	progress  tasks.ProgressUpdate
	updates   chan tasks.ProgressUpdate
	done      chan Msg
	saved     *models.Playlist
	status    string
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model curating draft.
func NewModel(ctx context.Context, draft *models.Draft, drafts DraftStore, saver Saver) *Model {
	m := &Model{
		ctx:    ctx,
		view:   DraftView,
		draft:  draft,
		drafts: drafts,
		saver:  saver,
		help:   help.New(),
		keys:   newKeyMap(),
	}
	m.trackList = list.New(trackItems(draft.Tracks()), list.NewDefaultDelegate(), 0, 0)
	m.trackList.SetShowHelp(false)
	m.refreshTitle()
	return m
}

// Init implements [tea.Model].
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case DraftView:
			return m.handleDraftKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTrackRemoved:
		data := msg.data.(trackRemoved)
		if data.err != nil {
			m.err = fmt.Errorf("failed to save draft: %w", data.err)
			return m, nil
		}
		m.status = fmt.Sprintf("Removed %s", data.track.Title)
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgSaveComplete:
		data := msg.data.(saveComplete)
		m.saved, m.err = data.playlist, data.err
		m.updates, m.done = nil, nil
		m.view = ResultView
		if data.err == nil {
			m.draft = data.draft
			m.trackList.SetItems(trackItems(m.draft.Tracks()))
			m.refreshTitle()
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case DraftView:
		return m.renderDraft()
	case ConfirmView:
		return m.renderConfirm()
	case SavingView:
		return m.renderSaving()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// Draft returns the draft being curated.
func (m *Model) Draft() *models.Draft {
	return m.draft
}

func (m *Model) handleDraftKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.remove):
		return m, m.removeSelected()
	case key.Matches(msg, m.keys.save):
		if m.draft.Len() == 0 {
			m.status = "Nothing to save yet."
			return m, nil
		}
		m.err = nil
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = SavingView
		return m, m.startSave()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.view = DraftView
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = DraftView
		m.saved, m.err, m.status = nil, nil, ""
	}
	return m, nil
}

func (m *Model) removeSelected() tea.Cmd {
	item, ok := m.trackList.SelectedItem().(trackItem)
	if !ok {
		return nil
	}

	m.draft.RemoveTrack(item.track.ID)
	m.trackList.RemoveItem(m.trackList.Index())
	m.refreshTitle()

	snapshot := copyDraft(m.draft)
	return func() tea.Msg {
		return trackRemovedMsg(item.track, m.drafts.Update(snapshot))
	}
}

func (m *Model) startSave() tea.Cmd {
	m.updates = make(chan tasks.ProgressUpdate, 16)
	m.done = make(chan Msg, 1)

	work := copyDraft(m.draft)
	updates, done := m.updates, m.done
	go func() {
		defer close(updates)
		pl, err := m.saver.Save(m.ctx, updates, work)
		if err == nil {
			err = m.drafts.Update(work)
		}
		done <- saveCompleteMsg(pl, work, err)
	}()

	return m.waitForProgress()
}

// waitForProgress relays progress until the save goroutine closes the channel.
func (m *Model) waitForProgress() tea.Cmd {
	updates, done := m.updates, m.done
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		if update, ok := <-updates; ok {
			return progressUpdateMsg(update)
		}
		return <-done
	}
}

func (m *Model) refreshTitle() {
	m.trackList.Title = fmt.Sprintf("%s (%d tracks)", m.draft.Name(), m.draft.Len())
}

func (m *Model) renderDraft() string {
	footer := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.remove, m.keys.save, m.keys.quit})
	if m.err != nil {
		footer = styles.err.Render(m.err.Error()) + "\n" + footer
	} else if m.status != "" {
		footer = styles.help.Render(m.status) + "\n" + footer
	}
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), footer)
}

func (m *Model) renderConfirm() string {
	saveable := len(m.draft.SaveableURIs())
	title := styles.title.Render(fmt.Sprintf("Save '%s' to Spotify?", m.draft.Name()))
	info := fmt.Sprintf("\nTracks: %d\nOn Spotify: %d\n", m.draft.Len(), saveable)
	if skipped := m.draft.Len() - saveable; skipped > 0 {
		info += styles.warn.Render(fmt.Sprintf("%d suggested tracks were not found and will be skipped.", skipped)) + "\n"
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSaving() string {
	title := styles.title.Render("Saving Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.CreatePlaylist:
		phase = "Creating playlist..."
	case tasks.AddTracks:
		phase = "Adding tracks..."
	default:
		phase = "Working..."
	}
	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})
	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Failed to save: %v", m.err)), helpView)
	}
	if m.saved == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	title := styles.ok.Render(fmt.Sprintf("✓ Playlist %q saved to Spotify!", m.saved.Name))
	info := fmt.Sprintf("\nTracks: %d", m.saved.TrackCount)
	if m.saved.URL != "" {
		info += "\n" + m.saved.URL
	}
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}

func copyDraft(d *models.Draft) *models.Draft {
	c := models.RestoreDraft(d.ID(), d.Name(), d.Description(), d.Prompt(), d.SourcePlaylistID(), d.CreatedAt(), d.UpdatedAt())
	c.SetTracks(d.Tracks())
	return c
}
