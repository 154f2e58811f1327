// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tt-a1i/gpt/internal/api"
	"github.com/tt-a1i/gpt/internal/config"
	"github.com/tt-a1i/gpt/internal/model"
	"github.com/tt-a1i/gpt/internal/storage"
	"github.com/tt-a1i/gpt/internal/ui/components"
	"github.com/tt-a1i/gpt/internal/ui/styles"
)

// State is the chat view state.
type State int

const (
	// StateReady accepts input.
	StateReady State = iota
	// StateStreaming has one request in flight. Input is locked until the
	// reply completes, fails, or is cancelled.
	StateStreaming
)

// MaxInputLength bounds a single prompt.
const MaxInputLength = 4096

// Model is the Bubble Tea model for the chat view.
type Model struct {
	state State
	theme *styles.Theme
	cfg   *config.Config

	transcript *model.Transcript
	store      *storage.Store

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keyMap   KeyMap

	markdown *components.MarkdownRenderer

	// Pointers so Bubble Tea value copies share the same state.
	cancelMgr *cancelManager
	buffer    *SnapshotBuffer

	streamingMsgID string
	streamStats    *model.Statistics
	streamStart    time.Time

	showHelp bool
	notice   string

	width  int
	height int
	ready  bool
}

// New creates a chat model from configuration. The store may be nil, in
// which case history commands report that persistence is off.
func New(theme *styles.Theme, cfg *config.Config, store *storage.Store) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask anything, or type / for commands"
	ti.Prompt = "> "
	ti.CharLimit = MaxInputLength
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 8,
	}
	sp.Style = theme.Spinner

	t := model.NewTranscript()
	t.UsingContext = cfg.Chat.UseContext
	t.SystemPrompt = cfg.Chat.SystemMessage

	md := components.NewMarkdownRenderer(78)
	md.SetEnabled(cfg.UI.Markdown)

	return Model{
		state:      StateReady,
		theme:      theme,
		cfg:        cfg,
		transcript: t,
		store:      store,
		viewport:   vp,
		input:      ti,
		spinner:    sp,
		keyMap:     DefaultKeyMap(),
		markdown:   md,
		cancelMgr:  newCancelManager(),
		buffer:     NewSnapshotBuffer(),
	}
}

// Transcript exposes the current transcript, mainly for the program root
// and tests.
func (m Model) Transcript() *model.Transcript {
	return m.transcript
}

// Streaming reports whether a request is in flight.
func (m Model) Streaming() bool {
	return m.state == StateStreaming
}

// Init starts the input cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamStartMsg:
		return m.handleStreamStart(msg)

	case StreamSnapshotMsg:
		return m.handleStreamSnapshot(msg)

	case StreamTickMsg:
		return m.handleStreamTick()

	case StreamCompleteMsg:
		return m.handleStreamComplete(msg)

	case StreamErrorMsg:
		return m.handleStreamError(msg)

	case StreamCancelledMsg:
		return m.handleStreamCancelled(msg)

	case TranscriptSavedMsg:
		return m.handleTranscriptSaved(msg)

	case TranscriptLoadedMsg:
		return m.handleTranscriptLoaded(msg)

	case TranscriptListMsg:
		return m.handleTranscriptList(msg)

	case ExportCompleteMsg:
		return m.handleExportComplete(msg)

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case ErrorMsg:
		m.transcript.AddErrorMessage(msg.Title + ": " + msg.Message)
		m.updateViewport()
		return m, nil

	case spinner.TickMsg:
		if m.state == StateStreaming {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	// Unhandled messages still drive input blink and viewport scrolling.
	var cmds []tea.Cmd
	if m.state == StateReady {
		var inputCmd tea.Cmd
		m.input, inputCmd = m.input.Update(msg)
		cmds = append(cmds, inputCmd)
	}
	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)
	return m, tea.Batch(cmds...)
}

// View renders the chat view.
func (m Model) View() string {
	return m.renderChat()
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	// header + input area + status bar; measured heights in view.go stay
	// within these estimates.
	const reservedHeight = 5

	viewportHeight := m.height - reservedHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = viewportHeight

	inputWidth := m.width - 8
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.markdown.SetWidth(m.width - 10)
	m.theme.SetSize(m.width, m.height)

	m.updateViewport()

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, vpCmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch msg.String() {
		case "esc", "enter", "q", "f1":
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keyMap.Quit):
		// Ctrl+C stops the stream first; a second press quits.
		if m.state == StateStreaming && m.cancelMgr.cancel() {
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Cancel):
		if m.state == StateStreaming {
			m.cancelMgr.cancel()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Clear):
		m.transcript.Clear()
		m.updateViewport()
		return m, nil

	case key.Matches(msg, m.keyMap.Context):
		m.transcript.UsingContext = !m.transcript.UsingContext
		return m, nil

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keyMap.LineUp), key.Matches(msg, m.keyMap.LineDown),
		key.Matches(msg, m.keyMap.PageUp), key.Matches(msg, m.keyMap.PageDown),
		key.Matches(msg, m.keyMap.Top), key.Matches(msg, m.keyMap.Bottom):
		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		return m, vpCmd
	}

	if m.state == StateReady {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleStreamStart(msg StreamStartMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingMsgID {
		return m, nil
	}
	m.streamStart = msg.StartTime
	return m, m.spinner.Tick
}

func (m Model) handleStreamSnapshot(msg StreamSnapshotMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingMsgID {
		return m, nil
	}
	if msg.First && m.streamStats != nil {
		m.streamStats.RecordFirstChunk()
	}
	m.buffer.Write(msg.Text)
	return m, nil
}

func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if m.state != StateStreaming {
		return m, nil
	}
	if text, ok := m.buffer.Flush(); ok {
		m.transcript.MergePartial(text)
		m.updateViewport()
	}
	return m, streamTickCmd()
}

func (m Model) handleStreamComplete(msg StreamCompleteMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingMsgID {
		return m, nil
	}
	if text, ok := m.buffer.ForceFlush(); ok {
		m.transcript.MergePartial(text)
	}

	stats := m.streamStats
	if stats == nil {
		stats = model.NewStatistics()
	}
	thread := model.Thread{}
	tokens := 0
	if msg.Reply != nil {
		thread = model.Thread{
			ConversationID:  msg.Reply.ConversationID,
			ParentMessageID: msg.Reply.ID,
		}
		tokens = msg.Reply.CompletionTokens
	}
	if tokens == 0 {
		if last := m.transcript.LastAssistantMessage(); last != nil {
			tokens = last.EstimateTokens()
		}
	}
	stats.Finalize(tokens)

	m.transcript.FinalizeLast(stats, thread)
	m.finishStream()
	m.updateViewport()

	return m, m.autosaveCmd()
}

func (m Model) handleStreamError(msg StreamErrorMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingMsgID {
		return m, nil
	}
	if text, ok := m.buffer.ForceFlush(); ok {
		m.transcript.MergePartial(text)
	}
	m.transcript.FailLast(friendlyError(msg.Err))
	m.finishStream()
	m.updateViewport()
	return m, nil
}

func (m Model) handleStreamCancelled(msg StreamCancelledMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingMsgID {
		return m, nil
	}
	if text, ok := m.buffer.ForceFlush(); ok {
		m.transcript.MergePartial(text)
	}
	// A stop keeps the partial text and the thread stays where it was.
	m.transcript.CancelLast()
	m.finishStream()
	m.updateViewport()
	return m, nil
}

// finishStream returns the view to the ready state.
func (m *Model) finishStream() {
	m.state = StateReady
	m.streamingMsgID = ""
	m.streamStats = nil
	m.cancelMgr.clear()
	m.buffer.Reset()
	m.input.Focus()
}

// handleConfigReloaded swaps in configuration edited while the view is
// running. The transcript keeps its current context mode and system
// prompt; the new values shape the next request and rendering.
func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Cfg == nil {
		return m, nil
	}
	m.cfg = msg.Cfg
	m.markdown.SetEnabled(msg.Cfg.UI.Markdown)
	m.notice = "config reloaded"
	m.updateViewport()
	return m, nil
}

func (m Model) handleTranscriptSaved(msg TranscriptSavedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.notice = "save failed: " + msg.Err.Error()
	} else {
		m.notice = "saved " + msg.ID
	}
	return m, nil
}

func (m Model) handleTranscriptLoaded(msg TranscriptLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.transcript.AddErrorMessage("Load failed: " + msg.Err.Error())
		m.updateViewport()
		return m, nil
	}
	m.transcript = msg.Transcript
	m.notice = "loaded " + msg.Transcript.ID
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m Model) handleTranscriptList(msg TranscriptListMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.transcript.AddErrorMessage("History unavailable: " + msg.Err.Error())
		m.updateViewport()
		return m, nil
	}
	m.transcript.AddSystemMessage(formatTranscriptList(msg.Metas, msg.Query))
	m.updateViewport()
	return m, nil
}

func (m Model) handleExportComplete(msg ExportCompleteMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.transcript.AddErrorMessage("Export failed: " + msg.Err.Error())
	} else {
		m.transcript.AddSystemMessage("Exported transcript to " + msg.Path)
	}
	m.updateViewport()
	return m, nil
}

// updateViewport re-renders the transcript into the viewport, keeping
// the view pinned to the bottom while following new content.
func (m *Model) updateViewport() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if atBottom || m.state == StateStreaming {
		m.viewport.GotoBottom()
	}
}

// autosaveCmd persists the transcript after each completed reply when
// history is enabled.
func (m Model) autosaveCmd() tea.Cmd {
	if m.store == nil || !m.cfg.History.Enabled || m.transcript.IsEmpty() {
		return nil
	}
	store := m.store
	snapshot := m.transcript.Clone()
	return func() tea.Msg {
		if err := store.Save(snapshot); err != nil {
			return TranscriptSavedMsg{ID: snapshot.ID, Err: err}
		}
		return TranscriptSavedMsg{ID: snapshot.ID}
	}
}

// friendlyError maps client errors to the short inline text shown in the
// transcript.
func friendlyError(err error) string {
	switch {
	case err == nil:
		return "unknown error"
	case api.IsUnreachable(err):
		return "Backend unreachable. Check that the server is running and base_url is correct."
	case api.IsTimeout(err):
		return "Request timed out."
	case api.IsTooManyContinuations(err):
		return "Reply kept exceeding the length limit. Showing what was received."
	default:
		return err.Error()
	}
}

// visibleWidth is a lipgloss.Width shorthand used by the renderers.
func visibleWidth(s string) int {
	return lipgloss.Width(s)
}
