// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the meshchat TUI.
package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/meshchat-tui/internal/commands"
	"github.com/jeranaias/meshchat-tui/internal/config"
	"github.com/jeranaias/meshchat-tui/internal/gateway"
	"github.com/jeranaias/meshchat-tui/internal/interaction"
	"github.com/jeranaias/meshchat-tui/internal/mention"
	"github.com/jeranaias/meshchat-tui/internal/model"
	"github.com/jeranaias/meshchat-tui/internal/orchestrator"
	"github.com/jeranaias/meshchat-tui/internal/supervisor"
	"github.com/jeranaias/meshchat-tui/internal/ui/components"
	"github.com/jeranaias/meshchat-tui/internal/ui/styles"
	"github.com/jeranaias/meshchat-tui/internal/util"
)

// Supervisor keys. Submissions supersede each other; each fan-out's refresh
// runs under its own key so refreshing one slot never cancels another.
const (
	submitKey        = "chat.submit"
	refreshKeyPrefix = "chat.refresh:"
)

// =============================================================================
// SHARED MUTABLE STATE
// =============================================================================

// The Bubble Tea model is copied by value on every update, so state mutated
// from state machine hooks lives behind pointers shared by all copies.

// errorBanner holds the active error message. Seq invalidates stale
// auto-dismiss ticks.
type errorBanner struct {
	text string
	seq  int
}

// roster is the peer list used for mention picking and the status bar.
type roster struct {
	online  []string
	offline []string
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int
	ready  bool

	// Configuration
	cfg *config.Config

	// Conversation and slot tracking. slots maps orchestrator slot IDs to
	// transcript message IDs.
	conversation *model.Conversation
	slots        map[string]string

	// Coordination
	machine *interaction.Machine
	sup     *supervisor.Supervisor
	orch    *orchestrator.Orchestrator
	gw      *gateway.Client

	// Commands
	registry *commands.Registry
	parser   *commands.Parser

	// Shared mutable state, see above.
	banner *errorBanner
	peers  *roster

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	picker   *components.Picker
	markdown *components.MarkdownRenderer

	// Gateway status for the status bar.
	gatewayOK bool
}

// New wires up the chat model. The orchestrator must already be bound to a
// sink that delivers slot messages into this program.
func New(cfg *config.Config, gw *gateway.Client, orch *orchestrator.Orchestrator, sup *supervisor.Supervisor) Model {
	theme := styles.NewTheme(cfg.UI.Theme)

	input := textinput.New()
	input.Placeholder = "Message the mesh (@peer to fan out, / for commands)"
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.CharLimit = 0
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	registry := commands.NewRegistry()

	m := Model{
		theme:        theme,
		cfg:          cfg,
		conversation: model.NewConversation(),
		slots:        make(map[string]string),
		machine:      interaction.NewMachine(),
		sup:          sup,
		orch:         orch,
		gw:           gw,
		registry:     registry,
		parser:       commands.NewParser(registry),
		banner:       &errorBanner{},
		peers:        &roster{},
		input:        input,
		spinner:      sp,
		picker:       components.NewPicker(theme),
		markdown:     components.NewMarkdownRenderer(theme.IsDark, 80, cfg.UI.Markdown),
	}

	m.wireHooks()
	return m
}

// wireHooks attaches side effects to state entries. The hooks mutate only
// pointer-held state so they survive model copies.
func (m *Model) wireHooks() {
	banner := m.banner
	picker := m.picker
	peers := m.peers
	registry := m.registry

	m.machine.OnEnter(interaction.Error, func(payload string) {
		banner.text = payload
		banner.seq++
	})
	m.machine.OnEnter(interaction.Idle, func(string) {
		banner.text = ""
	})
	m.machine.OnEnter(interaction.MentionPickerActive, func(partial string) {
		picker.SetTitle("Mention a peer")
		picker.SetCandidates(mention.Filter(peers.online, partial))
	})
	m.machine.OnEnter(interaction.CommandPickerActive, func(partial string) {
		picker.SetTitle("Commands")
		picker.SetCandidates(mention.Filter(registry.Names(), partial))
	})
}

// Init starts the spinner and the initial gateway checks.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textinput.Blink,
		m.healthCmd(),
		m.loadPeersCmd(false),
	)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SlotOpenedMsg:
		return m.handleSlotOpened(msg), nil

	case SlotTextMsg:
		return m.handleSlotText(msg), nil

	case SlotCounterMsg:
		if slot := m.slotMessage(msg.SlotID); slot != nil {
			slot.SetCounter(msg.Replied, msg.Total)
			m.refreshTranscript()
		}
		return m, nil

	case SlotFinalizedMsg:
		if slot := m.slotMessage(msg.SlotID); slot != nil {
			slot.FinalizeStream()
			m.refreshTranscript()
		}
		return m, nil

	case SlotFailedMsg:
		if slot := m.slotMessage(msg.SlotID); slot != nil {
			slot.IsStreaming = true
			slot.SetStreamText(msg.UserMsg)
			slot.FinalizeStream()
			m.refreshTranscript()
		}
		return m, nil

	case QueryDoneMsg:
		return m.handleQueryDone(msg)

	case ErrorDismissMsg:
		if m.machine.Current() == interaction.Error && msg.Seq == m.banner.seq {
			m.toRestingState()
		}
		return m, nil

	case GatewayStatusMsg:
		m.gatewayOK = msg.Running
		return m, nil

	case PeersLoadedMsg:
		return m.handlePeersLoaded(msg), nil

	case ClearDoneMsg:
		if msg.Err != nil {
			m.conversation.AddSystemMessage("Conversation cleared locally; the gateway could not be reached.")
		} else {
			m.conversation.AddSystemMessage("Conversation cleared.")
		}
		m.refreshTranscript()
		return m, nil

	case ConfigReloadedMsg:
		m.cfg = config.Global()
		return m, nil

	case commands.HelpRequestedMsg:
		m.conversation.AddSystemMessage(msg.Text)
		m.refreshTranscript()
		return m, nil

	case commands.ClearRequestedMsg:
		return m.handleClear()

	case commands.PeersRequestedMsg:
		return m, m.loadPeersCmd(true)

	case commands.RefreshRequestedMsg:
		return m.handleRefresh()
	}

	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.sup.CancelAll()
		return m, tea.Quit

	case "ctrl+l":
		return m.handleClear()

	case "esc":
		return m.handleEscape(), nil

	case "enter":
		if m.machine.Current().PickerOpen() {
			m.insertSelection()
			return m, nil
		}
		return m.handleSubmit()

	case "up", "shift+tab":
		if m.machine.Current().PickerOpen() {
			m.picker.Prev()
			return m, nil
		}

	case "down", "tab":
		if m.machine.Current().PickerOpen() {
			m.picker.Next()
			return m, nil
		}
	}

	// Everything else edits the input line.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.syncInputState()
	return m, cmd
}

// syncInputState re-derives the interaction state from the input line after
// an edit: an active trigger opens the matching picker, otherwise the state
// follows whether any text is present. In-flight states are left alone.
func (m *Model) syncInputState() {
	if m.machine.Current().Busy() {
		return
	}

	value := m.input.Value()
	if trig, ok := mention.TriggerAt(value, m.input.Position()); ok {
		target := interaction.MentionPickerActive
		if trig.Kind == mention.KindCommand {
			target = interaction.CommandPickerActive
		}
		_ = m.machine.To(target, trig.Partial)
		return
	}

	if strings.TrimSpace(value) == "" {
		_ = m.machine.To(interaction.Idle, "")
	} else {
		_ = m.machine.To(interaction.Composing, "")
	}
}

// handleEscape closes the picker if one is open, otherwise cancels whatever
// is in flight. Cancellation is silent; streaming slots are frozen as-is.
func (m Model) handleEscape() Model {
	if m.machine.Current().PickerOpen() {
		m.toRestingState()
		return m
	}

	if m.machine.Current().Busy() {
		m.sup.CancelAll()
		for _, msg := range m.conversation.GetHistory() {
			if msg.IsStreaming {
				msg.FinalizeStream()
			}
		}
		m.refreshTranscript()
		_ = m.machine.To(interaction.Idle, "")
		m.syncInputState()
	}
	return m
}

// toRestingState returns to Composing when text remains, Idle otherwise.
func (m *Model) toRestingState() {
	if strings.TrimSpace(m.input.Value()) == "" {
		_ = m.machine.To(interaction.Idle, "")
	} else {
		_ = m.machine.To(interaction.Composing, "")
	}
}

// insertSelection replaces the active trigger's partial with the picker's
// selection and closes the picker.
func (m *Model) insertSelection() {
	selected := m.picker.Selected()
	if selected == "" {
		m.toRestingState()
		return
	}

	value := m.input.Value()
	cursor := m.input.Position()
	trig, ok := mention.TriggerAt(value, cursor)
	if !ok {
		m.toRestingState()
		return
	}

	runes := []rune(value)
	prefix := string(runes[:trig.Pos+1]) // keep the @ or /
	suffix := string(runes[cursor:])

	m.input.SetValue(prefix + selected + " " + suffix)
	m.input.SetCursor(trig.Pos + 1 + util.RuneLen(selected) + 1)

	_ = m.machine.To(interaction.Composing, "")
}

// =============================================================================
// SUBMISSION
// =============================================================================

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	// Submission is blocked while a query is in flight; Esc cancels it.
	if m.machine.Current().Busy() {
		return m, nil
	}

	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if commands.IsCommand(text) {
		return m.runCommand(text)
	}

	if util.RuneLen(text) > m.cfg.UI.MaxMessageLength {
		return m.showError(fmt.Sprintf(
			"Message too long: %d characters (limit %d).",
			util.RuneLen(text), m.cfg.UI.MaxMessageLength))
	}

	peers := mention.ExtractPeers(text)
	m.conversation.AddUserMessage(text, peers)
	m.input.SetValue("")
	m.refreshTranscript()

	_ = m.machine.To(interaction.Sending, "")
	return m, m.startSubmit(orchestrator.OutboundMessage{Text: text, Peers: peers})
}

func (m Model) runCommand(text string) (tea.Model, tea.Cmd) {
	result := m.parser.Parse(text)
	if result.Command == nil {
		return m.showError("Unknown command: " + result.CommandName + " (try /help)")
	}

	m.input.SetValue("")
	_ = m.machine.To(interaction.Idle, "")
	return m, result.Command.Handler(result.Args)
}

// startSubmit runs the orchestrator under the supervisor and reports back
// when it finishes. Starting a new submission supersedes the previous one.
func (m Model) startSubmit(out orchestrator.OutboundMessage) tea.Cmd {
	orch := m.orch
	sup := m.sup
	return func() tea.Msg {
		var err error
		h := sup.Start(context.Background(), submitKey, func(ctx context.Context) {
			err = orch.Submit(ctx, out)
		})
		<-h.Done()
		return queryDone(err)
	}
}

func (m Model) startRefresh(handle orchestrator.QueryHandle) tea.Cmd {
	orch := m.orch
	sup := m.sup
	return func() tea.Msg {
		var err error
		key := refreshKeyPrefix + handle.PromptID
		h := sup.Start(context.Background(), key, func(ctx context.Context) {
			err = orch.Refresh(ctx, handle)
		})
		<-h.Done()
		return queryDone(err)
	}
}

// queryDone maps an operation result to the done message. Cancellation is
// deliberate (a supersede or Esc) and is never shown to the user.
func queryDone(err error) tea.Msg {
	if err == nil || gateway.IsCancelled(err) {
		return QueryDoneMsg{}
	}
	return QueryDoneMsg{UserMsg: orchestrator.UserFacing(err)}
}

func (m Model) handleQueryDone(msg QueryDoneMsg) (tea.Model, tea.Cmd) {
	if msg.UserMsg != "" {
		return m.showError(msg.UserMsg)
	}
	if m.machine.Current().Busy() {
		m.toRestingState()
	}
	return m, nil
}

// showError enters the Error state and schedules its auto-dismissal.
func (m Model) showError(text string) (tea.Model, tea.Cmd) {
	_ = m.machine.To(interaction.Error, text)
	seq := m.banner.seq
	return m, tea.Tick(m.cfg.UI.ErrorDisplay(), func(time.Time) tea.Msg {
		return ErrorDismissMsg{Seq: seq}
	})
}

// =============================================================================
// SLOT HANDLING
// =============================================================================

// slotMessage resolves a slot ID to its transcript message. Fan-out slots
// are also reachable by prompt ID, which covers refreshes that never saw a
// SlotOpened.
func (m *Model) slotMessage(slotID string) *model.Message {
	if msgID, ok := m.slots[slotID]; ok {
		return m.conversation.GetMessageByID(msgID)
	}
	return m.conversation.GetSlotByPromptID(slotID)
}

func (m Model) handleSlotOpened(msg SlotOpenedMsg) Model {
	var slot *model.Message
	if msg.Handle != nil {
		slot = m.conversation.AddAggregationMessage(msg.SlotID, msg.Handle.Peers)
	} else {
		slot = m.conversation.AddAssistantMessage()
	}
	m.slots[msg.SlotID] = slot.ID

	if m.machine.Current() == interaction.Sending {
		_ = m.machine.To(interaction.Receiving, "")
	}
	m.refreshTranscript()
	return m
}

func (m Model) handleSlotText(msg SlotTextMsg) Model {
	slot := m.slotMessage(msg.SlotID)
	if slot == nil {
		return m
	}

	// A refresh streams into a previously finalized slot.
	slot.IsStreaming = true
	slot.SetStreamText(msg.Full)

	if m.machine.Current() == interaction.Sending {
		_ = m.machine.To(interaction.Receiving, "")
	}
	m.refreshTranscript()
	return m
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

func (m Model) handleClear() (tea.Model, tea.Cmd) {
	m.sup.CancelAll()
	m.conversation.ClearHistory()
	m.slots = make(map[string]string)
	m.refreshTranscript()
	_ = m.machine.To(interaction.Idle, "")

	gw := m.gw
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return ClearDoneMsg{Err: gw.ClearConversation(ctx)}
	}
}

func (m Model) handleRefresh() (tea.Model, tea.Cmd) {
	slot := m.conversation.NewestAggregation()
	if slot == nil {
		return m.showError("No peer query to refresh.")
	}

	_ = m.machine.To(interaction.Sending, "")
	return m, m.startRefresh(orchestrator.QueryHandle{
		PromptID: slot.PromptID,
		Peers:    slot.Peers,
	})
}

func (m Model) handlePeersLoaded(msg PeersLoadedMsg) Model {
	if msg.Err != nil {
		if msg.Announce {
			m.conversation.AddSystemMessage("Could not list peers: " + orchestrator.UserFacing(msg.Err))
			m.refreshTranscript()
		}
		return m
	}

	online := append([]string(nil), msg.Online...)
	sort.Strings(online)
	m.peers.online = online
	m.peers.offline = msg.Offline

	if msg.Announce {
		m.conversation.AddSystemMessage(formatPeerList(online, msg.Offline))
		m.refreshTranscript()
	}
	return m
}

func formatPeerList(online, offline []string) string {
	var b strings.Builder
	b.WriteString("Peers:\n")
	if len(online) == 0 {
		b.WriteString("\n  online: none")
	} else {
		b.WriteString("\n  online: " + strings.Join(online, ", "))
	}
	if len(offline) > 0 {
		b.WriteString("\n  offline: " + strings.Join(offline, ", "))
	}
	return b.String()
}

// =============================================================================
// BACKGROUND COMMANDS
// =============================================================================

func (m Model) healthCmd() tea.Cmd {
	gw := m.gw
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return GatewayStatusMsg{Running: gw.CheckRunning(ctx) == nil}
	}
}

func (m Model) loadPeersCmd(announce bool) tea.Cmd {
	gw := m.gw
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		peers, err := gw.ListPeers(ctx)
		if err != nil {
			return PeersLoadedMsg{Err: err, Announce: announce}
		}
		return PeersLoadedMsg{Online: peers.Online, Offline: peers.Offline, Announce: announce}
	}
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height

	inputHeight := 3 // bordered input box
	statusHeight := 1
	headerHeight := 1
	vpHeight := msg.Height - inputHeight - statusHeight - headerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}

	m.input.Width = msg.Width - 6
	m.picker.SetWidth(min(50, msg.Width-4))
	m.markdown.SetWidth(m.theme.IsDark, max(20, msg.Width-4))

	m.refreshTranscript()
	return m
}
