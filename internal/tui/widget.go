package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/oliversimiyu/support-defmis/internal"
)

// viewMode is the widget's presentation state.
type viewMode int

const (
	modeCollapsed viewMode = iota
	modeProfile
	modeChat
	modeConfirmClose
	modeClosed
)

type uiEventMsg struct {
	ev internal.UIEvent
}

type actionErrMsg struct {
	err error
}

type bootstrappedMsg struct {
	err error
}

// Model is the terminal widget: a thin subscriber over the session
// controller's event stream. All conversation state lives in the
// controller; the model only holds what it renders.
type Model struct {
	ctrl *internal.Controller

	mode     viewMode
	messages []internal.Message
	status   string
	unread   string
	errText  string
	closedBy string

	input      textinput.Model
	nameInput  textinput.Model
	emailInput textinput.Model
	profileRow int
	chat       viewport.Model

	width  int
	height int
	ready  bool
}

// New creates the widget model around a controller.
func New(ctrl *internal.Controller) *Model {
	input := textinput.New()
	input.Placeholder = "Type your message... (/attach <file>, /close, /new)"
	input.CharLimit = 2000

	name := textinput.New()
	name.Placeholder = "Your name"
	name.CharLimit = 100

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 200

	return &Model{
		ctrl:       ctrl,
		mode:       modeCollapsed,
		status:     "Connecting...",
		input:      input,
		nameInput:  name,
		emailInput: email,
	}
}

// Init starts the session bootstrap and begins consuming controller
// events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.bootstrapCmd(), m.waitEvent())
}

func (m *Model) bootstrapCmd() tea.Cmd {
	return func() tea.Msg {
		return bootstrappedMsg{err: m.ctrl.Bootstrap()}
	}
}

// waitEvent blocks on the controller's event stream and re-arms itself
// after every delivery, so events arrive in the bubbletea loop one at a
// time and never concurrently.
func (m *Model) waitEvent() tea.Cmd {
	return func() tea.Msg {
		return uiEventMsg{ev: <-m.ctrl.Events()}
	}
}

// Update handles UI updates
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 6
		m.chat = viewport.New(msg.Width-4, maxInt(msg.Height-7, 3))
		m.ready = true
		m.refreshChat()
		return m, nil

	case bootstrappedMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
		}
		return m, nil

	case actionErrMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
		}
		return m, nil

	case uiEventMsg:
		return m.applyEvent(msg.ev)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) applyEvent(ev internal.UIEvent) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case internal.EventNeedProfile:
		m.mode = modeProfile
		m.profileRow = 0
		m.nameInput.Focus()

	case internal.EventSessionStarted:
		if m.mode == modeProfile {
			m.mode = modeChat
			m.input.Focus()
		}

	case internal.EventTimelineReplaced:
		m.messages = ev.Timeline
		m.refreshChat()

	case internal.EventMessageAppended:
		if ev.Message != nil {
			m.messages = append(m.messages, *ev.Message)
			m.refreshChat()
		}

	case internal.EventConnectionStatus:
		m.status = ev.Status

	case internal.EventConversationClosed:
		m.closedBy = ev.By
		if m.mode != modeCollapsed {
			m.mode = modeClosed
		}

	case internal.EventConversationReopened:
		if m.mode == modeClosed {
			m.mode = modeChat
			m.input.Focus()
		}

	case internal.EventUnreadChanged:
		m.unread = ev.Unread

	case internal.EventError:
		if ev.Err != nil {
			m.errText = ev.Err.Error()
		}
	}

	return m, m.waitEvent()
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.ctrl.Teardown()
		return m, tea.Quit
	}

	switch m.mode {
	case modeCollapsed:
		switch msg.String() {
		case "enter", " ":
			m.expand()
		case "q":
			m.ctrl.Teardown()
			return m, tea.Quit
		}
		return m, nil

	case modeProfile:
		return m.handleProfileKey(msg)

	case modeChat:
		return m.handleChatKey(msg)

	case modeConfirmClose:
		switch msg.String() {
		case "y", "Y":
			m.mode = modeChat
			return m, func() tea.Msg {
				return actionErrMsg{err: m.ctrl.CloseConversation(true)}
			}
		case "n", "N", "esc":
			m.mode = modeChat
		}
		return m, nil

	case modeClosed:
		switch msg.String() {
		case "n":
			return m, func() tea.Msg {
				return actionErrMsg{err: m.ctrl.StartNewConversation()}
			}
		case "esc":
			m.collapse()
		case "q":
			m.ctrl.Teardown()
			return m, tea.Quit
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleProfileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		m.profileRow = 1 - m.profileRow
		if m.profileRow == 0 {
			m.nameInput.Focus()
			m.emailInput.Blur()
		} else {
			m.emailInput.Focus()
			m.nameInput.Blur()
		}
		return m, nil

	case "enter":
		name := m.nameInput.Value()
		email := m.emailInput.Value()
		m.errText = ""
		return m, func() tea.Msg {
			return actionErrMsg{err: m.ctrl.SubmitProfile(name, email)}
		}
	}

	var cmd tea.Cmd
	if m.profileRow == 0 {
		m.nameInput, cmd = m.nameInput.Update(msg)
	} else {
		m.emailInput, cmd = m.emailInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.collapse()
		return m, nil

	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" && m.ctrl.PendingAttachment() == nil {
			return m, nil
		}
		m.input.Reset()
		m.errText = ""

		if cmd, handled := m.slashCommand(text); handled {
			return m, cmd
		}
		return m, func() tea.Msg {
			return actionErrMsg{err: m.ctrl.SendMessage(text)}
		}

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// slashCommand dispatches widget intents typed into the input line.
func (m *Model) slashCommand(text string) (tea.Cmd, bool) {
	switch {
	case text == "/close":
		m.mode = modeConfirmClose
		return nil, true

	case text == "/new":
		return func() tea.Msg {
			return actionErrMsg{err: m.ctrl.StartNewConversation()}
		}, true

	case text == "/remove":
		m.ctrl.RemoveAttachment()
		return nil, true

	case strings.HasPrefix(text, "/attach "):
		path := strings.TrimSpace(strings.TrimPrefix(text, "/attach "))
		return func() tea.Msg {
			_, err := m.ctrl.AttachFile(path)
			return actionErrMsg{err: err}
		}, true
	}
	return nil, false
}

func (m *Model) expand() {
	if m.closedBy != "" && m.sessionClosed() {
		m.mode = modeClosed
	} else {
		m.mode = modeChat
		m.input.Focus()
	}
	m.ctrl.Expand()
}

func (m *Model) collapse() {
	m.mode = modeCollapsed
	m.input.Blur()
	m.ctrl.Collapse()
}

func (m *Model) sessionClosed() bool {
	s := m.ctrl.Session()
	return s != nil && s.Status == internal.StatusClosed
}

func (m *Model) refreshChat() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for _, msg := range m.messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	m.chat.SetContent(b.String())
	m.chat.GotoBottom()
}

func (m *Model) renderMessage(msg internal.Message) string {
	name := msg.SenderName
	var style lipgloss.Style
	switch msg.SenderType {
	case internal.SenderCustomer:
		style = customerStyle
		if name == "" {
			name = "You"
		}
	case internal.SenderAdmin:
		style = adminStyle
		if name == "" {
			name = "Support"
		}
	default:
		style = systemStyle
		if name == "" {
			name = "System"
		}
	}

	line := style.Render(name+":") + " " + msg.Content
	if msg.AttachmentURL != "" {
		line += hintStyle.Render(" [attachment: " + msg.AttachmentURL + "]")
	}
	return line
}

// View renders the widget.
func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	switch m.mode {
	case modeCollapsed:
		return m.viewCollapsed()
	case modeProfile:
		return m.viewProfile()
	case modeConfirmClose:
		return m.viewChat(true)
	case modeClosed:
		return m.viewClosed()
	default:
		return m.viewChat(false)
	}
}

func (m *Model) viewCollapsed() string {
	bubble := "💬 " + m.widgetName()
	if m.unread != "" {
		bubble += " " + badgeStyle.Render(m.unread)
	}
	hint := hintStyle.Render("enter: open • q: quit")
	return panelStyle.Render(bubble) + "\n" + hint
}

func (m *Model) viewProfile() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(m.widgetName()) + "\n\n")
	b.WriteString("Before we start, tell us who you are:\n\n")
	b.WriteString("Name:  " + m.nameInput.View() + "\n")
	b.WriteString("Email: " + m.emailInput.View() + "\n\n")
	if m.errText != "" {
		b.WriteString(errorStyle.Render(m.errText) + "\n")
	}
	b.WriteString(hintStyle.Render("tab: switch field • enter: start chatting"))
	return panelStyle.Render(b.String())
}

func (m *Model) viewChat(confirming bool) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(m.widgetName()) + " " + statusStyle.Render(m.status) + "\n")
	b.WriteString(m.chat.View() + "\n")

	if att := m.ctrl.PendingAttachment(); att != nil {
		b.WriteString(hintStyle.Render(fmt.Sprintf("attached: %s (%d bytes) — /remove to discard", att.Name, att.Size)) + "\n")
	}
	if m.errText != "" {
		b.WriteString(errorStyle.Render(m.errText) + "\n")
	}

	if confirming {
		b.WriteString(errorStyle.Render("Close this conversation? (y/n)"))
	} else {
		b.WriteString("> " + m.input.View())
	}
	return b.String()
}

func (m *Model) viewClosed() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(m.widgetName()) + "\n\n")
	closedBy := m.closedBy
	if closedBy == "" {
		closedBy = "Support"
	}
	b.WriteString(systemStyle.Render("This conversation was closed by "+closedBy+".") + "\n\n")
	b.WriteString(hintStyle.Render("n: start new conversation • esc: minimize • q: quit"))
	return panelStyle.Render(b.String())
}

func (m *Model) widgetName() string {
	return m.ctrl.Widget().Name
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
