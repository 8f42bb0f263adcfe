// Package tui provides the terminal user interface for chat-juicer.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nickpeterson92/chat-juicer/internal/bridge"
)

// Connection states shown in the status line.
const (
	connRunning      = "running"
	connDisconnected = "disconnected"
	connRestarting   = "restarting"
)

// ChatApp is the main model for the chat view. It consumes bridge messages
// and delegates user intent to the registered handlers; it never touches the
// backend process directly.
type ChatApp struct {
	transcript *Transcript
	inputField *InputField
	width      int
	height     int
	quitting   bool

	connState string
	pid       int

	// onSubmit is called when the user submits a chat line.
	onSubmit func(text string)
	// onRestart is called when the user requests a backend restart.
	onRestart func()
}

// NewChatApp creates a new ChatApp with the given transcript line cap.
func NewChatApp(transcriptLimit int) *ChatApp {
	return &ChatApp{
		transcript: NewTranscript(transcriptLimit),
		inputField: NewInputField(),
		connState:  connDisconnected,
	}
}

// NewChatProgram creates the bubbletea program wrapping a new ChatApp.
func NewChatProgram(transcriptLimit int) (*tea.Program, *ChatApp) {
	app := NewChatApp(transcriptLimit)
	program := tea.NewProgram(app, tea.WithAltScreen())
	return program, app
}

// SetSubmitHandler sets the callback for submitted chat lines.
func (a *ChatApp) SetSubmitHandler(handler func(text string)) {
	a.onSubmit = handler
}

// SetRestartHandler sets the callback for restart requests.
func (a *ChatApp) SetRestartHandler(handler func()) {
	a.onRestart = handler
}

// Init implements tea.Model.
func (a *ChatApp) Init() tea.Cmd {
	return a.inputField.Focus()
}

// Update implements tea.Model.
func (a *ChatApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			a.quitting = true
			return a, tea.Quit

		case "ctrl+r":
			a.requestRestart()
			return a, nil

		case "pgup":
			a.transcript.ScrollPageUp()
			return a, nil
		case "pgdown":
			a.transcript.ScrollPageDown()
			return a, nil
		case "up":
			a.transcript.ScrollUp()
			return a, nil
		case "down":
			a.transcript.ScrollDown()
			return a, nil
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.inputField.SetWidth(msg.Width)
		// Status line, input box, and padding eat four rows.
		a.transcript.SetSize(msg.Width, max(1, msg.Height-4))
		return a, nil

	case InputSubmittedMsg:
		return a, a.handleSubmit(msg.Text)

	case bridge.BotOutputMsg:
		a.transcript.AppendBot(msg.Text)
		return a, nil

	case bridge.BotStderrMsg:
		a.transcript.AddStderr(msg.Line)
		return a, nil

	case bridge.BotErrorMsg:
		a.transcript.AddError(msg.Message)
		return a, nil

	case bridge.BotDisconnectedMsg:
		a.connState = connDisconnected
		a.pid = 0
		a.transcript.FlushPartial()
		a.transcript.AddSystem(fmt.Sprintf("backend disconnected (exit code %d), ctrl+r to restart", msg.ExitCode))
		return a, nil

	case bridge.BotRestartedMsg:
		a.connState = connRunning
		a.pid = msg.PID
		a.transcript.AddSystem(fmt.Sprintf("backend restarted (pid %d)", msg.PID))
		return a, nil
	}

	var cmd tea.Cmd
	a.inputField, cmd = a.inputField.Update(msg)
	return a, cmd
}

// handleSubmit routes slash commands and forwards chat lines.
func (a *ChatApp) handleSubmit(text string) tea.Cmd {
	switch strings.TrimSpace(text) {
	case "/quit":
		a.quitting = true
		return tea.Quit
	case "/restart":
		a.requestRestart()
		return nil
	}

	a.transcript.AddUser(text)
	if a.onSubmit != nil {
		a.onSubmit(text)
	}
	return nil
}

func (a *ChatApp) requestRestart() {
	a.connState = connRestarting
	a.transcript.AddSystem("restarting backend...")
	if a.onRestart != nil {
		a.onRestart()
	}
}

// MarkRunning records the initial connection state before the first event
// arrives.
func (a *ChatApp) MarkRunning(pid int) {
	a.connState = connRunning
	a.pid = pid
}

// View implements tea.Model.
func (a *ChatApp) View() string {
	if a.quitting {
		return "Bye!\n"
	}

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("236")).
		Padding(0, 1).
		Width(max(0, a.width))

	status := "chat-juicer | backend " + a.connState
	if a.pid != 0 {
		status += fmt.Sprintf(" (pid %d)", a.pid)
	}

	return statusStyle.Render(status) + "\n" +
		a.transcript.View() + "\n" +
		a.inputField.View()
}
