package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	stderrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	systemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Transcript displays a scrollable view of the conversation.
type Transcript struct {
	// lines contains all rendered transcript lines.
	lines []string
	// partial holds backend output not yet terminated by a newline.
	partial string
	// scrollOffset is the current scroll position (0 = top).
	scrollOffset int
	// width is the viewport width in characters.
	width int
	// height is the viewport height in lines.
	height int
	// autoScroll enables automatic scrolling to bottom on new content.
	autoScroll bool
	// maxLines caps retained lines; oldest are dropped past the cap.
	maxLines int
}

// NewTranscript creates a new Transcript with the given line cap.
func NewTranscript(maxLines int) *Transcript {
	if maxLines <= 0 {
		maxLines = 500
	}
	return &Transcript{
		lines:      make([]string, 0),
		width:      80,
		height:     20,
		autoScroll: true,
		maxLines:   maxLines,
	}
}

// AddUser appends a submitted user line.
func (t *Transcript) AddUser(text string) {
	t.appendLine(userStyle.Render("you> ") + text)
}

// AppendBot appends a chunk of backend output. Chunks are stitched across
// newline boundaries so a reply split over several pipe reads renders as
// whole lines.
func (t *Transcript) AppendBot(chunk string) {
	t.partial += chunk
	for {
		idx := strings.IndexByte(t.partial, '\n')
		if idx < 0 {
			break
		}
		line := t.partial[:idx]
		t.partial = t.partial[idx+1:]
		t.appendLine(botStyle.Render(line))
	}
	if t.autoScroll {
		t.scrollToBottom()
	}
}

// FlushPartial promotes any unterminated output to a full line, used when
// the backend goes away mid-line.
func (t *Transcript) FlushPartial() {
	if t.partial == "" {
		return
	}
	t.appendLine(botStyle.Render(t.partial))
	t.partial = ""
}

// AddStderr appends a backend stderr line.
func (t *Transcript) AddStderr(line string) {
	t.appendLine(stderrStyle.Render("[stderr] " + line))
}

// AddError appends a reportable error.
func (t *Transcript) AddError(text string) {
	t.appendLine(errorStyle.Render("error: ") + text)
}

// AddSystem appends a connection-status notice.
func (t *Transcript) AddSystem(text string) {
	t.appendLine(systemStyle.Render("* " + text))
}

// appendLine adds a rendered line, trims past the cap, and follows the tail.
func (t *Transcript) appendLine(line string) {
	t.lines = append(t.lines, line)
	if len(t.lines) > t.maxLines {
		t.lines = t.lines[len(t.lines)-t.maxLines:]
	}
	if t.autoScroll {
		t.scrollToBottom()
	}
}

// View renders the visible portion of the transcript.
func (t *Transcript) View() string {
	display := t.displayLines()
	if len(display) == 0 {
		return systemStyle.Render("* waiting for the backend...")
	}

	totalLines := len(display)
	if t.scrollOffset > totalLines-t.height {
		t.scrollOffset = max(0, totalLines-t.height)
	}

	start := t.scrollOffset
	end := min(start+t.height, totalLines)

	var sb strings.Builder
	for i := start; i < end; i++ {
		sb.WriteString(display[i])
		if i < end-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// displayLines returns the full line list including the live partial line.
func (t *Transcript) displayLines() []string {
	if t.partial == "" {
		return t.lines
	}
	return append(append([]string{}, t.lines...), botStyle.Render(t.partial))
}

// Lines returns the rendered transcript lines (for tests).
func (t *Transcript) Lines() []string {
	return t.lines
}

// ScrollUp moves the viewport up by one line and disables follow mode.
func (t *Transcript) ScrollUp() {
	if t.scrollOffset > 0 {
		t.scrollOffset--
	}
	t.autoScroll = false
}

// ScrollDown moves the viewport down by one line.
func (t *Transcript) ScrollDown() {
	maxOffset := max(0, len(t.displayLines())-t.height)
	if t.scrollOffset < maxOffset {
		t.scrollOffset++
	}
	if t.scrollOffset == maxOffset {
		t.autoScroll = true
	}
}

// ScrollPageUp moves the viewport up by one page and disables follow mode.
func (t *Transcript) ScrollPageUp() {
	t.scrollOffset -= t.height
	if t.scrollOffset < 0 {
		t.scrollOffset = 0
	}
	t.autoScroll = false
}

// ScrollPageDown moves the viewport down by one page.
func (t *Transcript) ScrollPageDown() {
	maxOffset := max(0, len(t.displayLines())-t.height)
	t.scrollOffset += t.height
	if t.scrollOffset >= maxOffset {
		t.scrollOffset = maxOffset
		t.autoScroll = true
	}
}

// SetSize updates the viewport dimensions.
func (t *Transcript) SetSize(width, height int) {
	t.width = width
	t.height = height
	if t.autoScroll {
		t.scrollToBottom()
	}
}

// scrollToBottom moves the viewport to show the last lines.
func (t *Transcript) scrollToBottom() {
	t.scrollOffset = max(0, len(t.displayLines())-t.height)
}
