package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeRunes(f *InputField, s string) *InputField {
	for _, r := range s {
		f, _ = f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return f
}

func TestInputField_EnterSubmitsAndClears(t *testing.T) {
	f := NewInputField()
	f = typeRunes(f, "hi there")

	f, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter with text should produce a command")
	}

	msg, ok := cmd().(InputSubmittedMsg)
	if !ok {
		t.Fatalf("command produced %T, want InputSubmittedMsg", cmd())
	}
	if msg.Text != "hi there" {
		t.Errorf("submitted text = %q", msg.Text)
	}
	if f.input.Value() != "" {
		t.Errorf("input not cleared after submit: %q", f.input.Value())
	}
}

func TestInputField_EnterOnEmptyIsNoop(t *testing.T) {
	f := NewInputField()

	_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		if _, ok := cmd().(InputSubmittedMsg); ok {
			t.Error("empty input should not submit")
		}
	}
}

func TestInputField_ViewShowsPrompt(t *testing.T) {
	f := NewInputField()
	if !strings.Contains(f.View(), ">") {
		t.Error("view missing prompt")
	}
}

func TestInputField_SetWidth(t *testing.T) {
	f := NewInputField()
	f.SetWidth(100)

	if f.width != 100 {
		t.Errorf("width = %d, want 100", f.width)
	}
	if f.input.Width != 96 {
		t.Errorf("inner width = %d, want 96", f.input.Width)
	}
}
