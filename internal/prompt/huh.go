package prompt

import (
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/thinkingscript/tidy/internal/dispose"
)

// Huh prompts with interactive huh forms on a terminal.
type Huh struct {
	Input  io.Reader
	Output io.Writer
}

func theme() *huh.Theme {
	t := huh.ThemeBase()
	t.Focused.Base = lipgloss.NewStyle().PaddingTop(1).PaddingLeft(2)
	t.Focused.SelectSelector = lipgloss.NewStyle().SetString("❯ ")
	t.Blurred.Base = lipgloss.NewStyle().PaddingTop(1).PaddingLeft(2)
	t.Blurred.SelectSelector = lipgloss.NewStyle().SetString("  ")
	return t
}

func (h *Huh) run(fields ...huh.Field) error {
	out := h.Output
	if out == nil {
		out = os.Stderr
	}
	form := huh.NewForm(huh.NewGroup(fields...)).WithTheme(theme()).WithOutput(out)
	if h.Input != nil {
		form = form.WithInput(h.Input)
	}
	if err := form.Run(); err != nil {
		return ErrInterrupted
	}
	return nil
}

func (h *Huh) ChooseAction() (dispose.Action, error) {
	choice := dispose.Cancel
	err := h.run(
		huh.NewSelect[dispose.Action]().
			Title("How would you like to proceed?").
			Options(
				huh.NewOption("Move to Trash/Recycle Bin (safer)", dispose.MoveToTrash),
				huh.NewOption("Delete permanently", dispose.DeletePermanent),
				huh.NewOption("Cancel operation", dispose.Cancel),
			).
			Value(&choice),
	)
	if err != nil {
		return dispose.Cancel, err
	}
	return choice, nil
}

func (h *Huh) ConfirmToken(msg string) (string, error) {
	var token string
	err := h.run(huh.NewInput().Title(msg).Value(&token))
	return token, err
}

func (h *Huh) Confirm(msg string) (bool, error) {
	var ok bool
	err := h.run(
		huh.NewConfirm().
			Title(msg).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	)
	return ok, err
}
