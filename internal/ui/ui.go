package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Renderer is bound to stderr so colors work even when stdout is piped.
var Renderer = lipgloss.NewRenderer(os.Stderr)

var (
	Muted   = Renderer.NewStyle().Foreground(lipgloss.Color("245"))
	Accent  = Renderer.NewStyle().Foreground(lipgloss.Color("39"))
	Heading = Renderer.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	Success = Renderer.NewStyle().Foreground(lipgloss.Color("42"))
	Warning = Renderer.NewStyle().Foreground(lipgloss.Color("214"))
	Danger  = Renderer.NewStyle().Foreground(lipgloss.Color("196"))
	Prompt  = Renderer.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
)

// Bullet renders a "● msg" status line in the given style.
func Bullet(style lipgloss.Style, msg string) string {
	return style.Render("●") + " " + msg
}
