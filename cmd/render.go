package cmd

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
)

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	activityStyle  = lipgloss.NewStyle().Faint(true).Italic(true)
	toolStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	writeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	infoStyle      = lipgloss.NewStyle().Faint(true)
)

func renderMessage(m contractx.DisplayMessage) string {
	text := strings.TrimSpace(m.Content)
	switch {
	case m.Error:
		return errorStyle.Render("! " + text)
	case m.Continuation, m.ToolActivity:
		return activityStyle.Render("… " + text)
	case m.Role == contractx.RoleTool && m.Write:
		return writeStyle.Render("✓ " + text)
	case m.Role == contractx.RoleTool:
		return toolStyle.Render("· " + text)
	case m.Role == contractx.RoleUser:
		return userStyle.Render("you: ") + text
	default:
		return assistantStyle.Render(text)
	}
}

func renderInfo(text string) string {
	return infoStyle.Render(text)
}

func renderError(text string) string {
	return errorStyle.Render("! " + text)
}
