package session

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ZanzyTHEbar/convo/convo/conversation"
)

// styles renders labels for a terminal; the zero value renders plain text.
type styles struct {
	enabled   bool
	user      lipgloss.Style
	assistant lipgloss.Style
	errText   lipgloss.Style
	ruleText  lipgloss.Style
}

func newStyles(enabled bool) styles {
	if !enabled {
		return styles{}
	}
	return styles{
		enabled:   true,
		user:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		errText:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		ruleText:  lipgloss.NewStyle().Faint(true),
	}
}

func (s styles) label(r conversation.Role) string {
	if !s.enabled {
		return r.Label()
	}
	if r == conversation.RoleAssistant {
		return s.assistant.Render(r.Label())
	}
	return s.user.Render(r.Label())
}

func (s styles) error(text string) string {
	if !s.enabled {
		return text
	}
	return s.errText.Render(text)
}

func (s styles) rule(text string) string {
	if !s.enabled {
		return text
	}
	return s.ruleText.Render(text)
}
