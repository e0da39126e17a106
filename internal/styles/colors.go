package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Monokai Pro accents used in command output
const (
	Red    = "#FF6188"
	Orange = "#FC9867"
	Yellow = "#FFD866"
	Green  = "#A9DC76"
	Cyan   = "#78DCE8"

	Comment = "#727072"
)

var (
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(Green))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Red))
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(Orange))
	InfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(Cyan))
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(Comment))
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(Yellow))
)

// Success formats a "✓" status line
func Success(format string, args ...any) string {
	return SuccessStyle.Render("✓ " + fmt.Sprintf(format, args...))
}

// Failure formats a "✗" status line
func Failure(format string, args ...any) string {
	return ErrorStyle.Render("✗ " + fmt.Sprintf(format, args...))
}

// Warning formats a "!" status line
func Warning(format string, args ...any) string {
	return WarningStyle.Render("! " + fmt.Sprintf(format, args...))
}

// Dim formats secondary detail, indented under a status line
func Dim(format string, args ...any) string {
	return DimStyle.Render("  " + fmt.Sprintf(format, args...))
}
