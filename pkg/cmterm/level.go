package cmterm

import "github.com/charmbracelet/lipgloss"

// Level classifies a log line. The set is closed and exhaustive; styling is
// table-driven rather than attached to callers.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
	LevelSuccess
)

// levelStyle pairs the fixed-width line prefix with the styles applied to the
// prefix itself and to the message body. All prefixes render eight cells wide
// so continuation lines can be padded uniformly.
type levelStyle struct {
	prefix      string
	prefixStyle lipgloss.Style
	bodyStyle   lipgloss.Style
}

var levelStyles = [...]levelStyle{
	LevelInfo: {
		prefix:      "   INFO:",
		prefixStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("15")),
		bodyStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	},
	LevelWarn: {
		prefix:      "   WARN:",
		prefixStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")),
		bodyStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	},
	LevelError: {
		prefix:      "  ERROR:",
		prefixStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9")),
		bodyStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	},
	LevelSuccess: {
		prefix:      "SUCCESS:",
		prefixStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")),
		bodyStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	},
}

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelSuccess:
		return "success"
	}
	return "unknown"
}

// style returns the styling entry for l, defaulting to info for out-of-range
// values so a bad level can never take the dashboard down.
func (l Level) style() levelStyle {
	if l < LevelInfo || l > LevelSuccess {
		return levelStyles[LevelInfo]
	}
	return levelStyles[l]
}
