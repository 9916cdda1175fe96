package cmterm

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Size is a terminal extent in character cells.
type Size struct {
	Rows    int
	Columns int
}

// Frame is one fully rendered terminal screen plus cursor placement, ready
// for a Device to paint. Positions are 1-based.
type Frame struct {
	Content       string
	CursorVisible bool
	CursorRow     int
	CursorCol     int
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	promptStyle = lipgloss.NewStyle().Bold(true)
	fillerStyle = lipgloss.NewStyle().Faint(true)
)

// fitString fits s into exactly width cells, truncating with an ellipsis or
// padding with fill. Widths are measured ANSI-aware so styled text lines up.
func fitString(s string, width int, fill rune) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(s) > width {
		s = ansi.Truncate(s, width, "...")
	}
	if pad := width - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(string(fill), pad)
	}
	return s
}

// repeatRune is strings.Repeat guarded against tiny terminals.
func repeatRune(ch rune, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(string(ch), n)
}

// logWidths partitions columns evenly across count panes, remainder columns
// going to the leftmost panes.
func logWidths(count, columns int) []int {
	widths := make([]int, count)
	equal := columns / count
	remainder := columns % count
	for i := range widths {
		widths[i] = equal
		if remainder > 0 {
			widths[i]++
			remainder--
		}
	}
	return widths
}

// Compose renders a frame from a snapshot of the given logs and the active
// input endpoint. It is a pure composition step: no terminal I/O, no
// blocking beyond the snapshot locks. The log set must be non-empty.
func Compose(size Size, logs []*Log, input *Input) Frame {
	if len(logs) == 0 {
		panic("cmterm: compose requires at least one log")
	}

	widths := logWidths(len(logs), size.Columns)
	contentRows := size.Rows - 5
	if contentRows < 0 {
		contentRows = 0
	}
	if contentRows > logCapacity {
		contentRows = logCapacity
	}

	var sb strings.Builder

	for i, log := range logs {
		title := titleStyle.Render(fmt.Sprintf(" %s Log ", log.Name()))
		sb.WriteString("╭" + fitString(title, widths[i]-3, '─') + "─╮")
	}
	sb.WriteString("\r\n")

	panes := make([][]string, len(logs))
	for i, log := range logs {
		recent := log.snapshot(contentRows)
		pane := make([]string, contentRows)
		for row := 0; row < contentRows; row++ {
			// Most-recent-first window flipped so the newest line sits at
			// the bottom of the pane and blanks float to the top.
			line := recent[contentRows-1-row]
			pane[row] = "│ " + fitString(line, widths[i]-4, ' ') + " │"
		}
		panes[i] = pane
	}
	for row := 0; row < contentRows; row++ {
		for i := range logs {
			sb.WriteString(panes[i][row])
		}
		sb.WriteString("\r\n")
	}

	for i := range logs {
		sb.WriteString("╰" + repeatRune('─', widths[i]-2) + "╯")
	}
	sb.WriteString("\r\n")

	snap := input.Snapshot()
	sb.WriteString(inputBox(snap, size.Columns))

	frame := Frame{Content: sb.String()}
	if snap.Requesting {
		frame.CursorVisible = true
		frame.CursorRow = size.Rows - 1
		frame.CursorCol = ansi.StringWidth(snap.Prompt) + snap.Pos + 3
	}
	return frame
}

// inputBox draws the full-width input box: requester identity in the title
// and "{prompt}{buffer}" while a request is active, a dimmed filler when
// idle.
func inputBox(snap InputSnapshot, columns int) string {
	title := " Input "
	if snap.Requesting {
		title = fmt.Sprintf(" Input (%s) ", snap.Requester)
	}

	header := "╭" + fitString(titleStyle.Render(title), columns-3, '─') + "─╮"

	var content string
	if snap.Requesting {
		body := promptStyle.Render(snap.Prompt) + snap.Buffer
		content = "│ " + fitString(body, columns-4, ' ') + " │"
	} else {
		content = "│ " + fillerStyle.Render(fitString("", columns-4, '/')) + " │"
	}

	footer := "╰" + repeatRune('─', columns-2) + "╯"

	return header + "\r\n" + content + "\r\n" + footer
}
