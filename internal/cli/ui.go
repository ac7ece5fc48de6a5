package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorCyan  = lipgloss.Color("36")  // headings
	colorGreen = lipgloss.Color("35")  // usable, selected
	colorRed   = lipgloss.Color("167") // unusable
	colorDim   = lipgloss.Color("240") // secondary text
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleKey     = lipgloss.NewStyle().Foreground(colorDim)
	styleGood    = lipgloss.NewStyle().Foreground(colorGreen)
	styleBad     = lipgloss.NewStyle().Foreground(colorRed)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleDefault = lipgloss.NewStyle().Bold(true)
)

const (
	iconGood = "✓"
	iconBad  = "✗"
	iconItem = "›"
)

func printTitle(w io.Writer, title string) {
	fmt.Fprintln(w, styleTitle.Render(title))
}

// printRows prints aligned key/value pairs indented under a title.
func printRows(w io.Writer, rows [][2]string) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	for _, r := range rows {
		key := r[0] + strings.Repeat(" ", width-len(r[0]))
		fmt.Fprintf(w, "  %s  %s\n", styleKey.Render(key), r[1])
	}
}

func printItem(w io.Writer, text string) {
	fmt.Fprintf(w, "  %s %s\n", styleDim.Render(iconItem), text)
}

func status(ok bool, msg string) string {
	if ok {
		return styleGood.Render(iconGood + " " + msg)
	}
	return styleBad.Render(iconBad + " " + msg)
}
