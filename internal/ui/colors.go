package ui

import (
	"github.com/charmbracelet/lipgloss"
)

const (
	colorAccent = "#E5484D"
	colorOK     = "#30A46C"
	colorError  = "#FF0000"
	colorWarn   = "#FFA500"
	colorMuted  = "#626262"
	colorBadge  = "#FFFFFF"
)

var styles = newPalette()

// palette holds the named [lipgloss.Style] values shared by every view.
type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	label lipgloss.Style // form field label
	focus lipgloss.Style // label of the focused field
}

func newPalette() *palette {
	return &palette{
		title: bold(colorAccent).MarginBottom(1),
		ok:    bold(colorOK),
		err:   bold(colorError),
		warn:  plain(colorWarn),
		help:  em(colorMuted),
		label: plain(colorMuted).Width(12),
		focus: bold(colorAccent).Width(12),
	}
}

// badge renders text as a short inverted tag on bg.
func badge(text, bg string) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(bg)).
		Foreground(lipgloss.Color(colorBadge)).
		Bold(true).
		Padding(0, 1).
		Render(text)
}

func plain(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func bold(fg string) lipgloss.Style {
	return plain(fg).Bold(true)
}

func em(fg string) lipgloss.Style {
	return plain(fg).Italic(true)
}
