package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/riff/internal/auth"
)

var styles = NewPalette("#1DB954", "#04B575", "#E22134", "#FFA500", "#626262")

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	info  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		info:  NewStyle(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// Notice renders a login notice with a level marker.
func (p *Palette) Notice(n auth.Notice) string {
	switch n.Level {
	case auth.LevelSuccess:
		return p.ok.Render("✓ " + n.Message)
	case auth.LevelError:
		return p.err.Render("✗ " + n.Message)
	default:
		return p.info.Render("→ " + n.Message)
	}
}

// RenderNotice renders n with the default palette.
func RenderNotice(n auth.Notice) string {
	return styles.Notice(n)
}
