// Package ui renders registry contents and resolutions for terminals.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"modresolve/internal/registry"
)

// Palette styles terminal output. The zero value renders plain text.
type Palette struct {
	Color bool
}

func (p Palette) render(style lipgloss.Style, s string) string {
	if !p.Color {
		return s
	}
	return style.Render(s)
}

// Title renders a section heading.
func (p Palette) Title(s string) string {
	return p.render(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")), s)
}

// Found renders a resolved path.
func (p Palette) Found(s string) string {
	return p.render(lipgloss.NewStyle().Foreground(lipgloss.Color("2")), s)
}

// Missing renders a request that fell back unchanged.
func (p Palette) Missing(s string) string {
	return p.render(lipgloss.NewStyle().Foreground(lipgloss.Color("3")), s)
}

// Dim renders secondary details.
func (p Palette) Dim(s string) string {
	return p.render(lipgloss.NewStyle().Faint(true), s)
}

// TableOptions configures RenderSnapshot.
type TableOptions struct {
	Palette
	// Width caps each line; 0 leaves lines untruncated.
	Width int
}

// RenderSnapshot writes files, directory entries and core modules as
// aligned two-column tables.
func RenderSnapshot(w io.Writer, snap registry.Snapshot, opts TableOptions) error {
	var b strings.Builder

	b.WriteString(opts.Title(fmt.Sprintf("files (%d)", len(snap.Files))))
	b.WriteByte('\n')
	for _, f := range snap.Files {
		b.WriteString("  ")
		b.WriteString(truncate(f, opts.Width-2))
		b.WriteByte('\n')
	}

	writeEntries(&b, "directories", snap.Directories, opts)
	writeEntries(&b, "core", snap.Core, opts)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeEntries(b *strings.Builder, title string, entries []registry.Entry, opts TableOptions) {
	b.WriteByte('\n')
	b.WriteString(opts.Title(fmt.Sprintf("%s (%d)", title, len(entries))))
	b.WriteByte('\n')

	idWidth := 0
	for _, e := range entries {
		idWidth = max(idWidth, runewidth.StringWidth(e.ID))
	}
	if opts.Width > 0 {
		idWidth = min(idWidth, max(opts.Width/2, 8))
	}
	for _, e := range entries {
		id := runewidth.FillRight(truncate(e.ID, idWidth), idWidth)
		line := "  " + id + "  -> "
		rest := 0
		if opts.Width > 0 {
			rest = max(opts.Width-runewidth.StringWidth(line), 4)
		}
		b.WriteString(line)
		b.WriteString(opts.Dim(truncate(e.Path, rest)))
		b.WriteByte('\n')
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
