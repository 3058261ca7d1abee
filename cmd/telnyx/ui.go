package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// ui writes status lines. They go to stderr so stdout carries only command output.
type ui struct {
	w io.Writer

	success lipgloss.Style
	info    lipgloss.Style
	warn    lipgloss.Style
	dryRun  lipgloss.Style
}

func newUI(w io.Writer) *ui {
	r := lipgloss.NewRenderer(w)
	return &ui{
		w:       w,
		success: r.NewStyle().Foreground(lipgloss.Color("2")),
		info:    r.NewStyle().Foreground(lipgloss.Color("6")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("3")),
		dryRun:  r.NewStyle().Foreground(lipgloss.Color("5")),
	}
}

func (u *ui) line(style lipgloss.Style, marker, format string, args ...any) {
	_, _ = fmt.Fprintln(u.w, style.Render(marker)+" "+fmt.Sprintf(format, args...))
}

func (u *ui) Success(format string, args ...any) {
	u.line(u.success, "✓", format, args...)
}

func (u *ui) Info(format string, args ...any) {
	u.line(u.info, "ℹ", format, args...)
}

func (u *ui) Warn(format string, args ...any) {
	u.line(u.warn, "⚠", format, args...)
}

func (u *ui) DryRun(format string, args ...any) {
	u.line(u.dryRun, "[DRY RUN]", format, args...)
}

// Plain writes an unmarked status line.
func (u *ui) Plain(format string, args ...any) {
	_, _ = fmt.Fprintf(u.w, format+"\n", args...)
}
