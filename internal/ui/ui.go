// Package ui renders installer progress and the final result for a terminal.
package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/pipeline"
)

var (
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	purple = lipgloss.Color("99")
	dim    = lipgloss.Color("243")
)

// Styles shared by every message the installer prints.
var (
	AccentStyle  = lipgloss.NewStyle().Foreground(purple)
	SuccessStyle = lipgloss.NewStyle().Foreground(green)
	ErrorStyle   = lipgloss.NewStyle().Foreground(red)
	MutedStyle   = lipgloss.NewStyle().Foreground(dim)
	BoldStyle    = lipgloss.NewStyle().Bold(true)
)

// Muted renders s in the dim secondary color.
func Muted(s string) string { return MutedStyle.Render(s) }

// Bold renders s in bold.
func Bold(s string) string { return BoldStyle.Render(s) }

// SuccessMsg returns a single line with a check mark.
func SuccessMsg(format string, a ...any) string {
	return SuccessStyle.Render("✓") + " " + fmt.Sprintf(format, a...)
}

// ErrorMsg returns a single line with a cross.
func ErrorMsg(format string, a ...any) string {
	return ErrorStyle.Render("✗") + " " + fmt.Sprintf(format, a...)
}

// InfoMsg returns a single line with a bullet.
func InfoMsg(format string, a ...any) string {
	return AccentStyle.Render("●") + " " + fmt.Sprintf(format, a...)
}

// Progress prints one line per finished step. It implements
// pipeline.Observer.
type Progress struct {
	w io.Writer
}

// NewProgress writes progress lines to w.
func NewProgress(w io.Writer) *Progress {
	return &Progress{w: w}
}

// StepStarted is a no-op; lines are printed when a step finishes so
// password prompts are not interleaved with partial output.
func (p *Progress) StepStarted(pipeline.State) {}

// StepFinished prints the step's result and how long it took.
func (p *Progress) StepFinished(s pipeline.State, elapsed time.Duration, err error) {
	took := Muted(fmt.Sprintf("(%s)", elapsed.Round(time.Millisecond)))
	if err != nil {
		fmt.Fprintln(p.w, ErrorMsg("%s %s", s, took))
		return
	}
	fmt.Fprintln(p.w, SuccessMsg("%s %s", s, took))
}

// Result renders the closing message for an outcome.
func Result(out *pipeline.Outcome, productVersion string) string {
	switch {
	case out.State == pipeline.Done && out.ShortCircuit:
		return InfoMsg("docker %s is already installed", Bold(productVersion))
	case out.State == pipeline.Done:
		return SuccessMsg("successfully installed docker %s", Bold(productVersion))
	default:
		return ErrorMsg("could not install docker: %v", out.Err)
	}
}
