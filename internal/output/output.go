// Package output renders command results as styled text, tables or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Mode selects how results are printed.
type Mode int

const (
	// Human prints styled text and tables.
	Human Mode = iota
	// JSON prints indented JSON documents.
	JSON
	// Quiet prints only identifiers.
	Quiet
)

// Printer writes results to Out and diagnostics to Err.
type Printer struct {
	Out  io.Writer
	Err  io.Writer
	Mode Mode

	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	hint    lipgloss.Style
	header  lipgloss.Style
	label   lipgloss.Style
}

// New returns a printer. Styles degrade to plain text when the writers are
// not terminals.
func New(out, errOut io.Writer, mode Mode) *Printer {
	outR := lipgloss.NewRenderer(out)
	errR := lipgloss.NewRenderer(errOut)
	return &Printer{
		Out:     out,
		Err:     errOut,
		Mode:    mode,
		success: outR.NewStyle().Foreground(lipgloss.Color("42")),
		warning: errR.NewStyle().Foreground(lipgloss.Color("214")),
		failure: errR.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		hint:    errR.NewStyle().Foreground(lipgloss.Color("241")),
		header:  outR.NewStyle().Bold(true).Foreground(lipgloss.Color("62")),
		label:   outR.NewStyle().Bold(true),
	}
}

// Success prints a confirmation line to Out.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.Out, p.success.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Warning prints a warning line to Err.
func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.Err, p.warning.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// Error prints an error line and an optional suggestion to Err.
func (p *Printer) Error(msg, suggestion string) {
	fmt.Fprintln(p.Err, p.failure.Render("✗ "+msg))
	if suggestion != "" {
		fmt.Fprintln(p.Err)
		fmt.Fprintln(p.Err, p.hint.Render("  "+suggestion))
	}
}

// Line prints plain text to Out.
func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.Out, format+"\n", args...)
}

// JSON prints v as indented JSON.
func (p *Printer) JSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(p.Out, string(data))
	return err
}

// Table prints rows under headers. An empty row set prints "(no data)".
func (p *Printer) Table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(p.Out, "(no data)")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	fmt.Fprintln(p.Out, t.String())
}

// Field is one labelled value in a detail view.
type Field struct {
	Label string
	Value string
}

// Fields prints labelled values, skipping empty ones. Multi-line values are
// indented under their label.
func (p *Printer) Fields(fields []Field) {
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		if strings.Contains(f.Value, "\n") {
			fmt.Fprintf(p.Out, "%s\n", p.label.Render(f.Label+":"))
			for _, line := range strings.Split(f.Value, "\n") {
				fmt.Fprintf(p.Out, "  %s\n", line)
			}
			continue
		}
		fmt.Fprintf(p.Out, "%s %s\n", p.label.Render(f.Label+":"), f.Value)
	}
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n || n < 4 {
		return s
	}
	return string(r[:n-3]) + "..."
}
