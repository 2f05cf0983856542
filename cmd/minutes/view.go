package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// tone classifies a status row for its tag and colour.
type tone int

const (
	toneInfo tone = iota
	toneOK
	toneWarn
	toneError
)

var toneStyles = map[tone]struct {
	tag   string
	color text.Color
}{
	toneInfo:  {"INFO", text.FgBlue},
	toneOK:    {"OK", text.FgGreen},
	toneWarn:  {"WARN", text.FgYellow},
	toneError: {"ERROR", text.FgRed},
}

const labelWidth = 22

const indent = "  "

func paint(s string, c text.Color) string {
	return c.EscapeSeq() + s + text.Reset.EscapeSeq()
}

// statusRow renders "  Label:   [TAG] message", painted when color is set.
func statusRow(label string, t tone, message string, color bool) string {
	style := toneStyles[t]
	row := fmt.Sprintf("%s%-*s [%s]", indent, labelWidth, label+":", style.tag)
	if message != "" {
		row += " " + message
	}
	if color {
		row = paint(row, style.color)
	}
	return row
}

// recordTone maps a record lifecycle status to a tone.
func recordTone(status string) tone {
	switch status {
	case "completed":
		return toneOK
	case "failed":
		return toneError
	case "uploading", "transcribing", "processing":
		return toneWarn
	}
	return toneInfo
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// view writes human-readable command output.
type view struct {
	out   io.Writer
	color bool
}

func newView(out io.Writer) *view {
	return &view{out: out, color: isTerminal(out)}
}

func (v *view) println(a ...any) {
	fmt.Fprintln(v.out, a...)
}

func (v *view) heading(title string) {
	title = fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(title))
	if v.color {
		title, rule = paint(title, text.FgBlue), paint(rule, text.FgBlue)
	}
	v.println(title)
	v.println(rule)
}

// section starts a new block separated from the previous one.
func (v *view) section(title string) {
	v.println()
	v.heading(title)
}

func (v *view) status(label string, t tone, message string) {
	v.println(statusRow(label, t, message, v.color))
}

// field writes an uncoloured info row and skips blank values.
func (v *view) field(label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	v.println(statusRow(label, toneInfo, value, false))
}

func (v *view) bullets(title string, items []string) {
	if len(items) == 0 {
		return
	}
	v.section(title)
	for _, item := range items {
		fmt.Fprintf(v.out, "%s- %s\n", indent, item)
	}
}

func (v *view) table(headers []string, rows [][]string, rightAligned ...int) {
	fmt.Fprint(v.out, renderTable(headers, rows, rightAligned...))
}

// renderTable draws rows under headers; short rows are padded and the listed
// zero-based columns are right aligned.
func renderTable(headers []string, rows [][]string, rightAligned ...int) string {
	if len(headers) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(toRow(headers, len(headers)))
	for _, row := range rows {
		tw.AppendRow(toRow(row, len(headers)))
	}
	configs := make([]table.ColumnConfig, len(headers))
	for i := range configs {
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if slices.Contains(rightAligned, i) {
			configs[i].Align = text.AlignRight
		}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render() + "\n"
}

func toRow(cells []string, width int) table.Row {
	row := make(table.Row, width)
	for i := range row {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		row[i] = cell
	}
	return row
}
