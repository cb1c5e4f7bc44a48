// Package output renders CLI results as text, tables or JSON.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Format represents the output format type
type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatText  Format = "text"
)

// ParseFormat maps a flag value to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch Format(strings.ToLower(s)) {
	case FormatJSON:
		return FormatJSON
	case FormatTable:
		return FormatTable
	default:
		return FormatText
	}
}

// ValidateFormat checks if format is valid
func ValidateFormat(format string) bool {
	return format == "json" || format == "table" || format == "text"
}

// Printer writes results in one format.
type Printer struct {
	w      io.Writer
	format Format
}

// New returns a printer writing to w. Pass color.Output for a terminal.
func New(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

// Format is the printer's output format.
func (p *Printer) Format() Format {
	return p.format
}

// Record prints a single object.
func (p *Printer) Record(title string, record map[string]any) error {
	switch p.format {
	case FormatJSON:
		return p.json(record)
	case FormatTable:
		rows := make([][]string, 0, len(record))
		for _, k := range sortedKeys(record) {
			rows = append(rows, []string{k, fmt.Sprint(record[k])})
		}
		p.table([]string{"FIELD", "VALUE"}, rows)
		return nil
	default:
		if title != "" {
			fmt.Fprintf(p.w, "%s:\n", title)
		}
		bold := color.New(color.Bold)
		for _, k := range sortedKeys(record) {
			bold.Fprint(p.w, k+": ")
			fmt.Fprintf(p.w, "%v\n", record[k])
		}
		return nil
	}
}

// List prints rows of objects. columns picks and orders the fields shown
// in text and table output; JSON output keeps every field.
func (p *Printer) List(title string, items []map[string]any, columns []string) error {
	if p.format == FormatJSON {
		return p.json(items)
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		row := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := item[col]; ok && v != nil {
				row[i] = fmt.Sprint(v)
			}
		}
		rows = append(rows, row)
	}

	if p.format == FormatText && title != "" {
		color.New(color.Bold).Fprintf(p.w, "%s (%d)\n", title, len(items))
	}
	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = strings.ToUpper(col)
	}
	p.table(headers, rows)
	return nil
}

// Value prints any JSON-able value.
func (p *Printer) Value(v any) error {
	return p.json(v)
}

// Success prints a success message
func (p *Printer) Success(msg string, args ...any) {
	color.New(color.FgGreen).Fprintf(p.w, msg+"\n", args...)
}

// Error prints an error message
func (p *Printer) Error(msg string, args ...any) {
	color.New(color.FgRed).Fprintf(p.w, "Error: "+msg+"\n", args...)
}

// Info prints an info message
func (p *Printer) Info(msg string, args ...any) {
	color.New(color.FgCyan).Fprintf(p.w, msg+"\n", args...)
}

// Warning prints a warning message
func (p *Printer) Warning(msg string, args ...any) {
	color.New(color.FgYellow).Fprintf(p.w, "Warning: "+msg+"\n", args...)
}

func (p *Printer) json(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.w, string(data))
	return err
}

func (p *Printer) table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
