package base

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by -format.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Formatter writes command results.
type Formatter interface {
	Format(data any) error
}

// NewFormatter returns the formatter for format. Table output requires data
// to be a string, a fmt.Stringer or a *Table.
func NewFormatter(format string, w io.Writer) (Formatter, error) {
	switch format {
	case FormatJSON:
		return &jsonFormatter{w: w}, nil
	case FormatYAML:
		return &yamlFormatter{w: w}, nil
	case FormatTable, "":
		return &textFormatter{w: w}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: table, json, yaml)", format)
	}
}

type jsonFormatter struct {
	w io.Writer
}

func (f *jsonFormatter) Format(data any) error {
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

type yamlFormatter struct {
	w io.Writer
}

func (f *yamlFormatter) Format(data any) error {
	enc := yaml.NewEncoder(f.w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(data)
}

type textFormatter struct {
	w io.Writer
}

func (f *textFormatter) Format(data any) error {
	switch v := data.(type) {
	case string:
		_, err := fmt.Fprintln(f.w, v)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(f.w, v.String())
		return err
	default:
		return fmt.Errorf("table output is not supported for %T", data)
	}
}

// Table is column-aligned text output.
type Table struct {
	Header []string
	Rows   [][]string
}

// Append adds a row.
func (t *Table) Append(cols ...string) {
	t.Rows = append(t.Rows, cols)
}

func (t *Table) String() string {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	if len(t.Header) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Header, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
	return strings.TrimRight(buf.String(), "\n")
}

// Print formats data with format and writes it to the UI.
func (c *Command) Print(format string, data any) error {
	var buf bytes.Buffer
	f, err := NewFormatter(format, &buf)
	if err != nil {
		return err
	}
	if err := f.Format(data); err != nil {
		return err
	}
	c.UI.Output(strings.TrimRight(buf.String(), "\n"))
	return nil
}
