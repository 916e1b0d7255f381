package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Format represents the output format type
type Format string

const (
	// FormatCSV writes a header row followed by one row per record
	FormatCSV Format = "csv"
	// FormatJSON is the JSON output format
	FormatJSON Format = "json"
)

const jsonIndent = "    "

// Table is implemented by data that can be written as CSV
type Table interface {
	Header() []string
	Rows() [][]string
}

// Formatter handles different output formats
type Formatter struct {
	format Format
	writer io.Writer
}

// New creates a new Formatter with the specified format
func New(format Format) *Formatter {
	return &Formatter{
		format: format,
		writer: os.Stdout,
	}
}

// SetWriter sets a custom writer for output
func (f *Formatter) SetWriter(w io.Writer) {
	f.writer = w
}

// Output writes the data in the configured format
func (f *Formatter) Output(data interface{}) error {
	switch f.format {
	case FormatJSON:
		return f.outputJSON(data)
	case FormatCSV:
		table, ok := data.(Table)
		if !ok {
			return fmt.Errorf("csv output needs a table, got %T", data)
		}
		return f.outputCSV(table)
	default:
		return fmt.Errorf("unsupported output format: %s", f.format)
	}
}

// outputJSON marshals and outputs data as JSON
func (f *Formatter) outputJSON(data interface{}) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", jsonIndent)
	encoder.SetEscapeHTML(false)
	return encoder.Encode(data)
}

func (f *Formatter) outputCSV(table Table) error {
	w := csv.NewWriter(f.writer)
	w.UseCRLF = true
	if err := w.Write(table.Header()); err != nil {
		return err
	}
	if err := w.WriteAll(table.Rows()); err != nil {
		return err
	}
	return w.Error()
}

// IsJSON returns true if the format is JSON
func (f *Formatter) IsJSON() bool {
	return f.format == FormatJSON
}

// IsCSV returns true if the format is CSV
func (f *Formatter) IsCSV() bool {
	return f.format == FormatCSV
}

// AddFormatFlag adds the required -o/--output flag to a cobra command
func AddFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "csv or json")
}

// GetFormatFromCmd extracts the output format from a cobra command's flags
func GetFormatFromCmd(cmd *cobra.Command) (Format, error) {
	formatStr, err := cmd.Flags().GetString("output")
	if err != nil {
		return "", err
	}

	format := Format(formatStr)
	switch format {
	case FormatCSV, FormatJSON:
		return format, nil
	case "":
		return "", fmt.Errorf("missing output format (must be 'csv' or 'json')")
	default:
		return "", fmt.Errorf("invalid output format: %s (must be 'csv' or 'json')", formatStr)
	}
}
