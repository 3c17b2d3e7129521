// Package export renders entity listings as text tables or CSV and writes
// them to files.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/danieljhkim/workbench/internal/fsops"
)

// Format selects the rendering of a listing.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
)

// ErrUnknownFormat indicates an unsupported format name.
var ErrUnknownFormat = errors.New("unknown format")

// ParseFormat parses a format name. An empty name selects FormatTable.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q (expected table or csv)", ErrUnknownFormat, s)
}

// Extension returns the file extension used for downloads in format f.
func (f Format) Extension() string {
	if f == FormatCSV {
		return ".csv"
	}
	return ".txt"
}

// Listing is an ordered sequence of rows under a header.
type Listing struct {
	Headers []string
	Rows    [][]string
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Render writes l to w in format f. Row order is preserved.
func Render(w io.Writer, f Format, l Listing) error {
	switch f {
	case FormatTable:
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers(l.Headers...).
			Rows(l.Rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		_, err := fmt.Fprintln(w, t.Render())
		return err

	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(l.Headers); err != nil {
			return err
		}
		if err := cw.WriteAll(l.Rows); err != nil {
			return err
		}
		return cw.Error()
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// DefaultFilename returns the download name for prefix at time now, for
// example session_ls_20240102-150405.csv.
func DefaultFilename(prefix string, f Format, now time.Time) string {
	return prefix + "_" + now.Format("20060102-150405") + f.Extension()
}

// Download renders l in format f and writes it atomically to path. An empty
// path selects DefaultFilename(prefix, f, now) inside dir. It returns the
// path written.
func Download(fs fsops.FS, dir, path, prefix string, f Format, l Listing, now time.Time) (string, error) {
	if path == "" {
		path = filepath.Join(dir, DefaultFilename(prefix, f, now))
	}

	var buf bytes.Buffer
	if err := Render(&buf, f, l); err != nil {
		return "", err
	}
	if parent := filepath.Dir(path); parent != "" {
		if err := fs.MkdirAll(parent, 0755); err != nil {
			return "", fmt.Errorf("failed to create download directory: %w", err)
		}
	}
	if err := fs.AtomicWrite(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
