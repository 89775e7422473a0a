// package formatter provides functions to export reconciliation reports to various formats (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/shared"
)

// Format selects an export encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// Formats lists the accepted --format values.
var Formats = []Format{FormatText, FormatCSV, FormatMarkdown, FormatJSON}

// ParseFormat maps a flag value to a [Format]. Empty selects text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
	}
}

// Extension is the file extension written for f.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

// ReportExport is the exportable view of one reconciliation
type ReportExport struct {
	Source        string
	GeneratedAt   time.Time
	RemoteItems   int
	Discrepancies *models.DiscrepancyReport
	Skips         []models.ExtractionSkip
}

func (e *ReportExport) report() *models.DiscrepancyReport {
	if e.Discrepancies == nil {
		return &models.DiscrepancyReport{MissingMovies: []models.MissingItem{}, MissingShows: []models.MissingItem{}}
	}
	return e.Discrepancies
}

// ExportToJSON encodes the discrepancy report as {"missing_movies": [...], "missing_shows": [...]}
func ExportToJSON(export *ReportExport) ([]byte, error) {
	data, err := shared.MarshalJSON(export.report(), true)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV converts a report to CSV format with columns: Kind, TMDB ID, Letterboxd URL
func ExportToCSV(export *ReportExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Kind", "TMDB ID", "Letterboxd URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	report := export.report()
	write := func(kind models.MediaKind, items []models.MissingItem) error {
		for _, item := range items {
			if err := writer.Write([]string{string(kind), item.ID, item.Provenance}); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	}
	if err := write(models.KindMovie, report.MissingMovies); err != nil {
		return nil, err
	}
	if err := write(models.KindShow, report.MissingShows); err != nil {
		return nil, err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a report to Markdown with one section per kind
func ExportToMarkdown(export *ReportExport) ([]byte, error) {
	var buf bytes.Buffer
	report := export.report()

	buf.WriteString("# Reconciliation Report\n\n")
	if export.Source != "" {
		fmt.Fprintf(&buf, "**Source**: %s\n", export.Source)
	}
	if !export.GeneratedAt.IsZero() {
		fmt.Fprintf(&buf, "**Generated**: %s\n", export.GeneratedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&buf, "**Remote items**: %d\n\n", export.RemoteItems)

	section := func(title string, items []models.MissingItem) {
		fmt.Fprintf(&buf, "## %s (%d)\n\n", title, len(items))
		if len(items) == 0 {
			buf.WriteString("None.\n\n")
			return
		}
		for i, item := range items {
			if item.Provenance != "" {
				fmt.Fprintf(&buf, "%d. [%s](%s)\n", i+1, item.ID, item.Provenance)
			} else {
				fmt.Fprintf(&buf, "%d. %s\n", i+1, item.ID)
			}
		}
		buf.WriteString("\n")
	}
	section("Missing Movies", report.MissingMovies)
	section("Missing Shows", report.MissingShows)

	if len(export.Skips) > 0 {
		fmt.Fprintf(&buf, "## Skipped Remote Items (%d)\n\n", len(export.Skips))
		for _, skip := range export.Skips {
			fmt.Fprintf(&buf, "- %s #%d %s: %s\n", skip.Kind, skip.Position, skipTitle(skip), skip.Reason)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a report to plain text format
func ExportToText(export *ReportExport) ([]byte, error) {
	var buf bytes.Buffer
	report := export.report()

	if report.Empty() {
		fmt.Fprintf(&buf, "Everything is present in the remote history (%d %s checked).\n", export.RemoteItems, shared.Pluralize(export.RemoteItems, "remote item"))
	} else {
		fmt.Fprintf(&buf, "Missing movies: %d\n", len(report.MissingMovies))
		for _, item := range report.MissingMovies {
			buf.WriteString(textLine(item))
		}
		fmt.Fprintf(&buf, "Missing shows: %d\n", len(report.MissingShows))
		for _, item := range report.MissingShows {
			buf.WriteString(textLine(item))
		}
	}

	if len(export.Skips) > 0 {
		fmt.Fprintf(&buf, "\nSkipped remote items: %d\n", len(export.Skips))
		for _, skip := range export.Skips {
			fmt.Fprintf(&buf, "  %s #%d %s: %s\n", skip.Kind, skip.Position, skipTitle(skip), skip.Reason)
		}
	}

	return buf.Bytes(), nil
}

func textLine(item models.MissingItem) string {
	if item.Provenance == "" {
		return fmt.Sprintf("  %s\n", item.ID)
	}
	return fmt.Sprintf("  %s  %s\n", item.ID, item.Provenance)
}

func skipTitle(skip models.ExtractionSkip) string {
	if skip.Title == "" {
		return "(untitled)"
	}
	return strconv.Quote(skip.Title)
}

// Export renders a report in the given format
func Export(export *ReportExport, format Format) ([]byte, error) {
	switch format {
	case FormatText, "":
		return ExportToText(export)
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	case FormatJSON:
		return ExportToJSON(export)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// WriteExport renders a report and writes it to path, or to w when path is empty or "-".
//
// Returns the path written, or "" when the report went to w.
func WriteExport(export *ReportExport, format Format, path string, w io.Writer) (string, error) {
	data, err := Export(export, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s report: %w", format, err)
	}

	if path == "" || path == "-" {
		if _, err := w.Write(data); err != nil {
			return "", fmt.Errorf("failed to write report: %w", err)
		}
		return "", nil
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}
