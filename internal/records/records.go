package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/shared"
)

const (
	ColumnTMDBID        = "TMDB ID"
	ColumnType          = "Type"
	ColumnLetterboxdURL = "Letterboxd URL"
	ColumnRating        = "Rating"
)

const (
	MinRating = 1
	MaxRating = 10
)

// Row is one data row of an export keyed by header name.
type Row struct {
	Line   int
	Values map[string]string
}

// Get returns the trimmed value of column, or "" when absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Values[column])
}

// RowSkip describes a row, or the rating of a row, that was dropped.
type RowSkip struct {
	Line   int
	Value  string
	Reason string
}

func (s RowSkip) String() string {
	return fmt.Sprintf("line %d: %s (%q)", s.Line, s.Reason, s.Value)
}

// ParseResult is the typed content of an export.
type ParseResult struct {
	Movies     []models.MediaIntent
	Shows      []models.MediaIntent
	Provenance map[int]string // TMDB ID to Letterboxd URL of the first row seen
	Ratings    map[int]int    // TMDB ID to rating, movies only
	Skipped    []RowSkip
	Ignored    int // rows of a type other than movie or show
}

// Intents returns movies followed by shows.
func (p *ParseResult) Intents() []models.MediaIntent {
	all := make([]models.MediaIntent, 0, len(p.Movies)+len(p.Shows))
	all = append(all, p.Movies...)
	return append(all, p.Shows...)
}

// Len is the number of intents.
func (p *ParseResult) Len() int {
	return len(p.Movies) + len(p.Shows)
}

// Parse converts rows into intents.
func Parse(rows []Row) *ParseResult {
	result := &ParseResult{
		Movies:     []models.MediaIntent{},
		Shows:      []models.MediaIntent{},
		Provenance: make(map[int]string),
		Ratings:    make(map[int]int),
	}
	seen := map[models.MediaKind]map[int]struct{}{
		models.KindMovie: {},
		models.KindShow:  {},
	}

	for _, row := range rows {
		kind, ok := models.ParseMediaKind(row.Get(ColumnType))
		if !ok {
			result.Ignored++
			continue
		}

		raw := row.Get(ColumnTMDBID)
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			result.Skipped = append(result.Skipped, RowSkip{Line: row.Line, Value: raw, Reason: "invalid TMDB ID"})
			continue
		}

		if _, dup := seen[kind][id]; dup {
			result.Skipped = append(result.Skipped, RowSkip{Line: row.Line, Value: raw, Reason: "duplicate " + string(kind)})
			continue
		}
		seen[kind][id] = struct{}{}

		ref := row.Get(ColumnLetterboxdURL)
		if _, ok := result.Provenance[id]; !ok {
			result.Provenance[id] = ref
		}

		switch kind {
		case models.KindMovie:
			var rating *int
			if value := row.Get(ColumnRating); value != "" {
				if r, err := ParseRating(value); err != nil {
					result.Skipped = append(result.Skipped, RowSkip{Line: row.Line, Value: value, Reason: err.Error()})
				} else {
					rating = &r
					result.Ratings[id] = r
				}
			}
			result.Movies = append(result.Movies, models.MovieIntent(id, rating, ref))
		case models.KindShow:
			result.Shows = append(result.Shows, models.ShowIntent(id, ref))
		}
	}

	return result
}

// ParseRating coerces a rating cell to an integer in [MinRating, MaxRating].
//
// Decimal cells such as "8.0" are accepted; the fraction is truncated before the range check.
func ParseRating(value string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: rating is not a number", shared.ErrInvalidInput)
	}
	r := int(math.Trunc(f))
	if r < MinRating || r > MaxRating {
		return 0, fmt.Errorf("%w: rating %d out of range %d-%d", shared.ErrInvalidInput, r, MinRating, MaxRating)
	}
	return r, nil
}

// Read parses CSV with a header row from r into rows.
func Read(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: export is empty", shared.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		columns[i] = strings.TrimSpace(name)
	}
	if err := requireColumns(columns, ColumnTMDBID, ColumnType); err != nil {
		return nil, err
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		line, _ := reader.FieldPos(0)
		values := make(map[string]string, len(columns))
		for i, value := range record {
			if i < len(columns) {
				values[columns[i]] = value
			}
		}
		rows = append(rows, Row{Line: line, Values: values})
	}

	return rows, nil
}

// ReadFile reads and parses the export at path.
func ReadFile(path string) (*ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Parse(rows), nil
}

func requireColumns(columns []string, required ...string) error {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	var missing []string
	for _, r := range required {
		if !present[r] {
			missing = append(missing, strconv.Quote(r))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing column %s", shared.ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}
