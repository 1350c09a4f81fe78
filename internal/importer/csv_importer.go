package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"networkbrain/internal/profiles"
)

// ProfileStore is the slice of the profile service the importer needs.
type ProfileStore interface {
	Create(ctx context.Context, input profiles.CreateProfileInput) (profiles.Profile, error)
	List(ctx context.Context, opts profiles.ListOptions) ([]profiles.Profile, error)
}

// Summary reports the outcome of one CSV import.
type Summary struct {
	TotalRows         int             `json:"totalRows"`
	Imported          int             `json:"imported"`
	SkippedDuplicates []SkippedRecord `json:"skippedDuplicates"`
	Failed            []FailedRecord  `json:"failed"`
	TruncatedRecords  bool            `json:"truncatedRecords,omitempty"`
}

// SkippedRecord describes a row skipped because it duplicates an existing
// profile or an earlier row.
type SkippedRecord struct {
	Row    int    `json:"row"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Reason string `json:"reason"`
}

// FailedRecord describes a row that could not be imported.
type FailedRecord struct {
	Row   int    `json:"row"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Error string `json:"error"`
}

var ErrInvalidCSV = errors.New("invalid csv upload")

// MaxImportRows limits the number of data rows processed per CSV import to
// prevent excessive memory usage and long-running requests.
const MaxImportRows = 1000

// MaxFailedRecords caps the number of failed/skipped records stored in the
// summary to avoid unbounded memory growth from malformed uploads.
const MaxFailedRecords = 100

var requiredColumns = []string{
	"fullname",
	"email",
}

// columnAliases maps common export header spellings onto canonical columns.
var columnAliases = map[string]string{
	"name":         "fullname",
	"full_name":    "fullname",
	"linkedin":     "linkedinurl",
	"linkedin_url": "linkedinurl",
	"how_met":      "howmet",
}

// CSVImporter ingests profiles from a CSV upload row by row; a bad row is
// reported in the summary without aborting the batch.
type CSVImporter struct {
	profiles ProfileStore
}

// NewCSVImporter wires an importer over the profile store.
func NewCSVImporter(store ProfileStore) *CSVImporter {
	return &CSVImporter{profiles: store}
}

// Import parses the upload and creates one profile per non-empty row.
func (i *CSVImporter) Import(ctx context.Context, reader io.Reader) (Summary, error) {
	if i.profiles == nil {
		return Summary{}, fmt.Errorf("%w: profile store is not configured", ErrInvalidCSV)
	}

	existing, err := i.profiles.List(ctx, profiles.ListOptions{})
	if err != nil {
		return Summary{}, err
	}

	tracker := newDuplicateTracker(existing)

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Summary{}, fmt.Errorf("%w: file is empty", ErrInvalidCSV)
		}
		return Summary{}, fmt.Errorf("%w: failed to read header", ErrInvalidCSV)
	}

	columns, err := normalizeHeader(header)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{}
	rowNumber := 1

	for {
		record, err := csvReader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Summary{}, fmt.Errorf("%w: failed to read row %d", ErrInvalidCSV, rowNumber+1)
		}
		rowNumber++

		values := mapRecord(columns, record)
		if isRowEmpty(values) {
			continue
		}

		summary.TotalRows++
		if summary.TotalRows > MaxImportRows {
			return Summary{}, fmt.Errorf("%w: CSV exceeds maximum of %d rows", ErrInvalidCSV, MaxImportRows)
		}

		input := buildInput(values)

		if input.FullName == "" {
			recordFailure(&summary, FailedRecord{
				Row:   rowNumber,
				Email: input.Email,
				Error: "fullName is required",
			})
			continue
		}

		if reason, ok := tracker.Check(input); ok {
			if len(summary.SkippedDuplicates) < MaxFailedRecords {
				summary.SkippedDuplicates = append(summary.SkippedDuplicates, SkippedRecord{
					Row:    rowNumber,
					Name:   input.FullName,
					Email:  input.Email,
					Reason: reason,
				})
			} else {
				summary.TruncatedRecords = true
			}
			continue
		}

		if _, err := i.profiles.Create(ctx, input); err != nil {
			recordFailure(&summary, FailedRecord{
				Row:   rowNumber,
				Name:  input.FullName,
				Email: input.Email,
				Error: err.Error(),
			})
			continue
		}

		tracker.Add(input)
		summary.Imported++
	}

	return summary, nil
}

func recordFailure(summary *Summary, failure FailedRecord) {
	if len(summary.Failed) < MaxFailedRecords {
		summary.Failed = append(summary.Failed, failure)
		return
	}
	summary.TruncatedRecords = true
}

func buildInput(values map[string]string) profiles.CreateProfileInput {
	return profiles.CreateProfileInput{
		FullName:    values["fullname"],
		Email:       values["email"],
		Company:     values["company"],
		Role:        values["role"],
		Location:    values["location"],
		LinkedInURL: values["linkedinurl"],
		HowMet:      values["howmet"],
		Interests:   values["interests"],
		Notes:       values["notes"],
	}
}

func normalizeHeader(header []string) (map[int]string, error) {
	columns := make(map[int]string, len(header))
	seen := map[string]bool{}
	for idx, raw := range header {
		cleaned := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\uFEFF")))
		cleaned = strings.ReplaceAll(cleaned, " ", "")
		if alias, ok := columnAliases[cleaned]; ok {
			cleaned = alias
		}
		if cleaned == "" {
			continue
		}
		columns[idx] = cleaned
		seen[cleaned] = true
	}

	missing := make([]string, 0)
	for _, column := range requiredColumns {
		if !seen[column] {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %s", ErrInvalidCSV, strings.Join(missing, ", "))
	}
	return columns, nil
}

func mapRecord(columns map[int]string, record []string) map[string]string {
	values := make(map[string]string, len(columns))
	for idx, column := range columns {
		if idx >= len(record) {
			values[column] = ""
			continue
		}
		values[column] = strings.TrimSpace(record[idx])
	}
	return values
}

func isRowEmpty(values map[string]string) bool {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

type duplicateTracker struct {
	known map[string]string
}

func newDuplicateTracker(existing []profiles.Profile) *duplicateTracker {
	tracker := &duplicateTracker{known: map[string]string{}}
	for _, profile := range existing {
		tracker.store("email", strings.ToLower(strings.TrimSpace(profile.Email)))
		tracker.store("name", strings.ToLower(strings.TrimSpace(profile.FullName)))
	}
	return tracker
}

func (t *duplicateTracker) store(field string, value string) {
	if value == "" {
		return
	}
	t.known[field+":"+value] = field
}

func (t *duplicateTracker) Check(input profiles.CreateProfileInput) (string, bool) {
	if email := strings.ToLower(strings.TrimSpace(input.Email)); email != "" {
		if reason, ok := t.known["email:"+email]; ok {
			return fmt.Sprintf("duplicate %s", reason), true
		}
	}
	if name := strings.ToLower(strings.TrimSpace(input.FullName)); name != "" {
		if reason, ok := t.known["name:"+name]; ok {
			return fmt.Sprintf("duplicate %s", reason), true
		}
	}
	return "", false
}

func (t *duplicateTracker) Add(input profiles.CreateProfileInput) {
	t.store("email", strings.ToLower(strings.TrimSpace(input.Email)))
	t.store("name", strings.ToLower(strings.TrimSpace(input.FullName)))
}
