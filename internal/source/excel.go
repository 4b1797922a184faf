package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/Amanshivhare1/jobmon/internal/models"
	"github.com/Amanshivhare1/jobmon/internal/normalize"
	"github.com/Amanshivhare1/jobmon/internal/query"
)

// ExcelSource reads jobs from the first sheet of a workbook file. The
// header row maps columns by name; every data row becomes one normalized
// job with a fresh synthetic id, so ids are not stable across loads.
type ExcelSource struct {
	path string
}

// NewExcelSource creates a spreadsheet adapter for the workbook at path.
func NewExcelSource(path string) *ExcelSource {
	return &ExcelSource{path: path}
}

func (s *ExcelSource) Kind() Kind { return KindExcel }

// Path returns the workbook location being read.
func (s *ExcelSource) Path() string { return s.path }

// LoadAll reads every row of the first sheet. A missing workbook yields an
// empty job set, not an error; an unreadable one fails the load.
func (s *ExcelSource) LoadAll(ctx context.Context) ([]models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return []models.Job{}, nil
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return []models.Job{}, nil
	}

	cols := headerIndex(rows[0])
	jobs := make([]models.Job, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := normalize.Record{
			ID:          uuid.New().String(),
			JobName:     cell(row, cols, "jobname"),
			StartTime:   cell(row, cols, "starttime"),
			EndTime:     cell(row, cols, "endtime"),
			Dependency:  cell(row, cols, "dependency"),
			Description: cell(row, cols, "description"),
			Priority:    cell(row, cols, "priority"),
		}
		if isBlank(rec) {
			continue
		}
		jobs = append(jobs, normalize.Job(rec))
	}

	query.SortByStartDesc(jobs)
	return jobs, nil
}

// LoadPage loads the whole sheet and filters and pages in memory; a
// spreadsheet has no query capability of its own.
func (s *ExcelSource) LoadPage(ctx context.Context, q PageQuery) ([]models.Job, int, error) {
	jobs, err := s.LoadAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	filtered := query.Apply(jobs, q.Filter)
	return query.Page(filtered, q.Page, q.PageSize), len(filtered), nil
}

// headerIndex maps lower-cased header names to column positions.
func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

func cell(row []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(rec normalize.Record) bool {
	return rec.JobName == "" && rec.StartTime == "" && rec.EndTime == "" &&
		rec.Dependency == "" && rec.Description == "" && rec.Priority == ""
}
