package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Amanshivhare1/jobmon/internal/models"
)

func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "input.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close workbook: %v", err)
	}
	return path
}

func testRows() [][]string {
	return [][]string{
		{"jobName", "startTime", "endTime", "dependency", "description", "priority"},
		{"extract", "2024-01-01T00:00:00", "2024-01-01T00:30:00", "", "pull orders", "high"},
		{"transform", "2024-01-01T01:00:00", "2024-01-01T04:00:00", "extract", "", ""},
		{"load", "2024-01-01T02:00:00", "", "transform", "", "low"},
		{"report", "", "", "", "", ""},
	}
}

func TestExcelLoadAll(t *testing.T) {
	src := NewExcelSource(writeWorkbook(t, testRows()))

	jobs, err := src.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll returned error: %v", err)
	}
	if len(jobs) != 4 {
		t.Fatalf("expected 4 jobs, got %d", len(jobs))
	}

	// Ordered by start time descending, jobs without a start last.
	if jobs[0].JobName != "load" || jobs[1].JobName != "transform" || jobs[2].JobName != "extract" || jobs[3].JobName != "report" {
		t.Fatalf("unexpected order: %s %s %s %s", jobs[0].JobName, jobs[1].JobName, jobs[2].JobName, jobs[3].JobName)
	}

	byName := make(map[string]models.Job, len(jobs))
	seenIDs := make(map[string]bool, len(jobs))
	for _, job := range jobs {
		byName[job.JobName] = job
		if job.ID == "" || seenIDs[job.ID] {
			t.Errorf("expected a unique synthetic id, got %q", job.ID)
		}
		seenIDs[job.ID] = true
	}

	if byName["extract"].Status != models.StatusCompleted {
		t.Errorf("expected extract completed, got %s", byName["extract"].Status)
	}
	if byName["transform"].Status != models.StatusDelayed {
		t.Errorf("expected transform delayed, got %s", byName["transform"].Status)
	}
	if byName["load"].Status != models.StatusRunning {
		t.Errorf("expected load running, got %s", byName["load"].Status)
	}
	if byName["report"].Status != models.StatusFailed {
		t.Errorf("expected report failed, got %s", byName["report"].Status)
	}
}

func TestExcelMissingFile(t *testing.T) {
	src := NewExcelSource(filepath.Join(t.TempDir(), "absent.xlsx"))

	jobs, err := src.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("expected missing workbook to be an empty set, got error: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected no jobs, got %d", len(jobs))
	}
}

func TestExcelUnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	if err := os.WriteFile(path, []byte("not a workbook"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewExcelSource(path).LoadAll(context.Background()); err == nil {
		t.Fatal("expected error for unreadable workbook")
	}
}

func TestExcelLoadPage(t *testing.T) {
	src := NewExcelSource(writeWorkbook(t, testRows()))

	jobs, total, err := src.LoadPage(context.Background(), PageQuery{
		Filter:   models.Filter{Priority: "normal"},
		Page:     1,
		PageSize: 1,
	})
	if err != nil {
		t.Fatalf("LoadPage returned error: %v", err)
	}
	if total != 2 {
		t.Errorf("expected total 2, got %d", total)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job on the page, got %d", len(jobs))
	}

	jobs, total, err = src.LoadPage(context.Background(), PageQuery{Page: 9, PageSize: 10})
	if err != nil {
		t.Fatalf("LoadPage returned error: %v", err)
	}
	if len(jobs) != 0 || total != 4 {
		t.Errorf("expected empty out-of-range page with total 4, got %d jobs, total %d", len(jobs), total)
	}
}
