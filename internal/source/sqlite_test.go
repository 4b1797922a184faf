package source

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Amanshivhare1/jobmon/internal/models"
)

func newTestSQLiteSource(t *testing.T) *SQLiteSource {
	t.Helper()

	src, err := NewSQLiteSource(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { src.Close() })

	rows := []struct {
		id, name, start, end, dep, desc, priority, status string
		minutes                                           interface{}
	}{
		{"1", "extract", "2024-01-01T00:00:00", "2024-01-01T00:30:00", "", "pull orders", "high", "completed", 30},
		{"2", "transform", "2024-01-01T01:00:00", "2024-01-01T04:00:00", "extract", "", "normal", "delayed", 180},
		{"3", "load", "2024-01-01T02:00:00", "", "transform", "nightly warehouse load", "low", "running", nil},
		{"4", "report", "", "", "", "", "normal", "failed", nil},
	}
	for _, r := range rows {
		var start, end interface{}
		if r.start != "" {
			start = r.start
		}
		if r.end != "" {
			end = r.end
		}
		_, err := src.db.Exec(
			"INSERT INTO jobs (id, job_name, start_time, end_time, dependency, description, priority, status, duration_minutes) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			r.id, r.name, start, end, r.dep, r.desc, r.priority, r.status, r.minutes,
		)
		if err != nil {
			t.Fatalf("failed to seed row %s: %v", r.id, err)
		}
	}
	return src
}

func TestSQLiteLoadAll(t *testing.T) {
	src := newTestSQLiteSource(t)

	jobs, err := src.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll returned error: %v", err)
	}
	if len(jobs) != 4 {
		t.Fatalf("expected 4 jobs, got %d", len(jobs))
	}
	if jobs[0].JobName != "load" {
		t.Errorf("expected newest start first, got %s", jobs[0].JobName)
	}

	byID := make(map[string]models.Job, len(jobs))
	for _, job := range jobs {
		byID[job.ID] = job
	}
	if byID["2"].Status != models.StatusDelayed {
		t.Errorf("expected pre-derived status honored, got %s", byID["2"].Status)
	}
	if byID["2"].Duration == nil || *byID["2"].Duration != "3h 0m" {
		t.Errorf("expected duration 3h 0m from minutes, got %v", byID["2"].Duration)
	}
	if byID["3"].Duration == nil || *byID["3"].Duration != "Running" {
		t.Errorf("expected duration Running, got %v", byID["3"].Duration)
	}
	if byID["4"].Duration != nil {
		t.Errorf("expected nil duration for failed job, got %v", byID["4"].Duration)
	}
}

func TestSQLiteLoadPage(t *testing.T) {
	src := newTestSQLiteSource(t)
	ctx := context.Background()

	jobs, total, err := src.LoadPage(ctx, PageQuery{
		Filter:   models.Filter{Search: "WAREHOUSE"},
		Page:     1,
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("LoadPage returned error: %v", err)
	}
	if total != 1 || len(jobs) != 1 || jobs[0].JobName != "load" {
		t.Fatalf("expected search to match the description of load, got total=%d jobs=%v", total, jobs)
	}

	jobs, total, err = src.LoadPage(ctx, PageQuery{
		Filter:   models.Filter{Status: "completed", Priority: "high"},
		Page:     1,
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("LoadPage returned error: %v", err)
	}
	if total != 1 || len(jobs) != 1 || jobs[0].ID != "1" {
		t.Fatalf("expected the completed high-priority job, got total=%d jobs=%v", total, jobs)
	}

	jobs, total, err = src.LoadPage(ctx, PageQuery{Page: 2, PageSize: 3})
	if err != nil {
		t.Fatalf("LoadPage returned error: %v", err)
	}
	if total != 4 || len(jobs) != 1 {
		t.Fatalf("expected 1 job on the final page of 4, got total=%d jobs=%d", total, len(jobs))
	}

	jobs, total, err = src.LoadPage(ctx, PageQuery{Page: 9, PageSize: 10})
	if err != nil {
		t.Fatalf("LoadPage returned error: %v", err)
	}
	if len(jobs) != 0 || total != 4 {
		t.Fatalf("expected empty out-of-range page with total, got jobs=%d total=%d", len(jobs), total)
	}
}

func TestSQLitePaginationCoversSet(t *testing.T) {
	src := newTestSQLiteSource(t)

	seen := make(map[string]bool)
	for page := 1; ; page++ {
		jobs, _, err := src.LoadPage(context.Background(), PageQuery{Page: page, PageSize: 2})
		if err != nil {
			t.Fatalf("LoadPage returned error: %v", err)
		}
		if len(jobs) == 0 {
			break
		}
		for _, job := range jobs {
			if seen[job.ID] {
				t.Fatalf("job %s appeared on more than one page", job.ID)
			}
			seen[job.ID] = true
		}
	}
	if len(seen) != 4 {
		t.Fatalf("expected all 4 jobs across pages, got %d", len(seen))
	}
}

func TestSQLiteMetrics(t *testing.T) {
	src := newTestSQLiteSource(t)

	m, err := src.Metrics(context.Background())
	if err != nil {
		t.Fatalf("Metrics returned error: %v", err)
	}

	if m.Total != 4 {
		t.Errorf("expected total 4, got %d", m.Total)
	}
	if m.Completed != 1 || m.Running != 1 || m.Failed != 1 || m.Delayed != 1 {
		t.Errorf("unexpected status counts: %+v", m)
	}
	if m.PriorityDistribution.High != 1 || m.PriorityDistribution.Normal != 2 || m.PriorityDistribution.Low != 1 {
		t.Errorf("unexpected priority counts: %+v", m.PriorityDistribution)
	}
	// Only job 1 is completed with both timestamps; its 30 minutes is the average.
	if m.AvgRunTimeMinutes != 30 {
		t.Errorf("expected average 30 minutes, got %d", m.AvgRunTimeMinutes)
	}
}

func TestSQLiteMetricsAverageFallsBackToTimestamps(t *testing.T) {
	src, err := NewSQLiteSource(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { src.Close() })

	rows := []struct {
		id, start, end string
		minutes        interface{}
	}{
		// duration_minutes absent, span of one hour between the timestamps
		{"1", "2024-01-01 00:00:00", "2024-01-01 01:00:00", nil},
		// pre-derived minutes win over the timestamps
		{"2", "2024-01-01 00:00:00", "2024-01-01 02:00:00", 30},
		// empty-string timestamps keep the row out of the average
		{"3", "", "", 999},
	}
	for _, r := range rows {
		_, err := src.db.Exec(
			"INSERT INTO jobs (id, job_name, start_time, end_time, priority, status, duration_minutes) VALUES (?, ?, ?, ?, 'normal', 'completed', ?)",
			r.id, "job-"+r.id, r.start, r.end, r.minutes,
		)
		if err != nil {
			t.Fatalf("failed to seed row %s: %v", r.id, err)
		}
	}

	m, err := src.Metrics(context.Background())
	if err != nil {
		t.Fatalf("Metrics returned error: %v", err)
	}
	// (60 + 30) / 2: the fallback hour plus the pre-derived half hour.
	if m.AvgRunTimeMinutes != 45 {
		t.Errorf("expected average 45 minutes, got %d", m.AvgRunTimeMinutes)
	}
	if m.Completed != 3 {
		t.Errorf("expected 3 completed jobs counted, got %d", m.Completed)
	}
}
