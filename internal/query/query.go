// Package query implements the filtering, pagination, ordering and CSV
// rendering applied to an in-memory snapshot of jobs. The relational source
// pushes the same semantics down as SQL.
package query

import (
	"encoding/csv"
	"io"
	"sort"
	"strings"

	"github.com/Amanshivhare1/jobmon/internal/models"
)

// CSVHeader is the fixed column order of exported job data.
var CSVHeader = []string{"Job Name", "Start Time", "End Time", "Duration", "Status", "Dependencies", "Priority", "Description"}

// Apply returns the jobs matching f, preserving order. The search term
// matches case-insensitively against job name, dependency and description;
// status and priority match exactly, with "" and "all" meaning no filter.
func Apply(jobs []models.Job, f models.Filter) []models.Job {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.Job, 0, len(jobs))
	for _, job := range jobs {
		if search != "" && !matchesSearch(job, search) {
			continue
		}
		if !matchesExact(string(job.Status), f.Status) {
			continue
		}
		if !matchesExact(string(job.Priority), f.Priority) {
			continue
		}
		out = append(out, job)
	}
	return out
}

func matchesSearch(job models.Job, term string) bool {
	return strings.Contains(strings.ToLower(job.JobName), term) ||
		strings.Contains(strings.ToLower(job.Dependency), term) ||
		strings.Contains(strings.ToLower(job.Description), term)
}

func matchesExact(value, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" || want == "all" {
		return true
	}
	return value == want
}

// Page returns the 1-based page of size pageSize. Out-of-range pages yield
// an empty slice, never an error.
func Page(jobs []models.Job, page, pageSize int) []models.Job {
	if page < 1 || pageSize < 1 {
		return []models.Job{}
	}
	start := (page - 1) * pageSize
	if start >= len(jobs) {
		return []models.Job{}
	}
	end := start + pageSize
	if end > len(jobs) {
		end = len(jobs)
	}
	return jobs[start:end]
}

// SortByStartDesc orders jobs by start time descending, jobs without a
// parsed start time last. This is the same order the relational source
// produces with ORDER BY start_time DESC, so pagination is identical
// across sources.
func SortByStartDesc(jobs []models.Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		a, b := jobs[i].StartedAt, jobs[j].StartedAt
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
}

// WriteCSV renders one row per job in the fixed export column order.
func WriteCSV(w io.Writer, jobs []models.Job) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, job := range jobs {
		duration := ""
		if job.Duration != nil {
			duration = *job.Duration
		}
		row := []string{
			job.JobName,
			job.StartTime,
			job.EndTime,
			duration,
			string(job.Status),
			job.Dependency,
			string(job.Priority),
			job.Description,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
