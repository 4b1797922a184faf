// Package normalize converts raw source rows into canonical Job records.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/Amanshivhare1/jobmon/internal/models"
)

// Record is one raw row as produced by a source adapter. All string fields
// are optional. Status and DurationMinutes are only populated by the
// relational source, which stores them pre-derived; when present they are
// honored so the two sources cannot diverge.
type Record struct {
	ID              string
	JobName         string
	StartTime       string
	EndTime         string
	Dependency      string
	Description     string
	Priority        string
	Status          string
	DurationMinutes *int
}

// timeLayouts are tried in order when parsing source timestamps.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006",
}

// delayedThreshold is the completed-timespan duration at which a job is
// reported delayed instead of completed.
const delayedThreshold = 2 * time.Hour

// Job builds the canonical record for one raw row. String fields are
// trimmed, unparsable timestamps are treated as absent, and status and
// duration are derived; a row never fails to normalize.
func Job(rec Record) models.Job {
	job := models.Job{
		ID:          strings.TrimSpace(rec.ID),
		JobName:     strings.TrimSpace(rec.JobName),
		StartTime:   strings.TrimSpace(rec.StartTime),
		EndTime:     strings.TrimSpace(rec.EndTime),
		Dependency:  strings.TrimSpace(rec.Dependency),
		Description: strings.TrimSpace(rec.Description),
		Priority:    models.ParsePriority(rec.Priority),
	}
	job.StartedAt = ParseTime(job.StartTime)
	job.EndedAt = ParseTime(job.EndTime)
	job.Status = deriveStatus(rec.Status, job.StartedAt, job.EndedAt)
	job.Duration = deriveDuration(rec.DurationMinutes, job.Status, job.StartedAt, job.EndedAt)
	return job
}

// ParseTime parses a source timestamp against the accepted layouts.
// Returns nil for empty or unparsable input.
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// deriveStatus evaluates the status state machine: no start means the job
// never ran (failed), no end means it is still running, and a finished span
// is delayed once it reaches the threshold. A pre-derived status from the
// relational store short-circuits the derivation.
func deriveStatus(preDerived string, start, end *time.Time) models.Status {
	if s := models.Status(strings.ToLower(strings.TrimSpace(preDerived))); knownStatus(s) {
		return s
	}
	if start == nil {
		return models.StatusFailed
	}
	if end == nil {
		return models.StatusRunning
	}
	if end.Sub(*start) >= delayedThreshold {
		return models.StatusDelayed
	}
	// Note: a negative span (end before start) lands here and reports
	// completed while the duration reads "Invalid". Pinned by
	// TestNormalizeEndBeforeStart.
	return models.StatusCompleted
}

func knownStatus(s models.Status) bool {
	switch s {
	case models.StatusCompleted, models.StatusRunning, models.StatusFailed, models.StatusDelayed:
		return true
	}
	return false
}

func deriveDuration(minutes *int, status models.Status, start, end *time.Time) *string {
	if minutes != nil {
		switch status {
		case models.StatusFailed:
			return nil
		case models.StatusRunning:
			return strPtr("Running")
		}
		if *minutes < 0 {
			return strPtr("Invalid")
		}
		return strPtr(FormatMinutes(*minutes))
	}
	if start == nil {
		return nil
	}
	if end == nil {
		return strPtr("Running")
	}
	if end.Before(*start) {
		return strPtr("Invalid")
	}
	return strPtr(FormatMinutes(int(end.Sub(*start).Minutes())))
}

// FormatMinutes renders a whole-minute duration as "<m>m", or "<h>h <m>m"
// once it reaches an hour.
func FormatMinutes(minutes int) string {
	if minutes >= 60 {
		return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

func strPtr(s string) *string { return &s }
