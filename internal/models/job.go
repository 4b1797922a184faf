package models

import (
	"strings"
	"time"
)

// Status is the derived lifecycle state of a job. It is a pure function of
// the job's start and end times; nothing else sets it.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusRunning   Status = "running"
	StatusFailed    Status = "failed"
	StatusDelayed   Status = "delayed"
)

// Priority classifies a job's importance.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// ParsePriority maps source text to a Priority. Absent or unrecognized
// values fall back to normal.
func ParsePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// Job is the canonical record produced by the normalizer. It is immutable
// once constructed and lives until the whole snapshot generation is
// replaced.
type Job struct {
	ID          string   `json:"id"`
	JobName     string   `json:"jobName"`
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	Dependency  string   `json:"dependency"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
	Duration    *string  `json:"duration"`

	// Parsed forms of StartTime/EndTime; nil when absent or unparsable.
	StartedAt *time.Time `json:"-"`
	EndedAt   *time.Time `json:"-"`
}

// Filter narrows a job query. Empty or "all" fields apply no filter.
type Filter struct {
	Search   string
	Status   string
	Priority string
}

// JobPage is one page of query results plus the generation it came from.
type JobPage struct {
	Jobs        []Job     `json:"jobs"`
	TotalCount  int       `json:"totalCount"`
	LastUpdated time.Time `json:"lastUpdated"`
	DataSource  string    `json:"dataSource"`
}

// PriorityCounts is the per-priority breakdown of a job set.
type PriorityCounts struct {
	High   int `json:"high"`
	Normal int `json:"normal"`
	Low    int `json:"low"`
}

// Metrics are the aggregate figures computed over one full snapshot.
type Metrics struct {
	Total                int            `json:"total"`
	Completed            int            `json:"completed"`
	Running              int            `json:"running"`
	Failed               int            `json:"failed"`
	Delayed              int            `json:"delayed"`
	AvgRunTimeMinutes    int            `json:"avgRunTimeMinutes"`
	PriorityDistribution PriorityCounts `json:"priorityDistribution"`
}

// Alert is one derived alert over the current snapshot.
type Alert struct {
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	Jobs     []string `json:"jobs"`
	Severity string   `json:"severity"`
}

// Dependencies are the direct neighbors of one job: the jobs it depends on
// and the jobs depending on it, resolved by exact name match.
type Dependencies struct {
	Job        Job   `json:"job"`
	DependsOn  []Job `json:"dependsOn"`
	Dependents []Job `json:"dependents"`
}
