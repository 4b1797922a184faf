// Package metrics computes aggregate figures over one snapshot generation.
package metrics

import (
	"time"

	"github.com/Amanshivhare1/jobmon/internal/models"
)

// Compute aggregates the full job set: total, counts per status and
// priority, and the average run time in whole minutes. The average only
// counts completed jobs with both timestamps parsed; jobs missing either
// are excluded from the average, not treated as zero.
func Compute(jobs []models.Job) models.Metrics {
	m := models.Metrics{Total: len(jobs)}

	var runTimeSum time.Duration
	var runTimeCount int

	for _, job := range jobs {
		switch job.Status {
		case models.StatusCompleted:
			m.Completed++
		case models.StatusRunning:
			m.Running++
		case models.StatusFailed:
			m.Failed++
		case models.StatusDelayed:
			m.Delayed++
		}

		switch job.Priority {
		case models.PriorityHigh:
			m.PriorityDistribution.High++
		case models.PriorityLow:
			m.PriorityDistribution.Low++
		default:
			m.PriorityDistribution.Normal++
		}

		if job.Status == models.StatusCompleted && job.StartedAt != nil && job.EndedAt != nil {
			runTimeSum += job.EndedAt.Sub(*job.StartedAt)
			runTimeCount++
		}
	}

	if runTimeCount > 0 {
		m.AvgRunTimeMinutes = int(runTimeSum.Minutes() / float64(runTimeCount))
	}
	return m
}
