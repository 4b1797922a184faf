package service

import (
	"fmt"
	"time"

	"github.com/Amanshivhare1/jobmon/internal/models"
)

// longRunningThreshold is the wall-clock elapsed time after which a still
// running job raises an informational alert. It is independent of the 2h
// delayed threshold applied to finished jobs.
const longRunningThreshold = 3 * time.Hour

// deriveAlerts evaluates the three alert rules over one job set. The rules
// are independent and non-exclusive; at most one alert per class is
// emitted, naming the affected jobs.
func deriveAlerts(jobs []models.Job, now time.Time) []models.Alert {
	var delayed, failed, longRunning []string
	for _, job := range jobs {
		switch job.Status {
		case models.StatusDelayed:
			delayed = append(delayed, job.JobName)
		case models.StatusFailed:
			failed = append(failed, job.JobName)
		case models.StatusRunning:
			if job.StartedAt != nil && now.Sub(*job.StartedAt) > longRunningThreshold {
				longRunning = append(longRunning, job.JobName)
			}
		}
	}

	alerts := make([]models.Alert, 0, 3)
	if len(delayed) > 0 {
		alerts = append(alerts, models.Alert{
			Type:     "warning",
			Message:  fmt.Sprintf("%d job(s) are running longer than expected", len(delayed)),
			Jobs:     delayed,
			Severity: "medium",
		})
	}
	if len(failed) > 0 {
		alerts = append(alerts, models.Alert{
			Type:     "error",
			Message:  fmt.Sprintf("%d job(s) have failed to start", len(failed)),
			Jobs:     failed,
			Severity: "high",
		})
	}
	if len(longRunning) > 0 {
		alerts = append(alerts, models.Alert{
			Type:     "info",
			Message:  fmt.Sprintf("%d job(s) have been running for more than 3 hours", len(longRunning)),
			Jobs:     longRunning,
			Severity: "low",
		})
	}
	return alerts
}
