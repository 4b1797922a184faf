package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Amanshivhare1/jobmon/internal/metrics"
	"github.com/Amanshivhare1/jobmon/internal/models"
	"github.com/Amanshivhare1/jobmon/internal/query"
	"github.com/Amanshivhare1/jobmon/internal/source"
	"github.com/Amanshivhare1/jobmon/internal/store"
)

var (
	ErrJobNotFound   = errors.New("job not found")
	ErrUnknownSource = errors.New("unknown data source")
)

// JobService is the boundary the transport layer calls. It owns the
// registered sources, the active source, and the snapshot store.
type JobService struct {
	store   *store.Store
	sources map[source.Kind]source.Source
	logger  *slog.Logger

	mu     sync.RWMutex
	active source.Source
}

// NewJobService registers the available sources and activates the initial
// one, which must be registered.
func NewJobService(st *store.Store, sources map[source.Kind]source.Source, active source.Kind, logger *slog.Logger) (*JobService, error) {
	src, ok := sources[active]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, active)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{
		store:   st,
		sources: sources,
		logger:  logger,
		active:  src,
	}, nil
}

// Source returns the kind of the active source.
func (s *JobService) Source() source.Kind {
	return s.activeSource().Kind()
}

func (s *JobService) activeSource() source.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Refresh reloads the snapshot from the active source. On failure the
// prior snapshot keeps serving and the error is returned to the caller.
func (s *JobService) Refresh(ctx context.Context) (*store.Snapshot, error) {
	src := s.activeSource()
	snap, err := s.store.Reload(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to reload jobs: %w", err)
	}
	s.logger.Info("jobs reloaded", "source", src.Kind(), "count", len(snap.Jobs))
	return snap, nil
}

// SwitchSource activates kind. An unknown kind is rejected before any
// state changes, and the switch commits only after the new source loads
// successfully; otherwise the active source and the snapshot both stay put.
func (s *JobService) SwitchSource(ctx context.Context, kind source.Kind) error {
	candidate, ok := s.sources[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSource, kind)
	}

	if _, err := s.store.Reload(ctx, candidate); err != nil {
		return fmt.Errorf("failed to load from %s: %w", kind, err)
	}

	s.mu.Lock()
	s.active = candidate
	s.mu.Unlock()

	s.logger.Info("switched data source", "source", kind)
	return nil
}

// QueryJobs returns one filtered page of jobs plus the total count under
// the same filter. The relational source answers from its own query
// pushdown; the spreadsheet source is served from the snapshot.
func (s *JobService) QueryJobs(ctx context.Context, f models.Filter, page, pageSize int) (models.JobPage, error) {
	src := s.activeSource()
	snap := s.store.Current()

	if src.Kind() == source.KindSQLite {
		jobs, total, err := src.LoadPage(ctx, source.PageQuery{Filter: f, Page: page, PageSize: pageSize})
		if err != nil {
			return models.JobPage{}, fmt.Errorf("failed to query jobs: %w", err)
		}
		return models.JobPage{
			Jobs:        jobs,
			TotalCount:  total,
			LastUpdated: snap.LastUpdated,
			DataSource:  string(src.Kind()),
		}, nil
	}

	filtered := query.Apply(snap.Jobs, f)
	return models.JobPage{
		Jobs:        query.Page(filtered, page, pageSize),
		TotalCount:  len(filtered),
		LastUpdated: snap.LastUpdated,
		DataSource:  string(src.Kind()),
	}, nil
}

// GetMetrics aggregates over the full current job set. A source that can
// answer the aggregate query itself is asked directly; otherwise the
// snapshot is scanned.
func (s *JobService) GetMetrics(ctx context.Context) (models.Metrics, error) {
	src := s.activeSource()
	if provider, ok := src.(source.MetricsProvider); ok {
		m, err := provider.Metrics(ctx)
		if err != nil {
			return models.Metrics{}, fmt.Errorf("failed to aggregate metrics: %w", err)
		}
		return m, nil
	}
	return metrics.Compute(s.store.Current().Jobs), nil
}

// GetAlerts derives the alert list from the current snapshot. Nothing is
// persisted or deduplicated; repeated calls on unchanged data return the
// same alerts.
func (s *JobService) GetAlerts() []models.Alert {
	return deriveAlerts(s.store.Current().Jobs, time.Now())
}

// GetDependencies resolves the direct neighbors of the job with id: the
// jobs it depends on and the jobs depending on it, by exact name match.
// Single hop only; chains are not traversed.
func (s *JobService) GetDependencies(id string) (models.Dependencies, error) {
	snap := s.store.Current()

	var target *models.Job
	for i := range snap.Jobs {
		if snap.Jobs[i].ID == id {
			target = &snap.Jobs[i]
			break
		}
	}
	if target == nil {
		return models.Dependencies{}, ErrJobNotFound
	}

	deps := models.Dependencies{
		Job:        *target,
		DependsOn:  []models.Job{},
		Dependents: []models.Job{},
	}
	for _, job := range snap.Jobs {
		if job.Dependency != "" && job.Dependency == target.JobName {
			deps.Dependents = append(deps.Dependents, job)
		}
		if target.Dependency != "" && job.JobName == target.Dependency {
			deps.DependsOn = append(deps.DependsOn, job)
		}
	}
	return deps, nil
}

// ExportCSV writes the filtered, unpaginated job set as CSV and returns
// the number of data rows written. Filters are identical to QueryJobs.
func (s *JobService) ExportCSV(ctx context.Context, w io.Writer, f models.Filter) (int, error) {
	src := s.activeSource()

	jobs := s.store.Current().Jobs
	if src.Kind() == source.KindSQLite {
		all, err := src.LoadAll(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to load jobs for export: %w", err)
		}
		jobs = all
	}

	filtered := query.Apply(jobs, f)
	if err := query.WriteCSV(w, filtered); err != nil {
		return 0, fmt.Errorf("failed to write csv: %w", err)
	}
	return len(filtered), nil
}

// ExportFilename names a CSV download for the given day, e.g.
// jobs_export_20240101.csv.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("jobs_export_%s.csv", now.Format("20060102"))
}

// Info reports engine state for health and config style endpoints.
type Info struct {
	Source       source.Kind `json:"dataSource"`
	JobsCount    int         `json:"jobsCount"`
	LastUpdated  time.Time   `json:"lastUpdated"`
	WorkbookPath string      `json:"workbookPath,omitempty"`
	WorkbookOK   bool        `json:"workbookExists"`
}

// Info returns the active source kind, the current generation size and
// timestamp, and whether the configured workbook exists on disk.
func (s *JobService) Info() Info {
	snap := s.store.Current()
	info := Info{
		Source:      s.Source(),
		JobsCount:   len(snap.Jobs),
		LastUpdated: snap.LastUpdated,
	}
	if excel, ok := s.sources[source.KindExcel].(*source.ExcelSource); ok {
		info.WorkbookPath = excel.Path()
		_, err := os.Stat(excel.Path())
		info.WorkbookOK = err == nil
	}
	return info
}
