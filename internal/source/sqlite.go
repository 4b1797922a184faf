package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Amanshivhare1/jobmon/internal/models"
	"github.com/Amanshivhare1/jobmon/internal/normalize"
)

// queryTimeout bounds every statement sent to the store; the relational
// path is externally reachable and must not hang on a dead connection.
const queryTimeout = 5 * time.Second

const jobColumns = "id, job_name, start_time, end_time, dependency, description, priority, status, duration_minutes"

// SQLiteSource reads jobs from the relational store. Filtering, ordering
// and pagination are pushed down as SQL; rows come back with status and
// duration_minutes pre-derived by the store and are finished by the
// normalizer.
type SQLiteSource struct {
	db *sql.DB
}

// NewSQLiteSource opens the store and ensures the jobs schema exists.
func NewSQLiteSource(dbPath string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteSource{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func (s *SQLiteSource) Kind() Kind { return KindSQLite }

// initSchema ensures the jobs table the query contract expects.
func (s *SQLiteSource) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		job_name TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		dependency TEXT,
		description TEXT,
		priority TEXT NOT NULL DEFAULT 'normal',
		status TEXT,
		duration_minutes INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
	CREATE INDEX IF NOT EXISTS idx_jobs_priority ON jobs(priority);
	CREATE INDEX IF NOT EXISTS idx_jobs_start_time ON jobs(start_time);
	`

	_, err := s.db.Exec(schema)
	return err
}

// LoadAll returns every job ordered by start time descending.
func (s *SQLiteSource) LoadAll(ctx context.Context) ([]models.Job, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT "+jobColumns+" FROM jobs ORDER BY start_time DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// LoadPage pushes the search/status/priority predicate, ordering and
// pagination down to the store, and answers the total count under the same
// predicate.
func (s *SQLiteSource) LoadPage(ctx context.Context, q PageQuery) ([]models.Job, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	where, args := wherePredicate(q.Filter)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	// Same semantics as the in-memory path: a page outside the range is
	// empty, not an error.
	if q.Page < 1 || q.PageSize < 1 {
		return []models.Job{}, total, nil
	}

	stmt := "SELECT " + jobColumns + " FROM jobs" + where + " ORDER BY start_time DESC LIMIT ? OFFSET ?"
	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	jobs, err := scanJobs(rows)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// Metrics answers the aggregate metrics query in a single statement. The
// average only covers completed jobs whose timestamps SQLite can read;
// julianday rejects NULL, empty and malformed values alike. Rows missing
// duration_minutes fall back to the span between the timestamps, matching
// what a scan of the normalized records would produce.
func (s *SQLiteSource) Metrics(ctx context.Context) (models.Metrics, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const aggregate = `
	SELECT COUNT(*),
	       COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
	       COALESCE(SUM(CASE WHEN status = 'running' THEN 1 ELSE 0 END), 0),
	       COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
	       COALESCE(SUM(CASE WHEN status = 'delayed' THEN 1 ELSE 0 END), 0),
	       COALESCE(SUM(CASE WHEN priority = 'high' THEN 1 ELSE 0 END), 0),
	       COALESCE(SUM(CASE WHEN priority = 'normal' THEN 1 ELSE 0 END), 0),
	       COALESCE(SUM(CASE WHEN priority = 'low' THEN 1 ELSE 0 END), 0),
	       COALESCE(AVG(CASE WHEN status = 'completed' AND julianday(start_time) IS NOT NULL AND julianday(end_time) IS NOT NULL
	                         THEN COALESCE(duration_minutes, (julianday(end_time) - julianday(start_time)) * 1440.0) END), 0)
	FROM jobs`

	var m models.Metrics
	var avg float64
	err := s.db.QueryRowContext(ctx, aggregate).Scan(
		&m.Total,
		&m.Completed,
		&m.Running,
		&m.Failed,
		&m.Delayed,
		&m.PriorityDistribution.High,
		&m.PriorityDistribution.Normal,
		&m.PriorityDistribution.Low,
		&avg,
	)
	if err != nil {
		return models.Metrics{}, fmt.Errorf("failed to aggregate metrics: %w", err)
	}
	m.AvgRunTimeMinutes = int(avg)
	return m, nil
}

// wherePredicate builds the search/status/priority predicate shared by the
// page and count queries.
func wherePredicate(f models.Filter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		clauses = append(clauses, "(LOWER(job_name) LIKE ? OR LOWER(COALESCE(dependency, '')) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)")
		args = append(args, like, like, like)
	}
	if status := strings.TrimSpace(f.Status); status != "" && status != "all" {
		clauses = append(clauses, "status = ?")
		args = append(args, status)
	}
	if priority := strings.TrimSpace(f.Priority); priority != "" && priority != "all" {
		clauses = append(clauses, "priority = ?")
		args = append(args, priority)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanJobs(rows *sql.Rows) ([]models.Job, error) {
	jobs := make([]models.Job, 0)
	for rows.Next() {
		var (
			id, jobName     string
			startTime       sql.NullString
			endTime         sql.NullString
			dependency      sql.NullString
			description     sql.NullString
			priority        sql.NullString
			status          sql.NullString
			durationMinutes sql.NullInt64
		)

		err := rows.Scan(
			&id,
			&jobName,
			&startTime,
			&endTime,
			&dependency,
			&description,
			&priority,
			&status,
			&durationMinutes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}

		rec := normalize.Record{
			ID:          id,
			JobName:     jobName,
			StartTime:   startTime.String,
			EndTime:     endTime.String,
			Dependency:  dependency.String,
			Description: description.String,
			Priority:    priority.String,
			Status:      status.String,
		}
		if durationMinutes.Valid {
			minutes := int(durationMinutes.Int64)
			rec.DurationMinutes = &minutes
		}

		jobs = append(jobs, normalize.Job(rec))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}
	return jobs, nil
}
