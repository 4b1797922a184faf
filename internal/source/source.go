// Package source provides the job source adapters. Both adapters implement
// one uniform contract and are interchangeable at runtime; rows from either
// flow through the normalizer so status and duration derivation cannot
// diverge between sources.
package source

import (
	"context"

	"github.com/Amanshivhare1/jobmon/internal/models"
)

// Kind identifies a configured job source.
type Kind string

const (
	KindExcel  Kind = "excel"
	KindSQLite Kind = "sqlite"
)

// PageQuery is one server-side page request.
type PageQuery struct {
	Filter   models.Filter
	Page     int
	PageSize int
}

// Source is the uniform contract both adapters implement.
type Source interface {
	Kind() Kind

	// LoadAll returns every job, ordered by start time descending.
	LoadAll(ctx context.Context) ([]models.Job, error)

	// LoadPage returns one filtered page plus the total count matching
	// the filter. Out-of-range pages yield an empty slice and the count.
	LoadPage(ctx context.Context, q PageQuery) ([]models.Job, int, error)
}

// MetricsProvider is implemented by sources that can answer the aggregate
// metrics query themselves instead of having a snapshot scanned.
type MetricsProvider interface {
	Metrics(ctx context.Context) (models.Metrics, error)
}
