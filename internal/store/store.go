// Package store holds the current generation of normalized jobs.
package store

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Amanshivhare1/jobmon/internal/models"
	"github.com/Amanshivhare1/jobmon/internal/source"
)

// Snapshot is one complete, immutable generation of job records. A new
// generation replaces it wholesale; nothing mutates it in place. Source
// records which adapter produced the generation.
type Snapshot struct {
	Jobs        []models.Job
	Source      source.Kind
	LastUpdated time.Time
}

// Store owns the live snapshot. Readers always see a complete generation;
// Reload swaps the pointer only after a load fully succeeds.
type Store struct {
	snap  atomic.Pointer[Snapshot]
	group singleflight.Group
}

// New returns a store holding an empty generation. LastUpdated stays zero
// until the first successful load.
func New() *Store {
	s := &Store{}
	s.snap.Store(&Snapshot{Jobs: []models.Job{}})
	return s
}

// Current returns the live snapshot. Never nil.
func (s *Store) Current() *Snapshot {
	return s.snap.Load()
}

// Reload replaces the snapshot from src. Concurrent calls for the same
// source kind collapse to a single in-flight load; late callers observe
// the first load's outcome instead of racing a second adapter call. Loads
// for different kinds never share a flight, so every source asked to
// reload is actually consulted. On failure the prior generation stays
// current and the error is returned.
func (s *Store) Reload(ctx context.Context, src source.Source) (*Snapshot, error) {
	v, err, _ := s.group.Do(string(src.Kind()), func() (interface{}, error) {
		jobs, err := src.LoadAll(ctx)
		if err != nil {
			return nil, err
		}
		snap := &Snapshot{Jobs: jobs, Source: src.Kind(), LastUpdated: time.Now()}
		s.snap.Store(snap)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}
