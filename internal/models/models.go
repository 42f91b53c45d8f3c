// package models defines the data model for run history and shared persistence interfaces
package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// RunKind identifies which pipeline produced a run record.
type RunKind string

const (
	RunScan       RunKind = "scan"
	RunRetry      RunKind = "retry"
	RunImport     RunKind = "import"
	RunDuplicates RunKind = "duplicates"
)

// Valid reports whether k is one of the known run kinds.
func (k RunKind) Valid() bool {
	switch k {
	case RunScan, RunRetry, RunImport, RunDuplicates:
		return true
	}
	return false
}

// RunTotals aggregates the counters a run summary reports.
type RunTotals struct {
	Total   int
	Matched int
	Failed  int
	Skipped int
	Removed int
}

// ScanRun records the outcome of one pipeline run: where it read from, which
// playlist it touched, and the final counters.
type ScanRun struct {
	id           string
	kind         RunKind
	source       string
	playlistID   string
	playlistName string
	totals       RunTotals
	startedAt    time.Time
	finishedAt   time.Time
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewScanRun creates a run record for the given pipeline kind and source
// (directory, failure log path, or playlist URL). The start clock begins now.
func NewScanRun(kind RunKind, source string) *ScanRun {
	now := time.Now()
	return &ScanRun{
		kind:      kind,
		source:    source,
		startedAt: now,
		createdAt: now,
		updatedAt: now,
	}
}

func (r *ScanRun) ID() string            { return r.id }
func (r *ScanRun) Kind() RunKind         { return r.kind }
func (r *ScanRun) Source() string        { return r.source }
func (r *ScanRun) PlaylistID() string    { return r.playlistID }
func (r *ScanRun) PlaylistName() string  { return r.playlistName }
func (r *ScanRun) Totals() RunTotals     { return r.totals }
func (r *ScanRun) StartedAt() time.Time  { return r.startedAt }
func (r *ScanRun) FinishedAt() time.Time { return r.finishedAt }
func (r *ScanRun) CreatedAt() time.Time  { return r.createdAt }
func (r *ScanRun) UpdatedAt() time.Time  { return r.updatedAt }
func (r *ScanRun) DeletedAt() *time.Time { return r.deletedAt }

func (r *ScanRun) SetID(id string)             { r.id = id }
func (r *ScanRun) SetPlaylist(id, name string) { r.playlistID, r.playlistName = id, name }
func (r *ScanRun) SetTotals(t RunTotals)       { r.totals = t }
func (r *ScanRun) SetStartedAt(t time.Time)    { r.startedAt = t }
func (r *ScanRun) SetFinishedAt(t time.Time)   { r.finishedAt = t }
func (r *ScanRun) SetCreatedAt(t time.Time)    { r.createdAt = t }
func (r *ScanRun) SetUpdatedAt(t time.Time)    { r.updatedAt = t }
func (r *ScanRun) SetDeletedAt(t *time.Time)   { r.deletedAt = t }

// Finish stamps the end of the run and stores its final counters.
func (r *ScanRun) Finish(t RunTotals) {
	r.totals = t
	r.finishedAt = time.Now()
	r.updatedAt = r.finishedAt
}

// Duration returns how long the run took, zero until [ScanRun.Finish] is called.
func (r *ScanRun) Duration() time.Duration {
	if r.finishedAt.IsZero() {
		return 0
	}
	return r.finishedAt.Sub(r.startedAt)
}

// Validate checks the run record before persistence.
func (r *ScanRun) Validate() error {
	if !r.kind.Valid() {
		return fmt.Errorf("invalid run kind: %q", r.kind)
	}
	if r.source == "" {
		return fmt.Errorf("run source is required")
	}
	if !r.finishedAt.IsZero() && r.finishedAt.Before(r.startedAt) {
		return fmt.Errorf("run finished before it started")
	}
	return nil
}
