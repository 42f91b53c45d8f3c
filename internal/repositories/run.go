package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Topasm/MP3toSpotify/internal/models"
	"github.com/Topasm/MP3toSpotify/internal/shared"
)

// RunRepository implements [models.Repository] for [models.ScanRun] persistence.
//
// Run rows are append-mostly: each pipeline inserts one row when it finishes
// and the history command reads them back newest first. Matching never
// consults this table.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new [RunRepository] with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run record into the database with a generated ID
func (r *RunRepository) Create(run *models.ScanRun) error {
	id := shared.GenerateID()
	run.SetID(id)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO scan_runs (
			id, kind, source, playlist_id, playlist_name,
			total, matched, failed, skipped, removed,
			started_at, finished_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	totals := run.Totals()

	_, err := r.db.Exec(query,
		id,
		string(run.Kind()),
		run.Source(),
		run.PlaylistID(),
		run.PlaylistName(),
		totals.Total,
		totals.Matched,
		totals.Failed,
		totals.Skipped,
		totals.Removed,
		run.StartedAt(),
		run.FinishedAt(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run record by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.ScanRun, error) {
	query := `
		SELECT
			id, kind, source, playlist_id, playlist_name,
			total, matched, failed, skipped, removed,
			started_at, finished_at, created_at, updated_at, deleted_at
		FROM scan_runs
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// Update modifies an existing run record in the database.
//
// Kind, source, and the start timestamp are fixed at creation; only the
// playlist, the counters, and the finish timestamp can change.
func (r *RunRepository) Update(run *models.ScanRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE scan_runs
		SET playlist_id = ?, playlist_name = ?, total = ?, matched = ?,
			failed = ?, skipped = ?, removed = ?, finished_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	totals := run.Totals()

	result, err := r.db.Exec(query,
		run.PlaylistID(),
		run.PlaylistName(),
		totals.Total,
		totals.Matched,
		totals.Failed,
		totals.Skipped,
		totals.Removed,
		run.FinishedAt(),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found or already deleted: %s", run.ID())
	}

	return nil
}

// Delete soft-deletes a run record by ID
func (r *RunRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE scan_runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves run records matching the given criteria, excluding
// soft-deleted runs. Results are ordered newest first by start time.
//
// Supported criteria: "kind" filters by pipeline kind, "limit" caps the
// number of rows returned.
func (r *RunRepository) List(criteria map[string]any) ([]*models.ScanRun, error) {
	query := `
		SELECT
			id, kind, source, playlist_id, playlist_name,
			total, matched, failed, skipped, removed,
			started_at, finished_at, created_at, updated_at, deleted_at
		FROM scan_runs
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if kind, ok := criteria["kind"].(string); ok && kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}

	query += " ORDER BY started_at DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ScanRun
	for rows.Next() {
		run, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// scanOne scans a single [sql.Row] into a [models.ScanRun]
func (r *RunRepository) scanOne(row *sql.Row) (*models.ScanRun, error) {
	var (
		id           string
		kind         string
		source       string
		playlistID   string
		playlistName string
		total        int
		matched      int
		failed       int
		skipped      int
		removed      int
		startedAt    time.Time
		finishedAt   time.Time
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := row.Scan(
		&id, &kind, &source, &playlistID, &playlistName,
		&total, &matched, &failed, &skipped, &removed,
		&startedAt, &finishedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := models.NewScanRun(models.RunKind(kind), source)
	run.SetID(id)
	run.SetPlaylist(playlistID, playlistName)
	run.SetTotals(models.RunTotals{
		Total:   total,
		Matched: matched,
		Failed:  failed,
		Skipped: skipped,
		Removed: removed,
	})
	run.SetStartedAt(startedAt)
	run.SetFinishedAt(finishedAt)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}

// scanRow scans a row from [sql.Rows] into a [models.ScanRun]
func (r *RunRepository) scanRow(rows *sql.Rows) (*models.ScanRun, error) {
	var (
		id           string
		kind         string
		source       string
		playlistID   string
		playlistName string
		total        int
		matched      int
		failed       int
		skipped      int
		removed      int
		startedAt    time.Time
		finishedAt   time.Time
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := rows.Scan(
		&id, &kind, &source, &playlistID, &playlistName,
		&total, &matched, &failed, &skipped, &removed,
		&startedAt, &finishedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := models.NewScanRun(models.RunKind(kind), source)
	run.SetID(id)
	run.SetPlaylist(playlistID, playlistName)
	run.SetTotals(models.RunTotals{
		Total:   total,
		Matched: matched,
		Failed:  failed,
		Skipped: skipped,
		Removed: removed,
	})
	run.SetStartedAt(startedAt)
	run.SetFinishedAt(finishedAt)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}
