// Package repositories implements SQLite persistence for run history.
//
// Every pipeline (scan, retry, import, duplicates) records one row per completed run: where it read from, which playlist it touched, and the final counters.
// The history command reads these rows back newest first. Nothing in the matching path queries this package, so a missing database never blocks a run.
//
// Key Implementations:
//   - [RunRepository] : Run history persistence with kind filtering and result limits
//
// All queries exclude soft-deleted records; Delete sets deleted_at rather than removing the row.
// Schema setup lives in [shared.RunMigrations], which the setup command applies from embedded SQL files.
package repositories
