package repositories

import (
	"database/sql"
	"testing"
	"time"

	"github.com/Topasm/MP3toSpotify/internal/models"
	"github.com/Topasm/MP3toSpotify/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// finishedRun builds a completed run record with the given kind and counters.
func finishedRun(kind models.RunKind, source string, totals models.RunTotals) *models.ScanRun {
	run := models.NewScanRun(kind, source)
	run.SetPlaylist("pl1", "Mixtape")
	run.Finish(totals)
	return run
}

func TestRunRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := finishedRun(models.RunScan, "/music", models.RunTotals{Total: 10, Matched: 8, Failed: 2})

		err := repo.Create(run)
		if err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if run.ID() == "" {
			t.Error("run ID should be set after creation")
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := finishedRun(models.RunImport, "https://youtube.com/playlist?list=abc", models.RunTotals{Total: 5, Matched: 3, Failed: 1, Skipped: 1})

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}

		if retrieved.ID() != run.ID() {
			t.Errorf("expected ID %s, got %s", run.ID(), retrieved.ID())
		}
		if retrieved.Kind() != models.RunImport {
			t.Errorf("expected kind %s, got %s", models.RunImport, retrieved.Kind())
		}
		if retrieved.Source() != run.Source() {
			t.Errorf("expected source %s, got %s", run.Source(), retrieved.Source())
		}
		if retrieved.PlaylistName() != "Mixtape" {
			t.Errorf("expected playlist name Mixtape, got %s", retrieved.PlaylistName())
		}
		if retrieved.Totals() != run.Totals() {
			t.Errorf("expected totals %+v, got %+v", run.Totals(), retrieved.Totals())
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := finishedRun(models.RunScan, "/music", models.RunTotals{Total: 4, Matched: 4})

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		run.SetTotals(models.RunTotals{Total: 4, Matched: 3, Failed: 1})
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if retrieved.Totals().Failed != 1 {
			t.Errorf("expected 1 failed after update, got %d", retrieved.Totals().Failed)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := finishedRun(models.RunRetry, "failed_matches.txt", models.RunTotals{Total: 2, Matched: 2})

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if err := repo.Delete(run.ID()); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}

		_, err := repo.Get(run.ID())
		if err == nil {
			t.Error("expected error when getting deleted run")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		now := time.Now()

		oldest := finishedRun(models.RunScan, "/music/a", models.RunTotals{Total: 1, Matched: 1})
		oldest.SetStartedAt(now.Add(-2 * time.Hour))
		middle := finishedRun(models.RunImport, "https://youtube.com/playlist?list=abc", models.RunTotals{Total: 2, Matched: 2})
		middle.SetStartedAt(now.Add(-1 * time.Hour))
		newest := finishedRun(models.RunScan, "/music/b", models.RunTotals{Total: 3, Matched: 3})
		newest.SetStartedAt(now)

		for _, run := range []*models.ScanRun{oldest, middle, newest} {
			if err := repo.Create(run); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		runs, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(runs))
		}
		if runs[0].Source() != "/music/b" {
			t.Errorf("expected newest run first, got source %s", runs[0].Source())
		}
		if runs[2].Source() != "/music/a" {
			t.Errorf("expected oldest run last, got source %s", runs[2].Source())
		}
	})

	t.Run("ListByKind", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)

		for _, run := range []*models.ScanRun{
			finishedRun(models.RunScan, "/music", models.RunTotals{Total: 1, Matched: 1}),
			finishedRun(models.RunImport, "https://youtube.com/playlist?list=abc", models.RunTotals{Total: 1, Matched: 1}),
			finishedRun(models.RunScan, "/other", models.RunTotals{Total: 1, Matched: 1}),
		} {
			if err := repo.Create(run); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		runs, err := repo.List(map[string]any{"kind": string(models.RunImport)})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 import run, got %d", len(runs))
		}
		if runs[0].Kind() != models.RunImport {
			t.Errorf("expected import run, got %s", runs[0].Kind())
		}
	})

	t.Run("ListWithLimit", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		now := time.Now()

		for i := 0; i < 5; i++ {
			run := finishedRun(models.RunScan, "/music", models.RunTotals{Total: 1, Matched: 1})
			run.SetStartedAt(now.Add(time.Duration(-i) * time.Minute))
			if err := repo.Create(run); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		runs, err := repo.List(map[string]any{"limit": 2})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
	})
}

func TestRunRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewRunRepository(db)
			run := models.NewScanRun("bogus", "/music")

			if err := repo.Create(run); err == nil {
				t.Fatal("expected validation error for unknown run kind")
			}
		})

		t.Run("EmptySource", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewRunRepository(db)
			run := models.NewScanRun(models.RunScan, "")

			if err := repo.Create(run); err == nil {
				t.Fatal("expected validation error for empty source")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewRunRepository(db)

			_, err := repo.Get("nonexistent-id")
			if err == nil {
				t.Fatal("expected error when getting nonexistent run")
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewRunRepository(db)
			run := models.NewScanRun(models.RunScan, "/music")
			run.SetID("nonexistent-id")

			if err := repo.Update(run); err == nil {
				t.Fatal("expected error when updating nonexistent run")
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("AlreadyDeleted", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewRunRepository(db)
			run := finishedRun(models.RunScan, "/music", models.RunTotals{Total: 1, Matched: 1})

			if err := repo.Create(run); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
			if err := repo.Delete(run.ID()); err != nil {
				t.Fatalf("failed to delete run: %v", err)
			}

			if err := repo.Delete(run.ID()); err == nil {
				t.Fatal("expected error when deleting an already deleted run")
			}
		})
	})

	t.Run("List", func(t *testing.T) {
		t.Run("ExcludesDeleted", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewRunRepository(db)

			kept := finishedRun(models.RunScan, "/music/kept", models.RunTotals{Total: 1, Matched: 1})
			dropped := finishedRun(models.RunScan, "/music/dropped", models.RunTotals{Total: 1, Matched: 1})

			for _, run := range []*models.ScanRun{kept, dropped} {
				if err := repo.Create(run); err != nil {
					t.Fatalf("failed to create run: %v", err)
				}
			}

			if err := repo.Delete(dropped.ID()); err != nil {
				t.Fatalf("failed to delete run: %v", err)
			}

			runs, err := repo.List(map[string]any{})
			if err != nil {
				t.Fatalf("failed to list runs: %v", err)
			}
			if len(runs) != 1 {
				t.Fatalf("expected 1 run, got %d", len(runs))
			}
			if runs[0].Source() != "/music/kept" {
				t.Errorf("expected surviving run, got source %s", runs[0].Source())
			}
		})
	})
}
