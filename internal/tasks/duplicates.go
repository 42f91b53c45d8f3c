package tasks

import (
	"context"
	"fmt"

	"github.com/Topasm/MP3toSpotify/internal/duplicates"
	"github.com/Topasm/MP3toSpotify/internal/services"
	"github.com/Topasm/MP3toSpotify/internal/shared"
)

// defaultBackupDir is used when no backup directory was configured.
const defaultBackupDir = "backups"

// DuplicateReport is the outcome of a duplicate scan: the playlist as it
// looked at scan time (snapshot included) and every track that appears more
// than once.
type DuplicateReport struct {
	Playlist services.Playlist
	Groups   []duplicates.Group
	Total    int // playlist entries examined
}

// Extra returns how many occurrences a removal of every group would delete.
func (r *DuplicateReport) Extra() int {
	n := 0
	for _, g := range r.Groups {
		n += g.Occurrences() - 1
	}
	return n
}

// RemovalResult is the outcome of a duplicate removal.
type RemovalResult struct {
	Playlist   services.Playlist
	Groups     []duplicates.Group
	Removed    int
	BackupPath string
	SnapshotID string // snapshot after the removal
}

// RestoreResult is the outcome of re-adding a backup.
type RestoreResult struct {
	Backup   *duplicates.Backup
	Playlist services.Playlist
	Restored int
}

// DuplicateScan fetches a playlist and detects every track that occurs more
// than once. ref may be a playlist ID or, failing that, an owned playlist
// name. Nothing is modified.
func (e *Engine) DuplicateScan(ctx context.Context, ref string) (*DuplicateReport, error) {
	if err := e.requireCatalog(); err != nil {
		return nil, err
	}

	playlist, err := e.resolvePlaylist(ctx, ref)
	if err != nil {
		return nil, err
	}
	tracks, err := e.catalog.PlaylistTracks(ctx, playlist.ID)
	if err != nil {
		return nil, err
	}

	groups := duplicates.Detect(tracks)
	e.logger.Info("scanned playlist",
		"playlist", playlist.Name, "entries", len(tracks), "duplicates", len(groups))
	return &DuplicateReport{Playlist: playlist, Groups: groups, Total: len(tracks)}, nil
}

// DuplicateRemove scans ref and removes every extra occurrence it finds,
// writing a backup file first.
func (e *Engine) DuplicateRemove(ctx context.Context, ref string) (*RemovalResult, error) {
	report, err := e.DuplicateScan(ctx, ref)
	if err != nil {
		return nil, err
	}
	return e.RemoveGroups(ctx, report.Playlist, report.Groups)
}

// RemoveGroups backs up and removes the extra occurrences of groups. The
// removal runs against the snapshot the groups were detected on, so entries
// moved by a concurrent edit are not deleted by position. The first
// occurrence of each track always survives.
func (e *Engine) RemoveGroups(ctx context.Context, playlist services.Playlist, groups []duplicates.Group) (*RemovalResult, error) {
	if err := e.requireCatalog(); err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return &RemovalResult{Playlist: playlist, SnapshotID: playlist.SnapshotID}, nil
	}

	removals, records := duplicates.Plan(groups)

	dir := e.backups
	if dir == "" {
		dir = defaultBackupDir
	}
	backupPath, err := duplicates.WriteBackup(dir, playlist, records)
	if err != nil {
		return nil, err
	}
	e.logger.Info("wrote backup", "path", backupPath, "tracks", len(records))

	snapshot, err := e.catalog.RemoveTracks(ctx, playlist.ID, removals, playlist.SnapshotID)
	if err != nil {
		e.logger.Warn("removal failed, backup kept", "backup", backupPath)
		return nil, err
	}
	e.logger.Info("removed duplicates",
		"playlist", playlist.Name, "removed", len(records), "backup", backupPath)

	return &RemovalResult{
		Playlist:   playlist,
		Groups:     groups,
		Removed:    len(records),
		BackupPath: backupPath,
		SnapshotID: snapshot,
	}, nil
}

// DuplicateRestore re-adds the tracks recorded in a backup file to the
// playlist they were removed from. Tracks are appended; the original
// positions are not restored.
func (e *Engine) DuplicateRestore(ctx context.Context, backupPath string) (*RestoreResult, error) {
	if err := e.requireCatalog(); err != nil {
		return nil, err
	}

	backup, err := duplicates.LoadBackup(backupPath)
	if err != nil {
		return nil, err
	}
	ids := backup.TrackIDs()
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: backup has no restorable tracks", shared.ErrInvalidInput)
	}

	playlist, err := e.catalog.Playlist(ctx, backup.PlaylistID)
	if err != nil {
		return nil, err
	}
	if _, err := e.catalog.AddTracks(ctx, playlist.ID, ids); err != nil {
		return nil, err
	}
	e.logger.Info("restored tracks", "playlist", playlist.Name, "count", len(ids))

	return &RestoreResult{Backup: backup, Playlist: playlist, Restored: len(ids)}, nil
}

// resolvePlaylist looks ref up as a playlist ID and falls back to an
// owned-playlist name match, so commands accept either form. Name hits are
// re-fetched by ID for a current snapshot.
func (e *Engine) resolvePlaylist(ctx context.Context, ref string) (services.Playlist, error) {
	playlist, err := e.catalog.Playlist(ctx, ref)
	if err == nil {
		return playlist, nil
	}

	playlists, listErr := e.catalog.Playlists(ctx)
	if listErr != nil {
		return services.Playlist{}, listErr
	}
	for _, pl := range playlists {
		if pl.Name == ref {
			return e.catalog.Playlist(ctx, pl.ID)
		}
	}
	return services.Playlist{}, fmt.Errorf("%w: %q", shared.ErrPlaylistNotFound, ref)
}
