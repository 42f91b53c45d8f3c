// Package tasks orchestrates the song-to-catalog pipelines with real-time progress reporting.
//
// # Core Operations
//
// [Engine] runs three matching pipelines:
//
//  1. [Engine.Scan] : Local library to playlist
//     - Counts and walks audio files under a directory
//     - Repairs mojibake tags and falls back to filename parsing
//     - Matches each song through the fallback query chain
//     - Adds hits in batches, logs misses to the failure log as they happen
//
//  2. [Engine.Retry] : Failure log second pass
//     - Re-parses and re-repairs each logged line
//     - Walks the full query chain again with periodic pauses
//     - Rewrites the log to the still-failing remainder
//
//  3. [Engine.Import] : Video playlist to playlist
//     - Extracts entries without downloading media
//     - Cleans video-title noise and splits artist from track
//     - Skips entries that normalize to an already-processed key
//
// and three playlist maintenance operations: [Engine.DuplicateScan],
// [Engine.DuplicateRemove] (backup first, then remove extra occurrences),
// and [Engine.DuplicateRestore] (re-add a backup's tracks).
//
// # Progress Reporting
//
// Pipelines emit [Event] values on a caller-supplied channel. The variants
// form a closed set ([Total], [Progress], [Match], [NoMatch], [Summary],
// [ErrorEvent]); sends use select with default so a slow consumer never
// stalls matching.
//
// # Failure Handling
//
// Transport errors fail the current song and the pipeline moves on; context
// cancellation and auth failures abort the run. Unmatched songs are flushed
// to the failure log line by line, so an interrupted scan still leaves a
// usable log behind.
//
// # Implementation
//
// [Engine] depends on:
//   - [services.Catalog] : the streaming catalog client
//   - [services.Extractor] : the video playlist extractor (Import only)
//   - [library.Scanner] : audio file discovery and tag reading
//   - [matcher.Matcher] : the fallback query chain with pacing
package tasks
