// package formatter renders run history, duplicate reports, and failure lists as plain text, CSV, or Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Topasm/MP3toSpotify/internal/duplicates"
	"github.com/Topasm/MP3toSpotify/internal/models"
	"github.com/Topasm/MP3toSpotify/internal/services"
)

// Format selects an output rendering for report commands.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// timeLayout is how report timestamps are shown to humans.
const timeLayout = "2006-01-02 15:04"

// ParseFormat validates a --format flag value. The empty string means text,
// and "md" is accepted as shorthand for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", string(FormatText):
		return FormatText, nil
	case string(FormatCSV):
		return FormatCSV, nil
	case "md", string(FormatMarkdown):
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown format: %q (want text, csv, or markdown)", s)
}

// RunsToText converts run history to plain text format
func RunsToText(runs []*models.ScanRun) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Runs: %d\n\n", len(runs)))

	for i, run := range runs {
		target := ""
		if run.PlaylistName() != "" {
			target = fmt.Sprintf(" -> %s", run.PlaylistName())
		}
		buf.WriteString(fmt.Sprintf("%d. [%s] %s%s: %s (%s, took %s)\n",
			i+1, run.Kind(), run.Source(), target, totalsLine(run.Totals()),
			run.StartedAt().Format(timeLayout), run.Duration().Round(time.Second)))
	}

	return buf.Bytes(), nil
}

// RunsToCSV converts run history to CSV format with columns: ID, Kind, Source, Playlist, Total, Matched, Failed, Skipped, Removed, Started, Duration
func RunsToCSV(runs []*models.ScanRun) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Kind", "Source", "Playlist", "Total", "Matched", "Failed", "Skipped", "Removed", "Started", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, run := range runs {
		totals := run.Totals()
		record := []string{
			run.ID(),
			string(run.Kind()),
			run.Source(),
			run.PlaylistName(),
			strconv.Itoa(totals.Total),
			strconv.Itoa(totals.Matched),
			strconv.Itoa(totals.Failed),
			strconv.Itoa(totals.Skipped),
			strconv.Itoa(totals.Removed),
			run.StartedAt().Format(time.RFC3339),
			run.Duration().Round(time.Second).String(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// RunsToMarkdown converts run history to a Markdown table
func RunsToMarkdown(runs []*models.ScanRun) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Run History\n\n")
	buf.WriteString(fmt.Sprintf("**Runs**: %d\n\n", len(runs)))

	buf.WriteString("| Kind | Source | Playlist | Matched | Failed | Skipped | Removed | Started | Duration |\n")
	buf.WriteString("|------|--------|----------|---------|--------|---------|---------|---------|----------|\n")
	for _, run := range runs {
		totals := run.Totals()
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %d/%d | %d | %d | %d | %s | %s |\n",
			run.Kind(), run.Source(), run.PlaylistName(),
			totals.Matched, totals.Total, totals.Failed, totals.Skipped, totals.Removed,
			run.StartedAt().Format(timeLayout), run.Duration().Round(time.Second)))
	}

	return buf.Bytes(), nil
}

// DuplicatesToText converts a duplicate report to plain text format
func DuplicatesToText(playlist services.Playlist, groups []duplicates.Group) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s (%d tracks)\n", playlist.Name, playlist.Tracks))
	buf.WriteString(fmt.Sprintf("Duplicate groups: %d, extra copies: %d\n\n", len(groups), extraCopies(groups)))

	for i, g := range groups {
		buf.WriteString(fmt.Sprintf("%d. %s: %d copies at positions %s (keeping %d)\n",
			i+1, trackLabel(g.Name, g.Artist), g.Occurrences(), joinPositions(g.Positions), g.Positions[0]))
	}

	return buf.Bytes(), nil
}

// DuplicatesToCSV converts a duplicate report to CSV format with columns: ID, Title, Artist, Copies, Positions, Keep
func DuplicatesToCSV(playlist services.Playlist, groups []duplicates.Group) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Copies", "Positions", "Keep"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, g := range groups {
		record := []string{
			g.ID,
			g.Name,
			g.Artist,
			strconv.Itoa(g.Occurrences()),
			joinPositions(g.Positions),
			strconv.Itoa(g.Positions[0]),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// DuplicatesToMarkdown converts a duplicate report to a Markdown table
func DuplicatesToMarkdown(playlist services.Playlist, groups []duplicates.Group) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Duplicates: %s\n\n", playlist.Name))
	buf.WriteString(fmt.Sprintf("**Groups**: %d\n", len(groups)))
	buf.WriteString(fmt.Sprintf("**Extra copies**: %d\n\n", extraCopies(groups)))

	buf.WriteString("| Title | Artist | Copies | Positions | Keep |\n")
	buf.WriteString("|-------|--------|--------|-----------|------|\n")
	for _, g := range groups {
		buf.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %d |\n",
			g.Name, g.Artist, g.Occurrences(), joinPositions(g.Positions), g.Positions[0]))
	}

	return buf.Bytes(), nil
}

// FailuresToText converts a failed song list to plain text format
func FailuresToText(songs []services.Song) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Failed songs: %d\n\n", len(songs)))
	for i, song := range songs {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, song.Display()))
	}

	return buf.Bytes(), nil
}

// FailuresToCSV converts a failed song list to CSV format with columns: Artist, Title
func FailuresToCSV(songs []services.Song) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Artist", "Title"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		if err := writer.Write([]string{song.Artist, song.Title}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// FailuresToMarkdown converts a failed song list to a Markdown table
func FailuresToMarkdown(songs []services.Song) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Failed Songs\n\n")
	buf.WriteString("| # | Artist | Title |\n")
	buf.WriteString("|---|--------|-------|\n")
	for i, song := range songs {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s |\n", i+1, song.Artist, song.Title))
	}

	return buf.Bytes(), nil
}

// totalsLine renders run counters the way progress summaries read them out,
// omitting zero counts after the matched ratio.
func totalsLine(t models.RunTotals) string {
	line := fmt.Sprintf("%d/%d matched", t.Matched, t.Total)
	if t.Failed > 0 {
		line += fmt.Sprintf(", %d failed", t.Failed)
	}
	if t.Skipped > 0 {
		line += fmt.Sprintf(", %d skipped", t.Skipped)
	}
	if t.Removed > 0 {
		line += fmt.Sprintf(", %d removed", t.Removed)
	}
	return line
}

// trackLabel joins artist and title the way failure logs do.
func trackLabel(name, artist string) string {
	if artist != "" {
		return artist + " - " + name
	}
	return name
}

func extraCopies(groups []duplicates.Group) int {
	extra := 0
	for _, g := range groups {
		extra += g.Occurrences() - 1
	}
	return extra
}

func joinPositions(positions []int) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}
