package library

import (
	"path/filepath"
	"regexp"
	"strings"

	id3v2 "github.com/bogem/id3v2/v2"

	"github.com/Topasm/MP3toSpotify/internal/services"
)

// trackNumber matches a leading "01. " / "03 - " style prefix on a filename
// stem.
var trackNumber = regexp.MustCompile(`^\d{1,3}[.\-\s]+\s*`)

// stemSeparators split a filename stem into artist and title.
var stemSeparators = []string{" - ", " — ", " – ", "_-_"}

// readSong reads the ID3v2 tag at path, filling whatever the tag leaves
// missing from the filename stem. Every recovered field passes through
// mojibake repair.
func (s *Scanner) readSong(path string) services.Song {
	song := services.Song{Path: path}

	if tag, err := id3v2.Open(path, id3v2.Options{Parse: true}); err == nil {
		song.Title = strings.TrimSpace(tag.Title())
		song.Artist = strings.TrimSpace(tag.Artist())
		song.Album = strings.TrimSpace(tag.Album())
		tag.Close()
	} else {
		s.logger.Debug("unreadable tag, falling back to filename", "path", path, "error", err)
	}

	if song.Title == "" || song.Artist == "" {
		fillFromStem(&song, filepath.Base(path))
	}

	song.Title = s.repairer.Repair(song.Title)
	song.Artist = s.repairer.Repair(song.Artist)
	song.Album = s.repairer.Repair(song.Album)
	return song
}

// fillFromStem recovers missing fields from a filename: the first separator
// with two non-empty sides supplies whichever of artist and title is absent,
// otherwise the whole stem becomes the title. A leading track number is
// stripped from the resulting title.
func fillFromStem(song *services.Song, base string) {
	stem := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))

	for _, sep := range stemSeparators {
		left, right, found := strings.Cut(stem, sep)
		if !found {
			continue
		}
		left, right = strings.TrimSpace(left), strings.TrimSpace(right)
		if left == "" || right == "" {
			continue
		}
		if song.Artist == "" {
			song.Artist = left
		}
		if song.Title == "" {
			song.Title = right
		}
		break
	}

	if song.Title == "" {
		song.Title = stem
	}
	song.Title = strings.TrimSpace(trackNumber.ReplaceAllString(song.Title, ""))
}
