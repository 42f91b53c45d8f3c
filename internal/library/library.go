// package library walks local music folders and recovers song metadata from
// tags or filenames.
package library

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/Topasm/MP3toSpotify/internal/metadata"
	"github.com/Topasm/MP3toSpotify/internal/services"
	"github.com/Topasm/MP3toSpotify/internal/shared"
)

// AudioExtensions are the default file types recognized as songs.
var AudioExtensions = []string{
	".mp3", ".flac", ".ogg", ".opus", ".wma", ".wav",
	".m4a", ".aac", ".aiff", ".dsf", ".wv",
}

// Scanner finds audio files under a root directory and reads their metadata.
type Scanner struct {
	repairer *metadata.Repairer
	logger   *log.Logger
	exts     map[string]bool
}

func NewScanner(cfg shared.LibraryConfig, repairer *metadata.Repairer, logger *log.Logger) *Scanner {
	if repairer == nil {
		repairer = metadata.NewRepairer("", 0)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = AudioExtensions
	}
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set[strings.ToLower(e)] = true
	}

	return &Scanner{repairer: repairer, logger: logger, exts: set}
}

// Count returns how many audio files a scan of root would visit. It reads no
// tags, so totals are available before the slow pass starts.
func (s *Scanner) Count(root string, recursive bool) (int, error) {
	count := 0
	err := s.walk(root, recursive, func(string) { count++ })
	return count, err
}

// Scan reads every audio file under root into a Song, in walk order. Files
// whose tags cannot be read still produce a Song from the filename.
func (s *Scanner) Scan(root string, recursive bool) ([]services.Song, error) {
	var songs []services.Song
	err := s.walk(root, recursive, func(path string) {
		songs = append(songs, s.readSong(path))
	})
	return songs, err
}

// walk visits audio files under root. Dotfiles and dot-directories are
// skipped; without recursive only root itself is read.
func (s *Scanner) walk(root string, recursive bool, visit func(path string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if !recursive || strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}
		if !s.exts[strings.ToLower(filepath.Ext(name))] {
			return nil
		}

		visit(path)
		return nil
	})
}
