// package matcher turns songs into ordered fallback queries and walks them
// against a catalog until one hits.
package matcher

import (
	"fmt"
	"strings"

	"github.com/Topasm/MP3toSpotify/internal/metadata"
	"github.com/Topasm/MP3toSpotify/internal/services"
)

// BuildQueries returns the fallback queries for song, most precise first,
// deduplicated by exact string with the first occurrence kept. A song without
// a title yields no queries.
func BuildQueries(song services.Song) []services.Query {
	title := strings.TrimSpace(song.Title)
	artist := strings.TrimSpace(song.Artist)
	if title == "" {
		return nil
	}

	var out []services.Query
	seen := make(map[string]bool)
	add := func(text string, structured bool) {
		text = strings.TrimSpace(text)
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		out = append(out, services.Query{Text: text, Structured: structured})
	}

	// Queries for a title variant. With an artist the structured pair query
	// beats the bare track: query, so the latter is not emitted for variants.
	variant := func(v string) {
		if artist != "" {
			add(fmt.Sprintf("track:%s artist:%s", v, artist), true)
			add(fmt.Sprintf("%s %s", artist, v), false)
			return
		}
		add("track:"+v, true)
	}

	if artist != "" {
		add(fmt.Sprintf("track:%s artist:%s", title, artist), true)
		add(fmt.Sprintf("%s %s", artist, title), false)
	}

	add("track:"+title, true)

	if artist == "" {
		if guess := metadata.CleanChannelName(song.Channel); guess != "" {
			add(fmt.Sprintf("track:%s artist:%s", title, guess), true)
			add(fmt.Sprintf("%s %s", guess, title), false)
		}
	}

	stripped := metadata.StripBrackets(title)
	if stripped != "" && stripped != title {
		variant(stripped)
	}

	unfeat := metadata.StripFeaturing(title)
	if unfeat != "" && unfeat != title && unfeat != stripped {
		variant(unfeat)
	}

	return out
}
