// package duplicates finds repeated playlist entries and plans their removal.
package duplicates

import (
	"sort"

	"github.com/Topasm/MP3toSpotify/internal/services"
)

// Group is one catalog track appearing more than once in a playlist.
// Positions are ascending; removal keeps the first.
type Group struct {
	ID        string
	URI       string
	Name      string
	Artist    string
	Positions []int
}

// Occurrences returns how many times the track appears.
func (g Group) Occurrences() int { return len(g.Positions) }

// Detect groups playlist entries by catalog ID and returns those appearing
// at least twice, in first-seen order. Entries without an ID (local files)
// cannot be told apart and are ignored.
func Detect(tracks []services.PlaylistTrack) []Group {
	byID := make(map[string]*Group)
	var order []string

	for _, t := range tracks {
		if t.ID == "" {
			continue
		}
		g, ok := byID[t.ID]
		if !ok {
			g = &Group{ID: t.ID, URI: t.URI, Name: t.Name, Artist: t.Artist}
			byID[t.ID] = g
			order = append(order, t.ID)
		}
		g.Positions = append(g.Positions, t.Position)
	}

	var out []Group
	for _, id := range order {
		g := byID[id]
		if len(g.Positions) < 2 {
			continue
		}
		sort.Ints(g.Positions)
		out = append(out, *g)
	}
	return out
}

// Plan flattens duplicate groups into catalog removals (every position after
// the first, merged per URI) and one backup record per removed occurrence.
func Plan(groups []Group) ([]services.Removal, []Removed) {
	var removals []services.Removal
	var records []Removed

	for _, g := range groups {
		extra := g.Positions[1:]
		removals = append(removals, services.Removal{
			URI:       g.URI,
			Positions: append([]int(nil), extra...),
		})
		for _, pos := range extra {
			records = append(records, Removed{
				ID:       g.ID,
				URI:      g.URI,
				Name:     g.Name,
				Artist:   g.Artist,
				Position: pos,
				Total:    len(g.Positions),
			})
		}
	}
	return removals, records
}
