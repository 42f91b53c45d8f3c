package tasks

import (
	"github.com/Topasm/MP3toSpotify/internal/models"
	"github.com/Topasm/MP3toSpotify/internal/services"
)

// Event is one progress signal from a running pipeline.
//
// The variants form a closed set: [Total], [Progress], [Match], [NoMatch],
// [Summary], and [ErrorEvent]. The CLI layer renders them for humans or
// serializes them one per line; engines only construct and send them.
type Event interface {
	// Type returns the variant tag used by structured output.
	Type() string

	isEvent()
}

// Total announces how many entries the pipeline is about to process. Sent
// once, before the first [Progress].
type Total struct {
	Count int
}

// Progress marks the start of work on one entry. Index is one-based.
type Progress struct {
	Index int
	Total int
	Song  services.Song
}

// Match reports a catalog hit for a song. Duplicate is set when the hit was
// already matched earlier in the same run and will not be added again.
type Match struct {
	Song      services.Song
	Track     services.TrackMatch
	Duplicate bool
}

// NoMatch reports that every query for a song came back empty.
type NoMatch struct {
	Song   services.Song
	Reason string
}

// Summary closes a pipeline with its final counters.
type Summary struct {
	Kind   models.RunKind
	Totals models.RunTotals
}

// ErrorEvent reports a per-entry failure the pipeline survived. Fatal errors
// are returned from the engine method instead.
type ErrorEvent struct {
	Stage string
	Err   error
}

func (Total) Type() string      { return "total" }
func (Progress) Type() string   { return "progress" }
func (Match) Type() string      { return "match" }
func (NoMatch) Type() string    { return "no_match" }
func (Summary) Type() string    { return "summary" }
func (ErrorEvent) Type() string { return "error" }

func (Total) isEvent()      {}
func (Progress) isEvent()   {}
func (Match) isEvent()      {}
func (NoMatch) isEvent()    {}
func (Summary) isEvent()    {}
func (ErrorEvent) isEvent() {}
