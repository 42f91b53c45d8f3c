package metadata

import (
	"regexp"
	"strings"
)

// lineSeparators in priority order. The first separator whose two sides are
// both non-empty wins.
var lineSeparators = []string{" - ", " – ", " — ", " | ", " // "}

// videoNoise matches YouTube title boilerplate that carries no song
// information. Bracketed phrases go first so their delimiters are removed
// with them, then bare tokens.
var videoNoise = []*regexp.Regexp{
	regexp.MustCompile(`(?i)[([]\s*official\s+music\s+video\s*[)\]]`),
	regexp.MustCompile(`(?i)[([]\s*official\s+video\s*[)\]]`),
	regexp.MustCompile(`(?i)[([]\s*official\s+audio\s*[)\]]`),
	regexp.MustCompile(`(?i)[([]\s*official\s+m/?v\s*[)\]]`),
	regexp.MustCompile(`(?i)[([]\s*(?:official\s+)?lyric\s+video\s*[)\]]`),
	regexp.MustCompile(`(?i)[([]\s*lyrics?\s*[)\]]`),
	regexp.MustCompile(`(?i)[([]\s*visuali[sz]er\s*[)\]]`),
	regexp.MustCompile(`(?i)[([]\s*audio\s*[)\]]`),
	regexp.MustCompile(`(?i)[([]\s*m/?v\s*[)\]]`),
	regexp.MustCompile(`(?i)[([]\s*(?:hd|4k)\s*[)\]]`),
	regexp.MustCompile(`(?i)\bm/?v\b`),
	regexp.MustCompile(`(?i)\bhd\b`),
	regexp.MustCompile(`(?i)\b4k\b`),
	regexp.MustCompile(`(?i)\blyrics?\b`),
}

var (
	spaceRuns = regexp.MustCompile(`\s{2,}`)
	edgeJunk  = regexp.MustCompile(`^[\s\-–—|·•/\\]+|[\s\-–—|·•/\\]+$`)
)

var (
	parenGroups   = regexp.MustCompile(`\s*\([^)]*\)`)
	bracketGroups = regexp.MustCompile(`\s*\[[^\]]*\]`)
	featClause    = regexp.MustCompile(`(?i)\s*[([]?\s*\b(?:feat|ft)\b\.?\s*[^)\]]*[)\]]?`)
)

// channelNoise strips uploader boilerplate so a channel name can stand in for
// an unknown artist ("BTS - Topic" -> "BTS", "TaylorSwiftVEVO" -> "TaylorSwift").
var channelNoise = regexp.MustCompile(`(?i)\s*[-–]?\s*(topic|vevo|official).*$`)

// ParseLine splits a display line into artist and title on the first
// separator with two non-empty sides. Lines with no usable separator are all
// title.
func ParseLine(line string) (artist, title string) {
	line = strings.TrimSpace(line)
	for _, sep := range lineSeparators {
		if left, right, ok := cutNonEmpty(line, sep); ok {
			return left, right
		}
	}
	return "", line
}

// CleanVideoTitle removes YouTube noise phrases and trims leftover separator
// punctuation from the edges. Interior separators survive so the artist-title
// split still works afterwards.
func CleanVideoTitle(s string) string {
	out := s
	for _, re := range videoNoise {
		out = re.ReplaceAllString(out, " ")
	}
	out = spaceRuns.ReplaceAllString(out, " ")
	out = edgeJunk.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// ParseVideoTitle cleans a YouTube video title and splits it into artist and
// title.
func ParseVideoTitle(s string) (artist, title string) {
	return ParseLine(CleanVideoTitle(s))
}

// CleanChannelName reduces an uploader or channel name to an artist guess.
func CleanChannelName(s string) string {
	return strings.TrimSpace(channelNoise.ReplaceAllString(s, ""))
}

// StripBrackets removes every parenthesized and bracketed group from a title,
// producing the variant used by fallback queries.
func StripBrackets(s string) string {
	out := parenGroups.ReplaceAllString(s, "")
	out = bracketGroups.ReplaceAllString(out, "")
	return strings.TrimSpace(spaceRuns.ReplaceAllString(out, " "))
}

// StripFeaturing removes a "feat."/"ft." clause, parenthesized or bare.
func StripFeaturing(s string) string {
	out := featClause.ReplaceAllString(s, "")
	return strings.TrimSpace(spaceRuns.ReplaceAllString(out, " "))
}

func cutNonEmpty(s, sep string) (left, right string, ok bool) {
	l, r, found := strings.Cut(s, sep)
	if !found {
		return "", "", false
	}
	l, r = strings.TrimSpace(l), strings.TrimSpace(r)
	if l == "" || r == "" {
		return "", "", false
	}
	return l, r, true
}
