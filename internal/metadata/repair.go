package metadata

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// DefaultMinConfidence is the charset detector confidence (0-1) required
// before a detected encoding is trusted over the Korean-family fallback.
const DefaultMinConfidence = 0.7

// Repairer fixes mojibake text fields: bytes of a legacy encoding that were
// decoded as Latin-1 somewhere upstream of the tag reader.
type Repairer struct {
	detector      *chardet.Detector
	minConfidence int
	fallbacks     []encoding.Encoding
}

// NewRepairer creates a Repairer. fallback names the last encoding of the
// fallback chain (default "euc-kr"); minConfidence is the detector threshold
// in 0-1 (values <= 0 use [DefaultMinConfidence]).
func NewRepairer(fallback string, minConfidence float64) *Repairer {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}

	// EUC-KR and CP949 share one decoder in x/text, so the Korean family
	// collapses to a single attempt before the configured fallback.
	chain := []encoding.Encoding{korean.EUCKR}
	if enc := encodingByName(fallback); enc != nil && enc != korean.EUCKR {
		chain = append(chain, enc)
	}

	return &Repairer{
		detector:      chardet.NewTextDetector(),
		minConfidence: int(minConfidence * 100),
		fallbacks:     chain,
	}
}

// Repair returns s with its legacy-encoding damage undone, or s unchanged
// when it is not a repair candidate or no decode attempt produces clean text.
func (r *Repairer) Repair(s string) string {
	if s == "" || s == "None" {
		return s
	}
	if !mojibakeCandidate(s) {
		return s
	}

	raw := latin1Bytes(s)

	var attempts []encoding.Encoding
	if best, err := r.detector.DetectBest(raw); err == nil && best.Confidence >= r.minConfidence {
		if enc := encodingByName(best.Charset); enc != nil {
			attempts = append(attempts, enc)
		}
	}
	attempts = append(attempts, r.fallbacks...)

	for _, enc := range attempts {
		if fixed, ok := decodeClean(enc, raw); ok {
			return fixed
		}
	}

	return s
}

// RepairSides repairs the artist and title halves of an "Artist - Title" line
// independently, so a clean side cannot mask damage on the other. Lines
// without the separator are repaired whole.
func (r *Repairer) RepairSides(s string) string {
	if artist, title, ok := strings.Cut(s, " - "); ok {
		return r.Repair(artist) + " - " + r.Repair(title)
	}
	return r.Repair(s)
}

// mojibakeCandidate reports whether s looks like Latin-1-decoded legacy bytes:
// every rune below U+0100 and at least one in the upper half. Pure ASCII and
// strings that already carry wide characters are not candidates.
func mojibakeCandidate(s string) bool {
	high := false
	for _, c := range s {
		if c > 0xFF {
			return false
		}
		if c >= 0x80 {
			high = true
		}
	}
	return high
}

// latin1Bytes recovers the original byte sequence of a candidate string. For
// Latin-1 the rune value is the byte value.
func latin1Bytes(s string) []byte {
	b := make([]byte, 0, len(s))
	for _, c := range s {
		b = append(b, byte(c))
	}
	return b
}

// decodeClean decodes raw with enc and reports whether the result is usable.
// x/text decoders substitute U+FFFD for undecodable bytes rather than
// erroring, so a replacement rune in the output counts as a failed attempt.
func decodeClean(enc encoding.Encoding, raw []byte) (string, bool) {
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

// encodingByName maps charset names, both config values and detector output,
// onto x/text encodings. Unknown names return nil.
func encodingByName(name string) encoding.Encoding {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "euc-kr", "euckr", "cp949", "windows-949", "ks-c-5601-1987":
		return korean.EUCKR
	case "shift-jis", "sjis":
		return japanese.ShiftJIS
	case "euc-jp":
		return japanese.EUCJP
	case "iso-2022-jp":
		return japanese.ISO2022JP
	case "gb18030", "gb-18030", "gbk", "gb2312":
		return simplifiedchinese.GB18030
	case "big5":
		return traditionalchinese.Big5
	case "koi8-r":
		return charmap.KOI8R
	case "windows-1251":
		return charmap.Windows1251
	case "windows-1252", "iso-8859-1", "latin1", "latin-1":
		return charmap.Windows1252
	default:
		return nil
	}
}
