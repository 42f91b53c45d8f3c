package metadata

import (
	"strings"
	"testing"

	"golang.org/x/text/encoding/korean"
)

// mojibake produces the Latin-1 rendering of s encoded as EUC-KR, the damage
// pattern Repair exists to reverse.
func mojibake(t *testing.T, s string) string {
	t.Helper()
	raw, err := korean.EUCKR.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("failed to encode fixture %q: %v", s, err)
	}
	var b strings.Builder
	for _, c := range raw {
		b.WriteRune(rune(c))
	}
	return b.String()
}

func TestRepair(t *testing.T) {
	r := NewRepairer("euc-kr", 0.7)

	t.Run("Recovers Hangul", func(t *testing.T) {
		tc := []string{
			"방탄소년단",
			"아이유",
			"좋은 날",
			"봄날은 간다",
		}
		for _, want := range tc {
			t.Run(want, func(t *testing.T) {
				in := mojibake(t, want)
				if in == want {
					t.Fatalf("fixture %q did not produce mojibake", want)
				}
				if got := r.Repair(in); got != want {
					t.Errorf("Repair(%q) = %q, want %q", in, got, want)
				}
			})
		}
	})

	t.Run("Passthrough", func(t *testing.T) {
		tc := []struct {
			name string
			in   string
		}{
			{name: "empty", in: ""},
			{name: "literal None", in: "None"},
			{name: "ascii", in: "Dynamite"},
			{name: "already wide", in: "방탄소년단"},
			{name: "mixed wide and ascii", in: "아이유 (IU)"},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if got := r.Repair(tt.in); got != tt.in {
					t.Errorf("Repair(%q) = %q, want unchanged", tt.in, got)
				}
			})
		}
	})

	t.Run("Undecodable Candidate Left Alone", func(t *testing.T) {
		// 0xE9 is an EUC-KR lead byte with no trail byte here, so every
		// decode attempt is dirty and the input survives.
		in := "café"
		if got := r.Repair(in); got != in {
			t.Errorf("Repair(%q) = %q, want unchanged", in, got)
		}
	})
}

func TestRepairSides(t *testing.T) {
	r := NewRepairer("euc-kr", 0.7)

	tc := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "damaged artist clean title",
			in:   mojibake(t, "방탄소년단") + " - Dynamite",
			want: "방탄소년단 - Dynamite",
		},
		{
			name: "both sides damaged",
			in:   mojibake(t, "아이유") + " - " + mojibake(t, "좋은 날"),
			want: "아이유 - 좋은 날",
		},
		{
			name: "no separator",
			in:   mojibake(t, "봄날은 간다"),
			want: "봄날은 간다",
		},
		{
			name: "clean line untouched",
			in:   "IU - Blueming",
			want: "IU - Blueming",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.RepairSides(tt.in); got != tt.want {
				t.Errorf("RepairSides(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMojibakeCandidate(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want bool
	}{
		{name: "ascii only", in: "plain title", want: false},
		{name: "upper half present", in: "¹æÅº", want: true},
		{name: "wide rune disqualifies", in: "한¹", want: false},
		{name: "empty", in: "", want: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := mojibakeCandidate(tt.in); got != tt.want {
				t.Errorf("mojibakeCandidate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodingByName(t *testing.T) {
	if encodingByName("EUC-KR") != encodingByName("cp949") {
		t.Error("EUC-KR and CP949 should share a decoder")
	}
	if encodingByName("Shift_JIS") == nil {
		t.Error("detector-style Shift_JIS name should resolve")
	}
	if encodingByName("made-up-charset") != nil {
		t.Error("unknown charset should resolve to nil")
	}
}
