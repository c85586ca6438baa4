package textutil

import (
	"reflect"
	"testing"
)

func TestExtractHashtags(t *testing.T) {
	cases := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "plain tags in order",
			body: "Loose in turn 3 #setup #balance, tightened rear #setup",
			want: []string{"setup", "balance"},
		},
		{
			name: "case folded",
			body: "#Bristol and #BRISTOL are one tag",
			want: []string{"bristol"},
		},
		{
			name: "mid-word hash ignored",
			body: "car no#9 ran wide",
			want: nil,
		},
		{
			name: "bare hash ignored",
			body: "pressure # 32psi",
			want: nil,
		},
		{
			name: "hyphen and digits kept",
			body: "#short-track #2026",
			want: []string{"short-track", "2026"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractHashtags(tc.body)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ExtractHashtags(%q) = %v, want %v", tc.body, got, tc.want)
			}
		})
	}
}

func TestExtractMentions(t *testing.T) {
	got := ExtractMentions("ask @crew-chief about @Spotter, cc @crew-chief")
	want := []string{"crew-chief", "spotter"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractMentions = %v, want %v", got, want)
	}
}

func TestNormalizeLabel(t *testing.T) {
	if got := NormalizeLabel("  Qualifying  "); got != "qualifying" {
		t.Fatalf("NormalizeLabel = %q", got)
	}
	// Composed and decomposed forms of the same label normalize identically.
	composed := NormalizeLabel("résumé")
	decomposed := NormalizeLabel("résumé")
	if composed != decomposed {
		t.Fatalf("NFC forms differ: %q vs %q", composed, decomposed)
	}
	if NormalizeLabel("   ") != "" {
		t.Fatal("whitespace-only label must normalize to empty")
	}
}
