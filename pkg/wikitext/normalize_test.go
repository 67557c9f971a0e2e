package wikitext

import "testing"

func TestNormalizeBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "canonical body collapses to comparison form",
			body: "#REDIRECT [[Acta Example]]\n{{R from ISO 4}}",
			want: "#REDIRECT[[Acta Example]]{{R from ISO 4}}",
		},
		{
			name: "lowercase redirect keyword is uppercased",
			body: "#redirect [[Acta Example]]",
			want: "#REDIRECT[[Acta Example]]",
		},
		{
			name: "underscores become spaces",
			body: "#REDIRECT [[Acta_Example]]",
			want: "#REDIRECT[[Acta Example]]",
		},
		{
			name: "ampersand and apostrophe entities are decoded",
			body: "#REDIRECT [[A &#38; B&#39;s Journal]]",
			want: "#REDIRECT[[A&B's Journal]]",
		},
		{
			name: "interior whitespace runs collapse to one space",
			body: "#REDIRECT [[Acta  \n Example]]",
			want: "#REDIRECT[[Acta Example]]",
		},
		{
			name: "printworthy tags are removed",
			body: "#REDIRECT [[Acta Example]] {{R unprintworthy}} {{R from ISO 4}}",
			want: "#REDIRECT[[Acta Example]]{{R from ISO 4}}",
		},
		{
			name: "short printworthy tags are removed",
			body: "#REDIRECT [[Acta Example]] {{R upw}}",
			want: "#REDIRECT[[Acta Example]]",
		},
		{
			name: "category shell folds onto plain shell",
			body: "#REDIRECT [[Acta Example]] {{Redirect category shell|{{R from ISO 4}}}}",
			want: "#REDIRECT[[Acta Example]]{{REDIRECT shell|{{R from ISO 4}}}}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeBody(tt.body)
			if got != tt.want {
				t.Errorf("NormalizeBody(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestNormalizeBodyIdempotent(t *testing.T) {
	bodies := []string{
		"#REDIRECT [[Acta Example]]\n{{R from ISO 4}}",
		"#redirect[[J. Phys. A]]  {{R upw}}",
		"#REDIRECT [[A &#38; B]] {{Redirect category shell|1=}}",
		"plain text with  odd   spacing",
	}
	for _, body := range bodies {
		once := NormalizeBody(body)
		twice := NormalizeBody(once)
		if once != twice {
			t.Errorf("NormalizeBody not idempotent on %q: first %q, second %q", body, once, twice)
		}
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Acta Example", "Acta Example"},
		{"  Acta  Example ", "Acta Example"},
		{"A &#38; B", "A&B"},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.title); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
