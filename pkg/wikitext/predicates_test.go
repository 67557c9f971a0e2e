package wikitext

import "testing"

func TestIsValidISO4Redirect(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		pageTitle string
		want      bool
	}{
		{
			name:      "canonical body",
			body:      "#REDIRECT [[Acta Example]]\n{{R from ISO 4}}",
			pageTitle: "Acta Example",
			want:      true,
		},
		{
			name:      "lowercase keyword and tag",
			body:      "#redirect [[Acta Example]]\n{{r from iso 4}}",
			pageTitle: "Acta Example",
			want:      true,
		},
		{
			name:      "extra whitespace and entities",
			body:      "#REDIRECT [[Acta &#38; Example]] \n {{R from ISO 4}}",
			pageTitle: "Acta & Example",
			want:      true,
		},
		{
			name:      "long tag synonym",
			body:      "#REDIRECT [[Acta Example]]\n{{R from ISO 4 abbreviation}}",
			pageTitle: "Acta Example",
			want:      true,
		},
		{
			name:      "shell-wrapped tag",
			body:      "#REDIRECT [[Acta Example]]\n{{Redirect category shell|{{R from ISO 4}}}}",
			pageTitle: "Acta Example",
			want:      true,
		},
		{
			name:      "printworthy tag alongside is tolerated",
			body:      "#REDIRECT [[Acta Example]]\n{{R from ISO 4}}\n{{R unprintworthy}}",
			pageTitle: "Acta Example",
			want:      true,
		},
		{
			name:      "missing tag",
			body:      "#REDIRECT [[Acta Example]]",
			pageTitle: "Acta Example",
			want:      false,
		},
		{
			name:      "wrong target",
			body:      "#REDIRECT [[Acta Other]]\n{{R from ISO 4}}",
			pageTitle: "Acta Example",
			want:      false,
		},
		{
			name:      "extra tag",
			body:      "#REDIRECT [[Acta Example]]\n{{R from ISO 4}}\n{{R from move}}",
			pageTitle: "Acta Example",
			want:      false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidISO4Redirect(tt.body, tt.pageTitle)
			if got != tt.want {
				t.Errorf("IsValidISO4Redirect(%q, %q) = %v, want %v", tt.body, tt.pageTitle, got, tt.want)
			}
		})
	}
}

func TestIsReplaceableRedirect(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		pageTitle string
		want      bool
	}{
		{
			name:      "bare redirect",
			body:      "#REDIRECT [[Acta Example]]",
			pageTitle: "Acta Example",
			want:      true,
		},
		{
			name:      "single provenance tag",
			body:      "#REDIRECT [[Acta Example]]\n{{R from abbreviation}}",
			pageTitle: "Acta Example",
			want:      true,
		},
		{
			name:      "alternative spelling tag",
			body:      "#REDIRECT [[Acta Example]]\n{{R from alternative spelling}}",
			pageTitle: "Acta Example",
			want:      true,
		},
		{
			name:      "bare provenance mention without braces",
			body:      "#REDIRECT [[Acta Example]]\nR from abbreviation",
			pageTitle: "Acta Example",
			want:      true,
		},
		{
			name:      "empty shell wrapper",
			body:      "#REDIRECT [[Acta Example]]\n{{REDIRECT shell|{{R from shortening}}}}",
			pageTitle: "Acta Example",
			want:      true,
		},
		{
			name:      "two provenance tags are preserved",
			body:      "#REDIRECT [[Acta Example]]\n{{R from abbreviation}}\n{{R from initialism}}",
			pageTitle: "Acta Example",
			want:      false,
		},
		{
			name:      "unrelated tag",
			body:      "#REDIRECT [[Acta Example]]\n{{R from move}}",
			pageTitle: "Acta Example",
			want:      false,
		},
		{
			name:      "modification tag",
			body:      "#REDIRECT [[Acta Example]]\n{{R from modification|''{{-r|Acta Ex.}}''}}",
			pageTitle: "Acta Example",
			want:      false,
		},
		{
			name:      "wrong target",
			body:      "#REDIRECT [[Acta Other]]",
			pageTitle: "Acta Example",
			want:      false,
		},
		{
			name:      "free text after redirect",
			body:      "#REDIRECT [[Acta Example]]\nSee also the main article.",
			pageTitle: "Acta Example",
			want:      false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsReplaceableRedirect(tt.body, tt.pageTitle)
			if got != tt.want {
				t.Errorf("IsReplaceableRedirect(%q, %q) = %v, want %v", tt.body, tt.pageTitle, got, tt.want)
			}
		})
	}
}

func TestHasModificationTag(t *testing.T) {
	body := "#REDIRECT [[Acta Example]]\n{{R from modification|''{{-r|Acta Ex.}}''}}"
	if !HasModificationTag(body) {
		t.Errorf("HasModificationTag(%q) = false, want true", body)
	}
	if HasModificationTag("#REDIRECT [[Acta Example]]\n{{R from abbreviation}}") {
		t.Error("HasModificationTag reported a plain provenance tag as a modification tag")
	}
}

func TestRedirectTarget(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"#REDIRECT [[Acta Example]]", "Acta Example"},
		{"#redirect [[Acta Example#History]]", "Acta Example"},
		{"#REDIRECT [[Acta Example|display]]", "Acta Example"},
		{"no redirect here", ""},
	}
	for _, tt := range tests {
		if got := RedirectTarget(tt.body); got != tt.want {
			t.Errorf("RedirectTarget(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}
