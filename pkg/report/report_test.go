package report

import (
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/coolbeans/abbrevbot/pkg/findings"
	"github.com/coolbeans/abbrevbot/pkg/state"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"{{R from ISO 4}}", "{<nowiki />{R from ISO 4}<nowiki />}"},
		{"[[Acta Example]]", "[<nowiki />[Acta Example]<nowiki />]"},
		{"a|b", "a{{!}}b"},
		{"<ref>", "&lt;ref&gt;"},
	}
	for _, tt := range tests {
		if got := Escape(tt.in); got != tt.want {
			t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestComputeStats(t *testing.T) {
	store, err := state.Load(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	store.SetComputed("Acta Exact", map[string]string{"all": "Acta Ex."}, "")
	store.SetComputed("Acta Soft", map[string]string{"all": "Acta Soft."}, "")
	store.SetComputed("Acta Wrong", map[string]string{"all": "Acta Wr."}, "")

	store.SavePageData("Acta Exact", &state.PageData{Infoboxes: []state.Infobox{
		{"title": "Acta Exact", "abbreviation": "Acta Ex."},
	}})
	store.SavePageData("Acta Soft", &state.PageData{Infoboxes: []state.Infobox{
		{"title": "Acta Soft", "abbreviation": "Acta Soft. (Berlin)"},
	}})
	store.SavePageData("Acta Wrong", &state.PageData{Infoboxes: []state.Infobox{
		{"title": "Acta Wrong", "abbreviation": "Acta Nope."},
	}})
	store.SavePageData("Acta Empty", &state.PageData{Infoboxes: []state.Infobox{
		{"title": "Acta Empty", "abbreviation": ""},
	}})
	store.SavePageData("Acta Pending", &state.PageData{Infoboxes: []state.Infobox{
		{"title": "Acta Pending", "abbreviation": "Acta Pend."},
	}})

	got := ComputeStats(store)
	want := Stats{Total: 5, NoAbbrev: 1, NoComputed: 1, ExactMatch: 1, SoftMatch: 1, Mismatch: 1}
	if got != want {
		t.Errorf("ComputeStats = %+v, want %+v", got, want)
	}
}

func TestRenderUnusualEscapesContent(t *testing.T) {
	acc := findings.New()
	acc.AddSuperfluousRedirect(findings.SuperfluousRedirect{
		PageTitle:       "Acta Example",
		RedirectTitle:   "Acta Stray",
		Content:         "#REDIRECT [[Acta Example]]\n{{R from ISO 4}}",
		NearestRequired: "Acta Ex.",
	})
	text := RenderUnusual(acc)
	if !strings.Contains(text, "[[Acta Stray]]") {
		t.Error("superfluous redirect title not linked")
	}
	if !strings.Contains(text, "<nowiki>#REDIRECT [[Acta Example]]") {
		t.Error("redirect content not wrapped in nowiki")
	}
}

func TestRenderUnusualSkipsSectionRedirects(t *testing.T) {
	acc := findings.New()
	acc.AddExistingRedirect(findings.ExistingRedirect{
		PageTitle:     "Acta Example",
		RedirectTitle: "Acta Anchor",
		Content:       "#REDIRECT [[Acta Example#History]]",
	})
	acc.AddExistingRedirect(findings.ExistingRedirect{
		PageTitle:     "Acta Example",
		RedirectTitle: "Acta Extra",
		Content:       "#REDIRECT [[Acta Example]]\nExtra prose.",
	})
	text := RenderUnusual(acc)
	if strings.Contains(text, "Acta Anchor") {
		t.Error("section-anchor redirect was reported")
	}
	if !strings.Contains(text, "Acta Extra") {
		t.Error("redirect with extra content was not reported")
	}
}

type fakeSaver struct {
	saved map[string]string
}

func (f *fakeSaver) SavePage(title, text, summary string) error {
	if f.saved == nil {
		f.saved = make(map[string]string)
	}
	f.saved[title] = text
	return nil
}

func TestPublishWritesBothPages(t *testing.T) {
	saver := &fakeSaver{}
	pages := Pages{Unusual: "User:AbbrevBot/ISO 4 unusual", Mismatches: "User:AbbrevBot/ISO 4 mismatches"}
	stats := Stats{Total: 3, ExactMatch: 3}

	if err := Publish(saver, pages, stats, findings.New(), zap.NewNop()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if _, ok := saver.saved[pages.Unusual]; !ok {
		t.Error("unusual report not saved")
	}
	mismatchText, ok := saver.saved[pages.Mismatches]
	if !ok {
		t.Fatal("mismatch report not saved")
	}
	if !strings.Contains(mismatchText, "Out of 3 infoboxes scraped:") {
		t.Errorf("mismatch report missing stats: %q", mismatchText)
	}
}
