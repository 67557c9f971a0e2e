// Package report renders the findings of a reconciliation run as wikitext
// and publishes them to the bot's report pages.
package report

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/coolbeans/abbrevbot/pkg/abbrev"
	"github.com/coolbeans/abbrevbot/pkg/findings"
	"github.com/coolbeans/abbrevbot/pkg/state"
	"github.com/coolbeans/abbrevbot/pkg/wikitext"
)

const saveSummary = "Updating ISO 4 abbreviation report"

// maxMismatchRows bounds each mismatch table so the report page stays
// renderable even on runs with thousands of disagreements.
const maxMismatchRows = 200

// PageSaver is the write surface needed to publish reports.
type PageSaver interface {
	SavePage(title, text, summary string) error
}

// Pages names the report pages a run publishes to.
type Pages struct {
	Unusual    string `yaml:"unusual"`
	Mismatches string `yaml:"mismatches"`
}

// wikiEscaper defuses markup in content quoted inside report tables.
var wikiEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	"{{", "{<nowiki />{",
	"}}", "}<nowiki />}",
	"[[", "[<nowiki />[",
	"]]", "]<nowiki />]",
	"|", "{{!}}",
)

// Escape rewrites s so that it renders as plain text inside a wikitable.
func Escape(s string) string {
	return wikiEscaper.Replace(s)
}

// Stats are the run-wide infobox abbreviation statistics.
type Stats struct {
	Total      int
	NoAbbrev   int
	NoComputed int
	ExactMatch int
	SoftMatch  int
	Mismatch   int
}

// ComputeStats classifies every scraped infobox abbreviation against the
// computed one. Computed abbreviations are compared in composed Unicode
// form, matching how the scraper stores page text.
func ComputeStats(store *state.Store) Stats {
	var stats Stats
	for _, pageTitle := range store.PageTitles() {
		page, ok := store.PageData(pageTitle)
		if !ok {
			continue
		}
		for _, infobox := range page.Infoboxes {
			name := infobox.Title()
			if name == "" {
				name = abbrev.StripTitle(pageTitle)
			}
			stats.Total++
			infoboxAbbrev := infobox.Abbreviation()
			if infoboxAbbrev == "" {
				stats.NoAbbrev++
				continue
			}
			language := abbrev.GuessLanguage(infobox.Language(), infobox.Country())
			computed, err := store.GetAbbrev(name, language)
			if err != nil {
				stats.NoComputed++
				continue
			}
			computed = strings.TrimSpace(wikitext.NFC(computed))
			switch {
			case infoboxAbbrev == computed:
				stats.ExactMatch++
			case abbrev.SoftMatch(infoboxAbbrev, computed):
				stats.SoftMatch++
			default:
				stats.Mismatch++
			}
		}
	}
	return stats
}

// Wikitext renders the statistics as a bullet list.
func (s Stats) Wikitext() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Out of %d infoboxes scraped:\n", s.Total)
	fmt.Fprintf(&b, "* %d have no abbreviation parameter,\n", s.NoAbbrev)
	fmt.Fprintf(&b, "* %d have an abbreviation not computed yet,\n", s.NoComputed)
	fmt.Fprintf(&b, "* %d agree exactly with the computed abbreviation,\n", s.ExactMatch)
	fmt.Fprintf(&b, "* %d agree up to a comment or dependent title,\n", s.SoftMatch)
	fmt.Fprintf(&b, "* %d disagree.\n", s.Mismatch)
	return b.String()
}

// RenderUnusual renders the report of everything the run refused to touch.
func RenderUnusual(acc *findings.Accumulator) string {
	var b strings.Builder

	b.WriteString("== Abbreviations with a colon prefix ==\n")
	rows := make([][]string, 0)
	for _, f := range acc.ColonAbbrevs() {
		rows = append(rows, []string{link(f.PageTitle), Escape(f.InfoboxTitle), Escape(f.Abbrev)})
	}
	b.WriteString(table([]string{"Page", "Infobox title", "Abbreviation"}, rows))

	b.WriteString("\n== Abbreviations with nothing abbreviated ==\n")
	rows = rows[:0]
	for _, f := range acc.TrivialAbbrevs() {
		rows = append(rows, []string{link(f.PageTitle), Escape(f.Abbrev), iso4RedirectMark(f.Redirects, f.Abbrev)})
	}
	b.WriteString(table([]string{"Page", "Abbreviation", "Has ISO 4 redirect"}, rows))

	b.WriteString("\n== Existing pages in the way ==\n")
	rows = rows[:0]
	for _, f := range acc.ExistingPages() {
		rows = append(rows, []string{link(f.PageTitle), link(f.RedirectTitle)})
	}
	b.WriteString(table([]string{"Page", "Occupied title"}, rows))

	b.WriteString("\n== Existing redirects with extra content ==\n")
	rows = rows[:0]
	for _, f := range acc.ExistingRedirects() {
		if strings.Contains(trimRedirectPrefix(f.Content), "#") {
			continue
		}
		rows = append(rows, []string{link(f.PageTitle), link(f.RedirectTitle), code(f.Content)})
	}
	b.WriteString(table([]string{"Page", "Redirect", "Content"}, rows))

	b.WriteString("\n== Superfluous ISO 4 redirects ==\n")
	rows = rows[:0]
	for _, f := range acc.SuperfluousRedirects() {
		rows = append(rows, []string{link(f.PageTitle), link(f.RedirectTitle), code(f.Content), Escape(f.NearestRequired)})
	}
	b.WriteString(table([]string{"Page", "Redirect", "Content", "Closest required title"}, rows))

	return b.String()
}

// RenderMismatches renders the statistics and both mismatch tables.
func RenderMismatches(stats Stats, acc *findings.Accumulator) string {
	var b strings.Builder
	b.WriteString(stats.Wikitext())

	b.WriteString("\n== Mismatches ==\n")
	proper := acc.ProperMismatches()
	if len(proper) > maxMismatchRows {
		proper = proper[:maxMismatchRows]
	}
	rows := make([][]string, 0)
	for _, f := range proper {
		rows = append(rows, []string{
			link(f.PageTitle),
			Escape(f.InfoboxTitle),
			Escape(f.Abbrev),
			Escape(f.Computed),
			mark(f.HasISO4Redirect),
			Escape(f.MatchingPatterns),
		})
	}
	b.WriteString(table([]string{
		"Page", "Infobox title", "Infobox abbreviation", "Computed abbreviation",
		"Has ISO 4 redirect", "Matching patterns",
	}, rows))

	b.WriteString("\n== Mismatches likely caused by language ==\n")
	language := acc.LanguageMismatches()
	if len(language) > maxMismatchRows {
		language = language[:maxMismatchRows]
	}
	rows = rows[:0]
	for _, f := range language {
		rows = append(rows, []string{
			link(f.PageTitle),
			Escape(f.InfoboxTitle),
			Escape(f.Abbrev),
			Escape(f.Computed),
			Escape(f.OtherComputed),
			Escape(f.Language),
			Escape(f.Country),
			f.GuessedLanguage,
			mark(f.HasISO4Redirect),
		})
	}
	b.WriteString(table([]string{
		"Page", "Infobox title", "Infobox abbreviation", "Computed abbreviation",
		"Other language computed", "Language", "Country", "Guessed rules",
		"Has ISO 4 redirect",
	}, rows))

	return b.String()
}

// Publish writes both report pages.
func Publish(saver PageSaver, pages Pages, stats Stats, acc *findings.Accumulator, logger *zap.Logger) error {
	if err := saver.SavePage(pages.Unusual, RenderUnusual(acc), saveSummary); err != nil {
		return fmt.Errorf("failed to save report %q: %w", pages.Unusual, err)
	}
	logger.Info("report saved", zap.String("page", pages.Unusual))
	if err := saver.SavePage(pages.Mismatches, RenderMismatches(stats, acc), saveSummary); err != nil {
		return fmt.Errorf("failed to save report %q: %w", pages.Mismatches, err)
	}
	logger.Info("report saved", zap.String("page", pages.Mismatches))
	return nil
}

func table(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("{| class=\"wikitable sortable\"\n")
	for _, h := range header {
		b.WriteString("! " + h + "\n")
	}
	for _, row := range rows {
		b.WriteString("|-\n")
		for _, cell := range row {
			b.WriteString("| " + cell + "\n")
		}
	}
	b.WriteString("|}\n")
	return b.String()
}

func link(title string) string {
	return "[[" + title + "]]"
}

func code(content string) string {
	return "<code><nowiki>" + strings.ReplaceAll(content, "</nowiki>", "") + "</nowiki></code>"
}

func mark(yes bool) string {
	if yes {
		return "yes"
	}
	return ""
}

// iso4RedirectMark reports whether the redirect under the abbreviation
// carries an ISO 4 tag.
func iso4RedirectMark(redirects map[string]string, abbreviation string) string {
	content, ok := redirects[abbreviation]
	return mark(ok && strings.Contains(content, "ISO 4"))
}

// trimRedirectPrefix cuts the leading redirect keyword so that only hash
// characters in the remainder, such as section anchors, count as extra
// content.
func trimRedirectPrefix(content string) string {
	if len(content) > 5 {
		return content[5:]
	}
	return content
}
