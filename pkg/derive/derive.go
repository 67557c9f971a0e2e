// Package derive computes, for one scraped journal page, the set of
// redirects the bot believes should exist: one per infobox abbreviation
// that agrees with the abbreviation computed from the ISO-4 rules, plus
// its dotless variant.
package derive

import (
	"errors"
	"sort"
	"strings"

	"github.com/coolbeans/abbrevbot/pkg/abbrev"
	"github.com/coolbeans/abbrevbot/pkg/findings"
	"github.com/coolbeans/abbrevbot/pkg/state"
	"github.com/coolbeans/abbrevbot/pkg/wikitext"
)

// Oracle is the read side of the abbreviation store the deriver needs,
// plus the registration hook for names it finds uncomputed.
type Oracle interface {
	GetAbbrev(name, language string) (string, error)
	GetAllAbbrevs(name string) (map[string]string, error)
	GetMatchingPatterns(name string) (string, error)
	SaveNameForComputation(name string)
}

// RequiredRedirect describes one redirect that should exist for a page.
type RequiredRedirect struct {
	// Title is the redirect page title, the abbreviation itself.
	Title string

	// Body is the content the redirect should carry. When an existing
	// redirect under this title is already canonical its exact body is
	// kept here, so comparisons see no difference to erase.
	Body string

	// InfoboxTitle is the journal name of the infobox that produced the
	// requirement.
	InfoboxTitle string
}

// Required walks the infoboxes of a scraped page and returns the redirect
// set derived from them, keyed by redirect title, along with a flag saying
// whether any infobox had to be skipped. A skipped infobox means the set
// must not be treated as exhaustive: the superfluous-redirect scan is
// suppressed for such pages.
//
// The first infobox to claim a redirect title wins; later infoboxes never
// overwrite it.
func Required(pageTitle string, page *state.PageData, oracle Oracle, acc *findings.Accumulator) (map[string]RequiredRedirect, bool) {
	strippedTitle := abbrev.StripTitle(pageTitle)
	required := make(map[string]RequiredRedirect)
	incomplete := false

	register := func(title, body, infoboxTitle string) {
		if _, taken := required[title]; taken {
			return
		}
		required[title] = RequiredRedirect{Title: title, Body: body, InfoboxTitle: infoboxTitle}
	}

	for _, infobox := range page.Infoboxes {
		name := infobox.Title()
		if name == "" {
			name = strippedTitle
		}
		infoboxAbbrev := infobox.Abbreviation()
		if infoboxAbbrev == "" || infoboxAbbrev == "no" {
			incomplete = true
			continue
		}
		if strings.Contains(firstRunes(infoboxAbbrev, 5), ":") {
			acc.AddColonAbbrev(findings.ColonAbbrev{
				PageTitle:    pageTitle,
				InfoboxTitle: name,
				Abbrev:       infoboxAbbrev,
			})
			incomplete = true
			continue
		}

		canonical := wikitext.CanonicalRedirectBody(pageTitle)
		dotless := abbrev.Dotless(infoboxAbbrev)

		// An existing canonical redirect under the dotted title is human
		// corroboration enough: keep its exact body and pair it with the
		// dotless form, whatever the oracle says.
		corroborated := false
		if existing, ok := page.Redirects[infoboxAbbrev]; ok && dotless != infoboxAbbrev &&
			wikitext.IsValidISO4Redirect(existing, pageTitle) {
			register(infoboxAbbrev, existing, name)
			register(dotless, canonical, name)
			corroborated = true
		}

		language := abbrev.GuessLanguage(infobox.Language(), infobox.Country())
		computed, err := oracle.GetAbbrev(name, language)
		if errors.Is(err, state.ErrNotComputed) {
			oracle.SaveNameForComputation(name)
			incomplete = true
			continue
		}
		if err != nil {
			incomplete = true
			continue
		}
		if !abbrev.SoftMatch(infoboxAbbrev, computed) {
			reportMismatch(pageTitle, name, infoboxAbbrev, computed, language, infobox, page, oracle, acc)
			continue
		}
		if infoboxAbbrev == dotless {
			// No dots means nothing was abbreviated; a redirect from it
			// would be an ambiguous single-word title.
			acc.AddTrivialAbbrev(findings.TrivialAbbrev{
				PageTitle:    pageTitle,
				InfoboxTitle: name,
				Abbrev:       infoboxAbbrev,
				Redirects:    page.Redirects,
			})
			incomplete = true
			continue
		}
		if !corroborated {
			register(infoboxAbbrev, canonical, name)
			register(dotless, canonical, name)
		}
	}
	return required, incomplete
}

// reportMismatch decides whether a disagreement between the infobox
// abbreviation and the computed one is a proper mismatch or a likely
// language mixup, where the abbreviation computed under the other language
// ruleset would have matched.
func reportMismatch(pageTitle, name, infoboxAbbrev, computed, language string, infobox state.Infobox, page *state.PageData, oracle Oracle, acc *findings.Accumulator) {
	hasISO4 := false
	if content, ok := page.Redirects[infoboxAbbrev]; ok {
		hasISO4 = strings.Contains(content, "ISO 4")
	}
	patterns, _ := oracle.GetMatchingPatterns(name)

	all, err := oracle.GetAllAbbrevs(name)
	if err == nil {
		languages := make([]string, 0, len(all))
		for otherLanguage := range all {
			if otherLanguage != language {
				languages = append(languages, otherLanguage)
			}
		}
		sort.Strings(languages)
		for _, otherLanguage := range languages {
			if !abbrev.SoftMatch(infoboxAbbrev, all[otherLanguage]) {
				continue
			}
			acc.AddLanguageMismatch(findings.LanguageMismatch{
				PageTitle:        pageTitle,
				InfoboxTitle:     name,
				Abbrev:           infoboxAbbrev,
				Computed:         computed,
				OtherComputed:    all[otherLanguage],
				Language:         infobox.Language(),
				Country:          infobox.Country(),
				GuessedLanguage:  language,
				HasISO4Redirect:  hasISO4,
				MatchingPatterns: patterns,
			})
			return
		}
	}
	acc.AddProperMismatch(findings.ProperMismatch{
		PageTitle:        pageTitle,
		InfoboxTitle:     name,
		Abbrev:           infoboxAbbrev,
		Computed:         computed,
		HasISO4Redirect:  hasISO4,
		MatchingPatterns: patterns,
	})
}

func firstRunes(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}
