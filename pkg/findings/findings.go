// Package findings collects the diagnostics a reconciliation run produces
// for human review. The accumulator is write-only during the run; the
// report renderer reads it once at the end.
package findings

import "sort"

// ColonAbbrev flags an infobox abbreviation with a colon among its first
// few characters, usually a stray wikitext namespace prefix, that was
// skipped.
type ColonAbbrev struct {
	PageTitle    string
	InfoboxTitle string
	Abbrev       string
}

// TrivialAbbrev flags an infobox whose abbreviation equals its title, for
// which no redirect is needed.
type TrivialAbbrev struct {
	PageTitle    string
	InfoboxTitle string
	Abbrev       string
	Redirects    map[string]string
}

// ExistingPage flags a required redirect title that is already taken by a
// page which is not a redirect to the target.
type ExistingPage struct {
	PageTitle     string
	InfoboxTitle  string
	RedirectTitle string
}

// ExistingRedirect flags a redirect to the target whose content can
// neither be accepted as canonical nor safely replaced.
type ExistingRedirect struct {
	PageTitle     string
	InfoboxTitle  string
	RedirectTitle string
	Content       string
}

// SuperfluousRedirect flags a redirect tagged as ISO-4 whose title is not
// among the titles the bot believes should exist for its target.
type SuperfluousRedirect struct {
	PageTitle       string
	RedirectTitle   string
	Content         string
	NearestRequired string
}

// ProperMismatch records an infobox abbreviation that disagrees with the
// computed one under the guessed language rules.
type ProperMismatch struct {
	PageTitle        string
	InfoboxTitle     string
	Abbrev           string
	Computed         string
	HasISO4Redirect  bool
	MatchingPatterns string
}

// LanguageMismatch records an infobox abbreviation that matches the
// computed abbreviation of the other language ruleset, suggesting the
// infobox language or country is what is actually wrong.
type LanguageMismatch struct {
	PageTitle        string
	InfoboxTitle     string
	Abbrev           string
	Computed         string
	OtherComputed    string
	Language         string
	Country          string
	GuessedLanguage  string
	HasISO4Redirect  bool
	MatchingPatterns string
}

// Accumulator gathers every finding of one run.
type Accumulator struct {
	colonAbbrevs         []ColonAbbrev
	trivialAbbrevs       []TrivialAbbrev
	existingPages        []ExistingPage
	existingRedirects    []ExistingRedirect
	superfluousRedirects []SuperfluousRedirect
	properMismatches     []ProperMismatch
	languageMismatches   []LanguageMismatch
}

func New() *Accumulator {
	return &Accumulator{}
}

func (a *Accumulator) AddColonAbbrev(f ColonAbbrev)                 { a.colonAbbrevs = append(a.colonAbbrevs, f) }
func (a *Accumulator) AddTrivialAbbrev(f TrivialAbbrev)             { a.trivialAbbrevs = append(a.trivialAbbrevs, f) }
func (a *Accumulator) AddExistingPage(f ExistingPage)               { a.existingPages = append(a.existingPages, f) }
func (a *Accumulator) AddExistingRedirect(f ExistingRedirect)       { a.existingRedirects = append(a.existingRedirects, f) }
func (a *Accumulator) AddSuperfluousRedirect(f SuperfluousRedirect) { a.superfluousRedirects = append(a.superfluousRedirects, f) }
func (a *Accumulator) AddProperMismatch(f ProperMismatch)           { a.properMismatches = append(a.properMismatches, f) }
func (a *Accumulator) AddLanguageMismatch(f LanguageMismatch)       { a.languageMismatches = append(a.languageMismatches, f) }

// The sorted accessors return copies ordered by page title, so reports are
// stable across runs regardless of discovery order.

func (a *Accumulator) ColonAbbrevs() []ColonAbbrev {
	out := append([]ColonAbbrev(nil), a.colonAbbrevs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PageTitle < out[j].PageTitle })
	return out
}

func (a *Accumulator) TrivialAbbrevs() []TrivialAbbrev {
	out := append([]TrivialAbbrev(nil), a.trivialAbbrevs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PageTitle < out[j].PageTitle })
	return out
}

func (a *Accumulator) ExistingPages() []ExistingPage {
	out := append([]ExistingPage(nil), a.existingPages...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PageTitle < out[j].PageTitle })
	return out
}

func (a *Accumulator) ExistingRedirects() []ExistingRedirect {
	out := append([]ExistingRedirect(nil), a.existingRedirects...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PageTitle < out[j].PageTitle })
	return out
}

func (a *Accumulator) SuperfluousRedirects() []SuperfluousRedirect {
	out := append([]SuperfluousRedirect(nil), a.superfluousRedirects...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PageTitle < out[j].PageTitle })
	return out
}

func (a *Accumulator) ProperMismatches() []ProperMismatch {
	out := append([]ProperMismatch(nil), a.properMismatches...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PageTitle < out[j].PageTitle })
	return out
}

func (a *Accumulator) LanguageMismatches() []LanguageMismatch {
	out := append([]LanguageMismatch(nil), a.languageMismatches...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PageTitle < out[j].PageTitle })
	return out
}
