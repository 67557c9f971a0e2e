// Package abbrev implements the matching policy between human-entered
// journal abbreviations and abbreviations computed from the ISO-4 rules.
package abbrev

import (
	"regexp"
	"strings"
)

// englishCountries lists the infobox country values that, together with an
// English or empty language, select the English-only abbreviation rules.
var englishCountries = map[string]bool{
	"United States":  true,
	"U.S.":           true,
	"U. S.":          true,
	"USA":            true,
	"U.S.A":          true,
	"US":             true,
	"United Kingdom": true,
	"UK":             true,
	"England":        true,
	"UK & USA":       true,
	"New Zealand":    true,
	"Australia":      true,
}

var (
	trailingQualifierPattern = regexp.MustCompile(`\s*\(.*(ournal|agazine|eriodical|eview)s?\)`)
	parenCommentPattern      = regexp.MustCompile(`\s*\(.*`)
	colonSuffixPattern       = regexp.MustCompile(`\s*:.*`)
)

// GuessLanguage decides which abbreviation language rules apply to an
// infobox: "eng" when the language is English or unstated and the country
// is a recognized English-speaking one, "all" otherwise.
func GuessLanguage(language, country string) string {
	if (language == "" || strings.HasPrefix(language, "English")) && englishCountries[country] {
		return "eng"
	}
	return "all"
}

// SoftMatch reports whether a human-entered abbreviation agrees with the
// computed one, either exactly or once a trailing parenthesized comment on
// the human side and a trailing colon-separated dependent title on the
// computed side are ignored. Two empty strings do not match.
func SoftMatch(infoboxAbbrev, computedAbbrev string) bool {
	if infoboxAbbrev == computedAbbrev {
		return infoboxAbbrev != ""
	}
	shortInfobox := parenCommentPattern.ReplaceAllString(infoboxAbbrev, "")
	shortComputed := colonSuffixPattern.ReplaceAllString(computedAbbrev, "")
	return shortInfobox != "" && shortInfobox == shortComputed
}

// StripTitle removes a trailing parenthesized disambiguation comment from a
// page title when the comment marks it as a journal, magazine, periodical
// or review.
func StripTitle(pageTitle string) string {
	return trailingQualifierPattern.ReplaceAllString(pageTitle, "")
}

// Dotless returns the abbreviation with all periods removed. Dotless forms
// get their own redirects alongside the dotted ones.
func Dotless(abbreviation string) string {
	return strings.ReplaceAll(abbreviation, ".", "")
}
