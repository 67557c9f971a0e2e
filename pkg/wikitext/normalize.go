// Package wikitext classifies and rewrites the wikitext of redirect pages
// and extracts infobox templates from article text. Redirect bodies are
// treated as opaque strings put through a fixed, ordered sequence of
// normalizing substitutions; there is deliberately no general wikitext
// grammar here.
package wikitext

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ISO4Tag is the redirect-category tag carried by every redirect the bot
// creates or marks.
const ISO4Tag = "{{R from ISO 4}}"

// CanonicalRedirectBody returns the exact content the bot writes for a
// redirect from an ISO-4 abbreviation to the given page title.
func CanonicalRedirectBody(pageTitle string) string {
	return "#REDIRECT [[" + pageTitle + "]]\n" + ISO4Tag
}

var (
	redirectKeywordPattern = regexp.MustCompile(`(?i)redirect`)

	// Printworthiness tags carry no information the bot cares about, in
	// either their long or their abbreviated template name.
	printworthyPattern      = regexp.MustCompile(`(?i)\{\{R(EDIRECT)? (un)?printworthy\}\}`)
	printworthyShortPattern = regexp.MustCompile(`(?i)\{\{R(EDIRECT)? u?pw?\}\}`)
)

// NormalizeBody puts a redirect body into the comparison form used by the
// classification predicates. The steps run in a fixed order: HTML entities
// for ampersand and apostrophe are decoded, underscores become spaces,
// whitespace that cannot separate two words is dropped, the redirect
// keyword is uppercased, printworthiness tags are removed, and the
// category-shell template name is folded onto its plain spelling.
// Normalizing an already normalized body is a no-op.
func NormalizeBody(body string) string {
	body = decodeEntities(body)
	body = strings.ReplaceAll(body, "_", " ")
	body = collapseLooseWhitespace(strings.TrimSpace(body))
	body = redirectKeywordPattern.ReplaceAllString(body, "REDIRECT")
	body = printworthyPattern.ReplaceAllString(body, "")
	body = printworthyShortPattern.ReplaceAllString(body, "")
	body = strings.ReplaceAll(body, "{{REDIRECT category shell", "{{REDIRECT shell")
	return body
}

// NormalizeTitle puts a page title into the same comparison form as
// NormalizeBody, minus the steps that only make sense inside a body.
func NormalizeTitle(title string) string {
	title = decodeEntities(title)
	return collapseLooseWhitespace(strings.TrimSpace(title))
}

// Normalize returns the comparison forms of a redirect body and of the
// title of the page it points to.
func Normalize(body, pageTitle string) (string, string) {
	return NormalizeBody(body), NormalizeTitle(pageTitle)
}

// NFC returns the Unicode canonical composition of s. Page text and
// computed abbreviations go through this before any comparison so that
// composed and decomposed accents do not register as mismatches.
func NFC(s string) string {
	return norm.NFC.String(s)
}

func decodeEntities(s string) string {
	s = strings.ReplaceAll(s, "&#38;", "&")
	s = strings.ReplaceAll(s, "&#39;", "'")
	return s
}

// collapseLooseWhitespace removes every whitespace run that is not a
// separator between two words. A run survives, as a single plain space,
// only when the runes on both sides are alphanumeric, so line wraps inside
// a title compare equal to spaces and decoration whitespace around markup
// vanishes. The result is a fixed point of the function.
func collapseLooseWhitespace(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(runes); i++ {
		if !unicode.IsSpace(runes[i]) {
			b.WriteRune(runes[i])
			continue
		}
		j := i
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if i > 0 && isWordRune(runes[i-1]) && j < len(runes) && isWordRune(runes[j]) {
			b.WriteRune(' ')
		}
		i = j - 1
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
