package wikitext

import (
	"regexp"
	"strings"
)

var (
	// iso4TagPattern folds case variants and the long synonym of the
	// ISO-4 tag onto the single spelling used for comparison.
	iso4TagPattern = regexp.MustCompile(`(?i)\{\{R from ISO 4( abbreviation)?\}\}`)

	// provenanceTagPattern matches the family of redirect-category tags
	// that merely record where a redirect title came from. A body that is
	// canonical except for one of these is still replaceable.
	provenanceTagPattern = regexp.MustCompile(`(?i)\{\{R from (ISO 4|abb[a-z]*|shortening|initialism|short name|alternat[a-z]* spelling|systematic abbreviation|other capitalisation|other spelling)\}\}`)

	bareProvenancePattern = regexp.MustCompile(`(?i)R from abbreviation`)

	emptyShellPattern = regexp.MustCompile(`(?i)\{\{REDIRECT shell\|(1=)?\}\}`)

	modificationTagPattern = regexp.MustCompile(`\{\{R from modification\|''\{\{-r\|[a-zA-Z0-9\-. ]*\}\}''\}\}`)

	redirectTargetPattern = regexp.MustCompile(`^#REDIRECT\[\[([^\]|#]+)`)
)

// IsValidISO4Redirect reports whether a redirect body is, up to
// normalization, exactly the canonical ISO-4 redirect to the given page
// title, either bare or wrapped in a single-argument redirect shell.
func IsValidISO4Redirect(body, pageTitle string) bool {
	normalizedBody, normalizedTitle := Normalize(body, pageTitle)
	normalizedBody = iso4TagPattern.ReplaceAllString(normalizedBody, ISO4Tag)
	bare := "#REDIRECT[[" + normalizedTitle + "]]" + ISO4Tag
	shelled := "#REDIRECT[[" + normalizedTitle + "]]{{REDIRECT shell|" + ISO4Tag + "}}"
	return normalizedBody == bare || normalizedBody == shelled
}

// IsReplaceableRedirect reports whether a redirect body may be overwritten
// with the canonical ISO-4 body without losing information. After stripping
// at most one provenance tag, at most one bare provenance mention, and any
// empty shell wrappers, nothing but the redirect line itself may remain.
// Two provenance tags on one body are deliberately not replaceable.
func IsReplaceableRedirect(body, pageTitle string) bool {
	normalizedBody, normalizedTitle := Normalize(body, pageTitle)
	normalizedBody = replaceFirst(provenanceTagPattern, normalizedBody)
	normalizedBody = replaceFirst(bareProvenancePattern, normalizedBody)
	normalizedBody = emptyShellPattern.ReplaceAllString(normalizedBody, "")
	return normalizedBody == "#REDIRECT[["+normalizedTitle+"]]"
}

// HasModificationTag reports whether a redirect body carries the
// dotless-variant modification tag. Such redirects are surfaced for manual
// review and never rewritten automatically.
func HasModificationTag(body string) bool {
	return modificationTagPattern.MatchString(NormalizeBody(body))
}

// RedirectTarget extracts the link target from a redirect body, or ""
// when the body does not start with a redirect line. Section anchors and
// display text are cut off.
func RedirectTarget(body string) string {
	match := redirectTargetPattern.FindStringSubmatch(NormalizeBody(body))
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

func replaceFirst(pattern *regexp.Regexp, s string) string {
	loc := pattern.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}
