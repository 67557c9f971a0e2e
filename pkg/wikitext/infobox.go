package wikitext

import (
	"fmt"
	"regexp"
	"strings"
)

// infoboxParams is the whitelist of infobox-journal parameters the bot
// keeps. Everything else in the template is dropped at scrape time.
var infoboxParams = map[string]bool{
	"title":        true,
	"issn":         true,
	"abbreviation": true,
	"language":     true,
	"country":      true,
	"former_name":  true,
	"bluebook":     true,
}

var htmlCommentPattern = regexp.MustCompile(`<!--.*?-->`)

// templateInstance is one occurrence of a template in page text, with the
// byte offsets needed to edit it in place.
type templateInstance struct {
	start  int
	end    int
	params []templateParam
}

// templateParam is one named top-level parameter of a template instance.
// valueStart and valueEnd delimit the raw value text, including any
// surrounding whitespace.
type templateParam struct {
	name       string
	valueStart int
	valueEnd   int
}

// ExtractInfoboxes returns the whitelisted parameters of every instance of
// the named template in the page text, in document order. Parameter names
// are lowercased and trimmed; values have HTML comments stripped and
// surrounding whitespace trimmed.
func ExtractInfoboxes(text, templateName string) []map[string]string {
	var result []map[string]string
	for _, instance := range findTemplates(text, templateName) {
		params := make(map[string]string)
		for _, p := range instance.params {
			if !infoboxParams[p.name] {
				continue
			}
			value := text[p.valueStart:p.valueEnd]
			value = htmlCommentPattern.ReplaceAllString(value, "")
			params[p.name] = strings.TrimSpace(value)
		}
		result = append(result, params)
	}
	return result
}

// FillAbbreviation sets the abbreviation parameter of the index-th instance
// of the named template in the page text, adding the parameter when the
// template does not carry it yet, and returns the edited text.
func FillAbbreviation(text, templateName string, index int, abbreviation string) (string, error) {
	instances := findTemplates(text, templateName)
	if index < 0 || index >= len(instances) {
		return "", fmt.Errorf("template instance %d not found (page has %d)", index, len(instances))
	}
	instance := instances[index]
	for _, p := range instance.params {
		if p.name != "abbreviation" {
			continue
		}
		old := text[p.valueStart:p.valueEnd]
		trailing := ""
		if i := strings.LastIndexByte(old, '\n'); i >= 0 {
			trailing = old[i:]
		}
		return text[:p.valueStart] + " " + abbreviation + trailing + text[p.valueEnd:], nil
	}
	// No abbreviation parameter yet: insert one before the closing braces.
	closing := instance.end - 2
	inserted := "| abbreviation = " + abbreviation + "\n"
	if closing > 0 && text[closing-1] != '\n' {
		inserted = "\n" + inserted
	}
	return text[:closing] + inserted + text[closing:], nil
}

// findTemplates scans the page text for top-level instances of the named
// template, tracking nested template and link braces so that parameters
// holding templates or links are kept whole. Malformed, unclosed templates
// are ignored.
func findTemplates(text, templateName string) []templateInstance {
	var instances []templateInstance
	for i := 0; i+1 < len(text); i++ {
		if text[i] != '{' || text[i+1] != '{' {
			continue
		}
		instance, ok := parseTemplate(text, i, templateName)
		if !ok {
			continue
		}
		instances = append(instances, instance)
		i = instance.end - 1
	}
	return instances
}

func parseTemplate(text string, start int, templateName string) (templateInstance, bool) {
	instance := templateInstance{start: start}
	depth := 0
	nameEnd := -1
	segmentStart := -1
	closeSegment := func(end int) {
		if segmentStart < 0 {
			return
		}
		name, valueStart := splitParam(text, segmentStart, end)
		if name != "" {
			instance.params = append(instance.params, templateParam{
				name:       name,
				valueStart: valueStart,
				valueEnd:   end,
			})
		}
		segmentStart = -1
	}
	for i := start; i+1 < len(text); i++ {
		switch {
		case text[i] == '{' && text[i+1] == '{':
			depth++
			i++
		case text[i] == '}' && text[i+1] == '}':
			depth--
			i++
			if depth == 0 {
				if nameEnd < 0 {
					nameEnd = i - 1
				}
				closeSegment(i - 1)
				instance.end = i + 1
				name := strings.TrimSpace(text[start+2 : nameEnd])
				return instance, strings.EqualFold(name, templateName)
			}
		case text[i] == '[' && i+1 < len(text) && text[i+1] == '[':
			// Skip over wiki links so pipes inside them do not split
			// parameters.
			if end := strings.Index(text[i:], "]]"); end >= 0 {
				i += end + 1
			}
		case text[i] == '|' && depth == 1:
			if nameEnd < 0 {
				nameEnd = i
			} else {
				closeSegment(i)
			}
			segmentStart = i + 1
		}
	}
	return instance, false
}

// splitParam splits one |-delimited segment into a lowercased parameter
// name and the offset where its value begins. Positional parameters, which
// carry no "=", yield an empty name.
func splitParam(text string, start, end int) (string, int) {
	eq := strings.IndexByte(text[start:end], '=')
	if eq < 0 {
		return "", start
	}
	name := strings.ToLower(strings.TrimSpace(text[start : start+eq]))
	return name, start + eq + 1
}
