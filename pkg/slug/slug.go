// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug generates ASCII URL slugs from arbitrary Unicode strings.
//
// Slugs are the human-readable identifiers of events and teams, e.g.
// "Fête de la Musique 2026" becomes "fete-de-la-musique-2026".
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength bounds a generated slug. Longer input is cut at a word boundary.
const MaxLength = 80

var (
	// separators matches every run of characters that cannot appear in a slug.
	separators = regexp.MustCompile(`[^a-z0-9]+`)

	// shape is the form every slug must have.
	shape = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// From converts s into a URL-safe ASCII slug.
//
// # Transformation Pipeline
//
//  1. Decompose to NFD and drop the combining marks (é becomes e).
//  2. Lowercase.
//  3. Replace every run of other characters with a single hyphen.
//  4. Cut to [MaxLength] at the last hyphen and trim hyphens at both ends.
//
// Input with no letters or digits yields "".
func From(s string) string {
	stripped, _, _ := transform.String(transform.Chain(norm.NFD, transform.RemoveFunc(isMark)), s)

	result := separators.ReplaceAllString(strings.ToLower(stripped), "-")
	result = strings.Trim(result, "-")

	if len(result) > MaxLength {
		result = result[:MaxLength]
		if cut := strings.LastIndexByte(result, '-'); cut > 0 {
			result = result[:cut]
		}
		result = strings.Trim(result, "-")
	}

	return result
}

// Valid reports whether s is already a well-formed slug no longer than [MaxLength].
func Valid(s string) bool {
	return len(s) <= MaxLength && shape.MatchString(s)
}

func isMark(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
