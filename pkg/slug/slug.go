// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug generates ASCII URL slugs from arbitrary Unicode strings.
//
// Series and categories are addressed by slug in public URLs
// (e.g. "/series/nordlys-over-tromso").
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength bounds generated slugs.
const MaxLength = 80

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]+`)
	multiHyphen     = regexp.MustCompile(`-{2,}`)
)

// Letters that do not decompose under NFD.
var transliterations = strings.NewReplacer(
	"ø", "o", "Ø", "o", "æ", "ae", "Æ", "ae", "å", "a", "Å", "a",
	"ß", "ss", "đ", "d", "Đ", "d", "ł", "l", "Ł", "l", "œ", "oe", "Œ", "oe",
)

// From converts an arbitrary Unicode string into a URL-safe ASCII slug.
//
// # Pipeline
//
//  1. Transliterate letters NFD cannot decompose (ø, æ, ß).
//  2. Normalize to NFD and drop combining marks (é becomes e).
//  3. Lowercase and replace everything else with hyphens.
//  4. Collapse hyphens, trim, and cut to [MaxLength] on a word boundary.
func From(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	result, _, _ := transform.String(t, transliterations.Replace(s))

	result = strings.ToLower(result)
	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, result)

	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = multiHyphen.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if len(result) > MaxLength {
		result = result[:MaxLength]
		if cut := strings.LastIndexByte(result, '-'); cut > 0 {
			result = result[:cut]
		}
	}

	return result
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
