/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package pokeapi

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	hyphenRun     = regexp.MustCompile(`-+`)

	labelReplacer = strings.NewReplacer(
		"'", "",
		"’", "",
		"♀", "-f",
		"♂", "-m",
		".", "",
	)
)

// Slug converts a display label into the name PokeAPI uses, e.g.
// "Nidoran♀" becomes "nidoran-f" and "Mr. Mime" becomes "mr-mime".
func Slug(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = labelReplacer.Replace(s)
	s = foldAccents(s)
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = hyphenRun.ReplaceAllString(s, "-")

	return s
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}

	return out
}

// LookupKey derives the cache and lookup key for a candidate. The last path
// segment of the uri wins when it is usable; otherwise the label is slugged.
func LookupKey(uri, label string) string {
	if seg := lastSegment(uri); seg != "" {
		return strings.ToLower(seg)
	}

	return strings.ToLower(Slug(label))
}

func lastSegment(uri string) string {
	s := strings.TrimSuffix(uri, "/")
	if s == uri {
		s = strings.TrimSuffix(uri, "#")
	}

	i := strings.LastIndex(s, "/")
	if i < 0 {
		return ""
	}

	seg := s[i+1:]
	if strings.Contains(seg, "#") || utf8.RuneCountInString(seg) <= 1 {
		return ""
	}

	return seg
}
