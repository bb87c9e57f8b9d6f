// Package i18n resolves the request locale from URL prefixes and the
// Accept-Language header.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Locale is a supported two-letter language code used as the first path segment.
type Locale string

const (
	English    Locale = "en"
	Vietnamese Locale = "vi"
	French     Locale = "fr"
	German     Locale = "de"
	Japanese   Locale = "ja"
	Spanish    Locale = "es"
)

// Default is used when nothing else matches.
const Default = English

var supported = []Locale{English, Vietnamese, French, German, Japanese, Spanish}

var names = map[Locale]string{
	English:    "English",
	Vietnamese: "Tiếng Việt",
	French:     "Français",
	German:     "Deutsch",
	Japanese:   "日本語",
	Spanish:    "Español",
}

var matcher = language.NewMatcher([]language.Tag{
	language.English, // first tag is the matcher's fallback
	language.Vietnamese,
	language.French,
	language.German,
	language.Japanese,
	language.Spanish,
})

// Locales returns the supported locales with the default first.
func Locales() []Locale {
	out := make([]Locale, len(supported))
	copy(out, supported)
	return out
}

// Parse returns the locale for code, or false when it is not supported.
func Parse(code string) (Locale, bool) {
	l := Locale(strings.ToLower(code))
	if l.Valid() {
		return l, true
	}
	return "", false
}

// Valid reports whether l is supported.
func (l Locale) Valid() bool {
	_, ok := names[l]
	return ok
}

// Name returns the locale's name in its own language.
func (l Locale) Name() string {
	if n, ok := names[l]; ok {
		return n
	}
	return string(l)
}

// String implements fmt.Stringer.
func (l Locale) String() string { return string(l) }

// Prefix returns the path prefix for l, e.g. "/fr".
func (l Locale) Prefix() string { return "/" + string(l) }

// Resolve splits a request path into its locale and remainder. The remainder
// always starts with "/". The segment is matched case-insensitively; ok is
// false when it is not a supported locale.
func Resolve(path string) (l Locale, rest string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/")
	seg, tail, found := strings.Cut(trimmed, "/")
	loc := Locale(strings.ToLower(seg))
	if !loc.Valid() {
		return "", path, false
	}
	if !found {
		return loc, "/", true
	}
	return loc, "/" + tail, true
}

// Negotiate picks the best supported locale for an Accept-Language header.
// An empty, unparsable or unmatched header yields fallback, or Default when
// fallback is not supported.
func Negotiate(acceptLanguage string, fallback Locale) Locale {
	if !fallback.Valid() {
		fallback = Default
	}
	if strings.TrimSpace(acceptLanguage) == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	return supported[idx]
}

// Localize prefixes path with l. Paths already carrying a locale prefix have
// it replaced, so Localize can be used to build locale switcher links.
func Localize(l Locale, path string) string {
	if !l.Valid() {
		l = Default
	}
	if _, rest, ok := Resolve(path); ok {
		path = rest
	}
	if path == "" || path == "/" {
		return l.Prefix() + "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return l.Prefix() + path
}
