package network

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// companySuffixes are trailing tokens that carry no identity ("Sequoia Capital" == "Sequoia")
var companySuffixes = map[string]struct{}{
	"inc": {}, "llc": {}, "ltd": {}, "llp": {}, "lp": {}, "plc": {}, "gmbh": {},
	"corp": {}, "corporation": {}, "co": {}, "company": {}, "group": {}, "holdings": {},
	"partners": {}, "capital": {}, "ventures": {}, "management": {}, "fund": {}, "vc": {},
	"investments": {},
}

// NormalizeCompanyName reduces a company name to a comparable key.
// "The Sequoia Capital, LLC" and "Sequoia" both normalize to "sequoia".
func NormalizeCompanyName(name string) string {
	tokens := companyTokens(name)
	if len(tokens) > 1 && tokens[0] == "the" {
		tokens = tokens[1:]
	}
	for len(tokens) > 1 {
		if _, ok := companySuffixes[tokens[len(tokens)-1]]; !ok {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// NormalizePersonName lower-cases, strips diacritics and collapses whitespace
func NormalizePersonName(name string) string {
	return strings.Join(companyTokens(name), " ")
}

func companyTokens(name string) []string {
	s := stripDiacritics(strings.ToLower(name))
	s = strings.ReplaceAll(s, "&", " and ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' || r == '\'' || r == '’':
			// "Y.C." -> "yc", "O'Reilly" -> "oreilly"
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// DomainFromURL extracts the bare host of a website ("https://www.a16z.com/x" -> "a16z.com")
func DomainFromURL(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	if i := strings.Index(raw, "://"); i >= 0 {
		raw = raw[i+3:]
	}
	if i := strings.IndexAny(raw, "/?#"); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.LastIndex(raw, "@"); i >= 0 {
		raw = raw[i+1:]
	}
	if i := strings.Index(raw, ":"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimPrefix(raw, "www.")
}

// freeMailDomains never identify an employer
var freeMailDomains = map[string]struct{}{
	"gmail.com": {}, "googlemail.com": {}, "yahoo.com": {}, "hotmail.com": {}, "outlook.com": {},
	"live.com": {}, "icloud.com": {}, "me.com": {}, "aol.com": {}, "proton.me": {}, "protonmail.com": {},
}

func isFreeMailDomain(domain string) bool {
	_, ok := freeMailDomains[domain]
	return ok
}
