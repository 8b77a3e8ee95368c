package language

import "strings"

// pluralRule replaces suffix with replacement. An empty suffix matches anything.
type pluralRule struct {
	suffix         string
	replacement    string
	afterConsonant bool // only when the letter before the suffix is a consonant
}

// Checked in order, first match wins
var pluralRules = map[string][]pluralRule{
	`en`: {
		{`fe`, `ves`, false},
		{`f`, `ves`, false},
		{`is`, `es`, false},
		{`on`, `a`, false},
		{`y`, `ies`, true},
		{`o`, `oes`, false},
		{`sh`, `shes`, false},
		{`ch`, `ches`, false},
		{`x`, `xes`, false},
		{`s`, `ses`, false},
		{``, `s`, false},
	},
}

func isVowel(ch byte) bool {
	return strings.IndexByte(`aeiouAEIOU`, ch) >= 0
}

func (r pluralRule) matches(word string) bool {
	if !strings.HasSuffix(word, r.suffix) {
		return false
	}
	if !r.afterConsonant {
		return true
	}
	i := len(word) - len(r.suffix) - 1
	return i >= 0 && !isVowel(word[i])
}

// Pluralize returns the plural of an English noun. Other languages can be requested,
// and words in a language without rules come back unchanged.
func Pluralize(word string, lang ...string) string {

	code := `en`
	if len(lang) > 0 {
		code = lang[0]
	}

	for _, rule := range pluralRules[code] {
		if rule.matches(word) {
			return strings.TrimSuffix(word, rule.suffix) + rule.replacement
		}
	}

	return word
}
