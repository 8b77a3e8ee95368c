package llm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Everything a dialog bubble can safely draw. Anything else is dropped.
var renderable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0009, Hi: 0x000a, Stride: 1}, // tab, newline
		{Lo: 0x0020, Hi: 0x007e, Stride: 1}, // printable ascii
		{Lo: 0x00a0, Hi: 0x00ff, Stride: 1}, // latin-1 supplement (minus C1 controls)
		{Lo: 0x1100, Hi: 0x11ff, Stride: 1}, // hangul jamo
		{Lo: 0x3000, Hi: 0x303f, Stride: 1}, // cjk symbols and punctuation
		{Lo: 0x3040, Hi: 0x309f, Stride: 1}, // hiragana
		{Lo: 0x30a0, Hi: 0x30ff, Stride: 1}, // katakana
		{Lo: 0x3130, Hi: 0x318f, Stride: 1}, // hangul compatibility jamo
		{Lo: 0x3400, Hi: 0x4dbf, Stride: 1}, // cjk extension a
		{Lo: 0x4e00, Hi: 0x9fff, Stride: 1}, // cjk unified ideographs
		{Lo: 0xac00, Hi: 0xd7af, Stride: 1}, // hangul syllables
		{Lo: 0xff00, Hi: 0xffef, Stride: 1}, // halfwidth and fullwidth forms
	},
	LatinOffset: 3,
}

// StripEmojis reduces text to characters a dialog bubble can draw, then collapses
// whitespace runs to single spaces and trims the ends.
// Works on any input, including invalid utf-8, and applying it twice changes nothing.
func StripEmojis(text string) string {
	if text == `` {
		return ``
	}

	// Compose first so "e" + combining accent survives as "é"
	text = norm.NFC.String(text)

	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if unicode.Is(renderable, r) {
			sb.WriteRune(r)
		}
	}

	// Dropping characters can leave composable neighbours (e.g. hangul jamo) side by side.
	// Composing again keeps the output stable under a second pass.
	kept := norm.NFC.String(sb.String())

	return strings.Join(strings.Fields(kept), ` `)
}
