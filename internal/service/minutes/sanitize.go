package minutes

import "strings"

// punctuation is the ASCII punctuation set stripped from file names.
const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Sanitize removes ASCII punctuation and keeps everything else, whitespace
// included, in order.
func Sanitize(text string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x80 && strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, text)
}

// SanitizeCompact is Sanitize with spaces removed as well.
func SanitizeCompact(text string) string {
	return strings.ReplaceAll(Sanitize(text), " ", "")
}
