// Package textnorm canonicalizes text for phrase comparison
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// stripped is the punctuation class removed during normalization.
const stripped = ".,/#!$%^&*;:{}=-_`~()"

// Normalize lower-cases the input, strips punctuation, collapses whitespace
// runs to a single space, and trims. Idempotent.
func Normalize(s string) string {
	out, _ := NormalizeIndexed(s)
	return out
}

// NormalizeIndexed returns the normalized text plus a byte-index map: idx[i]
// is the byte offset in the original string of the rune that produced byte i
// of the normalized string. Callers use it to slice the original text at
// positions found in the normalized copy.
func NormalizeIndexed(s string) (string, []int) {
	var b strings.Builder
	b.Grow(len(s))
	idx := make([]int, 0, len(s))

	pendingSpace := false
	for off, r := range s {
		if strings.ContainsRune(stripped, r) {
			continue
		}
		if unicode.IsSpace(r) {
			if b.Len() > 0 {
				pendingSpace = true
			}
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			idx = append(idx, off)
			pendingSpace = false
		}
		lr := unicode.ToLower(r)
		n := utf8.RuneLen(lr)
		b.WriteRune(lr)
		for i := 0; i < n; i++ {
			idx = append(idx, off)
		}
	}
	return b.String(), idx
}

// OriginalEnd returns the byte offset in the original string just past the
// rune that produced normalized byte i. Returns len(original) when the map is
// exhausted.
func OriginalEnd(original string, idx []int, i int) int {
	if i < 0 || i >= len(idx) {
		return len(original)
	}
	_, n := utf8.DecodeRuneInString(original[idx[i]:])
	return idx[i] + n
}
