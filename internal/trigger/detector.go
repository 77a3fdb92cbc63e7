// Package trigger detects spoken trigger phrases in transcripts and extracts
// the speech bounded by them.
package trigger

import (
	"regexp"
	"strings"

	"github.com/stagelink/platform/internal/textnorm"
)

// Detection reports which trigger phrases a transcript fragment contains.
type Detection struct {
	HasStart bool
	HasEnd   bool
}

// Scan checks a transcript fragment for the start and end phrases. Matching
// is normalized substring containment, so a phrase inside a longer word also
// matches; that looseness is intentional, transcription inserts punctuation
// and casing we cannot predict. Empty phrases never match.
func Scan(fragment, startPhrase, endPhrase string) Detection {
	norm := textnorm.Normalize(fragment)
	return Detection{
		HasStart: contains(norm, startPhrase),
		HasEnd:   contains(norm, endPhrase),
	}
}

func contains(normFragment, phrase string) bool {
	p := textnorm.Normalize(phrase)
	return p != "" && strings.Contains(normFragment, p)
}

// leadingArtifact matches a stray single letter left at the cut point when a
// phrase boundary splits mid-word ("...magic worD apple" extracts "d apple").
var leadingArtifact = regexp.MustCompile(`^[A-Za-z]\s+`)

// ExtractBetween returns the portion of fullText between the first occurrence
// of startPhrase and the last occurrence of endPhrase. Indices are located on
// normalized copies; the returned slice comes from the original text so
// punctuation survives.
func ExtractBetween(fullText, startPhrase, endPhrase string) string {
	norm, idx := textnorm.NormalizeIndexed(fullText)
	normStart := textnorm.Normalize(startPhrase)
	normEnd := textnorm.Normalize(endPhrase)

	startIdx := -1
	if normStart != "" {
		startIdx = strings.Index(norm, normStart)
	}
	endIdx := -1
	if normEnd != "" {
		endIdx = strings.LastIndex(norm, normEnd)
	}

	switch {
	case startIdx >= 0 && endIdx > startIdx:
		if endIdx <= startIdx+len(normStart)+1 {
			// Phrases adjacent, nothing meaningful between them.
			return ""
		}
		from := textnorm.OriginalEnd(fullText, idx, startIdx+len(normStart)-1)
		to := idx[endIdx]
		return stripLeadingArtifact(strings.TrimSpace(fullText[from:to]))
	case startIdx >= 0:
		// Only the start phrase, or the end phrase at/before it.
		from := textnorm.OriginalEnd(fullText, idx, startIdx+len(normStart)-1)
		return stripLeadingArtifact(strings.TrimSpace(fullText[from:]))
	case endIdx >= 0:
		return strings.TrimSpace(fullText[:idx[endIdx]])
	default:
		return strings.TrimSpace(fullText)
	}
}

func stripLeadingArtifact(s string) string {
	return leadingArtifact.ReplaceAllString(s, "")
}

var nonWord = regexp.MustCompile(`[^\w\s]`)

// CleanExtract strips everything but word characters and whitespace from an
// extracted window. Callers treat a result shorter than 2 characters as no
// meaningful speech.
func CleanExtract(s string) string {
	return strings.TrimSpace(nonWord.ReplaceAllString(s, ""))
}
