package pipeline

import (
	"strings"

	apperrors "github.com/stagelink/platform/internal/errors"
	"github.com/stagelink/platform/internal/transcription"
)

// SelectTranscript picks the text the pipeline acts on: the preferred
// speaker's words when diarization attributed any, else the full mix from
// every alternative, else failure.
func SelectTranscript(res *transcription.Result) (string, error) {
	if res == nil {
		return "", apperrors.New(apperrors.CodeNoSpeechDetected, "empty transcription result")
	}

	speakers := make(map[int][]string)
	var full []string
	for _, ch := range res.Channels {
		for _, alt := range ch.Alternatives {
			if t := strings.TrimSpace(alt.Transcript); t != "" {
				full = append(full, t)
			}
			for _, w := range alt.Words {
				text := w.Punctuated
				if text == "" {
					text = w.Text
				}
				if text == "" {
					continue
				}
				speakers[w.Speaker] = append(speakers[w.Speaker], text)
			}
		}
	}

	if s := strings.Join(speakers[preferredSpeaker], " "); strings.TrimSpace(s) != "" {
		return s, nil
	}
	if f := strings.Join(full, " "); strings.TrimSpace(f) != "" {
		return f, nil
	}
	return "", apperrors.New(apperrors.CodeNoSpeechDetected, "no speech detected")
}

// preferredSpeaker is the diarization index the performer speaks on.
const preferredSpeaker = 0
