// Package transcription wraps the Deepgram prerecorded API behind a narrow
// interface so the pipeline never touches SDK types.
package transcription

import "context"

// Word is a single transcribed word with its diarized speaker index.
type Word struct {
	Text       string
	Punctuated string
	Speaker    int
}

// Alternative is one transcript hypothesis for a channel.
type Alternative struct {
	Transcript string
	Words      []Word
}

// Channel holds the alternatives produced for one audio channel.
type Channel struct {
	Alternatives []Alternative
}

// Result is a diarized transcription of a full clip.
type Result struct {
	Channels []Channel
}

// Transcriber converts WAV audio into transcripts.
type Transcriber interface {
	// Transcribe returns the plain transcript of a short fragment, used for
	// trigger-phrase scanning.
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)

	// TranscribeDiarized transcribes a full clip with speaker labels.
	TranscribeDiarized(ctx context.Context, audio []byte, language string) (*Result, error)
}
