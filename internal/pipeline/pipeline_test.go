package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/stagelink/platform/internal/errors"
	"github.com/stagelink/platform/internal/transcription"
)

type mockTranscriber struct {
	res *transcription.Result
	err error
}

func (m *mockTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	return "", nil
}

func (m *mockTranscriber) TranscribeDiarized(_ context.Context, _ []byte, _ string) (*transcription.Result, error) {
	return m.res, m.err
}

type mockSummarizer struct {
	summary string
	err     error
	calls   int
}

func (m *mockSummarizer) Summarize(_ context.Context, _ string) (string, error) {
	m.calls++
	return m.summary, m.err
}

type mockTranslator struct {
	err     error
	calls   []string // target languages, in order
}

func (m *mockTranslator) Translate(_ context.Context, text, target string) (string, error) {
	m.calls = append(m.calls, target)
	if m.err != nil {
		return "", m.err
	}
	return "[" + target + "] " + text, nil
}

type mockTopics struct {
	topic string
}

func (m *mockTopics) Extract(_ context.Context, _ string) string {
	return m.topic
}

func diarized(words string) *transcription.Result {
	alt := transcription.Alternative{Transcript: words}
	for _, w := range strings.Fields(words) {
		alt.Words = append(alt.Words, transcription.Word{Text: w, Punctuated: w, Speaker: 0})
	}
	return &transcription.Result{Channels: []transcription.Channel{{Alternatives: []transcription.Alternative{alt}}}}
}

func collect(t *testing.T, p *Pipeline, n int) []Event {
	t.Helper()
	var events []Event
	for i := 0; i < n; i++ {
		select {
		case evt := <-p.Events():
			events = append(events, evt)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
	return events
}

func TestRunHappyPathEnglish(t *testing.T) {
	p := New(
		&mockTranscriber{res: diarized("magic word the grand canyon magic stop")},
		&mockSummarizer{summary: "A note about the grand canyon."},
		&mockTranslator{},
		&mockTopics{topic: "grand canyon"},
	)

	p.Run(context.Background(), Job{
		SessionID:   "s1",
		Clip:        []byte("wav"),
		Language:    "en-US",
		StartPhrase: "magic word",
		EndPhrase:   "magic stop",
	})

	events := collect(t, p, 2)
	assert.Equal(t, EventTranscriptPreview, events[0].Kind)
	assert.Equal(t, "magic word the grand canyon magic stop", events[0].Text)

	require.Equal(t, EventResult, events[1].Kind)
	assert.Equal(t, "s1", events[1].SessionID)
	assert.Equal(t, "A note about the grand canyon.", events[1].Summary)
	assert.Equal(t, "grand canyon", events[1].Topic)
}

func TestRunTranscriptionFailure(t *testing.T) {
	p := New(
		&mockTranscriber{err: errors.New("502 from deepgram")},
		&mockSummarizer{}, &mockTranslator{}, &mockTopics{},
	)

	p.Run(context.Background(), Job{SessionID: "s1"})

	events := collect(t, p, 1)
	assert.Equal(t, EventDiarizationError, events[0].Kind)
	assert.Equal(t, apperrors.CodeTranscriptionFailed, events[0].Code)
}

func TestRunNoSpeaker(t *testing.T) {
	p := New(
		&mockTranscriber{res: &transcription.Result{}},
		&mockSummarizer{}, &mockTranslator{}, &mockTopics{},
	)

	p.Run(context.Background(), Job{SessionID: "s1"})

	events := collect(t, p, 1)
	assert.Equal(t, EventDiarizationError, events[0].Kind)
	assert.Equal(t, apperrors.CodeNoSpeechDetected, events[0].Code)
}

func TestRunTextTooShort(t *testing.T) {
	p := New(
		&mockTranscriber{res: diarized("magic word a magic stop")},
		&mockSummarizer{}, &mockTranslator{}, &mockTopics{},
	)

	p.Run(context.Background(), Job{
		SessionID:   "s1",
		StartPhrase: "magic word",
		EndPhrase:   "magic stop",
	})

	// Preview still goes out before the length check aborts the run.
	events := collect(t, p, 2)
	assert.Equal(t, EventTranscriptPreview, events[0].Kind)
	assert.Equal(t, EventRecordingError, events[1].Kind)
	assert.Equal(t, apperrors.CodeTextTooShort, events[1].Code)
}

func TestRunNonEnglishRoundTrip(t *testing.T) {
	translator := &mockTranslator{}
	summarizer := &mockSummarizer{summary: "summary in english"}
	p := New(
		&mockTranscriber{res: diarized("hola esto es sobre flamenco baile")},
		summarizer,
		translator,
		&mockTopics{topic: "flamenco"},
	)

	p.Run(context.Background(), Job{SessionID: "s1", Language: "es"})

	events := collect(t, p, 2)
	require.Equal(t, EventResult, events[1].Kind)
	// Text to English, summary back to Spanish, topic back to Spanish.
	assert.Equal(t, []string{"en", "es", "es"}, translator.calls)
	assert.Equal(t, 1, summarizer.calls)
	assert.Equal(t, "[es] summary in english", events[1].Summary)
	assert.Equal(t, "[es] flamenco", events[1].Topic)
}

func TestRunTranslationFailureFallsBack(t *testing.T) {
	p := New(
		&mockTranscriber{res: diarized("uno dos tres cuatro cinco seis")},
		&mockSummarizer{summary: "unused"},
		&mockTranslator{err: errors.New("translate down")},
		&mockTopics{topic: "unused"},
	)

	p.Run(context.Background(), Job{SessionID: "s1", Language: "es"})

	events := collect(t, p, 2)
	require.Equal(t, EventResult, events[1].Kind)
	assert.Equal(t, "uno dos tres cuatro cinco seis", events[1].Summary)
	assert.Equal(t, "uno dos tres cuatro", events[1].Topic)
}

func TestRunSummarizerFailureIsProcessingError(t *testing.T) {
	p := New(
		&mockTranscriber{res: diarized("plenty of meaningful words here")},
		&mockSummarizer{err: errors.New("llm down")},
		&mockTranslator{},
		&mockTopics{},
	)

	p.Run(context.Background(), Job{SessionID: "s1", Language: "en"})

	events := collect(t, p, 2)
	assert.Equal(t, EventDiarizationError, events[1].Kind)
	assert.Equal(t, apperrors.CodeProcessingError, events[1].Code)
}

func TestFinalizeTopic(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		summary string
		want    string
	}{
		{"valid topic kept", "card tricks", "whatever", "card tricks"},
		{"empty topic", "", "The talk covered card tricks", "The talk"},
		{"null literal", "null", "We spoke of gardens today", "spoke gardens"},
		{"placeholder", "no topic", "It is an ox", "general discussion"},
		{"no summary either", "", "", "general discussion"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, finalizeTopic(tt.topic, tt.summary))
		})
	}
}

func TestFirstWords(t *testing.T) {
	assert.Equal(t, "a b c d", firstWords("a b c d e f", 4))
	assert.Equal(t, "short", firstWords("short", 4))
	assert.Equal(t, "", firstWords("", 4))
}
