// Package pipeline runs a closed recording window through transcription,
// extraction, summarization, and topic identification, and emits the results
// as events for the session layer to dispatch.
package pipeline

import (
	"context"
	"strings"

	apperrors "github.com/stagelink/platform/internal/errors"
	"github.com/stagelink/platform/internal/topic"
	"github.com/stagelink/platform/internal/trace"
	"github.com/stagelink/platform/internal/transcription"
	"github.com/stagelink/platform/internal/trigger"
)

// Summarizer produces a short summary of a piece of speech.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Translator renders text into a target language tag.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// TopicExtractor identifies a topic phrase; never returns empty.
type TopicExtractor interface {
	Extract(ctx context.Context, text string) string
}

// EventKind discriminates pipeline events.
type EventKind string

const (
	// EventTranscriptPreview carries the selected transcript for the performer.
	EventTranscriptPreview EventKind = "transcript_preview"
	// EventResult carries the finished summary and topic for both roles.
	EventResult EventKind = "result"
	// EventDiarizationError reports a failed pipeline run.
	EventDiarizationError EventKind = "diarization_error"
	// EventRecordingError reports a window with no usable speech.
	EventRecordingError EventKind = "recording_error"
)

// Event is a pipeline output addressed to a session.
type Event struct {
	SessionID string
	Kind      EventKind
	Text      string
	Summary   string
	Topic     string
	Code      apperrors.Code
}

// Job is one closed recording window ready for processing.
type Job struct {
	SessionID   string
	Clip        []byte
	Language    string
	StartPhrase string
	EndPhrase   string
}

// Pipeline orchestrates the post-window processing stages.
type Pipeline struct {
	transcriber transcription.Transcriber
	summarizer  Summarizer
	translator  Translator
	topics      TopicExtractor
	events      chan Event
}

// New creates a pipeline.
func New(t transcription.Transcriber, s Summarizer, tr Translator, topics TopicExtractor) *Pipeline {
	return &Pipeline{
		transcriber: t,
		summarizer:  s,
		translator:  tr,
		topics:      topics,
		events:      make(chan Event, EventBuffer),
	}
}

// Events returns the channel of pipeline events.
func (p *Pipeline) Events() <-chan Event {
	return p.events
}

// Run processes one job to completion. Safe to call from a goroutine; every
// failure mode is converted to an event, nothing escapes.
func (p *Pipeline) Run(ctx context.Context, job Job) {
	ctx, span := trace.StartSpan(ctx, "diarization_pipeline")
	defer span.End()
	span.SetAttr("session", job.SessionID)
	span.SetAttr("clip_bytes", len(job.Clip))

	log := trace.Logger(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panic", "session", job.SessionID, "recovered", r)
			p.fail(job.SessionID, EventDiarizationError, apperrors.CodeProcessingError)
		}
	}()

	if job.Language == "" {
		job.Language = "en"
	}

	res, err := p.transcriber.TranscribeDiarized(ctx, job.Clip, job.Language)
	if err != nil {
		log.Error("diarized transcription failed", "session", job.SessionID, "error", err)
		p.fail(job.SessionID, EventDiarizationError, apperrors.CodeTranscriptionFailed)
		return
	}

	selected, err := SelectTranscript(res)
	if err != nil {
		log.Info("no speaker in window", "session", job.SessionID)
		p.fail(job.SessionID, EventDiarizationError, apperrors.CodeNoSpeechDetected)
		return
	}

	p.emit(Event{SessionID: job.SessionID, Kind: EventTranscriptPreview, Text: selected})

	extracted := trigger.ExtractBetween(selected, job.StartPhrase, job.EndPhrase)
	if len(trigger.CleanExtract(extracted)) < MinSpeechChars {
		log.Info("window text too short", "session", job.SessionID)
		p.fail(job.SessionID, EventRecordingError, apperrors.CodeTextTooShort)
		return
	}

	summary, topicPhrase, err := p.analyze(ctx, extracted, job.Language)
	if err != nil {
		log.Error("analysis failed", "session", job.SessionID, "error", err)
		p.fail(job.SessionID, EventDiarizationError, apperrors.CodeProcessingError)
		return
	}

	topicPhrase = finalizeTopic(topicPhrase, summary)
	log.Info("window processed", "session", job.SessionID, "topic", topicPhrase)
	p.emit(Event{SessionID: job.SessionID, Kind: EventResult, Summary: summary, Topic: topicPhrase})
}

// analyze runs the language-dependent summarization and topic stages.
// Translation failures are recovered with the untranslated fallback and never
// propagate; summarization failures do.
func (p *Pipeline) analyze(ctx context.Context, text, language string) (summary, topicPhrase string, err error) {
	if strings.HasPrefix(strings.ToLower(language), "en") {
		summary, err = p.summarizer.Summarize(ctx, text)
		if err != nil {
			return "", "", err
		}
		// Topic is sourced independently of the summary.
		return summary, p.topics.Extract(ctx, text), nil
	}

	english, err := p.translator.Translate(ctx, text, "en")
	if err != nil {
		return p.untranslatedFallback(ctx, text)
	}

	englishSummary, err := p.summarizer.Summarize(ctx, english)
	if err != nil {
		return "", "", err
	}

	summary, err = p.translator.Translate(ctx, englishSummary, language)
	if err != nil {
		return p.untranslatedFallback(ctx, text)
	}

	englishTopic := p.topics.Extract(ctx, english)
	topicPhrase, err = p.translator.Translate(ctx, englishTopic, language)
	if err != nil {
		return p.untranslatedFallback(ctx, text)
	}

	return summary, topicPhrase, nil
}

// untranslatedFallback recovers from a translation failure: the raw extracted
// text stands in for the summary and its first four words for the topic.
func (p *Pipeline) untranslatedFallback(ctx context.Context, text string) (string, string, error) {
	trace.Logger(ctx).Warn("translation failed, using untranslated text")
	return text, firstWords(text, 4), nil
}

// finalizeTopic enforces the delivery contract: the topic is never empty,
// "null", or a placeholder. The summary's first meaningful words back it up.
func finalizeTopic(topicPhrase, summary string) string {
	t := strings.ToLower(strings.TrimSpace(topicPhrase))
	if t != "" && t != "null" && t != "undefined" && t != "no topic" && t != "unknown" {
		return strings.TrimSpace(topicPhrase)
	}

	var meaningful []string
	for _, w := range strings.Fields(summary) {
		if len(w) > 2 {
			meaningful = append(meaningful, w)
			if len(meaningful) == 2 {
				break
			}
		}
	}
	if len(meaningful) > 0 {
		return strings.Join(meaningful, " ")
	}
	return topic.FallbackTopic
}

func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

func (p *Pipeline) fail(sessionID string, kind EventKind, code apperrors.Code) {
	p.emit(Event{SessionID: sessionID, Kind: kind, Code: code})
}

// emit sends an event without blocking; a full channel drops the event.
func (p *Pipeline) emit(evt Event) {
	select {
	case p.events <- evt:
	default:
		trace.Logger(context.Background()).Warn("pipeline event channel full", "session", evt.SessionID, "kind", evt.Kind)
	}
}
