// Package topic identifies a short topic phrase for a piece of speech using
// an ordered chain of strategies; the first strategy to produce a result wins.
package topic

import (
	"context"
	"log/slog"
)

// FallbackTopic is delivered when no strategy finds anything meaningful.
const FallbackTopic = "general discussion"

// Strategy attempts to identify a topic. ok is false when the strategy has
// nothing to offer and the chain should continue.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, text string) (topic string, ok bool)
}

// Model is the generative service used by the AI strategy.
type Model interface {
	Topic(ctx context.Context, text string) (string, error)
}

// Extractor runs strategies in order.
type Extractor struct {
	strategies []Strategy
}

// NewExtractor builds the standard chain: AI, weighted frequency, cue
// patterns, then the naive fallback. model may be nil, in which case the AI
// strategy is skipped.
func NewExtractor(model Model) *Extractor {
	var chain []Strategy
	if model != nil {
		chain = append(chain, &aiStrategy{model: model})
	}
	chain = append(chain,
		&frequencyStrategy{},
		&patternStrategy{},
		&fallbackStrategy{},
	)
	return &Extractor{strategies: chain}
}

// Extract returns a topic for the text. Never empty: the final strategy
// always produces a result.
func (e *Extractor) Extract(ctx context.Context, text string) string {
	for _, s := range e.strategies {
		if topic, ok := s.Extract(ctx, text); ok && topic != "" {
			slog.Debug("topic identified", "strategy", s.Name(), "topic", topic)
			return topic
		}
	}
	return FallbackTopic
}
