package topic

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// aiStrategy asks the generative model; the reply is accepted only when it
// parses to 1-3 non-empty tokens.
type aiStrategy struct {
	model Model
}

func (s *aiStrategy) Name() string { return "ai" }

func (s *aiStrategy) Extract(ctx context.Context, text string) (string, bool) {
	reply, err := s.model.Topic(ctx, text)
	if err != nil {
		slog.Debug("ai topic strategy failed", "error", err)
		return "", false
	}
	tokens := strings.Fields(strings.TrimSpace(reply))
	if len(tokens) < 1 || len(tokens) > 3 {
		return "", false
	}
	return strings.Join(tokens, " "), true
}

var tokenStrip = regexp.MustCompile(`[^\w\s]`)

// tokenize lower-cases, strips non-word characters, and splits on whitespace.
func tokenize(text string) []string {
	return strings.Fields(tokenStrip.ReplaceAllString(strings.ToLower(text), ""))
}

// cuePhrases give a fixed score bonus to the word they reference.
var cuePhrases = []struct {
	re    *regexp.Regexp
	bonus int
}{
	{regexp.MustCompile(`i am talking about (\w+)`), 10},
	{regexp.MustCompile(`talking about (\w+)`), 8},
	{regexp.MustCompile(`this is about (\w+)`), 6},
	{regexp.MustCompile(`about (\w+)`), 5},
	{regexp.MustCompile(`i like (\w+)`), 7},
}

// frequencyStrategy scores words by occurrence count plus cue-phrase bonuses
// and returns the best word that occurs at least twice.
type frequencyStrategy struct{}

func (s *frequencyStrategy) Name() string { return "frequency" }

func (s *frequencyStrategy) Extract(_ context.Context, text string) (string, bool) {
	counts := make(map[string]int)
	for _, tok := range tokenize(text) {
		if len(tok) <= 2 || isStopWord(tok) {
			continue
		}
		counts[tok]++
	}
	if len(counts) == 0 {
		return "", false
	}

	scores := make(map[string]int, len(counts))
	for w, n := range counts {
		scores[w] = n
	}
	lower := strings.ToLower(text)
	for _, cue := range cuePhrases {
		for _, m := range cue.re.FindAllStringSubmatch(lower, -1) {
			w := m[1]
			if len(w) <= 2 || isStopWord(w) {
				continue
			}
			scores[w] += cue.bonus
		}
	}

	best, bestScore := "", 0
	for w, score := range scores {
		if counts[w] < 2 {
			continue
		}
		if score > bestScore {
			best, bestScore = w, score
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// patterns is the ordered cue list for the pattern strategy: explicit
// statement, preference, descriptive, emphasis. Earlier patterns weigh more.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:talking|talk|speaking) about (\w+)`),
	regexp.MustCompile(`i (?:love|like|enjoy|prefer) (\w+)`),
	regexp.MustCompile(`(\w+) is (?:really |very |so )?(?:great|good|amazing|interesting|important|beautiful|fun)`),
	regexp.MustCompile(`(?:really|definitely|absolutely) (\w+)`),
}

// patternStrategy aggregates rank-weighted cue matches per word.
type patternStrategy struct{}

func (s *patternStrategy) Name() string { return "pattern" }

func (s *patternStrategy) Extract(_ context.Context, text string) (string, bool) {
	lower := strings.ToLower(text)
	scores := make(map[string]int)
	for i, re := range patterns {
		weight := len(patterns) - i
		for _, m := range re.FindAllStringSubmatch(lower, -1) {
			w := m[1]
			if len(w) <= 2 || isStopWord(w) {
				continue
			}
			scores[w] += weight
		}
	}

	best, bestScore := "", 0
	for w, score := range scores {
		if score > bestScore {
			best, bestScore = w, score
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// fallbackStrategy returns the first substantial token, or the generic
// placeholder. It always succeeds.
type fallbackStrategy struct{}

func (s *fallbackStrategy) Name() string { return "fallback" }

func (s *fallbackStrategy) Extract(_ context.Context, text string) (string, bool) {
	for _, tok := range tokenize(text) {
		if len(tok) <= 3 || isStopWord(tok) {
			continue
		}
		return tok, true
	}
	return FallbackTopic, true
}
