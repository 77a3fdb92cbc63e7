// Package llm provides Gemini-backed summarization, translation, and topic
// identification.
package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	apperrors "github.com/stagelink/platform/internal/errors"
	"github.com/stagelink/platform/internal/resilience"
	"github.com/stagelink/platform/internal/trace"
)

const (
	summaryPrompt = `Summarize the following speech in one or two sentences. Reply with only the summary, no preamble.

Speech:
---
%s
---`

	translatePrompt = `Translate the following text to the language with tag %q. Reply with only the translation, nothing else.

Text:
---
%s
---`

	topicPrompt = `Identify the single main topic of the following text. Reply with only the topic, in 1 to 3 words.

Text:
---
%s
---`
)

// Client calls the Gemini API for the language-dependent pipeline stages.
type Client struct {
	apiKey  string
	model   string
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
}

// New creates a Gemini client.
func New(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		breaker: resilience.New(resilience.SlowConfig()),
		retry:   resilience.LLMRetryConfig(),
	}
}

// Summarize returns a short summary of the text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	return c.generate(ctx, fmt.Sprintf(summaryPrompt, text))
}

// Translate renders text into the target language tag.
func (c *Client) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	out, err := c.generate(ctx, fmt.Sprintf(translatePrompt, targetLanguage, text))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeTranslationFailed, "translate to "+targetLanguage)
	}
	return out, nil
}

// Topic asks the model for a 1-3 word topic phrase.
func (c *Client) Topic(ctx context.Context, text string) (string, error) {
	return c.generate(ctx, fmt.Sprintf(topicPrompt, text))
}

// generate runs one prompt through the model with retry and circuit breaking.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "gemini_generate")
	defer span.End()
	span.SetAttr("prompt_len", len(prompt))

	return resilience.ExecuteWithResult(c.breaker, func() (string, error) {
		var out string
		err := resilience.Retry(ctx, c.retry, func() error {
			text, err := c.callModel(ctx, prompt)
			if err != nil {
				return err
			}
			out = text
			return nil
		})
		if err != nil {
			span.SetAttr("error", err.Error())
		}
		return out, err
	})
}

func (c *Client) callModel(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}

	result, err := client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		var text string
		for _, part := range result.Candidates[0].Content.Parts {
			if part.Text != "" {
				text += part.Text
			}
		}
		return strings.TrimSpace(text), nil
	}

	return "", fmt.Errorf("empty response from model")
}
