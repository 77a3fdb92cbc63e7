package transcription

import (
	"bytes"
	"context"

	listenapi "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	restinterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest/interfaces"
	clientinterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listen "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	apperrors "github.com/stagelink/platform/internal/errors"
	"github.com/stagelink/platform/internal/resilience"
	"github.com/stagelink/platform/internal/trace"
)

// Client is a Deepgram-backed Transcriber.
type Client struct {
	dg    *listenapi.Client
	model string
	retry resilience.RetryConfig
}

// New creates a Deepgram client using the prerecorded REST API.
func New(apiKey, model string) *Client {
	rest := listen.NewREST(apiKey, &clientinterfaces.ClientOptions{})
	return &Client{
		dg:    listenapi.New(rest),
		model: model,
		retry: resilience.DefaultRetryConfig(),
	}
}

// Transcribe transcribes a short fragment without diarization.
func (c *Client) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	res, err := c.fromStream(ctx, audio, language, false)
	if err != nil {
		return "", err
	}
	if len(res.Channels) == 0 || len(res.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return res.Channels[0].Alternatives[0].Transcript, nil
}

// TranscribeDiarized transcribes a full clip with speaker labels enabled.
func (c *Client) TranscribeDiarized(ctx context.Context, audio []byte, language string) (*Result, error) {
	return c.fromStream(ctx, audio, language, true)
}

func (c *Client) fromStream(ctx context.Context, audio []byte, language string, diarize bool) (*Result, error) {
	ctx, span := trace.StartSpan(ctx, "deepgram_transcribe")
	defer span.End()
	span.SetAttr("bytes", len(audio))
	span.SetAttr("diarize", diarize)

	options := &clientinterfaces.PreRecordedTranscriptionOptions{
		Model:     c.model,
		Language:  language,
		Punctuate: true,
		Diarize:   diarize,
	}

	var out *Result
	err := resilience.Retry(ctx, c.retry, func() error {
		resp, err := c.dg.FromStream(ctx, bytes.NewReader(audio), options)
		if err != nil {
			return err
		}
		out = convert(resp)
		return nil
	})
	if err != nil {
		span.SetAttr("error", err.Error())
		return nil, apperrors.Wrap(err, apperrors.CodeTranscriptionFailed, "deepgram transcription failed")
	}
	return out, nil
}

// convert maps the SDK response into the domain result.
func convert(resp *restinterfaces.PreRecordedResponse) *Result {
	out := &Result{}
	if resp == nil || resp.Results == nil {
		return out
	}
	for _, ch := range resp.Results.Channels {
		channel := Channel{}
		for _, alt := range ch.Alternatives {
			a := Alternative{Transcript: alt.Transcript}
			for _, w := range alt.Words {
				speaker := 0
				if w.Speaker != nil {
					speaker = *w.Speaker
				}
				a.Words = append(a.Words, Word{
					Text:       w.Word,
					Punctuated: w.PunctuatedWord,
					Speaker:    speaker,
				})
			}
			channel.Alternatives = append(channel.Alternatives, a)
		}
		out.Channels = append(out.Channels, channel)
	}
	return out
}
