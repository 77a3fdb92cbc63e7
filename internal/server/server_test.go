package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagelink/platform/internal/config"
	"github.com/stagelink/platform/internal/pipeline"
	"github.com/stagelink/platform/internal/session"
	"github.com/stagelink/platform/internal/transcription"
	"github.com/stagelink/platform/internal/wav"
)

// echoTranscriber returns the audio payload as the transcript, letting tests
// script recognition results through the uploaded bytes.
type echoTranscriber struct{}

func payloadText(audio []byte) string {
	if len(audio) > wav.HeaderSize {
		audio = audio[wav.HeaderSize:]
	}
	return strings.TrimSpace(string(audio))
}

func (echoTranscriber) Transcribe(_ context.Context, audio []byte, _ string) (string, error) {
	return payloadText(audio), nil
}

func (echoTranscriber) TranscribeDiarized(_ context.Context, audio []byte, _ string) (*transcription.Result, error) {
	text := payloadText(audio)
	alt := transcription.Alternative{Transcript: text}
	for _, w := range strings.Fields(text) {
		alt.Words = append(alt.Words, transcription.Word{Text: w, Punctuated: w, Speaker: 0})
	}
	return &transcription.Result{Channels: []transcription.Channel{{Alternatives: []transcription.Alternative{alt}}}}, nil
}

// wavChunk wraps transcript text in a canonical header so splicing works.
func wavChunk(text string) string {
	payload := []byte(text + " ")
	h := wav.Header{Channels: 1, SampleRate: 16000, BitsPerSample: 16}
	return string(append(h.Encode(len(payload)), payload...))
}

type stubSummarizer struct{}

func (stubSummarizer) Summarize(_ context.Context, _ string) (string, error) {
	return "a short summary", nil
}

type stubTranslator struct{}

func (stubTranslator) Translate(_ context.Context, text, _ string) (string, error) {
	return text, nil
}

type stubTopics struct{}

func (stubTopics) Extract(_ context.Context, _ string) string { return "test topic" }

type fakeConn struct {
	msgs chan any
}

func newFakeConn() *fakeConn {
	return &fakeConn{msgs: make(chan any, 16)}
}

func (c *fakeConn) Send(_ context.Context, v any) error {
	c.msgs <- v
	return nil
}

func (c *fakeConn) next(t *testing.T) any {
	t.Helper()
	select {
	case v := <-c.msgs:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func newTestServer() (*Server, *session.Registry) {
	cfg := &config.Config{
		MaxUploadBytes:  25 << 20,
		DefaultLanguage: "en",
	}
	registry := session.NewRegistry()
	buffers := session.NewBuffers(0)
	pipe := pipeline.New(echoTranscriber{}, stubSummarizer{}, stubTranslator{}, stubTopics{})
	return New(cfg, registry, buffers, pipe, echoTranscriber{}), registry
}

func postChunk(t *testing.T, handler http.Handler, fields map[string]string, audio string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if audio != "" {
		fw, err := mw.CreateFormFile("audio", "chunk.wav")
		require.NoError(t, err)
		_, err = fw.Write([]byte(audio))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/magic/chunk", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCORSMiddleware(t *testing.T) {
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("OPTIONS", "/test", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer()
	req := httptest.NewRequest("GET", "/api/health", http.NoBody)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestChunkMissingFile(t *testing.T) {
	s, _ := newTestServer()
	rec := postChunk(t, s.Handler(), map[string]string{"sessionId": "s1"}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "missing_file", resp.Error)
}

func TestChunkStartTrigger(t *testing.T) {
	s, registry := newTestServer()
	performer := newFakeConn()
	registry.Join("s1", session.RolePerformer, performer)

	rec := postChunk(t, s.Handler(), map[string]string{
		"sessionId":     "s1",
		"startKeyword":  "magic word",
		"endKeyword":    "magic stop",
		"isMagicActive": "false",
		"chunkNumber":   "1",
	}, "okay magic word")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp ChunkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.KeywordDetected)
	assert.Equal(t, "start", resp.Keyword)
	assert.Equal(t, "okay magic word", resp.Transcript)

	msg := performer.next(t)
	kd, ok := msg.(KeywordDetectedMessage)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, "keyword_detected", kd.Type)
	assert.Equal(t, "start", kd.Keyword)
}

func TestChunkIdleForwardsTranscript(t *testing.T) {
	s, registry := newTestServer()
	performer := newFakeConn()
	registry.Join("s1", session.RolePerformer, performer)

	rec := postChunk(t, s.Handler(), map[string]string{
		"sessionId":     "s1",
		"startKeyword":  "magic word",
		"endKeyword":    "magic stop",
		"isMagicActive": "false",
	}, "just some chatter")

	var resp ChunkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.KeywordDetected)

	msg := performer.next(t)
	tr, ok := msg.(TranscriptMessage)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, "transcript", tr.Type)
	assert.Equal(t, "just some chatter", tr.Text)
}

func TestManualEndWithoutStart(t *testing.T) {
	s, registry := newTestServer()
	performer := newFakeConn()
	registry.Join("s1", session.RolePerformer, performer)

	s.handleManualEnd(context.Background(), ManualEndMessage{SessionID: "s1", Language: "en"})

	msg := performer.next(t)
	em, ok := msg.(ErrorMessage)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, "no_recording_error", em.Type)
	assert.Equal(t, "not_started", em.Error)
}

func TestWindowProducesSummaryForBothRoles(t *testing.T) {
	s, registry := newTestServer()
	performer := newFakeConn()
	observer := newFakeConn()
	registry.Join("s1", session.RolePerformer, performer)
	registry.Join("s1", session.RoleObserver, observer)

	handler := s.Handler()
	fields := map[string]string{
		"sessionId":    "s1",
		"startKeyword": "magic word",
		"endKeyword":   "magic stop",
	}

	fields["isMagicActive"] = "false"
	postChunk(t, handler, fields, wavChunk("magic word"))
	fields["isMagicActive"] = "true"
	postChunk(t, handler, fields, wavChunk("the grand canyon"))
	rec := postChunk(t, handler, fields, wavChunk("magic stop"))

	var resp ChunkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "end", resp.Keyword)

	// keyword_detected for start and end, then the preview and the result.
	var gotSummary *SummaryMessage
	for i := 0; i < 4; i++ {
		if m, ok := performer.next(t).(SummaryMessage); ok && m.Type == "summarize_complete" {
			gotSummary = &m
			break
		}
	}
	require.NotNil(t, gotSummary, "performer never received summarize_complete")
	assert.Equal(t, "a short summary", gotSummary.Summary)
	assert.Equal(t, "test topic", gotSummary.Topic)

	om, ok := observer.next(t).(SummaryMessage)
	require.True(t, ok)
	assert.Equal(t, "summary", om.Type)
	assert.Equal(t, "test topic", om.Topic)

	assert.Equal(t, "test topic", registry.Topic("s1"))
}
