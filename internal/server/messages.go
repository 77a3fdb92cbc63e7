package server

import "time"

// Client to server message types.
type Message struct {
	Type string `json:"type"`
}

type JoinMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
}

type ManualStartMessage struct {
	Type         string `json:"type"`
	SessionID    string `json:"sessionId"`
	StartKeyword string `json:"startKeyword"`
	EndKeyword   string `json:"endKeyword"`
	Language     string `json:"language"`
}

type ManualEndMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Language  string `json:"language"`
}

type TopicSearchedMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

// Server to client message types. Timestamps are unix milliseconds.
type JoinedMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
}

type ReadyMessage struct {
	Type string `json:"type"`
}

type TranscriptMessage struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type KeywordDetectedMessage struct {
	Type       string `json:"type"`
	Keyword    string `json:"keyword"`
	Transcript string `json:"transcript"`
	Timestamp  int64  `json:"timestamp"`
}

type SummaryMessage struct {
	Type      string `json:"type"`
	Summary   string `json:"summary"`
	Topic     string `json:"topic"`
	Timestamp int64  `json:"timestamp"`
}

type ErrorMessage struct {
	Type      string `json:"type"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type RateLimitedMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Upload endpoint responses.
type ChunkResponse struct {
	Success         bool   `json:"success"`
	Transcript      string `json:"transcript"`
	KeywordDetected bool   `json:"keywordDetected"`
	Keyword         string `json:"keyword,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
