// Package errors provides unified error handling with structured error codes
// shared between the pipeline and the client-facing wire messages.
package errors

import "fmt"

// Code identifies an error category.
type Code string

const (
	CodeUnknown         Code = "UNKNOWN"
	CodeInternal        Code = "INTERNAL"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeUnavailable     Code = "UNAVAILABLE"
	CodeTimeout         Code = "TIMEOUT"
	CodeRateLimited     Code = "RATE_LIMITED"

	CodeTranscriptionFailed   Code = "TRANSCRIPTION_FAILED"
	CodeNoSpeechDetected      Code = "NO_SPEECH_DETECTED"
	CodeTextTooShort          Code = "TEXT_TOO_SHORT"
	CodeNoChunksCaptured      Code = "NO_CHUNKS_CAPTURED"
	CodeMagicNotStarted       Code = "MAGIC_NOT_STARTED"
	CodeTranslationFailed     Code = "TRANSLATION_FAILED"
	CodeTopicExtractionFailed Code = "TOPIC_EXTRACTION_FAILED"
	CodeProcessingError       Code = "PROCESSING_ERROR"
)

// wireCodeMap maps internal codes to the error strings carried on the wire.
var wireCodeMap = map[Code]string{
	CodeTranscriptionFailed: "deepgram_error",
	CodeNoSpeechDetected:    "no_speaker_detected",
	CodeTextTooShort:        "text_too_short",
	CodeNoChunksCaptured:    "no_chunks",
	CodeMagicNotStarted:     "not_started",
	CodeProcessingError:     "processing_error",
}

// WireCode returns the client-facing error string for a code. Codes that are
// never surfaced to clients fall back to processing_error.
func (c Code) WireCode() string {
	if s, ok := wireCodeMap[c]; ok {
		return s
	}
	return "processing_error"
}

// userMessageMap holds the human-readable text sent alongside wire codes.
var userMessageMap = map[Code]string{
	CodeTranscriptionFailed: "Transcription service failed",
	CodeNoSpeechDetected:    "No speaker detected in the recording",
	CodeTextTooShort:        "Captured speech was too short to process",
	CodeNoChunksCaptured:    "No audio was captured",
	CodeMagicNotStarted:     "Recording was never started",
}

// UserMessage returns the human-readable text for a code.
func (c Code) UserMessage() string {
	if s, ok := userMessageMap[c]; ok {
		return s
	}
	return "Processing failed unexpectedly"
}

// AppError is the base error type with structured error code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// CodeOf extracts the code from an error, CodeUnknown for foreign errors.
func CodeOf(err error) Code {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return CodeUnknown
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// IsRetryable returns true if the error is potentially retryable.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case CodeUnavailable, CodeTimeout, CodeRateLimited:
		return true
	default:
		return false
	}
}
