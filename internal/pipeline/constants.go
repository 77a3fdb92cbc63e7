package pipeline

// Pipeline configuration constants
const (
	// Event channel buffer size
	EventBuffer = 100

	// Minimum cleaned extract length that counts as meaningful speech
	MinSpeechChars = 2
)
