package topic

// stopWords are excluded from frequency and fallback candidates.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "than", "that",
		"this", "these", "those", "there", "here", "is", "are", "was", "were",
		"be", "been", "being", "am", "it", "its", "i", "im", "my", "me", "we",
		"our", "you", "your", "he", "she", "his", "her", "they", "them",
		"their", "of", "in", "on", "at", "to", "for", "from", "with", "about",
		"into", "over", "under", "again", "just", "very", "really", "so",
		"too", "not", "no", "yes", "do", "does", "did", "doing", "have",
		"has", "had", "having", "will", "would", "can", "could", "should",
		"what", "when", "where", "which", "who", "whom", "why", "how", "all",
		"any", "some", "now", "like", "going", "gonna", "okay", "well",
		"know", "think", "say", "said", "one", "two", "get", "got", "want",
	} {
		stopWords[w] = struct{}{}
	}
}

func isStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}
