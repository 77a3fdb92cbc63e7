package trigger

import "testing"

func TestScan(t *testing.T) {
	tests := []struct {
		name      string
		fragment  string
		start     string
		end       string
		wantStart bool
		wantEnd   bool
	}{
		{"start present", "okay Magic Word, go", "magic word", "magic stop", true, false},
		{"end present", "and that's the magic stop.", "magic word", "magic stop", false, true},
		{"both present", "magic word hello magic stop", "magic word", "magic stop", true, true},
		{"neither", "just some speech", "magic word", "magic stop", false, false},
		{"punctuation robust", "Magic, word!", "magic word", "", true, false},
		{"empty phrases never match", "anything at all", "", "", false, false},
		{"substring of word matches", "that is magical wordplay", "magic", "", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Scan(tt.fragment, tt.start, tt.end)
			if d.HasStart != tt.wantStart {
				t.Errorf("HasStart = %v, want %v", d.HasStart, tt.wantStart)
			}
			if d.HasEnd != tt.wantEnd {
				t.Errorf("HasEnd = %v, want %v", d.HasEnd, tt.wantEnd)
			}
		})
	}
}

func TestExtractBetween(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		start string
		end   string
		want  string
	}{
		{"both phrases", "Hello magic word apple magic stop", "magic word", "magic stop", "apple"},
		{"preserves punctuation", "magic word we love New York, truly magic stop", "magic word", "magic stop", "we love New York, truly"},
		{"adjacent phrases", "so magic word magic stop done", "magic word", "magic stop", ""},
		{"only start", "magic word tell me more", "magic word", "magic stop", "tell me more"},
		{"only end", "all of this counts magic stop", "magic word", "magic stop", "all of this counts"},
		{"end before start", "magic stop then magic word the rest", "magic word", "magic stop", "the rest"},
		{"neither phrase", "  plain speech  ", "magic word", "magic stop", "plain speech"},
		{"empty phrases", "  keep everything  ", "", "", "keep everything"},
		{"last end occurrence wins", "magic word one magic stop two magic stop", "magic word", "magic stop", "one magic stop two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractBetween(tt.text, tt.start, tt.end); got != tt.want {
				t.Errorf("ExtractBetween() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBetweenStripsLeadingArtifact(t *testing.T) {
	// Cut point splits mid-word and leaves a stray letter.
	got := ExtractBetween("magic word d apple magic stop", "magic word", "magic stop")
	if got != "apple" {
		t.Errorf("ExtractBetween() = %q, want %q", got, "apple")
	}
}

func TestCleanExtract(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"apple", "apple"},
		{"a?!", "a"},
		{"...", ""},
		{"two words!", "two words"},
		{"  spaced  ", "spaced"},
	}
	for _, tt := range tests {
		if got := CleanExtract(tt.in); got != tt.want {
			t.Errorf("CleanExtract(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
