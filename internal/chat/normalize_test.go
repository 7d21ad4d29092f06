package chat

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips question mark", "do you have laptops?", "do you have laptops"},
		{"strips exclamation", "bye!", "bye"},
		{"strips period and comma", "Well, thanks. Bye.", "Well thanks Bye"},
		{"keeps case and other punctuation", "What's UP; really?", "What's UP; really"},
		{"empty input", "", ""},
		{"only stripped characters", "?!.,", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	in := "Hello, is the Smart Watch in stock?!"
	once := Normalize(in)
	twice := Normalize(once)
	if once != twice {
		t.Errorf("Normalize not idempotent: %q vs %q", once, twice)
	}
}
