package sanitize

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text untouched", "hello world", "hello world"},
		{"crlf normalized", "a\r\nb\r\nc", "a\nb\nc"},
		{"lone cr normalized", "a\rb", "a\nb"},
		{"control chars stripped", "a\x00b\x07c", "abc"},
		{"tab preserved", "a\tb", "a\tb"},
		{"newline preserved", "a\nb", "a\nb"},
		{"trimmed", "  \n hello \n  ", "hello"},
		{"two blank lines kept", "a\n\n\nb", "a\n\n\nb"},
		{"excess blank lines collapsed", "a\n\n\n\n\n\n\nb", "a\n\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clean(tt.input)
			if got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"hello",
		"a\r\nb\x01c\n\n\n\n\n\nd",
		"  mixed \r content\twith\rtabs  ",
	}

	for _, input := range inputs {
		once := Clean(input)
		twice := Clean(once)
		if once != twice {
			t.Errorf("Clean not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}
