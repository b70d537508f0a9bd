package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trim spaces", "  slot 7  ", "slot 7"},
		{"inner runs", "slot    7", "slot 7"},
		{"tabs and newlines", "slot\t\n7", "slot 7"},
		{"empty", "", ""},
		{"only whitespace", "   \t\n  ", ""},
		{"unicode kept", " café ", "café"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "user-42", "user-42"},
		{"padded", "  user-42\n", "user-42"},
		{"control characters", "user\x00-42\x1b", "user-42"},
		{"only control", "\x00\x07", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeIdentifier(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeIdentifier(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := SanitizeIdentifier(got); again != got {
				t.Errorf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}
