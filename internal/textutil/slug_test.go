package textutil

import "testing"

func TestNormalizeSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"beijing", "beijing"},
		{"  Beijing ", "beijing"},
		{"Xiàmén", "xiamen"},
		{"Hong Kong", "hong-kong"},
		{"hong_kong", "hong-kong"},
		{"--Chong  Qing--", "chong-qing"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tc := range tests {
		if got := NormalizeSlug(tc.in); got != tc.want {
			t.Fatalf("NormalizeSlug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"beijing", "Beijing"},
		{"hong-kong", "Hong Kong"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := DisplayName(tc.in); got != tc.want {
			t.Fatalf("DisplayName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("Telegram: Ops/Chat"); got != "telegram__ops_chat" {
		t.Fatalf("unexpected token %q", got)
	}
	if got := SanitizeToken("   "); got != "unknown" {
		t.Fatalf("expected unknown for blank input, got %q", got)
	}
}
