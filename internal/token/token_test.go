package token

import "testing"

func TestMint_Format(t *testing.T) {
	tok, err := Mint()
	if err != nil {
		t.Fatalf("Mint() error: %v", err)
	}
	if len(tok) != 32 {
		t.Errorf("token length = %d, want 32", len(tok))
	}
	if !Valid(tok) {
		t.Errorf("minted token %q does not validate", tok)
	}
}

func TestMint_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		tok, err := Mint()
		if err != nil {
			t.Fatalf("Mint() error: %v", err)
		}
		if seen[tok] {
			t.Fatalf("duplicate token after %d mints: %s", i, tok)
		}
		seen[tok] = true
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"valid", "0123456789abcdef0123456789abcdef", true},
		{"empty", "", false},
		{"too short", "abc123", false},
		{"too long", "0123456789abcdef0123456789abcdef00", false},
		{"uppercase", "0123456789ABCDEF0123456789ABCDEF", false},
		{"non-hex", "0123456789abcdefg123456789abcdef", false},
		{"sql injection", "' OR '1'='1' --              ..", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.token); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}
