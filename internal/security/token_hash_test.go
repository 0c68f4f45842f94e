package security

import "testing"

func TestHashToken_Deterministic(t *testing.T) {
	a := HashToken("some-token")
	b := HashToken("some-token")
	if a != b {
		t.Error("same input should hash identically")
	}
	if a == HashToken("other-token") {
		t.Error("different inputs should hash differently")
	}
	if len(a) != 64 {
		t.Errorf("hex sha256 should be 64 chars, got %d", len(a))
	}
}

func TestHashToken_NeverRaw(t *testing.T) {
	raw := "raw-refresh-token-value"
	if HashToken(raw) == raw {
		t.Error("hash must not equal the raw token")
	}
}

func TestTokenHashEqual(t *testing.T) {
	stored := HashToken("token-a")
	if !TokenHashEqual("token-a", stored) {
		t.Error("matching token should compare equal")
	}
	if TokenHashEqual("token-b", stored) {
		t.Error("non-matching token should not compare equal")
	}
	if TokenHashEqual("", stored) {
		t.Error("empty token should not compare equal")
	}
}
