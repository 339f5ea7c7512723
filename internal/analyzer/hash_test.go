package analyzer

import "testing"

func TestHashString(t *testing.T) {
	// SHA-1 of "abc", pinned so stored fingerprints stay comparable
	// across versions
	want := "a9993e364706816aba3e25717850c26c9cd0d89d"
	if got := HashString("abc"); got != want {
		t.Errorf("HashString(\"abc\") = %s, want %s", got, want)
	}

	if HashString("") == HashString("a") {
		t.Error("Distinct inputs should hash differently")
	}
	if len(HashString("x")) != 40 {
		t.Error("Expected 40 hex characters")
	}
}
