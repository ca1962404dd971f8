package uuid

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	id := New()
	if !IsValid(id) {
		t.Fatalf("expected valid uuid, got %q", id)
	}
	// version nibble is the first character of the third group
	if groups := strings.Split(id, "-"); groups[2][0] != '7' {
		t.Errorf("expected version 7, got %q", id)
	}
}

func TestNew_Ordered(t *testing.T) {
	a := New()
	b := New()
	if a == b {
		t.Fatal("expected distinct ids")
	}
	if a[:8] > b[:8] {
		t.Errorf("expected time-ordered prefixes, got %s then %s", a, b)
	}
}

func TestParse(t *testing.T) {
	t.Run("canonicalises", func(t *testing.T) {
		got, err := Parse("0190A3C2-7B5E-7D8A-9F00-1234567890AB")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "0190a3c2-7b5e-7d8a-9f00-1234567890ab" {
			t.Errorf("unexpected canonical form %q", got)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		if _, err := Parse("not-a-uuid"); err == nil {
			t.Error("expected error")
		}
		if IsValid("123") {
			t.Error("expected 123 to be invalid")
		}
	})
}
