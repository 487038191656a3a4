package validate

import (
	"strings"
	"testing"
)

func TestUsernameOK(t *testing.T) {
	if err := UsernameOK("alice"); err != nil {
		t.Fatalf("alice: %v", err)
	}
	if err := UsernameOK(""); err == nil {
		t.Fatalf("empty username accepted")
	}
	if err := UsernameOK("  "); err == nil {
		t.Fatalf("blank username accepted")
	}
	if err := UsernameOK(strings.Repeat("a", 51)); err == nil {
		t.Fatalf("overlong username accepted")
	}
}

func TestMimeTypeImage(t *testing.T) {
	if err := MimeTypeImage("image/jpeg"); err != nil {
		t.Fatalf("image/jpeg: %v", err)
	}
	if err := MimeTypeImage(" IMAGE/PNG "); err != nil {
		t.Fatalf("case/space tolerance: %v", err)
	}
	if err := MimeTypeImage("text/plain"); err == nil {
		t.Fatalf("text/plain accepted")
	}
}

func TestLimitOK(t *testing.T) {
	cases := []struct{ in, want int32 }{
		{0, 10},
		{-5, 10},
		{50, 50},
		{500, 100},
	}
	for _, tc := range cases {
		if got := LimitOK(tc.in, 100); got != tc.want {
			t.Fatalf("LimitOK(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
