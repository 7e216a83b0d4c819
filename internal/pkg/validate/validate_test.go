package validate

import (
	"strings"
	"testing"
)

func TestRequired(t *testing.T) {
	if Required("   ") {
		t.Fatalf("blank value should not be required-valid")
	}
	if !Required(" x ") {
		t.Fatalf("non-blank value should be required-valid")
	}
}

func TestTextBounds(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		limit int
		want  string
		ok    bool
	}{
		{name: "trimmed", in: "  hi  ", limit: 5, want: "hi", ok: true},
		{name: "empty", in: " \n ", limit: 5, want: "", ok: false},
		{name: "multibyte at limit", in: "привет", limit: 6, want: "привет", ok: true},
		{name: "too long", in: strings.Repeat("a", 6), limit: 5, want: "aaaaaa", ok: false},
	}
	for _, tc := range cases {
		got, ok := Text(tc.in, tc.limit)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("%s: unexpected result: got (%q,%v) want (%q,%v)", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}
