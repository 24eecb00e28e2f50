package skel

import (
	"bytes"
	"testing"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string // canonical unparse
	}{
		{"implicit atom", "fulltext", "fulltext"},
		{"explicit atom", "5 hello", "hello"},
		{"explicit atom with space", "5 he lo", "5 he lo"},
		{"explicit atom that could be implicit", "5 empty", "empty"},
		{"empty explicit atom", "0 ", "0 "},
		{"empty list", "()", "()"},
		{"nested list", "((fulltext 0 ) empty)", "((fulltext 0 ) empty)"},
		{"extra whitespace", " ( a\n\tb  ( c ) ) ", "(a b (c))"},
		{"explicit atom with parens", "(3 a(b)", "(3 a(b)"},
		{"implicit atom ends at paren", "(abc(def))", "(abc (def))"},
		{"binary payload", "4 \x00\x01\x02\x03", "4 \x00\x01\x02\x03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if got := string(s.Unparse()); got != tt.want {
				t.Errorf("Unparse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"only whitespace", "   "},
		{"unterminated list", "(a b"},
		{"stray close", ")"},
		{"trailing data", "(a) b"},
		{"short explicit atom", "10 abc"},
		{"missing separator", "3abc"},
		{"length at end", "3"},
		{"bad start byte", "(a #b)"},
		{"huge length", "99999999999 x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.input)); err == nil {
				t.Errorf("Parse(%q) expected error, got nil", tt.input)
			}
		})
	}
}

func TestUnparse_AtomForms(t *testing.T) {
	tests := []struct {
		name string
		atom []byte
		want string
	}{
		{"name", []byte("svndiff"), "svndiff"},
		{"starts with digit", []byte("1a"), "2 1a"},
		{"contains space", []byte("a b"), "3 a b"},
		{"empty", nil, "0 "},
		{"too long for implicit", bytes.Repeat([]byte("a"), maxImplicitLen), "100 " + string(bytes.Repeat([]byte("a"), maxImplicitLen))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(Atom(tt.atom).Unparse()); got != tt.want {
				t.Errorf("Unparse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	s := List(
		List(String("delta"), String("")),
		List(String("0"), List(List(String("svndiff"), String("1"), String("w1")), String("12"), String("r9"))),
		Atom([]byte("with space")),
	)
	encoded := s.Unparse()

	parsed, err := Parse(encoded)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !bytes.Equal(parsed.Unparse(), encoded) {
		t.Errorf("round trip = %q, want %q", parsed.Unparse(), encoded)
	}
	if parsed.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", parsed.Len())
	}
	if parsed.At(2).Text() != "with space" {
		t.Errorf("At(2) = %q, want %q", parsed.At(2).Text(), "with space")
	}
}

func TestParse_DoesNotAliasInput(t *testing.T) {
	input := []byte("(abc 3 xyz)")
	s, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	copy(input, "(zzz 3 zzz)")
	if s.At(0).Text() != "abc" || s.At(1).Text() != "xyz" {
		t.Errorf("parsed atoms changed with input: %q %q", s.At(0).Text(), s.At(1).Text())
	}
}

func TestMatches(t *testing.T) {
	if !String("svndiff").Matches("svndiff") {
		t.Error("expected atom to match")
	}
	if List(String("svndiff")).Matches("svndiff") {
		t.Error("list must not match an atom name")
	}
}
