package ui

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 8, "this is…"},
		{"图图图图", 5, "图图…"},
		{"anything", 0, ""},
		{"ab", 1, "…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("图", 3); got != "图 " {
		t.Errorf("padRight wide = %q", got)
	}
	if got := padRight("abcdef", 3); got != "abcdef" {
		t.Errorf("padRight should not cut, got %q", got)
	}
}

func TestFormatWeight(t *testing.T) {
	for w, want := range map[float64]string{3: "3", 2.5: "2.5", -1: "-1", 0.125: "0.125"} {
		if got := formatWeight(w); got != want {
			t.Errorf("formatWeight(%g) = %q, want %q", w, got, want)
		}
	}
}

func TestParseOptionalFloat(t *testing.T) {
	if w, err := parseOptionalFloat("  "); err != nil || w != nil {
		t.Errorf("blank = %v, %v", w, err)
	}
	if w, err := parseOptionalFloat(" 1.5 "); err != nil || w == nil || *w != 1.5 {
		t.Errorf("1.5 = %v, %v", w, err)
	}
	if _, err := parseOptionalFloat("x"); err == nil {
		t.Error("expected error")
	}
	for _, in := range []string{"NaN", "nan", "Inf", "+Inf", "-inf", "infinity"} {
		if w, err := parseOptionalFloat(in); err == nil {
			t.Errorf("%q accepted as %v", in, *w)
		}
	}
}

func TestEdgeGlyph(t *testing.T) {
	tests := []struct {
		dx, dy float64
		want   rune
	}{
		{10, 0, '─'},
		{0, -10, '│'},
		{10, 10, '╲'},
		{-10, -10, '╲'},
		{10, -10, '╱'},
	}
	for _, tt := range tests {
		if got := edgeGlyph(tt.dx, tt.dy, "straight"); got != tt.want {
			t.Errorf("edgeGlyph(%g, %g) = %q, want %q", tt.dx, tt.dy, got, tt.want)
		}
	}
	if got := edgeGlyph(10, 0, "curved"); got != '·' {
		t.Errorf("curved glyph = %q", got)
	}
	if got := arrowGlyph(0, -5); got != '▲' {
		t.Errorf("arrow up = %q", got)
	}
}
