package mdmail

import (
	"math"
	"testing"
)

func TestCSSNumber(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   float64
		want string
	}{
		{1.5, "1.5"},
		{1.5 * 0.9, "1.35"},
		{2, "2"},
		{1.23456, "1.235"},
		{0, "0"},
		{-0.5, "-0.5"},
		{math.NaN(), "0"},
		{math.Inf(-1), "0"},
	}
	for _, tc := range cases {
		if got := cssNumber(tc.in); got != tc.want {
			t.Fatalf("cssNumber(%v)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestCSSPxAndScale(t *testing.T) {
	t.Parallel()
	if got := cssPx(0); got != "0" {
		t.Fatalf("cssPx(0)=%q", got)
	}
	if got := cssPx(-4); got != "-4px" {
		t.Fatalf("cssPx(-4)=%q", got)
	}
	if got := scalePx(16, 2.25); got != 36 {
		t.Fatalf("scalePx(16, 2.25)=%d", got)
	}
	if got := scalePx(25, 0.5); got != 13 {
		t.Fatalf("scalePx(25, 0.5)=%d", got)
	}
}

func TestCSSColorAlpha(t *testing.T) {
	t.Parallel()
	if got := cssColorAlpha("#FFFFFF", 0.5); got != "rgba(255,255,255,0.5)" {
		t.Fatalf("unexpected %q", got)
	}
	if got := cssColorAlpha("tomato", 0.5); got != "tomato" {
		t.Fatalf("non-hex colors should pass through, got %q", got)
	}
}

func TestStyleDecls(t *testing.T) {
	t.Parallel()
	if got := styleDecls("color", "red", "margin", "0"); got != "color: red; margin: 0;" {
		t.Fatalf("unexpected %q", got)
	}
	if got := styleDecls("dangling"); got != "" {
		t.Fatalf("odd pair count should drop the last key, got %q", got)
	}
}
