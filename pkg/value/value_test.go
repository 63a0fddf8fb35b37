package value

import "testing"

func TestFalsey(t *testing.T) {
	cases := []struct {
		v       Value
		falsey bool
	}{
		{Nil, true},
		{Bool(false), true},
		{Bool(true), false},
		{Number(0), false},
		{Number(1), false},
	}
	for _, c := range cases {
		if got := c.v.IsFalsey(); got != c.falsey {
			t.Errorf("IsFalsey(%v) = %v, want %v", c.v, got, c.falsey)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal(Number(1), Number(1)) {
		t.Error("expected 1 == 1")
	}
	if Equal(Number(1), Bool(true)) {
		t.Error("different types must never be equal")
	}
	if !Equal(Nil, Nil) {
		t.Error("nil must equal nil")
	}
}

func TestStringFormatting(t *testing.T) {
	if Number(3).String() != "3" {
		t.Errorf("expected integral number to print without decimal, got %q", Number(3).String())
	}
	if Number(3.5).String() != "3.5" {
		t.Errorf("got %q", Number(3.5).String())
	}
	if Bool(true).String() != "true" || Bool(false).String() != "false" {
		t.Error("boolean formatting wrong")
	}
	if Nil.String() != "nil" {
		t.Error("nil formatting wrong")
	}
}
