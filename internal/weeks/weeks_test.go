package weeks

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []int
	}{
		{"single", "6", []int{6}},
		{"span", "9-12", []int{9, 10, 11, 12}},
		{"mixed", "6,9-15", []int{6, 9, 10, 11, 12, 13, 14, 15}},
		{"whitespace", " 6 , 9 - 11 ", []int{6, 9, 10, 11}},
		{"duplicates", "4,4,3-5", []int{3, 4, 5}},
		{"bounds", "1,52", []int{1, 52}},
		{"inverted span is empty", "10-8", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Parse(tc.in)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tc.in, err)
			}
			if r.Len() != len(tc.want) {
				t.Fatalf("Parse(%q) has %d members, want %d", tc.in, r.Len(), len(tc.want))
			}
			for _, w := range tc.want {
				if !r.Contains(w) {
					t.Errorf("Parse(%q) missing member %d", tc.in, w)
				}
			}
		})
	}
}

func TestParseOutOfBounds(t *testing.T) {
	for _, in := range []string{"0", "53", "50-53", "0-3", "6,99"} {
		if _, err := Parse(in); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Parse(%q) error = %v, want ErrOutOfBounds", in, err)
		}
	}
}

func TestParseSyntax(t *testing.T) {
	for _, in := range []string{"abc", "1-x", "x-3", "-3"} {
		if _, err := Parse(in); !errors.Is(err, ErrSyntax) {
			t.Errorf("Parse(%q) error = %v, want ErrSyntax", in, err)
		}
	}
}

func TestMinMax(t *testing.T) {
	r, err := Parse("6,9-15")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	min, err := r.Min()
	if err != nil {
		t.Fatalf("Min() returned error: %v", err)
	}
	max, err := r.Max()
	if err != nil {
		t.Fatalf("Max() returned error: %v", err)
	}

	if min != 6 {
		t.Errorf("Min() = %d, want 6", min)
	}
	if max != 15 {
		t.Errorf("Max() = %d, want 15", max)
	}
	if min > max {
		t.Errorf("Min() = %d exceeds Max() = %d", min, max)
	}
}

func TestEmptyRange(t *testing.T) {
	r, err := Parse("")
	if err != nil {
		t.Fatalf("Parse(\"\") returned error: %v", err)
	}

	if _, err := r.Min(); !errors.Is(err, ErrEmptyRange) {
		t.Errorf("Min() on empty range: error = %v, want ErrEmptyRange", err)
	}
	if _, err := r.Max(); !errors.Is(err, ErrEmptyRange) {
		t.Errorf("Max() on empty range: error = %v, want ErrEmptyRange", err)
	}
}
