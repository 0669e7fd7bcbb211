package textcompare_test

import (
	"math"
	"testing"

	"github.com/lexiscore/lexiscore/pkg/textcompare"
)

func TestDistance(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"However", "Howver", 1},
		{"SAME", "same", 0},
		{"flaw", "lawn", 2},
	}

	for _, tc := range cases {
		if got := textcompare.Distance(tc.a, tc.b); got != tc.want {
			t.Errorf("Distance(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	if got := textcompare.Similarity("", ""); got != 1 {
		t.Errorf("Similarity of two empty strings = %v, want 1", got)
	}

	got := textcompare.Similarity("However", "Howver")
	want := 1 - 1.0/7.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Similarity(However, Howver) = %v, want %v", got, want)
	}

	if got := textcompare.Similarity("abc", "xyz"); got != 0 {
		t.Errorf("Similarity(abc, xyz) = %v, want 0", got)
	}
}

func TestIsSimilar(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b      string
		threshold float64
		want      bool
	}{
		{"word", "word", 0.7, true},
		{"Word", "wORD", 0.7, true},
		{"", "", 0.7, true},
		{"However", "Howver", 0.7, true},
		{"cat", "dog", 0.7, false},
		{"However", "Howver", 0.95, false},
	}

	for _, tc := range cases {
		if got := textcompare.IsSimilar(tc.a, tc.b, tc.threshold); got != tc.want {
			t.Errorf("IsSimilar(%q, %q, %v) = %v, want %v", tc.a, tc.b, tc.threshold, got, tc.want)
		}
	}
}
