package shared

import "testing"

func TestMinorFromPounds(t *testing.T) {
	cases := map[float64]int64{
		0:     0,
		19.99: 1999,
		0.01:  1,
		25.50: 2550,
		// the float closest to 29.99 sits just below it
		29.99: 2999,
		100:   10000,
	}
	for pounds, want := range cases {
		if got := MinorFromPounds(pounds); got != want {
			t.Fatalf("%v: got %d, want %d", pounds, got, want)
		}
	}
}

func TestPoundsFromMinor(t *testing.T) {
	cases := map[int64]float64{
		0:     0,
		1999:  19.99,
		1:     0.01,
		10000: 100,
	}
	for minor, want := range cases {
		if got := PoundsFromMinor(minor); got != want {
			t.Fatalf("%d: got %v, want %v", minor, got, want)
		}
	}
}

func TestPoundsRoundtrip(t *testing.T) {
	for _, minor := range []int64{0, 1, 99, 100, 1999, 2999, 123456} {
		if got := MinorFromPounds(PoundsFromMinor(minor)); got != minor {
			t.Fatalf("roundtrip %d came back as %d", minor, got)
		}
	}
}
