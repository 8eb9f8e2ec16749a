package dates

import (
	"testing"
	"time"
)

func TestNormalizer_FallbackOrder(t *testing.T) {
	n := NewNormalizer([]string{"02/01/2006"})

	iso := n.Normalize("2024-03-01T10:00:00Z")
	rfc := n.Normalize("Fri, 01 Mar 2024 10:00:00 GMT")

	expected := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !iso.Equal(expected) {
		t.Errorf("ISO string: expected %v, got %v", expected, iso)
	}
	if !rfc.Equal(expected) {
		t.Errorf("RFC-1123 string: expected %v, got %v", expected, rfc)
	}
	if !iso.Equal(rfc) {
		t.Errorf("ISO and RFC-1123 forms of the same instant disagree: %v vs %v", iso, rfc)
	}
}

func TestNormalizer_LocalePatternDecidesAmbiguity(t *testing.T) {
	// Day-first configuration reads 01/03/2024 as March 1st.
	dayFirst := NewNormalizer([]string{"02/01/2006"})
	got := dayFirst.Normalize("01/03/2024")
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("day-first: expected %v, got %v", want, got)
	}

	// Month-first configuration reads the same string as January 3rd.
	monthFirst := NewNormalizer([]string{"01/02/2006"})
	got = monthFirst.Normalize("01/03/2024")
	want = time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("month-first: expected %v, got %v", want, got)
	}
}

func TestNormalizer_EmptyIsZeroNeverNow(t *testing.T) {
	n := NewNormalizer(nil)

	if got := n.Normalize(""); !got.IsZero() {
		t.Errorf("empty string: expected zero time, got %v", got)
	}
	if got := n.Normalize("   "); !got.IsZero() {
		t.Errorf("blank string: expected zero time, got %v", got)
	}
}

func TestNormalizer_GarbageIsZero(t *testing.T) {
	n := NewNormalizer([]string{"02/01/2006"})
	if got := n.Normalize("hace tres días"); !got.IsZero() {
		t.Errorf("unparseable string: expected zero time, got %v", got)
	}
}

func TestNormalizer_LastModFallback(t *testing.T) {
	n := NewNormalizer(nil)

	got := n.NormalizeWithFallback("", "Fri, 01 Mar 2024 10:00:00 GMT")
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected fallback to Last-Modified, got %v", got)
	}

	// The primary value wins when it parses.
	got = n.NormalizeWithFallback("2024-05-05T08:00:00Z", "Fri, 01 Mar 2024 10:00:00 GMT")
	want = time.Date(2024, 5, 5, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected primary value to win, got %v", got)
	}

	if got := n.NormalizeWithFallback("", ""); !got.IsZero() {
		t.Errorf("expected zero when both values are empty, got %v", got)
	}
}

func TestNormalizer_RFC822Variants(t *testing.T) {
	n := NewNormalizer(nil)

	cases := []string{
		"Fri, 01 Mar 2024 10:00:00 +0000",
		"Fri, 1 Mar 2024 10:00:00 GMT",
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, raw := range cases {
		if got := n.Normalize(raw); !got.Equal(want) {
			t.Errorf("raw %q: expected %v, got %v", raw, want, got)
		}
	}
}

func TestNormalizer_NaiveISOAssumesUTC(t *testing.T) {
	n := NewNormalizer(nil)
	got := n.Normalize("2024-03-01T10:00:00")
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected naive timestamp read as UTC, got %v", got)
	}
}
