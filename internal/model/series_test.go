package model

import (
	"errors"
	"math"
	"testing"
	"time"
)

// ────────────────────────────────────────────────────────────
// Construction and validation
// ────────────────────────────────────────────────────────────

func TestNewSeries_Validation(t *testing.T) {
	if _, err := NewSeries(nil, nil, nil, nil, nil, nil); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("empty input: got %v, want ErrEmptySeries", err)
	}

	one := []float64{1}
	two := []float64{1, 2}
	if _, err := NewSeries(one, one, one, two, one, nil); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("mismatched lengths: got %v, want ErrLengthMismatch", err)
	}

	t0 := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	if _, err := NewSeries(two, two, two, two, two, []time.Time{t0, t0}); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("equal timestamps: got %v, want ErrOutOfOrder", err)
	}
	if _, err := NewSeries(two, two, two, two, two, []time.Time{t0.Add(time.Minute), t0}); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("decreasing timestamps: got %v, want ErrOutOfOrder", err)
	}

	s, err := NewSeries(two, two, two, two, two, []time.Time{t0, t0.Add(time.Minute)})
	if err != nil {
		t.Fatalf("valid series rejected: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len: got %d, want 2", s.Len())
	}
}

func TestFromBars(t *testing.T) {
	if _, err := FromBars(nil); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("empty bars: got %v, want ErrEmptySeries", err)
	}

	// Zero timestamps mean implicit indexing: Time stays nil.
	s, err := FromBars([]Bar{
		{Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Open: 1.5, High: 3, Low: 1, Close: 2.5, Volume: 20},
	})
	if err != nil {
		t.Fatalf("FromBars: %v", err)
	}
	if s.Time != nil {
		t.Errorf("zero-time bars should leave Time nil")
	}
	if s.Close[1] != 2.5 || s.Volume[0] != 10 {
		t.Errorf("bar values not transposed correctly: %+v", s)
	}

	t0 := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	s, err = FromBars([]Bar{
		{Time: t0, Close: 1},
		{Time: t0.Add(time.Minute), Close: 2},
	})
	if err != nil {
		t.Fatalf("timestamped FromBars: %v", err)
	}
	if s.Time == nil || !s.Time[1].Equal(t0.Add(time.Minute)) {
		t.Errorf("timestamps not carried over")
	}

	if _, err := FromBars([]Bar{
		{Time: t0.Add(time.Minute), Close: 1},
		{Time: t0, Close: 2},
	}); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("out-of-order bar times: got %v, want ErrOutOfOrder", err)
	}
}

func TestFromCloses_NoAliasing(t *testing.T) {
	s, err := FromCloses([]float64{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	s.Open[0] = 999
	if s.Close[0] != 1 || s.High[0] != 1 || s.Low[0] != 1 {
		t.Errorf("price arrays alias each other: close=%v high=%v low=%v", s.Close[0], s.High[0], s.Low[0])
	}
}

func TestBarAccessors(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	s, err := NewSeries(
		[]float64{1, 2}, []float64{3, 4}, []float64{0.5, 1.5},
		[]float64{2, 3}, []float64{10, 20},
		[]time.Time{t0, t0.Add(time.Minute)},
	)
	if err != nil {
		t.Fatal(err)
	}
	b := s.Bar(1)
	if b.Open != 2 || b.High != 4 || b.Low != 1.5 || b.Close != 3 || b.Volume != 20 || !b.Time.Equal(t0.Add(time.Minute)) {
		t.Errorf("Bar(1) = %+v", b)
	}
	if s.LastClose() != 3 {
		t.Errorf("LastClose: got %v, want 3", s.LastClose())
	}
}

// ────────────────────────────────────────────────────────────
// Content hashing
// ────────────────────────────────────────────────────────────

func TestContentHash_ValueEqualSeriesMatch(t *testing.T) {
	a, _ := FromCloses([]float64{100, 101, 102})
	b, _ := FromCloses([]float64{100, 101, 102})
	if a.ContentHash() != b.ContentHash() {
		t.Errorf("value-equal series must hash identically")
	}
	if a.ContentHash() != a.ContentHash() {
		t.Errorf("hash must be deterministic across calls")
	}
}

func TestContentHash_SingleMutationChangesHash(t *testing.T) {
	s, _ := FromCloses([]float64{100, 101, 102, 103})
	before := s.ContentHash()

	s.Close[2] += 0.0001
	if s.ContentHash() == before {
		t.Errorf("close mutation must change the hash")
	}
	s.Close[2] -= 0.0001
	if s.ContentHash() != before {
		t.Errorf("reverting the mutation must restore the hash")
	}

	s.Volume[0] = 1
	if s.ContentHash() == before {
		t.Errorf("volume mutation must change the hash")
	}
}

func TestContentHash_TimeMutationChangesHash(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	one := []float64{1, 2}
	s, err := NewSeries(one, one, one, one, one, []time.Time{t0, t0.Add(time.Minute)})
	if err != nil {
		t.Fatal(err)
	}
	before := s.ContentHash()
	s.Time[1] = t0.Add(2 * time.Minute)
	if s.ContentHash() == before {
		t.Errorf("timestamp mutation must change the hash")
	}
}

func TestHasNonFinite(t *testing.T) {
	s, _ := FromCloses([]float64{1, 2, 3})
	if s.HasNonFinite() {
		t.Errorf("finite series flagged non-finite")
	}
	s.Close[1] = math.NaN()
	if !s.HasNonFinite() {
		t.Errorf("NaN close not detected")
	}

	s2, _ := FromCloses([]float64{1, 2, 3})
	s2.Volume[2] = math.Inf(1)
	if !s2.HasNonFinite() {
		t.Errorf("Inf volume not detected")
	}
}
