package lanes

import (
	"math/rand"
	"testing"
)

// testTab builds a 5-symbol substitution table (index 0 is the padding
// symbol) with the given match/mismatch scores.
func testTab(match, mismatch int16) ([]int16, int, int16) {
	const n = 5
	tab := make([]int16, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			switch {
			case i == 0 || j == 0:
				tab[i*n+j] = -(1 << 12)
			case i == j:
				tab[i*n+j] = match
			default:
				tab[i*n+j] = mismatch
			}
		}
	}
	max := match
	if mismatch > max {
		max = mismatch
	}
	return tab, n, max
}

func randSyms(rng *rand.Rand, n int) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = int16(1 + rng.Intn(4))
	}
	return s
}

// randStrip builds a strip with randomized entry borders away from the
// matrix origin.
func randStrip(rng *rand.Rand, w, h int) *Strip {
	tab, stride, maxScore := testTab(2, -3)
	s := &Strip{
		W:         w,
		H:         h,
		LaneOff:   1 + rng.Intn(8),
		SweepOff:  1 + rng.Intn(8),
		LaneSyms:  randSyms(rng, h+16),
		SweepSyms: randSyms(rng, w+16),
		Tab:       tab,
		Stride:    stride,
		MaxScore:  maxScore,
		Open:      5,
		Extend:    1,
		SCol:      make([]int32, h),
		GCol:      make([]int32, h),
		SRow:      make([]int32, w),
		GRow:      make([]int32, w),
		LaneMax:   1 << 30,
		SweepMax:  1 << 30,
		LastSweep: -1,
	}
	top := int32(rng.Intn(200) - 100)
	for r := 0; r < h; r++ {
		s.SCol[r] = top - int32(rng.Intn(30))
		s.GCol[r] = s.SCol[r] - int32(5+rng.Intn(10))
	}
	s.Corner = top + int32(rng.Intn(5))
	return s
}

func cloneStrip(s *Strip) *Strip {
	c := *s
	c.SCol = append([]int32(nil), s.SCol...)
	c.GCol = append([]int32(nil), s.GCol...)
	c.SRow = make([]int32, len(s.SRow))
	c.GRow = make([]int32, len(s.GRow))
	c.Planes = nil
	return &c
}

func sameOutputs(t *testing.T, tag string, a, b *Strip) {
	t.Helper()
	if a.Max != b.Max || a.ArgR != b.ArgR || a.ArgC != b.ArgC || a.Cols != b.Cols {
		t.Errorf("%s: max/arg mismatch: got (%d,%d,%d,%d), want (%d,%d,%d,%d)",
			tag, a.Max, a.ArgR, a.ArgC, a.Cols, b.Max, b.ArgR, b.ArgC, b.Cols)
	}
	for r := range a.SCol {
		if a.SCol[r] != b.SCol[r] || a.GCol[r] != b.GCol[r] {
			t.Errorf("%s: exit col %d: got (%d,%d), want (%d,%d)",
				tag, r, a.SCol[r], a.GCol[r], b.SCol[r], b.GCol[r])
		}
	}
	for c := 0; c < a.Cols; c++ {
		if a.SRow[c] != b.SRow[c] || a.GRow[c] != b.GRow[c] {
			t.Errorf("%s: exit row %d: got (%d,%d), want (%d,%d)",
				tag, c, a.SRow[c], a.GRow[c], b.SRow[c], b.GRow[c])
		}
	}
}

func TestNarrowMatchesWide(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	k := New(8)
	for i := 0; i < 200; i++ {
		w := 1 + rng.Intn(16)
		h := 1 + rng.Intn(64)
		narrow := randStrip(rng, w, h)
		wide := cloneStrip(narrow)
		if err := k.Run(narrow); err != nil {
			t.Fatalf("strip %d: unexpected overflow: %v", i, err)
		}
		k.RunWide(wide)
		sameOutputs(t, "narrow vs wide", narrow, wide)
	}
}

func TestWidthIndependence(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	base := randStrip(rng, 8, 48)
	want := cloneStrip(base)
	New(4).RunWide(want)
	for _, width := range []int{1, 4, 8, 16, 32} {
		got := cloneStrip(base)
		if err := New(width).Run(got); err != nil {
			t.Fatalf("width %d: %v", width, err)
		}
		sameOutputs(t, "width", got, want)
	}
}

func TestOverflowPrecheck(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	s := randStrip(rng, 64, 8)
	tab, stride, _ := testTab(4000, -3)
	s.Tab, s.Stride, s.MaxScore = tab, stride, 4000
	if err := New(8).Run(s); err != ErrOverflow {
		t.Fatalf("got %v, want ErrOverflow", err)
	}
	// The wide pass handles the same strip.
	New(8).RunWide(s)
	if s.Cols != 64 {
		t.Errorf("wide cols = %d, want 64", s.Cols)
	}
}

func TestLastSweepStopsEarly(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	s := randStrip(rng, 12, 16)
	s.LastSweep = s.SweepOff + 4
	w := cloneStrip(s)
	if err := New(8).Run(s); err != nil {
		t.Fatal(err)
	}
	if s.Cols != 5 {
		t.Errorf("cols = %d, want 5", s.Cols)
	}
	New(8).RunWide(w)
	sameOutputs(t, "early stop", s, w)
}

func TestOriginPinned(t *testing.T) {
	tab, stride, maxScore := testTab(2, -3)
	s := &Strip{
		W: 1, H: 4,
		LaneSyms:  []int16{0, 1, 2, 1},
		SweepSyms: []int16{0},
		Tab:       tab, Stride: stride, MaxScore: maxScore,
		Open: 5, Extend: 1,
		SCol: []int32{NegInf, NegInf, NegInf, NegInf},
		GCol: []int32{NegInf, NegInf, NegInf, NegInf},
		SRow: make([]int32, 1), GRow: make([]int32, 1),
		Corner:    NegInf,
		LaneMax:   3,
		SweepMax:  0,
		LastSweep: -1,
	}
	if err := New(4).Run(s); err != nil {
		t.Fatal(err)
	}
	// Cell (0,0) is the DP origin: score 0. The rest of the column is a pure
	// gap run: -open, then -extend per further step.
	want := []int32{0, -5, -6, -7}
	for r, w := range want {
		if s.SCol[r] != w {
			t.Errorf("SCol[%d] = %d, want %d", r, s.SCol[r], w)
		}
	}
	if s.SRow[0] != -7 {
		t.Errorf("SRow[0] = %d, want -7", s.SRow[0])
	}
}

func TestMaxIgnoresPaddingTail(t *testing.T) {
	rng := rand.New(rand.NewSource(19))
	s := randStrip(rng, 4, 8)
	s.LaneMax = s.LaneOff + 3 // lanes 4..7 lie past the sequence end
	for r := range s.SCol {
		s.SCol[r] = -100
		s.GCol[r] = -120
	}
	s.SCol[6] = 50 // dominant entry feeding only padding-tail cells
	s.Corner = -100
	w := cloneStrip(s)
	if err := New(8).Run(s); err != nil {
		t.Fatal(err)
	}
	if s.ArgR > 3 {
		t.Errorf("argmax lane %d points into the padding tail", s.ArgR)
	}
	New(8).RunWide(w)
	sameOutputs(t, "padding tail", s, w)
}

func TestProbe(t *testing.T) {
	w := PreferredWidth()
	if w < 4 || w&(w-1) != 0 {
		t.Errorf("preferred width = %d, want a power of two >= 4", w)
	}
	if PreferredDesc() == "" {
		t.Error("empty probe description")
	}
	if d := New(0).Width(); d != w {
		t.Errorf("New(0).Width() = %d, want %d", d, w)
	}
}

func BenchmarkRun(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	s := randStrip(rng, 8, 256)
	k := New(0)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c := *s
		c.SCol = append([]int32(nil), s.SCol...)
		c.GCol = append([]int32(nil), s.GCol...)
		if err := k.Run(&c); err != nil {
			b.Fatal(err)
		}
	}
}
