package align

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestScenarioPerfectMatch(t *testing.T) {
	prof, err := NewMatchMismatch("ACGT", 1, -1)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &Config{MinBlockSize: 4, MaxBlockSize: 16, Traceback: true}
	res, err := Align([]byte("AAAA"), []byte("AAAA"), prof, GapCost{Open: 2, Extend: 1}, Global(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.Score != 4 {
		t.Errorf("score = %d, want 4", res.Score)
	}
	if len(res.Ops) != 1 || res.Ops[0] != (OpRun{Kind: Match, Len: 4}) {
		t.Errorf("ops = %v, want [4M]", res.Ops)
	}
}

// Ties among equal-cost paths are possible, so the path is verified by
// replay against the reference score, not by a hardcoded op list.
func TestScenarioTrailingDeletion(t *testing.T) {
	prof, err := NewMatchMismatch("ACGT", 1, -1)
	if err != nil {
		t.Fatal(err)
	}
	gaps := GapCost{Open: 2, Extend: 1}
	cfg := &Config{MinBlockSize: 4, MaxBlockSize: 16, Traceback: true}
	q, r := []byte("AAAAA"), []byte("AAA")
	res, err := Align(q, r, prof, gaps, Global(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.Score != 0 {
		t.Errorf("score = %d, want 0", res.Score)
	}
	if want := refGlobal(q, r, prof, gaps); res.Score != want {
		t.Errorf("score = %d, reference %d", res.Score, want)
	}
	var del int
	for _, run := range res.Ops {
		if run.Kind == Deletion {
			del += run.Len
		}
	}
	if del != 2 {
		t.Errorf("ops %v delete %d query symbols, want 2", res.Ops, del)
	}
	if replay, err := res.Ops.Score(q, r, prof, gaps); err != nil || replay != 0 {
		t.Errorf("replay = %d (%v), want 0", replay, err)
	}
}

func TestDeterministicAcrossLaneWidths(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	q := randSeq(rng, 180)
	r := mutate(rng, q, 12, 3)
	prof := Nuc4()
	gaps := GapCost{Open: 3, Extend: 1}

	var ref *Result
	for _, width := range []int{1, 4, 8, 16} {
		cfg := &Config{LaneWidth: width, Traceback: true}
		res, err := Align(q, r, prof, gaps, Global(), cfg)
		if err != nil {
			t.Fatalf("width %d: %v", width, err)
		}
		if ref == nil {
			ref = res
			continue
		}
		if res.Score != ref.Score || res.QueryEnd != ref.QueryEnd || res.RefEnd != ref.RefEnd {
			t.Errorf("width %d: result (%d,%d,%d) differs from width 1 (%d,%d,%d)",
				width, res.Score, res.QueryEnd, res.RefEnd, ref.Score, ref.QueryEnd, ref.RefEnd)
		}
		if res.Ops.String() != ref.Ops.String() {
			t.Errorf("width %d: ops %s differ from %s", width, res.Ops, ref.Ops)
		}
	}
}

func TestRepeatedRunsIdentical(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	q := randSeq(rng, 150)
	r := mutate(rng, q, 8, 2)
	first, err := Align(q, r, Nuc4(), GapCost{Open: 2, Extend: 1}, Global(), &Config{Traceback: true})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		again, err := Align(q, r, Nuc4(), GapCost{Open: 2, Extend: 1}, Global(), &Config{Traceback: true})
		if err != nil {
			t.Fatal(err)
		}
		if again.Score != first.Score || again.Ops.String() != first.Ops.String() {
			t.Fatalf("run %d: (%d, %s) != (%d, %s)", i, again.Score, again.Ops, first.Score, first.Ops)
		}
	}
}

func TestXDropStopsInMatchedRegion(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	core := randSeq(rng, 64)
	q := append(append([]byte(nil), core...), randSeq(rng, 120)...)
	r := append(append([]byte(nil), core...), randSeq(rng, 120)...)
	prof, err := NewMatchMismatch("ACGT", 1, -2)
	if err != nil {
		t.Fatal(err)
	}
	res, err := Align(q, r, prof, GapCost{Open: 5, Extend: 3}, XDrop(10), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Score < 40 || res.Score > 80 {
		t.Errorf("score = %d, want near the %d-symbol core", res.Score, len(core))
	}
	if res.QueryEnd < 40 || res.QueryEnd > 120 || res.RefEnd < 40 || res.RefEnd > 120 {
		t.Errorf("endpoint (%d,%d) not near the core end %d", res.QueryEnd, res.RefEnd, len(core))
	}
}

func TestXDropLargeXCoversGlobal(t *testing.T) {
	rng := rand.New(rand.NewSource(33))
	q := randSeq(rng, 160)
	r := mutate(rng, q, 10, 2)
	prof := Nuc4()
	gaps := GapCost{Open: 4, Extend: 1}
	global, err := Align(q, r, prof, gaps, Global(), nil)
	if err != nil {
		t.Fatal(err)
	}
	xres, err := Align(q, r, prof, gaps, XDrop(1<<20), &Config{Traceback: true})
	if err != nil {
		t.Fatal(err)
	}
	// The best prefix-pair score is at least the full global score.
	if xres.Score < global.Score {
		t.Errorf("x-drop best %d below global %d", xres.Score, global.Score)
	}
	replay, err := xres.Ops.Score(q[:xres.QueryEnd], r[:xres.RefEnd], prof, gaps)
	if err != nil {
		t.Fatal(err)
	}
	if replay != xres.Score {
		t.Errorf("x-drop replay %d, reported %d", replay, xres.Score)
	}
}

func TestOverflowEscalatesToWide(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	q := randSeq(rng, 100)
	prof, err := NewMatchMismatch("ACGT", 4000, -4000)
	if err != nil {
		t.Fatal(err)
	}
	var stats StepStats
	res, err := Align(q, q, prof, GapCost{Open: 4000, Extend: 100}, Global(), &Config{Observer: &stats})
	if err != nil {
		t.Fatal(err)
	}
	if want := 4000 * len(q); res.Score != want {
		t.Errorf("score = %d, want %d", res.Score, want)
	}
	if stats.WideRuns == 0 {
		t.Error("expected at least one wide-pass escalation")
	}
}

func TestObserverSeesSaneGeometry(t *testing.T) {
	rng := rand.New(rand.NewSource(14))
	q := randSeq(rng, 220)
	r := mutate(rng, q, 15, 3)
	cfg := DefaultConfig()
	obs := geometryCheck{t: t, cfg: &cfg}
	_, err := Align(q, r, Nuc4(), GapCost{Open: 3, Extend: 1}, Global(), &Config{Observer: &obs})
	if err != nil {
		t.Fatal(err)
	}
	if obs.events == 0 {
		t.Error("observer saw no events")
	}
}

type geometryCheck struct {
	t      *testing.T
	cfg    *Config
	events int
}

func (g *geometryCheck) Step(e StepEvent) {
	g.events++
	for _, dim := range []int{e.W, e.H} {
		if dim < g.cfg.MinBlockSize || dim > g.cfg.MaxBlockSize || dim&(dim-1) != 0 {
			g.t.Errorf("step %d %s: block %dx%d outside [%d,%d] powers of two",
				g.events, e.Kind, e.W, e.H, g.cfg.MinBlockSize, g.cfg.MaxBlockSize)
		}
	}
	if e.I < 0 || e.J < 0 {
		g.t.Errorf("step %d %s: negative origin (%d,%d)", g.events, e.Kind, e.I, e.J)
	}
}

// Shrinking re-enables growth after the block hits MaxBlockSize; the grow
// rewind must keep the strip holding the best endpoint so a traced X-drop
// result stays locatable.
func TestXDropShrinkTraceback(t *testing.T) {
	rng := rand.New(rand.NewSource(29))
	prof := Nuc4()
	gaps := GapCost{Open: 2, Extend: 1}
	cfg := &Config{MinBlockSize: 4, MaxBlockSize: 8, ShrinkPatience: 1, Traceback: true}
	for trial := 0; trial < 200; trial++ {
		q := randSeq(rng, 32+rng.Intn(48))
		r := randSeq(rng, 32+rng.Intn(48))
		res, err := Align(q, r, prof, gaps, XDrop(6), cfg)
		if err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}
		replay, err := res.Ops.Score(q[:res.QueryEnd], r[:res.RefEnd], prof, gaps)
		if err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}
		if replay != res.Score {
			t.Errorf("trial %d: ops replay %d, reported %d", trial, replay, res.Score)
		}
	}
}

func TestShrinkKeepsScoresExact(t *testing.T) {
	prof := Nuc4()
	gaps := GapCost{Open: 2, Extend: 1}
	q := append(append(bytes.Repeat([]byte("A"), 32), bytes.Repeat([]byte("C"), 200)...),
		bytes.Repeat([]byte("G"), 32)...)
	r := append(bytes.Repeat([]byte("A"), 32), bytes.Repeat([]byte("G"), 32)...)
	want := refGlobal(q, r, prof, gaps)
	for _, patience := range []int{0, 1, 3} {
		res, err := Align(q, r, prof, gaps, Global(), &Config{ShrinkPatience: patience})
		if err != nil {
			t.Fatalf("patience %d: %v", patience, err)
		}
		if res.Score != want {
			t.Errorf("patience %d: score %d, reference %d", patience, res.Score, want)
		}
	}
}

func TestValidation(t *testing.T) {
	prof := Nuc4()
	q := bytes.Repeat([]byte("ACGT"), 16)
	ok := GapCost{Open: 2, Extend: 1}

	cases := []struct {
		name string
		err  error
		run  func() error
	}{
		{"nil profile", ErrConfig, func() error {
			_, err := Align(q, q, nil, ok, Global(), nil)
			return err
		}},
		{"negative gap", ErrConfig, func() error {
			_, err := Align(q, q, prof, GapCost{Open: -1}, Global(), nil)
			return err
		}},
		{"huge gap", ErrConfig, func() error {
			_, err := Align(q, q, prof, GapCost{Open: scoreLimit + 1}, Global(), nil)
			return err
		}},
		{"negative x", ErrConfig, func() error {
			_, err := Align(q, q, prof, ok, XDrop(-1), nil)
			return err
		}},
		{"min not power of two", ErrConfig, func() error {
			_, err := Align(q, q, prof, ok, Global(), &Config{MinBlockSize: 48})
			return err
		}},
		{"max below min", ErrConfig, func() error {
			_, err := Align(q, q, prof, ok, Global(), &Config{MinBlockSize: 64, MaxBlockSize: 32})
			return err
		}},
		{"short query", ErrSequenceTooShort, func() error {
			_, err := Align(q[:8], q, prof, ok, Global(), nil)
			return err
		}},
		{"bad symbol", ErrAlphabet, func() error {
			bad := append([]byte(nil), q...)
			bad[5] = '!'
			_, err := Align(bad, q, prof, ok, Global(), nil)
			return err
		}},
	}
	for _, tc := range cases {
		if err := tc.run(); !errors.Is(err, tc.err) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.err)
		}
	}
}

func BenchmarkGlobal(b *testing.B) {
	rng := rand.New(rand.NewSource(2))
	q := randSeq(rng, 2000)
	r := mutate(rng, q, 100, 10)
	prof := Nuc4()
	gaps := GapCost{Open: 5, Extend: 1}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Align(q, r, prof, gaps, Global(), nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGlobalTraceback(b *testing.B) {
	rng := rand.New(rand.NewSource(2))
	q := randSeq(rng, 2000)
	r := mutate(rng, q, 100, 10)
	prof := Nuc4()
	gaps := GapCost{Open: 5, Extend: 1}
	cfg := &Config{Traceback: true}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Align(q, r, prof, gaps, Global(), cfg); err != nil {
			b.Fatal(err)
		}
	}
}
