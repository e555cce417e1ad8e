package align

import "github.com/ic-timon/blockalign/lanes"

// stepSize is the sweep extent of one shift step. Fixed rather than derived
// from the lane width so controller decisions are width independent.
const stepSize = 8

// xdropRounds is how many consecutive below-threshold steps end an X-drop
// alignment.
const xdropRounds = 2

// band is the live score frontier: the block geometry plus the borders at
// its rightmost column and bottom row, in absolute scores. The block covers
// rows i..i+h-1 and columns j..j+w-1 of the padded matrix.
type band struct {
	i, j, w, h int

	scol, hcol []int32 // best and horizontal-gap planes at column j+w-1, len h
	srow, vrow []int32 // best and vertical-gap planes at row i+h-1, len w

	// rightCorner is S(i-1, j+w-1), needed as the diagonal entry of the next
	// right strip; it is only known right after a down step or a height
	// shrink. downCorner is the mirror image for down strips.
	rightCorner   int32
	rightCornerOK bool
	downCorner    int32
	downCornerOK  bool
}

func (b *band) clone() *band {
	c := *b
	c.scol = append([]int32(nil), b.scol...)
	c.hcol = append([]int32(nil), b.hcol...)
	c.srow = append([]int32(nil), b.srow...)
	c.vrow = append([]int32(nil), b.vrow...)
	return &c
}

// record is one replayable controller step. Shift and shrink geometry is
// fully determined by the band state, so only grow carries parameters.
type record struct {
	kind   StepKind
	pw, ph int // grow: block size before doubling (0,0 = initial placement)
}

// stepOut is what one applied record reports back to the controller.
type stepOut struct {
	max        int32
	argR, argC int // matrix coordinates of max
	done       bool
	final      int32 // final score when done (global mode)
	wide       bool
}

// stripRun captures one kernel invocation during traceback replay: the
// retained planes plus the entry borders the kernel consumed, which is
// everything the backward walk needs to re-derive each cell's provenance.
type stripRun struct {
	swapped           bool
	laneOff, sweepOff int
	lanesN, cols      int
	floor             int32
	corner            int32
	entryS, entryG    []int32
	pl                *lanes.Planes
}

// apply executes one record against the band. With runs == nil this is the
// forward pass (narrow lanes, wide fallback); a non-nil runs sink switches
// to the wide pass with plane retention for traceback replay.
func (s *session) apply(b *band, rec record, runs *[]stripRun) stepOut {
	switch rec.kind {
	case StepRight:
		return s.stepRight(b, runs)
	case StepDown:
		return s.stepDown(b, runs)
	case StepGrow:
		return s.stepGrow(b, rec.pw, rec.ph, runs)
	case StepShrinkW:
		s.shrinkW(b)
		return stepOut{max: lanes.NegInf}
	case StepShrinkH:
		s.shrinkH(b)
		return stepOut{max: lanes.NegInf}
	}
	panic("blockalign: unknown step record")
}

func (s *session) strip(w, h, laneOff, sweepOff int, swapped bool) lanes.Strip {
	st := lanes.Strip{
		W: w, H: h,
		LaneOff: laneOff, SweepOff: sweepOff,
		Tab: s.prof.tab, Stride: s.prof.n, MaxScore: s.prof.maxScore,
		Open: int32(s.gaps.Open), Extend: int32(s.gaps.Extend),
		Corner:    lanes.NegInf,
		LastSweep: -1,
	}
	if swapped {
		st.LaneSyms, st.SweepSyms = s.rIdx, s.qIdx
		st.LaneMax, st.SweepMax = s.rlen, s.qlen
	} else {
		st.LaneSyms, st.SweepSyms = s.qIdx, s.rIdx
		st.LaneMax, st.SweepMax = s.qlen, s.rlen
	}
	return st
}

func (s *session) runStrip(st *lanes.Strip, runs *[]stripRun, swapped bool) bool {
	if runs != nil {
		meta := stripRun{
			swapped: swapped,
			laneOff: st.LaneOff, sweepOff: st.SweepOff,
			lanesN: st.H,
			corner: st.Corner,
			entryS: append([]int32(nil), st.SCol[:st.H]...),
			entryG: append([]int32(nil), st.GCol[:st.H]...),
			pl:     &lanes.Planes{},
		}
		st.Planes = meta.pl
		s.kern.RunWide(st)
		meta.cols = st.Cols
		meta.floor = st.Base + lanes.NegInf
		*runs = append(*runs, meta)
		return true
	}
	if err := s.kern.Run(st); err != nil {
		s.kern.RunWide(st)
		return true
	}
	return false
}

// sweepLen clamps the shift extent to the block dimension being shifted
// along, so tiny blocks still shift consistently.
func sweepLen(dim int) int {
	if dim < stepSize {
		return dim
	}
	return stepSize
}

// stepRight shifts the block right by up to stepSize columns: one strip with
// lanes along the query, swept over the new columns.
func (s *session) stepRight(b *band, runs *[]stripRun) stepOut {
	st := s.strip(sweepLen(b.w), b.h, b.i, b.j+b.w, false)
	st.SCol, st.GCol = b.scol, b.hcol
	st.SRow, st.GRow = s.rowS[:], s.rowG[:]
	if b.rightCornerOK {
		st.Corner = b.rightCorner
	}
	if s.global && b.i+b.h > s.qlen {
		st.LastSweep = s.rlen
	}
	out := stepOut{wide: s.runStrip(&st, runs, false)}
	n := st.Cols

	b.downCorner, b.downCornerOK = b.srow[n-1], true
	b.rightCornerOK = false
	copy(b.srow, b.srow[n:])
	copy(b.srow[b.w-n:], st.SRow[:n])
	copy(b.vrow, b.vrow[n:])
	copy(b.vrow[b.w-n:], st.GRow[:n])
	b.j += n

	out.max = st.Max
	out.argR, out.argC = b.i+st.ArgR, st.SweepOff+st.ArgC
	if st.LastSweep >= 0 && st.SweepOff+n-1 == s.rlen {
		out.done = true
		out.final = b.scol[s.qlen-b.i]
	}
	return out
}

// stepDown is the mirror image: lanes along the reference, swept over the
// new rows.
func (s *session) stepDown(b *band, runs *[]stripRun) stepOut {
	st := s.strip(sweepLen(b.h), b.w, b.j, b.i+b.h, true)
	st.SCol, st.GCol = b.srow, b.vrow
	st.SRow, st.GRow = s.rowS[:], s.rowG[:]
	if b.downCornerOK {
		st.Corner = b.downCorner
	}
	if s.global && b.j+b.w > s.rlen {
		st.LastSweep = s.qlen
	}
	out := stepOut{wide: s.runStrip(&st, runs, true)}
	n := st.Cols

	b.rightCorner, b.rightCornerOK = b.scol[n-1], true
	b.downCornerOK = false
	copy(b.scol, b.scol[n:])
	copy(b.scol[b.h-n:], st.SRow[:n])
	copy(b.hcol, b.hcol[n:])
	copy(b.hcol[b.h-n:], st.GRow[:n])
	b.i += n

	out.max = st.Max
	out.argR, out.argC = st.SweepOff+st.ArgC, b.j+st.ArgR
	if st.LastSweep >= 0 && st.SweepOff+n-1 == s.qlen {
		out.done = true
		out.final = b.srow[s.rlen-b.j]
	}
	return out
}

func (s *session) grown(prev int) int {
	if prev == 0 {
		return s.firstBlock
	}
	if v := 2 * prev; v <= s.cfg.MaxBlockSize {
		return v
	}
	return s.cfg.MaxBlockSize
}

// stepGrow doubles the block in place (from the rewound best-score state):
// region A sweeps the added rows across the old columns, region B sweeps the
// added columns across all rows. pw,ph = 0,0 places the initial block, which
// is region B alone starting at the matrix origin.
func (s *session) stepGrow(b *band, pw, ph int, runs *[]stripRun) stepOut {
	nw, nh := s.grown(pw), s.grown(ph)

	scol := make([]int32, nh)
	hcol := make([]int32, nh)
	copy(scol, b.scol)
	copy(hcol, b.hcol)
	for r := ph; r < nh; r++ {
		scol[r], hcol[r] = lanes.NegInf, lanes.NegInf
	}
	srow := make([]int32, nw)
	vrow := make([]int32, nw)
	copy(srow, b.srow)
	copy(vrow, b.vrow)
	for c := pw; c < nw; c++ {
		srow[c], vrow[c] = lanes.NegInf, lanes.NegInf
	}
	b.scol, b.hcol, b.srow, b.vrow = scol, hcol, srow, vrow
	b.w, b.h = nw, nh
	b.rightCornerOK, b.downCornerOK = false, false

	out := stepOut{max: lanes.NegInf}

	if pw > 0 && nh > ph {
		st := s.strip(nh-ph, pw, b.j, b.i+ph, true)
		st.SCol, st.GCol = b.srow[:pw], b.vrow[:pw]
		st.SRow = make([]int32, nh-ph)
		st.GRow = make([]int32, nh-ph)
		if s.global && b.j+pw > s.rlen {
			st.LastSweep = s.qlen
		}
		out.wide = s.runStrip(&st, runs, true)
		for c := 0; c < st.Cols; c++ {
			b.scol[ph+c] = st.SRow[c]
			b.hcol[ph+c] = st.GRow[c]
		}
		out.max = st.Max
		out.argR, out.argC = st.SweepOff+st.ArgC, b.j+st.ArgR
		if st.LastSweep >= 0 && st.SweepOff+st.Cols-1 == s.qlen {
			out.done = true
			out.final = b.srow[s.rlen-b.j]
			return out
		}
	}

	if nw > pw {
		st := s.strip(nw-pw, nh, b.i, b.j+pw, false)
		st.SCol, st.GCol = b.scol, b.hcol
		st.SRow = make([]int32, nw-pw)
		st.GRow = make([]int32, nw-pw)
		if s.global && b.i+nh > s.qlen {
			st.LastSweep = s.rlen
		}
		wide := s.runStrip(&st, runs, false)
		out.wide = out.wide || wide
		for c := 0; c < st.Cols; c++ {
			b.srow[pw+c] = st.SRow[c]
			b.vrow[pw+c] = st.GRow[c]
		}
		if st.Max > out.max {
			out.max = st.Max
			out.argR, out.argC = b.i+st.ArgR, st.SweepOff+st.ArgC
		}
		if st.LastSweep >= 0 && st.SweepOff+st.Cols-1 == s.rlen {
			out.done = true
			out.final = b.scol[s.qlen-b.i]
		}
	}
	return out
}

// shrinkW halves the block width, keeping the right half so the origin only
// ever moves forward. The dropped bottom-border cell next to the new origin
// becomes the down corner.
func (s *session) shrinkW(b *band) {
	half := b.w / 2
	b.downCorner, b.downCornerOK = b.srow[half-1], true
	copy(b.srow, b.srow[half:])
	b.srow = b.srow[:half]
	copy(b.vrow, b.vrow[half:])
	b.vrow = b.vrow[:half]
	b.j += half
	b.w = half
}

func (s *session) shrinkH(b *band) {
	half := b.h / 2
	b.rightCorner, b.rightCornerOK = b.scol[half-1], true
	copy(b.scol, b.scol[half:])
	b.scol = b.scol[:half]
	copy(b.hcol, b.hcol[half:])
	b.hcol = b.hcol[:half]
	b.i += half
	b.h = half
}

func maxSlice(v []int32) int32 {
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func borderMax(b *band) int32 {
	m := maxSlice(b.scol)
	if r := maxSlice(b.srow); r > m {
		m = r
	}
	return m
}

func prefixMass(v []int32) int64 {
	var sum int64
	n := stepSize
	if n > len(v) {
		n = len(v)
	}
	for _, x := range v[:n] {
		sum += int64(x)
	}
	return sum
}

// decide inspects the borders and picks the next shift. The bottom-right
// corner holding the edge maximum means the frontier is advancing evenly:
// go diagonal. Otherwise the heavier of the two trailing-edge prefixes wins,
// down on a tie.
func (s *session) decide(b *band, rightOK, downOK bool) (kind StepKind, diag bool) {
	if !rightOK {
		return StepDown, false
	}
	if !downOK {
		return StepRight, false
	}
	if b.srow[b.w-1] == borderMax(b) {
		return StepDown, true
	}
	if prefixMass(b.srow) >= prefixMass(b.scol) {
		return StepDown, false
	}
	return StepRight, false
}

type traceCkpt struct {
	next int // index of the first record executed after this snapshot
	b    *band
}

type history struct {
	records []record
	ckpts   []traceCkpt
}

type outcome struct {
	score      int32
	qEnd, rEnd int
}

func (s *session) canGrow(b *band) bool {
	return b.w < s.cfg.MaxBlockSize || b.h < s.cfg.MaxBlockSize
}

// run drives the adaptive block from the origin until global completion or
// X-drop termination.
func (s *session) run() (outcome, *history) {
	b := &band{}
	hist := &history{}
	if s.cfg.Traceback {
		hist.ckpts = append(hist.ckpts, traceCkpt{next: 0, b: b.clone()})
	}

	best := int32(0)
	bestR, bestC := 0, 0
	sinceImprove := 0
	badStreak := 0
	downRun, rightRun := 0, 0

	var growCkptBand *band
	growCkptRec := 0

	exec := func(rec record) stepOut {
		out := s.apply(b, rec, nil)
		hist.records = append(hist.records, rec)
		if s.cfg.Traceback && len(hist.records)%s.cfg.CheckpointInterval == 0 {
			hist.ckpts = append(hist.ckpts, traceCkpt{next: len(hist.records), b: b.clone()})
		}
		return out
	}

	// improve updates the running best; the return value says whether the
	// gain counts as progress for the growth trigger. The grow checkpoint is
	// refreshed on every improvement, even at maximum block size: a later
	// shrink can re-enable growing, and the rewind must never drop the strip
	// that produced the recorded best endpoint.
	improve := func(out stepOut) bool {
		if out.max > best && out.argR <= s.qlen && out.argC <= s.rlen {
			gain := out.max - best
			best = out.max
			bestR, bestC = out.argR, out.argC
			growCkptBand, growCkptRec = b.clone(), len(hist.records)
			return gain >= int32(s.cfg.MinImprovement)
		}
		return false
	}

	notify := func(kind StepKind, out stepOut) {
		if s.cfg.Observer != nil {
			s.cfg.Observer.Step(StepEvent{
				Kind: kind, I: b.i, J: b.j, W: b.w, H: b.h,
				StripMax: int(out.max), Best: int(best), Wide: out.wide,
			})
		}
	}

	// Initial placement.
	out := exec(record{kind: StepGrow})
	improve(out)
	notify(StepGrow, out)
	growCkptBand, growCkptRec = b.clone(), len(hist.records)
	if out.done {
		return outcome{out.final, s.qlen, s.rlen}, hist
	}

	for {
		rightOK := b.j+b.w <= s.rlen
		downOK := b.i+b.h <= s.qlen
		if !rightOK && !downOK {
			if s.global {
				panic("blockalign: frontier exhausted before reaching the final cell")
			}
			return outcome{best, bestR, bestC}, hist
		}

		kind, diag := s.decide(b, rightOK, downOK)
		out = exec(record{kind: kind})
		if improve(out) {
			sinceImprove = 0
		} else {
			sinceImprove++
		}
		notify(kind, out)
		if out.done {
			return outcome{out.final, s.qlen, s.rlen}, hist
		}
		if diag && b.j+b.w <= s.rlen {
			out2 := exec(record{kind: StepRight})
			if improve(out2) {
				sinceImprove = 0
			}
			notify(StepRight, out2)
			if out2.done {
				return outcome{out2.final, s.qlen, s.rlen}, hist
			}
			if out2.max > out.max {
				out = out2
			}
		}

		if !s.global {
			if out.max < best-s.x {
				badStreak++
				if badStreak >= xdropRounds {
					return outcome{best, bestR, bestC}, hist
				}
			} else {
				badStreak = 0
			}
		}

		// Growth: stalled progress or a best score trapped in the interior.
		span := b.w
		if b.h > span {
			span = b.h
		}
		patience := span/stepSize - 1
		if patience < 1 {
			patience = 1
		}
		needGrow := sinceImprove > patience || out.max > borderMax(b)
		if needGrow && s.canGrow(b) {
			downRun, rightRun = 0, 0
			for {
				b = growCkptBand.clone()
				hist.records = hist.records[:growCkptRec]
				for n := len(hist.ckpts); n > 0 && hist.ckpts[n-1].next > growCkptRec; n = len(hist.ckpts) {
					hist.ckpts = hist.ckpts[:n-1]
				}
				prevBest := best
				gout := exec(record{kind: StepGrow, pw: b.w, ph: b.h})
				improve(gout)
				notify(StepGrow, gout)
				sinceImprove = 0
				growCkptBand, growCkptRec = b.clone(), len(hist.records)
				if gout.done {
					return outcome{gout.final, s.qlen, s.rlen}, hist
				}
				if best > prevBest || !s.canGrow(b) {
					break
				}
			}
			continue
		}

		// Shrink: the best keeps hugging the leading edge in one direction.
		if s.cfg.ShrinkPatience > 0 && !diag {
			switch kind {
			case StepDown:
				rightRun = 0
				if out.argC >= b.j+b.w/2 && maxSlice(b.scol) < out.max {
					downRun++
				} else {
					downRun = 0
				}
				if downRun >= s.cfg.ShrinkPatience && b.w/2 >= s.cfg.MinBlockSize && b.j+b.w/2 <= s.rlen {
					sout := exec(record{kind: StepShrinkW})
					notify(StepShrinkW, sout)
					downRun = 0
				}
			case StepRight:
				downRun = 0
				if out.argR >= b.i+b.h/2 && maxSlice(b.srow) < out.max {
					rightRun++
				} else {
					rightRun = 0
				}
				if rightRun >= s.cfg.ShrinkPatience && b.h/2 >= s.cfg.MinBlockSize && b.i+b.h/2 <= s.qlen {
					sout := exec(record{kind: StepShrinkH})
					notify(StepShrinkH, sout)
					rightRun = 0
				}
			}
		} else if diag {
			downRun, rightRun = 0, 0
		}
	}
}
