package align

import "fmt"

// Plane identifiers for the backward walk.
const (
	planeS = iota
	planeV // vertical gap, consumes query
	planeH // horizontal gap, consumes reference
)

// at translates matrix coordinates into this strip's lane/sweep frame.
func (t *stripRun) at(r, c int) (l, sw int, ok bool) {
	if t.swapped {
		l, sw = c-t.laneOff, r-t.sweepOff
	} else {
		l, sw = r-t.laneOff, c-t.sweepOff
	}
	return l, sw, l >= 0 && l < t.lanesN && sw >= 0 && sw < t.cols
}

// fl applies the strip's band floor, matching what the kernel saw when it
// read an entry border or built a candidate.
func (t *stripRun) fl(v int32) int32 {
	if v < t.floor {
		return t.floor
	}
	return v
}

func (t *stripRun) sAt(l, sw int) int32 { return t.pl.S[sw*t.lanesN+l] }

// vert is the matrix-vertical gap plane value: the lane-axis gap for query
// strips, the sweep-axis gap for swapped ones.
func (t *stripRun) vert(l, sw int) int32 {
	if t.swapped {
		return t.pl.G[sw*t.lanesN+l]
	}
	return t.pl.V[sw*t.lanesN+l]
}

func (t *stripRun) horiz(l, sw int) int32 {
	if t.swapped {
		return t.pl.V[sw*t.lanesN+l]
	}
	return t.pl.G[sw*t.lanesN+l]
}

// diag is the diagonal predecessor's best value as the kernel consumed it:
// in-plane, from the entry column, the corner, or the band floor.
func (t *stripRun) diag(l, sw int) int32 {
	switch {
	case l > 0 && sw > 0:
		return t.sAt(l-1, sw-1)
	case l > 0:
		return t.fl(t.entryS[l-1])
	case sw == 0:
		return t.fl(t.corner)
	default:
		return t.floor
	}
}

// up returns the matrix-upward predecessor's best and vertical-gap values.
func (t *stripRun) up(l, sw int) (sv, vv int32) {
	if t.swapped {
		if sw > 0 {
			return t.sAt(l, sw-1), t.pl.G[(sw-1)*t.lanesN+l]
		}
		return t.fl(t.entryS[l]), t.fl(t.entryG[l])
	}
	if l > 0 {
		return t.sAt(l-1, sw), t.pl.V[sw*t.lanesN+l-1]
	}
	return t.floor, t.floor
}

// left returns the matrix-leftward predecessor's best and horizontal-gap
// values.
func (t *stripRun) left(l, sw int) (sv, hv int32) {
	if t.swapped {
		if l > 0 {
			return t.sAt(l-1, sw), t.pl.V[sw*t.lanesN+l-1]
		}
		return t.floor, t.floor
	}
	if sw > 0 {
		return t.sAt(l, sw-1), t.pl.G[(sw-1)*t.lanesN+l]
	}
	return t.fl(t.entryS[l]), t.fl(t.entryG[l])
}

type tracer struct {
	s    *session
	hist *history
	win  int
	runs []stripRun
}

// replayWindow re-executes the records between two checkpoints with the wide
// pass, retaining every strip's planes and entry borders.
func (t *tracer) replayWindow(k int) []stripRun {
	ck := t.hist.ckpts[k]
	b := ck.b.clone()
	hi := len(t.hist.records)
	if k+1 < len(t.hist.ckpts) {
		hi = t.hist.ckpts[k+1].next
	}
	var runs []stripRun
	for _, rec := range t.hist.records[ck.next:hi] {
		t.s.apply(b, rec, &runs)
	}
	return runs
}

// locate finds the strip that computed matrix cell (r, c), replaying earlier
// windows as the walk crosses them. Strips never overlap, so the first hit
// is the only one.
func (t *tracer) locate(r, c int) (*stripRun, int, int) {
	for {
		for i := len(t.runs) - 1; i >= 0; i-- {
			if l, sw, ok := t.runs[i].at(r, c); ok {
				return &t.runs[i], l, sw
			}
		}
		t.win--
		if t.win < 0 {
			panic(fmt.Sprintf("blockalign: traceback cell (%d,%d) outside the computed band", r, c))
		}
		t.runs = t.replayWindow(t.win)
	}
}

// traceback walks backward from the endpoint to the origin, re-deriving each
// cell's provenance from the replayed planes with exact equalities. The tie
// order is diagonal, then vertical, then horizontal; inside a gap, closing
// beats extending.
func (s *session) traceback(hist *history, end outcome) Ops {
	t := &tracer{s: s, hist: hist, win: len(hist.ckpts)}

	r, c := end.qEnd, end.rEnd
	if run, l, sw := t.locate(r, c); run.sAt(l, sw) != end.score {
		panic(fmt.Sprintf("blockalign: traceback endpoint (%d,%d) holds %d, result says %d",
			r, c, run.sAt(l, sw), end.score))
	}

	open, ext := int32(s.gaps.Open), int32(s.gaps.Extend)
	var rev Ops
	push := func(k OpKind) {
		if n := len(rev); n > 0 && rev[n-1].Kind == k {
			rev[n-1].Len++
			return
		}
		rev = append(rev, OpRun{Kind: k, Len: 1})
	}

	plane := planeS
	for r > 0 || c > 0 {
		run, l, sw := t.locate(r, c)
		switch plane {
		case planeS:
			sv := run.sAt(l, sw)
			if r > 0 && c > 0 {
				sub := int32(s.prof.tab[int(s.qIdx[r])*s.prof.n+int(s.rIdx[c])])
				if sv == run.fl(run.diag(l, sw)+sub) {
					if s.qIdx[r] == s.rIdx[c] {
						push(Match)
					} else {
						push(Mismatch)
					}
					r--
					c--
					continue
				}
			}
			switch {
			case sv == run.vert(l, sw):
				plane = planeV
			case sv == run.horiz(l, sw):
				plane = planeH
			default:
				panic(fmt.Sprintf("blockalign: no provenance for cell (%d,%d)", r, c))
			}
		case planeV:
			push(Deletion)
			vv := run.vert(l, sw)
			upS, upV := run.up(l, sw)
			switch {
			case vv == run.fl(upS-open):
				plane = planeS
			case vv == run.fl(upV-ext):
				// still in the gap
			default:
				panic(fmt.Sprintf("blockalign: broken vertical gap at (%d,%d)", r, c))
			}
			r--
		case planeH:
			push(Insertion)
			hv := run.horiz(l, sw)
			leftS, leftH := run.left(l, sw)
			switch {
			case hv == run.fl(leftS-open):
				plane = planeS
			case hv == run.fl(leftH-ext):
			default:
				panic(fmt.Sprintf("blockalign: broken horizontal gap at (%d,%d)", r, c))
			}
			c--
		}
	}

	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}
