package lanes

import (
	"errors"
	"fmt"
)

const (
	// NegInf is the band floor ("minus infinity"). Scores inside a strip are
	// computed relative to the strip's entry maximum and never drop below
	// this floor; border cells outside the band start at it.
	NegInf int32 = -1 << 14

	// satCeil is the narrow-lane ceiling with headroom. A value crossing it
	// means the 16-bit pass is about to saturate.
	satCeil int32 = 32767 - 1024
)

// ErrOverflow reports that a narrow 16-bit pass saturated (or provably
// would). The controller recovers by calling RunWide on the same strip; the
// error never reaches the caller of the aligner.
var ErrOverflow = errors.New("lanes: 16-bit lane overflow")

// Planes holds the full score planes of one strip, retained during traceback
// replay. Layout is sweep-major: cell (lane r, sweep c) is at c*H+r.
// S is the best plane, V the lane-axis gap plane, G the sweep-axis gap plane.
type Planes struct {
	W, H    int
	S, V, G []int32
}

// Strip describes one rectangular region of newly materialized cells: W
// sweep steps by H lanes. The lane axis runs along LaneSyms (the query for
// right-moving strips, the reference for down-moving ones); the sweep axis
// runs along SweepSyms.
//
// SCol/GCol are the entry borders (best plane and sweep-axis gap plane, len
// H) and are updated in place to the exit borders. SRow/GRow (len W) receive
// the trailing lane's best and lane-axis gap values per sweep step. Corner is
// the diagonal predecessor of cell (0,0).
type Strip struct {
	W, H      int
	LaneOff   int // lane-axis origin in padded matrix coordinates
	SweepOff  int // sweep-axis origin
	LaneSyms  []int16
	SweepSyms []int16

	// LaneMax and SweepMax are the largest valid absolute indices on each
	// axis. Cells beyond them lie in the padding tail and are computed but
	// never reported as the strip maximum.
	LaneMax, SweepMax int

	Tab      []int16 // substitution table, row stride Stride
	Stride   int
	MaxScore int16 // largest positive entry of Tab

	Open, Extend int32 // non-negative penalties

	SCol, GCol []int32
	SRow, GRow []int32
	Corner     int32

	// LastSweep, when >= 0, stops the sweep right after the column with that
	// absolute index (global-mode final column/row).
	LastSweep int

	Planes *Planes // filled by RunWide only

	// Outputs.
	Max        int32
	ArgR, ArgC int   // strip-local coordinates of Max, first occurrence
	Cols       int   // sweep steps actually computed
	Base       int32 // rebase origin used for this strip; the effective band
	// floor in absolute scores is Base+NegInf
}

// Kernel computes strips with a fixed lane width. Not safe for concurrent
// use; each alignment session owns one.
type Kernel struct {
	width int
	s16   []int16
	g16   []int16
}

// New returns a kernel with the given lane width, or the probed preferred
// width when width is 0.
func New(width int) *Kernel {
	if width <= 0 {
		width = PreferredWidth()
	}
	return &Kernel{width: width}
}

// Width returns the lane count.
func (k *Kernel) Width() int { return k.width }

// Desc describes the kernel for logging, e.g. "AVX2x16/i16".
func (k *Kernel) Desc() string {
	return fmt.Sprintf("%sx%d/i16", PreferredDesc(), k.width)
}

// stripBase returns the rebase origin for a strip: the maximum over the entry
// border and corner, pinned to 0 for the strip containing the matrix origin.
func stripBase(s *Strip) int32 {
	if s.LaneOff == 0 && s.SweepOff == 0 {
		return 0
	}
	base := s.Corner
	for _, v := range s.SCol[:s.H] {
		if v > base {
			base = v
		}
	}
	if base <= NegInf {
		base = 0
	}
	return base
}

// Run computes the strip with narrow 16-bit lanes. The entry borders
// SCol/GCol are rewritten only on success; on ErrOverflow the caller retries
// with RunWide, which recomputes every output.
func (k *Kernel) Run(s *Strip) error {
	// Headroom precheck: within a strip the best value can rise above the
	// entry maximum by at most W*MaxScore.
	if s.MaxScore > 0 && int64(s.MaxScore)*int64(s.W) >= int64(satCeil) {
		return ErrOverflow
	}
	if s.W == 0 || s.H == 0 {
		s.Max = NegInf
		s.ArgR, s.ArgC, s.Cols, s.Base = 0, 0, 0, 0
		return nil
	}

	base := stripBase(s)
	s.Base = base
	if cap(k.s16) < s.H {
		k.s16 = make([]int16, s.H)
		k.g16 = make([]int16, s.H)
	}
	sc := k.s16[:s.H]
	gc := k.g16[:s.H]
	for r := 0; r < s.H; r++ {
		sc[r] = clip16(s.SCol[r] - base)
		gc[r] = clip16(s.GCol[r] - base)
	}
	corner := clip16(s.Corner - base)

	open16 := int16(s.Open)
	ext16 := int16(s.Extend)
	origin := s.LaneOff == 0 && s.SweepOff == 0

	maxD := int16(clip16(NegInf))
	argR, argC := 0, 0
	cols := s.W
	var srow, vrow int16

	for c := 0; c < s.W; c++ {
		row := s.Tab[int(s.SweepSyms[s.SweepOff+c])*s.Stride:]
		diag := int16(clip16(NegInf))
		if c == 0 {
			diag = corner
		}
		vGap := int16(clip16(NegInf))
		prevS := int16(clip16(NegInf))
		overflow := false
		for r0 := 0; r0 < s.H; r0 += k.width {
			end := r0 + k.width
			if end > s.H {
				end = s.H
			}
			for r := r0; r < end; r++ {
				oldS := sc[r]
				oldG := gc[r]
				sub := row[s.LaneSyms[s.LaneOff+r]]

				g, of1 := addf16(oldG, -ext16)
				g2, of2 := addf16(oldS, -open16)
				if g2 > g {
					g = g2
				}
				d, of3 := addf16(diag, sub)
				if g > d {
					d = g
				}
				if origin && r == 0 && c == 0 && d < 0 {
					d = 0
				}
				v, of4 := addf16(vGap, -ext16)
				v2, of5 := addf16(prevS, -open16)
				if v2 > v {
					v = v2
				}
				if v > d {
					d = v
				}
				overflow = overflow || of1 || of2 || of3 || of4 || of5

				diag = oldS
				vGap = v
				prevS = d
				sc[r] = d
				gc[r] = g
				if d > maxD && s.LaneOff+r <= s.LaneMax && s.SweepOff+c <= s.SweepMax {
					maxD = d
					argR, argC = r, c
				}
			}
		}
		if overflow {
			return ErrOverflow
		}
		srow, vrow = prevS, vGap
		s.SRow[c] = base + int32(srow)
		s.GRow[c] = base + int32(vrow)
		if s.LastSweep >= 0 && s.SweepOff+c == s.LastSweep {
			cols = c + 1
			break
		}
	}

	for r := 0; r < s.H; r++ {
		s.SCol[r] = base + int32(sc[r])
		s.GCol[r] = base + int32(gc[r])
	}
	s.Max = base + int32(maxD)
	s.ArgR, s.ArgC, s.Cols = argR, argC, cols
	return nil
}

// RunWide recomputes a strip with 32-bit lanes. It applies the same rebase
// and band floor as Run, so results match the narrow pass bit for bit
// wherever the narrow pass did not saturate. Fills s.Planes when set.
func (k *Kernel) RunWide(s *Strip) {
	if s.W == 0 || s.H == 0 {
		s.Max = NegInf
		s.ArgR, s.ArgC, s.Cols, s.Base = 0, 0, 0, 0
		return
	}
	base := stripBase(s)
	s.Base = base
	sc := make([]int32, s.H)
	gc := make([]int32, s.H)
	for r := 0; r < s.H; r++ {
		sc[r] = floor32(s.SCol[r] - base)
		gc[r] = floor32(s.GCol[r] - base)
	}
	corner := floor32(s.Corner - base)

	origin := s.LaneOff == 0 && s.SweepOff == 0
	maxD := NegInf
	argR, argC := 0, 0
	cols := s.W

	var pl *Planes
	if s.Planes != nil {
		pl = s.Planes
		pl.W, pl.H = s.W, s.H
		n := s.W * s.H
		if cap(pl.S) < n {
			pl.S = make([]int32, n)
			pl.V = make([]int32, n)
			pl.G = make([]int32, n)
		}
		pl.S, pl.V, pl.G = pl.S[:n], pl.V[:n], pl.G[:n]
	}

	for c := 0; c < s.W; c++ {
		row := s.Tab[int(s.SweepSyms[s.SweepOff+c])*s.Stride:]
		diag := NegInf
		if c == 0 {
			diag = corner
		}
		vGap := NegInf
		prevS := NegInf
		for r0 := 0; r0 < s.H; r0 += k.width {
			end := r0 + k.width
			if end > s.H {
				end = s.H
			}
			for r := r0; r < end; r++ {
				oldS := sc[r]
				oldG := gc[r]
				sub := int32(row[s.LaneSyms[s.LaneOff+r]])

				g := floor32(oldG - s.Extend)
				if g2 := floor32(oldS - s.Open); g2 > g {
					g = g2
				}
				d := floor32(diag + sub)
				if g > d {
					d = g
				}
				if origin && r == 0 && c == 0 && d < 0 {
					d = 0
				}
				v := floor32(vGap - s.Extend)
				if v2 := floor32(prevS - s.Open); v2 > v {
					v = v2
				}
				if v > d {
					d = v
				}

				diag = oldS
				vGap = v
				prevS = d
				sc[r] = d
				gc[r] = g
				if pl != nil {
					pl.S[c*s.H+r] = base + d
					pl.V[c*s.H+r] = base + v
					pl.G[c*s.H+r] = base + g
				}
				if d > maxD && s.LaneOff+r <= s.LaneMax && s.SweepOff+c <= s.SweepMax {
					maxD = d
					argR, argC = r, c
				}
			}
		}
		s.SRow[c] = base + prevS
		s.GRow[c] = base + vGap
		if s.LastSweep >= 0 && s.SweepOff+c == s.LastSweep {
			cols = c + 1
			break
		}
	}

	for r := 0; r < s.H; r++ {
		s.SCol[r] = base + sc[r]
		s.GCol[r] = base + gc[r]
	}
	s.Max = base + maxD
	s.ArgR, s.ArgC, s.Cols = argR, argC, cols
}

// addf16 adds with the band floor; ok is false when the sum crossed the
// narrow ceiling.
func addf16(a, b int16) (int16, bool) {
	s := int32(a) + int32(b)
	if s < NegInf {
		return int16(NegInf), false
	}
	if s > satCeil {
		return int16(satCeil), true
	}
	return int16(s), false
}

// clip16 clamps a rebased entry value into narrow range.
func clip16(v int32) int16 {
	if v < NegInf {
		return int16(NegInf)
	}
	if v > satCeil {
		// Entry borders are rebased to their maximum, so deltas are <= 0.
		return int16(satCeil)
	}
	return int16(v)
}

func floor32(v int32) int32 {
	if v < NegInf {
		return NegInf
	}
	return v
}
