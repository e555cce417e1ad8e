package align

import (
	"fmt"
	"strconv"
	"strings"
)

// OpKind is one alignment operation. Deletion consumes a query symbol (a gap
// in the reference); Insertion consumes a reference symbol.
type OpKind byte

const (
	Match OpKind = iota
	Mismatch
	Deletion
	Insertion
)

func (k OpKind) String() string {
	switch k {
	case Match:
		return "M"
	case Mismatch:
		return "X"
	case Deletion:
		return "D"
	case Insertion:
		return "I"
	}
	return "?"
}

// OpRun is a run-length encoded alignment operation.
type OpRun struct {
	Kind OpKind
	Len  int
}

// Ops is a full alignment path, query start to end.
type Ops []OpRun

// String renders the path in compact run-length form, e.g. "4M2D".
func (o Ops) String() string {
	var b strings.Builder
	for _, r := range o {
		b.WriteString(strconv.Itoa(r.Len))
		b.WriteString(r.Kind.String())
	}
	return b.String()
}

// Lens returns the query and reference spans the path consumes.
func (o Ops) Lens() (q, r int) {
	for _, run := range o {
		switch run.Kind {
		case Match, Mismatch:
			q += run.Len
			r += run.Len
		case Deletion:
			q += run.Len
		case Insertion:
			r += run.Len
		}
	}
	return q, r
}

// Score replays the path over the aligned spans and returns the recomputed
// score. For X-drop results pass query[:QueryEnd] and reference[:RefEnd].
func (o Ops) Score(query, reference []byte, prof *Profile, gaps GapCost) (int, error) {
	qi, ri, score := 0, 0, 0
	for _, run := range o {
		switch run.Kind {
		case Match, Mismatch:
			if qi+run.Len > len(query) || ri+run.Len > len(reference) {
				return 0, fmt.Errorf("ops overrun sequences at %d%s", run.Len, run.Kind)
			}
			for k := 0; k < run.Len; k++ {
				s, err := prof.Score(query[qi+k], reference[ri+k])
				if err != nil {
					return 0, err
				}
				score += s
			}
			qi += run.Len
			ri += run.Len
		case Deletion:
			if qi+run.Len > len(query) {
				return 0, fmt.Errorf("ops overrun query at %dD", run.Len)
			}
			score -= gaps.Open + (run.Len-1)*gaps.Extend
			qi += run.Len
		case Insertion:
			if ri+run.Len > len(reference) {
				return 0, fmt.Errorf("ops overrun reference at %dI", run.Len)
			}
			score -= gaps.Open + (run.Len-1)*gaps.Extend
			ri += run.Len
		default:
			return 0, fmt.Errorf("unknown op kind %d", run.Kind)
		}
	}
	if qi != len(query) || ri != len(reference) {
		return 0, fmt.Errorf("ops consume %d/%d, sequences are %d/%d", qi, ri, len(query), len(reference))
	}
	return score, nil
}
