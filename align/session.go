package align

import (
	"fmt"

	"github.com/ic-timon/blockalign/lanes"
)

// Result is a completed alignment. QueryEnd/RefEnd are the consumed prefix
// lengths: the full sequence lengths in global mode, the best-scoring
// endpoint in X-drop mode. Ops is nil unless Config.Traceback was set.
type Result struct {
	Score    int
	QueryEnd int
	RefEnd   int
	Ops      Ops
}

type session struct {
	prof *Profile
	gaps GapCost
	cfg  *Config
	kern *lanes.Kernel

	global     bool
	x          int32
	firstBlock int

	qIdx, rIdx []int16
	qlen, rlen int

	rowS, rowG [stepSize]int32
}

// Align computes one pairwise alignment. Sessions are independent: callers
// run concurrent alignments by calling Align from multiple goroutines, each
// call owning its own state. The profile may be shared.
//
// Validation is eager and complete before any scoring work: configuration,
// gap model, mode, alphabet membership of both sequences, and minimum
// lengths. There are no partial results.
func Align(query, reference []byte, prof *Profile, gaps GapCost, mode Mode, cfg *Config) (*Result, error) {
	if prof == nil {
		return nil, fmt.Errorf("%w: nil profile", ErrConfig)
	}
	c := cfg.OrDefault()
	if err := c.validate(); err != nil {
		return nil, err
	}
	kern := lanes.New(c.LaneWidth)
	if err := gaps.validate(); err != nil {
		return nil, err
	}
	if err := mode.validate(); err != nil {
		return nil, err
	}
	if err := prof.Validate(query); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if err := prof.Validate(reference); err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	if len(query) < c.MinBlockSize || len(reference) < c.MinBlockSize {
		return nil, fmt.Errorf("%w: query %d, reference %d, minimum %d",
			ErrSequenceTooShort, len(query), len(reference), c.MinBlockSize)
	}

	x := mode.x
	if x > 1<<30 {
		x = 1 << 30
	}
	// Free gaps let the optimal path wander arbitrarily far off the diagonal;
	// the first block must then cover the whole matrix, as far as
	// MaxBlockSize allows.
	firstBlock := c.MinBlockSize
	if gaps.Open == 0 && gaps.Extend == 0 {
		need := len(query)
		if len(reference) > need {
			need = len(reference)
		}
		for firstBlock <= need && firstBlock < c.MaxBlockSize {
			firstBlock *= 2
		}
	}
	s := &session{
		prof:       prof,
		gaps:       gaps,
		cfg:        c,
		kern:       kern,
		global:     !mode.xdrop,
		x:          int32(x),
		firstBlock: firstBlock,
		qIdx:       prof.index(query, c.MaxBlockSize),
		rIdx:       prof.index(reference, c.MaxBlockSize),
		qlen:       len(query),
		rlen:       len(reference),
	}

	out, hist := s.run()
	res := &Result{Score: int(out.score), QueryEnd: out.qEnd, RefEnd: out.rEnd}
	if c.Traceback {
		res.Ops = s.traceback(hist, out)
	}
	return res, nil
}
