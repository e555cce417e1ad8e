package align

import "fmt"

const (
	// scoreLimit bounds substitution scores and gap penalties so the narrow
	// kernel's rebase headroom analysis holds.
	scoreLimit = 1 << 12

	// padScore is the substitution score of the padding symbol; low enough
	// that padded tail cells never win, high enough to stay above the band
	// floor after one step.
	padScore = -(1 << 12)
)

// Profile maps sequence bytes to substitution scores. Index 0 is reserved
// for the padding symbol; real symbols start at 1. Lookup is
// case-insensitive. Build one per scoring scheme and share it across
// sessions; a Profile is immutable after construction.
type Profile struct {
	alphabet string
	n        int // symbol count including padding
	idx      [256]int16
	tab      []int16 // n*n, row-major
	maxScore int16
}

func newProfile(alphabet string) (*Profile, error) {
	if alphabet == "" {
		return nil, fmt.Errorf("%w: empty alphabet", ErrConfig)
	}
	p := &Profile{alphabet: alphabet, n: len(alphabet) + 1}
	for i := range p.idx {
		p.idx[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		b := alphabet[i]
		if p.idx[b] >= 0 {
			return nil, fmt.Errorf("%w: duplicate alphabet symbol %q", ErrConfig, b)
		}
		p.idx[b] = int16(i + 1)
		p.idx[lower(b)] = int16(i + 1)
		p.idx[upper(b)] = int16(i + 1)
	}
	p.tab = make([]int16, p.n*p.n)
	for i := 0; i < p.n; i++ {
		p.tab[i] = padScore
		p.tab[i*p.n] = padScore
	}
	return p, nil
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 'a' - 'A'
	}
	return b
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

func (p *Profile) set(i, j int, score int) error {
	if score < -scoreLimit || score > scoreLimit {
		return fmt.Errorf("%w: score %d out of range [%d, %d]", ErrConfig, score, -scoreLimit, scoreLimit)
	}
	p.tab[(i+1)*p.n+j+1] = int16(score)
	if int16(score) > p.maxScore {
		p.maxScore = int16(score)
	}
	return nil
}

// NewMatchMismatch builds a profile scoring match for equal symbols and
// mismatch for unequal ones.
func NewMatchMismatch(alphabet string, match, mismatch int) (*Profile, error) {
	p, err := newProfile(alphabet)
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(alphabet); i++ {
		for j := 0; j < len(alphabet); j++ {
			s := mismatch
			if i == j {
				s = match
			}
			if err := p.set(i, j, s); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

// NewMatrix builds a profile from a full substitution matrix; scores[i][j]
// scores alphabet[i] against alphabet[j]. The matrix must be symmetric:
// scoring reads it in both orientations.
func NewMatrix(alphabet string, scores [][]int) (*Profile, error) {
	p, err := newProfile(alphabet)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(alphabet) {
		return nil, fmt.Errorf("%w: matrix has %d rows for %d symbols", ErrConfig, len(scores), len(alphabet))
	}
	for i, row := range scores {
		if len(row) != len(alphabet) {
			return nil, fmt.Errorf("%w: matrix row %d has %d entries", ErrConfig, i, len(row))
		}
		for j, s := range row {
			if j < i && scores[j][i] != s {
				return nil, fmt.Errorf("%w: matrix is not symmetric at %q,%q", ErrConfig, alphabet[i], alphabet[j])
			}
			if err := p.set(i, j, s); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

// Nuc4 returns a simple nucleotide profile over ACGTN: +1 match, -1
// mismatch, N neutral against everything.
func Nuc4() *Profile {
	p, err := NewMatchMismatch("ACGTN", 1, -1)
	if err != nil {
		panic(err)
	}
	n := len("ACGTN") - 1
	for i := 0; i < len("ACGTN"); i++ {
		p.tab[(i+1)*p.n+n+1] = 0
		p.tab[(n+1)*p.n+i+1] = 0
	}
	return p
}

// Alphabet returns the profile's alphabet in declaration order.
func (p *Profile) Alphabet() string { return p.alphabet }

// Score looks up the substitution score for two sequence bytes.
func (p *Profile) Score(a, b byte) (int, error) {
	ia, ib := p.idx[a], p.idx[b]
	if ia < 0 {
		return 0, fmt.Errorf("%w: %q", ErrAlphabet, a)
	}
	if ib < 0 {
		return 0, fmt.Errorf("%w: %q", ErrAlphabet, b)
	}
	return int(p.tab[int(ia)*p.n+int(ib)]), nil
}

// Validate checks every byte of seq against the alphabet.
func (p *Profile) Validate(seq []byte) error {
	for off, b := range seq {
		if p.idx[b] < 0 {
			return fmt.Errorf("%w: byte %q at offset %d", ErrAlphabet, b, off)
		}
	}
	return nil
}

// index builds the padded symbol-index array for one sequence: index 0 is
// the padding symbol at the matrix origin, then one entry per sequence byte,
// then pad entries so block overhang past the sequence end stays in bounds.
func (p *Profile) index(seq []byte, overhang int) []int16 {
	out := make([]int16, len(seq)+1+overhang)
	for i, b := range seq {
		out[i+1] = p.idx[b]
	}
	return out
}
