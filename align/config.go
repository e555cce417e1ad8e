package align

import "fmt"

// Config tunes the adaptive block controller. The zero value of any field
// means "use the default"; pass nil to Align for all defaults.
type Config struct {
	// MinBlockSize is the initial block size, a power of two >= 4.
	// Default 32.
	MinBlockSize int

	// MaxBlockSize caps block growth. Power of two, at least MinBlockSize and
	// below 1<<15. Default 512.
	MaxBlockSize int

	// LaneWidth fixes the kernel lane count. 0 selects the probed width.
	// Lane width never changes results.
	LaneWidth int

	// CheckpointInterval is the number of recorded steps between band
	// snapshots kept for traceback. Default 16.
	CheckpointInterval int

	// MinImprovement is the score gain per block span that counts as
	// progress; anything less feeds the growth trigger. Default 1.
	MinImprovement int

	// ShrinkPatience enables block shrinking after that many consecutive
	// same-direction steps keep the best score on the leading edge.
	// 0 (the default) disables shrinking.
	ShrinkPatience int

	// Traceback requests the op list in the result.
	Traceback bool

	// Observer, when set, receives one event per controller step.
	Observer Observer
}

// DefaultConfig returns the default controller tuning.
func DefaultConfig() Config {
	return Config{
		MinBlockSize:       32,
		MaxBlockSize:       512,
		CheckpointInterval: 16,
		MinImprovement:     1,
	}
}

// OrDefault returns c with zero fields replaced by defaults. Accepts nil.
func (c *Config) OrDefault() *Config {
	out := DefaultConfig()
	if c != nil {
		if c.MinBlockSize != 0 {
			out.MinBlockSize = c.MinBlockSize
		}
		if c.MaxBlockSize != 0 {
			out.MaxBlockSize = c.MaxBlockSize
		}
		if c.CheckpointInterval != 0 {
			out.CheckpointInterval = c.CheckpointInterval
		}
		if c.MinImprovement != 0 {
			out.MinImprovement = c.MinImprovement
		}
		out.LaneWidth = c.LaneWidth
		out.ShrinkPatience = c.ShrinkPatience
		out.Traceback = c.Traceback
		out.Observer = c.Observer
	}
	return &out
}

func powerOfTwo(v int) bool { return v > 0 && v&(v-1) == 0 }

func (c *Config) validate() error {
	if !powerOfTwo(c.MinBlockSize) || c.MinBlockSize < 4 {
		return fmt.Errorf("%w: MinBlockSize %d must be a power of two >= 4", ErrConfig, c.MinBlockSize)
	}
	if !powerOfTwo(c.MaxBlockSize) || c.MaxBlockSize < c.MinBlockSize || c.MaxBlockSize >= 1<<15 {
		return fmt.Errorf("%w: MaxBlockSize %d must be a power of two in [MinBlockSize, 1<<15)", ErrConfig, c.MaxBlockSize)
	}
	if c.LaneWidth < 0 {
		return fmt.Errorf("%w: LaneWidth %d", ErrConfig, c.LaneWidth)
	}
	if c.CheckpointInterval < 1 {
		return fmt.Errorf("%w: CheckpointInterval %d", ErrConfig, c.CheckpointInterval)
	}
	if c.MinImprovement < 0 {
		return fmt.Errorf("%w: MinImprovement %d", ErrConfig, c.MinImprovement)
	}
	if c.ShrinkPatience < 0 {
		return fmt.Errorf("%w: ShrinkPatience %d", ErrConfig, c.ShrinkPatience)
	}
	return nil
}

// GapCost is the affine gap model: a gap of length L costs
// Open + (L-1)*Extend. Both are non-negative penalties.
type GapCost struct {
	Open   int
	Extend int
}

func (g GapCost) validate() error {
	if g.Open < 0 || g.Extend < 0 || g.Open > scoreLimit || g.Extend > scoreLimit {
		return fmt.Errorf("%w: gap costs %+v out of range [0, %d]", ErrConfig, g, scoreLimit)
	}
	return nil
}

// Mode selects global or X-drop alignment. The zero value is global.
type Mode struct {
	xdrop bool
	x     int
}

// Global aligns both sequences end to end.
func Global() Mode { return Mode{} }

// XDrop extends greedily and stops once the running score falls more than x
// below the best seen; the result reports the best-scoring endpoint.
func XDrop(x int) Mode { return Mode{xdrop: true, x: x} }

func (m Mode) validate() error {
	if m.xdrop && m.x < 0 {
		return fmt.Errorf("%w: negative X-drop threshold %d", ErrConfig, m.x)
	}
	return nil
}
