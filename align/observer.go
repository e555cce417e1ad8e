package align

import "fmt"

// StepKind identifies one block controller action.
type StepKind int

const (
	StepRight StepKind = iota
	StepDown
	StepGrow
	StepShrinkW
	StepShrinkH
)

func (k StepKind) String() string {
	switch k {
	case StepRight:
		return "right"
	case StepDown:
		return "down"
	case StepGrow:
		return "grow"
	case StepShrinkW:
		return "shrink-w"
	case StepShrinkH:
		return "shrink-h"
	}
	return fmt.Sprintf("step(%d)", int(k))
}

// StepEvent describes one controller step after it executed.
type StepEvent struct {
	Kind StepKind

	// Block origin and dimensions after the step, in padded matrix
	// coordinates.
	I, J, W, H int

	// StripMax is the best score in the newly computed cells; Best is the
	// running best across the whole alignment.
	StripMax int
	Best     int

	// Wide is set when the step escalated to the 32-bit pass.
	Wide bool
}

// Observer receives controller step events. Observers must not retain the
// event past the call. A nil Observer in Config disables reporting; events
// never influence the alignment.
type Observer interface {
	Step(StepEvent)
}

// StepStats is a ready-made Observer that tallies controller activity.
type StepStats struct {
	Steps    int
	Rights   int
	Downs    int
	Grows    int
	Shrinks  int
	WideRuns int
	PeakW    int
	PeakH    int
}

func (s *StepStats) Step(e StepEvent) {
	s.Steps++
	switch e.Kind {
	case StepRight:
		s.Rights++
	case StepDown:
		s.Downs++
	case StepGrow:
		s.Grows++
	case StepShrinkW, StepShrinkH:
		s.Shrinks++
	}
	if e.Wide {
		s.WideRuns++
	}
	if e.W > s.PeakW {
		s.PeakW = e.W
	}
	if e.H > s.PeakH {
		s.PeakH = e.H
	}
}

func (s *StepStats) String() string {
	return fmt.Sprintf("steps=%d right=%d down=%d grow=%d shrink=%d wide=%d peak=%dx%d",
		s.Steps, s.Rights, s.Downs, s.Grows, s.Shrinks, s.WideRuns, s.PeakW, s.PeakH)
}
