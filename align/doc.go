// Package align computes pairwise sequence alignments under an affine gap
// model with an adaptively positioned score block instead of the full
// quadratic matrix. The block slides right, down, or diagonally along the
// high-scoring frontier, doubles itself when progress stalls (rewinding to
// the best-scoring state first), and optionally shrinks again on long
// one-directional runs. Memory stays proportional to the block perimeter
// plus sparse checkpoints; traceback recomputes checkpoint windows forward
// and walks them backward.
//
// Global mode aligns both sequences end to end. X-drop mode extends greedily
// and reports the best-scoring endpoint once the score falls too far behind
// the best seen; like all banded heuristics it trades optimality guarantees
// for speed.
package align
