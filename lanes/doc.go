// Package lanes implements the fixed-width lane kernel for the adaptive
// block aligner: the vectorized update of one rectangular strip of the
// affine-gap score planes. The kernel computes in narrow 16-bit lanes by
// default and signals ErrOverflow instead of returning a wrong answer;
// callers recover by recomputing the same strip with RunWide. Lane width
// is selected from CPU capabilities (AVX-512 > AVX2 > SSE4 on amd64,
// NEON on arm64) and never affects results, only chunking.
package lanes
