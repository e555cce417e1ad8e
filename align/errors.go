package align

import "errors"

var (
	// ErrConfig reports an invalid Config, gap model, mode, or profile.
	ErrConfig = errors.New("align: invalid configuration")

	// ErrSequenceTooShort reports a sequence shorter than MinBlockSize.
	ErrSequenceTooShort = errors.New("align: sequence shorter than minimum block size")

	// ErrAlphabet reports a sequence byte outside the profile's alphabet.
	ErrAlphabet = errors.New("align: symbol outside profile alphabet")
)
