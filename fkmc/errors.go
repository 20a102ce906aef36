package fkmc

import "errors"

// Error kinds returned by fkmc operations. Callers should use errors.Is
// against these sentinels; wrapped context is added with fmt.Errorf("%w").
var (
	// ErrParamsMismatch is returned when a reload's parameters do not match
	// the running configuration within the tolerances of §6.
	ErrParamsMismatch = errors.New("fkmc: params mismatch")

	// ErrEigensolverFailure is returned when a dense or Lanczos eigensolve
	// does not converge or produces a non-finite spectrum.
	ErrEigensolverFailure = errors.New("fkmc: eigensolver failure")

	// ErrChebyshevDegenerate is returned when the rescaled spectral
	// interval collapses (half-width (e_max - e_min)/2 below tolerance).
	ErrChebyshevDegenerate = errors.New("fkmc: chebyshev rescale degenerate")

	// ErrIOFailure wraps persistence read/write failures.
	ErrIOFailure = errors.New("fkmc: io failure")

	// ErrInvalidConfig is returned for structurally invalid configurations,
	// e.g. Nf < 0 or Nf > V.
	ErrInvalidConfig = errors.New("fkmc: invalid config")
)
