package fkmc

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// edCacheStatus is the tagged-variant status of a Configuration's exact
// diagonalization cache (§3, §9).
type edCacheStatus int

const (
	edEmpty edCacheStatus = iota
	edSpectrum
	edFull
)

// edCache holds the exact-diagonalization cache: the spectrum, optionally
// the eigenvectors, and the derived logZ. Unconditionally reset (never
// partially invalidated) on any mutation of f or params.
type edCache struct {
	status   edCacheStatus
	spectrum []float64
	evecs    *mat.Dense
	logZ     float64
}

// chebCacheStatus is the tagged-variant status of a Configuration's
// Chebyshev moment cache.
type chebCacheStatus int

const (
	chebEmpty chebCacheStatus = iota
	chebLogZ
)

// chebCache holds the rescaled-spectrum Chebyshev moment cache (§3, §4.3).
type chebCache struct {
	status  chebCacheStatus
	eMin    float64
	eMax    float64
	a, b    float64
	moments []float64
	logZ    float64
}

// Configuration owns the current f-occupation vector, the assembled
// Hamiltonian H(f) = T + diag(U*f - mu_c), and the two caches. A
// Configuration is mutable and owned by exactly one sampler or trial move at
// a time (§3, §5).
type Configuration struct {
	lattice Lattice
	params  Params

	f []int // {0,1}^V

	hamiltonian *mat.SymDense

	ed   edCache
	cheb chebCache
}

// NewConfiguration creates a Configuration over lattice with the given
// params, f all-zero, and H uninitialized until CalcHamiltonian is called.
func NewConfiguration(lattice Lattice, params Params) *Configuration {
	return &Configuration{
		lattice: lattice,
		params:  params,
		f:       make([]int, lattice.V()),
	}
}

// Params returns the frozen parameter set this configuration was created
// with.
func (c *Configuration) Params() Params { return c.params }

// F returns a read-only-by-convention view of the current f-occupation
// vector.
func (c *Configuration) F() []int { return c.f }

// Clone creates an independent copy of c, sharing the (read-only) lattice
// but owning its own f-vector, Hamiltonian and caches — used to build a
// per-proposal trial configuration (§9 "Trial configurations").
func (c *Configuration) Clone() *Configuration {
	clone := &Configuration{
		lattice: c.lattice,
		params:  c.params,
		f:       append([]int(nil), c.f...),
	}
	if c.hamiltonian != nil {
		clone.hamiltonian = mat.NewSymDense(c.hamiltonian.SymmetricDim(), nil)
		clone.hamiltonian.CopySym(c.hamiltonian)
	}
	clone.ed = copyEDCache(c.ed)
	clone.cheb = copyChebCache(c.cheb)
	return clone
}

func copyEDCache(in edCache) edCache {
	out := edCache{status: in.status, logZ: in.logZ}
	if in.spectrum != nil {
		out.spectrum = append([]float64(nil), in.spectrum...)
	}
	if in.evecs != nil {
		r, cN := in.evecs.Dims()
		out.evecs = mat.NewDense(r, cN, nil)
		out.evecs.Copy(in.evecs)
	}
	return out
}

func copyChebCache(in chebCache) chebCache {
	out := in
	if in.moments != nil {
		out.moments = append([]float64(nil), in.moments...)
	}
	return out
}

// Assign copies rhs's f, Hamiltonian and caches into c. It fails with
// ErrParamsMismatch if the two configurations' frozen params differ (§3).
func (c *Configuration) Assign(rhs *Configuration) error {
	if err := c.params.CompatibleWith(rhs.params); err != nil {
		return err
	}
	c.f = append(c.f[:0], rhs.f...)
	if rhs.hamiltonian != nil {
		if c.hamiltonian == nil {
			c.hamiltonian = mat.NewSymDense(rhs.hamiltonian.SymmetricDim(), nil)
		}
		c.hamiltonian.CopySym(rhs.hamiltonian)
	} else {
		c.hamiltonian = nil
	}
	c.ed = copyEDCache(rhs.ed)
	c.cheb = copyChebCache(rhs.cheb)
	return nil
}

func (c *Configuration) resetCaches() {
	c.ed = edCache{}
	c.cheb = chebCache{}
}

// RandomizeF places n ones at distinct uniformly-chosen sites (n ∼
// Uniform{0..V} when n is negative), resetting both caches (§4.2).
func (c *Configuration) RandomizeF(rng *rand.Rand, n int) {
	v := c.lattice.V()
	if n < 0 {
		n = rng.Intn(v + 1)
	}
	for i := range c.f {
		c.f[i] = 0
	}
	placed := 0
	for placed < n {
		idx := rng.Intn(v)
		if c.f[idx] == 0 {
			c.f[idx] = 1
			placed++
		}
	}
	c.resetCaches()
}

// SetF installs an explicit {0,1}^V occupation vector, resetting both
// caches. Used by exact-enumeration callers that need to visit every
// configuration directly rather than sampling (§8 testable property 3).
func (c *Configuration) SetF(f []int) error {
	if len(f) != c.lattice.V() {
		return fmt.Errorf("SetF: %w: len(f)=%d, want %d", ErrInvalidConfig, len(f), c.lattice.V())
	}
	c.f = append(c.f[:0], f...)
	c.resetCaches()
	return nil
}

// CalcHamiltonian rebuilds H = T + diag(U*f - mu_c) from the current f,
// resetting both caches (§4.2).
func (c *Configuration) CalcHamiltonian() *mat.SymDense {
	v := c.lattice.V()
	h := mat.NewSymDense(v, nil)
	h.CopySym(c.lattice.HoppingMatrix())
	for i := 0; i < v; i++ {
		diag := h.At(i, i) + c.params.U*float64(c.f[i]) - c.params.MuC
		h.SetSym(i, i, diag)
	}
	c.hamiltonian = h
	c.resetCaches()
	return h
}

// Hamiltonian returns the current (cached) Hamiltonian, or nil if
// CalcHamiltonian has not yet been called.
func (c *Configuration) Hamiltonian() *mat.SymDense { return c.hamiltonian }

// GetNf returns Σf_i.
func (c *Configuration) GetNf() int {
	n := 0
	for _, x := range c.f {
		n += x
	}
	return n
}

// CalcFFEnergy computes the optional classical f-f interaction term,
// nearest-neighbor Ising-like coupling J_ff * Σ_<i,j> (f_i-1/2)(f_j-1/2),
// zero when Params.JFf is zero (§4.2 "optional classical f-f interaction
// term"; see SPEC_FULL.md for the supplemented nonzero form).
func (c *Configuration) CalcFFEnergy() float64 {
	if c.params.JFf == 0 {
		return 0
	}
	var e float64
	for i := 0; i < c.lattice.V(); i++ {
		fi := float64(c.f[i]) - 0.5
		for _, j := range c.lattice.Neighbors(i) {
			if j > i {
				fj := float64(c.f[j]) - 0.5
				e += c.params.JFf * fi * fj
			}
		}
	}
	return e
}

// CalcED runs (or reuses a cached) dense symmetric eigendecomposition of H.
// If the cache already satisfies the request it is a no-op (§4.2).
func (c *Configuration) CalcED(needEvecs bool) error {
	if c.hamiltonian == nil {
		return fmt.Errorf("CalcED: %w: hamiltonian not built", ErrInvalidConfig)
	}
	if c.ed.status == edFull || (c.ed.status == edSpectrum && !needEvecs) {
		return nil
	}
	var es mat.EigenSym
	ok := es.Factorize(c.hamiltonian, needEvecs)
	if !ok {
		return fmt.Errorf("CalcED: %w", ErrEigensolverFailure)
	}
	spectrum := append([]float64(nil), es.Values(nil)...)
	for _, e := range spectrum {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return fmt.Errorf("CalcED: %w: non-finite eigenvalue", ErrEigensolverFailure)
		}
	}
	c.ed.spectrum = spectrum
	c.ed.status = edSpectrum
	if needEvecs {
		var evecs mat.Dense
		es.VectorsTo(&evecs)
		c.ed.evecs = &evecs
		c.ed.status = edFull
	}
	c.ed.logZ = stableLogZ(c.ed.spectrum, c.params.Beta)
	return nil
}

// stableLogZ computes logZ = Σ_k [log(w0 + exp(-beta*(e_k-e0))) - beta*e0]
// using the numerically stable form of §4.2, where e0 = min(spectrum) and
// w0 = exp(beta*e0). The log of the sum is taken in log-sum-exp form, so
// neither w0 nor the per-state weight is ever exponentiated on its own.
func stableLogZ(spectrum []float64, beta float64) float64 {
	e0 := spectrum[0]
	for _, e := range spectrum {
		if e < e0 {
			e0 = e
		}
	}
	logw0 := beta * e0
	var logz float64
	for _, e := range spectrum {
		hi, lo := logw0, -beta*(e-e0)
		if lo > hi {
			hi, lo = lo, hi
		}
		logz += hi + math.Log1p(math.Exp(lo-hi)) - logw0
	}
	return logz
}

// Spectrum returns the cached eigenvalue spectrum (nondecreasing), or nil if
// CalcED has not populated it.
func (c *Configuration) Spectrum() []float64 { return c.ed.spectrum }

// Evecs returns the cached eigenvectors (columns = eigenvectors), or nil
// unless CalcED(true) has populated the full cache.
func (c *Configuration) Evecs() *mat.Dense { return c.ed.evecs }

// LogZED returns the cached ED logZ. Valid only once CalcED has run.
func (c *Configuration) LogZED() float64 { return c.ed.logZ }

// HasSpectrum reports whether the ED cache holds at least the spectrum.
func (c *Configuration) HasSpectrum() bool { return c.ed.status >= edSpectrum }

// HasFullED reports whether the ED cache holds eigenvectors.
func (c *Configuration) HasFullED() bool { return c.ed.status == edFull }

// LogZCheb returns the cached Chebyshev-estimated logZ. Valid only once
// CalcChebyshev has run.
func (c *Configuration) LogZCheb() float64 { return c.cheb.logZ }

// HasChebLogZ reports whether the Chebyshev cache is populated.
func (c *Configuration) HasChebLogZ() bool { return c.cheb.status == chebLogZ }

// CalcChebyshev populates the Chebyshev cache (§4.3): it obtains e_min/e_max
// via a Lanczos extremal eigensolver, rescales H, builds a ChebEvaluator for
// the requested expansion order, computes moments via the three-term
// recurrence, and estimates logZ. A no-op if the cache is already populated.
// Returns ErrChebyshevDegenerate if the rescaled bandwidth collapses. The
// Chebyshev-backed moves treat this, like any other error, as a rejected
// proposal (weight 0); they do not fall back to CalcED.
func (c *Configuration) CalcChebyshev(nCheb int, seed *mat.VecDense) error {
	if c.cheb.status >= chebLogZ {
		return nil
	}
	if c.hamiltonian == nil {
		return fmt.Errorf("CalcChebyshev: %w: hamiltonian not built", ErrInvalidConfig)
	}
	eMin, eMax, err := lanczosExtremal(c.hamiltonian, seed)
	if err != nil {
		return err
	}
	ce, err := NewChebEvaluator(nCheb, c.params.Beta, c.lattice.V(), eMin, eMax)
	if err != nil {
		return err
	}
	moments := ChebyshevMoments(c.hamiltonian, ce.a, ce.b, nCheb)
	c.cheb = chebCache{
		status:  chebLogZ,
		eMin:    eMin,
		eMax:    eMax,
		a:       ce.a,
		b:       ce.b,
		moments: moments,
		logZ:    ce.EstimateLogZ(moments),
	}
	return nil
}
