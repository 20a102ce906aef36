package fkmc

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// RandomSeedVector builds a random starting vector for the Lanczos
// extremal eigensolver, drawn from rng so that Chebyshev-backed moves stay
// reproducible under a given PartitionedRNG subsystem.
func RandomSeedVector(v int, rng *rand.Rand) *mat.VecDense {
	data := make([]float64, v)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return mat.NewVecDense(v, data)
}

// chebDegenerateTolerance is the minimum half-bandwidth a = (e_max - e_min)/2
// below which the Chebyshev expansion is considered degenerate (§4.3).
const chebDegenerateTolerance = 1e-8

// ChebEvaluator is pure-function machinery for expanding φ(ω) =
// V·log(1+exp(-beta*(a*ω+b))) on Chebyshev polynomials of a rescaled
// operator X = (H-b*I)/a whose spectrum lies in [-1,1] (§4.3).
//
// The coefficients c_n depend only on (beta, V, e_min, e_max), not on f.
// CalcChebyshev nevertheless builds a fresh evaluator on every cache miss;
// evaluators are not shared across configurations or proposals.
type ChebEvaluator struct {
	nCheb    int
	gridSize int
	beta     float64
	v        int
	a, b     float64
	coeffs   []float64 // c_0..c_{nCheb-1}
}

// ChebSize returns N_cheb = ceil(prefactor * log(V)), rounded up to even
// (§4.3 Design decisions).
func ChebSize(prefactor float64, v int) int {
	n := int(math.Ceil(prefactor * math.Log(float64(v))))
	if n%2 != 0 {
		n++
	}
	if n < 2 {
		n = 2
	}
	return n
}

// NewChebEvaluator builds a ChebEvaluator for the rescaling (a,b), caching
// Chebyshev coefficients of φ on a grid of size max(2*nCheb, 10). Returns
// ErrChebyshevDegenerate if the rescaled bandwidth a is below tolerance.
func NewChebEvaluator(nCheb int, beta float64, v int, eMin, eMax float64) (*ChebEvaluator, error) {
	a := (eMax - eMin) / 2
	b := (eMax + eMin) / 2
	if a < chebDegenerateTolerance {
		return nil, fmt.Errorf("chebyshev rescale: %w", ErrChebyshevDegenerate)
	}
	gridSize := 2 * nCheb
	if gridSize < 10 {
		gridSize = 10
	}
	ce := &ChebEvaluator{nCheb: nCheb, gridSize: gridSize, beta: beta, v: v, a: a, b: b}
	ce.coeffs = ce.computeCoeffs()
	return ce, nil
}

func (ce *ChebEvaluator) phi(omega float64) float64 {
	return float64(ce.v) * math.Log(1+math.Exp(-ce.beta*(ce.a*omega+ce.b)))
}

// computeCoeffs evaluates the Chebyshev coefficient quadrature
// c_n = (1/N) Σ_j φ(cos θ_j) cos(n θ_j), θ_j = π(j+1/2)/N, on gridSize nodes
// (§4.3 "Grid size for coefficient evaluation"). With EstimateLogZ's
// weights (1 for n=0, 2 for n≥1) this reproduces the standard expansion
// φ = a_0/2 + Σ_{n≥1} a_n T_n, a_n = (2/N) Σ_j φ(cos θ_j) cos(n θ_j).
func (ce *ChebEvaluator) computeCoeffs() []float64 {
	n := ce.gridSize
	coeffs := make([]float64, ce.nCheb)
	for k := 0; k < ce.nCheb; k++ {
		var s float64
		for j := 0; j < n; j++ {
			theta := math.Pi * (float64(j) + 0.5) / float64(n)
			s += ce.phi(math.Cos(theta)) * math.Cos(float64(k)*theta)
		}
		coeffs[k] = s / float64(n)
	}
	return coeffs
}

// Moment returns the cached coefficient c_n (the "cheb.moment(phi, n)" of
// §4.3).
func (ce *ChebEvaluator) Moment(n int) float64 { return ce.coeffs[n] }

// NCheb returns the expansion order.
func (ce *ChebEvaluator) NCheb() int { return ce.nCheb }

// EstimateLogZ evaluates logZ ≈ Σ_n c_n·μ_n from moments μ_n = tr(T_n(X))/V
// of the rescaled Hamiltonian, with the factor-2 rule of §4.3: n=0 has
// weight 1, n≥1 has weight 2.
func (ce *ChebEvaluator) EstimateLogZ(moments []float64) float64 {
	logz := ce.coeffs[0] * moments[0]
	for n := 1; n < len(moments) && n < len(ce.coeffs); n++ {
		logz += 2 * ce.coeffs[n] * moments[n]
	}
	return logz
}

// ChebyshevMoments builds the rescaled operator X = (H-b*I)/a and computes
// moments μ_n = tr(T_n(X))/V for n=0..nCheb-1 via the three-term recurrence
// T_0=I, T_1=X, T_{n+1} = 2X·T_n - T_{n-1} (§4.3). A dense representation is
// used for the recurrence — see DESIGN.md for why no sparse matrix type is
// used.
func ChebyshevMoments(h *mat.SymDense, a, b float64, nCheb int) []float64 {
	v := h.SymmetricDim()
	x := mat.NewDense(v, v, nil)
	for i := 0; i < v; i++ {
		for j := 0; j < v; j++ {
			val := h.At(i, j)
			if i == j {
				val -= b
			}
			x.Set(i, j, val/a)
		}
	}

	moments := make([]float64, nCheb)
	t0 := identity(v)
	moments[0] = traceOf(t0) / float64(v)
	if nCheb == 1 {
		return moments
	}
	t1 := mat.NewDense(v, v, nil)
	t1.Copy(x)
	moments[1] = traceOf(t1) / float64(v)

	for n := 2; n < nCheb; n++ {
		var xt1 mat.Dense
		xt1.Mul(x, t1)
		tNext := mat.NewDense(v, v, nil)
		tNext.Scale(2, &xt1)
		tNext.Sub(tNext, t0)
		moments[n] = traceOf(tNext) / float64(v)
		t0 = t1
		t1 = tNext
	}
	return moments
}

func identity(n int) *mat.Dense {
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		d.Set(i, i, 1)
	}
	return d
}

func traceOf(m *mat.Dense) float64 {
	r, _ := m.Dims()
	var s float64
	for i := 0; i < r; i++ {
		s += m.At(i, i)
	}
	return s
}

// lanczosExtremal estimates the smallest and largest eigenvalues of h using
// a Lanczos tridiagonalization of order m = min(v, maxLanczosIter), reading
// the extremal eigenvalues off the small resulting tridiagonal matrix (§4.3
// "sparse symmetric Lanczos-style extremal eigensolver"). Operates purely
// through matrix-vector products so it generalizes to a sparse H without
// change, even though the in-repo Hamiltonian is stored densely (see
// DESIGN.md).
func lanczosExtremal(h *mat.SymDense, seed *mat.VecDense) (eMin, eMax float64, err error) {
	v := h.SymmetricDim()
	m := maxLanczosIter
	if m > v {
		m = v
	}
	if m < 1 {
		return 0, 0, fmt.Errorf("lanczos: %w: empty matrix", ErrEigensolverFailure)
	}

	alpha := make([]float64, 0, m)
	beta := make([]float64, 0, m)

	qPrev := mat.NewVecDense(v, nil)
	q := mat.NewVecDense(v, nil)
	q.CopyVec(seed)
	normalizeVec(q)

	for j := 0; j < m; j++ {
		var hq mat.VecDense
		hq.MulVec(h, q)
		a := mat.Dot(q, &hq)
		alpha = append(alpha, a)

		var w mat.VecDense
		w.AddScaledVec(&hq, -a, q)
		w.AddScaledVec(&w, -lastOrZero(beta), qPrev)

		bNext := vecNorm(&w)
		if bNext < 1e-12 || j == m-1 {
			break
		}
		beta = append(beta, bNext)

		qPrev = q
		qNext := mat.NewVecDense(v, nil)
		qNext.ScaleVec(1/bNext, &w)
		q = qNext
	}

	tri := mat.NewSymDense(len(alpha), nil)
	for i, a := range alpha {
		tri.SetSym(i, i, a)
	}
	for i, b := range beta {
		tri.SetSym(i, i+1, b)
	}

	var es mat.EigenSym
	if !es.Factorize(tri, false) {
		return 0, 0, fmt.Errorf("lanczos: %w", ErrEigensolverFailure)
	}
	values := es.Values(nil)
	return values[0], values[len(values)-1], nil
}

const maxLanczosIter = 60

func lastOrZero(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[len(xs)-1]
}

func vecNorm(v *mat.VecDense) float64 {
	var s float64
	n := v.Len()
	for i := 0; i < n; i++ {
		x := v.AtVec(i)
		s += x * x
	}
	return math.Sqrt(s)
}

func normalizeVec(v *mat.VecDense) {
	n := vecNorm(v)
	if n > 0 {
		v.ScaleVec(1/n, v)
	}
}
