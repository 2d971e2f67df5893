package continuum

import (
	"fmt"

	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/mat"
)

// Solver performs a weighted polynomial least-squares fit. Implementations
// must return coefficients in ascending powers minimizing
// sum_i w_i^2 (p(x_i) - y_i)^2, matching ordinary weighted polynomial
// regression to numerical precision.
type Solver interface {
	Fit(x, y, w []float64, order int) ([]float64, error)
}

// QRSolver solves the weighted Vandermonde system directly with a QR
// factorization. It is the default solver.
type QRSolver struct{}

// Fit builds the weighted Vandermonde matrix and solves the least-squares
// problem with gonum's QR decomposition.
func (QRSolver) Fit(x, y, w []float64, order int) ([]float64, error) {
	n := len(x)
	m := order + 1
	if len(y) != n || len(w) != n {
		return nil, fmt.Errorf("solver: mismatched input lengths %d/%d/%d", n, len(y), len(w))
	}
	if n < m {
		return nil, fmt.Errorf("solver: %d points cannot determine %d coefficients", n, m)
	}

	a := mat.NewDense(n, m, nil)
	b := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		p := 1.0
		for j := 0; j < m; j++ {
			a.Set(i, j, w[i]*p)
			p *= x[i]
		}
		b.SetVec(i, w[i]*y[i])
	}

	var qr mat.QR
	qr.Factorize(a)

	sol := mat.NewDense(m, 1, nil)
	if err := qr.SolveTo(sol, false, b); err != nil {
		return nil, fmt.Errorf("solver: qr solve failed: %w", err)
	}

	coeffs := make([]float64, m)
	for j := 0; j < m; j++ {
		coeffs[j] = sol.At(j, 0)
	}
	return coeffs, nil
}

// LMSolver fits the polynomial with the Levenberg-Marquardt algorithm and a
// numeric Jacobian, starting from zero coefficients. The objective is linear
// in the coefficients, so the iteration converges to the same weighted
// least-squares solution as QRSolver.
type LMSolver struct {
	// Tau scales the initial damping; 0 means 1e-6
	Tau float64

	// Eps1 and Eps2 are the gradient and step tolerances; 0 means 1e-8
	Eps1 float64
	Eps2 float64

	// Iterations bounds the iteration count; 0 means 100
	Iterations int

	// ObjectiveTol terminates on a small objective; 0 means 1e-16
	ObjectiveTol float64
}

// Fit minimizes the weighted residuals with lm.LM.
func (s LMSolver) Fit(x, y, w []float64, order int) ([]float64, error) {
	n := len(x)
	m := order + 1
	if len(y) != n || len(w) != n {
		return nil, fmt.Errorf("solver: mismatched input lengths %d/%d/%d", n, len(y), len(w))
	}
	if n < m {
		return nil, fmt.Errorf("solver: %d points cannot determine %d coefficients", n, m)
	}

	residuals := func(dst, coeffs []float64) {
		for i := 0; i < n; i++ {
			dst[i] = w[i] * (EvalPoly(coeffs, x[i]) - y[i])
		}
	}

	tau := s.Tau
	if tau == 0 {
		tau = 1e-6
	}
	eps1 := s.Eps1
	if eps1 == 0 {
		eps1 = 1e-8
	}
	eps2 := s.Eps2
	if eps2 == 0 {
		eps2 = 1e-8
	}
	iterations := s.Iterations
	if iterations == 0 {
		iterations = 100
	}
	objectiveTol := s.ObjectiveTol
	if objectiveTol == 0 {
		objectiveTol = 1e-16
	}

	numJac := lm.NumJac{Func: residuals}
	problem := lm.LMProblem{
		Dim:        m,
		Size:       n,
		Func:       residuals,
		Jac:        numJac.Jac,
		InitParams: make([]float64, m),
		Tau:        tau,
		Eps1:       eps1,
		Eps2:       eps2,
	}

	results, err := lm.LM(problem, &lm.Settings{Iterations: iterations, ObjectiveTol: objectiveTol})
	if err != nil {
		return nil, fmt.Errorf("solver: lm failed: %w", err)
	}

	coeffs := make([]float64, m)
	copy(coeffs, results.X)
	return coeffs, nil
}
