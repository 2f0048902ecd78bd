package anova

import (
	"math"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

// FDistribution evaluates the Fisher–Snedecor distribution for continuous
// degrees of freedom. Implementations must be safe for concurrent use.
type FDistribution interface {
	// CDF returns P(X <= x) for X ~ F(dfn, dfd).
	CDF(x, dfn, dfd float64) float64
	// InvCDF returns the x with CDF(x, dfn, dfd) == p.
	InvCDF(p, dfn, dfd float64) float64
}

// GonumF is the gonum-backed FDistribution. It holds no state.
type GonumF struct{}

// CDF returns the cumulative probability at x. Non-positive x maps to 0.
func (GonumF) CDF(x, dfn, dfd float64) float64 {
	switch {
	case math.IsNaN(x):
		return math.NaN()
	case x <= 0:
		return 0
	case math.IsInf(x, 1):
		return 1
	}
	return distuv.F{D1: dfn, D2: dfd}.CDF(x)
}

// InvCDF inverts CDF through the regularized incomplete beta function:
// if y = I⁻¹(p; dfn/2, dfd/2) then x = dfd·y / (dfn·(1−y)).
func (GonumF) InvCDF(p, dfn, dfd float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0 || p > 1:
		return math.NaN()
	case p == 0:
		return 0
	case p == 1:
		return math.Inf(1)
	}
	y := mathext.InvRegIncBeta(dfn/2, dfd/2, p)
	return dfd * y / (dfn * (1 - y))
}
