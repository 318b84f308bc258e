// Package govi provides differentiable building blocks for variational
// inference on top of Gorgonia: graph-valued elementary and special
// functions, and extended operations used by the distribution package.
package govi

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Softplus computes log(1 + exp(x)) element-wise. The result is always
// positive, which makes Softplus the transform of choice for mapping an
// unconstrained parameter to a positive one.
func Softplus(x *G.Node) (*G.Node, error) {
	one := x.Graph().Constant(G.NewF64(1.0))

	ex, err := G.Exp(x)
	if err != nil {
		return nil, fmt.Errorf("softplus: %v", err)
	}

	sum := G.Must(G.Add(one, ex))
	return G.Log(sum)
}

// Clip clips the values of x element-wise to be within [min, max].
// The gradient is passed through for values strictly inside the
// interval and is zero outside it.
func Clip(x *G.Node, min, max float64) (*G.Node, error) {
	if min >= max {
		return nil, fmt.Errorf("clip: expected min < max but got [%v, %v]",
			min, max)
	}

	g := x.Graph()
	minNode := g.Constant(G.NewF64(min))
	maxNode := g.Constant(G.NewF64(max))

	// Mask out the three regions and sum their contributions
	belowMask, err := G.Lt(x, minNode, true)
	if err != nil {
		return nil, fmt.Errorf("clip: %v", err)
	}
	below := G.Must(G.HadamardProd(minNode, belowMask))

	aboveMask := G.Must(G.Gt(x, maxNode, true))
	above := G.Must(G.HadamardProd(maxNode, aboveMask))

	insideGte := G.Must(G.Gte(x, minNode, true))
	insideLte := G.Must(G.Lte(x, maxNode, true))
	insideMask := G.Must(G.HadamardProd(insideGte, insideLte))
	inside := G.Must(G.HadamardProd(x, insideMask))

	return G.ReduceAdd(G.Nodes{below, inside, above})
}

// Logit computes log(x / (1 - x)) element-wise, clipping x away from
// 0 and 1 first so the logs stay finite.
func Logit(x *G.Node) (*G.Node, error) {
	const eps = 1e-8

	p, err := Clip(x, eps, 1.0-eps)
	if err != nil {
		return nil, fmt.Errorf("logit: %v", err)
	}

	one := x.Graph().Constant(G.NewF64(1.0))
	return G.Sub(G.Must(G.Log(p)), G.Must(G.Log(G.Must(G.Sub(one, p)))))
}

// Lgamma computes log Γ(x) element-wise for positive x.
//
// Gorgonia has no differentiable special functions, so this uses a
// log/exp/polynomial approximation built from elementary operations,
// which keeps the result differentiable with respect to x. Accurate to
// roughly 1e-4 on the positive reals.
// http://www.machinedlearnings.com/2011/06/faster-lda.html
func Lgamma(x *G.Node) (*G.Node, error) {
	g := x.Graph()
	one := g.Constant(G.NewF64(1.0))
	two := g.Constant(G.NewF64(2.0))
	three := g.Constant(G.NewF64(3.0))
	coeff := g.Constant(G.NewF64(0.0833333))
	shift := g.Constant(G.NewF64(2.5))
	c := g.Constant(G.NewF64(-2.081061466))

	xp3, err := G.Add(three, x)
	if err != nil {
		return nil, fmt.Errorf("lgamma: %v", err)
	}

	// log(x (1+x) (2+x))
	logterm := G.Must(G.HadamardProd(x, G.Must(G.Add(one, x))))
	logterm = G.Must(G.HadamardProd(logterm, G.Must(G.Add(two, x))))
	logterm = G.Must(G.Log(logterm))

	out := G.Must(G.Sub(c, x))
	out = G.Must(G.Add(out, G.Must(G.HadamardProd(coeff,
		G.Must(G.Inverse(xp3))))))
	out = G.Must(G.Sub(out, logterm))
	out = G.Must(G.Add(out, G.Must(G.HadamardProd(
		G.Must(G.Add(shift, x)), G.Must(G.Log(xp3))))))

	return out, nil
}

// Digamma computes ψ(x), the derivative of log Γ(x), element-wise for
// positive x using the same elementary-function approximation family as
// Lgamma. Accurate to roughly 1e-4 on the positive reals.
func Digamma(x *G.Node) (*G.Node, error) {
	g := x.Graph()
	one := g.Constant(G.NewF64(1.0))
	two := g.Constant(G.NewF64(2.0))
	six := g.Constant(G.NewF64(6.0))
	twelve := g.Constant(G.NewF64(12.0))
	thirteen := g.Constant(G.NewF64(13.0))

	twopx, err := G.Add(two, x)
	if err != nil {
		return nil, fmt.Errorf("digamma: %v", err)
	}
	logterm := G.Must(G.Log(twopx))

	// (1 + 2x) / (x (1 + x))
	num := G.Must(G.Add(one, G.Must(G.HadamardProd(two, x))))
	den := G.Must(G.HadamardProd(x, G.Must(G.Add(one, x))))
	first := G.Must(G.HadamardProd(num, G.Must(G.Inverse(den))))

	// (13 + 6x) / (12 (2+x)²)
	num = G.Must(G.Add(thirteen, G.Must(G.HadamardProd(six, x))))
	den = G.Must(G.HadamardProd(twelve, G.Must(G.Square(twopx))))
	second := G.Must(G.HadamardProd(num, G.Must(G.Inverse(den))))

	out := G.Must(G.Sub(logterm, first))
	return G.Sub(out, second)
}

// Lbeta computes the log of the multivariate beta function of x,
// reducing along the last dimension: for a vector it returns a scalar
// and for a matrix it returns a vector with one entry per row.
func Lbeta(x *G.Node) (*G.Node, error) {
	lg, err := Lgamma(x)
	if err != nil {
		return nil, fmt.Errorf("lbeta: %v", err)
	}

	switch x.Dims() {
	case 1:
		sum := G.Must(G.Sum(x))
		lgSum, err := Lgamma(sum)
		if err != nil {
			return nil, fmt.Errorf("lbeta: %v", err)
		}
		return G.Sub(G.Must(G.Sum(lg)), lgSum)

	case 2:
		sum := G.Must(G.Sum(x, 1))
		lgSum, err := Lgamma(sum)
		if err != nil {
			return nil, fmt.Errorf("lbeta: %v", err)
		}
		return G.Sub(G.Must(G.Sum(lg, 1)), lgSum)

	default:
		return nil, fmt.Errorf("lbeta: expected a vector or matrix but got "+
			"%v dims", x.Dims())
	}
}

// CumProd computes the cumulative product of a matrix node along an
// axis.
func CumProd(x *G.Node, along int) (*G.Node, error) {
	if x.Dims() != 2 {
		return nil, fmt.Errorf("cumProd: expected a matrix but got %v dims",
			x.Dims())
	}
	if along != 0 && along != 1 {
		return nil, fmt.Errorf("cumProd: axis [%v] out of range for matrix",
			along)
	}

	n := x.Shape()[along]
	slabs := make([]*G.Node, n)
	var running *G.Node
	for i := 0; i < n; i++ {
		var s *G.Node
		var err error
		if along == 1 {
			s, err = G.Slice(x, nil, G.S(i))
		} else {
			s, err = G.Slice(x, G.S(i))
		}
		if err != nil {
			return nil, fmt.Errorf("cumProd: could not slice index %v: %v",
				i, err)
		}

		if i == 0 {
			running = s
		} else {
			running = G.Must(G.HadamardProd(running, s))
		}

		var shape []int
		if along == 1 {
			shape = []int{x.Shape()[0], 1}
		} else {
			shape = []int{1, x.Shape()[1]}
		}
		slabs[i] = G.Must(G.Reshape(running, shape))
	}

	return G.Concat(along, slabs...)
}
