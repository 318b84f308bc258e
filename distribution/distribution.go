// Package distribution provides reparameterizable probability
// distributions and a layered variational posterior for gradient-based
// approximate Bayesian inference.
//
// Every distribution is a product of independent stochastic factors.
// Log densities and entropies are graph-valued so an external
// optimizer can differentiate them with respect to the distribution's
// parameters; parameter nodes are owned by the distribution but only
// ever mutated by that optimizer.
package distribution

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Distribution is a parameterized probability distribution
// p(x | params) over a vector of latent variables, factored into
// independent stochastic units. Shape metadata is fixed at
// construction and never mutated afterwards.
type Distribution interface {
	// NumFactors returns the number of independent stochastic factors.
	// A factor may be multivariate, such as one Dirichlet draw of
	// dimension K.
	NumFactors() int

	// NumVars returns the total number of scalar dimensions, which is
	// at least NumFactors.
	NumVars() int

	// NumParams returns the number of free parameters.
	NumParams() int

	// SampleTensor reports whether Sample returns a node that takes
	// part in a differentiable computation. When false, samples
	// are drawn natively and wrapped as constants, and composite
	// posteriors use placeholders fed out of band instead.
	SampleTensor() bool

	// HasRsample reports whether sampling goes through a
	// differentiable reparameterization of parameter-free noise.
	// Distributions with reparameterized samples also implement
	// Rsampler.
	HasRsample() bool

	// HasEntropy reports whether Entropy has a closed form.
	HasEntropy() bool

	// Sample returns a node of shape (size, NumVars) holding size
	// i.i.d. draws from the distribution under its current parameter
	// values.
	Sample(size int) (*G.Node, error)

	// Rand natively draws size i.i.d. samples outside the graph,
	// returning a realized tensor of shape (size, NumVars). Native
	// sampling requires the parameter values to be materialized, by
	// construction or by a prior graph evaluation.
	Rand(size int) (tensor.Tensor, error)

	// LogProbI returns the per-row log density contribution of factor
	// i only, for a batch xs of shape (batch, NumVars). For
	// multivariate factors this is the joint log density over that
	// factor's slice of columns. LogProbI returns an *IndexError when
	// i is outside [0, NumFactors).
	LogProbI(i int, xs *G.Node) (*G.Node, error)

	// Entropy returns a scalar node holding the entropy of the
	// product distribution, summed across factors. Distributions
	// without a closed form return ErrUnsupported.
	Entropy() (*G.Node, error)

	fmt.Stringer
}

// Rsampler is a Distribution whose samples are a differentiable
// deterministic transform of parameter-free noise:
//
//	eps = SampleNoise() ~ s(eps)
//	x   = Reparam(eps)  ~ p(x | params)
//
// This is the reparameterization trick; it lets gradients flow from a
// sample back into the parameters.
type Rsampler interface {
	Distribution

	// SampleNoise draws size rows of elementary noise, shape
	// (size, NumVars).
	SampleNoise(size int) (*G.Node, error)

	// Reparam deterministically transforms noise into samples from
	// the distribution, differentiably in the parameters.
	Reparam(eps *G.Node) (*G.Node, error)
}

// base carries the shape metadata shared by every distribution.
type base struct {
	ctx          *Context
	numFactors   int
	numVars      int
	numParams    int
	sampleTensor bool
}

func newBase(ctx *Context, numFactors, numVars, numParams int,
	sampleTensor bool) base {
	return base{
		ctx:          ctx,
		numFactors:   numFactors,
		numVars:      numVars,
		numParams:    numParams,
		sampleTensor: sampleTensor,
	}
}

func (b *base) NumFactors() int { return b.numFactors }

func (b *base) NumVars() int { return b.numVars }

func (b *base) NumParams() int { return b.numParams }

func (b *base) SampleTensor() bool { return b.sampleTensor }

func (b *base) HasRsample() bool { return false }

// checkFactor validates a factor index against the factor range.
func (b *base) checkFactor(i int) error {
	if i < 0 || i >= b.numFactors {
		return &IndexError{Index: i, NumFactors: b.numFactors}
	}

	return nil
}

// checkBatch validates that xs is a (batch, numVars) matrix.
func (b *base) checkBatch(xs *G.Node) error {
	if xs.Dims() != 2 {
		return fmt.Errorf("expected a batch matrix but got %v dims",
			xs.Dims())
	}
	if xs.Shape()[1] != b.numVars {
		return fmt.Errorf("expected batch with %v columns but got %v",
			b.numVars, xs.Shape()[1])
	}

	return nil
}
