package distribution

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/govi"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Normal is a product of independent univariate normal factors:
//
//	p(x | params) = prod_{i=1}^d Normal(x[i] | loc[i], scale[i])
//
// Normal is the only distribution here with reparameterized sampling:
// a draw is loc + eps*scale for standard normal noise eps, so
// gradients flow from samples back into loc and scale.
type Normal struct {
	base

	loc    *G.Node
	locVal G.Value

	scale    *G.Node
	scaleVal G.Value
}

// NewNormal returns a new Normal with numFactors independent factors.
// If loc or scale is nil, it is self-initialized as a learnable node:
// loc unconstrained, scale a softplus transform of an unconstrained
// vector so it stays positive.
func NewNormal(ctx *Context, numFactors int, loc,
	scale *G.Node) (*Normal, error) {
	if numFactors < 1 {
		return nil, fmt.Errorf("newNormal: expected numFactors to be > 0, "+
			"got %v", numFactors)
	}

	if loc == nil {
		loc = G.NewVector(
			ctx.Graph(),
			tensor.Float64,
			G.WithShape(numFactors),
			G.WithInit(G.Gaussian(0, 1)),
			G.WithName(govi.UnixNano("normal_loc")),
		)
	} else if err := checkParamVector(loc, numFactors); err != nil {
		return nil, fmt.Errorf("newNormal: %v", err)
	}

	if scale == nil {
		scaleUnconst := G.NewVector(
			ctx.Graph(),
			tensor.Float64,
			G.WithShape(numFactors),
			G.WithInit(G.Gaussian(0, 1)),
			G.WithName(govi.UnixNano("normal_scale_unconst")),
		)

		var err error
		scale, err = govi.Softplus(scaleUnconst)
		if err != nil {
			return nil, fmt.Errorf("newNormal: could not constrain scale: %v",
				err)
		}
	} else if err := checkParamVector(scale, numFactors); err != nil {
		return nil, fmt.Errorf("newNormal: %v", err)
	}

	n := &Normal{
		base:  newBase(ctx, numFactors, numFactors, 2*numFactors, true),
		loc:   loc,
		scale: scale,
	}

	G.Read(n.loc, &n.locVal)
	G.Read(n.scale, &n.scaleVal)

	return n, nil
}

func (n *Normal) HasRsample() bool { return true }

func (n *Normal) HasEntropy() bool { return true }

// SampleNoise draws size rows of standard normal noise, resampled on
// every graph evaluation.
func (n *Normal) SampleNoise(size int) (*G.Node, error) {
	if size < 1 {
		return nil, fmt.Errorf("sampleNoise: expected size to be > 0, "+
			"got %v", size)
	}

	zero := constVector(n.ctx, "std_normal_loc", make([]float64, n.numVars))
	one := constVector(n.ctx, "std_normal_scale", ones64(n.numVars))

	eps, err := NormalRand(n.ctx, zero, one, size)
	if err != nil {
		return nil, fmt.Errorf("sampleNoise: %v", err)
	}

	return eps, nil
}

// Reparam transforms standard normal noise of shape (size, NumVars)
// into draws from the receiver: loc + eps*scale.
func (n *Normal) Reparam(eps *G.Node) (*G.Node, error) {
	if err := n.checkBatch(eps); err != nil {
		return nil, fmt.Errorf("reparam: %v", err)
	}

	batchDim := []byte{0}
	x, err := G.BroadcastHadamardProd(eps, n.scale, nil, batchDim)
	if err != nil {
		return nil, fmt.Errorf("reparam: %v", err)
	}

	return G.BroadcastAdd(x, n.loc, nil, batchDim)
}

// Sample returns size reparameterized draws of shape (size, NumVars).
// The returned node is differentiable with respect to loc and scale.
func (n *Normal) Sample(size int) (*G.Node, error) {
	eps, err := n.SampleNoise(size)
	if err != nil {
		return nil, fmt.Errorf("sample: %v", err)
	}

	return n.Reparam(eps)
}

// Rand natively draws size rows outside the graph.
func (n *Normal) Rand(size int) (tensor.Tensor, error) {
	if size < 1 {
		return nil, fmt.Errorf("rand: expected size to be > 0, got %v", size)
	}

	loc, err := materialized(n.loc, n.locVal)
	if err != nil {
		return nil, fmt.Errorf("rand: %v", err)
	}
	scale, err := materialized(n.scale, n.scaleVal)
	if err != nil {
		return nil, fmt.Errorf("rand: %v", err)
	}

	backing := make([]float64, size*n.numVars)
	for d := 0; d < n.numVars; d++ {
		dist := distuv.Normal{Mu: loc[d], Sigma: scale[d],
			Src: n.ctx.Source()}
		for s := 0; s < size; s++ {
			backing[s*n.numVars+d] = dist.Rand()
		}
	}

	return tensor.NewDense(
		tensor.Float64,
		[]int{size, n.numVars},
		tensor.WithBacking(backing),
	), nil
}

// LogProbI returns the per-row Gaussian log density of factor i.
func (n *Normal) LogProbI(i int, xs *G.Node) (*G.Node, error) {
	if err := n.checkFactor(i); err != nil {
		return nil, err
	}
	if err := n.checkBatch(xs); err != nil {
		return nil, fmt.Errorf("logProbI: %v", err)
	}

	g := xs.Graph()
	negativeHalf := g.Constant(G.NewF64(-0.5))
	lnRootTwoPi := g.Constant(G.NewF64(math.Log(math.Sqrt(math.Pi * 2.))))

	x, err := G.Slice(xs, nil, G.S(i))
	if err != nil {
		return nil, fmt.Errorf("logProbI: could not slice factor %v: %v",
			i, err)
	}
	loci := G.Must(G.Slice(n.loc, G.S(i)))
	scalei := G.Must(G.Slice(n.scale, G.S(i)))

	x = G.Must(G.Sub(x, loci))
	x = G.Must(G.HadamardDiv(x, scalei))
	x = G.Must(G.Square(x))
	x = G.Must(G.HadamardProd(negativeHalf, x))
	x = G.Must(G.Sub(x, G.Must(G.Log(scalei))))
	x = G.Must(G.Sub(x, lnRootTwoPi))

	return x, nil
}

// Entropy returns the summed Gaussian entropies
// sum_i 0.5 log(2πe scale[i]²) as a scalar node.
func (n *Normal) Entropy() (*G.Node, error) {
	g := n.scale.Graph()
	half := g.Constant(G.NewF64(0.5))
	twoPi := g.Constant(G.NewF64(math.Pi * 2.0))

	entropy, err := G.Square(n.scale)
	if err != nil {
		return nil, fmt.Errorf("entropy: %v", err)
	}
	entropy = G.Must(G.HadamardProd(entropy, twoPi))
	entropy = G.Must(G.Log(entropy))
	entropy = G.Must(G.HadamardProd(half, entropy))
	entropy = G.Must(G.Add(entropy, half))

	return G.Sum(entropy)
}

// Cdf returns the per-element cumulative distribution of a batch xs of
// shape (batch, NumVars).
func (n *Normal) Cdf(xs *G.Node) (*G.Node, error) {
	if err := n.checkBatch(xs); err != nil {
		return nil, fmt.Errorf("cdf: %v", err)
	}

	g := xs.Graph()
	rootTwo := g.Constant(G.NewF64(math.Sqrt(2.0)))
	one := g.Constant(G.NewF64(1.0))
	half := g.Constant(G.NewF64(0.5))

	batchDim := []byte{0}
	x, err := G.BroadcastSub(xs, n.loc, nil, batchDim)
	if err != nil {
		return nil, fmt.Errorf("cdf: %v", err)
	}
	x = G.Must(G.BroadcastHadamardDiv(x, n.scale, nil, batchDim))
	x = G.Must(G.HadamardDiv(x, rootTwo))

	x, err = govi.Erf(x)
	if err != nil {
		return nil, fmt.Errorf("cdf: %v", err)
	}
	x = G.Must(G.Add(one, x))
	x = G.Must(G.HadamardProd(half, x))

	return x, nil
}

// Mean returns the mean of each factor.
func (n *Normal) Mean() *G.Node { return n.loc }

// StdDev returns the standard deviation of each factor.
func (n *Normal) StdDev() *G.Node { return n.scale }

// Variance returns the variance of each factor.
func (n *Normal) Variance() *G.Node {
	return G.Must(G.Square(n.scale))
}

func (n *Normal) String() string {
	loc, errLoc := materialized(n.loc, n.locVal)
	scale, errScale := materialized(n.scale, n.scaleVal)
	if errLoc != nil || errScale != nil {
		return "mean:\n<not evaluated>\nstd dev:\n<not evaluated>"
	}

	return fmt.Sprintf("mean:\n%v\nstd dev:\n%v", loc, scale)
}
