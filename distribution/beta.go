package distribution

import (
	"fmt"

	"github.com/samuelfneumann/govi"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Beta is a product of independent Beta factors:
//
//	p(x | params) = prod_{i=1}^d Beta(x[i] | alpha[i], beta[i])
type Beta struct {
	base

	alpha    *G.Node
	alphaVal G.Value

	beta    *G.Node
	betaVal G.Value
}

// NewBeta returns a new Beta with numFactors independent factors. If
// alpha or beta is nil, the shape parameters are self-initialized as
// softplus transforms of unconstrained learnable vectors, keeping them
// positive.
func NewBeta(ctx *Context, numFactors int, alpha, beta *G.Node) (*Beta,
	error) {
	if numFactors < 1 {
		return nil, fmt.Errorf("newBeta: expected numFactors to be > 0, "+
			"got %v", numFactors)
	}

	var err error
	alpha, err = positiveParam(ctx, "beta_alpha", numFactors, alpha, 0)
	if err != nil {
		return nil, fmt.Errorf("newBeta: %v", err)
	}
	beta, err = positiveParam(ctx, "beta_beta", numFactors, beta, 0)
	if err != nil {
		return nil, fmt.Errorf("newBeta: %v", err)
	}

	b := &Beta{
		base:  newBase(ctx, numFactors, numFactors, 2*numFactors, false),
		alpha: alpha,
		beta:  beta,
	}
	G.Read(b.alpha, &b.alphaVal)
	G.Read(b.beta, &b.betaVal)

	return b, nil
}

func (b *Beta) HasEntropy() bool { return true }

// Sample natively draws size rows and wraps them as a graph constant
// of shape (size, NumVars). The node is not differentiable.
func (b *Beta) Sample(size int) (*G.Node, error) {
	t, err := b.Rand(size)
	if err != nil {
		return nil, fmt.Errorf("sample: %v", err)
	}

	return constNode(b.ctx, "beta_sample", t), nil
}

// Rand natively draws size rows outside the graph.
func (b *Beta) Rand(size int) (tensor.Tensor, error) {
	if size < 1 {
		return nil, fmt.Errorf("rand: expected size to be > 0, got %v", size)
	}

	alpha, err := materialized(b.alpha, b.alphaVal)
	if err != nil {
		return nil, fmt.Errorf("rand: %v", err)
	}
	beta, err := materialized(b.beta, b.betaVal)
	if err != nil {
		return nil, fmt.Errorf("rand: %v", err)
	}

	backing := make([]float64, size*b.numVars)
	for d := 0; d < b.numVars; d++ {
		dist := distuv.Beta{Alpha: alpha[d], Beta: beta[d],
			Src: b.ctx.Source()}
		for s := 0; s < size; s++ {
			backing[s*b.numVars+d] = dist.Rand()
		}
	}

	return tensor.NewDense(
		tensor.Float64,
		[]int{size, b.numVars},
		tensor.WithBacking(backing),
	), nil
}

// LogProbI returns the per-row Beta log density of factor i:
// (α-1) log(x) + (β-1) log(1-x) - log B(α, β).
func (b *Beta) LogProbI(i int, xs *G.Node) (*G.Node, error) {
	if err := b.checkFactor(i); err != nil {
		return nil, err
	}
	if err := b.checkBatch(xs); err != nil {
		return nil, fmt.Errorf("logProbI: %v", err)
	}

	one := xs.Graph().Constant(G.NewF64(1.0))

	x, err := G.Slice(xs, nil, G.S(i))
	if err != nil {
		return nil, fmt.Errorf("logProbI: could not slice factor %v: %v",
			i, err)
	}
	ai := G.Must(G.Slice(b.alpha, G.S(i)))
	bi := G.Must(G.Slice(b.beta, G.S(i)))

	first := G.Must(G.HadamardProd(
		G.Must(G.Sub(ai, one)),
		G.Must(G.Log(x)),
	))
	second := G.Must(G.HadamardProd(
		G.Must(G.Sub(bi, one)),
		G.Must(G.Log(G.Must(G.Sub(one, x)))),
	))

	// log B(α, β) = log Γ(α) + log Γ(β) - log Γ(α+β)
	lgA := G.Must(govi.Lgamma(ai))
	lgB := G.Must(govi.Lgamma(bi))
	lgAB := G.Must(govi.Lgamma(G.Must(G.Add(ai, bi))))
	lbeta := G.Must(G.Sub(G.Must(G.Add(lgA, lgB)), lgAB))

	out := G.Must(G.Add(first, second))
	return G.Sub(out, lbeta)
}

// Entropy returns the summed Beta entropies
//
//	sum_i log B(α,β) - (α-1)ψ(α) - (β-1)ψ(β) + (α+β-2)ψ(α+β)
//
// as a scalar node.
func (b *Beta) Entropy() (*G.Node, error) {
	g := b.alpha.Graph()
	one := g.Constant(G.NewF64(1.0))
	two := g.Constant(G.NewF64(2.0))

	sum := G.Must(G.Add(b.alpha, b.beta))

	lgA, err := govi.Lgamma(b.alpha)
	if err != nil {
		return nil, fmt.Errorf("entropy: %v", err)
	}
	lgB := G.Must(govi.Lgamma(b.beta))
	lgSum := G.Must(govi.Lgamma(sum))
	lbeta := G.Must(G.Sub(G.Must(G.Add(lgA, lgB)), lgSum))

	ent := G.Must(G.Sub(lbeta, G.Must(G.HadamardProd(
		G.Must(G.Sub(b.alpha, one)),
		G.Must(govi.Digamma(b.alpha)),
	))))
	ent = G.Must(G.Sub(ent, G.Must(G.HadamardProd(
		G.Must(G.Sub(b.beta, one)),
		G.Must(govi.Digamma(b.beta)),
	))))
	ent = G.Must(G.Add(ent, G.Must(G.HadamardProd(
		G.Must(G.Sub(sum, two)),
		G.Must(govi.Digamma(sum)),
	))))

	return G.Sum(ent)
}

func (b *Beta) String() string {
	alpha, errA := materialized(b.alpha, b.alphaVal)
	beta, errB := materialized(b.beta, b.betaVal)
	if errA != nil || errB != nil {
		return "shape:\n<not evaluated>\nscale:\n<not evaluated>"
	}

	return fmt.Sprintf("shape:\n%v\nscale:\n%v", alpha, beta)
}
