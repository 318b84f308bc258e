package distribution

import (
	"fmt"

	"github.com/samuelfneumann/govi"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// InvGamma is a product of independent inverse-gamma factors:
//
//	p(x | params) = prod_{i=1}^d InvGamma(x[i] | alpha[i], beta[i])
type InvGamma struct {
	base

	alpha    *G.Node
	alphaVal G.Value

	beta    *G.Node
	betaVal G.Value
}

// NewInvGamma returns a new InvGamma with numFactors independent
// factors. If alpha or beta is nil, the parameters are
// self-initialized as softplus transforms of unconstrained learnable
// vectors shifted up by 0.01, keeping them away from the degenerate
// density near zero.
func NewInvGamma(ctx *Context, numFactors int, alpha,
	beta *G.Node) (*InvGamma, error) {
	if numFactors < 1 {
		return nil, fmt.Errorf("newInvGamma: expected numFactors to be "+
			"> 0, got %v", numFactors)
	}

	var err error
	alpha, err = positiveParam(ctx, "invgamma_alpha", numFactors, alpha,
		1e-2)
	if err != nil {
		return nil, fmt.Errorf("newInvGamma: %v", err)
	}
	beta, err = positiveParam(ctx, "invgamma_beta", numFactors, beta, 1e-2)
	if err != nil {
		return nil, fmt.Errorf("newInvGamma: %v", err)
	}

	ig := &InvGamma{
		base:  newBase(ctx, numFactors, numFactors, 2*numFactors, false),
		alpha: alpha,
		beta:  beta,
	}
	G.Read(ig.alpha, &ig.alphaVal)
	G.Read(ig.beta, &ig.betaVal)

	return ig, nil
}

func (ig *InvGamma) HasEntropy() bool { return true }

// Sample natively draws size rows and wraps them as a graph constant
// of shape (size, NumVars). The node is not differentiable.
func (ig *InvGamma) Sample(size int) (*G.Node, error) {
	t, err := ig.Rand(size)
	if err != nil {
		return nil, fmt.Errorf("sample: %v", err)
	}

	return constNode(ig.ctx, "invgamma_sample", t), nil
}

// Rand natively draws size rows outside the graph.
func (ig *InvGamma) Rand(size int) (tensor.Tensor, error) {
	if size < 1 {
		return nil, fmt.Errorf("rand: expected size to be > 0, got %v", size)
	}

	alpha, err := materialized(ig.alpha, ig.alphaVal)
	if err != nil {
		return nil, fmt.Errorf("rand: %v", err)
	}
	beta, err := materialized(ig.beta, ig.betaVal)
	if err != nil {
		return nil, fmt.Errorf("rand: %v", err)
	}

	backing := make([]float64, size*ig.numVars)
	for d := 0; d < ig.numVars; d++ {
		dist := distuv.InverseGamma{Alpha: alpha[d], Beta: beta[d],
			Src: ig.ctx.Source()}
		for s := 0; s < size; s++ {
			backing[s*ig.numVars+d] = dist.Rand()
		}
	}

	return tensor.NewDense(
		tensor.Float64,
		[]int{size, ig.numVars},
		tensor.WithBacking(backing),
	), nil
}

// LogProbI returns the per-row inverse-gamma log density of factor i:
// α log(β) - log Γ(α) - (α+1) log(x) - β/x.
func (ig *InvGamma) LogProbI(i int, xs *G.Node) (*G.Node, error) {
	if err := ig.checkFactor(i); err != nil {
		return nil, err
	}
	if err := ig.checkBatch(xs); err != nil {
		return nil, fmt.Errorf("logProbI: %v", err)
	}

	one := xs.Graph().Constant(G.NewF64(1.0))

	x, err := G.Slice(xs, nil, G.S(i))
	if err != nil {
		return nil, fmt.Errorf("logProbI: could not slice factor %v: %v",
			i, err)
	}
	ai := G.Must(G.Slice(ig.alpha, G.S(i)))
	bi := G.Must(G.Slice(ig.beta, G.S(i)))

	out := G.Must(G.HadamardProd(ai, G.Must(G.Log(bi))))
	out = G.Must(G.Sub(out, G.Must(govi.Lgamma(ai))))
	out = G.Must(G.Sub(out, G.Must(G.HadamardProd(
		G.Must(G.Add(ai, one)),
		G.Must(G.Log(x)),
	))))
	out = G.Must(G.Sub(out, G.Must(G.HadamardProd(bi,
		G.Must(G.Inverse(x))))))

	return out, nil
}

// Entropy returns the summed inverse-gamma entropies
// sum_i α + log(β) + log Γ(α) - (1+α)ψ(α) as a scalar node.
func (ig *InvGamma) Entropy() (*G.Node, error) {
	one := ig.alpha.Graph().Constant(G.NewF64(1.0))

	lg, err := govi.Lgamma(ig.alpha)
	if err != nil {
		return nil, fmt.Errorf("entropy: %v", err)
	}
	dg := G.Must(govi.Digamma(ig.alpha))

	ent := G.Must(G.Add(ig.alpha, G.Must(G.Log(ig.beta))))
	ent = G.Must(G.Add(ent, lg))
	ent = G.Must(G.Sub(ent, G.Must(G.HadamardProd(
		G.Must(G.Add(one, ig.alpha)), dg))))

	return G.Sum(ent)
}

func (ig *InvGamma) String() string {
	alpha, errA := materialized(ig.alpha, ig.alphaVal)
	beta, errB := materialized(ig.beta, ig.betaVal)
	if errA != nil || errB != nil {
		return "shape:\n<not evaluated>\nscale:\n<not evaluated>"
	}

	return fmt.Sprintf("shape:\n%v\nscale:\n%v", alpha, beta)
}
