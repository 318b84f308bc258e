package distribution

import (
	"fmt"

	"github.com/samuelfneumann/govi"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Bernoulli is a product of independent Bernoulli factors:
//
//	p(x | params) = prod_{i=1}^d Bernoulli(x[i] | p[i])
type Bernoulli struct {
	base

	p    *G.Node
	pVal G.Value
}

// NewBernoulli returns a new Bernoulli with numFactors independent
// factors. If p is nil, the probabilities are self-initialized as a
// sigmoid transform of an unconstrained learnable vector, keeping each
// probability in (0, 1).
func NewBernoulli(ctx *Context, numFactors int, p *G.Node) (*Bernoulli,
	error) {
	if numFactors < 1 {
		return nil, fmt.Errorf("newBernoulli: expected numFactors to be "+
			"> 0, got %v", numFactors)
	}

	if p == nil {
		pUnconst := G.NewVector(
			ctx.Graph(),
			tensor.Float64,
			G.WithShape(numFactors),
			G.WithInit(G.Gaussian(0, 1)),
			G.WithName(govi.UnixNano("bernoulli_p_unconst")),
		)

		var err error
		p, err = G.Sigmoid(pUnconst)
		if err != nil {
			return nil, fmt.Errorf("newBernoulli: could not constrain p: %v",
				err)
		}
	} else if err := checkParamVector(p, numFactors); err != nil {
		return nil, fmt.Errorf("newBernoulli: %v", err)
	}

	b := &Bernoulli{
		base: newBase(ctx, numFactors, numFactors, numFactors, false),
		p:    p,
	}
	G.Read(b.p, &b.pVal)

	return b, nil
}

func (b *Bernoulli) HasEntropy() bool { return true }

// Sample natively draws size rows and wraps them as a graph constant
// of shape (size, NumVars). The node is not differentiable.
func (b *Bernoulli) Sample(size int) (*G.Node, error) {
	t, err := b.Rand(size)
	if err != nil {
		return nil, fmt.Errorf("sample: %v", err)
	}

	return constNode(b.ctx, "bernoulli_sample", t), nil
}

// Rand natively draws size rows outside the graph.
func (b *Bernoulli) Rand(size int) (tensor.Tensor, error) {
	if size < 1 {
		return nil, fmt.Errorf("rand: expected size to be > 0, got %v", size)
	}

	p, err := materialized(b.p, b.pVal)
	if err != nil {
		return nil, fmt.Errorf("rand: %v", err)
	}

	backing := make([]float64, size*b.numVars)
	for d := 0; d < b.numVars; d++ {
		dist := distuv.Bernoulli{P: p[d], Src: b.ctx.Source()}
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

// LogProbI returns the per-row Bernoulli log pmf of factor i:
// x log(p) + (1-x) log(1-p).
func (b *Bernoulli) LogProbI(i int, xs *G.Node) (*G.Node, error) {
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
	pi := G.Must(G.Slice(b.p, G.S(i)))

	logp := G.Must(G.Log(pi))
	log1mp := G.Must(G.Log(G.Must(G.Sub(one, pi))))

	first := G.Must(G.HadamardProd(x, logp))
	second := G.Must(G.HadamardProd(G.Must(G.Sub(one, x)), log1mp))

	return G.Add(first, second)
}

// Entropy returns the summed binary entropies
// -sum_i p[i] log(p[i]) + (1-p[i]) log(1-p[i]) as a scalar node.
func (b *Bernoulli) Entropy() (*G.Node, error) {
	one := b.p.Graph().Constant(G.NewF64(1.0))

	logp, err := G.Log(b.p)
	if err != nil {
		return nil, fmt.Errorf("entropy: %v", err)
	}
	oneMinus := G.Must(G.Sub(one, b.p))
	log1mp := G.Must(G.Log(oneMinus))

	ent := G.Must(G.Add(
		G.Must(G.HadamardProd(b.p, logp)),
		G.Must(G.HadamardProd(oneMinus, log1mp)),
	))

	return G.Neg(G.Must(G.Sum(ent)))
}

func (b *Bernoulli) String() string {
	p, err := materialized(b.p, b.pVal)
	if err != nil {
		return "probability:\n<not evaluated>"
	}

	return fmt.Sprintf("probability:\n%v", p)
}
