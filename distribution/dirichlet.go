package distribution

import (
	"fmt"

	"github.com/samuelfneumann/govi"
	"gonum.org/v1/gonum/stat/distmv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Dirichlet is a product of independent Dirichlet factors over a
// flattened latent vector:
//
//	p(x | params) = prod_{i=1}^d Dirichlet(x_i | alpha[i, :])
//
// where factor x_i is the K columns x[i*K : (i+1)*K].
type Dirichlet struct {
	base
	k int // dimension of each factor

	alpha    *G.Node
	alphaVal G.Value
}

// NewDirichlet returns a new Dirichlet with numFactors independent
// factors of dimension k each. Constructing a Dirichlet with k == 1
// returns ErrScalarSimplex.
//
// If alpha is nil, the concentration matrix of shape (numFactors, k)
// is self-initialized as a softplus transform of an unconstrained
// learnable matrix, keeping it positive.
func NewDirichlet(ctx *Context, numFactors, k int,
	alpha *G.Node) (*Dirichlet, error) {
	if numFactors < 1 {
		return nil, fmt.Errorf("newDirichlet: expected numFactors to be "+
			"> 0, got %v", numFactors)
	}
	if k == 1 {
		return nil, ErrScalarSimplex
	}
	if k < 1 {
		return nil, fmt.Errorf("newDirichlet: expected factor dimension "+
			"to be > 0, got %v", k)
	}

	if alpha == nil {
		alphaUnconst := G.NewMatrix(
			ctx.Graph(),
			tensor.Float64,
			G.WithShape(numFactors, k),
			G.WithInit(G.Gaussian(0, 1)),
			G.WithName(govi.UnixNano("dirichlet_alpha_unconst")),
		)

		var err error
		alpha, err = govi.Softplus(alphaUnconst)
		if err != nil {
			return nil, fmt.Errorf("newDirichlet: could not constrain "+
				"alpha: %v", err)
		}
	} else if err := checkParamMatrix(alpha, numFactors, k); err != nil {
		return nil, fmt.Errorf("newDirichlet: %v", err)
	}

	d := &Dirichlet{
		base:  newBase(ctx, numFactors, k*numFactors, k*numFactors, false),
		k:     k,
		alpha: alpha,
	}
	G.Read(d.alpha, &d.alphaVal)

	return d, nil
}

// K returns the dimension of each factor.
func (d *Dirichlet) K() int { return d.k }

func (d *Dirichlet) HasEntropy() bool { return true }

// Sample natively draws size rows and wraps them as a graph constant
// of shape (size, NumVars). The node is not differentiable.
func (d *Dirichlet) Sample(size int) (*G.Node, error) {
	t, err := d.Rand(size)
	if err != nil {
		return nil, fmt.Errorf("sample: %v", err)
	}

	return constNode(d.ctx, "dirichlet_sample", t), nil
}

// Rand natively draws size rows outside the graph. Each factor's
// K-dimensional slice of a row is one draw from that factor's
// Dirichlet.
func (d *Dirichlet) Rand(size int) (tensor.Tensor, error) {
	if size < 1 {
		return nil, fmt.Errorf("rand: expected size to be > 0, got %v", size)
	}

	alpha, err := materialized(d.alpha, d.alphaVal)
	if err != nil {
		return nil, fmt.Errorf("rand: %v", err)
	}

	backing := make([]float64, size*d.numVars)
	for i := 0; i < d.numFactors; i++ {
		dist := distmv.NewDirichlet(alpha[i*d.k:(i+1)*d.k],
			d.ctx.Source())
		for s := 0; s < size; s++ {
			row := s * d.numVars
			dist.Rand(backing[row+i*d.k : row+(i+1)*d.k])
		}
	}

	return tensor.NewDense(
		tensor.Float64,
		[]int{size, d.numVars},
		tensor.WithBacking(backing),
	), nil
}

// LogProbI returns the per-row joint Dirichlet log density of factor
// i, evaluated over that factor's K columns of xs:
// sum_j (α[i,j]-1) log(x[j]) - log B(α[i, :]).
func (d *Dirichlet) LogProbI(i int, xs *G.Node) (*G.Node, error) {
	if err := d.checkFactor(i); err != nil {
		return nil, err
	}
	if err := d.checkBatch(xs); err != nil {
		return nil, fmt.Errorf("logProbI: %v", err)
	}

	one := xs.Graph().Constant(G.NewF64(1.0))

	x, err := G.Slice(xs, nil, G.S(i*d.k, (i+1)*d.k))
	if err != nil {
		return nil, fmt.Errorf("logProbI: could not slice factor %v: %v",
			i, err)
	}
	alphai := G.Must(G.Slice(d.alpha, G.S(i)))

	weighted := G.Must(G.BroadcastHadamardProd(
		G.Must(G.Log(x)),
		G.Must(G.Sub(alphai, one)),
		nil, []byte{0},
	))
	out := G.Must(G.Sum(weighted, 1))

	lbeta, err := govi.Lbeta(alphai)
	if err != nil {
		return nil, fmt.Errorf("logProbI: %v", err)
	}

	return G.Sub(out, lbeta)
}

// Entropy returns the summed Dirichlet entropies across factors as a
// scalar node. Per factor with concentration α and α₀ = sum_j α[j]:
//
//	H = log B(α) + (α₀ - K)ψ(α₀) - sum_j (α[j]-1)ψ(α[j])
func (d *Dirichlet) Entropy() (*G.Node, error) {
	g := d.alpha.Graph()
	one := g.Constant(G.NewF64(1.0))
	k := g.Constant(G.NewF64(float64(d.k)))

	lbeta, err := govi.Lbeta(d.alpha)
	if err != nil {
		return nil, fmt.Errorf("entropy: %v", err)
	}

	alpha0 := G.Must(G.Sum(d.alpha, 1))
	mid := G.Must(G.HadamardProd(
		G.Must(G.Sub(alpha0, k)),
		G.Must(govi.Digamma(alpha0)),
	))

	last := G.Must(G.HadamardProd(
		G.Must(G.Sub(d.alpha, one)),
		G.Must(govi.Digamma(d.alpha)),
	))
	last = G.Must(G.Sum(last, 1))

	ent := G.Must(G.Add(lbeta, mid))
	ent = G.Must(G.Sub(ent, last))

	return G.Sum(ent)
}

func (d *Dirichlet) String() string {
	alpha, err := materialized(d.alpha, d.alphaVal)
	if err != nil {
		return "concentration vector:\n<not evaluated>"
	}

	return fmt.Sprintf("concentration vector:\n%v", alpha)
}
