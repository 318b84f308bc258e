package distribution

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/govi"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Multinomial is a product of independent single-trial multinomial
// factors over a flattened latent vector:
//
//	p(x | params) = prod_{i=1}^d Multinomial(x_i | pi[i, :])
//
// where factor x_i is the K columns x[i*K : (i+1)*K], holding a
// one-hot draw. Each factor assumes a single trial (n=1) when sampling
// and calculating the density.
type Multinomial struct {
	base
	k int // dimension of each factor

	pi    *G.Node
	piVal G.Value
}

// NewMultinomial returns a new Multinomial with numFactors independent
// single-trial factors over a K-dimensional simplex each.
// Constructing a Multinomial with k == 1 returns ErrScalarSimplex.
//
// If pi is nil, the probability matrix of shape (numFactors, k) is
// self-initialized by a stick-breaking transform of an unconstrained
// learnable (numFactors, k-1) matrix: each row is mapped through
// sigmoids with index-dependent logit offsets -log(K-1-j) and a
// cumulative product, yielding a valid point on the simplex.
func NewMultinomial(ctx *Context, numFactors, k int,
	pi *G.Node) (*Multinomial, error) {
	if numFactors < 1 {
		return nil, fmt.Errorf("newMultinomial: expected numFactors to be "+
			"> 0, got %v", numFactors)
	}
	if k == 1 {
		return nil, ErrScalarSimplex
	}
	if k < 1 {
		return nil, fmt.Errorf("newMultinomial: expected factor dimension "+
			"to be > 0, got %v", k)
	}

	if pi == nil {
		free := G.NewMatrix(
			ctx.Graph(),
			tensor.Float64,
			G.WithShape(numFactors, k-1),
			G.WithInit(G.Gaussian(0, 1)),
			G.WithName(govi.UnixNano("multinomial_pi_unconst")),
		)

		var err error
		pi, err = stickBreaking(ctx, free, k)
		if err != nil {
			return nil, fmt.Errorf("newMultinomial: %v", err)
		}
	} else if err := checkParamMatrix(pi, numFactors, k); err != nil {
		return nil, fmt.Errorf("newMultinomial: %v", err)
	}

	m := &Multinomial{
		base: newBase(ctx, numFactors, k*numFactors, k*numFactors, false),
		k:    k,
		pi:   pi,
	}
	G.Read(m.pi, &m.piVal)

	return m, nil
}

// stickBreaking maps an unconstrained (numFactors, k-1) matrix free to
// a (numFactors, k) matrix whose rows are points on the K-simplex. For
// each row:
//
//	x_j = sigmoid(free_j - log(K-1-j))    j = 0..K-2
//	pil = [x_0, ..., x_{K-2}, 1]
//	piu = [1, 1-x_0, ..., 1-x_{K-2}]
//	pi  = cumprod(piu) ⊙ pil
func stickBreaking(ctx *Context, free *G.Node, k int) (*G.Node, error) {
	g := ctx.Graph()
	one := g.Constant(G.NewF64(1.0))

	numFactors := free.Shape()[0]

	offsets := make([]float64, k-1)
	for j := range offsets {
		offsets[j] = -math.Log(float64(k - 1 - j))
	}
	eq := constVector(ctx, "multinomial_logit_offset", offsets)

	x, err := G.BroadcastAdd(free, eq, nil, []byte{0})
	if err != nil {
		return nil, fmt.Errorf("stickBreaking: %v", err)
	}
	x = G.Must(G.Sigmoid(x))

	onesCol := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(numFactors, 1),
		G.WithValue(tensor.NewDense(
			tensor.Float64,
			[]int{numFactors, 1},
			tensor.WithBacking(ones64(numFactors)),
		)),
		G.WithName(govi.UnixNano("multinomial_stick_ones")),
	)

	pil := G.Must(G.Concat(1, x, onesCol))
	piu := G.Must(G.Concat(1, onesCol, G.Must(G.Sub(one, x))))

	cum, err := govi.CumProd(piu, 1)
	if err != nil {
		return nil, fmt.Errorf("stickBreaking: %v", err)
	}

	return G.HadamardProd(cum, pil)
}

// K returns the dimension of each factor.
func (m *Multinomial) K() int { return m.k }

func (m *Multinomial) HasEntropy() bool { return true }

// Sample natively draws size rows and wraps them as a graph constant
// of shape (size, NumVars). The node is not differentiable.
func (m *Multinomial) Sample(size int) (*G.Node, error) {
	t, err := m.Rand(size)
	if err != nil {
		return nil, fmt.Errorf("sample: %v", err)
	}

	return constNode(m.ctx, "multinomial_sample", t), nil
}

// Rand natively draws size rows outside the graph. Each factor's
// K-dimensional slice of a row is a one-hot single-trial draw.
func (m *Multinomial) Rand(size int) (tensor.Tensor, error) {
	if size < 1 {
		return nil, fmt.Errorf("rand: expected size to be > 0, got %v", size)
	}

	pi, err := materialized(m.pi, m.piVal)
	if err != nil {
		return nil, fmt.Errorf("rand: %v", err)
	}

	backing := make([]float64, size*m.numVars)
	for i := 0; i < m.numFactors; i++ {
		dist := distuv.NewCategorical(pi[i*m.k:(i+1)*m.k],
			m.ctx.Source())
		for s := 0; s < size; s++ {
			hot := int(dist.Rand())
			backing[s*m.numVars+i*m.k+hot] = 1.0
		}
	}

	return tensor.NewDense(
		tensor.Float64,
		[]int{size, m.numVars},
		tensor.WithBacking(backing),
	), nil
}

// LogProbI returns the per-row joint categorical log pmf of factor i,
// evaluated over that factor's K columns of xs: sum_j x[j] log(pi[i,j])
// for one-hot x.
func (m *Multinomial) LogProbI(i int, xs *G.Node) (*G.Node, error) {
	if err := m.checkFactor(i); err != nil {
		return nil, err
	}
	if err := m.checkBatch(xs); err != nil {
		return nil, fmt.Errorf("logProbI: %v", err)
	}

	x, err := G.Slice(xs, nil, G.S(i*m.k, (i+1)*m.k))
	if err != nil {
		return nil, fmt.Errorf("logProbI: could not slice factor %v: %v",
			i, err)
	}
	pii := G.Must(G.Slice(m.pi, G.S(i)))

	weighted := G.Must(G.BroadcastHadamardProd(
		x,
		G.Must(G.Log(pii)),
		nil, []byte{0},
	))

	return G.Sum(weighted, 1)
}

// Entropy returns the summed categorical entropies
// -sum_i sum_j pi[i,j] log(pi[i,j]) as a scalar node.
func (m *Multinomial) Entropy() (*G.Node, error) {
	logPi, err := G.Log(m.pi)
	if err != nil {
		return nil, fmt.Errorf("entropy: %v", err)
	}

	ent := G.Must(G.HadamardProd(m.pi, logPi))

	return G.Neg(G.Must(G.Sum(G.Must(G.Sum(ent, 1)))))
}

func (m *Multinomial) String() string {
	pi, err := materialized(m.pi, m.piVal)
	if err != nil {
		return "probability vector:\n<not evaluated>"
	}

	return fmt.Sprintf("probability vector:\n%v", pi)
}
