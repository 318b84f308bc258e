package distribution

import (
	"fmt"

	"github.com/samuelfneumann/govi"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// PointMass is a degenerate distribution placing all mass on a single
// point:
//
//	p(x | params) = prod_{i=1}^d Dirac(x[i] | params[i])
//
// where Dirac(x; p) has density 1 if x == p and 0 otherwise. It is
// the variational family of maximum a posteriori estimation: sampling
// returns the point itself, which keeps the sample differentiable with
// respect to the parameters.
//
// A PointMass has no differential entropy; HasEntropy reports false
// and Entropy returns ErrUnsupported.
type PointMass struct {
	base

	params    *G.Node
	paramsVal G.Value
}

// NewPointMass returns a new PointMass over numVars variables. If
// params is nil, the point location is self-initialized as an
// unconstrained learnable vector.
func NewPointMass(ctx *Context, numVars int, params *G.Node) (*PointMass,
	error) {
	if numVars < 1 {
		return nil, fmt.Errorf("newPointMass: expected numVars to be > 0, "+
			"got %v", numVars)
	}

	if params == nil {
		params = G.NewVector(
			ctx.Graph(),
			tensor.Float64,
			G.WithShape(numVars),
			G.WithInit(G.Gaussian(0, 1)),
			G.WithName(govi.UnixNano("pointmass_params")),
		)
	} else if err := checkParamVector(params, numVars); err != nil {
		return nil, fmt.Errorf("newPointMass: %v", err)
	}

	pm := &PointMass{
		base:   newBase(ctx, 1, numVars, numVars, true),
		params: params,
	}
	G.Read(pm.params, &pm.paramsVal)

	return pm, nil
}

func (p *PointMass) HasEntropy() bool { return false }

// Sample returns a node of shape (size, NumVars) whose rows are all
// the current point location. The node is differentiable with respect
// to the parameters, so a batch of "samples" can stand in for
// parameter draws in methods that expect one.
func (p *PointMass) Sample(size int) (*G.Node, error) {
	if size < 1 {
		return nil, fmt.Errorf("sample: expected size to be > 0, got %v",
			size)
	}

	row, err := G.Reshape(p.params, []int{1, p.numVars})
	if err != nil {
		return nil, fmt.Errorf("sample: %v", err)
	}

	return govi.Repeat(row, 0, size)
}

// Rand natively returns size copies of the current point location.
func (p *PointMass) Rand(size int) (tensor.Tensor, error) {
	if size < 1 {
		return nil, fmt.Errorf("rand: expected size to be > 0, got %v", size)
	}

	params, err := materialized(p.params, p.paramsVal)
	if err != nil {
		return nil, fmt.Errorf("rand: %v", err)
	}

	backing := make([]float64, size*p.numVars)
	for s := 0; s < size; s++ {
		copy(backing[s*p.numVars:(s+1)*p.numVars], params)
	}

	return tensor.NewDense(
		tensor.Float64,
		[]int{size, p.numVars},
		tensor.WithBacking(backing),
	), nil
}

// LogProbI returns, per row, 1.0 where xs[:, i] equals the point
// location and 0.0 elsewhere. This is an indicator, not a true
// density.
func (p *PointMass) LogProbI(i int, xs *G.Node) (*G.Node, error) {
	if err := p.checkFactor(i); err != nil {
		return nil, err
	}
	if err := p.checkBatch(xs); err != nil {
		return nil, fmt.Errorf("logProbI: %v", err)
	}

	x, err := G.Slice(xs, nil, G.S(i))
	if err != nil {
		return nil, fmt.Errorf("logProbI: could not slice factor %v: %v",
			i, err)
	}
	pi := G.Must(G.Slice(p.params, G.S(i)))

	return G.Eq(x, pi, true)
}

// Entropy is undefined for a point mass.
func (p *PointMass) Entropy() (*G.Node, error) {
	return nil, ErrUnsupported
}

func (p *PointMass) String() string {
	params, err := materialized(p.params, p.paramsVal)
	if err != nil {
		return "parameter values:\n<not evaluated>"
	}

	return fmt.Sprintf("parameter values:\n%v", params)
}
