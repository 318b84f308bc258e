package distribution

import (
	"fmt"
	"hash"
	"time"

	"golang.org/x/exp/rand"

	"github.com/chewxy/hm"
	"github.com/samuelfneumann/govi"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// NormalRand returns a node that draws numSamples fresh rows of
// N(mean, stddev) noise each time the graph is evaluated. The mean and
// stddev must be float64 vectors of the same shape; the output has
// shape (numSamples, len(mean)). Sampling happens natively inside the
// op, so gradients do not flow through it.
func NormalRand(ctx *Context, mean, stddev *G.Node,
	numSamples int) (*G.Node, error) {
	if mean.Dtype() != stddev.Dtype() {
		return nil, fmt.Errorf("normalRand: mean and stddev should have "+
			"same dtype but got %v and %v", mean.Dtype(), stddev.Dtype())
	}
	if !mean.Shape().Eq(stddev.Shape()) {
		return nil, fmt.Errorf("normalRand: mean and stddev should have "+
			"same shape but got %v and %v", mean.Shape(), stddev.Shape())
	}

	op, err := newNormalSampleOp(mean.Dtype(), ctx.Source(), numSamples,
		mean.Shape()...)
	if err != nil {
		return nil, fmt.Errorf("normalRand: %v", err)
	}

	return G.ApplyOp(op, mean, stddev)
}

// normalSampleOp natively samples a batch of normal random variates,
// one column per element of its mean and stddev inputs. Each op
// instance hashes uniquely so that two sampling nodes with identical
// inputs are never merged into one draw.
type normalSampleOp struct {
	shape      tensor.Shape
	dist       distuv.Normal
	numSamples int
	id         int64
}

func newNormalSampleOp(dt tensor.Dtype, src rand.Source,
	numSamples int, shape ...int) (*normalSampleOp, error) {
	if dt != tensor.Float64 {
		return nil, fmt.Errorf("newNormalSampleOp: dtype %v not supported",
			dt)
	}
	if numSamples < 1 {
		return nil, fmt.Errorf("newNormalSampleOp: expected numSamples to "+
			"be > 0, got %v", numSamples)
	}
	if len(shape) != 1 {
		return nil, fmt.Errorf("newNormalSampleOp: expected vector mean "+
			"and stddev but got shape %v", shape)
	}

	return &normalSampleOp{
		shape: tensor.Shape(shape).Clone(),
		dist: distuv.Normal{
			Mu:    0.0,
			Sigma: 1.0,
			Src:   src,
		},
		numSamples: numSamples,
		id:         time.Now().UnixNano(),
	}, nil
}

func (n *normalSampleOp) Arity() int { return 2 }

func (n *normalSampleOp) Type() hm.Type {
	in := G.TensorType{Dims: 1, Of: tensor.Float64}
	out := G.TensorType{Dims: 2, Of: tensor.Float64}

	return hm.NewFnType(in, in, out)
}

func (n *normalSampleOp) InferShape(...G.DimSizer) (tensor.Shape, error) {
	return append(tensor.Shape{n.numSamples}, n.shape...), nil
}

func (n *normalSampleOp) ReturnsPtr() bool { return false }

func (n *normalSampleOp) CallsExtern() bool { return false }

func (n *normalSampleOp) OverwritesInput() int { return -1 }

func (n *normalSampleOp) String() string {
	return fmt.Sprintf("NormalSample{shape=%v, samples=%v}()", n.shape,
		n.numSamples)
}

func (n *normalSampleOp) WriteHash(h hash.Hash) {
	fmt.Fprintf(h, "%v%v", n.String(), n.id)
}

func (n *normalSampleOp) Hashcode() uint32 {
	return govi.SimpleHash(n)
}

func (n *normalSampleOp) Do(inputs ...G.Value) (G.Value, error) {
	if err := n.checkInputs(inputs...); err != nil {
		return nil, fmt.Errorf("do: %v", err)
	}

	mean := inputs[0].(tensor.Tensor).Data().([]float64)
	stddev := inputs[1].(tensor.Tensor).Data().([]float64)

	dims := n.shape[0]
	backing := make([]float64, n.numSamples*dims)
	for d := 0; d < dims; d++ {
		n.dist.Mu = mean[d]
		n.dist.Sigma = stddev[d]
		for s := 0; s < n.numSamples; s++ {
			backing[s*dims+d] = n.dist.Rand()
		}
	}

	out := tensor.NewDense(
		tensor.Float64,
		[]int{n.numSamples, dims},
		tensor.WithBacking(backing),
	)

	return out, nil
}

func (n *normalSampleOp) checkInputs(inputs ...G.Value) error {
	if err := govi.CheckArity(n, len(inputs)); err != nil {
		return err
	}

	for i, name := range []string{"mean", "stddev"} {
		t, ok := inputs[i].(tensor.Tensor)
		if !ok {
			return fmt.Errorf("expected %v to be a tensor, got %T", name,
				inputs[i])
		} else if t.Size() == 0 {
			return fmt.Errorf("cannot sample from empty %v tensor", name)
		} else if !t.Shape().Eq(n.shape) {
			return fmt.Errorf("expected %v to have shape %v but got %v",
				name, n.shape, t.Shape())
		} else if t.Dtype() != tensor.Float64 {
			return fmt.Errorf("expected %v to have dtype %v but got %v",
				name, tensor.Float64, t.Dtype())
		}
	}

	return nil
}
