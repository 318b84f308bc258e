package distribution

import (
	"fmt"

	"github.com/samuelfneumann/govi"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func ones64(size int) []float64 {
	slice := make([]float64, size)
	for i := range slice {
		slice[i] = 1.0
	}

	return slice
}

// checkParamVector validates an explicitly supplied parameter vector.
func checkParamVector(p *G.Node, length int) error {
	if p.Dims() != 1 {
		return fmt.Errorf("expected parameter vector but got %v dims",
			p.Dims())
	}
	if p.Shape()[0] != length {
		return fmt.Errorf("expected parameter vector of length %v but "+
			"got %v", length, p.Shape()[0])
	}
	if p.Dtype() != tensor.Float64 {
		return fmt.Errorf("parameter data type %v unsupported", p.Dtype())
	}

	return nil
}

// checkParamMatrix validates an explicitly supplied parameter matrix.
func checkParamMatrix(p *G.Node, rows, cols int) error {
	if p.Dims() != 2 {
		return fmt.Errorf("expected parameter matrix but got %v dims",
			p.Dims())
	}
	if p.Shape()[0] != rows || p.Shape()[1] != cols {
		return fmt.Errorf("expected parameter matrix of shape (%v, %v) "+
			"but got %v", rows, cols, p.Shape())
	}
	if p.Dtype() != tensor.Float64 {
		return fmt.Errorf("parameter data type %v unsupported", p.Dtype())
	}

	return nil
}

// positiveParam returns p validated as a parameter vector of the given
// length or, when p is nil, a positive self-initialized parameter: a
// softplus transform of an unconstrained learnable vector, shifted up
// by floor.
func positiveParam(ctx *Context, name string, length int, p *G.Node,
	floor float64) (*G.Node, error) {
	if p != nil {
		if err := checkParamVector(p, length); err != nil {
			return nil, err
		}

		return p, nil
	}

	unconst := G.NewVector(
		ctx.Graph(),
		tensor.Float64,
		G.WithShape(length),
		G.WithInit(G.Gaussian(0, 1)),
		G.WithName(govi.UnixNano(name+"_unconst")),
	)

	out, err := govi.Softplus(unconst)
	if err != nil {
		return nil, fmt.Errorf("could not constrain %v: %v", name, err)
	}

	if floor != 0 {
		f := ctx.Graph().Constant(G.NewF64(floor))
		out, err = G.Add(out, f)
		if err != nil {
			return nil, fmt.Errorf("could not floor %v: %v", name, err)
		}
	}

	return out, nil
}

// materialized returns the realized values backing a parameter node,
// preferring the node's bound value and falling back to the last value
// captured from a graph evaluation.
func materialized(n *G.Node, read G.Value) ([]float64, error) {
	v := n.Value()
	if v == nil {
		v = read
	}
	if v == nil {
		return nil, fmt.Errorf("parameter has no materialized value; " +
			"evaluate the graph before sampling natively")
	}

	switch data := v.Data().(type) {
	case []float64:
		return data, nil
	case float64:
		return []float64{data}, nil
	default:
		return nil, fmt.Errorf("parameter data type %T unsupported", data)
	}
}

// constNode wraps a realized sample tensor as a graph constant so
// native and reparameterized samples can be consumed uniformly.
func constNode(ctx *Context, name string, t tensor.Tensor) *G.Node {
	return G.NewMatrix(
		ctx.Graph(),
		tensor.Float64,
		G.WithShape(t.Shape()...),
		G.WithValue(t),
		G.WithName(govi.UnixNano(name)),
	)
}

// constVector places a fixed float64 vector on the graph.
func constVector(ctx *Context, name string, backing []float64) *G.Node {
	t := tensor.NewDense(
		tensor.Float64,
		[]int{len(backing)},
		tensor.WithBacking(backing),
	)

	return G.NewVector(
		ctx.Graph(),
		tensor.Float64,
		G.WithShape(len(backing)),
		G.WithValue(t),
		G.WithName(govi.UnixNano(name)),
	)
}
