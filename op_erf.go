package govi

import (
	"fmt"
	"hash"
	"math"

	"github.com/chewxy/hm"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// erfOp computes the error function element-wise. Only float64 values
// are supported.
type erfOp struct{}

func newErfOp() *erfOp { return &erfOp{} }

func (e *erfOp) Arity() int { return 1 }

func (e *erfOp) Type() hm.Type {
	// All pointwise unary operations have this type:
	// op :: (Arithable a) => a -> a
	a := hm.TypeVariable('a')
	return hm.NewFnType(a, a)
}

func (e *erfOp) ReturnsPtr() bool { return false }

func (e *erfOp) CallsExtern() bool { return false }

func (e *erfOp) OverwritesInput() int { return -1 }

func (e *erfOp) String() string { return "Erf" }

func (e *erfOp) WriteHash(h hash.Hash) { fmt.Fprint(h, e.String()) }

func (e *erfOp) Hashcode() uint32 { return SimpleHash(e) }

func (e *erfOp) InferShape(inputs ...G.DimSizer) (tensor.Shape, error) {
	if err := CheckArity(e, len(inputs)); err != nil {
		return nil, fmt.Errorf("inferShape: %v", err)
	}
	if inputs[0] == nil {
		return nil, fmt.Errorf("inferShape: nil input")
	}

	return inputs[0].(tensor.Shape), nil
}

func (e *erfOp) Do(inputs ...G.Value) (G.Value, error) {
	if err := e.checkInputs(inputs...); err != nil {
		return nil, fmt.Errorf("do: %v", err)
	}

	switch v := inputs[0].(type) {
	case *G.F64:
		return G.NewF64(math.Erf(float64(*v))), nil

	case tensor.Tensor:
		in := v.Data().([]float64)
		backing := make([]float64, len(in))
		for i, elem := range in {
			backing[i] = math.Erf(elem)
		}

		out := tensor.NewDense(
			tensor.Float64,
			v.Shape().Clone(),
			tensor.WithBacking(backing),
		)
		return out, nil

	default:
		return nil, fmt.Errorf("do: unable to compute erf on type %T", v)
	}
}

func (e *erfOp) SymDiff(inputs G.Nodes, output, grad *G.Node) (G.Nodes,
	error) {
	if err := CheckArity(e, len(inputs)); err != nil {
		return nil, fmt.Errorf("symDiff: %v", err)
	}

	diffOp := &erfDiffOp{}
	nodes := make(G.Nodes, 1)

	var err error
	nodes[0], err = G.ApplyOp(diffOp, inputs[0], grad)

	return nodes, err
}

func (e *erfOp) DiffWRT(inputs int) []bool {
	if inputs != 1 {
		panic(fmt.Sprintf("erf operator only supports one input, got %d "+
			"instead", inputs))
	}
	return []bool{true}
}

func (e *erfOp) checkInputs(inputs ...G.Value) error {
	if err := CheckArity(e, len(inputs)); err != nil {
		return err
	}

	switch v := inputs[0].(type) {
	case *G.F64:
		return nil

	case tensor.Tensor:
		if v == nil {
			return fmt.Errorf("cannot compute erf on nil tensor")
		} else if v.Size() == 0 {
			return fmt.Errorf("cannot compute erf on empty tensor")
		} else if v.Dtype() != tensor.Float64 {
			return fmt.Errorf("dtype %v unsupported", v.Dtype())
		}
		return nil

	default:
		return fmt.Errorf("expected a float64 tensor, got %T", inputs[0])
	}
}

// erfDiffOp is the gradient of erfOp:
//
//	d(erf)/dx = 2/√π · exp(-x²)
type erfDiffOp struct{}

func (e *erfDiffOp) Arity() int { return 2 }

func (e *erfDiffOp) Type() hm.Type {
	a := hm.TypeVariable('a')
	return hm.NewFnType(a, a, a)
}

func (e *erfDiffOp) ReturnsPtr() bool { return false }

func (e *erfDiffOp) CallsExtern() bool { return false }

func (e *erfDiffOp) OverwritesInput() int { return -1 }

func (e *erfDiffOp) String() string { return "ErfDiff" }

func (e *erfDiffOp) WriteHash(h hash.Hash) { fmt.Fprint(h, e.String()) }

func (e *erfDiffOp) Hashcode() uint32 { return SimpleHash(e) }

func (e *erfDiffOp) InferShape(inputs ...G.DimSizer) (tensor.Shape, error) {
	if err := CheckArity(e, len(inputs)); err != nil {
		return nil, fmt.Errorf("inferShape: %v", err)
	}
	if inputs[0] == nil {
		return nil, fmt.Errorf("inferShape: nil input")
	}

	return inputs[0].(tensor.Shape), nil
}

func (e *erfDiffOp) Do(inputs ...G.Value) (G.Value, error) {
	if err := CheckArity(e, len(inputs)); err != nil {
		return nil, fmt.Errorf("do: %v", err)
	}

	x, ok := inputs[0].(tensor.Tensor)
	if !ok {
		return nil, fmt.Errorf("do: expected a tensor input, got %T",
			inputs[0])
	}
	gradT, ok := inputs[1].(tensor.Tensor)
	if !ok {
		return nil, fmt.Errorf("do: expected a tensor gradient, got %T",
			inputs[1])
	}

	scale := 2.0 / math.Sqrt(math.Pi)
	in := x.Data().([]float64)
	grad := gradT.Data().([]float64)

	backing := make([]float64, len(in))
	for i, elem := range in {
		backing[i] = grad[i] * scale * math.Exp(-elem*elem)
	}

	out := tensor.NewDense(
		tensor.Float64,
		x.Shape().Clone(),
		tensor.WithBacking(backing),
	)
	return out, nil
}
