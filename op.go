package govi

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Erf computes the element-wise error function
func Erf(x *G.Node) (*G.Node, error) {
	op := newErfOp()

	return G.ApplyOp(op, x)
}

// Erfc computes the element-wise complementary error function
func Erfc(x *G.Node) (*G.Node, error) {
	retVal, err := Erf(x)
	if err != nil {
		return nil, fmt.Errorf("erfc: %v", err)
	}

	one := x.Graph().Constant(G.NewF64(1.0))
	return G.Sub(one, retVal)
}

// Repeat repeats x along axis. The axis being repeated must have size
// 1 so that the repeat stays differentiable.
func Repeat(x *G.Node, axis, repeats int) (*G.Node, error) {
	op, err := newRepeatOp(axis, repeats)
	if err != nil {
		return nil, fmt.Errorf("repeat: %v", err)
	}

	return G.ApplyOp(op, x)
}
