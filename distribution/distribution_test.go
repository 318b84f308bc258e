package distribution

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// vectorNode places a named float64 vector with the given backing on g.
func vectorNode(g *G.ExprGraph, name string, backing []float64) *G.Node {
	t := tensor.NewDense(
		tensor.Float64,
		[]int{len(backing)},
		tensor.WithBacking(backing),
	)

	return G.NewVector(g, tensor.Float64, G.WithShape(len(backing)),
		G.WithValue(t), G.WithName(name))
}

// matrixNode places a named float64 matrix with the given backing on g.
func matrixNode(g *G.ExprGraph, name string, rows, cols int,
	backing []float64) *G.Node {
	t := tensor.NewDense(
		tensor.Float64,
		[]int{rows, cols},
		tensor.WithBacking(backing),
	)

	return G.NewMatrix(g, tensor.Float64, G.WithShape(rows, cols),
		G.WithValue(t), G.WithName(name))
}

// evalGraph runs g on a tape machine, failing the test on error.
func evalGraph(t *testing.T, g *G.ExprGraph) {
	t.Helper()

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}
	vm.Reset()
}

// floatsOf returns the float64 data behind a value, accepting both
// scalar and tensor values.
func floatsOf(t *testing.T, v G.Value) []float64 {
	t.Helper()

	switch data := v.Data().(type) {
	case []float64:
		return data
	case float64:
		return []float64{data}
	default:
		t.Fatalf("unexpected value type %T", data)
		return nil
	}
}

// scalarOf returns the single float64 behind a scalar value.
func scalarOf(t *testing.T, v G.Value) float64 {
	t.Helper()

	data := floatsOf(t, v)
	if len(data) != 1 {
		t.Fatalf("expected a scalar but got %v elements", len(data))
	}

	return data[0]
}

// lgammaRef computes log Γ(x) for positive x.
func lgammaRef(x float64) float64 {
	lg, _ := math.Lgamma(x)
	return lg
}

// lbetaRef computes the log multivariate beta function of its
// arguments.
func lbetaRef(xs ...float64) float64 {
	var sumLg, sum float64
	for _, x := range xs {
		sumLg += lgammaRef(x)
		sum += x
	}

	return sumLg - lgammaRef(sum)
}
