package govi

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestRepeat_graph(t *testing.T) {
	const tolerance float64 = 0.0000001
	const repeats int = 4

	backing := []float64{1.5, -2.0, 0.25}

	g := G.NewGraph()
	inTensor := tensor.NewDense(
		tensor.Float64,
		[]int{1, len(backing)},
		tensor.WithBacking(backing),
	)
	in := G.NewMatrix(g, tensor.Float64, G.WithShape(1, len(backing)),
		G.WithValue(inTensor))

	computedNode, err := Repeat(in, 0, repeats)
	if err != nil {
		t.Fatal(err)
	}
	if !computedNode.Shape().Eq(tensor.Shape{repeats, len(backing)}) {
		t.Fatalf("expected shape %v but got %v",
			tensor.Shape{repeats, len(backing)}, computedNode.Shape())
	}
	var computed G.Value
	G.Read(computedNode, &computed)

	// The gradient of a sum through the repeat should accumulate once
	// per repeated row
	sum := G.Must(G.Sum(computedNode))
	diff, err := G.Grad(sum, in)
	if err != nil {
		t.Fatal(err)
	}
	if len(diff) != 1 {
		t.Fatalf("derivative should be a single node but got %v", len(diff))
	}
	var computedDiff G.Value
	G.Read(diff[0], &computedDiff)

	vm := G.NewTapeMachine(g)
	vm.RunAll()
	vm.Reset()

	// Check the output
	output := computed.Data().([]float64)
	for row := 0; row < repeats; row++ {
		for col := 0; col < len(backing); col++ {
			expected := backing[col]
			received := output[row*len(backing)+col]
			if math.Abs(expected-received) > tolerance {
				t.Errorf("incorrect value\nexpected: %v \nreceived:%v",
					expected, received)
			}
		}
	}

	// Check the gradient
	outGrad := computedDiff.Data().([]float64)
	if len(outGrad) != len(backing) {
		t.Fatalf("expected gradient of %v elements but got %v", len(backing),
			len(outGrad))
	}
	for i := range outGrad {
		if math.Abs(outGrad[i]-float64(repeats)) > tolerance {
			t.Errorf("incorrect gradient value\nexpected: %v \nreceived:%v",
				float64(repeats), outGrad[i])
		}
	}
}

func TestRepeat(t *testing.T) {
	op, err := newRepeatOp(1, 3)
	if err != nil {
		t.Fatal(err)
	}

	backing := []float64{1.0, 2.0}
	in := tensor.NewDense(
		tensor.Float64,
		[]int{2, 1},
		tensor.WithBacking(backing),
	)

	v, err := op.Do(in)
	if err != nil {
		t.Fatal(err)
	}

	if !v.(tensor.Tensor).Shape().Eq(tensor.Shape{2, 3}) {
		t.Fatalf("expected shape (2, 3) but got %v", v.(tensor.Tensor).Shape())
	}

	expected := []float64{
		1.0, 1.0, 1.0,
		2.0, 2.0, 2.0,
	}
	out := v.Data().([]float64)
	for i := range expected {
		if expected[i] != out[i] {
			t.Errorf("expected: %v \nreceived: %v \nat index %d", expected[i],
				out[i], i)
		}
	}
}

func TestRepeatInvalidConstruction(t *testing.T) {
	if _, err := newRepeatOp(0, 0); err == nil {
		t.Error("expected an error for 0 repeats")
	}
	if _, err := newRepeatOp(-1, 2); err == nil {
		t.Error("expected an error for a negative axis")
	}
}

func TestRepeatAxisOutOfRange(t *testing.T) {
	op, err := newRepeatOp(3, 2)
	if err != nil {
		t.Fatal(err)
	}

	in := tensor.NewDense(
		tensor.Float64,
		[]int{2, 2},
		tensor.WithBacking([]float64{1, 2, 3, 4}),
	)

	if _, err := op.Do(in); err == nil {
		t.Error("expected an error for an out of range axis")
	}
}
