package govi

import (
	"math"
	"math/rand"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func erfGrad(x float64) float64 {
	return (2 / math.Sqrt(math.Pi)) * math.Exp(-math.Pow(x, 2))
}

func TestErf_graph(t *testing.T) {
	const tolerance float64 = 0.0001
	const maxDims int = 5
	const minDims int = 2
	const maxDimSize int = 10

	shape := make([]int, minDims+rand.Intn(maxDims-minDims))
	for i := range shape {
		shape[i] = 1 + rand.Intn(maxDimSize-1) // Avoid dimension size 0
	}

	backing := make([]float64, tensor.ProdInts(shape))
	out := make([]float64, tensor.ProdInts(shape))
	grad := make([]float64, tensor.ProdInts(shape))
	for i := range backing {
		z := (rand.Float64() - 0.5) * 2.0
		backing[i] = z
		out[i] = math.Erf(backing[i])
		grad[i] = erfGrad(z) / float64(tensor.ProdInts(shape))
	}

	g := G.NewGraph()
	inTensor := tensor.NewDense(
		tensor.Float64,
		shape,
		tensor.WithBacking(backing),
	)

	in := G.NewTensor(
		g,
		tensor.Float64,
		len(shape),
		G.WithValue(inTensor),
	)
	computedNode, err := Erf(in)
	if err != nil {
		t.Error(err)
	}
	var computed G.Value
	G.Read(computedNode, &computed)

	// Ensure gradient can be computed
	mean := G.Must(G.Mean(computedNode))
	diff, err := G.Grad(mean, in)
	if err != nil {
		t.Error(err)
	}
	if len(diff) != 1 {
		t.Errorf("derivative should be a single node but got %v", len(diff))
	}
	var computedDiff G.Value
	G.Read(diff[0], &computedDiff)

	vm := G.NewTapeMachine(g)
	vm.RunAll()
	vm.Reset()

	// Check the output
	output := computed.Data().([]float64)
	for i := 0; i < len(out); i++ {
		if math.Abs(out[i]-output[i]) > tolerance {
			t.Errorf("incorrect value\nexpected: %v \nreceived:%v",
				out[i], output[i])
		}
	}

	// Check the gradient
	outGrad := computedDiff.Data().([]float64)
	for i := 0; i < len(out); i++ {
		if math.Abs(outGrad[i]-grad[i]) > tolerance {
			t.Errorf("incorrect gradient value\nexpected: %v \nreceived:%v",
				grad[i], outGrad[i])
		}
	}
}

func TestErfc_graph(t *testing.T) {
	const tolerance float64 = 0.0001

	backing := []float64{-1.5, -0.3, 0.0, 0.4, 2.1}

	g := G.NewGraph()
	inTensor := tensor.NewDense(
		tensor.Float64,
		[]int{len(backing)},
		tensor.WithBacking(backing),
	)
	in := G.NewVector(g, tensor.Float64, G.WithShape(len(backing)),
		G.WithValue(inTensor))

	computedNode, err := Erfc(in)
	if err != nil {
		t.Error(err)
	}
	var computed G.Value
	G.Read(computedNode, &computed)

	vm := G.NewTapeMachine(g)
	vm.RunAll()
	vm.Reset()

	output := computed.Data().([]float64)
	for i := range backing {
		expected := math.Erfc(backing[i])
		if math.Abs(expected-output[i]) > tolerance {
			t.Errorf("incorrect value\nexpected: %v \nreceived:%v",
				expected, output[i])
		}
	}
}

func TestErf(t *testing.T) {
	erf := newErfOp()

	shapes := [][]int{
		{2, 2},
		{2, 2, 2},
		{2, 3, 5},
		{4, 3, 2, 1},
		{1},
	}
	for i := 0; i < len(shapes); i++ {
		inBacking := make([]float64, tensor.ProdInts(shapes[i]))
		outBacking := make([]float64, len(inBacking))
		for i := range outBacking {
			inBacking[i] = rand.Float64()
			outBacking[i] = math.Erf(inBacking[i])
		}
		in := tensor.NewDense(
			tensor.Float64,
			shapes[i],
			tensor.WithBacking(inBacking),
		)
		inCheck := tensor.NewDense(
			tensor.Float64,
			shapes[i],
			tensor.WithBacking(inBacking),
		)

		out := tensor.NewDense(
			tensor.Float64,
			shapes[i],
			tensor.WithBacking(outBacking),
		)

		// Run the operation
		v, err := erf.Do(in)
		if err != nil {
			t.Error(err)
		}

		// Ensure output is expected, input tensor not modified, and
		// output shape is not changed
		if !v.(*tensor.Dense).Eq(out) {
			t.Errorf("expected: \n%v \nreceived: \n%v", out, v)
		} else if !inCheck.Eq(in) {
			t.Error("erf should not modify input value, but input modified")
		} else if !v.(*tensor.Dense).Shape().Eq(shapes[i]) {
			t.Errorf("erf should not modify shapes (%v modified to %v)",
				shapes[i], v.(*tensor.Dense).Shape())
		}
	}

	// Ensure Erf does not work with more than 1 input
	arityChecks := 10
	for i := 0; i < arityChecks; i++ {
		size := rand.Int()%9 + 2
		inputs := make([]G.Value, size)
		for i := range inputs {
			inputs[i] = G.NewF64(rand.Float64())
		}

		_, err := erf.Do(inputs...)
		if err == nil {
			t.Errorf("accepted %v inputs when Erf has arity of %v", len(inputs),
				erf.Arity())
		}
	}
}

func TestErfDiff(t *testing.T) {
	erfDiff := erfDiffOp{}

	shapes := [][]int{
		{2, 2},
		{2, 2, 2},
		{2, 3, 5},
		{4, 3, 2, 1},
		{1},
	}

	for i := 0; i < len(shapes); i++ {
		inBacking := make([]float64, tensor.ProdInts(shapes[i]))
		outBacking := make([]float64, len(inBacking))
		gradBacking := make([]float64, len(inBacking))
		for i := range outBacking {
			inBacking[i] = rand.Float64()
			gradBacking[i] = 0.1
			outBacking[i] = erfGrad(inBacking[i]) * gradBacking[i]
		}
		in := tensor.NewDense(
			tensor.Float64,
			shapes[i],
			tensor.WithBacking(inBacking),
		)
		inCheck := tensor.NewDense(
			tensor.Float64,
			shapes[i],
			tensor.WithBacking(inBacking),
		)
		out := tensor.NewDense(
			tensor.Float64,
			shapes[i],
			tensor.WithBacking(outBacking),
		)
		grad := tensor.NewDense(
			tensor.Float64,
			shapes[i],
			tensor.WithBacking(gradBacking),
		)

		// Run the operation
		v, err := erfDiff.Do(in, grad)
		if err != nil {
			t.Error(err)
		}

		// Ensure output is correct to within tolerance
		const tolerance float64 = 0.000001
		for i := range out.Data().([]float64) {
			diff := math.Abs(out.Data().([]float64)[i] -
				v.Data().([]float64)[i])

			if diff > tolerance {
				t.Errorf("expected: %v \nreceived: %v \nat index %d",
					out.Data().([]float64)[i], v.Data().([]float64)[i], i)
			}
		}

		// Ensure shape is correct and input not modified
		if !inCheck.Eq(in) {
			t.Error("erfDiff should not modify input value, but input " +
				"modified")
		} else if !v.(*tensor.Dense).Shape().Eq(shapes[i]) {
			t.Errorf("erfDiff should not modify shapes (%v modified to %v)",
				shapes[i], v.(*tensor.Dense).Shape())
		}
	}
}
