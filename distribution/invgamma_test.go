package distribution

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mathext"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestInvGammaLogProbI(t *testing.T) {
	const threshold = 0.001

	alphaBacking := []float64{1.5, 3.0}
	betaBacking := []float64{0.5, 2.0}

	ctx := NewContext(nil, 11)
	alpha := vectorNode(ctx.Graph(), "alpha", alphaBacking)
	beta := vectorNode(ctx.Graph(), "beta", betaBacking)

	ig, err := NewInvGamma(ctx, 2, alpha, beta)
	if err != nil {
		t.Fatal(err)
	}

	xsBacking := []float64{
		0.3, 1.2,
		1.0, 0.5,
		2.5, 3.1,
	}
	xs := matrixNode(ctx.Graph(), "xs", 3, 2, xsBacking)

	for i := 0; i < 2; i++ {
		logProb, err := ig.LogProbI(i, xs)
		if err != nil {
			t.Fatal(err)
		}

		var logProbVal G.Value
		G.Read(logProb, &logProbVal)
		evalGraph(t, ctx.Graph())

		a, b := alphaBacking[i], betaBacking[i]
		out := floatsOf(t, logProbVal)
		if len(out) != 3 {
			t.Fatalf("expected one log density per row but got %v", len(out))
		}
		for row := 0; row < 3; row++ {
			x := xsBacking[row*2+i]
			expected := a*math.Log(b) - lgammaRef(a) -
				(a+1)*math.Log(x) - b/x
			if math.Abs(expected-out[row]) > threshold {
				t.Errorf("expected: %v received: %v for factor %v row %v",
					expected, out[row], i, row)
			}
		}
	}

	var idxErr *IndexError
	if _, err := ig.LogProbI(2, xs); !errors.As(err, &idxErr) {
		t.Errorf("expected an index error but got %v", err)
	}
}

func TestInvGammaEntropy(t *testing.T) {
	const threshold = 0.001

	alphaBacking := []float64{1.5, 3.0, 0.8}
	betaBacking := []float64{0.5, 2.0, 1.1}

	ctx := NewContext(nil, 11)
	alpha := vectorNode(ctx.Graph(), "alpha", alphaBacking)
	beta := vectorNode(ctx.Graph(), "beta", betaBacking)

	ig, err := NewInvGamma(ctx, 3, alpha, beta)
	if err != nil {
		t.Fatal(err)
	}
	if !ig.HasEntropy() {
		t.Error("inverse gamma should have a closed-form entropy")
	}

	entropy, err := ig.Entropy()
	if err != nil {
		t.Fatal(err)
	}
	var entropyVal G.Value
	G.Read(entropy, &entropyVal)
	evalGraph(t, ctx.Graph())

	var expected float64
	for i := range alphaBacking {
		a, b := alphaBacking[i], betaBacking[i]
		expected += a + math.Log(b) + lgammaRef(a) -
			(1+a)*mathext.Digamma(a)
	}

	if math.Abs(expected-scalarOf(t, entropyVal)) > threshold {
		t.Errorf("expected: %v received: %v", expected,
			scalarOf(t, entropyVal))
	}
}

func TestInvGammaRand(t *testing.T) {
	const size = 40

	ctx := NewContext(nil, 11)
	alpha := vectorNode(ctx.Graph(), "alpha", []float64{1.5, 3.0})
	beta := vectorNode(ctx.Graph(), "beta", []float64{0.5, 2.0})

	ig, err := NewInvGamma(ctx, 2, alpha, beta)
	if err != nil {
		t.Fatal(err)
	}

	samples, err := ig.Rand(size)
	if err != nil {
		t.Fatal(err)
	}
	if !samples.Shape().Eq(tensor.Shape{size, 2}) {
		t.Fatalf("expected shape (%v, 2) but got %v", size, samples.Shape())
	}

	for _, x := range samples.Data().([]float64) {
		if x <= 0.0 {
			t.Errorf("expected positive draw but got %v", x)
		}
	}

	if _, err := ig.Rand(0); err == nil {
		t.Error("expected an error for 0 samples")
	}
}
