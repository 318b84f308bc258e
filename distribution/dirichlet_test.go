package distribution

import (
	"errors"
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distmv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestDirichletRand(t *testing.T) {
	const size = 12
	const threshold = 0.000001

	alphaBacking := []float64{
		0.5, 1.0, 2.0,
		3.0, 0.2, 1.5,
	}

	ctx := NewContext(nil, 11)
	alpha := matrixNode(ctx.Graph(), "alpha", 2, 3, alphaBacking)

	d, err := NewDirichlet(ctx, 2, 3, alpha)
	if err != nil {
		t.Fatal(err)
	}

	if d.NumFactors() != 2 || d.NumVars() != 6 || d.K() != 3 {
		t.Errorf("unexpected shape metadata: factors %v vars %v k %v",
			d.NumFactors(), d.NumVars(), d.K())
	}

	samples, err := d.Rand(size)
	if err != nil {
		t.Fatal(err)
	}
	if !samples.Shape().Eq(tensor.Shape{size, 6}) {
		t.Fatalf("expected shape (%v, 6) but got %v", size, samples.Shape())
	}

	data := samples.Data().([]float64)
	for row := 0; row < size; row++ {
		for factor := 0; factor < 2; factor++ {
			block := data[row*6+factor*3 : row*6+(factor+1)*3]
			for _, x := range block {
				if x < 0.0 || x > 1.0 {
					t.Errorf("expected simplex entry but got %v", x)
				}
			}
			if sum := floats.Sum(block); math.Abs(sum-1.0) > threshold {
				t.Errorf("expected factor %v of row %v to sum to 1 but got "+
					"%v", factor, row, sum)
			}
		}
	}
}

func TestDirichletLogProbI(t *testing.T) {
	const threshold = 0.001

	alphaBacking := []float64{
		0.5, 1.0, 2.0,
		3.0, 0.2, 1.5,
	}

	ctx := NewContext(nil, 11)
	alpha := matrixNode(ctx.Graph(), "alpha", 2, 3, alphaBacking)

	d, err := NewDirichlet(ctx, 2, 3, alpha)
	if err != nil {
		t.Fatal(err)
	}

	xsBacking := []float64{
		0.2, 0.3, 0.5, 0.1, 0.1, 0.8,
		0.6, 0.3, 0.1, 0.4, 0.5, 0.1,
	}
	xs := matrixNode(ctx.Graph(), "xs", 2, 6, xsBacking)

	for i := 0; i < 2; i++ {
		logProb, err := d.LogProbI(i, xs)
		if err != nil {
			t.Fatal(err)
		}

		var logProbVal G.Value
		G.Read(logProb, &logProbVal)
		evalGraph(t, ctx.Graph())

		dist := distmv.NewDirichlet(alphaBacking[i*3:(i+1)*3],
			rand.NewSource(11))
		out := floatsOf(t, logProbVal)
		if len(out) != 2 {
			t.Fatalf("expected one log density per row but got %v", len(out))
		}
		for row := 0; row < 2; row++ {
			expected := dist.LogProb(xsBacking[row*6+i*3 : row*6+(i+1)*3])
			if math.Abs(expected-out[row]) > threshold {
				t.Errorf("expected: %v received: %v for factor %v row %v",
					expected, out[row], i, row)
			}
		}
	}

	var idxErr *IndexError
	if _, err := d.LogProbI(2, xs); !errors.As(err, &idxErr) {
		t.Errorf("expected an index error but got %v", err)
	}
}

func TestDirichletEntropy(t *testing.T) {
	const threshold = 0.001

	alphaBacking := []float64{
		0.5, 1.0, 2.0,
		3.0, 0.2, 1.5,
	}

	ctx := NewContext(nil, 11)
	alpha := matrixNode(ctx.Graph(), "alpha", 2, 3, alphaBacking)

	d, err := NewDirichlet(ctx, 2, 3, alpha)
	if err != nil {
		t.Fatal(err)
	}

	entropy, err := d.Entropy()
	if err != nil {
		t.Fatal(err)
	}
	var entropyVal G.Value
	G.Read(entropy, &entropyVal)
	evalGraph(t, ctx.Graph())

	var expected float64
	for factor := 0; factor < 2; factor++ {
		row := alphaBacking[factor*3 : (factor+1)*3]

		var alpha0 float64
		for _, a := range row {
			alpha0 += a
		}

		h := lbetaRef(row...) + (alpha0-3.0)*mathext.Digamma(alpha0)
		for _, a := range row {
			h -= (a - 1.0) * mathext.Digamma(a)
		}
		expected += h
	}

	if math.Abs(expected-scalarOf(t, entropyVal)) > threshold {
		t.Errorf("expected: %v received: %v", expected,
			scalarOf(t, entropyVal))
	}
}

func TestDirichletInvalidConstruction(t *testing.T) {
	ctx := NewContext(nil, 11)

	if _, err := NewDirichlet(ctx, 0, 3, nil); err == nil {
		t.Error("expected an error for 0 factors")
	}
	if _, err := NewDirichlet(ctx, 2, 0, nil); err == nil {
		t.Error("expected an error for factor dimension 0")
	}
	if _, err := NewDirichlet(ctx, 2, 1, nil); !errors.Is(err,
		ErrScalarSimplex) {
		t.Errorf("expected ErrScalarSimplex but got %v", err)
	}

	alpha := matrixNode(ctx.Graph(), "alpha", 2, 2, []float64{1, 1, 1, 1})
	if _, err := NewDirichlet(ctx, 2, 3, alpha); err == nil {
		t.Error("expected an error for a mismatched parameter shape")
	}
}
