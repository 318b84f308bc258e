package distribution

import (
	"fmt"
	"strings"

	"github.com/samuelfneumann/govi"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Variational is a posterior approximation composed of independent
// distribution layers. Each layer covers a disjoint block of latent
// factors; layer order fixes the left-to-right concatenation of those
// blocks in the joint latent vector.
//
// The aggregate capability flags summarize the layers for an external
// optimizer choosing its gradient estimator: IsReparam reports whether
// every layer supports the reparameterization trick, IsEntropy whether
// every layer has a closed-form entropy, and IsNormal whether every
// layer is a Normal. They are advisory; nothing here enforces them.
type Variational struct {
	ctx    *Context
	layers []Distribution

	numFactors int
	numVars    int
	numParams  int

	isReparam bool
	isNormal  bool
	isEntropy bool
}

// NewVariational returns a new Variational over the given layers, in
// order.
func NewVariational(ctx *Context, layers ...Distribution) *Variational {
	v := &Variational{
		ctx:       ctx,
		isReparam: true,
		isNormal:  true,
		isEntropy: true,
	}
	for _, layer := range layers {
		v.Add(layer)
	}

	return v
}

// Add appends a layer on top of the layer stack, updating the
// aggregate counts and capability flags incrementally.
func (v *Variational) Add(layer Distribution) {
	v.layers = append(v.layers, layer)
	v.numFactors += layer.NumFactors()
	v.numVars += layer.NumVars()
	v.numParams += layer.NumParams()
	v.isReparam = v.isReparam && layer.HasRsample()
	v.isEntropy = v.isEntropy && layer.HasEntropy()
	_, normal := layer.(*Normal)
	v.isNormal = v.isNormal && normal
}

// Layers returns the layer stack in concatenation order.
func (v *Variational) Layers() []Distribution { return v.layers }

// NumFactors returns the total number of factors across layers.
func (v *Variational) NumFactors() int { return v.numFactors }

// NumVars returns the total number of scalar dimensions across layers.
func (v *Variational) NumVars() int { return v.numVars }

// NumParams returns the total number of free parameters across layers.
func (v *Variational) NumParams() int { return v.numParams }

// IsReparam reports whether every layer supports reparameterized
// sampling.
func (v *Variational) IsReparam() bool { return v.isReparam }

// IsNormal reports whether every layer is a Normal.
func (v *Variational) IsNormal() bool { return v.isNormal }

// IsEntropy reports whether every layer has a closed-form entropy.
func (v *Variational) IsEntropy() bool { return v.isEntropy }

// Sample draws a joint sample of shape (size, NumVars), one column
// block per layer, concatenated in layer order. Layers that sample as
// part of the graph contribute their sample nodes directly; the rest
// contribute unbound placeholder nodes of shape (size, layer.NumVars)
// that must be bound with Feed before any dependent evaluation.
//
// The per-layer nodes are also returned so callers can feed the
// placeholders.
func (v *Variational) Sample(size int) (*G.Node, []*G.Node, error) {
	if len(v.layers) == 0 {
		return nil, nil, fmt.Errorf("sample: variational has no layers")
	}
	if size < 1 {
		return nil, nil, fmt.Errorf("sample: expected size to be > 0, "+
			"got %v", size)
	}

	samples := make([]*G.Node, len(v.layers))
	for i, layer := range v.layers {
		if layer.SampleTensor() {
			sample, err := layer.Sample(size)
			if err != nil {
				return nil, nil, fmt.Errorf("sample: could not sample "+
					"layer %v: %v", i, err)
			}
			samples[i] = sample
		} else {
			samples[i] = G.NewMatrix(
				v.ctx.Graph(),
				tensor.Float64,
				G.WithShape(size, layer.NumVars()),
				G.WithName(govi.UnixNano("placeholder")),
			)
		}
	}

	if len(samples) == 1 {
		return samples[0], samples, nil
	}

	joint, err := G.Concat(1, samples...)
	if err != nil {
		return nil, nil, fmt.Errorf("sample: could not concatenate layer "+
			"samples: %v", err)
	}

	return joint, samples, nil
}

// Feed binds every placeholder node returned by Sample to a fresh
// native draw from its layer. The samples slice must be the per-layer
// list returned by Sample.
func (v *Variational) Feed(samples []*G.Node) error {
	if len(samples) != len(v.layers) {
		return fmt.Errorf("feed: expected %v per-layer samples but got %v",
			len(v.layers), len(samples))
	}

	for i, layer := range v.layers {
		if layer.SampleTensor() {
			continue
		}

		size := samples[i].Shape()[0]
		value, err := layer.Rand(size)
		if err != nil {
			return fmt.Errorf("feed: could not sample layer %v: %v", i, err)
		}

		if err := G.Let(samples[i], value); err != nil {
			return fmt.Errorf("feed: could not bind placeholder for "+
				"layer %v: %v", i, err)
		}
	}

	return nil
}

// LogProbI returns the per-row log density of global factor i. The
// factor index is translated to the owning layer by walking the layer
// stack in order, and xs is narrowed to that layer's columns before
// delegating.
func (v *Variational) LogProbI(i int, xs *G.Node) (*G.Node, error) {
	if i >= 0 {
		local := i
		start, final := 0, 0
		for _, layer := range v.layers {
			final += layer.NumVars()
			if local < layer.NumFactors() {
				cols, err := G.Slice(xs, nil, G.S(start, final))
				if err != nil {
					return nil, fmt.Errorf("logProbI: could not slice "+
						"columns [%v, %v): %v", start, final, err)
				}

				// Slicing a single column collapses the batch matrix
				// to a vector. Restore the column dimension.
				if cols.Dims() == 1 {
					cols, err = G.Reshape(cols,
						tensor.Shape{xs.Shape()[0], layer.NumVars()})
					if err != nil {
						return nil, fmt.Errorf("logProbI: could not restore "+
							"the batch shape of factor %v's columns: %v",
							i, err)
					}
				}

				return layer.LogProbI(local, cols)
			}

			local -= layer.NumFactors()
			start = final
		}
	}

	return nil, &IndexError{Index: i, NumFactors: v.numFactors}
}

// Entropy returns the entropy of the joint posterior as a scalar node:
// the sum of the layer entropies, since layers are independent. If any
// layer has no closed-form entropy its error propagates; consult
// IsEntropy first.
func (v *Variational) Entropy() (*G.Node, error) {
	out := v.ctx.Graph().Constant(G.NewF64(0.0))
	for i, layer := range v.layers {
		ent, err := layer.Entropy()
		if err != nil {
			return nil, fmt.Errorf("entropy: layer %v: %w", i, err)
		}

		out = G.Must(G.Add(out, ent))
	}

	return out, nil
}

func (v *Variational) String() string {
	strs := make([]string, len(v.layers))
	for i, layer := range v.layers {
		strs[i] = layer.String()
	}

	return strings.Join(strs, "\n")
}
