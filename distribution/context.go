package distribution

import (
	"golang.org/x/exp/rand"
	G "gorgonia.org/gorgonia"
)

// Context holds the state a distribution needs to build graph
// operations and to sample: the expression graph its parameters live
// on and the random number source used for native sampling. A Context
// is constructed explicitly and threaded through constructors; there
// is no global graph or RNG state in this package.
//
// A Context is not safe for concurrent use.
type Context struct {
	graph  *G.ExprGraph
	source rand.Source
}

// NewContext returns a new Context using graph g seeded with seed. If
// g is nil, a fresh graph is created.
func NewContext(g *G.ExprGraph, seed uint64) *Context {
	if g == nil {
		g = G.NewGraph()
	}

	return &Context{
		graph:  g,
		source: rand.NewSource(seed),
	}
}

// Graph returns the expression graph that distributions built with
// this Context place their parameters and operations on.
func (c *Context) Graph() *G.ExprGraph {
	return c.graph
}

// Source returns the random number source used for native sampling.
func (c *Context) Source() rand.Source {
	return c.source
}
