package anova

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Grid is a dataset viewed as an R×C matrix: one row per observation, one
// column per attribute.
type Grid struct {
	m *mat.Dense
}

// NewGrid lays d out row by row. d must not be empty.
func NewGrid(d Dataset) *Grid {
	data := make([]float64, 0, len(d)*NumAttributes)
	for _, o := range d {
		v := o.Values()
		data = append(data, v[:]...)
	}
	return &Grid{m: mat.NewDense(len(d), NumAttributes, data)}
}

// Dims returns the number of rows and columns.
func (g *Grid) Dims() (rows, cols int) {
	return g.m.Dims()
}

// Row returns a copy of row i.
func (g *Grid) Row(i int) []float64 {
	return mat.Row(nil, i, g.m)
}

// Col returns a copy of column j.
func (g *Grid) Col(j int) []float64 {
	return mat.Col(nil, j, g.m)
}

// At returns the cell at row i, column j.
func (g *Grid) At(i, j int) float64 {
	return g.m.At(i, j)
}

// Sum returns the sum of every cell.
func (g *Grid) Sum() float64 {
	return mat.Sum(g.m)
}

// GrandMean returns the arithmetic mean of every cell.
func (g *Grid) GrandMean() float64 {
	r, c := g.Dims()
	return g.Sum() / float64(r*c)
}

// Aggregate holds the sum, mean and population variance of one row or column.
type Aggregate struct {
	Sum      float64
	Mean     float64
	Variance float64
}

func aggregate(xs []float64) Aggregate {
	mean, variance := popMeanVariance(xs)
	return Aggregate{Sum: floats.Sum(xs), Mean: mean, Variance: variance}
}

// RowAggregates returns one Aggregate per row.
func (g *Grid) RowAggregates() []Aggregate {
	r, _ := g.Dims()
	out := make([]Aggregate, r)
	for i := range out {
		out[i] = aggregate(g.Row(i))
	}
	return out
}

// ColAggregates returns one Aggregate per column.
func (g *Grid) ColAggregates() []Aggregate {
	_, c := g.Dims()
	out := make([]Aggregate, c)
	for j := range out {
		out[j] = aggregate(g.Col(j))
	}
	return out
}
