package anova

import (
	"math"
	"testing"
)

func TestGrid(t *testing.T) {
	d := Dataset{
		{Attribute1: 10, Attribute2: 12, Attribute3: 11},
		{Attribute1: 20, Attribute2: 19, Attribute3: 21},
	}
	g := NewGrid(d)

	r, c := g.Dims()
	if r != 2 || c != NumAttributes {
		t.Fatalf("Dims() = %d×%d, want 2×3", r, c)
	}
	if got := g.At(1, 2); got != 21 {
		t.Errorf("At(1, 2) = %v, want 21", got)
	}
	if got := g.Row(0); got[0] != 10 || got[1] != 12 || got[2] != 11 {
		t.Errorf("Row(0) = %v", got)
	}
	if got := g.Col(1); got[0] != 12 || got[1] != 19 {
		t.Errorf("Col(1) = %v", got)
	}
	if got := g.Sum(); got != 93 {
		t.Errorf("Sum() = %v, want 93", got)
	}
	if got := g.GrandMean(); got != 15.5 {
		t.Errorf("GrandMean() = %v, want 15.5", got)
	}

	// Mutating an extracted row must not touch the grid.
	row := g.Row(0)
	row[0] = -1
	if g.At(0, 0) != 10 {
		t.Error("Row() returned a view, want a copy")
	}
}

func TestGrid_Aggregates(t *testing.T) {
	g := NewGrid(Dataset{
		{Attribute1: 10, Attribute2: 12, Attribute3: 11},
		{Attribute1: 20, Attribute2: 19, Attribute3: 21},
		{Attribute1: 15, Attribute2: 14, Attribute3: 16},
	})

	rows := g.RowAggregates()
	want := []Aggregate{{33, 11, 2.0 / 3}, {60, 20, 2.0 / 3}, {45, 15, 2.0 / 3}}
	for i, a := range rows {
		if math.Abs(a.Sum-want[i].Sum) > 1e-12 || math.Abs(a.Mean-want[i].Mean) > 1e-12 || math.Abs(a.Variance-want[i].Variance) > 1e-12 {
			t.Errorf("RowAggregates()[%d] = %+v, want %+v", i, a, want[i])
		}
	}

	cols := g.ColAggregates()
	if len(cols) != NumAttributes {
		t.Fatalf("len(ColAggregates()) = %d", len(cols))
	}
	if math.Abs(cols[1].Variance-26.0/3) > 1e-12 {
		t.Errorf("column 2 variance = %v, want %v", cols[1].Variance, 26.0/3)
	}
}

func TestPopMeanStdDev_SingleValue(t *testing.T) {
	mean, std := popMeanStdDev([]float64{4.5})
	if mean != 4.5 || std != 0 {
		t.Errorf("popMeanStdDev([4.5]) = (%v, %v), want (4.5, 0)", mean, std)
	}
	mean, variance := popMeanVariance([]float64{4.5})
	if mean != 4.5 || variance != 0 {
		t.Errorf("popMeanVariance([4.5]) = (%v, %v), want (4.5, 0)", mean, variance)
	}
}
