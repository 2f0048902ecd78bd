package anova

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// BoundSigmas is the half-width of the acceptance band in population
// standard deviations.
const BoundSigmas = 2.0

// ColumnStats holds the location, spread and acceptance band of one column.
type ColumnStats struct {
	Attribute string  `json:"attribute"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
	Lower     float64 `json:"lower_limit"`
	Upper     float64 `json:"upper_limit"`
}

// NewColumnStats computes the population mean and standard deviation of xs
// and the band mean ± BoundSigmas·σ. xs must not be empty.
func NewColumnStats(name string, xs []float64) ColumnStats {
	mean, std := popMeanStdDev(xs)
	return ColumnStats{
		Attribute: name,
		Mean:      mean,
		StdDev:    std,
		Lower:     mean - BoundSigmas*std,
		Upper:     mean + BoundSigmas*std,
	}
}

// Contains reports whether v lies inside the closed band.
func (c ColumnStats) Contains(v float64) bool {
	return v >= c.Lower && v <= c.Upper
}

func (c ColumnStats) finite() bool {
	return isFinite(c.Mean) && isFinite(c.StdDev) && isFinite(c.Lower) && isFinite(c.Upper)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FilterResult partitions a dataset into retained observations and outliers.
type FilterResult struct {
	Filtered Dataset                    `json:"data_without_outliers"`
	Outliers Dataset                    `json:"outliers"`
	Bounds   [NumAttributes]ColumnStats `json:"standard_deviation_table"`
}

// IsOutlier reports whether any attribute of o falls outside its column band.
func (r *FilterResult) IsOutlier(o Observation) bool {
	return isOutlier(o, r.Bounds)
}

func isOutlier(o Observation, bounds [NumAttributes]ColumnStats) bool {
	for j, v := range o.Values() {
		if !bounds[j].Contains(v) {
			return true
		}
	}
	return false
}

// Filter computes per-column bands over d and splits it into observations
// with every attribute inside its band and observations with at least one
// attribute outside. Both partitions keep the input order.
func Filter(d Dataset) (*FilterResult, error) {
	if len(d) == 0 {
		return nil, ErrEmptyInput
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	res := &FilterResult{
		Filtered: make(Dataset, 0, len(d)),
		Outliers: make(Dataset, 0),
	}
	for j := range res.Bounds {
		res.Bounds[j] = NewColumnStats(AttributeNames[j], d.Column(j))
		if !res.Bounds[j].finite() {
			return nil, fmt.Errorf("%w: %s band is not finite", ErrNumericOverflow, AttributeNames[j])
		}
	}

	for _, o := range d {
		if isOutlier(o, res.Bounds) {
			res.Outliers = append(res.Outliers, o)
		} else {
			res.Filtered = append(res.Filtered, o)
		}
	}
	return res, nil
}

// popMeanStdDev is stat.PopMeanStdDev with the single-value case pinned to a
// zero spread; gonum reports NaN there.
func popMeanStdDev(xs []float64) (mean, std float64) {
	if len(xs) == 1 {
		return xs[0], 0
	}
	return stat.PopMeanStdDev(xs, nil)
}

// popMeanVariance is the variance counterpart of popMeanStdDev.
func popMeanVariance(xs []float64) (mean, variance float64) {
	if len(xs) == 1 {
		return xs[0], 0
	}
	return stat.PopMeanVariance(xs, nil)
}
