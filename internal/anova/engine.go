package anova

import "fmt"

// DefaultSignificance is the test level used for critical values.
const DefaultSignificance = 0.05

// HomogeneityMode selects the denominator degrees of freedom used for the
// homogeneity critical value.
type HomogeneityMode string

const (
	// HomogeneityCompat compares MSB/MSE against F⁻¹(1−α; dfRows, dfWithin+dfCols).
	// This is the historical behaviour and the default.
	HomogeneityCompat HomogeneityMode = "compat"
	// HomogeneityCorrected uses dfWithin as the denominator df, matching the
	// row critical value.
	HomogeneityCorrected HomogeneityMode = "corrected"
)

// ParseHomogeneityMode maps a configuration string to a mode. The empty
// string selects HomogeneityCompat.
func ParseHomogeneityMode(s string) (HomogeneityMode, error) {
	switch HomogeneityMode(s) {
	case "", HomogeneityCompat:
		return HomogeneityCompat, nil
	case HomogeneityCorrected:
		return HomogeneityCorrected, nil
	}
	return "", fmt.Errorf("unknown homogeneity mode %q (want %q or %q)", s, HomogeneityCompat, HomogeneityCorrected)
}

// Engine runs the two-way analysis. It is immutable once built and safe for
// concurrent use as long as its FDistribution is.
type Engine struct {
	dist         FDistribution
	significance float64
	homogeneity  HomogeneityMode
}

// Option configures an Engine.
type Option func(*Engine)

// WithSignificance sets α for the critical values. Values outside (0, 1)
// are ignored.
func WithSignificance(alpha float64) Option {
	return func(e *Engine) {
		if alpha > 0 && alpha < 1 {
			e.significance = alpha
		}
	}
}

// WithHomogeneityMode selects the homogeneity critical value variant.
func WithHomogeneityMode(m HomogeneityMode) Option {
	return func(e *Engine) {
		if m == HomogeneityCompat || m == HomogeneityCorrected {
			e.homogeneity = m
		}
	}
}

// NewEngine builds an Engine. A nil dist selects GonumF.
func NewEngine(dist FDistribution, opts ...Option) *Engine {
	if dist == nil {
		dist = GonumF{}
	}
	e := &Engine{
		dist:         dist,
		significance: DefaultSignificance,
		homogeneity:  HomogeneityCompat,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Significance returns the configured α.
func (e *Engine) Significance() float64 { return e.significance }

// HomogeneityMode returns the configured homogeneity variant.
func (e *Engine) HomogeneityMode() HomogeneityMode { return e.homogeneity }

// Analyze treats filtered as an R×3 grid and decomposes its variability into
// row, column and error terms.
//
// SSW is the within-row sum of squares and SSE is obtained as SSW−SSC without
// clamping, so SSE may be negative through rounding.
func (e *Engine) Analyze(filtered Dataset) (*Report, error) {
	if err := filtered.Validate(); err != nil {
		return nil, err
	}

	rows, cols := len(filtered), NumAttributes
	dfRows := rows - 1
	dfCols := cols - 1
	dfWithin := dfRows * dfCols
	if dfRows <= 0 || dfCols <= 0 || dfWithin <= 0 {
		return nil, insufficientData(rows, cols)
	}

	g := NewGrid(filtered)
	rowAgg := g.RowAggregates()
	colAgg := g.ColAggregates()
	grandMean := g.GrandMean()

	rep := &Report{Summary: summarize(rowAgg, colAgg)}
	t := &rep.ANOVA
	t.GrandMean = grandMean

	var ssb float64
	for _, a := range rowAgg {
		d := a.Mean - grandMean
		ssb += d * d
	}
	t.SSB = float64(cols) * ssb

	t.Deviations = make([][]float64, rows)
	for i := range t.Deviations {
		dev := make([]float64, cols)
		for j := range dev {
			dev[j] = g.At(i, j) - rowAgg[i].Mean
			t.SSW += dev[j] * dev[j]
		}
		t.Deviations[i] = dev
	}

	var ssc float64
	for _, a := range colAgg {
		d := a.Mean - grandMean
		ssc += d * d
	}
	t.SSC = float64(rows) * ssc
	t.SSE = t.SSW - t.SSC
	if !isFinite(t.SSB) || !isFinite(t.SSW) || !isFinite(t.SSC) || !isFinite(t.SSE) {
		return nil, fmt.Errorf("%w: sums of squares are not finite", ErrNumericOverflow)
	}

	t.DFRows, t.DFColumns, t.DFWithin = dfRows, dfCols, dfWithin
	t.MSB = t.SSB / float64(dfRows)
	t.MSC = t.SSC / float64(dfCols)
	t.MSW = t.SSW / float64(dfWithin)
	t.MSE = t.SSE / float64(dfWithin)
	if t.MSE == 0 {
		return nil, fmt.Errorf("%w: SSW=%g equals SSC=%g", ErrDegenerateVariance, t.SSW, t.SSC)
	}

	t.FRows = t.MSB / t.MSE
	t.FColumns = t.MSC / t.MSE
	if !isFinite(t.FRows) || !isFinite(t.FColumns) {
		return nil, fmt.Errorf("%w: F statistics are not finite", ErrNumericOverflow)
	}

	fr, fc, fw := float64(dfRows), float64(dfCols), float64(dfWithin)
	t.PValueRows = 1 - e.dist.CDF(t.FRows, fr, fw)
	t.PValueColumns = 1 - e.dist.CDF(t.FColumns, fc, fw)

	confidence := 1 - e.significance
	t.Significance = e.significance
	t.FCritRows = e.dist.InvCDF(confidence, fr, fw)
	t.FCritColumns = e.dist.InvCDF(confidence, fc, fw)

	t.HomogeneityMode = e.homogeneity
	t.HomogeneityDFD = dfWithin + dfCols
	if e.homogeneity == HomogeneityCorrected {
		t.HomogeneityDFD = dfWithin
	}
	t.FValue = t.MSB / t.MSE
	t.FCriticalAt95 = e.dist.InvCDF(confidence, fr, float64(t.HomogeneityDFD))
	t.HomogeneityTest = Pass
	if t.FValue > t.FCriticalAt95 {
		t.HomogeneityTest = Fail
	}
	return rep, nil
}

func summarize(rowAgg, colAgg []Aggregate) SummaryTable {
	s := SummaryTable{
		SumOfRows:         make([]float64, len(rowAgg)),
		MeanOfRows:        make([]float64, len(rowAgg)),
		VarianceOfRows:    make([]float64, len(rowAgg)),
		SumOfColumns:      make([]float64, len(colAgg)),
		MeanOfColumns:     make([]float64, len(colAgg)),
		VarianceOfColumns: make([]float64, len(colAgg)),
	}
	for i, a := range rowAgg {
		s.SumOfRows[i], s.MeanOfRows[i], s.VarianceOfRows[i] = a.Sum, a.Mean, a.Variance
	}
	for j, a := range colAgg {
		s.SumOfColumns[j], s.MeanOfColumns[j], s.VarianceOfColumns[j] = a.Sum, a.Mean, a.Variance
	}
	return s
}

// Run filters d and analyzes the retained observations.
func (e *Engine) Run(d Dataset) (*Result, error) {
	fr, err := Filter(d)
	if err != nil {
		return nil, err
	}
	rep, err := e.Analyze(fr.Filtered)
	if err != nil {
		return nil, err
	}
	return &Result{FilterResult: fr, Report: rep}, nil
}
