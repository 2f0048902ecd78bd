package anova_test

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/anova.report/internal/anova"
	"github.com/banshee-data/anova.report/internal/testutil"
)

const tol = 1e-9

func TestAnalyze_ThreeRows(t *testing.T) {
	rep, err := anova.NewEngine(nil).Analyze(testutil.ThreeRows())
	require.NoError(t, err)

	s := rep.Summary
	assert.InDeltaSlice(t, []float64{33, 60, 45}, s.SumOfRows, tol)
	assert.InDeltaSlice(t, []float64{45, 45, 48}, s.SumOfColumns, tol)
	assert.InDeltaSlice(t, []float64{11, 20, 15}, s.MeanOfRows, tol)
	assert.InDeltaSlice(t, []float64{15, 15, 16}, s.MeanOfColumns, tol)
	assert.InDeltaSlice(t, []float64{2.0 / 3, 2.0 / 3, 2.0 / 3}, s.VarianceOfRows, tol)
	assert.InDeltaSlice(t, []float64{50.0 / 3, 26.0 / 3, 50.0 / 3}, s.VarianceOfColumns, tol)

	a := rep.ANOVA
	assert.InDelta(t, 46.0/3, a.GrandMean, tol)
	assert.InDelta(t, 122, a.SSB, tol)
	assert.InDelta(t, 6, a.SSW, tol)
	assert.InDelta(t, 2, a.SSC, tol)
	assert.InDelta(t, 4, a.SSE, tol)
	assert.Equal(t, 2, a.DFRows)
	assert.Equal(t, 2, a.DFColumns)
	assert.Equal(t, 4, a.DFWithin)
	assert.InDelta(t, 61, a.MSB, tol)
	assert.InDelta(t, 1, a.MSC, tol)
	assert.InDelta(t, 1.5, a.MSW, tol)
	assert.InDelta(t, 1, a.MSE, tol)
	assert.InDelta(t, 61, a.FRows, tol)
	assert.InDelta(t, 1, a.FColumns, tol)

	// With dfn=2 the F survival function is (1 + 2F/dfd)^(-dfd/2).
	assert.InDelta(t, math.Pow(1+2*61.0/4, -2), a.PValueRows, 1e-9)
	assert.InDelta(t, 4.0/9, a.PValueColumns, 1e-9)
	assert.InDelta(t, 6.944271909999149, a.FCritRows, 1e-7)
	assert.InDelta(t, 6.944271909999149, a.FCritColumns, 1e-7)

	assert.InDelta(t, a.FRows, a.FValue, 0)
	assert.Equal(t, 6, a.HomogeneityDFD)
	assert.InDelta(t, 5.143252849784716, a.FCriticalAt95, 1e-7)
	assert.Equal(t, anova.Fail, a.HomogeneityTest)
	assert.Equal(t, anova.HomogeneityCompat, a.HomogeneityMode)
	assert.InDelta(t, 0.05, a.Significance, 0)

	require.Len(t, a.Deviations, 3)
	assert.InDeltaSlice(t, []float64{-1, 1, 0}, a.Deviations[0], tol)
	assert.InDeltaSlice(t, []float64{0, -1, 1}, a.Deviations[1], tol)
	assert.InDeltaSlice(t, []float64{0, -1, 1}, a.Deviations[2], tol)
}

func TestAnalyze_FourRowGrid(t *testing.T) {
	d := append(testutil.ThreeRows(), anova.Observation{Attribute1: 100, Attribute2: 98, Attribute3: 99})

	rep, err := anova.NewEngine(nil).Analyze(d)
	require.NoError(t, err)

	a := rep.ANOVA
	assert.Equal(t, 3, a.DFRows)
	assert.Equal(t, 2, a.DFColumns)
	assert.Equal(t, 6, a.DFWithin)
	assert.InDelta(t, 15872.25, a.SSB, 1e-7)
	assert.InDelta(t, 8, a.SSW, tol)
	assert.InDelta(t, 2, a.SSC, tol)
	assert.InDelta(t, 6, a.SSE, tol)
	assert.InDelta(t, 4.757062663089412, a.FCritRows, 1e-6)
	assert.InDelta(t, 5.143252849784716, a.FCritColumns, 1e-6)

	// dfWithin + dfCols, not dfRows + dfWithin.
	assert.Equal(t, 8, a.HomogeneityDFD)
	assert.InDelta(t, 4.0661805513511595, a.FCriticalAt95, 1e-6)
}

func TestRun_WithOutlier(t *testing.T) {
	res, err := anova.NewEngine(nil).Run(testutil.WithOutlier())
	require.NoError(t, err)

	require.Len(t, res.Filtered, 9)
	require.Len(t, res.Outliers, 1)
	assert.Equal(t, anova.Observation{Attribute1: 100, Attribute2: 98, Attribute3: 99}, res.Outliers[0])

	a := res.ANOVA
	assert.Equal(t, 8, a.DFRows)
	assert.Equal(t, 2, a.DFColumns)
	assert.Equal(t, 16, a.DFWithin)
	assert.InDelta(t, 252.29629629629628, a.SSB, 1e-8)
	assert.InDelta(t, 15.333333333333334, a.SSW, 1e-9)
	assert.InDelta(t, 2.0740740740740713, a.SSC, 1e-9)
	assert.InDelta(t, 13.259259259259263, a.SSE, 1e-9)
	assert.InDelta(t, 0.8287037037037039, a.MSE, 1e-9)
	assert.InDelta(t, 38.05586592178769, a.FRows, 1e-7)
	assert.InDelta(t, 1.2513966480446908, a.FColumns, 1e-9)
	assert.InDelta(t, 5.5626593331581375e-09, a.PValueRows, 1e-12)
	assert.InDelta(t, 0.31265219655277776, a.PValueColumns, 1e-8)
	assert.InDelta(t, 2.5910961798744, a.FCritRows, 1e-6)
	assert.InDelta(t, 3.633723467591625, a.FCritColumns, 1e-6)
	assert.InDelta(t, 2.510157895383575, a.FCriticalAt95, 1e-6)
	assert.Equal(t, anova.Fail, a.HomogeneityTest)
	assert.Greater(t, a.MSE, 0.0)
}

func TestAnalyze_Pass(t *testing.T) {
	d := anova.Dataset{
		{Attribute1: 10, Attribute2: 14, Attribute3: 12},
		{Attribute1: 12, Attribute2: 10, Attribute3: 13},
		{Attribute1: 11, Attribute2: 13, Attribute3: 10},
	}
	rep, err := anova.NewEngine(nil).Analyze(d)
	require.NoError(t, err)

	a := rep.ANOVA
	assert.InDelta(t, 1.0/11, a.FRows, 1e-9)
	assert.InDelta(t, 0.9149338374291118, a.PValueRows, 1e-8)
	assert.InDelta(t, 0.7159763313609467, a.PValueColumns, 1e-8)
	assert.Equal(t, anova.Pass, a.HomogeneityTest)
}

func TestAnalyze_Invariants(t *testing.T) {
	for name, d := range map[string]anova.Dataset{
		"three rows":   testutil.ThreeRows(),
		"with outlier": testutil.WithOutlier(),
	} {
		t.Run(name, func(t *testing.T) {
			rep, err := anova.NewEngine(nil).Analyze(d)
			require.NoError(t, err)
			a := rep.ANOVA
			assert.Equal(t, a.DFRows*a.DFColumns, a.DFWithin)
			assert.True(t, a.SSE == a.SSW-a.SSC, "SSE must be exactly SSW-SSC")
			for _, v := range []float64{a.SSB, a.SSC, a.SSW, a.SSE, a.FRows, a.FColumns, a.PValueRows, a.PValueColumns} {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "non-finite value %v", v)
			}
			assert.GreaterOrEqual(t, a.PValueRows, 0.0)
			assert.LessOrEqual(t, a.PValueRows, 1.0)
		})
	}
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   anova.Dataset
		want error
	}{
		{"empty", anova.Dataset{}, anova.ErrInsufficientData},
		{"one row", anova.Dataset{{Attribute1: 1, Attribute2: 2, Attribute3: 3}}, anova.ErrInsufficientData},
		{"additive", testutil.Additive(), anova.ErrDegenerateVariance},
		{"constant", anova.Dataset{
			{Attribute1: 7, Attribute2: 7, Attribute3: 7},
			{Attribute1: 7, Attribute2: 7, Attribute3: 7},
		}, anova.ErrDegenerateVariance},
		{"nan", anova.Dataset{
			{Attribute1: 1, Attribute2: 2, Attribute3: 3},
			{Attribute1: math.NaN(), Attribute2: 2, Attribute3: 3},
		}, anova.ErrMalformedRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := anova.NewEngine(nil).Analyze(tt.in)
			assert.Nil(t, rep)
			assert.True(t, errors.Is(err, tt.want), "Analyze() error = %v, want %v", err, tt.want)
		})
	}
}

func TestRun_Errors(t *testing.T) {
	_, err := anova.NewEngine(nil).Run(nil)
	assert.ErrorIs(t, err, anova.ErrEmptyInput)

	_, err = anova.NewEngine(nil).Run(anova.Dataset{{Attribute1: 1, Attribute2: 2, Attribute3: 3}})
	assert.ErrorIs(t, err, anova.ErrInsufficientData)

	var mre *anova.MalformedRecordError
	_, err = anova.NewEngine(nil).Run(anova.Dataset{{Attribute1: math.Inf(1)}})
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, 0, mre.Index)
	assert.Equal(t, "Attribute1", mre.Field)
}

func TestRun_NumericOverflow(t *testing.T) {
	_, err := anova.NewEngine(nil).Run(testutil.Huge(1e200))
	require.ErrorIs(t, err, anova.ErrNumericOverflow)
	assert.NotErrorIs(t, err, anova.ErrInsufficientData)
}

func TestAnalyze_NumericOverflow(t *testing.T) {
	// squares of 1e160 exceed float64 range even though the values do not
	_, err := anova.NewEngine(nil).Analyze(testutil.Huge(1e160))
	assert.ErrorIs(t, err, anova.ErrNumericOverflow)
}

// recordingF returns fixed values and remembers the parameters it was asked for.
type recordingF struct {
	mu       sync.Mutex
	invCalls [][3]float64
	cdfCalls [][3]float64
}

func (r *recordingF) CDF(x, dfn, dfd float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cdfCalls = append(r.cdfCalls, [3]float64{x, dfn, dfd})
	return 0.5
}

func (r *recordingF) InvCDF(p, dfn, dfd float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invCalls = append(r.invCalls, [3]float64{p, dfn, dfd})
	return dfd
}

func TestAnalyze_DistributionParameters(t *testing.T) {
	d := append(testutil.ThreeRows(), anova.Observation{Attribute1: 100, Attribute2: 98, Attribute3: 99})

	tests := []struct {
		name     string
		opts     []anova.Option
		wantP    float64
		wantHDFD float64
	}{
		{"compat", nil, 0.95, 8},
		{"corrected", []anova.Option{anova.WithHomogeneityMode(anova.HomogeneityCorrected)}, 0.95, 6},
		{"alpha 0.01", []anova.Option{anova.WithSignificance(0.01)}, 0.99, 8},
		{"invalid alpha ignored", []anova.Option{anova.WithSignificance(1.5)}, 0.95, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist := &recordingF{}
			rep, err := anova.NewEngine(dist, tt.opts...).Analyze(d)
			require.NoError(t, err)

			require.Len(t, dist.cdfCalls, 2)
			assert.Equal(t, [3]float64{rep.ANOVA.FRows, 3, 6}, dist.cdfCalls[0])
			assert.Equal(t, [3]float64{rep.ANOVA.FColumns, 2, 6}, dist.cdfCalls[1])

			require.Len(t, dist.invCalls, 3)
			assert.InDelta(t, tt.wantP, dist.invCalls[0][0], 1e-15)
			assert.Equal(t, [2]float64{3, 6}, [2]float64{dist.invCalls[0][1], dist.invCalls[0][2]})
			assert.Equal(t, [2]float64{2, 6}, [2]float64{dist.invCalls[1][1], dist.invCalls[1][2]})
			assert.Equal(t, [2]float64{3, tt.wantHDFD}, [2]float64{dist.invCalls[2][1], dist.invCalls[2][2]})

			assert.InDelta(t, 0.5, rep.ANOVA.PValueRows, 0)
			assert.InDelta(t, tt.wantHDFD, rep.ANOVA.FCriticalAt95, 0)
		})
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	e := anova.NewEngine(nil)
	first, err := e.Run(testutil.WithOutlier())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*anova.Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := e.Run(testutil.WithOutlier())
			if err == nil {
				results[i] = res
			}
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		require.NotNil(t, res, "run %d failed", i)
		assert.Equal(t, first, res, "run %d differs", i)
	}
}

func TestParseHomogeneityMode(t *testing.T) {
	tests := []struct {
		in      string
		want    anova.HomogeneityMode
		wantErr bool
	}{
		{"", anova.HomogeneityCompat, false},
		{"compat", anova.HomogeneityCompat, false},
		{"corrected", anova.HomogeneityCorrected, false},
		{"strict", "", true},
	}
	for _, tt := range tests {
		got, err := anova.ParseHomogeneityMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHomogeneityMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseHomogeneityMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
