// Package chart renders analysis results as interactive HTML (go-echarts)
// and static PNG images (gonum/plot).
package chart

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/anova.report/internal/anova"
)

// ErrNoReport is returned when a result carries no ANOVA report to draw.
var ErrNoReport = errors.New("result has no anova report")

// HTMLOptions controls the rendered page.
type HTMLOptions struct {
	// Title is shown above the charts; defaults to "ANOVA report".
	Title string
	// AssetsHost overrides where echarts.min.js is loaded from. Empty keeps
	// the go-echarts default CDN.
	AssetsHost string
}

var seriesColors = [anova.NumAttributes]string{"#5470c6", "#91cc75", "#fac858"}

const outlierColor = "#ee6666"

// RenderHTML writes a page with one scatter chart per attribute (retained
// observations and outliers by position, with the acceptance band marked),
// a sums-of-squares bar chart and an F-statistic versus critical value chart.
func RenderHTML(w io.Writer, data anova.Dataset, res *anova.Result, o HTMLOptions) error {
	if res == nil || res.Report == nil || res.FilterResult == nil {
		return ErrNoReport
	}
	title := o.Title
	if title == "" {
		title = "ANOVA report"
	}
	initOpts := opts.Initialization{PageTitle: title, Width: "900px", Height: "420px", AssetsHost: o.AssetsHost}

	page := components.NewPage()
	page.SetPageTitle(title)
	if o.AssetsHost != "" {
		page.SetAssetsHost(o.AssetsHost)
	}

	for j := 0; j < anova.NumAttributes; j++ {
		page.AddCharts(attributeScatter(initOpts, data, res, j))
	}
	page.AddCharts(sumsOfSquaresBar(initOpts, res.Report), fTestBar(initOpts, res.Report))

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}

func attributeScatter(initOpts opts.Initialization, data anova.Dataset, res *anova.Result, j int) *charts.Scatter {
	bounds := res.Bounds[j]
	retained := make([]opts.ScatterData, 0, len(data))
	outliers := make([]opts.ScatterData, 0)
	for i, obs := range data {
		pt := opts.ScatterData{Value: []interface{}{i, obs.Attribute(j)}}
		if res.IsOutlier(obs) {
			outliers = append(outliers, pt)
		} else {
			retained = append(retained, pt)
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{
			Title:    bounds.Attribute,
			Subtitle: fmt.Sprintf("mean=%.4g σ=%.4g band=[%.4g, %.4g]", bounds.Mean, bounds.StdDev, bounds.Lower, bounds.Upper),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "5%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Observation", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: bounds.Attribute}),
	)
	scatter.AddSeries("retained", retained,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: seriesColors[j]}),
		charts.WithMarkLineNameYAxisItemOpts(
			opts.MarkLineNameYAxisItem{Name: "lower", YAxis: bounds.Lower},
			opts.MarkLineNameYAxisItem{Name: "mean", YAxis: bounds.Mean},
			opts.MarkLineNameYAxisItem{Name: "upper", YAxis: bounds.Upper},
		),
	)
	scatter.AddSeries("outliers", outliers,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: outlierColor}),
	)
	return scatter
}

func sumsOfSquaresBar(initOpts opts.Initialization, rep *anova.Report) *charts.Bar {
	t := rep.ANOVA
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{
			Title:    "Sums of squares",
			Subtitle: fmt.Sprintf("grand mean=%.4g df=(%d, %d, %d)", t.GrandMean, t.DFRows, t.DFColumns, t.DFWithin),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis([]string{"SSB", "SSC", "SSW", "SSE"}).
		AddSeries("sum of squares", []opts.BarData{
			{Value: t.SSB},
			{Value: t.SSC},
			{Value: t.SSW},
			{Value: t.SSE},
		}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

func fTestBar(initOpts opts.Initialization, rep *anova.Report) *charts.Bar {
	t := rep.ANOVA
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("F-tests: homogeneity %s", t.HomogeneityTest),
			Subtitle: fmt.Sprintf("α=%g p(rows)=%.4g p(columns)=%.4g mode=%s",
				t.Significance, t.PValueRows, t.PValueColumns, t.HomogeneityMode),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "5%"}),
	)
	bar.SetXAxis([]string{"rows", "columns", "homogeneity"}).
		AddSeries("F", []opts.BarData{
			{Value: t.FRows},
			{Value: t.FColumns},
			{Value: t.FValue},
		}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"})).
		AddSeries("critical", []opts.BarData{
			{Value: t.FCritRows},
			{Value: t.FCritColumns},
			{Value: t.FCriticalAt95},
		}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}
