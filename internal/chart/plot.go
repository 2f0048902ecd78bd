package chart

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/anova.report/internal/anova"
)

// Default PNG canvas size.
const (
	DefaultWidth  = 14 * vg.Inch
	DefaultHeight = 6 * vg.Inch
)

var plotColors = [anova.NumAttributes]color.Color{
	color.RGBA{R: 0x54, G: 0x70, B: 0xc6, A: 255},
	color.RGBA{R: 0x3b, G: 0xa2, B: 0x72, A: 255},
	color.RGBA{R: 0xe0, G: 0x9b, B: 0x1b, A: 255},
}

var outlierPlotColor = color.RGBA{R: 0xee, G: 0x66, B: 0x66, A: 255}

// NewPlot draws every attribute against observation position. Retained
// observations are circles in the attribute colour, outliers are red
// crosses, and each attribute's acceptance band is drawn as dashed lines.
func NewPlot(data anova.Dataset, res *anova.Result) (*plot.Plot, error) {
	if res == nil || res.FilterResult == nil {
		return nil, ErrNoReport
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Observations: %d retained, %d outliers", len(res.Filtered), len(res.Outliers))
	if res.Report != nil {
		p.Title.Text += fmt.Sprintf(" (homogeneity %s)", res.ANOVA.HomogeneityTest)
	}
	p.X.Label.Text = "Observation"
	p.Y.Label.Text = "Value"
	p.Add(plotter.NewGrid())

	last := float64(len(data) - 1)
	if last < 1 {
		last = 1
	}

	for j := 0; j < anova.NumAttributes; j++ {
		retained := make(plotter.XYs, 0, len(data))
		outliers := make(plotter.XYs, 0)
		for i, obs := range data {
			pt := plotter.XY{X: float64(i), Y: obs.Attribute(j)}
			if res.IsOutlier(obs) {
				outliers = append(outliers, pt)
			} else {
				retained = append(retained, pt)
			}
		}

		name := res.Bounds[j].Attribute
		if len(retained) > 0 {
			s, err := plotter.NewScatter(retained)
			if err != nil {
				return nil, err
			}
			s.GlyphStyle.Color = plotColors[j]
			s.GlyphStyle.Shape = draw.CircleGlyph{}
			s.GlyphStyle.Radius = vg.Points(3)
			p.Add(s)
			p.Legend.Add(name, s)
		}
		if len(outliers) > 0 {
			s, err := plotter.NewScatter(outliers)
			if err != nil {
				return nil, err
			}
			s.GlyphStyle.Color = outlierPlotColor
			s.GlyphStyle.Shape = draw.CrossGlyph{}
			s.GlyphStyle.Radius = vg.Points(4)
			p.Add(s)
			p.Legend.Add(name+" outlier", s)
		}

		for _, y := range []float64{res.Bounds[j].Lower, res.Bounds[j].Upper} {
			band, err := plotter.NewLine(plotter.XYs{{X: 0, Y: y}, {X: last, Y: y}})
			if err != nil {
				return nil, err
			}
			band.Color = plotColors[j]
			band.Width = vg.Points(1)
			band.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
			p.Add(band)
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WritePNG renders the plot as a PNG of the given size to w.
func WritePNG(w io.Writer, data anova.Dataset, res *anova.Result, width, height vg.Length) error {
	p, err := NewPlot(data, res)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}
