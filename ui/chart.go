package ui

import (
	"errors"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"concretestrength/prediction"
)

var (
	curveColor = drawing.ColorFromHex("2c3e50")
	gridStyle  = chart.Style{StrokeColor: drawing.ColorFromHex("cccccc"), StrokeWidth: 0.5}
)

// RenderChart writes the aging curve as SVG, with the current mixture's
// estimate drawn as a separate red point.
func RenderChart(w io.Writer, result *prediction.Result, labels Labels) error {
	if result == nil || len(result.Curve) == 0 {
		return errors.New("no curve to render")
	}

	xs := make([]float64, len(result.Curve))
	ys := make([]float64, len(result.Curve))
	for i, point := range result.Curve {
		xs[i] = float64(point.AgeDays)
		ys[i] = point.Strength
	}

	graph := chart.Chart{
		Title:  labels.ChartTitle,
		Width:  720,
		Height: 420,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis:  chart.XAxis{Name: labels.XAxis, GridMajorStyle: gridStyle},
		YAxis:  chart.YAxis{Name: labels.YAxis, GridMajorStyle: gridStyle},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    labels.CurveSeries,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: curveColor,
					StrokeWidth: 2,
					DotColor:    curveColor,
					DotWidth:    4,
				},
			},
			chart.ContinuousSeries{
				Name:    labels.CurrentPoint,
				XValues: []float64{float64(result.Input.AgeDays)},
				YValues: []float64{result.Strength},
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotColor:    drawing.ColorRed,
					DotWidth:    8,
				},
			},
		},
	}
	if lo, hi, ok := paddedRange(ys, result.Strength); ok {
		graph.YAxis.Range = &chart.ContinuousRange{Min: lo, Max: hi}
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.SVG, w)
}

// minYSpan is the smallest Y range handed to go-chart. Flatter curves are
// padded around their midpoint.
const minYSpan = 2.0

func paddedRange(ys []float64, point float64) (lo, hi float64, ok bool) {
	lo, hi = point, point
	for _, y := range ys {
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	if hi-lo >= minYSpan {
		return 0, 0, false
	}
	mid := (lo + hi) / 2
	return mid - minYSpan/2, mid + minYSpan/2, true
}
