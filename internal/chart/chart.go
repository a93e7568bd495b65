package chart

import (
	"bytes"
	"time"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"price-tracker-bot/internal/types"
)

// MinPoints is the smallest history that renders a meaningful line.
var MinPoints = 2

var (
	backgroundColor = drawing.Color{R: 55, G: 55, B: 55, A: 255}
	textColor       = drawing.Color{R: 200, G: 200, B: 200, A: 255}
	seriesColor     = drawing.Color{R: 0, G: 122, B: 255, A: 255}
	fillColor       = drawing.Color{R: 0, G: 122, B: 255, A: 25}
)

// RenderHistory draws the recent price history of a product as a PNG line
// chart. Points are expected newest first, as the store returns them.
func RenderHistory(name string, points []types.PricePoint) ([]byte, error) {
	if len(points) < MinPoints {
		return nil, errors.Errorf("need at least %d price points, got %d", MinPoints, len(points))
	}

	xValues := make([]time.Time, 0, len(points))
	yValues := make([]float64, 0, len(points))
	for i := len(points) - 1; i >= 0; i-- {
		xValues = append(xValues, points[i].RecordedAt)
		yValues = append(yValues, points[i].Price)
	}

	graph := chart.Chart{
		Title:  name,
		Width:  1200,
		Height: 400,
		Background: chart.Style{
			FillColor: backgroundColor,
			FontColor: textColor,
		},
		Canvas: chart.Style{
			FillColor: backgroundColor,
		},
		XAxis: chart.XAxis{
			Style: chart.Style{FontColor: textColor},
		},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: textColor},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Style: chart.Style{
					StrokeColor: seriesColor,
					FillColor:   fillColor,
				},
				XValues: xValues,
				YValues: yValues,
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, errors.Wrap(err, "could not render price chart")
	}
	return buf.Bytes(), nil
}
