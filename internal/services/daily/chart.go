package daily

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/scrip/internal/models"
)

// chartDays bounds the price window rendered into the delivery chart.
const chartDays = 90

// renderPriceChart renders the closing-price history as a PNG for
// attachment to the delivered report. Returns an error when there are
// too few bars to draw a line.
func renderPriceChart(data *models.MarketData) ([]byte, error) {
	if data == nil || len(data.EOD) < 2 {
		return nil, fmt.Errorf("insufficient price history for chart")
	}

	bars := data.EOD
	if len(bars) > chartDays {
		bars = bars[:chartDays]
	}

	// Bars are stored descending; the chart wants ascending time.
	xValues := make([]time.Time, len(bars))
	yValues := make([]float64, len(bars))
	for i, bar := range bars {
		j := len(bars) - 1 - i
		xValues[j] = bar.Date
		yValues[j] = bar.Close
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s — close", data.Ticker),
		Width:  900,
		Height: 400,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    data.Ticker,
				XValues: xValues,
				YValues: yValues,
				Style: chart.Style{
					StrokeColor: drawing.ColorBlue,
					StrokeWidth: 2.0,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}
