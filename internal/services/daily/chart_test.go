package daily

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/scrip/internal/models"
)

func TestRenderPriceChart(t *testing.T) {
	data := &models.MarketData{Ticker: "AAPL"}
	for i := 0; i < 30; i++ {
		data.EOD = append(data.EOD, models.EODBar{
			Date:  time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -i),
			Close: 100 + float64(i%7),
		})
	}

	png, err := renderPriceChart(data)
	require.NoError(t, err)
	require.NotEmpty(t, png)

	// PNG magic bytes.
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestRenderPriceChartInsufficientHistory(t *testing.T) {
	_, err := renderPriceChart(nil)
	assert.Error(t, err)

	_, err = renderPriceChart(&models.MarketData{
		Ticker: "AAPL",
		EOD:    []models.EODBar{{Date: time.Now(), Close: 100}},
	})
	assert.Error(t, err)
}
