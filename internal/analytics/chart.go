// Package analytics derives chart series and display indicators from the
// price history and insights returned by the collection backend.
package analytics

import (
	"fmt"

	"github.com/codyseavey/pokemarket/internal/models"
)

// Chart is a plottable price series with padded axis bounds.
type Chart struct {
	Condition string
	Labels    []string
	Values    []float64
	YMin      float64
	YMax      float64
}

// Len returns the number of points.
func (c Chart) Len() int {
	return len(c.Values)
}

// BuildChart derives the "Near Mint" series of history. The second return is
// false when that series is absent or empty; other conditions are not used.
// Samples keep the order the server returned them in.
func BuildChart(history *models.PriceHistory) (Chart, bool) {
	if history == nil {
		return Chart{}, false
	}
	samples := history.PriceHistory[models.ConditionNearMint]
	if len(samples) == 0 {
		return Chart{}, false
	}

	chart := Chart{
		Condition: models.ConditionNearMint,
		Labels:    make([]string, len(samples)),
		Values:    make([]float64, len(samples)),
	}
	for i, s := range samples {
		chart.Labels[i] = DateLabel(s.Date)
		chart.Values[i] = s.Market
	}
	chart.YMin, chart.YMax = AxisBounds(chart.Values)
	return chart, true
}

// AxisBounds pads the value range so flat series do not render as a line on
// the axis. A range under 1% of the minimum is padded by 10% of the minimum;
// any other range by 20% of itself. The lower bound never goes below zero.
func AxisBounds(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}

	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	rng := hi - lo
	pad := rng * 0.2
	if rng < lo*0.01 {
		pad = lo * 0.1
	}

	lo -= pad
	hi += pad
	if lo < 0 {
		lo = 0
	}
	return lo, hi
}

// DateLabel renders a sample date as month/day without zero padding.
// Unrecognized dates are returned unchanged.
func DateLabel(date string) string {
	t, ok := models.ParseTime(date)
	if !ok {
		return date
	}
	return fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
}
