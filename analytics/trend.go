// Package analytics turns raw crop time series into derived trend labels
// and chart-ready aggregates.
package analytics

import (
	"github.com/montanaflynn/stats"

	"agrimarket/models"
)

// Trend labels the recent trajectory of a numeric series.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// Classify compares the mean of the last 3 samples against the mean of the
// first 3 and labels changes beyond ±5%. The two windows overlap when the
// series has fewer than 6 samples; that is intentional. Series shorter than
// 2 samples, and series whose early window averages 0, are stable.
func Classify(series []float64) Trend {
	if len(series) < 2 {
		return TrendStable
	}

	recent := series[len(series)-min(3, len(series)):]
	older := series[:min(3, len(series))]

	recentAvg, _ := stats.Mean(recent)
	olderAvg, _ := stats.Mean(older)
	if olderAvg == 0 {
		return TrendStable
	}

	change := (recentAvg - olderAvg) / olderAvg * 100
	switch {
	case change > 5:
		return TrendIncreasing
	case change < -5:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// Per-field series extractors for a crop's observation history.

func yields(obs []models.Observation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Yield
	}
	return out
}

func prices(obs []models.Observation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Price
	}
	return out
}

func demands(obs []models.Observation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Demand
	}
	return out
}

// YieldTrend classifies the yield series of an observation history.
func YieldTrend(obs []models.Observation) Trend { return Classify(yields(obs)) }

// PriceTrend classifies the price series of an observation history.
func PriceTrend(obs []models.Observation) Trend { return Classify(prices(obs)) }

// DemandTrend classifies the demand series of an observation history.
func DemandTrend(obs []models.Observation) Trend { return Classify(demands(obs)) }
