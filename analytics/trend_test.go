package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"agrimarket/models"
)

func TestClassify_ShortSeries(t *testing.T) {
	assert.Equal(t, TrendStable, Classify(nil))
	assert.Equal(t, TrendStable, Classify([]float64{}))
	assert.Equal(t, TrendStable, Classify([]float64{42}))
}

func TestClassify_ConstantSeries(t *testing.T) {
	assert.Equal(t, TrendStable, Classify([]float64{7, 7, 7, 7, 7, 7}))
}

func TestClassify_Increasing(t *testing.T) {
	// older window averages 10, recent window averages 20: +100%
	assert.Equal(t, TrendIncreasing, Classify([]float64{10, 10, 10, 20, 20, 20}))
}

func TestClassify_Decreasing(t *testing.T) {
	assert.Equal(t, TrendDecreasing, Classify([]float64{20, 20, 20, 10, 10, 10}))
}

func TestClassify_WithinThresholdIsStable(t *testing.T) {
	// +4% change stays inside the ±5% band
	assert.Equal(t, TrendStable, Classify([]float64{100, 100, 100, 104, 104, 104}))
}

func TestClassify_ZeroOlderMean(t *testing.T) {
	// early window averaging 0 must not divide; defined as stable
	assert.Equal(t, TrendStable, Classify([]float64{0, 0, 0, 5, 5, 5}))
}

func TestClassify_OverlappingWindows(t *testing.T) {
	// with 4 samples the two 3-sample windows share the middle values:
	// older = [10,10,20] (13.33), recent = [10,20,20] (16.67) -> +25%
	assert.Equal(t, TrendIncreasing, Classify([]float64{10, 10, 20, 20}))

	// both windows cover the whole series when it has 2 samples
	assert.Equal(t, TrendStable, Classify([]float64{10, 20}))
}

func TestFieldTrends(t *testing.T) {
	obs := []models.Observation{
		{Year: 2025, Month: 1, Yield: 10, Price: 30, Demand: 50},
		{Year: 2025, Month: 2, Yield: 10, Price: 28, Demand: 50},
		{Year: 2025, Month: 3, Yield: 10, Price: 26, Demand: 50},
		{Year: 2025, Month: 4, Yield: 20, Price: 24, Demand: 51},
		{Year: 2025, Month: 5, Yield: 20, Price: 22, Demand: 51},
		{Year: 2025, Month: 6, Yield: 20, Price: 20, Demand: 51},
	}
	assert.Equal(t, TrendIncreasing, YieldTrend(obs))
	assert.Equal(t, TrendDecreasing, PriceTrend(obs))
	assert.Equal(t, TrendStable, DemandTrend(obs))
}
