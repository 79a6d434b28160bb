package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrimarket/models"
)

func TestFilterCrops(t *testing.T) {
	inactive := makeCrop("gone", models.CropTypeGrain, models.DemandLow)
	inactive.IsActive = false

	located := makeCrop("corn", models.CropTypeGrain, models.DemandHigh)
	located.Location = "North Valley"

	crops := []models.Crop{
		inactive,
		located,
		makeCrop("pea", models.CropTypeLegume, models.DemandLow),
	}

	assert.Len(t, FilterCrops(crops, models.ReportFilters{}), 2)

	byType := FilterCrops(crops, models.ReportFilters{CropType: models.CropTypeLegume})
	require.Len(t, byType, 1)
	assert.Equal(t, "pea", byType[0].Name)

	byDemand := FilterCrops(crops, models.ReportFilters{MarketDemand: models.DemandHigh})
	require.Len(t, byDemand, 1)
	assert.Equal(t, "corn", byDemand[0].Name)

	byLocation := FilterCrops(crops, models.ReportFilters{Location: "valley"})
	require.Len(t, byLocation, 1)
	assert.Equal(t, "corn", byLocation[0].Name)

	// inactive crops never pass, even when everything else matches
	assert.Empty(t, FilterCrops(crops, models.ReportFilters{CropType: models.CropTypeGrain, MarketDemand: models.DemandLow}))
}

func juneCrop(name string, ctype models.CropType, price, yld float64) models.Crop {
	return makeCrop(name, ctype, models.DemandMedium,
		models.Observation{Year: 2025, Month: 6, Yield: yld, Price: price, Demand: 50})
}

func TestSynthesize_MonthlyProducesFourDatasets(t *testing.T) {
	crops := []models.Crop{
		juneCrop("Tomato", models.CropTypeVegetable, 4, 10),
		juneCrop("Apple", models.CropTypeFruit, 6, 8),
		juneCrop("Wheat", models.CropTypeGrain, 2, 20),
	}

	datasets := Synthesize(crops, models.ReportTypeMonthly)

	require.Len(t, datasets, 4)
	assert.Equal(t, models.ChartTypeLine, datasets[0].ChartType)
	assert.Equal(t, models.ChartTypeBar, datasets[1].ChartType)
	assert.Equal(t, models.ChartTypePie, datasets[2].ChartType)
	assert.Equal(t, models.ChartTypeArea, datasets[3].ChartType)

	// pie slice values sum to the number of filtered crops
	slices, ok := datasets[2].Data.([]MarketSharePoint)
	require.True(t, ok)
	total := 0
	for _, s := range slices {
		total += s.Value
		assert.Contains(t, chartPalette, s.Color)
	}
	assert.Equal(t, len(crops), total)
}

func TestSynthesize_CustomProducesNoDatasets(t *testing.T) {
	crops := []models.Crop{juneCrop("Tomato", models.CropTypeVegetable, 4, 10)}
	assert.Empty(t, Synthesize(crops, models.ReportTypeCustom))
}

func TestPriceTrendData(t *testing.T) {
	crops := []models.Crop{
		makeCrop("Tomato", models.CropTypeVegetable, models.DemandMedium,
			models.Observation{Year: 2025, Month: 1, Yield: 10, Price: 4, Demand: 50},
			models.Observation{Year: 2025, Month: 3, Yield: 12, Price: 5, Demand: 55},
		),
		juneCrop("Apple", models.CropTypeFruit, 6, 8),
		juneCrop("Wheat", models.CropTypeGrain, 2, 20),
		juneCrop("Ignored", models.CropTypeOther, 9, 9), // beyond the first 3
	}

	rows := priceTrendData(crops)

	require.Len(t, rows, 6)
	assert.Equal(t, "Jan", rows[0]["month"])
	assert.Equal(t, 4.0, rows[0]["tomato"])
	assert.Equal(t, 0.0, rows[0]["apple"])
	assert.Equal(t, 5.0, rows[2]["tomato"])
	assert.Equal(t, 6.0, rows[5]["apple"])
	assert.Equal(t, 2.0, rows[5]["wheat"])
	assert.NotContains(t, rows[0], "ignored")
}

func TestYieldVsDemandData(t *testing.T) {
	crops := []models.Crop{
		makeCrop("Corn", models.CropTypeGrain, models.DemandHigh,
			models.Observation{Year: 2025, Month: 1, Yield: 10, Price: 3, Demand: 40},
			models.Observation{Year: 2025, Month: 2, Yield: 20, Price: 3, Demand: 60},
		),
		makeCrop("Bare", models.CropTypeGrain, models.DemandLow),
	}

	points := yieldVsDemandData(crops)

	require.Len(t, points, 2)
	assert.Equal(t, YieldDemandPoint{Crop: "Corn", Yield: 15, Demand: 50}, points[0])
	assert.Equal(t, YieldDemandPoint{Crop: "Bare", Yield: 0, Demand: 0}, points[1])
}

func TestProfitAnalysisData(t *testing.T) {
	crops := []models.Crop{
		juneCrop("Tomato", models.CropTypeVegetable, 5, 10),
		juneCrop("Apple", models.CropTypeFruit, 2, 4),
		makeCrop("Quiet", models.CropTypeGrain, models.DemandLow),
	}

	points := profitAnalysisData(crops)

	require.Len(t, points, 6)
	for _, p := range points[:5] {
		assert.Zero(t, p.Profit)
		assert.Zero(t, p.Cost)
	}
	june := points[5]
	assert.Equal(t, "Jun", june.Month)
	assert.InDelta(t, 5*10+2*4, june.Profit, 1e-9)
	assert.InDelta(t, 10*0.7+4*0.7, june.Cost, 1e-9)
}
