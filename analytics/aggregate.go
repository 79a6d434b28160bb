package analytics

import (
	"sort"

	"github.com/montanaflynn/stats"

	"agrimarket/models"
)

// CropStatistics is the per-crop summary view: record count, 2-decimal
// rounded means and trend labels over the full observation history.
type CropStatistics struct {
	TotalRecords  int     `json:"totalRecords"`
	AverageYield  float64 `json:"averageYield"`
	AveragePrice  float64 `json:"averagePrice"`
	AverageDemand float64 `json:"averageDemand"`
	YieldTrend    Trend   `json:"yieldTrend"`
	PriceTrend    Trend   `json:"priceTrend"`
}

// Statistics computes the summary view for one crop. Empty histories yield
// zeroed means and stable trends.
func Statistics(c *models.Crop) CropStatistics {
	obs := c.Observations
	if len(obs) == 0 {
		return CropStatistics{YieldTrend: TrendStable, PriceTrend: TrendStable}
	}

	avgYield, _ := stats.Mean(yields(obs))
	avgPrice, _ := stats.Mean(prices(obs))
	avgDemand, _ := stats.Mean(demands(obs))

	return CropStatistics{
		TotalRecords:  len(obs),
		AverageYield:  round2(avgYield),
		AveragePrice:  round2(avgPrice),
		AverageDemand: round2(avgDemand),
		YieldTrend:    YieldTrend(obs),
		PriceTrend:    PriceTrend(obs),
	}
}

// SeasonalStat holds per-month means over a crop's observations.
type SeasonalStat struct {
	AvgYield  float64 `json:"avgYield"`
	AvgPrice  float64 `json:"avgPrice"`
	AvgDemand float64 `json:"avgDemand"`
}

// SeasonalAnalysis groups observations by calendar month (1-12) and averages
// each populated month. Months with no observations are omitted.
func SeasonalAnalysis(obs []models.Observation) map[int]SeasonalStat {
	grouped := make(map[int][]models.Observation)
	for _, o := range obs {
		grouped[o.Month] = append(grouped[o.Month], o)
	}

	out := make(map[int]SeasonalStat, len(grouped))
	for month, monthObs := range grouped {
		avgYield, _ := stats.Mean(yields(monthObs))
		avgPrice, _ := stats.Mean(prices(monthObs))
		avgDemand, _ := stats.Mean(demands(monthObs))
		out[month] = SeasonalStat{AvgYield: avgYield, AvgPrice: avgPrice, AvgDemand: avgDemand}
	}
	return out
}

// CropAnalytics is the full per-crop bundle served by the analytics endpoint.
type CropAnalytics struct {
	BasicStats       CropStatistics       `json:"basicStats"`
	YieldTrend       Trend                `json:"yieldTrend"`
	PriceTrend       Trend                `json:"priceTrend"`
	DemandTrend      Trend                `json:"demandTrend"`
	SeasonalAnalysis map[int]SeasonalStat `json:"seasonalAnalysis"`
	Predictions      []models.Prediction  `json:"predictions"`
}

// AnalyzeCrop assembles the analytics bundle for one crop. Predictions are
// the 5 most recently appended, in append order.
func AnalyzeCrop(c *models.Crop) CropAnalytics {
	preds := c.Predictions
	if len(preds) > 5 {
		preds = preds[len(preds)-5:]
	}
	return CropAnalytics{
		BasicStats:       Statistics(c),
		YieldTrend:       YieldTrend(c.Observations),
		PriceTrend:       PriceTrend(c.Observations),
		DemandTrend:      DemandTrend(c.Observations),
		SeasonalAnalysis: SeasonalAnalysis(c.Observations),
		Predictions:      preds,
	}
}

// TopPerformer is one row of the top-performing-crops ranking.
type TopPerformer struct {
	Name         string            `json:"name"`
	AverageYield float64           `json:"averageYield"`
	AveragePrice float64           `json:"averagePrice"`
	MarketDemand models.DemandTier `json:"marketDemand"`
}

// PriceRange summarizes average prices across crops with recorded data.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// MarketOverview is the cross-crop aggregate bundle.
type MarketOverview struct {
	TotalCrops         int                       `json:"totalCrops"`
	CropTypes          map[models.CropType]int   `json:"cropTypes"`
	MarketDemand       map[models.DemandTier]int `json:"marketDemand"`
	TopPerformingCrops []TopPerformer            `json:"topPerformingCrops"`
	AverageYields      float64                   `json:"averageYields"`
	PriceRanges        PriceRange                `json:"priceRanges"`
}

// Overview computes the market-overview bundle over a crop collection.
func Overview(crops []models.Crop) MarketOverview {
	return MarketOverview{
		TotalCrops:         len(crops),
		CropTypes:          TypeDistribution(crops),
		MarketDemand:       DemandDistribution(crops),
		TopPerformingCrops: TopPerformers(crops),
		AverageYields:      AverageYieldAcross(crops),
		PriceRanges:        PriceRangeAcross(crops),
	}
}

// TypeDistribution counts crops per type.
func TypeDistribution(crops []models.Crop) map[models.CropType]int {
	dist := make(map[models.CropType]int)
	for _, c := range crops {
		dist[c.Type]++
	}
	return dist
}

// DemandDistribution counts crops per market-demand tier.
func DemandDistribution(crops []models.Crop) map[models.DemandTier]int {
	dist := make(map[models.DemandTier]int)
	for _, c := range crops {
		dist[c.MarketDemand]++
	}
	return dist
}

// TopPerformers ranks crops with at least one observation by average yield,
// descending, truncated to 5. Ties keep input order (stable sort).
func TopPerformers(crops []models.Crop) []TopPerformer {
	ranked := make([]models.Crop, 0, len(crops))
	for _, c := range crops {
		if len(c.Observations) > 0 {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AverageYield > ranked[j].AverageYield
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}

	out := make([]TopPerformer, len(ranked))
	for i, c := range ranked {
		out[i] = TopPerformer{
			Name:         c.Name,
			AverageYield: c.AverageYield,
			AveragePrice: c.AveragePrice,
			MarketDemand: c.MarketDemand,
		}
	}
	return out
}

// AverageYieldAcross averages AverageYield over crops with recorded
// observations; 0 if none qualify.
func AverageYieldAcross(crops []models.Crop) float64 {
	vals := derivedValues(crops, func(c models.Crop) float64 { return c.AverageYield })
	if len(vals) == 0 {
		return 0
	}
	avg, _ := stats.Mean(vals)
	return avg
}

// PriceRangeAcross computes min/max/avg of AveragePrice over crops with
// recorded observations; all zeros if none qualify.
func PriceRangeAcross(crops []models.Crop) PriceRange {
	vals := derivedValues(crops, func(c models.Crop) float64 { return c.AveragePrice })
	if len(vals) == 0 {
		return PriceRange{}
	}
	minP, _ := stats.Min(vals)
	maxP, _ := stats.Max(vals)
	avgP, _ := stats.Mean(vals)
	return PriceRange{Min: minP, Max: maxP, Avg: avgP}
}

func derivedValues(crops []models.Crop, field func(models.Crop) float64) []float64 {
	var vals []float64
	for _, c := range crops {
		if len(c.Observations) > 0 {
			vals = append(vals, field(c))
		}
	}
	return vals
}

func round2(v float64) float64 {
	r, _ := stats.Round(v, 2)
	return r
}
