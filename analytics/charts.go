package analytics

import (
	"math/rand"
	"strings"

	"github.com/montanaflynn/stats"

	"agrimarket/models"
)

// First-half calendar labels used by the price-trend and profit charts.
var chartMonths = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"}

// Palette for pie slices. A color is drawn uniformly at random per slice,
// matching chart libraries that restyle on every generation.
var chartPalette = []string{"#8884d8", "#82ca9d", "#ffc658", "#ff7300", "#00ff00", "#ff00ff"}

// YieldDemandPoint is one bar of the yield-vs-demand chart.
type YieldDemandPoint struct {
	Crop   string  `json:"crop" bson:"crop"`
	Yield  float64 `json:"yield" bson:"yield"`
	Demand float64 `json:"demand" bson:"demand"`
}

// MarketSharePoint is one slice of the market-share pie.
type MarketSharePoint struct {
	Name  string `json:"name" bson:"name"`
	Value int    `json:"value" bson:"value"`
	Color string `json:"color" bson:"color"`
}

// ProfitPoint is one month of the profit-analysis area chart.
type ProfitPoint struct {
	Month  string  `json:"month" bson:"month"`
	Profit float64 `json:"profit" bson:"profit"`
	Cost   float64 `json:"cost" bson:"cost"`
}

// FilterCrops applies report filter criteria to a crop collection: active
// crops only, exact type and demand-tier match, case-insensitive location
// substring match.
func FilterCrops(crops []models.Crop, f models.ReportFilters) []models.Crop {
	out := make([]models.Crop, 0, len(crops))
	for _, c := range crops {
		if !c.IsActive {
			continue
		}
		if f.CropType != "" && c.Type != f.CropType {
			continue
		}
		if f.MarketDemand != "" && c.MarketDemand != f.MarketDemand {
			continue
		}
		if f.Location != "" && !strings.Contains(strings.ToLower(c.Location), strings.ToLower(f.Location)) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Synthesize assembles the chart datasets for a report over an already
// filtered crop collection. Monthly, quarterly and annual reports produce
// four datasets in fixed order (line, bar, pie, area); the custom type
// produces none.
func Synthesize(crops []models.Crop, reportType models.ReportType) []models.ChartDataset {
	datasets := []models.ChartDataset{}

	switch reportType {
	case models.ReportTypeMonthly, models.ReportTypeQuarterly, models.ReportTypeAnnual:
		datasets = append(datasets,
			models.ChartDataset{
				ChartType:   models.ChartTypeLine,
				Title:       "Price Trends",
				Description: "Monthly price changes for key crops",
				Data:        priceTrendData(crops),
			},
			models.ChartDataset{
				ChartType:   models.ChartTypeBar,
				Title:       "Yield vs Demand",
				Description: "Current yield compared to market demand",
				Data:        yieldVsDemandData(crops),
			},
			models.ChartDataset{
				ChartType:   models.ChartTypePie,
				Title:       "Market Share",
				Description: "Distribution of crops in portfolio",
				Data:        marketShareData(crops),
			},
			models.ChartDataset{
				ChartType:   models.ChartTypeArea,
				Title:       "Profit Analysis",
				Description: "Monthly profit vs cost breakdown",
				Data:        profitAnalysisData(crops),
			},
		)
	}

	return datasets
}

// priceTrendData builds one row per chart month with the per-crop price for
// that month (0 when unobserved), keyed by lowercased crop name. Only the
// first 3 crops of the collection are plotted.
func priceTrendData(crops []models.Crop) []map[string]any {
	plotted := crops
	if len(plotted) > 3 {
		plotted = plotted[:3]
	}

	rows := make([]map[string]any, 0, len(chartMonths))
	for i, label := range chartMonths {
		row := map[string]any{"month": label}
		for _, c := range plotted {
			price := 0.0
			if obs, ok := observationForMonth(c.Observations, i+1); ok {
				price = obs.Price
			}
			row[strings.ToLower(c.Name)] = price
		}
		rows = append(rows, row)
	}
	return rows
}

// yieldVsDemandData pairs average yield with mean observed demand for up to
// the first 5 crops.
func yieldVsDemandData(crops []models.Crop) []YieldDemandPoint {
	plotted := crops
	if len(plotted) > 5 {
		plotted = plotted[:5]
	}

	out := make([]YieldDemandPoint, len(plotted))
	for i, c := range plotted {
		demand := 0.0
		if len(c.Observations) > 0 {
			demand, _ = stats.Mean(demands(c.Observations))
		}
		out[i] = YieldDemandPoint{Crop: c.Name, Yield: c.AverageYield, Demand: demand}
	}
	return out
}

// marketShareData re-expresses the crop-type distribution as pie slices.
func marketShareData(crops []models.Crop) []MarketSharePoint {
	dist := TypeDistribution(crops)
	out := make([]MarketSharePoint, 0, len(dist))
	for name, count := range dist {
		out = append(out, MarketSharePoint{
			Name:  string(name),
			Value: count,
			Color: chartPalette[rand.Intn(len(chartPalette))],
		})
	}
	return out
}

// profitAnalysisData sums price*yield as profit and yield*0.7 as cost per
// chart month over every crop with an observation in that month.
func profitAnalysisData(crops []models.Crop) []ProfitPoint {
	out := make([]ProfitPoint, 0, len(chartMonths))
	for i, label := range chartMonths {
		point := ProfitPoint{Month: label}
		for _, c := range crops {
			if obs, ok := observationForMonth(c.Observations, i+1); ok {
				point.Profit += obs.Price * obs.Yield
				point.Cost += obs.Yield * 0.7
			}
		}
		out = append(out, point)
	}
	return out
}

// observationForMonth returns the first observation recorded for a calendar
// month, if any.
func observationForMonth(obs []models.Observation, month int) (models.Observation, bool) {
	for _, o := range obs {
		if o.Month == month {
			return o, true
		}
	}
	return models.Observation{}, false
}
