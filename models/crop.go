package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Closed enumerations for crop classification. Free-form strings are rejected
// at the handler boundary so the rest of the code can switch exhaustively.

type CropType string

const (
	CropTypeVegetable CropType = "vegetable"
	CropTypeFruit     CropType = "fruit"
	CropTypeGrain     CropType = "grain"
	CropTypeLegume    CropType = "legume"
	CropTypeOther     CropType = "other"
)

func (t CropType) Valid() bool {
	switch t {
	case CropTypeVegetable, CropTypeFruit, CropTypeGrain, CropTypeLegume, CropTypeOther:
		return true
	}
	return false
}

type Season string

const (
	SeasonSpring    Season = "spring"
	SeasonSummer    Season = "summer"
	SeasonAutumn    Season = "autumn"
	SeasonWinter    Season = "winter"
	SeasonYearRound Season = "year-round"
)

func (s Season) Valid() bool {
	switch s {
	case SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter, SeasonYearRound:
		return true
	}
	return false
}

// DemandTier doubles as the marketDemand classification on a crop and the
// demand filter on reports.
type DemandTier string

const (
	DemandLow    DemandTier = "low"
	DemandMedium DemandTier = "medium"
	DemandHigh   DemandTier = "high"
)

func (d DemandTier) Valid() bool {
	switch d {
	case DemandLow, DemandMedium, DemandHigh:
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type WaterRequirement string

const (
	WaterLow    WaterRequirement = "low"
	WaterMedium WaterRequirement = "medium"
	WaterHigh   WaterRequirement = "high"
)

func (w WaterRequirement) Valid() bool {
	switch w {
	case WaterLow, WaterMedium, WaterHigh:
		return true
	}
	return false
}

// Observation — one recorded month of yield/price/demand for a crop.
// Immutable once appended; insertion order is assumed chronological.
type Observation struct {
	Year         int      `bson:"year"                   json:"year"`
	Month        int      `bson:"month"                  json:"month"`
	Yield        float64  `bson:"yield"                  json:"yield"`
	Price        float64  `bson:"price"                  json:"price"`
	Demand       float64  `bson:"demand"                 json:"demand"`
	WeatherScore *float64 `bson:"weatherScore,omitempty" json:"weatherScore,omitempty"`
	SoilScore    *float64 `bson:"soilScore,omitempty"    json:"soilScore,omitempty"`
}

// Prediction — one forecast entry appended to a crop.
type Prediction struct {
	Date           time.Time         `bson:"date"           json:"date"`
	PredictedYield float64           `bson:"predictedYield" json:"predictedYield"`
	PredictedPrice float64           `bson:"predictedPrice" json:"predictedPrice"`
	Confidence     float64           `bson:"confidence"     json:"confidence"`
	Factors        PredictionFactors `bson:"factors"        json:"factors"`
}

type PredictionFactors struct {
	Weather    float64 `bson:"weather"    json:"weather"`
	Market     float64 `bson:"market"     json:"market"`
	Historical float64 `bson:"historical" json:"historical"`
}

// Crop — main crop card with classification, embedded time series and
// derived averages.
type Crop struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"         json:"id"`
	Name        string             `bson:"name"                  json:"name"`
	Type        CropType           `bson:"type"                  json:"type"`
	Variety     string             `bson:"variety,omitempty"     json:"variety,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Season      Season             `bson:"season"                json:"season"`

	PlantingMonths []int `bson:"plantingMonths,omitempty" json:"plantingMonths,omitempty"`
	HarvestMonths  []int `bson:"harvestMonths,omitempty"  json:"harvestMonths,omitempty"`

	Observations []Observation `bson:"observations,omitempty" json:"observations,omitempty"`
	Predictions  []Prediction  `bson:"predictions,omitempty"  json:"predictions,omitempty"`

	// Derived; recomputed via RecalcAverages before every save.
	AverageYield float64 `bson:"averageYield" json:"averageYield"`
	AveragePrice float64 `bson:"averagePrice" json:"averagePrice"`

	MarketDemand     DemandTier       `bson:"marketDemand"     json:"marketDemand"`
	Difficulty       Difficulty       `bson:"difficulty"       json:"difficulty"`
	WaterRequirement WaterRequirement `bson:"waterRequirement" json:"waterRequirement"`

	Location string `bson:"location,omitempty" json:"location,omitempty"`

	IsActive  bool               `bson:"isActive"  json:"isActive"`
	CreatedBy primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Injected-only (NOT stored in Mongo): populated owner projection.
	Owner *OwnerRef `bson:"-" json:"owner,omitempty"`
}

// RecalcAverages restores the invariant that AverageYield/AveragePrice equal
// the arithmetic mean over Observations (0 when empty). Callers must invoke
// it before persisting any mutation of Observations.
func (c *Crop) RecalcAverages() {
	if len(c.Observations) == 0 {
		c.AverageYield = 0
		c.AveragePrice = 0
		return
	}
	var sumYield, sumPrice float64
	for _, o := range c.Observations {
		sumYield += o.Yield
		sumPrice += o.Price
	}
	n := float64(len(c.Observations))
	c.AverageYield = sumYield / n
	c.AveragePrice = sumPrice / n
}
