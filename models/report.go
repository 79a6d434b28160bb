package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportStatus — lifecycle of an asynchronously generated report.
// generating is the only initial state; completed and failed are terminal.
type ReportStatus string

const (
	ReportStatusGenerating ReportStatus = "generating"
	ReportStatusCompleted  ReportStatus = "completed"
	ReportStatusFailed     ReportStatus = "failed"
)

type ReportType string

const (
	ReportTypeMonthly   ReportType = "monthly"
	ReportTypeQuarterly ReportType = "quarterly"
	ReportTypeAnnual    ReportType = "annual"
	ReportTypeCustom    ReportType = "custom"
)

func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeMonthly, ReportTypeQuarterly, ReportTypeAnnual, ReportTypeCustom:
		return true
	}
	return false
}

type ChartType string

const (
	ChartTypeLine ChartType = "line"
	ChartTypeBar  ChartType = "bar"
	ChartTypePie  ChartType = "pie"
	ChartTypeArea ChartType = "area"
)

// ChartDataset — one named, typed aggregation result intended for a chart.
// Data is an opaque payload whose shape depends on ChartType.
type ChartDataset struct {
	ChartType   ChartType `bson:"chartType"             json:"chartType"`
	Title       string    `bson:"title"                 json:"title"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Data        any       `bson:"data"                  json:"data"`
}

// ReportFilters — crop selection criteria snapshotted at generation time.
// The snapshot reflects the crop collection as it existed when the report
// was generated; later crop mutations do not touch it.
type ReportFilters struct {
	CropType     CropType   `bson:"cropType,omitempty"     json:"cropType,omitempty"`
	MarketDemand DemandTier `bson:"marketDemand,omitempty" json:"marketDemand,omitempty"`
	Location     string     `bson:"location,omitempty"     json:"location,omitempty"`
	DateRange    *DateRange `bson:"dateRange,omitempty"    json:"dateRange,omitempty"`
}

type DateRange struct {
	Start time.Time `bson:"start" json:"start"`
	End   time.Time `bson:"end"   json:"end"`
}

// Report — persisted, asynchronously computed bundle of chart datasets.
// ReportData is populated only when Status is completed.
type Report struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"         json:"id"`
	Title         string             `bson:"title"                 json:"title"`
	Type          ReportType         `bson:"type"                  json:"type"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	ReportData    []ChartDataset     `bson:"reportData,omitempty"  json:"reportData,omitempty"`
	Filters       ReportFilters      `bson:"filters"               json:"filters"`
	GeneratedBy   primitive.ObjectID `bson:"generatedBy"           json:"generatedBy"`
	Status        ReportStatus       `bson:"status"                json:"status"`
	DownloadCount int                `bson:"downloadCount"         json:"downloadCount"`
	IsPublic      bool               `bson:"isPublic"              json:"isPublic"`
	CreatedAt     time.Time          `bson:"createdAt"             json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"             json:"updatedAt"`

	// Injected-only (NOT stored in Mongo): populated owner projection.
	Owner *OwnerRef `bson:"-" json:"owner,omitempty"`
}
