package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"agrimarket/models"
)

func TestReportCompletionUpdate_Success(t *testing.T) {
	datasets := []models.ChartDataset{
		{ChartType: models.ChartTypeLine, Title: "Price Trends"},
		{ChartType: models.ChartTypeBar, Title: "Yield vs Demand"},
	}

	update := reportCompletionUpdate(datasets, nil)

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, models.ReportStatusCompleted, set["status"])
	assert.Equal(t, datasets, set["reportData"])
	assert.Contains(t, set, "updatedAt")
}

func TestReportCompletionUpdate_FailureNeverCarriesData(t *testing.T) {
	// even if synthesis produced partial datasets before erroring, a failed
	// report must not persist any of them
	update := reportCompletionUpdate(
		[]models.ChartDataset{{ChartType: models.ChartTypePie}},
		errors.New("boom"),
	)

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, models.ReportStatusFailed, set["status"])
	assert.NotContains(t, set, "reportData")
}

func TestBuildReportUpdate_FetchErrorFailsReport(t *testing.T) {
	app := &App{
		fetchActiveCrops: func(context.Context) ([]models.Crop, error) {
			return nil, errors.New("connection reset")
		},
	}

	update := app.buildReportUpdate(primitive.NewObjectID(), models.ReportFilters{}, models.ReportTypeMonthly)

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, models.ReportStatusFailed, set["status"])
	assert.NotContains(t, set, "reportData")
}

func TestBuildReportUpdate_Success(t *testing.T) {
	app := &App{
		fetchActiveCrops: func(context.Context) ([]models.Crop, error) {
			return []models.Crop{{
				Name:         "Wheat",
				Type:         models.CropTypeGrain,
				MarketDemand: models.DemandHigh,
				IsActive:     true,
			}}, nil
		},
	}

	update := app.buildReportUpdate(primitive.NewObjectID(), models.ReportFilters{}, models.ReportTypeMonthly)

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, models.ReportStatusCompleted, set["status"])
	datasets, ok := set["reportData"].([]models.ChartDataset)
	require.True(t, ok)
	require.Len(t, datasets, 4)
}

func TestBuildReportUpdate_PanicFailsReport(t *testing.T) {
	app := &App{
		fetchActiveCrops: func(context.Context) ([]models.Crop, error) {
			panic("cursor gone")
		},
	}

	update := app.buildReportUpdate(primitive.NewObjectID(), models.ReportFilters{}, models.ReportTypeAnnual)

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, models.ReportStatusFailed, set["status"])
	assert.NotContains(t, set, "reportData")
}
