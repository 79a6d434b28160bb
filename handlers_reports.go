package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agrimarket/analytics"
	"agrimarket/models"
)

// handleGenerateReport creates a report in generating state and kicks off
// the synthesis pipeline in the background. The response does not wait for
// the pipeline; callers poll the report until it reaches a terminal state.
func (a *App) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	me := mustIdentity(r)

	var req generateReportReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	title := strings.TrimSpace(req.Title)
	if len(title) < 3 || len(title) > 100 {
		writeError(w, http.StatusBadRequest, "title must be between 3 and 100 characters")
		return
	}
	if !req.Type.Valid() {
		writeError(w, http.StatusBadRequest, "invalid report type")
		return
	}
	if req.Filters.CropType != "" && !req.Filters.CropType.Valid() {
		writeError(w, http.StatusBadRequest, "invalid cropType filter")
		return
	}
	if req.Filters.MarketDemand != "" && !req.Filters.MarketDemand.Valid() {
		writeError(w, http.StatusBadRequest, "invalid marketDemand filter")
		return
	}

	now := time.Now()
	rep := models.Report{
		Title:       title,
		Type:        req.Type,
		Description: req.Description,
		Filters:     req.Filters,
		GeneratedBy: me.ID,
		Status:      models.ReportStatusGenerating,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	res, err := a.reports.InsertOne(ctx, &rep)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	rep.ID = res.InsertedID.(primitive.ObjectID)

	go a.runReportPipeline(rep.ID, rep.Filters, rep.Type)

	writeCreated(w, bson.M{"report": reportStub{
		ID:        rep.ID.Hex(),
		Title:     rep.Title,
		Type:      rep.Type,
		Status:    rep.Status,
		CreatedAt: rep.CreatedAt,
	}})
}

// runReportPipeline reads the crop snapshot, synthesizes chart datasets and
// writes the terminal status back. It runs detached from the originating
// request and is never retried.
func (a *App) runReportPipeline(id primitive.ObjectID, filters models.ReportFilters, rtype models.ReportType) {
	a.finishReport(id, a.buildReportUpdate(id, filters, rtype))
}

// buildReportUpdate produces the terminal $set document for a report. Any
// failure, including a panic out of the synthesis code, yields the failed
// update with no data.
func (a *App) buildReportUpdate(id primitive.ObjectID, filters models.ReportFilters, rtype models.ReportType) (update bson.M) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("report %s: pipeline panic: %v", id.Hex(), rec)
			update = reportCompletionUpdate(nil, errPipelinePanic)
		}
	}()

	// No deadline: once started, the pipeline runs to completion or failure.
	crops, err := a.fetchActiveCrops(context.Background())
	if err != nil {
		log.Printf("report %s: crop fetch: %v", id.Hex(), err)
		return reportCompletionUpdate(nil, err)
	}

	datasets := analytics.Synthesize(analytics.FilterCrops(crops, filters), rtype)
	return reportCompletionUpdate(datasets, nil)
}

var errPipelinePanic = errors.New("pipeline panic")

// reportCompletionUpdate builds the terminal $set document. On failure the
// report flips to failed and reportData is never touched, so no partial
// payload can be persisted.
func reportCompletionUpdate(datasets []models.ChartDataset, genErr error) bson.M {
	if genErr != nil {
		return bson.M{"$set": bson.M{
			"status":    models.ReportStatusFailed,
			"updatedAt": time.Now(),
		}}
	}
	return bson.M{"$set": bson.M{
		"status":     models.ReportStatusCompleted,
		"reportData": datasets,
		"updatedAt":  time.Now(),
	}}
}

func (a *App) finishReport(id primitive.ObjectID, update bson.M) {
	ctx := context.Background()
	if _, err := a.reports.UpdateByID(ctx, id, update); err != nil {
		log.Printf("report %s: status update: %v", id.Hex(), err)
	}
}

// handleListMyReports returns the caller's reports, newest first, paginated.
func (a *App) handleListMyReports(w http.ResponseWriter, r *http.Request) {
	me := mustIdentity(r)
	page, limit := pageParams(r)

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	filter := bson.M{"generatedBy": me.ID}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cur, err := a.reports.Find(ctx, filter, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var out []models.Report
	if err := cur.All(ctx, &out); err != nil {
		writeError(w, http.StatusInternalServerError, "decode error")
		return
	}
	a.populateReportOwners(ctx, out)

	total, _ := a.reports.CountDocuments(ctx, filter)
	writeOK(w, bson.M{"reports": out, "pagination": paginate(page, limit, total)})
}

// handleGetReport returns a full report including status and, once
// completed, the chart datasets. Owner or admin only.
func (a *App) handleGetReport(w http.ResponseWriter, r *http.Request) {
	me := mustIdentity(r)
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var rep models.Report
	if err := a.reports.FindOne(ctx, bson.M{"_id": oid}).Decode(&rep); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if !me.canManage(rep.GeneratedBy) {
		writeError(w, http.StatusForbidden, "not authorized to view this report")
		return
	}
	rep.Owner = a.ownerRef(ctx, rep.GeneratedBy)
	writeOK(w, rep)
}

// handleDownloadReport bumps the download counter. Owner or admin only.
func (a *App) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	me := mustIdentity(r)
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var rep models.Report
	if err := a.reports.FindOne(ctx, bson.M{"_id": oid}).Decode(&rep); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if !me.canManage(rep.GeneratedBy) {
		writeError(w, http.StatusForbidden, "not authorized to download this report")
		return
	}

	res := a.reports.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{
			"$inc": bson.M{"downloadCount": 1},
			"$set": bson.M{"updatedAt": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err := res.Decode(&rep); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeOK(w, bson.M{"report": downloadResp{
		ID:            rep.ID.Hex(),
		Title:         rep.Title,
		DownloadCount: rep.DownloadCount,
	}})
}

// handleDeleteReport removes a report. Owner or admin only.
func (a *App) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	me := mustIdentity(r)
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var rep models.Report
	if err := a.reports.FindOne(ctx, bson.M{"_id": oid}).Decode(&rep); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if !me.canManage(rep.GeneratedBy) {
		writeError(w, http.StatusForbidden, "not authorized to delete this report")
		return
	}

	if _, err := a.reports.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	writeOK(w, bson.M{"deleted": true})
}

// handleListAllReports returns every report, newest first. Admin only.
func (a *App) handleListAllReports(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cur, err := a.reports.Find(ctx, bson.M{}, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var out []models.Report
	if err := cur.All(ctx, &out); err != nil {
		writeError(w, http.StatusInternalServerError, "decode error")
		return
	}
	a.populateReportOwners(ctx, out)

	total, _ := a.reports.CountDocuments(ctx, bson.M{})
	writeOK(w, bson.M{"reports": out, "pagination": paginate(page, limit, total)})
}

// populateReportOwners attaches owner projections to a report list with a
// single users query.
func (a *App) populateReportOwners(ctx context.Context, reports []models.Report) {
	if len(reports) == 0 {
		return
	}
	ids := make([]primitive.ObjectID, 0, len(reports))
	seen := make(map[primitive.ObjectID]bool, len(reports))
	for _, rep := range reports {
		if !seen[rep.GeneratedBy] {
			seen[rep.GeneratedBy] = true
			ids = append(ids, rep.GeneratedBy)
		}
	}

	cur, err := a.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1, "email": 1}),
	)
	if err != nil {
		return
	}
	defer cur.Close(ctx)

	var refs []models.OwnerRef
	if err := cur.All(ctx, &refs); err != nil {
		return
	}
	byID := make(map[primitive.ObjectID]*models.OwnerRef, len(refs))
	for i := range refs {
		byID[refs[i].ID] = &refs[i]
	}
	for i := range reports {
		reports[i].Owner = byID[reports[i].GeneratedBy]
	}
}
