package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agrimarket/analytics"
	"agrimarket/models"
)

// handleListCrops returns active crops with optional type/season/demand
// filters and free-text search, newest first, paginated.
func (a *App) handleListCrops(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	q := r.URL.Query()

	filter := bson.M{"isActive": true}
	if t := q.Get("type"); t != "" {
		filter["type"] = t
	}
	if s := q.Get("season"); s != "" {
		filter["season"] = s
	}
	if d := q.Get("marketDemand"); d != "" {
		filter["marketDemand"] = d
	}
	if search := q.Get("search"); search != "" {
		filter["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": search, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cur, err := a.crops.Find(ctx, filter, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var out []models.Crop
	if err := cur.All(ctx, &out); err != nil {
		writeError(w, http.StatusInternalServerError, "decode error")
		return
	}
	a.populateCropOwners(ctx, out)

	total, _ := a.crops.CountDocuments(ctx, filter)
	writeOK(w, bson.M{"crops": out, "pagination": paginate(page, limit, total)})
}

// handleCreateCrop inserts a new crop owned by the caller.
func (a *App) handleCreateCrop(w http.ResponseWriter, r *http.Request) {
	me := mustIdentity(r)

	var req createCropReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if msg := validateCropReq(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	now := time.Now()
	c := models.Crop{
		Name:             strings.TrimSpace(req.Name),
		Type:             req.Type,
		Variety:          req.Variety,
		Description:      req.Description,
		Season:           req.Season,
		PlantingMonths:   req.PlantingMonths,
		HarvestMonths:    req.HarvestMonths,
		MarketDemand:     req.MarketDemand,
		Difficulty:       req.Difficulty,
		WaterRequirement: req.WaterRequirement,
		Location:         req.Location,
		IsActive:         true,
		CreatedBy:        me.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	c.RecalcAverages()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	res, err := a.crops.InsertOne(ctx, &c)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			writeError(w, http.StatusConflict, "crop name already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	c.Owner = a.ownerRef(ctx, me.ID)
	writeCreated(w, c)
}

// handleGetCrop returns a single crop by id.
func (a *App) handleGetCrop(w http.ResponseWriter, r *http.Request) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var c models.Crop
	if err := a.crops.FindOne(ctx, bson.M{"_id": oid}).Decode(&c); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	c.Owner = a.ownerRef(ctx, c.CreatedBy)
	writeOK(w, c)
}

// handleUpdateCrop updates classification fields. Owner or admin only.
func (a *App) handleUpdateCrop(w http.ResponseWriter, r *http.Request) {
	me := mustIdentity(r)
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}

	var req createCropReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	var c models.Crop
	if err := a.crops.FindOne(ctx, bson.M{"_id": oid}).Decode(&c); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if !me.canManage(c.CreatedBy) {
		writeError(w, http.StatusForbidden, "not authorized to update this crop")
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if req.Name != "" {
		set["name"] = strings.TrimSpace(req.Name)
	}
	if req.Type != "" {
		if !req.Type.Valid() {
			writeError(w, http.StatusBadRequest, "invalid crop type")
			return
		}
		set["type"] = req.Type
	}
	if req.Season != "" {
		if !req.Season.Valid() {
			writeError(w, http.StatusBadRequest, "invalid season")
			return
		}
		set["season"] = req.Season
	}
	if req.MarketDemand != "" {
		if !req.MarketDemand.Valid() {
			writeError(w, http.StatusBadRequest, "invalid market demand")
			return
		}
		set["marketDemand"] = req.MarketDemand
	}
	if req.Difficulty != "" {
		if !req.Difficulty.Valid() {
			writeError(w, http.StatusBadRequest, "invalid difficulty")
			return
		}
		set["difficulty"] = req.Difficulty
	}
	if req.WaterRequirement != "" {
		if !req.WaterRequirement.Valid() {
			writeError(w, http.StatusBadRequest, "invalid water requirement")
			return
		}
		set["waterRequirement"] = req.WaterRequirement
	}
	if req.Variety != "" {
		set["variety"] = req.Variety
	}
	if req.Description != "" {
		set["description"] = req.Description
	}
	if req.Location != "" {
		set["location"] = req.Location
	}
	if len(req.PlantingMonths) > 0 {
		set["plantingMonths"] = req.PlantingMonths
	}
	if len(req.HarvestMonths) > 0 {
		set["harvestMonths"] = req.HarvestMonths
	}
	if len(set) == 1 {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	res := a.crops.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var out models.Crop
	if err := res.Decode(&out); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	out.Owner = a.ownerRef(ctx, out.CreatedBy)
	writeOK(w, out)
}

// handleDeleteCrop removes a crop. Owner or admin only.
func (a *App) handleDeleteCrop(w http.ResponseWriter, r *http.Request) {
	me := mustIdentity(r)
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var c models.Crop
	if err := a.crops.FindOne(ctx, bson.M{"_id": oid}).Decode(&c); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if !me.canManage(c.CreatedBy) {
		writeError(w, http.StatusForbidden, "not authorized to delete this crop")
		return
	}

	if _, err := a.crops.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	writeOK(w, bson.M{"deleted": true})
}

// handleAddObservation appends one observation to a crop's history and
// recomputes the derived averages. Owner or admin only.
func (a *App) handleAddObservation(w http.ResponseWriter, r *http.Request) {
	me := mustIdentity(r)
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}

	var obs models.Observation
	if err := json.NewDecoder(r.Body).Decode(&obs); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if msg := validateObservation(&obs); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	var c models.Crop
	if err := a.crops.FindOne(ctx, bson.M{"_id": oid}).Decode(&c); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if !me.canManage(c.CreatedBy) {
		writeError(w, http.StatusForbidden, "not authorized to modify this crop")
		return
	}

	c.Observations = append(c.Observations, obs)
	c.RecalcAverages()

	res := a.crops.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"observations": c.Observations,
			"averageYield": c.AverageYield,
			"averagePrice": c.AveragePrice,
			"updatedAt":    time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var out models.Crop
	if err := res.Decode(&out); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeOK(w, out)
}

// handleAddPrediction appends one prediction. Owner or admin only.
func (a *App) handleAddPrediction(w http.ResponseWriter, r *http.Request) {
	me := mustIdentity(r)
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}

	var pred models.Prediction
	if err := json.NewDecoder(r.Body).Decode(&pred); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if msg := validatePrediction(&pred); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	var c models.Crop
	if err := a.crops.FindOne(ctx, bson.M{"_id": oid}).Decode(&c); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if !me.canManage(c.CreatedBy) {
		writeError(w, http.StatusForbidden, "not authorized to modify this crop")
		return
	}

	res := a.crops.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{
			"$push": bson.M{"predictions": pred},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var out models.Crop
	if err := res.Decode(&out); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeOK(w, out)
}

// handleCropAnalytics returns the per-crop analytics bundle.
func (a *App) handleCropAnalytics(w http.ResponseWriter, r *http.Request) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var c models.Crop
	if err := a.crops.FindOne(ctx, bson.M{"_id": oid}).Decode(&c); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeOK(w, analytics.AnalyzeCrop(&c))
}

// handleMarketOverview returns cross-crop aggregates over active crops.
func (a *App) handleMarketOverview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	cur, err := a.crops.Find(ctx, bson.M{"isActive": true})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var crops []models.Crop
	if err := cur.All(ctx, &crops); err != nil {
		writeError(w, http.StatusInternalServerError, "decode error")
		return
	}
	writeOK(w, analytics.Overview(crops))
}

// ---- helpers ----

func validateCropReq(req *createCropReq) string {
	name := strings.TrimSpace(req.Name)
	if len(name) < 2 || len(name) > 50 {
		return "crop name must be between 2 and 50 characters"
	}
	if !req.Type.Valid() {
		return "invalid crop type"
	}
	if !req.Season.Valid() {
		return "invalid season"
	}
	if req.MarketDemand == "" {
		req.MarketDemand = models.DemandMedium
	} else if !req.MarketDemand.Valid() {
		return "invalid market demand"
	}
	if req.Difficulty == "" {
		req.Difficulty = models.DifficultyMedium
	} else if !req.Difficulty.Valid() {
		return "invalid difficulty"
	}
	if req.WaterRequirement == "" {
		req.WaterRequirement = models.WaterMedium
	} else if !req.WaterRequirement.Valid() {
		return "invalid water requirement"
	}
	for _, m := range req.PlantingMonths {
		if m < 1 || m > 12 {
			return "planting months must be between 1 and 12"
		}
	}
	for _, m := range req.HarvestMonths {
		if m < 1 || m > 12 {
			return "harvest months must be between 1 and 12"
		}
	}
	if len(req.Description) > 500 {
		return "description cannot exceed 500 characters"
	}
	return ""
}

func validateObservation(o *models.Observation) string {
	if o.Year == 0 {
		return "year is required"
	}
	if o.Month < 1 || o.Month > 12 {
		return "month must be between 1 and 12"
	}
	if o.Yield < 0 {
		return "yield must be non-negative"
	}
	if o.Price < 0 {
		return "price must be non-negative"
	}
	if o.Demand < 0 || o.Demand > 100 {
		return "demand must be between 0 and 100"
	}
	if o.WeatherScore != nil && (*o.WeatherScore < 0 || *o.WeatherScore > 10) {
		return "weatherScore must be between 0 and 10"
	}
	if o.SoilScore != nil && (*o.SoilScore < 0 || *o.SoilScore > 10) {
		return "soilScore must be between 0 and 10"
	}
	return ""
}

func validatePrediction(p *models.Prediction) string {
	if p.Date.IsZero() {
		return "date is required"
	}
	if p.PredictedYield < 0 {
		return "predictedYield must be non-negative"
	}
	if p.PredictedPrice < 0 {
		return "predictedPrice must be non-negative"
	}
	if p.Confidence < 0 || p.Confidence > 100 {
		return "confidence must be between 0 and 100"
	}
	for _, f := range []float64{p.Factors.Weather, p.Factors.Market, p.Factors.Historical} {
		if f < 0 || f > 10 {
			return "factors must be between 0 and 10"
		}
	}
	return ""
}

// ownerRef loads the {id, name, email} projection for one owner. Returns nil
// when the owner document is gone.
func (a *App) ownerRef(ctx context.Context, id primitive.ObjectID) *models.OwnerRef {
	var ref models.OwnerRef
	err := a.users.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"name": 1, "email": 1}),
	).Decode(&ref)
	if err != nil {
		return nil
	}
	return &ref
}

// populateCropOwners attaches owner projections to a crop list with a single
// users query.
func (a *App) populateCropOwners(ctx context.Context, crops []models.Crop) {
	if len(crops) == 0 {
		return
	}
	ids := make([]primitive.ObjectID, 0, len(crops))
	seen := make(map[primitive.ObjectID]bool, len(crops))
	for _, c := range crops {
		if !seen[c.CreatedBy] {
			seen[c.CreatedBy] = true
			ids = append(ids, c.CreatedBy)
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
	for i := range crops {
		crops[i].Owner = byID[crops[i].CreatedBy]
	}
}
