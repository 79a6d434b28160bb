package main

import (
	"encoding/json"
	"net/http"
	"time"

	"agrimarket/models"
)

// Request/response DTOs. Keep them minimal and explicit.

type registerReq struct {
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Password   string      `json:"password"`
	Role       models.Role `json:"role,omitempty"`
	FarmSize   string      `json:"farmSize,omitempty"`
	Experience string      `json:"experience,omitempty"`
	Location   string      `json:"location,omitempty"`
	Phone      string      `json:"phone,omitempty"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResp struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

type updateProfileReq struct {
	Name       string `json:"name,omitempty"`
	FarmSize   string `json:"farmSize,omitempty"`
	Experience string `json:"experience,omitempty"`
	Location   string `json:"location,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type userStatusReq struct {
	IsActive bool `json:"isActive"`
}

type createCropReq struct {
	Name             string                  `json:"name"`
	Type             models.CropType         `json:"type"`
	Variety          string                  `json:"variety,omitempty"`
	Description      string                  `json:"description,omitempty"`
	Season           models.Season           `json:"season"`
	PlantingMonths   []int                   `json:"plantingMonths,omitempty"`
	HarvestMonths    []int                   `json:"harvestMonths,omitempty"`
	MarketDemand     models.DemandTier       `json:"marketDemand,omitempty"`
	Difficulty       models.Difficulty       `json:"difficulty,omitempty"`
	WaterRequirement models.WaterRequirement `json:"waterRequirement,omitempty"`
	Location         string                  `json:"location,omitempty"`
}

type generateReportReq struct {
	Title       string               `json:"title"`
	Type        models.ReportType    `json:"type"`
	Description string               `json:"description,omitempty"`
	Filters     models.ReportFilters `json:"filters"`
}

// reportStub is the immediate response to a generation request, before the
// background pipeline has produced anything.
type reportStub struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Type      models.ReportType   `json:"type"`
	Status    models.ReportStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
}

type downloadResp struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	DownloadCount int    `json:"downloadCount"`
}

// pagination envelope attached to list responses.
type pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
}

func paginate(page, limit int, total int64) pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return pagination{Current: page, Pages: pages, Total: total}
}

// ---- JSON envelope helpers ----

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": data})
}

func writeCreated(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}
