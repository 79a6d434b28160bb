package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"agrimarket/models"
)

// handleRegister creates a new user with a bcrypt-hashed password and
// returns the profile together with a signed token.
func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email, password are required")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}
	role := req.Role
	if role == "" {
		role = models.RoleFarmer
	}
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "hash error")
		return
	}

	now := time.Now()
	u := models.User{
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		Role:         role,
		FarmSize:     req.FarmSize,
		Experience:   req.Experience,
		Location:     req.Location,
		Phone:        req.Phone,
		IsActive:     true,
		LastLogin:    &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	res, err := a.users.InsertOne(ctx, &u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	u.ID = res.InsertedID.(primitive.ObjectID)

	tok, err := signJWT(a.cfg.JWTSecret, u.ID, u.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "jwt error")
		return
	}
	writeCreated(w, authResp{User: u, Token: tok})
}

// handleLogin verifies credentials, stamps lastLogin and returns a JWT.
func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var u models.User
	if err := a.users.FindOne(ctx, bson.M{"email": strings.ToLower(req.Email)}).Decode(&u); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !u.IsActive {
		writeError(w, http.StatusUnauthorized, "account is deactivated")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	now := time.Now()
	u.LastLogin = &now
	_, _ = a.users.UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{"lastLogin": now}})

	tok, err := signJWT(a.cfg.JWTSecret, u.ID, u.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "jwt error")
		return
	}
	writeOK(w, authResp{User: u, Token: tok})
}

// handleMe returns the current user's profile.
func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	me := mustIdentity(r)
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var u models.User
	if err := a.users.FindOne(ctx, bson.M{"_id": me.ID}).Decode(&u); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeOK(w, u)
}

// handleUpdateProfile updates mutable profile fields of the current user.
func (a *App) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	me := mustIdentity(r)

	var req updateProfileReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if req.Name != "" {
		set["name"] = req.Name
	}
	if req.FarmSize != "" {
		set["farmSize"] = req.FarmSize
	}
	if req.Experience != "" {
		set["experience"] = req.Experience
	}
	if req.Location != "" {
		set["location"] = req.Location
	}
	if req.Phone != "" {
		set["phone"] = req.Phone
	}
	if len(set) == 1 {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	res := a.users.FindOneAndUpdate(
		ctx,
		bson.M{"_id": me.ID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var u models.User
	if err := res.Decode(&u); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeOK(w, u)
}

// handleChangePassword verifies the current password and stores a new hash.
func (a *App) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	me := mustIdentity(r)

	var req changePasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if len(req.NewPassword) < 6 {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	var u models.User
	if err := a.users.FindOne(ctx, bson.M{"_id": me.ID}).Decode(&u); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)) != nil {
		writeError(w, http.StatusBadRequest, "current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "hash error")
		return
	}
	_, err = a.users.UpdateByID(ctx, me.ID, bson.M{"$set": bson.M{
		"passwordHash": string(hash),
		"updatedAt":    time.Now(),
	}})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	writeOK(w, bson.M{"changed": true})
}

// ---- admin user management ----

// handleListUsers returns all users, newest first, paginated.
func (a *App) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cur, err := a.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		writeError(w, http.StatusInternalServerError, "decode error")
		return
	}
	total, _ := a.users.CountDocuments(ctx, bson.M{})
	writeOK(w, bson.M{"users": out, "pagination": paginate(page, limit, total)})
}

// handleGetUser returns one user by id.
func (a *App) handleGetUser(w http.ResponseWriter, r *http.Request) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var u models.User
	if err := a.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&u); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeOK(w, u)
}

// handleSetUserStatus activates or deactivates an account.
func (a *App) handleSetUserStatus(w http.ResponseWriter, r *http.Request) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	var req userStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	res := a.users.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"isActive": req.IsActive, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var u models.User
	if err := res.Decode(&u); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeOK(w, u)
}

// handleDeleteUser removes an account.
func (a *App) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := a.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	if res.DeletedCount == 0 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeOK(w, bson.M{"deleted": true})
}

// pageParams reads page/limit query params with the usual defaults.
func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}
