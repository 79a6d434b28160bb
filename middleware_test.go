package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"agrimarket/models"
)

func authedRequest(t *testing.T, secret string, uid primitive.ObjectID, role models.Role) *http.Request {
	t.Helper()
	tok, err := signJWT(secret, uid, role)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}

// staticUser returns a findUser stub that serves one account.
func staticUser(u *models.User) func(context.Context, primitive.ObjectID) (*models.User, error) {
	return func(_ context.Context, id primitive.ObjectID) (*models.User, error) {
		if u == nil || u.ID != id {
			return nil, errors.New("user not found")
		}
		return u, nil
	}
}

func TestAuthMiddleware_InjectsIdentity(t *testing.T) {
	uid := primitive.NewObjectID()
	app := &App{
		cfg:      Config{JWTSecret: "secret"},
		findUser: staticUser(&models.User{ID: uid, Role: models.RoleAdmin, IsActive: true}),
	}

	var got authUser
	h := app.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = mustIdentity(r)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, "secret", uid, models.RoleAdmin))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uid, got.ID)
	assert.Equal(t, models.RoleAdmin, got.Role)
}

func TestAuthMiddleware_RoleComesFromStore(t *testing.T) {
	// A token minted before a demotion still carries the old role claim.
	// The effective role is whatever the account holds now.
	uid := primitive.NewObjectID()
	app := &App{
		cfg:      Config{JWTSecret: "secret"},
		findUser: staticUser(&models.User{ID: uid, Role: models.RoleFarmer, IsActive: true}),
	}

	var got authUser
	h := app.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = mustIdentity(r)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, "secret", uid, models.RoleAdmin))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RoleFarmer, got.Role)
}

func TestAuthMiddleware_DeactivatedUser(t *testing.T) {
	uid := primitive.NewObjectID()
	app := &App{
		cfg:      Config{JWTSecret: "secret"},
		findUser: staticUser(&models.User{ID: uid, Role: models.RoleFarmer, IsActive: false}),
	}

	h := app.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, "secret", uid, models.RoleFarmer))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "deactivated")
}

func TestAuthMiddleware_DeletedUser(t *testing.T) {
	app := &App{
		cfg:      Config{JWTSecret: "secret"},
		findUser: staticUser(nil),
	}

	h := app.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, "secret", primitive.NewObjectID(), models.RoleFarmer))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	app := &App{cfg: Config{JWTSecret: "secret"}}
	h := app.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_BadToken(t *testing.T) {
	app := &App{cfg: Config{JWTSecret: "secret"}}
	h := app.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	farmer := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	app := &App{
		cfg: Config{JWTSecret: "secret"},
		findUser: func(_ context.Context, id primitive.ObjectID) (*models.User, error) {
			switch id {
			case farmer:
				return &models.User{ID: id, Role: models.RoleFarmer, IsActive: true}, nil
			case admin:
				return &models.User{ID: id, Role: models.RoleAdmin, IsActive: true}, nil
			}
			return nil, errors.New("user not found")
		},
	}
	chain := app.authMiddleware(requireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, authedRequest(t, "secret", farmer, models.RoleFarmer))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, authedRequest(t, "secret", admin, models.RoleAdmin))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCanManage(t *testing.T) {
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()

	assert.True(t, authUser{ID: owner, Role: models.RoleFarmer}.canManage(owner))
	assert.False(t, authUser{ID: other, Role: models.RoleFarmer}.canManage(owner))
	assert.False(t, authUser{ID: other, Role: models.RoleAnalyst}.canManage(owner))
	assert.True(t, authUser{ID: other, Role: models.RoleAdmin}.canManage(owner))
}
