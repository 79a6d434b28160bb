package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"agrimarket/models"
)

type ctxKey string

const identityKey ctxKey = "identity"

// authUser is the verified identity injected into the request context.
type authUser struct {
	ID   primitive.ObjectID
	Role models.Role
}

// authMiddleware extracts and validates the Bearer token, loads the account
// and injects the authenticated identity into context. The account lookup
// runs on every request so deactivated or deleted users lose access
// immediately, regardless of token lifetime, and the role always reflects
// the store rather than a stale claim.
func (a *App) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		raw := strings.TrimPrefix(authz, "Bearer ")
		uid, err := parseJWT(a.cfg.JWTSecret, raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		lookupCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		u, err := a.findUser(lookupCtx, uid)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if !u.IsActive {
			writeError(w, http.StatusUnauthorized, "account is deactivated")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, authUser{ID: u.ID, Role: u.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin rejects non-admin identities. Must run after authMiddleware.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if mustIdentity(r).Role != models.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// mustIdentity returns the identity from context, or a zero identity if the
// middleware did not run.
func mustIdentity(r *http.Request) authUser {
	val := r.Context().Value(identityKey)
	if val == nil {
		return authUser{}
	}
	return val.(authUser)
}

// canManage reports whether the identity may act on a resource owned by
// ownerID: the owner itself or any admin.
func (u authUser) canManage(ownerID primitive.ObjectID) bool {
	return u.ID == ownerID || u.Role == models.RoleAdmin
}
