package main

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed openapi.yaml
var openapiYAML []byte

// routes wires middlewares and endpoints. Adjust CORS for your frontend hosts.
func (a *App) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:3000", "https://*.run.app"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=60")
		w.Write(openapiYAML)
	})

	r.Mount("/swagger", httpSwagger.Handler(
		httpSwagger.URL("/api/openapi.yaml"),
	))

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", a.handleRegister)
		api.Post("/auth/login", a.handleLogin)

		api.Group(func(pr chi.Router) {
			pr.Use(a.authMiddleware)

			pr.Get("/me", a.handleMe)
			pr.Put("/me", a.handleUpdateProfile)
			pr.Put("/me/password", a.handleChangePassword)

			pr.Route("/crops", func(cr chi.Router) {
				cr.Get("/", a.handleListCrops)
				cr.Post("/", a.handleCreateCrop)
				cr.Get("/market-overview", a.handleMarketOverview)
				cr.Get("/analytics/{id}", a.handleCropAnalytics)
				cr.Get("/{id}", a.handleGetCrop)
				cr.Put("/{id}", a.handleUpdateCrop)
				cr.Delete("/{id}", a.handleDeleteCrop)
				cr.Post("/{id}/yield", a.handleAddObservation)
				cr.Post("/{id}/predictions", a.handleAddPrediction)
			})

			pr.Route("/reports", func(rr chi.Router) {
				rr.Post("/generate", a.handleGenerateReport)
				rr.Get("/", a.handleListMyReports)
				rr.With(requireAdmin).Get("/admin/all", a.handleListAllReports)
				rr.Get("/{id}", a.handleGetReport)
				rr.Post("/{id}/download", a.handleDownloadReport)
				rr.Delete("/{id}", a.handleDeleteReport)
			})

			pr.Route("/users", func(ur chi.Router) {
				ur.Use(requireAdmin)
				ur.Get("/", a.handleListUsers)
				ur.Get("/{id}", a.handleGetUser)
				ur.Put("/{id}/status", a.handleSetUserStatus)
				ur.Delete("/{id}", a.handleDeleteUser)
			})
		})
	})

	return r
}
