package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"buildboard-backend/internal/activity"
	"buildboard-backend/internal/auth"
	"buildboard-backend/internal/cache"
	"buildboard-backend/internal/categories"
	"buildboard-backend/internal/config"
	"buildboard-backend/internal/costs"
	"buildboard-backend/internal/dashboard"
	"buildboard-backend/internal/metrics"
	"buildboard-backend/internal/projects"
	"buildboard-backend/internal/tasks"
	"buildboard-backend/internal/users"
)

type deps struct {
	cfg     *config.Config
	db      *sqlx.DB
	log     *logrus.Entry
	metrics *metrics.Metrics
	cache   cache.Cache
}

func newRouter(d deps) http.Handler {
	loc := d.cfg.Location()
	tokens := auth.NewTokens([]byte(d.cfg.JWTSecret), d.cfg.TokenTTL)
	rec := activity.NewRecorder(d.db, d.log)
	accounts := users.NewStore(d.db)

	authH := auth.NewHandler(accounts, tokens, rec, d.log, d.cfg.CookieSecure)
	taskSvc := tasks.NewService(tasks.NewStore(d.db), d.cache,
		tasks.WithCacheTTL(d.cfg.CacheTTL),
		tasks.WithPageSize(d.cfg.TaskPageSize),
		tasks.WithLocation(loc),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(d.log))
	r.Use(middleware.Recoverer)
	r.Use(d.metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", d.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", authH.Login)
		r.Post("/logout", authH.Logout)

		r.Group(func(r chi.Router) {
			r.Use(auth.NewMiddleware(tokens, d.log).Handler)

			r.Get("/me", authH.Me)
			r.Put("/settings", authH.UpdateSettings)

			actH := activity.NewHandler(rec, d.log)
			r.Post("/activity", actH.Report)
			r.With(auth.RequireRole(auth.RoleAdmin)).Get("/activity", actH.Recent)

			tasks.NewHandler(taskSvc, rec, d.log).Routes(r)
			costs.NewHandler(costs.NewStore(d.db), rec, d.log, d.cfg.CostPageSize, loc).Routes(r)
			projects.NewHandler(projects.NewStore(d.db), d.log, d.cfg.ProjectPageSize, loc).Routes(r)
			categories.NewHandler(categories.NewStore(d.db), d.log).Routes(r)
			users.NewHandler(accounts, d.log).Routes(r)
			dashboard.NewHandler(dashboard.NewStore(d.db), d.log).Routes(r)
		})
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   d.cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Session-Id", "X-Platform", "X-App-Version", "Idempotency-Key"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

// requestLogger writes one access line per request, tagged with the chi request id.
func requestLogger(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			entry := log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"duration":   time.Since(start).String(),
			})
			if ww.Status() >= http.StatusInternalServerError {
				entry.Warn("request served")
				return
			}
			entry.Debug("request served")
		})
	}
}
