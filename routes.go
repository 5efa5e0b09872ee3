package main

import (
	"context"
	"net/http"
	"os"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"santaAPI/handlers"
	"santaAPI/middleware"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type routerDeps struct {
	db                   pinger
	challengeHandler     *handlers.ChallengeHandler
	userChallengeHandler *handlers.UserChallengeHandler
	limiter              *middleware.RateLimiter
}

func newRouter(d routerDeps) *mux.Router {
	r := mux.NewRouter()

	standardRouter := r.PathPrefix("/").Subrouter()
	standardRouter.Use(d.limiter.Middleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := d.db.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "santa-api"}`))
	}).Methods("GET")

	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/challenges", d.challengeHandler.ListChallenges).Methods("GET")
	api.HandleFunc("/challenges/{id}", d.challengeHandler.GetChallenge).Methods("GET")
	api.HandleFunc("/users/{userId}/challenges", d.userChallengeHandler.ListUserChallenges).Methods("GET")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/challenges", d.challengeHandler.CreateChallenge).Methods("POST")
	protected.HandleFunc("/challenges/{id}", d.challengeHandler.UpdateChallenge).Methods("PUT")
	protected.HandleFunc("/challenges/{id}", d.challengeHandler.DeleteChallenge).Methods("DELETE")

	internal := api.PathPrefix("/user-challenges").Subrouter()
	internal.Use(middleware.InternalSecretMiddleware)

	internal.HandleFunc("/mountain-visits", d.userChallengeHandler.RecordMountainVisit).Methods("POST")
	internal.HandleFunc("/meeting-joins", d.userChallengeHandler.RecordMeetingJoin).Methods("POST")

	return r
}

func withCORS(next http.Handler) http.Handler {
	return gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret", "X-Internal-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
	)(next)
}

func withAccessLog(next http.Handler) http.Handler {
	return gorillaHandlers.CombinedLoggingHandler(os.Stdout, next)
}
