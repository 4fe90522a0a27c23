// Package api exposes the portfolio over HTTP.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

// NewServer creates an HTTP server with all routes configured. Write endpoints
// are protected with the admin API key when one is set.
func NewServer(port string, handler *Handler, adminAPIKey string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/positions", handler.GetPositions)
	mux.HandleFunc("GET /api/v1/summary", handler.GetSummary)
	mux.HandleFunc("GET /api/v1/history", handler.GetHistory)
	mux.HandleFunc("GET /api/v1/history/latest", handler.GetLatestSnapshot)
	mux.HandleFunc("GET /api/v1/history/{date}", handler.GetSnapshotByDate)

	protected := func(h http.HandlerFunc) http.Handler {
		if adminAPIKey == "" {
			return h
		}
		return requireAuth(adminAPIKey, h)
	}
	mux.Handle("POST /api/v1/holdings", protected(handler.CreateHolding))
	mux.Handle("POST /api/v1/transactions", protected(handler.RecordEntry))
	mux.Handle("POST /api/v1/refresh", protected(handler.Refresh))

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
