// Package api implements the Marble REST API using chi.
package api

import "net/http"

// WritableOnly rejects requests with 403 unless progress writing is enabled.
func WritableOnly(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				writeJSON(w, http.StatusForbidden, errorBody("progress writing is disabled"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
