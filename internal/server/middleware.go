package server

import (
	"context"
	"net/http"

	"github.com/playperu/heritagequest/internal/store"
)

type ctxKey int

const (
	ctxKeyUser ctxKey = iota
	ctxKeyAdmin
)

func playerAuthMiddleware(auth *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := playerFromRequest(r, auth)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func adminAuthMiddleware(admin AdminStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := adminFromRequest(r, admin)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyAdmin, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userFrom(r *http.Request) string {
	return r.Context().Value(ctxKeyUser).(string)
}

func adminFrom(r *http.Request) store.AdminSession {
	return r.Context().Value(ctxKeyAdmin).(store.AdminSession)
}
