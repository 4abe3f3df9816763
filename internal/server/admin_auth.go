package server

import (
	"errors"
	"net/http"

	"github.com/playperu/heritagequest/internal/store"
)

var errNoAdminSession = errors.New("no valid admin session")

const adminCookieName = "admin_session"

// adminFromRequest reads the admin_session cookie and looks up the admin session.
func adminFromRequest(r *http.Request, admin AdminStore) (store.AdminSession, error) {
	cookie, err := r.Cookie(adminCookieName)
	if err != nil || cookie.Value == "" {
		return store.AdminSession{}, errNoAdminSession
	}

	sess, err := admin.AdminFromSession(r.Context(), cookie.Value)
	if errors.Is(err, store.ErrAdminNotFound) {
		return store.AdminSession{}, errNoAdminSession
	}
	return sess, err
}
