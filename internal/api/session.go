package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	SessionCookie = "nd_session"
	sessionMaxAge = 30 * 24 * time.Hour
)

// sessionID returns the visitor's session id, issuing a new cookie when the request has no
// usable one.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
