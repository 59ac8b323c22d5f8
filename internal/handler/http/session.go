package http

import (
	"context"
	"net/http"

	"github.com/Ami2490/armeria/internal/session"
	"github.com/Ami2490/armeria/pkg/httputil"
	"github.com/Ami2490/armeria/pkg/middleware"
	"github.com/Ami2490/armeria/pkg/validator"
)

type contextKey string

const sessionKey contextKey = "session"

type sessionHeader struct {
	ID string `json:"X-Session-ID" validate:"omitempty,max=128,printascii"`
}

// SessionFromHeader resolves the X-Session-ID header to the shopper's
// session for the duration of the request. A missing header selects the
// shared default session.
func SessionFromHeader(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := sessionHeader{ID: r.Header.Get(middleware.SessionHeader)}
			if err := validator.Validate(h); err != nil {
				httputil.WriteError(w, r, err, nil)
				return
			}
			s, release := sessions.Acquire(r.Context(), h.ID)
			defer release()
			ctx := context.WithValue(r.Context(), sessionKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}
