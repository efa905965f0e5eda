package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/MoonSoon24/coffee-shop/internal/session"
	"github.com/go-chi/chi"
)

type sessionKey string

const sessionCtx sessionKey = "session"

func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.config.rateLimiter.Enabled {
			if allow, retryAfter := app.rateLimiter.Allow(r.RemoteAddr); !allow {
				app.rateLimitExceededResponse(w, r, fmt.Sprintf("%.0f", retryAfter.Seconds()))
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (app *application) sessionContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := app.sessions.Get(chi.URLParam(r, "session_id"))
		if err != nil {
			app.errorResponse(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), sessionCtx, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getSessionFromCtx(r *http.Request) *session.State {
	s, _ := r.Context().Value(sessionCtx).(*session.State)
	return s
}
