package middleware

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/buywell/storefront/api/web"
)

// LoadAndSave bridges the scs session middleware into the handler
// chain. It must run first so every later stage sees the session data
// in the request context.
func LoadAndSave(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			var err error
			wrapped := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			}))

			wrapped.ServeHTTP(w, r)
			return err
		}
		return h
	}
	return m
}
