package middleware

import (
	"context"
	"net/http"

	"github.com/buywell/storefront/api/web"
)

// Cors allows the configured browser origin to call the API with
// credentials (the session cookie).
func Cors(origin string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
