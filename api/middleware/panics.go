package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/buywell/storefront/api/web"
)

// Panics converts a handler panic into an ordinary error so the Errors
// middleware can log it and answer with a 500.
func Panics() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {

			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("PANIC [%v] TRACE[%s]", rec, string(debug.Stack()))
				}
			}()

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
