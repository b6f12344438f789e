package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/buywell/storefront/api/middleware"
	"github.com/buywell/storefront/api/web"
	"github.com/buywell/storefront/core/cart"
	"github.com/buywell/storefront/core/catalog"
	"github.com/buywell/storefront/core/hub"
	"github.com/buywell/storefront/core/session"
	"github.com/buywell/storefront/rate"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin   string
	Log          logrus.FieldLogger
	Session      *scs.SessionManager
	Hub          *hub.Hub
	Catalog      *catalog.Store
	LoginLimiter *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, middleware.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	a.Handle(http.MethodPost, "/auth/login", session.HandleLogin(cfg.Hub, cfg.LoginLimiter))
	a.Handle(http.MethodPost, "/auth/register", session.HandleRegister(cfg.Hub))
	a.Handle(http.MethodPost, "/auth/logout", session.HandleLogout(cfg.Hub))
	a.Handle(http.MethodGet, "/auth/me", session.HandleShowCurrent(cfg.Hub))

	a.Handle(http.MethodGet, "/users/{id}", session.HandleShow(cfg.Hub))
	a.Handle(http.MethodPut, "/users/{id}", session.HandleUpdate(cfg.Hub))

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.Hub))
	a.Handle(http.MethodDelete, "/cart", cart.HandleClear(cfg.Hub))
	a.Handle(http.MethodPut, "/cart/items", cart.HandleAddItem(cfg.Hub))
	a.Handle(http.MethodPut, "/cart/items/{product_id}", cart.HandleUpdateItem(cfg.Hub))
	a.Handle(http.MethodDelete, "/cart/items/{product_id}", cart.HandleDeleteItem(cfg.Hub))

	a.Handle(http.MethodGet, "/products", catalog.HandleList(cfg.Catalog))
	a.Handle(http.MethodGet, "/products/categories", catalog.HandleCategories(cfg.Catalog))

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
