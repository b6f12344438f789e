package cart

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/buywell/storefront/api/web"
	"github.com/buywell/storefront/api/weberr"
	"github.com/buywell/storefront/validate"
)

// Source hands out the cart store for the calling browser session;
// the hub implements it.
type Source interface {
	Cart(ctx context.Context) *Store
}

type AddItemInput struct {
	ID        int     `json:"id" validate:"required"`
	Title     string  `json:"title" validate:"required"`
	Price     float64 `json:"price" validate:"gte=0"`
	Thumbnail string  `json:"thumbnail"`
}

type QuantityInput struct {
	Quantity int `json:"quantity"`
}

func HandleShow(src Source) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, src.Cart(ctx).Snapshot(), http.StatusOK)
	}
}

func HandleAddItem(src Source) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in AddItemInput
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}
		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		store := src.Cart(ctx)
		err := store.Add(ctx, Product{
			ID:        in.ID,
			Title:     in.Title,
			Price:     in.Price,
			Thumbnail: in.Thumbnail,
		})
		if err != nil {
			return cartError(err)
		}

		return web.Respond(ctx, w, store.Snapshot(), http.StatusOK)
	}
}

func HandleUpdateItem(src Source) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID, err := strconv.Atoi(web.Param(r, "product_id"))
		if err != nil {
			return weberr.BadRequest(errors.New("product_id is not numeric"))
		}

		var in QuantityInput
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		store := src.Cart(ctx)
		if err := store.SetQuantity(ctx, productID, in.Quantity); err != nil {
			return cartError(err)
		}

		return web.Respond(ctx, w, store.Snapshot(), http.StatusOK)
	}
}

func HandleDeleteItem(src Source) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID, err := strconv.Atoi(web.Param(r, "product_id"))
		if err != nil {
			return weberr.BadRequest(errors.New("product_id is not numeric"))
		}

		store := src.Cart(ctx)
		if err := store.Remove(ctx, productID); err != nil {
			return cartError(err)
		}

		return web.Respond(ctx, w, store.Snapshot(), http.StatusOK)
	}
}

func HandleClear(src Source) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		src.Cart(ctx).Clear()
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func cartError(err error) error {
	if errors.Is(err, ErrLoginRequired) {
		return weberr.NewError(err, err.Error(), http.StatusUnauthorized)
	}
	return weberr.BadGateway(err)
}
