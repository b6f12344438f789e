package session

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/buywell/storefront/api/web"
	"github.com/buywell/storefront/api/weberr"
	"github.com/buywell/storefront/rate"
	"github.com/buywell/storefront/shopapi"
	"github.com/buywell/storefront/validate"
)

// Source hands out the session store for the calling browser session;
// the hub implements it.
type Source interface {
	Session(ctx context.Context) *Store
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput mirrors the registration form's rules: the handler is
// the UI layer, so the shape checks live here and not in the store.
type RegisterInput struct {
	FirstName string `json:"firstName" validate:"required,min=2"`
	LastName  string `json:"lastName" validate:"required,min=2"`
	Username  string `json:"username" validate:"required,min=3"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

type UpdateInput struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=2"`
	LastName  *string `json:"lastName" validate:"omitempty,min=2"`
	Username  *string `json:"username" validate:"omitempty,min=3"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone"`
}

func HandleLogin(src Source, limiter *rate.Limiter) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		// Key the limiter by host only: the ephemeral port changes per
		// connection and would give every reconnect a fresh bucket.
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !limiter.Check(host) {
			return weberr.TooManyRequests(errors.New("login rate exceeded"))
		}

		var in LoginInput
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}
		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		id, err := src.Session(ctx).Login(ctx, in.Username, in.Password)
		if err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnauthorized)
		}

		return web.Respond(ctx, w, id, http.StatusOK)
	}
}

func HandleRegister(src Source) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in RegisterInput
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}
		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		u, err := src.Session(ctx).Register(ctx, shopapi.NewUser{
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Username:  in.Username,
			Email:     in.Email,
			Password:  in.Password,
		})
		if err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadGateway)
		}

		return web.Respond(ctx, w, u, http.StatusCreated)
	}
}

func HandleShowCurrent(src Source) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, ok := src.Session(ctx).Current()
		if !ok {
			return weberr.NotAuthorized(errors.New("no active identity"))
		}
		return web.Respond(ctx, w, id, http.StatusOK)
	}
}

// HandleShow serves the full user record for the profile page,
// fetched fresh from the remote. Only the current identity's own
// record is visible.
func HandleShow(src Source) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		userID, err := strconv.Atoi(web.Param(r, "id"))
		if err != nil {
			return weberr.BadRequest(errors.New("id is not numeric"))
		}

		store := src.Session(ctx)
		cur, ok := store.Current()
		if !ok || cur.ID != userID {
			return weberr.NotAuthorized(errors.New("can only view the current identity"))
		}

		u, err := store.Profile(ctx, userID)
		if err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadGateway)
		}

		return web.Respond(ctx, w, u, http.StatusOK)
	}
}

func HandleUpdate(src Source) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		userID, err := strconv.Atoi(web.Param(r, "id"))
		if err != nil {
			return weberr.BadRequest(errors.New("id is not numeric"))
		}

		store := src.Session(ctx)
		cur, ok := store.Current()
		if !ok || cur.ID != userID {
			return weberr.NotAuthorized(errors.New("can only update the current identity"))
		}

		var in UpdateInput
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}
		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		id, err := store.UpdateProfile(ctx, userID, shopapi.UserUpdate{
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Username:  in.Username,
			Email:     in.Email,
			Phone:     in.Phone,
		})
		if err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadGateway)
		}

		return web.Respond(ctx, w, id, http.StatusOK)
	}
}

func HandleLogout(src Source) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		src.Session(ctx).Logout(ctx)
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
