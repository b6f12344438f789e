package shopapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// StatusError is returned when the remote API answers with a
// non-success status. Message carries the remote {message} body when
// one was sent.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote api: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("remote api: %d: %s", e.Status, http.StatusText(e.Status))
}

type Client struct {
	base string
	hc   *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: baseURL,
		hc:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}

	r, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w, err := c.hc.Do(r)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer w.Body.Close()

	if w.StatusCode < 200 || w.StatusCode > 299 {
		var rej struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(w.Body).Decode(&rej)
		return &StatusError{Status: w.StatusCode, Message: rej.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(w.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// Login exchanges credentials for the user record with its access
// token. The token lifetime is fixed at 30 minutes.
func (c *Client) Login(ctx context.Context, username, password string) (User, error) {
	in := struct {
		Username      string `json:"username"`
		Password      string `json:"password"`
		ExpiresInMins int    `json:"expiresInMins"`
	}{username, password, 30}

	var u User
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (c *Client) CreateUser(ctx context.Context, nu NewUser) (User, error) {
	var u User
	if err := c.do(ctx, http.MethodPost, "/users/add", nu, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (c *Client) UpdateUser(ctx context.Context, id int, up UserUpdate) (User, error) {
	var u User
	if err := c.do(ctx, http.MethodPut, "/users/"+strconv.Itoa(id), up, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (c *Client) User(ctx context.Context, id int) (User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/users/"+strconv.Itoa(id), nil, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// UserCart fetches the remote cart for a user. The second return is
// false when the user has no cart record; only the first record is
// reported when the API returns several.
func (c *Client) UserCart(ctx context.Context, userID int) (Cart, bool, error) {
	var out struct {
		Carts []Cart `json:"carts"`
	}
	if err := c.do(ctx, http.MethodGet, "/carts/user/"+strconv.Itoa(userID), nil, &out); err != nil {
		return Cart{}, false, err
	}
	if len(out.Carts) == 0 {
		return Cart{}, false, nil
	}
	return out.Carts[0], true, nil
}

// AddCart submits the full product list for a user's cart. The remote
// API treats this as the new cart content, so callers resubmit every
// line item rather than a delta.
func (c *Client) AddCart(ctx context.Context, userID int, products []CartProduct) (Cart, error) {
	in := struct {
		UserID   int           `json:"userId"`
		Products []CartProduct `json:"products"`
	}{userID, products}

	var crt Cart
	if err := c.do(ctx, http.MethodPost, "/carts/add", in, &crt); err != nil {
		return Cart{}, err
	}
	return crt, nil
}

func (c *Client) DeleteCart(ctx context.Context, cartID int) error {
	return c.do(ctx, http.MethodDelete, "/carts/"+strconv.Itoa(cartID), nil, nil)
}

func (c *Client) Products(ctx context.Context, limit int) ([]Product, error) {
	path := "/products"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Products []Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (c *Client) ProductsByCategory(ctx context.Context, slug string) ([]Product, error) {
	var out struct {
		Products []Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/category/"+url.PathEscape(slug), nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (c *Client) SearchProducts(ctx context.Context, q string) ([]Product, error) {
	var out struct {
		Products []Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/search?q="+url.QueryEscape(q), nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var cats []Category
	if err := c.do(ctx, http.MethodGet, "/products/categories", nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}
