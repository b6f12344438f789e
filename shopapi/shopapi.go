// Package shopapi is a typed client for the remote storefront JSON API.
// All domain state (users, carts, the product catalog) lives behind this
// API; the stores in core keep local working copies of it.
package shopapi

// User is the account record returned by the auth and user endpoints.
// Token is only present on login responses.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Gender    string `json:"gender"`
	Phone     string `json:"phone"`
	Image     string `json:"image"`
	Token     string `json:"token,omitempty"`
}

type NewUser struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// UserUpdate carries a partial profile update. Nil fields are omitted
// from the request body and left untouched remotely.
type UserUpdate struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Username  *string `json:"username,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// Cart is the remote cart record for one user.
type Cart struct {
	ID            int           `json:"id"`
	UserID        int           `json:"userId"`
	Products      []CartProduct `json:"products"`
	Total         float64       `json:"total"`
	TotalQuantity int           `json:"totalQuantity"`
}

type CartProduct struct {
	ID        int     `json:"id"`
	Title     string  `json:"title,omitempty"`
	Price     float64 `json:"price,omitempty"`
	Quantity  int     `json:"quantity"`
	Thumbnail string  `json:"thumbnail,omitempty"`
}

type Product struct {
	ID                 int     `json:"id"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	Category           string  `json:"category"`
	Brand              string  `json:"brand"`
	Price              float64 `json:"price"`
	DiscountPercentage float64 `json:"discountPercentage"`
	Rating             float64 `json:"rating"`
	Stock              int     `json:"stock"`
	Thumbnail          string  `json:"thumbnail"`
}

type Category struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
	URL  string `json:"url"`
}
