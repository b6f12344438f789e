package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/buywell/storefront/core/session"
	"github.com/buywell/storefront/shopapi"
	"github.com/sirupsen/logrus"
)

// ErrLoginRequired is the one user-facing cart condition: mutating the
// cart without an active identity.
var ErrLoginRequired = errors.New("please login to add items to cart")

// Remote is the slice of the upstream API the store needs. Every
// mutation resubmits the full product list; the upstream contract has
// no per-item update or delete.
type Remote interface {
	UserCart(ctx context.Context, userID int) (shopapi.Cart, bool, error)
	AddCart(ctx context.Context, userID int, products []shopapi.CartProduct) (shopapi.Cart, error)
	DeleteCart(ctx context.Context, cartID int) error
}

// Identities is the read-only view of the session store the cart is
// scoped by. The cart never mutates the identity.
type Identities interface {
	Current() (session.Identity, bool)
}

// Store keeps the in-memory cart consistent with the remote cart
// resource. Every remote-backed mutation is remote-first: local state
// changes only after the remote call succeeds, so the two sides are
// never left half-updated. Mutations serialize on a single mutex held
// across the remote call, one in flight at a time.
type Store struct {
	remote Remote
	ids    Identities
	log    logrus.FieldLogger

	mu       sync.Mutex
	cart     Cart
	remoteID int
}

func New(remote Remote, ids Identities, log logrus.FieldLogger) *Store {
	return &Store{
		remote: remote,
		ids:    ids,
		log:    log,
	}
}

// Snapshot returns a consistent copy of the cart.
func (s *Store) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.cart
	out.Items = make([]Item, len(s.cart.Items))
	copy(out.Items, s.cart.Items)
	return out
}

// Reset drops the local cart without touching the remote. Used when
// the identity goes away.
func (s *Store) Reset() {
	s.mu.Lock()
	s.cart = Cart{}
	s.remoteID = 0
	s.mu.Unlock()
}

// Load adopts the first remote cart record for the current identity
// verbatim, totals included. With no identity it resets locally and
// makes no network call. A fetch failure is logged and swallowed; the
// cart stays empty and a later identity change retries naturally.
func (s *Store) Load(ctx context.Context) {
	id, ok := s.ids.Current()
	if !ok {
		s.Reset()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart = Cart{}
	s.remoteID = 0

	remote, found, err := s.remote.UserCart(ctx, id.ID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id": id.ID,
			"error":   err,
		}).Warn("could not fetch remote cart")
		return
	}
	if !found {
		return
	}

	items := make([]Item, 0, len(remote.Products))
	for _, p := range remote.Products {
		items = append(items, Item{
			ProductID: p.ID,
			Title:     p.Title,
			Price:     p.Price,
			Thumbnail: p.Thumbnail,
			Quantity:  p.Quantity,
		})
	}
	s.cart = Cart{
		Items:         items,
		Total:         remote.Total,
		TotalQuantity: remote.TotalQuantity,
	}
	s.remoteID = remote.ID
}

// Add puts one unit of the product in the cart. Adding a product that
// is already present raises its quantity by one instead of duplicating
// the line item.
func (s *Store) Add(ctx context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.ids.Current()
	if !ok {
		return ErrLoginRequired
	}

	if i := s.cart.find(p.ID); i >= 0 {
		return s.setQuantity(ctx, id.ID, p.ID, s.cart.Items[i].Quantity+1)
	}

	next := s.copyItems()
	next = append(next, Item{
		ProductID: p.ID,
		Title:     p.Title,
		Price:     p.Price,
		Thumbnail: p.Thumbnail,
		Quantity:  1,
	})
	return s.push(ctx, id.ID, next)
}

// SetQuantity sets a line item's quantity. A target below 1 removes
// the item; an unknown product is a no-op.
func (s *Store) SetQuantity(ctx context.Context, productID, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.ids.Current()
	if !ok {
		return nil
	}
	return s.setQuantity(ctx, id.ID, productID, quantity)
}

func (s *Store) setQuantity(ctx context.Context, userID, productID, quantity int) error {
	if quantity < 1 {
		return s.remove(ctx, userID, productID)
	}

	i := s.cart.find(productID)
	if i < 0 {
		return nil
	}

	next := s.copyItems()
	next[i].Quantity = quantity
	return s.push(ctx, userID, next)
}

// Remove drops a line item. Removing an absent product is a no-op.
func (s *Store) Remove(ctx context.Context, productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.ids.Current()
	if !ok {
		return nil
	}
	return s.remove(ctx, id.ID, productID)
}

func (s *Store) remove(ctx context.Context, userID, productID int) error {
	i := s.cart.find(productID)
	if i < 0 {
		return nil
	}

	next := s.copyItems()
	next = append(next[:i], next[i+1:]...)

	if len(next) == 0 {
		if err := s.remote.DeleteCart(ctx, s.cartID(userID)); err != nil {
			return fmt.Errorf("deleting remote cart: %w", err)
		}
		s.cart = Cart{}
		s.remoteID = 0
		return nil
	}
	return s.push(ctx, userID, next)
}

// Clear resets the local cart only. It does not touch the remote; it
// backs the "start over" UI action, not a remote wipe.
func (s *Store) Clear() {
	s.mu.Lock()
	s.cart = Cart{}
	s.mu.Unlock()
}

// push resubmits the full projected product list and commits it
// locally only once the remote accepted it. Totals are recomputed by
// folding over the committed items.
func (s *Store) push(ctx context.Context, userID int, next []Item) error {
	products := make([]shopapi.CartProduct, 0, len(next))
	for _, it := range next {
		products = append(products, shopapi.CartProduct{
			ID:       it.ProductID,
			Quantity: it.Quantity,
		})
	}

	remote, err := s.remote.AddCart(ctx, userID, products)
	if err != nil {
		return fmt.Errorf("updating remote cart: %w", err)
	}

	s.cart.Items = next
	s.cart.recompute()
	if remote.ID != 0 {
		s.remoteID = remote.ID
	}
	return nil
}

func (s *Store) copyItems() []Item {
	next := make([]Item, len(s.cart.Items))
	copy(next, s.cart.Items)
	return next
}

// cartID is the key for remote deletion: the remote record's own ID
// when one has been observed, the user ID otherwise (the remote cart
// resource is keyed per user).
func (s *Store) cartID(userID int) int {
	if s.remoteID != 0 {
		return s.remoteID
	}
	return userID
}
