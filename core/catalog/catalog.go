// Package catalog is the read-only product browsing surface: full
// list, by category, text search and the category index. It keeps the
// last fetched results so the UI has something to render between
// refreshes.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/buywell/storefront/shopapi"
	"github.com/sirupsen/logrus"
)

type Remote interface {
	Products(ctx context.Context, limit int) ([]shopapi.Product, error)
	ProductsByCategory(ctx context.Context, slug string) ([]shopapi.Product, error)
	SearchProducts(ctx context.Context, q string) ([]shopapi.Product, error)
	Categories(ctx context.Context) ([]shopapi.Category, error)
}

// listLimit matches the page size the product grid renders.
const listLimit = 100

type Store struct {
	remote Remote
	log    logrus.FieldLogger

	mu         sync.RWMutex
	products   []shopapi.Product
	categories []shopapi.Category
	loading    int
}

func New(remote Remote, log logrus.FieldLogger) *Store {
	return &Store{
		remote: remote,
		log:    log,
	}
}

// Loading reports whether any product fetch is in flight. The count
// keeps overlapping fetches from clearing each other's flag.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

// Products returns the last fetched product list.
func (s *Store) Products() []shopapi.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]shopapi.Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *Store) List(ctx context.Context) ([]shopapi.Product, error) {
	return s.fetch(ctx, func(ctx context.Context) ([]shopapi.Product, error) {
		return s.remote.Products(ctx, listLimit)
	})
}

func (s *Store) ByCategory(ctx context.Context, slug string) ([]shopapi.Product, error) {
	return s.fetch(ctx, func(ctx context.Context) ([]shopapi.Product, error) {
		return s.remote.ProductsByCategory(ctx, slug)
	})
}

func (s *Store) Search(ctx context.Context, q string) ([]shopapi.Product, error) {
	return s.fetch(ctx, func(ctx context.Context) ([]shopapi.Product, error) {
		return s.remote.SearchProducts(ctx, q)
	})
}

// Categories caches the category index after the first successful
// fetch; the set changes too rarely to refetch per request.
func (s *Store) Categories(ctx context.Context) ([]shopapi.Category, error) {
	s.mu.RLock()
	cached := s.categories
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	cats, err := s.remote.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching categories: %w", err)
	}

	s.mu.Lock()
	s.categories = cats
	s.mu.Unlock()
	return cats, nil
}

func (s *Store) fetch(ctx context.Context, get func(context.Context) ([]shopapi.Product, error)) ([]shopapi.Product, error) {
	s.mu.Lock()
	s.loading++
	s.mu.Unlock()

	products, err := get(ctx)

	s.mu.Lock()
	s.loading--
	if err == nil {
		s.products = products
	}
	s.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("fetching products: %w", err)
	}
	return products, nil
}
