package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/buywell/storefront/shopapi"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
)

var phones = []shopapi.Product{
	{ID: 1, Title: "Phone A", Category: "smartphones", Price: 549},
	{ID: 2, Title: "Phone B", Category: "smartphones", Price: 899},
}

func fakeUpstream(t *testing.T) (*httptest.Server, *int) {
	t.Helper()

	categoryHits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"products": phones})
	})
	mux.HandleFunc("/products/category/smartphones", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"products": phones[:1]})
	})
	mux.HandleFunc("/products/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "phone b" {
			json.NewEncoder(w).Encode(map[string]interface{}{"products": []shopapi.Product{}})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"products": phones[1:]})
	})
	mux.HandleFunc("/products/categories", func(w http.ResponseWriter, r *http.Request) {
		categoryHits++
		json.NewEncoder(w).Encode([]shopapi.Category{{Slug: "smartphones", Name: "Smartphones"}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &categoryHits
}

func testLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestStore(t *testing.T) (*Store, *int) {
	t.Helper()
	srv, hits := fakeUpstream(t)
	return New(shopapi.New(srv.URL, time.Second), testLog()), hits
}

func TestListCachesProducts(t *testing.T) {
	s, _ := newTestStore(t)

	got, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("listing products: %v", err)
	}
	if diff := cmp.Diff(phones, got); diff != "" {
		t.Fatalf("product mismatch (-want +got):\n%s", diff)
	}
	if s.Loading() {
		t.Fatal("loading must be false once the fetch resolved")
	}
	if diff := cmp.Diff(phones, s.Products()); diff != "" {
		t.Fatalf("cached products mismatch (-want +got):\n%s", diff)
	}
}

func TestByCategory(t *testing.T) {
	s, _ := newTestStore(t)

	got, err := s.ByCategory(context.Background(), "smartphones")
	if err != nil {
		t.Fatalf("listing by category: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("unexpected category result: %+v", got)
	}
}

func TestSearch(t *testing.T) {
	s, _ := newTestStore(t)

	got, err := s.Search(context.Background(), "phone b")
	if err != nil {
		t.Fatalf("searching: %v", err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("unexpected search result: %+v", got)
	}
}

func TestCategoriesCached(t *testing.T) {
	s, hits := newTestStore(t)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		cats, err := s.Categories(ctx)
		if err != nil {
			t.Fatalf("fetching categories: %v", err)
		}
		if len(cats) != 1 || cats[0].Slug != "smartphones" {
			t.Fatalf("unexpected categories: %+v", cats)
		}
	}
	if *hits != 1 {
		t.Fatalf("categories fetched %d times, want 1", *hits)
	}
}

// blockingCatalog parks product fetches until released so tests can
// observe the store mid-fetch.
type blockingCatalog struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingCatalog) Products(ctx context.Context, limit int) ([]shopapi.Product, error) {
	b.started <- struct{}{}
	<-b.release
	return phones, nil
}

func (b *blockingCatalog) ProductsByCategory(ctx context.Context, slug string) ([]shopapi.Product, error) {
	return nil, nil
}

func (b *blockingCatalog) SearchProducts(ctx context.Context, q string) ([]shopapi.Product, error) {
	return nil, nil
}

func (b *blockingCatalog) Categories(ctx context.Context) ([]shopapi.Category, error) {
	return nil, nil
}

func TestLoadingTracksOverlappingFetches(t *testing.T) {
	remote := &blockingCatalog{
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	s := New(remote, testLog())

	done := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		go func() {
			s.List(context.Background())
			done <- struct{}{}
		}()
	}
	<-remote.started
	<-remote.started

	if !s.Loading() {
		t.Fatal("loading must report true while fetches are in flight")
	}

	remote.release <- struct{}{}
	<-done
	if !s.Loading() {
		t.Fatal("loading must stay true while the second fetch is still in flight")
	}

	remote.release <- struct{}{}
	<-done
	if s.Loading() {
		t.Fatal("loading must be false once every fetch resolved")
	}
}

// flakyCatalog serves the first product fetch and fails the rest.
type flakyCatalog struct {
	calls int
}

func (f *flakyCatalog) Products(ctx context.Context, limit int) ([]shopapi.Product, error) {
	f.calls++
	if f.calls > 1 {
		return nil, errors.New("upstream down")
	}
	return phones, nil
}

func (f *flakyCatalog) ProductsByCategory(ctx context.Context, slug string) ([]shopapi.Product, error) {
	return nil, errors.New("upstream down")
}

func (f *flakyCatalog) SearchProducts(ctx context.Context, q string) ([]shopapi.Product, error) {
	return nil, errors.New("upstream down")
}

func (f *flakyCatalog) Categories(ctx context.Context) ([]shopapi.Category, error) {
	return nil, errors.New("upstream down")
}

func TestHandleListServesCacheOnFailure(t *testing.T) {
	s := New(&flakyCatalog{}, testLog())
	handler := HandleList(s)

	warm := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/products", nil)
	if err := handler(r.Context(), warm, r); err != nil {
		t.Fatalf("first listing: %v", err)
	}

	w := httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/products", nil)
	if err := handler(r.Context(), w, r); err != nil {
		t.Fatalf("listing after upstream failure: %v", err)
	}
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var got []shopapi.Product
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decoding fallback body: %v", err)
	}
	if diff := cmp.Diff(phones, got); diff != "" {
		t.Fatalf("fallback products mismatch (-want +got):\n%s", diff)
	}
}
