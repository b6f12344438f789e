package cart

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/buywell/storefront/core/session"
	"github.com/buywell/storefront/shopapi"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sirupsen/logrus"
)

type fakeRemote struct {
	cart  shopapi.Cart
	found bool

	failFetch  bool
	failAdd    bool
	failDelete bool

	fetches     int
	addCalls    [][]shopapi.CartProduct
	deleteCalls []int
}

func (f *fakeRemote) UserCart(ctx context.Context, userID int) (shopapi.Cart, bool, error) {
	f.fetches++
	if f.failFetch {
		return shopapi.Cart{}, false, errors.New("boom")
	}
	return f.cart, f.found, nil
}

func (f *fakeRemote) AddCart(ctx context.Context, userID int, products []shopapi.CartProduct) (shopapi.Cart, error) {
	if f.failAdd {
		return shopapi.Cart{}, errors.New("boom")
	}
	f.addCalls = append(f.addCalls, products)
	return shopapi.Cart{ID: 51, UserID: userID}, nil
}

func (f *fakeRemote) DeleteCart(ctx context.Context, cartID int) error {
	if f.failDelete {
		return errors.New("boom")
	}
	f.deleteCalls = append(f.deleteCalls, cartID)
	return nil
}

type fakeIdentities struct {
	id *session.Identity
}

func (f *fakeIdentities) Current() (session.Identity, bool) {
	if f.id == nil {
		return session.Identity{}, false
	}
	return *f.id, true
}

func testLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func loggedIn() *fakeIdentities {
	return &fakeIdentities{id: &session.Identity{ID: 1, Username: "emilys"}}
}

var productX = Product{ID: 5, Title: "X", Price: 10, Thumbnail: "t"}

func TestAddNewProduct(t *testing.T) {
	remote := &fakeRemote{}
	s := New(remote, loggedIn(), testLog())

	if err := s.Add(context.Background(), productX); err != nil {
		t.Fatalf("adding product: %v", err)
	}

	want := Cart{
		Items:         []Item{{ProductID: 5, Title: "X", Price: 10, Thumbnail: "t", Quantity: 1}},
		Total:         10,
		TotalQuantity: 1,
	}
	if diff := cmp.Diff(want, s.Snapshot()); diff != "" {
		t.Fatalf("cart mismatch (-want +got):\n%s", diff)
	}
}

func TestAddExistingRaisesQuantity(t *testing.T) {
	remote := &fakeRemote{}
	s := New(remote, loggedIn(), testLog())

	ctx := context.Background()
	if err := s.Add(ctx, productX); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := s.Add(ctx, productX); err != nil {
		t.Fatalf("second add: %v", err)
	}

	got := s.Snapshot()
	if len(got.Items) != 1 {
		t.Fatalf("expected a single line item, got %d", len(got.Items))
	}
	if got.Items[0].Quantity != 2 || got.Total != 20 || got.TotalQuantity != 2 {
		t.Fatalf("unexpected cart after double add: %+v", got)
	}

	last := remote.addCalls[len(remote.addCalls)-1]
	want := []shopapi.CartProduct{{ID: 5, Quantity: 2}}
	if diff := cmp.Diff(want, last); diff != "" {
		t.Fatalf("remote payload mismatch (-want +got):\n%s", diff)
	}
}

func TestSetQuantity(t *testing.T) {
	remote := &fakeRemote{}
	s := New(remote, loggedIn(), testLog())

	ctx := context.Background()
	if err := s.Add(ctx, productX); err != nil {
		t.Fatalf("adding product: %v", err)
	}
	if err := s.SetQuantity(ctx, 5, 3); err != nil {
		t.Fatalf("setting quantity: %v", err)
	}

	got := s.Snapshot()
	if got.Items[0].Quantity != 3 || got.Total != 30 || got.TotalQuantity != 3 {
		t.Fatalf("unexpected cart after quantity change: %+v", got)
	}
}

func TestSetQuantityBelowOneRemoves(t *testing.T) {
	remote := &fakeRemote{}
	s := New(remote, loggedIn(), testLog())

	ctx := context.Background()
	if err := s.Add(ctx, productX); err != nil {
		t.Fatalf("adding product: %v", err)
	}
	if err := s.SetQuantity(ctx, 5, 0); err != nil {
		t.Fatalf("setting quantity to zero: %v", err)
	}

	got := s.Snapshot()
	if len(got.Items) != 0 || got.Total != 0 || got.TotalQuantity != 0 {
		t.Fatalf("expected empty cart, got %+v", got)
	}
	if len(remote.deleteCalls) != 1 {
		t.Fatalf("expected one remote delete, got %d", len(remote.deleteCalls))
	}
}

func TestSetQuantityUnknownProductIsNoop(t *testing.T) {
	remote := &fakeRemote{}
	s := New(remote, loggedIn(), testLog())

	if err := s.SetQuantity(context.Background(), 99, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(remote.addCalls) != 0 || len(remote.deleteCalls) != 0 {
		t.Fatal("no remote call expected for an unknown product")
	}
}

func TestAddWithoutIdentity(t *testing.T) {
	remote := &fakeRemote{}
	s := New(remote, &fakeIdentities{}, testLog())

	err := s.Add(context.Background(), productX)
	if !errors.Is(err, ErrLoginRequired) {
		t.Fatalf("expected ErrLoginRequired, got %v", err)
	}

	got := s.Snapshot()
	if len(got.Items) != 0 || got.Total != 0 || got.TotalQuantity != 0 {
		t.Fatalf("cart mutated without identity: %+v", got)
	}
	if len(remote.addCalls) != 0 {
		t.Fatal("no remote call expected without identity")
	}
}

func TestRemoteFailureLeavesCartUnchanged(t *testing.T) {
	remote := &fakeRemote{}
	s := New(remote, loggedIn(), testLog())

	ctx := context.Background()
	if err := s.Add(ctx, productX); err != nil {
		t.Fatalf("adding product: %v", err)
	}
	before := s.Snapshot()

	remote.failAdd = true
	if err := s.SetQuantity(ctx, 5, 7); err == nil {
		t.Fatal("expected an error from the failing remote")
	}

	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Fatalf("cart changed despite remote failure (-before +after):\n%s", diff)
	}
}

func TestRemoveMiddleItem(t *testing.T) {
	remote := &fakeRemote{}
	s := New(remote, loggedIn(), testLog())

	ctx := context.Background()
	if err := s.Add(ctx, productX); err != nil {
		t.Fatalf("adding product: %v", err)
	}
	if err := s.Add(ctx, Product{ID: 8, Title: "Y", Price: 2.5, Thumbnail: "u"}); err != nil {
		t.Fatalf("adding second product: %v", err)
	}

	if err := s.Remove(ctx, 5); err != nil {
		t.Fatalf("removing product: %v", err)
	}

	got := s.Snapshot()
	want := Cart{
		Items:         []Item{{ProductID: 8, Title: "Y", Price: 2.5, Thumbnail: "u", Quantity: 1}},
		Total:         2.5,
		TotalQuantity: 1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cart mismatch (-want +got):\n%s", diff)
	}
	if len(remote.deleteCalls) != 0 {
		t.Fatal("remote cart must not be deleted while items remain")
	}
}

func TestRemoveUnknownProductIsNoop(t *testing.T) {
	remote := &fakeRemote{}
	s := New(remote, loggedIn(), testLog())

	if err := s.Remove(context.Background(), 99); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(remote.addCalls) != 0 || len(remote.deleteCalls) != 0 {
		t.Fatal("no remote call expected for an unknown product")
	}
}

func TestLoadAdoptsFirstRemoteCartVerbatim(t *testing.T) {
	// Totals deliberately disagree with the line items: at load time
	// the remote record is authoritative, not the local fold.
	remote := &fakeRemote{
		cart: shopapi.Cart{
			ID:     42,
			UserID: 1,
			Products: []shopapi.CartProduct{
				{ID: 5, Title: "X", Price: 10, Quantity: 2, Thumbnail: "t"},
			},
			Total:         99,
			TotalQuantity: 7,
		},
		found: true,
	}
	s := New(remote, loggedIn(), testLog())

	s.Load(context.Background())

	want := Cart{
		Items:         []Item{{ProductID: 5, Title: "X", Price: 10, Thumbnail: "t", Quantity: 2}},
		Total:         99,
		TotalQuantity: 7,
	}
	if diff := cmp.Diff(want, s.Snapshot()); diff != "" {
		t.Fatalf("cart mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadWithoutRemoteCart(t *testing.T) {
	remote := &fakeRemote{}
	s := New(remote, loggedIn(), testLog())

	s.Load(context.Background())

	got := s.Snapshot()
	if len(got.Items) != 0 || got.Total != 0 || got.TotalQuantity != 0 {
		t.Fatalf("expected empty cart, got %+v", got)
	}
}

func TestLoadFetchFailureLeavesCartEmpty(t *testing.T) {
	remote := &fakeRemote{failFetch: true}
	s := New(remote, loggedIn(), testLog())

	s.Load(context.Background())

	got := s.Snapshot()
	if len(got.Items) != 0 {
		t.Fatalf("expected empty cart after fetch failure, got %+v", got)
	}
}

func TestLoadWithoutIdentityResets(t *testing.T) {
	remote := &fakeRemote{}
	ids := loggedIn()
	s := New(remote, ids, testLog())

	ctx := context.Background()
	if err := s.Add(ctx, productX); err != nil {
		t.Fatalf("adding product: %v", err)
	}

	ids.id = nil
	fetched := remote.fetches
	s.Load(ctx)

	got := s.Snapshot()
	if len(got.Items) != 0 || got.Total != 0 || got.TotalQuantity != 0 {
		t.Fatalf("expected reset cart, got %+v", got)
	}
	if remote.fetches != fetched {
		t.Fatal("no network call expected without identity")
	}
}

func TestClearIsLocalOnly(t *testing.T) {
	remote := &fakeRemote{}
	s := New(remote, loggedIn(), testLog())

	ctx := context.Background()
	if err := s.Add(ctx, productX); err != nil {
		t.Fatalf("adding product: %v", err)
	}

	calls := len(remote.addCalls) + len(remote.deleteCalls)
	s.Clear()

	got := s.Snapshot()
	if len(got.Items) != 0 || got.Total != 0 || got.TotalQuantity != 0 {
		t.Fatalf("expected empty cart, got %+v", got)
	}
	if len(remote.addCalls)+len(remote.deleteCalls) != calls {
		t.Fatal("clear must not call the remote")
	}
}

func TestTotalsStayDerivedOverSequences(t *testing.T) {
	remote := &fakeRemote{}
	s := New(remote, loggedIn(), testLog())

	ctx := context.Background()
	products := []Product{
		{ID: 1, Title: "a", Price: 9.99, Thumbnail: "a"},
		{ID: 2, Title: "b", Price: 0.1, Thumbnail: "b"},
		{ID: 3, Title: "c", Price: 129.95, Thumbnail: "c"},
	}
	for _, p := range products {
		if err := s.Add(ctx, p); err != nil {
			t.Fatalf("adding product %d: %v", p.ID, err)
		}
	}
	if err := s.SetQuantity(ctx, 1, 4); err != nil {
		t.Fatalf("setting quantity: %v", err)
	}
	if err := s.SetQuantity(ctx, 2, 13); err != nil {
		t.Fatalf("setting quantity: %v", err)
	}
	if err := s.Remove(ctx, 3); err != nil {
		t.Fatalf("removing product: %v", err)
	}

	got := s.Snapshot()
	var wantTotal float64
	var wantQty int
	for _, it := range got.Items {
		wantTotal += it.Price * float64(it.Quantity)
		wantQty += it.Quantity
	}

	opt := cmpopts.EquateApprox(0, 1e-9)
	if diff := cmp.Diff(wantTotal, got.Total, opt); diff != "" {
		t.Fatalf("total drifted from line items:\n%s", diff)
	}
	if got.TotalQuantity != wantQty {
		t.Fatalf("total quantity drifted: got %d, want %d", got.TotalQuantity, wantQty)
	}
}
