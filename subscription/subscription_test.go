package subscription

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeBackend scripts the commerce collaborator.
type fakeBackend struct {
	initErr     error
	entitled    bool
	entitledErr error
	paywalls    []PaywallDefinition
	products    map[string]Product
	purchaseOK  bool
	purchaseErr error
	restoreOK   bool
}

func (b *fakeBackend) Init(ctx context.Context) error { return b.initErr }

func (b *fakeBackend) CheckEntitlement(ctx context.Context) (bool, error) {
	return b.entitled, b.entitledErr
}

func (b *fakeBackend) FetchPaywalls(ctx context.Context) ([]PaywallDefinition, error) {
	return b.paywalls, nil
}

func (b *fakeBackend) ResolveProducts(ctx context.Context, ids []string) (map[string]Product, error) {
	return b.products, nil
}

func (b *fakeBackend) Purchase(ctx context.Context, p Product) (bool, error) {
	return b.purchaseOK, b.purchaseErr
}

func (b *fakeBackend) Restore(ctx context.Context) (bool, error) {
	return b.restoreOK, nil
}

func waitState(t *testing.T, ch <-chan State, cond func(State) bool) State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st, ok := <-ch:
			if !ok {
				t.Fatal("state stream closed")
			}
			if cond(st) {
				return st
			}
		case <-deadline:
			t.Fatal("timed out waiting for state")
		}
	}
}

func monthly(id string) Product {
	return Product{ID: id, Period: Period{Unit: UnitMonth, Length: 1}}
}

func TestConfigRunsCheckAndCatalogLoad(t *testing.T) {
	backend := &fakeBackend{
		entitled: true,
		paywalls: []PaywallDefinition{{Identifier: "onboarding", ProductIDs: []string{"m"}}},
		products: map[string]Product{"m": monthly("m")},
	}
	s := New(backend)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := s.Subscribe(ctx)

	if err := s.Config(ctx); err != nil {
		t.Fatalf("Config failed: %v", err)
	}

	st := waitState(t, ch, func(st State) bool {
		return st.Purchase == PurchaseActive && st.Catalog.State == CatalogLoaded
	})
	if !st.HasActiveSubscription() {
		t.Fatal("HasActiveSubscription = false for active purchase state")
	}
	if got, ok := s.Products(PaywallOnboarding); !ok || len(got) != 1 {
		t.Fatalf("Products(onboarding) = %v, %v", got, ok)
	}
}

func TestConfigIsOneTime(t *testing.T) {
	s := New(&fakeBackend{})
	ctx := context.Background()
	if err := s.Config(ctx); err != nil {
		t.Fatalf("first Config failed: %v", err)
	}
	if err := s.Config(ctx); err == nil {
		t.Fatal("second Config did not fail")
	}
}

func TestConfigInitFailureAllowsRetry(t *testing.T) {
	backend := &fakeBackend{initErr: errors.New("offline")}
	s := New(backend)
	if err := s.Config(context.Background()); err == nil {
		t.Fatal("expected init error")
	}
	backend.initErr = nil
	if err := s.Config(context.Background()); err != nil {
		t.Fatalf("retry after failed init rejected: %v", err)
	}
}

func TestPurchaseSuccessPublishesActive(t *testing.T) {
	backend := &fakeBackend{purchaseOK: true}
	s := New(backend)

	// No catalog activity required for this transition.
	if !s.Purchase(context.Background(), monthly("m")) {
		t.Fatal("Purchase returned false on success")
	}
	st := s.State()
	if st.Purchase != PurchaseActive {
		t.Fatalf("purchase state = %v, want Active", st.Purchase)
	}
	if st.Catalog.State != CatalogNotLoaded {
		t.Fatalf("catalog state changed: %v", st.Catalog.State)
	}
	if !s.HasActiveSubscription() {
		t.Fatal("HasActiveSubscription = false")
	}
}

func TestPurchaseFailurePublishesNone(t *testing.T) {
	for _, backend := range []*fakeBackend{
		{purchaseOK: false},
		{purchaseErr: errors.New("cancelled")},
	} {
		s := New(backend)
		if s.Purchase(context.Background(), monthly("m")) {
			t.Fatal("Purchase returned true on failure")
		}
		if got := s.State().Purchase; got != PurchaseNone {
			t.Fatalf("purchase state = %v, want None", got)
		}
	}
}

func TestRestorePublishesInProgressThenOutcome(t *testing.T) {
	backend := &fakeBackend{restoreOK: true}
	s := New(backend)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := s.Subscribe(ctx)
	waitState(t, ch, func(st State) bool { return st.Purchase == PurchaseNone })

	done := make(chan struct{})
	go func() {
		s.RestorePurchases(context.Background())
		close(done)
	}()
	<-done
	if got := s.State().Purchase; got != PurchaseActive {
		t.Fatalf("purchase state after restore = %v, want Active", got)
	}
}

func TestRestoreWithoutEntitlement(t *testing.T) {
	s := New(&fakeBackend{restoreOK: false})
	s.RestorePurchases(context.Background())
	if got := s.State().Purchase; got != PurchaseNone {
		t.Fatalf("purchase state = %v, want None", got)
	}
}

func TestProductsAbsentWhileNotLoaded(t *testing.T) {
	s := New(&fakeBackend{})
	if _, ok := s.Products(PaywallOnboarding); ok {
		t.Fatal("Products available before catalog load")
	}
}

func TestBuildPaywallsDropsUnknownIdentifiers(t *testing.T) {
	defs := []PaywallDefinition{
		{Identifier: "onboarding", ProductIDs: []string{"a"}},
		{Identifier: "mystery", ProductIDs: []string{"a"}},
	}
	resolved := map[string]Product{"a": monthly("a")}
	got := buildPaywalls(defs, resolved)
	if _, ok := got["mystery"]; ok {
		t.Fatal("unknown paywall identifier survived")
	}
	if len(got[PaywallOnboarding]) != 1 {
		t.Fatalf("onboarding paywall = %v", got[PaywallOnboarding])
	}
}

func TestBuildPaywallsFiltersUnresolvedProducts(t *testing.T) {
	defs := []PaywallDefinition{{Identifier: "upsell", ProductIDs: []string{"a", "gone", "b"}}}
	resolved := map[string]Product{
		"a": monthly("a"),
		"b": monthly("b"),
	}
	got := buildPaywalls(defs, resolved)
	if len(got[PaywallUpsell]) != 2 {
		t.Fatalf("upsell products = %v, want 2", got[PaywallUpsell])
	}
}

func TestProductSortOrder(t *testing.T) {
	products := []Product{
		{ID: "year", Period: Period{Unit: UnitYear, Length: 1}},
		{ID: "week2", Period: Period{Unit: UnitWeek, Length: 2}},
		{ID: "month", Period: Period{Unit: UnitMonth, Length: 1}},
		{ID: "week1", Period: Period{Unit: UnitWeek, Length: 1}},
		{ID: "day", Period: Period{Unit: UnitDay, Length: 7}},
	}
	sortProducts(products)
	want := []string{"day", "week1", "week2", "month", "year"}
	for i, w := range want {
		if products[i].ID != w {
			t.Fatalf("sorted[%d] = %s, want %s (full: %v)", i, products[i].ID, w, products)
		}
	}
}

func TestSubscribeObservesPerStreamOrdering(t *testing.T) {
	backend := &fakeBackend{entitled: true}
	s := New(backend)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := s.Subscribe(ctx)

	if err := s.Config(context.Background()); err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	// The purchase stream must settle on Active; InProgress may be conflated
	// away but never observed after Active.
	waitState(t, ch, func(st State) bool { return st.Purchase == PurchaseActive })
	sawRegression := false
	for {
		select {
		case st := <-ch:
			if st.Purchase != PurchaseActive {
				sawRegression = true
			}
		case <-time.After(100 * time.Millisecond):
			if sawRegression {
				t.Fatal("purchase stream regressed after Active")
			}
			return
		}
	}
}
