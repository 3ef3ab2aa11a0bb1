// Package subscription reconciles two independently-updating producers —
// purchase status and the product catalog — into one observable state. Each
// producer's updates are published strictly in emission order; there is no
// joint atomicity across the two, so an observer may see the catalog loaded
// before the purchase check lands, or the reverse. Derived predicates
// (HasActiveSubscription) read the purchase stream only.
package subscription

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/wudi/printkit/observability"
)

// PeriodUnit orders subscription periods: day < week < month < year.
type PeriodUnit int

const (
	UnitDay PeriodUnit = iota
	UnitWeek
	UnitMonth
	UnitYear
)

func (u PeriodUnit) String() string {
	switch u {
	case UnitDay:
		return "day"
	case UnitWeek:
		return "week"
	case UnitMonth:
		return "month"
	case UnitYear:
		return "year"
	default:
		return "unknown"
	}
}

// Period is a subscription duration, e.g. {UnitMonth, 1}.
type Period struct {
	Unit   PeriodUnit
	Length int
}

// Product is a purchasable subscription product.
type Product struct {
	ID     string
	Title  string
	Price  string
	Period Period
}

// PaywallID selects which product group a purchase prompt displays.
type PaywallID string

// The paywall contexts the application knows how to present. Definitions
// fetched under any other identifier are dropped during catalog build.
const (
	PaywallOnboarding PaywallID = "onboarding"
	PaywallUpsell     PaywallID = "upsell"
)

var knownPaywalls = map[PaywallID]struct{}{
	PaywallOnboarding: {},
	PaywallUpsell:     {},
}

// CatalogState is the load-state of the product catalog.
type CatalogState int

const (
	CatalogNotLoaded CatalogState = iota
	CatalogLoading
	CatalogLoaded
	CatalogFailed
)

// Catalog is the product catalog with its load-state. Paywalls is non-nil
// only in the Loaded state; Err only in Failed.
type Catalog struct {
	State    CatalogState
	Paywalls map[PaywallID][]Product
	Err      error
}

// PurchaseState is the entitlement state of the user.
type PurchaseState int

const (
	PurchaseNone PurchaseState = iota
	PurchaseInProgress
	PurchaseActive
)

// PaywallDefinition is a fetched paywall: an identifier plus the commerce
// product IDs it offers, in backend order.
type PaywallDefinition struct {
	Identifier string
	ProductIDs []string
}

// Backend is the commerce collaborator. All calls may block on a network
// round-trip and must honor ctx.
type Backend interface {
	Init(ctx context.Context) error
	CheckEntitlement(ctx context.Context) (bool, error)
	FetchPaywalls(ctx context.Context) ([]PaywallDefinition, error)
	// ResolveProducts maps commerce product IDs to products. IDs missing
	// from the result could not be resolved and are filtered out silently.
	ResolveProducts(ctx context.Context, ids []string) (map[string]Product, error)
	Purchase(ctx context.Context, product Product) (bool, error)
	Restore(ctx context.Context) (bool, error)
}

// State is the merged observable snapshot.
type State struct {
	Catalog  Catalog
	Purchase PurchaseState
}

// HasActiveSubscription reports whether the purchase stream shows an active
// entitlement. It does not consult the catalog.
func (s State) HasActiveSubscription() bool { return s.Purchase == PurchaseActive }

// Store owns the merged state. Safe for concurrent use.
type Store struct {
	backend Backend
	log     observability.Logger

	mu         sync.Mutex
	configured bool
	catalog    Catalog
	purchase   PurchaseState
	subs       map[chan State]struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger. Default is Nop.
func WithLogger(log observability.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New returns a store over the given commerce backend. The catalog starts
// NotLoaded and the purchase state None until Config runs.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		log:     observability.Nop(),
		catalog: Catalog{State: CatalogNotLoaded},
		subs:    make(map[chan State]struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

var errAlreadyConfigured = errors.New("subscription: already configured")

// Config initializes the commerce backend and starts the two background
// producers: the catalog load (Loading, then Loaded or Failed) and the
// initial entitlement check (InProgress, then Active or None). It is a
// one-time hook; calling it again returns an error without side effects.
func (s *Store) Config(ctx context.Context) error {
	s.mu.Lock()
	if s.configured {
		s.mu.Unlock()
		return errAlreadyConfigured
	}
	s.configured = true
	s.mu.Unlock()

	if err := s.backend.Init(ctx); err != nil {
		s.mu.Lock()
		s.configured = false
		s.mu.Unlock()
		return err
	}
	go s.loadCatalog(ctx)
	go s.checkEntitlement(ctx)
	return nil
}

// Purchase runs a backend transaction for the product and reports success.
// On completion it publishes Active (success) or None (failure or cancel)
// directly to the purchase stream; the entitlement check flow is not
// re-triggered.
func (s *Store) Purchase(ctx context.Context, product Product) bool {
	ok, err := s.backend.Purchase(ctx, product)
	if err != nil {
		s.log.Warn("purchase failed", observability.String("product", product.ID), observability.Error(err))
		ok = false
	}
	if ok {
		s.setPurchase(PurchaseActive)
	} else {
		s.setPurchase(PurchaseNone)
	}
	return ok
}

// RestorePurchases publishes InProgress, asks the backend for an active
// entitlement among restored transactions, then publishes Active or None.
func (s *Store) RestorePurchases(ctx context.Context) {
	s.setPurchase(PurchaseInProgress)
	active, err := s.backend.Restore(ctx)
	if err != nil {
		s.log.Warn("restore failed", observability.Error(err))
		active = false
	}
	if active {
		s.setPurchase(PurchaseActive)
	} else {
		s.setPurchase(PurchaseNone)
	}
}

// Products returns the product list for a paywall. The second return is
// false while the catalog is not loaded or the paywall is unknown: absence,
// not an error.
func (s *Store) Products(id PaywallID) ([]Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.catalog.State != CatalogLoaded {
		return nil, false
	}
	products, ok := s.catalog.Paywalls[id]
	if !ok {
		return nil, false
	}
	out := make([]Product, len(products))
	copy(out, products)
	return out, true
}

// State returns the current merged snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// HasActiveSubscription is shorthand for State().HasActiveSubscription().
func (s *Store) HasActiveSubscription() bool { return s.State().HasActiveSubscription() }

// Subscribe returns a stream of merged snapshots, starting with the current
// one. The stream is conflated (a slow reader sees the latest state) and
// closes when ctx is cancelled, which also detaches the observer.
func (s *Store) Subscribe(ctx context.Context) <-chan State {
	s.mu.Lock()
	sub := make(chan State, 1)
	sub <- s.stateLocked()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if _, ok := s.subs[sub]; ok {
			delete(s.subs, sub)
			close(sub)
		}
		s.mu.Unlock()
	}()
	return sub
}

func (s *Store) loadCatalog(ctx context.Context) {
	s.setCatalog(Catalog{State: CatalogLoading})

	defs, err := s.backend.FetchPaywalls(ctx)
	if err != nil {
		s.log.Warn("paywall fetch failed", observability.Error(err))
		s.setCatalog(Catalog{State: CatalogFailed, Err: err})
		return
	}

	ids := make([]string, 0)
	for _, def := range defs {
		ids = append(ids, def.ProductIDs...)
	}
	resolved, err := s.backend.ResolveProducts(ctx, ids)
	if err != nil {
		s.log.Warn("product resolve failed", observability.Error(err))
		s.setCatalog(Catalog{State: CatalogFailed, Err: err})
		return
	}

	s.setCatalog(Catalog{State: CatalogLoaded, Paywalls: buildPaywalls(defs, resolved)})
}

func (s *Store) checkEntitlement(ctx context.Context) {
	s.setPurchase(PurchaseInProgress)
	active, err := s.backend.CheckEntitlement(ctx)
	if err != nil {
		s.log.Warn("entitlement check failed", observability.Error(err))
		active = false
	}
	if active {
		s.setPurchase(PurchaseActive)
	} else {
		s.setPurchase(PurchaseNone)
	}
}

func (s *Store) setPurchase(p PurchaseState) {
	s.mu.Lock()
	s.purchase = p
	s.publishLocked()
	s.mu.Unlock()
}

func (s *Store) setCatalog(c Catalog) {
	s.mu.Lock()
	s.catalog = c
	s.publishLocked()
	s.mu.Unlock()
}

func (s *Store) stateLocked() State {
	return State{Catalog: s.catalog, Purchase: s.purchase}
}

func (s *Store) publishLocked() {
	state := s.stateLocked()
	for sub := range s.subs {
		select {
		case sub <- state:
		default:
			select {
			case <-sub:
			default:
			}
			sub <- state
		}
	}
}

// buildPaywalls maps fetched definitions onto the known paywall
// identifiers. Unknown identifiers are dropped; products that did not
// resolve are filtered out; the surviving products are ordered by period
// unit (day < week < month < year), then numeric length ascending.
func buildPaywalls(defs []PaywallDefinition, resolved map[string]Product) map[PaywallID][]Product {
	out := make(map[PaywallID][]Product)
	for _, def := range defs {
		id := PaywallID(def.Identifier)
		if _, known := knownPaywalls[id]; !known {
			continue
		}
		products := make([]Product, 0, len(def.ProductIDs))
		for _, pid := range def.ProductIDs {
			if p, ok := resolved[pid]; ok {
				products = append(products, p)
			}
		}
		sortProducts(products)
		out[id] = products
	}
	return out
}

func sortProducts(products []Product) {
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].Period.Unit != products[j].Period.Unit {
			return products[i].Period.Unit < products[j].Period.Unit
		}
		return products[i].Period.Length < products[j].Period.Length
	})
}
