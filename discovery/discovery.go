// Package discovery finds print-capable services on the local network. A
// Machine owns one browse session at a time: it browses the configured
// service types, resolves each discovered candidate to a host and port
// under a bounded timeout, deduplicates endpoints by (host, port), and
// publishes immutable snapshots of the full result set to subscribers.
//
// Resolution failures are absorbed: the candidate is dropped, a debug log
// line is emitted, and browsing continues. There is no error state; the
// machine is either Idle or Discovering.
package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wudi/printkit/observability"
)

// Printer is one discovered endpoint. Identity is the (Host, Port) pair;
// Name and ServiceType are descriptive only.
type Printer struct {
	Name        string
	Host        string
	Port        int
	ServiceType string
}

func (p Printer) key() string { return fmt.Sprintf("%s:%d", p.Host, p.Port) }

// Snapshot is an immutable copy of the discovered set, in insertion order.
type Snapshot []Printer

// Candidate is a browsed service instance awaiting address resolution.
type Candidate struct {
	Instance string
	Service  string
	Domain   string
}

// Endpoint is the outcome of resolving a Candidate.
type Endpoint struct {
	Name string
	Host string
	Port int
}

// Browser starts browsing one service type, delivering candidates to found
// until ctx is cancelled. It returns promptly; a non-nil error means
// browsing could not start.
type Browser interface {
	Browse(ctx context.Context, service string, found chan<- Candidate) error
}

// Resolver resolves a candidate to an address. Implementations must honor
// ctx, which carries the per-candidate timeout.
type Resolver interface {
	Resolve(ctx context.Context, c Candidate) (Endpoint, error)
}

// State of the machine.
type State int

const (
	Idle State = iota
	Discovering
)

// Service types browsed by default: IPP printers and raw port-9100 class
// printers advertising PDL data streams.
var DefaultServiceTypes = []string{"_ipp._tcp", "_pdl-datastream._tcp"}

// DefaultResolveTimeout bounds each candidate's address resolution.
const DefaultResolveTimeout = 5 * time.Second

// Machine is the discovery state machine. All exported methods are safe for
// concurrent use.
type Machine struct {
	browser  Browser
	resolver Resolver
	log      observability.Logger
	timeout  time.Duration
	services []string

	mu       sync.Mutex
	gen      uint64 // session generation; bumped on every start and stop
	cancel   context.CancelFunc
	printers []Printer
	seen     map[string]struct{}
	subs     map[chan Snapshot]struct{}
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the machine's logger. Default is Nop.
func WithLogger(log observability.Logger) Option {
	return func(m *Machine) { m.log = log }
}

// WithResolveTimeout overrides the per-candidate resolution timeout.
func WithResolveTimeout(d time.Duration) Option {
	return func(m *Machine) { m.timeout = d }
}

// WithServiceTypes overrides the browsed service types.
func WithServiceTypes(services ...string) Option {
	return func(m *Machine) { m.services = services }
}

// New returns an idle Machine browsing with the given browser and resolver.
func New(browser Browser, resolver Resolver, opts ...Option) *Machine {
	m := &Machine{
		browser:  browser,
		resolver: resolver,
		log:      observability.Nop(),
		timeout:  DefaultResolveTimeout,
		services: DefaultServiceTypes,
		seen:     make(map[string]struct{}),
		subs:     make(map[chan Snapshot]struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// State reports whether a session is active.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return Discovering
	}
	return Idle
}

// Printers returns a copy of the current result set.
func (m *Machine) Printers() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Start begins a discovery session and returns a subscription to its
// snapshots. If a session is already active it is fully stopped first (set
// cleared, browse handles released), then a fresh session begins.
// Cancelling ctx stops the session and closes the returned stream; an
// explicit Stop leaves streams open so they observe the empty set and any
// later session.
//
// The returned channel is conflated: a slow receiver observes the latest
// snapshot rather than every intermediate one, in publication order.
func (m *Machine) Start(ctx context.Context) <-chan Snapshot {
	m.mu.Lock()
	m.stopLocked()

	sctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.gen++
	gen := m.gen

	candidates := make(chan Candidate, 16)
	for _, svc := range m.services {
		svc := svc
		go func() {
			if err := m.browser.Browse(sctx, svc, candidates); err != nil {
				m.log.Warn("browse failed to start",
					observability.String("service", svc),
					observability.Error(err))
			}
		}()
	}
	go m.resolveLoop(sctx, gen, candidates)

	sub := m.subscribeLocked()
	go func() {
		<-ctx.Done()
		m.stopIfGen(gen)
		m.mu.Lock()
		if _, ok := m.subs[sub]; ok {
			delete(m.subs, sub)
			close(sub)
		}
		m.mu.Unlock()
	}()
	m.mu.Unlock()

	m.log.Info("discovery started", observability.Uint64("session", gen))
	return sub
}

// Subscribe returns an additional snapshot stream for the machine. The
// current snapshot is delivered immediately; the stream closes when ctx is
// cancelled.
func (m *Machine) Subscribe(ctx context.Context) <-chan Snapshot {
	m.mu.Lock()
	sub := m.subscribeLocked()
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		if _, ok := m.subs[sub]; ok {
			delete(m.subs, sub)
			close(sub)
		}
		m.mu.Unlock()
	}()
	return sub
}

// Stop halts browsing, cancels outstanding resolutions, clears the result
// set and publishes the empty snapshot. Stopping an idle machine only
// republishes the empty set.
func (m *Machine) Stop() {
	m.mu.Lock()
	m.stopLocked()
	m.publishLocked()
	m.mu.Unlock()
	m.log.Info("discovery stopped")
}

func (m *Machine) stopIfGen(gen uint64) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.stopLocked()
	m.publishLocked()
	m.mu.Unlock()
}

// stopLocked tears down the active session without publishing.
func (m *Machine) stopLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.gen++
	m.printers = nil
	m.seen = make(map[string]struct{})
}

func (m *Machine) resolveLoop(ctx context.Context, gen uint64, candidates <-chan Candidate) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-candidates:
			go m.resolveOne(ctx, gen, c)
		}
	}
}

func (m *Machine) resolveOne(ctx context.Context, gen uint64, c Candidate) {
	rctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	ep, err := m.resolver.Resolve(rctx, c)
	if err != nil {
		// Dropped silently; discovery continues.
		m.log.Debug("resolve failed",
			observability.String("instance", c.Instance),
			observability.String("service", c.Service),
			observability.Error(err))
		return
	}
	m.add(gen, Printer{Name: ep.Name, Host: ep.Host, Port: ep.Port, ServiceType: c.Service})
}

// add inserts a resolved printer unless a record with the same (host, port)
// identity already exists, then publishes the updated set. Results from a
// superseded session are discarded.
func (m *Machine) add(gen uint64, p Printer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return
	}
	if _, dup := m.seen[p.key()]; dup {
		m.log.Debug("duplicate endpoint dropped",
			observability.String("host", p.Host),
			observability.Int("port", p.Port))
		return
	}
	m.seen[p.key()] = struct{}{}
	m.printers = append(m.printers, p)
	m.log.Info("printer discovered",
		observability.String("name", p.Name),
		observability.String("host", p.Host),
		observability.Int("port", p.Port))
	m.publishLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	out := make(Snapshot, len(m.printers))
	copy(out, m.printers)
	return out
}

func (m *Machine) subscribeLocked() chan Snapshot {
	sub := make(chan Snapshot, 1)
	sub <- m.snapshotLocked()
	m.subs[sub] = struct{}{}
	return sub
}

// publishLocked delivers the current snapshot to every subscriber,
// replacing an undelivered previous snapshot rather than blocking.
func (m *Machine) publishLocked() {
	snap := m.snapshotLocked()
	for sub := range m.subs {
		select {
		case sub <- snap:
		default:
			select {
			case <-sub:
			default:
			}
			sub <- snap
		}
	}
}
