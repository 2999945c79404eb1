// Package pool implements the Connection Pool (C6): one lazily-dialed,
// shared connection per server name, so concurrent callers requesting the
// same server share a single dial instead of racing to connect twice.
package pool

import (
	"context"
	"sync"

	"github.com/viant/mcporter/internal/transport"
)

// Dialer constructs a live connection for the named server. The Orchestrator
// supplies this so the pool itself never needs to know about definitions,
// OAuth, or retries.
type Dialer func(ctx context.Context, name string) (transport.Conn, error)

// lazyFuture resolves its dial exactly once; concurrent callers before
// resolution block on the same sync.Once rather than each dialing.
type lazyFuture struct {
	once  sync.Once
	conn  transport.Conn
	err   error
	ready chan struct{}
}

func newLazyFuture() *lazyFuture {
	return &lazyFuture{ready: make(chan struct{})}
}

func (f *lazyFuture) resolve(ctx context.Context, name string, dial Dialer) (transport.Conn, error) {
	f.once.Do(func() {
		f.conn, f.err = dial(ctx, name)
		close(f.ready)
	})
	<-f.ready
	return f.conn, f.err
}

// Pool holds at most one lazyFuture per server name. A future that resolved
// to an error is evicted immediately so the next Get retries the dial.
type Pool struct {
	mu      sync.Mutex
	futures map[string]*lazyFuture
	dial    Dialer
}

// New returns an empty Pool that calls dial to materialize a connection on
// first use of each server name.
func New(dial Dialer) *Pool {
	return &Pool{futures: make(map[string]*lazyFuture), dial: dial}
}

// Get returns the shared connection for name, dialing it if this is the
// first request. When skipCache is true, Get always dials a fresh,
// unshared connection and never touches or populates the map — used for
// one-off calls that must not pin a long-lived connection.
func (p *Pool) Get(ctx context.Context, name string, skipCache bool) (transport.Conn, error) {
	if skipCache {
		return p.dial(ctx, name)
	}

	p.mu.Lock()
	f, ok := p.futures[name]
	if !ok {
		f = newLazyFuture()
		p.futures[name] = f
	}
	p.mu.Unlock()

	conn, err := f.resolve(ctx, name, p.dial)
	if err != nil {
		p.mu.Lock()
		if p.futures[name] == f {
			delete(p.futures, name)
		}
		p.mu.Unlock()
		return nil, err
	}
	return conn, nil
}

// Close tears down and forgets the pooled connection for name, if any. It is
// a no-op if name was never connected or was connected only via skipCache.
func (p *Pool) Close(name string) error {
	p.mu.Lock()
	f, ok := p.futures[name]
	if ok {
		delete(p.futures, name)
	}
	p.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-f.ready:
		if f.err == nil && f.conn != nil {
			return f.conn.Close()
		}
	default:
		// Never resolved (still dialing or stuck): nothing to close yet.
		// The in-flight dial's own context cancellation, driven by the
		// caller, is responsible for unblocking it.
	}
	return nil
}

// CloseAll tears down every pooled connection, collecting but not stopping
// on individual close errors.
func (p *Pool) CloseAll() error {
	p.mu.Lock()
	names := make([]string, 0, len(p.futures))
	for name := range p.futures {
		names = append(names, name)
	}
	p.mu.Unlock()

	var firstErr error
	for _, name := range names {
		if err := p.Close(name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Names returns the server names currently holding a resolved or in-flight
// connection.
func (p *Pool) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.futures))
	for name := range p.futures {
		out = append(out, name)
	}
	return out
}
