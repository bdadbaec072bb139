package db

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/talavis/OrderPortal/internal/oxidb"
)

const dialTimeout = 5 * time.Second

// Pool is a round-robin connection pool for OxiDB with auto-reconnect.
// A slot is held exclusively for the duration of Do or InTx, so a
// transaction never shares its connection with other requests.
type Pool struct {
	host    string
	port    int
	clients []*oxidb.Client
	mu      []sync.Mutex
	idx     uint64
	stop    chan struct{}
	done    chan struct{}
	logger  *slog.Logger
}

// NewPool creates a pool of size OxiDB connections and starts the keepalive
// loop.
func NewPool(ctx context.Context, host string, port, size int, keepalive time.Duration, logger *slog.Logger) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool: size must be positive, got %d", size)
	}
	p := &Pool{
		host:    host,
		port:    port,
		clients: make([]*oxidb.Client, size),
		mu:      make([]sync.Mutex, size),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		logger:  logger.With(slog.String("component", "oxidb_pool")),
	}
	for i := 0; i < size; i++ {
		c, err := oxidb.Connect(ctx, host, port, dialTimeout)
		if err != nil {
			p.closeClients()
			return nil, fmt.Errorf("pool: connect client %d: %w", i, err)
		}
		p.clients[i] = c
	}
	go p.keepalive(keepalive)
	return p, nil
}

// Do runs fn with exclusive use of the next client in round-robin order.
// A client left broken by a previous failure is replaced first.
func (p *Pool) Do(ctx context.Context, fn func(c *oxidb.Client) error) error {
	n := atomic.AddUint64(&p.idx, 1)
	i := int(n % uint64(len(p.clients)))

	p.mu[i].Lock()
	defer p.mu[i].Unlock()

	if p.clients[i] == nil || p.clients[i].Broken() {
		if err := p.reconnectLocked(ctx, i); err != nil {
			return err
		}
	}
	return fn(p.clients[i])
}

// InTx runs fn inside a transaction on a single client. The transaction
// commits when fn succeeds and rolls back otherwise.
func (p *Pool) InTx(ctx context.Context, fn func(c *oxidb.Client) error) error {
	return p.Do(ctx, func(c *oxidb.Client) error {
		return c.WithTransaction(ctx, func() error {
			return fn(c)
		})
	})
}

// Ping checks one connection; used by the health endpoint.
func (p *Pool) Ping(ctx context.Context) error {
	return p.Do(ctx, func(c *oxidb.Client) error {
		_, err := c.Ping(ctx)
		return err
	})
}

// reconnectLocked replaces the client at index i. Caller holds p.mu[i].
func (p *Pool) reconnectLocked(ctx context.Context, i int) error {
	if p.clients[i] != nil {
		p.clients[i].Close()
		p.clients[i] = nil
	}
	c, err := oxidb.Connect(ctx, p.host, p.port, dialTimeout)
	if err != nil {
		p.logger.Warn("reconnect failed", slog.Int("client", i), slog.String("error", err.Error()))
		return fmt.Errorf("pool: reconnect client %d: %w", i, err)
	}
	p.clients[i] = c
	p.logger.Info("client reconnected", slog.Int("client", i))
	return nil
}

func (p *Pool) keepalive(interval time.Duration) {
	defer close(p.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			for i := range p.clients {
				p.pingSlot(i, interval)
			}
		}
	}
}

func (p *Pool) pingSlot(i int, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	p.mu[i].Lock()
	defer p.mu[i].Unlock()

	if p.clients[i] != nil {
		_, err := p.clients[i].Ping(ctx)
		if err == nil {
			return
		}
		p.logger.Warn("ping failed, reconnecting", slog.Int("client", i), slog.String("error", err.Error()))
	}
	_ = p.reconnectLocked(ctx, i)
}

// Close stops the keepalive loop and closes all connections.
func (p *Pool) Close() {
	close(p.stop)
	<-p.done
	p.closeClients()
}

func (p *Pool) closeClients() {
	for i := range p.clients {
		p.mu[i].Lock()
		if p.clients[i] != nil {
			p.clients[i].Close()
			p.clients[i] = nil
		}
		p.mu[i].Unlock()
	}
}
