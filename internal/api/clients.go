package api

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/ebird-recommend/internal/finder"
	"github.com/tphakala/ebird-recommend/internal/logger"
)

// ProviderFactory builds a provider client for one eBird API key.
type ProviderFactory func(apiKey string) (finder.Provider, error)

// pooledClient pairs a provider with the finder wrapping it.
type pooledClient struct {
	provider finder.Provider
	finder   *finder.Finder
}

// clientPool keeps one provider client per API key. Entries expire after
// the pool TTL and expired providers are closed.
type clientPool struct {
	mu         sync.Mutex
	clients    *cache.Cache
	factory    ProviderFactory
	finderOpts []finder.Option
	log        logger.Logger
}

func newClientPool(ttl time.Duration, factory ProviderFactory, log logger.Logger, opts ...finder.Option) *clientPool {
	p := &clientPool{
		clients:    cache.New(ttl, ttl/2),
		factory:    factory,
		finderOpts: opts,
		log:        log,
	}
	p.clients.OnEvicted(p.evicted)
	return p
}

// poolKey hashes the API key so raw keys never sit in the pool.
func poolKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:16])
}

// get returns the finder for apiKey, creating its provider on first use.
func (p *clientPool) get(apiKey string) (*finder.Finder, error) {
	key := poolKey(apiKey)
	if v, ok := p.clients.Get(key); ok {
		return v.(*pooledClient).finder, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.clients.Get(key); ok {
		return v.(*pooledClient).finder, nil
	}

	provider, err := p.factory(apiKey)
	if err != nil {
		return nil, err
	}
	pc := &pooledClient{
		provider: provider,
		finder:   finder.New(provider, p.finderOpts...),
	}
	p.clients.SetDefault(key, pc)
	p.log.Debug("provider client created", logger.String("pool_key", key))

	return pc.finder, nil
}

func (p *clientPool) evicted(key string, v any) {
	pc, ok := v.(*pooledClient)
	if !ok {
		return
	}
	if c, ok := pc.provider.(interface{ Close() }); ok {
		c.Close()
	}
	p.log.Debug("provider client closed", logger.String("pool_key", key))
}

func (p *clientPool) len() int {
	return p.clients.ItemCount()
}

// close evicts every client so each one is closed.
func (p *clientPool) close() {
	for key := range p.clients.Items() {
		p.clients.Delete(key)
	}
}
