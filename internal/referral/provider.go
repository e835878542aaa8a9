package referral

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/vofmun/registrar/internal/log"
	"github.com/vofmun/registrar/internal/watcher"
)

// Provider hands out the current registry snapshot. The snapshot behind
// it can be swapped atomically; every request sees exactly one immutable
// registry for its whole lifetime.
type Provider struct {
	path     string
	current  atomic.Pointer[Registry]
	resolver *Resolver
	fw       *watcher.Watcher
}

// NewProvider creates a provider over an initial registry. path may be
// empty when the registry did not come from a file; Watch then refuses
// to start.
func NewProvider(path string, initial *Registry) *Provider {
	p := &Provider{path: path}
	p.current.Store(initial)
	return p
}

// Current returns the active registry snapshot.
func (p *Provider) Current() *Registry {
	return p.current.Load()
}

// BindResolver registers the resolver whose suggestion cache is flushed
// after each reload.
func (p *Provider) BindResolver(r *Resolver) {
	p.resolver = r
}

// Reload re-reads the registry file and swaps the snapshot.
func (p *Provider) Reload(ctx context.Context) error {
	if p.path == "" {
		return fmt.Errorf("registry was not loaded from a file")
	}
	reg, err := LoadRegistry(p.path)
	if err != nil {
		return err
	}
	p.current.Store(reg)
	if p.resolver != nil {
		p.resolver.InvalidateSuggestions(ctx)
	}
	log.Info(log.CatReferral, "referral registry reloaded", "path", p.path, "codes", reg.Len())
	return nil
}

// Watch starts a debounced file watcher that reloads the registry when
// the backing file changes. A reload that fails keeps the previous
// snapshot and logs the error. Stops when ctx is cancelled.
func (p *Provider) Watch(ctx context.Context, cfg watcher.Config) error {
	if p.path == "" {
		return fmt.Errorf("registry was not loaded from a file")
	}
	fw, err := watcher.New(cfg)
	if err != nil {
		return err
	}
	changes, err := fw.Start()
	if err != nil {
		_ = fw.Stop()
		return err
	}
	p.fw = fw

	go func() {
		defer func() { _ = fw.Stop() }()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				if err := p.Reload(ctx); err != nil {
					log.ErrorErr(log.CatReferral, "registry reload failed, keeping previous snapshot", err, "path", p.path)
				}
			}
		}
	}()

	return nil
}
