package rbac

import (
	"context"
	"sync"

	"github.com/andes-erp/andes-erp/internal/authz"
)

// Provider owns the process-wide policy engine. Role→permission bindings
// are read-mostly configuration: the provider loads them once at startup
// and swaps in a freshly built engine whenever an admin mutation (or an
// external invalidation signal) calls Reload. Readers always see a
// complete, immutable engine.
type Provider struct {
	service    *Service
	bypassRole string

	mu     sync.RWMutex
	engine *authz.PolicyEngine
}

// NewProvider builds a provider around the persisted bindings. The initial
// engine is empty until the first Reload.
func NewProvider(service *Service, bypassRole string) *Provider {
	return &Provider{
		service:    service,
		bypassRole: bypassRole,
		engine:     authz.NewPolicyEngine(authz.NewRoleResolver(bypassRole, nil)),
	}
}

// Reload replaces the engine with one built from the current database
// bindings.
func (p *Provider) Reload(ctx context.Context) error {
	bindings, err := p.service.Bindings(ctx)
	if err != nil {
		return err
	}
	engine := authz.NewPolicyEngine(authz.NewRoleResolver(p.bypassRole, bindings))
	p.mu.Lock()
	p.engine = engine
	p.mu.Unlock()
	return nil
}

// Engine returns the current policy engine snapshot.
func (p *Provider) Engine() *authz.PolicyEngine {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.engine
}
