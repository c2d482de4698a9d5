package auth

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/andes-erp/andes-erp/internal/authz"
	"github.com/andes-erp/andes-erp/internal/quota"
)

// RoleSource yields the role names assigned to a user.
type RoleSource interface {
	EffectiveRoles(ctx context.Context, userID int64) ([]string, error)
}

// QuotaSource yields the current-period quota snapshot for a tenant.
type QuotaSource interface {
	Snapshot(ctx context.Context, tenantID int64, periodKey string) (quota.Snapshot, error)
}

// PrincipalContext is the immutable per-request snapshot of the acting
// user: identity, roles, resolved permissions, and (for tenant members)
// the quota state observed at build time. Everything downstream receives
// this explicitly; no decision ever reads ambient authentication state.
type PrincipalContext struct {
	Principal   authz.Principal
	Permissions authz.PermissionSet
	// UnknownRoles lists assigned role names absent from the bindings.
	// They grant nothing; the middleware logs them.
	UnknownRoles []string
	// Quota is nil for principals without a tenant.
	Quota *quota.Snapshot
}

// PrincipalBuilder assembles a PrincipalContext from persistence. Built
// once per request after session resolution.
type PrincipalBuilder struct {
	repo   Repository
	roles  RoleSource
	quotas QuotaSource
}

// NewPrincipalBuilder constructs a builder. quotas may be nil when quota
// gating is disabled.
func NewPrincipalBuilder(repo Repository, roles RoleSource, quotas QuotaSource) *PrincipalBuilder {
	return &PrincipalBuilder{repo: repo, roles: roles, quotas: quotas}
}

// Build loads the user, its roles, and its tenant's quota snapshot, and
// resolves the effective permission set against the given engine.
func (b *PrincipalBuilder) Build(ctx context.Context, engine *authz.PolicyEngine, userID int64) (*PrincipalContext, error) {
	var (
		user  *User
		roles []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = b.repo.FindByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		roles, err = b.roles.EffectiveRoles(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pc := &PrincipalContext{
		Principal: authz.Principal{
			ID:       user.ID,
			Roles:    roles,
			TenantID: user.CompanyID,
		},
	}
	pc.Permissions, pc.UnknownRoles = engine.Resolver().Resolve(&pc.Principal)

	if b.quotas != nil && user.CompanyID != nil {
		snap, err := b.quotas.Snapshot(ctx, *user.CompanyID, quota.PeriodKeyFor(time.Now()))
		if err != nil {
			return nil, err
		}
		pc.Quota = &snap
	}
	return pc, nil
}

type principalContextKey struct{}

// ContextWithPrincipalContext stores the full snapshot in context.
func ContextWithPrincipalContext(ctx context.Context, pc *PrincipalContext) context.Context {
	return context.WithValue(ctx, principalContextKey{}, pc)
}

// PrincipalContextFromContext extracts the snapshot from context.
func PrincipalContextFromContext(ctx context.Context) *PrincipalContext {
	pc, _ := ctx.Value(principalContextKey{}).(*PrincipalContext)
	return pc
}
