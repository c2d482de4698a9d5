package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andes-erp/andes-erp/internal/authz"
	"github.com/andes-erp/andes-erp/internal/quota"
)

type stubRepo struct {
	users map[int64]*User
	err   error
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errors.New("not found")
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

type stubRoles struct {
	roles map[int64][]string
	err   error
}

func (s *stubRoles) EffectiveRoles(ctx context.Context, userID int64) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.roles[userID], nil
}

type stubQuotas struct {
	snapshots map[int64]quota.Snapshot
	calls     int
}

func (s *stubQuotas) Snapshot(ctx context.Context, tenantID int64, periodKey string) (quota.Snapshot, error) {
	s.calls++
	snap := s.snapshots[tenantID]
	snap.PeriodKey = periodKey
	return snap, nil
}

func testEngine() *authz.PolicyEngine {
	return authz.NewPolicyEngine(authz.NewRoleResolver("SuperAdmin", map[string][]string{
		"Vendedor": {"ventas.index", "ventas.store"},
	}))
}

func companyID(id int64) *int64 {
	return &id
}

func TestBuildPrincipalContext(t *testing.T) {
	limit := decimal.RequireFromString("100.00")
	repo := &stubRepo{users: map[int64]*User{
		7: {ID: 7, Email: "vendedor@acme.test", CompanyID: companyID(5), IsActive: true},
	}}
	roles := &stubRoles{roles: map[int64][]string{7: {"Vendedor"}}}
	quotas := &stubQuotas{snapshots: map[int64]quota.Snapshot{
		5: {Limit: &limit, Used: decimal.RequireFromString("12.50")},
	}}

	builder := NewPrincipalBuilder(repo, roles, quotas)
	pc, err := builder.Build(context.Background(), testEngine(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(7), pc.Principal.ID)
	assert.Equal(t, []string{"Vendedor"}, pc.Principal.Roles)
	require.NotNil(t, pc.Principal.TenantID)
	assert.Equal(t, int64(5), *pc.Principal.TenantID)
	assert.True(t, pc.Permissions.Has("ventas.index"))
	assert.False(t, pc.Permissions.Has("ventas.destroy"))
	assert.Empty(t, pc.UnknownRoles)
	require.NotNil(t, pc.Quota)
	assert.Equal(t, quota.PeriodKeyFor(time.Now()), pc.Quota.PeriodKey)
}

func TestBuildReportsUnknownRoles(t *testing.T) {
	repo := &stubRepo{users: map[int64]*User{
		7: {ID: 7, CompanyID: companyID(5), IsActive: true},
	}}
	roles := &stubRoles{roles: map[int64][]string{7: {"Vendedor", "Fantasma"}}}

	builder := NewPrincipalBuilder(repo, roles, nil)
	pc, err := builder.Build(context.Background(), testEngine(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"fantasma"}, pc.UnknownRoles)
	assert.True(t, pc.Permissions.Has("ventas.index"))
}

func TestBuildSkipsQuotaWithoutTenant(t *testing.T) {
	repo := &stubRepo{users: map[int64]*User{
		1: {ID: 1, IsActive: true},
	}}
	roles := &stubRoles{roles: map[int64][]string{1: {"SuperAdmin"}}}
	quotas := &stubQuotas{}

	builder := NewPrincipalBuilder(repo, roles, quotas)
	pc, err := builder.Build(context.Background(), testEngine(), 1)
	require.NoError(t, err)
	assert.Nil(t, pc.Quota)
	assert.Zero(t, quotas.calls)
	assert.True(t, pc.Permissions.Universal())
}

func TestBuildPropagatesErrors(t *testing.T) {
	repo := &stubRepo{err: errors.New("db down")}
	roles := &stubRoles{roles: map[int64][]string{}}

	builder := NewPrincipalBuilder(repo, roles, nil)
	_, err := builder.Build(context.Background(), testEngine(), 7)
	require.Error(t, err)

	repo = &stubRepo{users: map[int64]*User{7: {ID: 7}}}
	rolesErr := &stubRoles{err: errors.New("roles down")}
	builder = NewPrincipalBuilder(repo, rolesErr, nil)
	_, err = builder.Build(context.Background(), testEngine(), 7)
	require.Error(t, err)
}
