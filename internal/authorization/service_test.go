package authorization

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)

	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestOwnerSignsContracts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.NoError(t, svc.Authorize(ctx, "user:101", RoleOwner, "42", ObjectContract, ActionContractSign))
	assert.ErrorIs(t, svc.Authorize(ctx, "user:102", RoleEngineer, "42", ObjectContract, ActionContractSign), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:103", RoleClient, "42", ObjectContract, ActionContractSign), ErrForbidden)
}

func TestClientDecidesOnQuotes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.NoError(t, svc.Authorize(ctx, "user:103", RoleClient, "42", ObjectQuote, ActionQuoteAccept))
	assert.NoError(t, svc.Authorize(ctx, "user:103", RoleClient, "42", ObjectQuote, ActionQuoteReject))
	assert.ErrorIs(t, svc.Authorize(ctx, "user:103", RoleClient, "42", ObjectQuote, ActionQuoteCreate), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:103", RoleClient, "42", ObjectTimeEntry, ActionTimeEntryView), ErrForbidden)
}

func TestSystemRunsSchedulerActions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.NoError(t, svc.Authorize(ctx, "system", "", "42", ObjectQuote, ActionQuoteExpire))
	assert.NoError(t, svc.Authorize(ctx, "system", "", "42", ObjectFinance, ActionFinanceSnapshot))
	assert.ErrorIs(t, svc.Authorize(ctx, "system", "", "42", ObjectClient, ActionClientArchive), ErrForbidden)
}

func TestRoleChangeReplacesGrouping(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, "user:101", RoleOwner, "42", ObjectClient, ActionClientArchive))

	// Demoted: the old owner grouping must not linger.
	assert.ErrorIs(t, svc.Authorize(ctx, "user:101", RoleClient, "42", ObjectClient, ActionClientArchive), ErrForbidden)
}

func TestRolesAreScopedPerWorkspace(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, "user:101", RoleOwner, "42", ObjectFinance, ActionFinanceView))
	assert.NoError(t, svc.Authorize(ctx, "user:101", RoleClient, "43", ObjectQuote, ActionQuoteView))
	assert.ErrorIs(t, svc.Authorize(ctx, "user:101", RoleClient, "43", ObjectFinance, ActionFinanceView), ErrForbidden)
}

func TestInvalidInputs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, "", RoleOwner, "42", ObjectQuote, ActionQuoteView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:abc", RoleOwner, "42", ObjectQuote, ActionQuoteView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:101", "superuser", "42", ObjectQuote, ActionQuoteView), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:101", RoleOwner, "", ObjectQuote, ActionQuoteView), ErrInvalidOrganization)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:101", RoleOwner, "42", "", ActionQuoteView), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:101", RoleOwner, "42", ObjectQuote, ""), ErrInvalidAction)
}
