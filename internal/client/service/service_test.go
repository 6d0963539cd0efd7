package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	clientdomain "github.com/atelierlab/devisio/internal/client/domain"
	clientrepository "github.com/atelierlab/devisio/internal/client/repository"
	"github.com/atelierlab/devisio/internal/clock"
	"github.com/atelierlab/devisio/internal/orgcontext"
)

func newService(t *testing.T) (clientdomain.Service, context.Context) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&clientdomain.Client{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)),
		Repo:  clientrepository.Provide(),
	})
	return svc, orgcontext.WithOrgID(context.Background(), node.Generate().Int64())
}

func TestCreateGeneratesSlug(t *testing.T) {
	svc, ctx := newService(t)

	resp, err := svc.Create(ctx, clientdomain.CreateRequest{
		Name:  "Société Dupont & Fils",
		Email: "contact@dupont.fr",
	})
	require.NoError(t, err)

	assert.Equal(t, "societe-dupont-fils", resp.Slug)
	assert.False(t, resp.Archived)

	bySlug, err := svc.GetBySlug(ctx, "societe-dupont-fils")
	require.NoError(t, err)
	assert.Equal(t, resp.ID, bySlug.ID)
}

func TestCreateSlugCollisionGetsSuffix(t *testing.T) {
	svc, ctx := newService(t)

	first, err := svc.Create(ctx, clientdomain.CreateRequest{Name: "Acme"})
	require.NoError(t, err)

	second, err := svc.Create(ctx, clientdomain.CreateRequest{Name: "Acme"})
	require.NoError(t, err)

	assert.Equal(t, "acme", first.Slug)
	assert.NotEqual(t, first.Slug, second.Slug)
	assert.Contains(t, second.Slug, "acme-")
}

func TestCreateRejectsBadEmail(t *testing.T) {
	svc, ctx := newService(t)

	_, err := svc.Create(ctx, clientdomain.CreateRequest{
		Name:  "Acme",
		Email: "not-an-email",
	})
	assert.ErrorIs(t, err, clientdomain.ErrInvalidEmail)
}

func TestArchiveHidesFromDefaultList(t *testing.T) {
	svc, ctx := newService(t)

	created, err := svc.Create(ctx, clientdomain.CreateRequest{Name: "Acme"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, clientdomain.CreateRequest{Name: "Globex"})
	require.NoError(t, err)

	_, err = svc.Archive(ctx, created.ID.String())
	require.NoError(t, err)

	active, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Globex", active[0].Name)

	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRenameKeepsSlug(t *testing.T) {
	svc, ctx := newService(t)

	created, err := svc.Create(ctx, clientdomain.CreateRequest{Name: "Acme"})
	require.NoError(t, err)

	newName := "Acme Industries"
	updated, err := svc.Update(ctx, created.ID.String(), clientdomain.UpdateRequest{Name: &newName})
	require.NoError(t, err)

	assert.Equal(t, "Acme Industries", updated.Name)
	assert.Equal(t, "acme", updated.Slug)
}
