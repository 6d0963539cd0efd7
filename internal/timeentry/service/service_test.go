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

	"github.com/atelierlab/devisio/internal/clock"
	"github.com/atelierlab/devisio/internal/config"
	obscontext "github.com/atelierlab/devisio/internal/observability/context"
	"github.com/atelierlab/devisio/internal/orgcontext"
	projectdomain "github.com/atelierlab/devisio/internal/project/domain"
	projectrepository "github.com/atelierlab/devisio/internal/project/repository"
	timeentrydomain "github.com/atelierlab/devisio/internal/timeentry/domain"
	timeentryrepository "github.com/atelierlab/devisio/internal/timeentry/repository"
)

func newService(t *testing.T) (timeentrydomain.Service, context.Context, string) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&timeentrydomain.TimeEntry{}, &projectdomain.Project{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	orgID := node.Generate()
	projectID := node.Generate()
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&projectdomain.Project{
		ID:        projectID,
		OrgID:     orgID,
		ClientID:  node.Generate(),
		Name:      "Refonte site",
		Status:    projectdomain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clock.NewFakeClock(now),
		Finance:     config.NewStaticFinanceConfigHolder(config.DefaultFinanceConfig()),
		Repo:        timeentryrepository.Provide(),
		ProjectRepo: projectrepository.Provide(),
	})
	return svc, orgcontext.WithOrgID(context.Background(), orgID.Int64()), projectID.String()
}

func TestCreateConvertsHoursToDays(t *testing.T) {
	svc, ctx, projectID := newService(t)

	resp, err := svc.Create(ctx, timeentrydomain.CreateRequest{
		ProjectID:   projectID,
		ProfileName: "Dev",
		EntryDate:   time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
		Hours:       4,
	})
	require.NoError(t, err)

	assert.Equal(t, 4.0, resp.Hours)
	assert.InDelta(t, 0.5, resp.Days, 1e-9)
}

func TestCreateRecordsEngineer(t *testing.T) {
	svc, ctx, projectID := newService(t)
	ctx = obscontext.WithActor(ctx, "user", "7000001")

	created, err := svc.Create(ctx, timeentrydomain.CreateRequest{
		ProjectID:   projectID,
		ProfileName: "Dev",
		EntryDate:   time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
		Hours:       8,
	})
	require.NoError(t, err)
	assert.Equal(t, "7000001", created.EngineerID)

	// the attribution survives storage
	reloaded, err := svc.Get(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "7000001", reloaded.EngineerID)
}

func TestCreateValidatesHours(t *testing.T) {
	svc, ctx, projectID := newService(t)

	for _, hours := range []float64{0, -2, 25} {
		_, err := svc.Create(ctx, timeentrydomain.CreateRequest{
			ProjectID:   projectID,
			ProfileName: "Dev",
			EntryDate:   time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
			Hours:       hours,
		})
		assert.ErrorIs(t, err, timeentrydomain.ErrInvalidHours)
	}
}

func TestListFiltersByDateRange(t *testing.T) {
	svc, ctx, projectID := newService(t)

	for _, day := range []int{1, 15, 28} {
		_, err := svc.Create(ctx, timeentrydomain.CreateRequest{
			ProjectID:   projectID,
			ProfileName: "Dev",
			EntryDate:   time.Date(2026, 5, day, 0, 0, 0, 0, time.UTC),
			Hours:       8,
		})
		require.NoError(t, err)
	}

	items, err := svc.List(ctx, timeentrydomain.ListRequest{
		ProjectID: projectID,
		From:      "2026-05-10",
		To:        "2026-05-20",
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 15, items[0].EntryDate.Day())

	_, err = svc.List(ctx, timeentrydomain.ListRequest{From: "2026-05-20", To: "2026-05-10"})
	assert.ErrorIs(t, err, timeentrydomain.ErrInvalidDateRange)
}

func TestDelete(t *testing.T) {
	svc, ctx, projectID := newService(t)

	created, err := svc.Create(ctx, timeentrydomain.CreateRequest{
		ProjectID:   projectID,
		ProfileName: "Dev",
		EntryDate:   time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
		Hours:       8,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID.String()))

	_, err = svc.Get(ctx, created.ID.String())
	assert.ErrorIs(t, err, timeentrydomain.ErrNotFound)
}
