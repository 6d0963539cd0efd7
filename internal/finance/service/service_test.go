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
	contractdomain "github.com/atelierlab/devisio/internal/contract/domain"
	contractrepository "github.com/atelierlab/devisio/internal/contract/repository"
	financedomain "github.com/atelierlab/devisio/internal/finance/domain"
	financerepository "github.com/atelierlab/devisio/internal/finance/repository"
	"github.com/atelierlab/devisio/internal/orgcontext"
	projectdomain "github.com/atelierlab/devisio/internal/project/domain"
	projectrepository "github.com/atelierlab/devisio/internal/project/repository"
	"github.com/atelierlab/devisio/internal/quote/costing"
	quotedomain "github.com/atelierlab/devisio/internal/quote/domain"
	quoterepository "github.com/atelierlab/devisio/internal/quote/repository"
	timeentrydomain "github.com/atelierlab/devisio/internal/timeentry/domain"
	timeentryrepository "github.com/atelierlab/devisio/internal/timeentry/repository"
)

type testEnv struct {
	svc       financedomain.Service
	db        *gorm.DB
	node      *snowflake.Node
	ctx       context.Context
	orgID     snowflake.ID
	projectID snowflake.ID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&financedomain.Snapshot{},
		&projectdomain.Project{},
		&quotedomain.Quote{},
		&quotedomain.Profile{},
		&quotedomain.AbaqueEntry{},
		&quotedomain.CostingCategory{},
		&quotedomain.CostingActivity{},
		&quotedomain.CostingComponent{},
		&quotedomain.TransverseLevel{},
		&quotedomain.TransverseActivity{},
		&contractdomain.Contract{},
		&contractdomain.ContractProfile{},
		&timeentrydomain.TimeEntry{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	orgID := node.Generate()
	projectID := node.Generate()
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
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
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Clock:         clock.NewFakeClock(now),
		Finance:       config.NewStaticFinanceConfigHolder(config.DefaultFinanceConfig()),
		Repo:          financerepository.Provide(),
		ProjectRepo:   projectrepository.Provide(),
		QuoteRepo:     quoterepository.Provide(),
		ContractRepo:  contractrepository.Provide(),
		TimeEntryRepo: timeentryrepository.Provide(),
	})

	return &testEnv{
		svc:       svc,
		db:        db,
		node:      node,
		ctx:       orgcontext.WithOrgID(context.Background(), orgID.Int64()),
		orgID:     orgID,
		projectID: projectID,
	}
}

func (e *testEnv) seedSignedContract(t *testing.T, budgetDays float64) *contractdomain.Contract {
	t.Helper()

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	c := &contractdomain.Contract{
		ID:        e.node.Generate(),
		OrgID:     e.orgID,
		ProjectID: e.projectID,
		Reference: "C-2026-001",
		Type:      contractdomain.TypeTimeAndMaterials,
		Status:    contractdomain.StatusSigned,
		SignedAt:  &now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.Profiles = []contractdomain.ContractProfile{{
		ID:         e.node.Generate(),
		ContractID: c.ID,
		Name:       "Dev",
		DailyRate:  500,
		BudgetDays: budgetDays,
	}}
	require.NoError(t, e.db.Create(c).Error)
	return c
}

// seedAcceptedQuote stores an accepted quote whose costing tree totalizes to
// daysM x coefficient days for profile Dev at 500/day.
func (e *testEnv) seedAcceptedQuote(t *testing.T, number string, daysM, coefficient float64, acceptedAt time.Time) *quotedomain.Quote {
	t.Helper()

	q := &quotedomain.Quote{
		ID:           e.node.Generate(),
		OrgID:        e.orgID,
		ProjectID:    e.projectID,
		Number:       number,
		Title:        "Refonte site vitrine",
		Status:       quotedomain.StatusAccepted,
		Version:      1,
		ValidityDays: 30,
		AcceptedAt:   &acceptedAt,
		CreatedAt:    acceptedAt,
		UpdatedAt:    acceptedAt,
	}
	q.Profiles = []quotedomain.Profile{{
		ID:        e.node.Generate(),
		QuoteID:   q.ID,
		Name:      "Dev",
		DailyRate: 500,
	}}
	q.Abaques = []quotedomain.AbaqueEntry{{
		ID:            e.node.Generate(),
		QuoteID:       q.ID,
		ComponentName: "Login Page",
		ProfileName:   "Dev",
		DaysM:         daysM,
	}}
	category := quotedomain.CostingCategory{
		ID:      e.node.Generate(),
		QuoteID: q.ID,
		Name:    "Front",
	}
	activity := quotedomain.CostingActivity{
		ID:         e.node.Generate(),
		CategoryID: category.ID,
		Name:       "Auth",
		Active:     true,
	}
	activity.Components = []quotedomain.CostingComponent{{
		ID:            e.node.Generate(),
		ActivityID:    activity.ID,
		ComponentName: "Login Page",
		Complexity:    costing.Medium,
		Coefficient:   coefficient,
	}}
	category.Activities = []quotedomain.CostingActivity{activity}
	q.Categories = []quotedomain.CostingCategory{category}
	require.NoError(t, e.db.Create(q).Error)
	return q
}

func (e *testEnv) logHours(t *testing.T, day int, hours float64) {
	t.Helper()

	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, e.db.Create(&timeentrydomain.TimeEntry{
		ID:          e.node.Generate(),
		OrgID:       e.orgID,
		ProjectID:   e.projectID,
		ProfileName: "Dev",
		EntryDate:   time.Date(2026, 5, day, 0, 0, 0, 0, time.UTC),
		Hours:       hours,
		CreatedAt:   now,
		UpdatedAt:   now,
	}).Error)
}

func TestProjectReport(t *testing.T) {
	env := newTestEnv(t)
	contract := env.seedSignedContract(t, 20)
	// 96 hours = 12 days
	for day := 1; day <= 12; day++ {
		env.logHours(t, day, 8)
	}

	resp, err := env.svc.ProjectReport(env.ctx, env.projectID.String())
	require.NoError(t, err)

	assert.Equal(t, financedomain.SourceSignedContract, resp.Source)
	assert.Equal(t, contract.ID, resp.SourceID)
	assert.Equal(t, "C-2026-001", resp.SourceReference)
	assert.Equal(t, "time_and_materials", resp.ContractType)
	assert.InDelta(t, 20.0, resp.Report.BudgetDays, 1e-9)
	assert.InDelta(t, 12.0, resp.Report.ConsumedDays, 1e-9)
	assert.InDelta(t, 8.0, resp.Report.RemainingDays, 1e-9)
	assert.InDelta(t, 60.0, resp.Report.ConsumptionPercent, 1e-9)
}

func TestProjectReportFromAcceptedQuote(t *testing.T) {
	env := newTestEnv(t)
	// no contract at all: 5 days x coefficient 4 = 20 budget days
	quote := env.seedAcceptedQuote(t, "Q-2026-001", 5, 4, time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC))
	env.logHours(t, 2, 8)

	resp, err := env.svc.ProjectReport(env.ctx, env.projectID.String())
	require.NoError(t, err)

	assert.Equal(t, financedomain.SourceAcceptedQuote, resp.Source)
	assert.Equal(t, quote.ID, resp.SourceID)
	assert.Equal(t, "Q-2026-001", resp.SourceReference)
	assert.Empty(t, resp.ContractType)
	assert.InDelta(t, 20.0, resp.Report.BudgetDays, 1e-9)
	assert.InDelta(t, 1.0, resp.Report.ConsumedDays, 1e-9)
	assert.InDelta(t, 10000.0, resp.Report.BudgetAmountHT, 1e-9)
	assert.InDelta(t, 5.0, resp.Report.ConsumptionPercent, 1e-9)
}

func TestProjectReportPrefersAcceptedQuote(t *testing.T) {
	env := newTestEnv(t)
	env.seedSignedContract(t, 20)
	first := env.seedAcceptedQuote(t, "Q-2026-001", 2, 1, time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	latest := env.seedAcceptedQuote(t, "Q-2026-002", 10, 1, time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC))

	resp, err := env.svc.ProjectReport(env.ctx, env.projectID.String())
	require.NoError(t, err)

	assert.Equal(t, financedomain.SourceAcceptedQuote, resp.Source)
	assert.Equal(t, latest.ID, resp.SourceID)
	assert.NotEqual(t, first.ID, resp.SourceID)
	assert.InDelta(t, 10.0, resp.Report.BudgetDays, 1e-9)
}

func TestProjectReportWithoutBudgetSource(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.ProjectReport(env.ctx, env.projectID.String())
	assert.ErrorIs(t, err, financedomain.ErrNoBudgetSource)
}

func TestSnapshotPersistsReport(t *testing.T) {
	env := newTestEnv(t)
	contract := env.seedSignedContract(t, 10)
	env.logHours(t, 1, 8)

	snapshot, err := env.svc.Snapshot(env.ctx, env.projectID.String())
	require.NoError(t, err)
	assert.Equal(t, financedomain.SourceSignedContract, snapshot.Source)
	assert.Equal(t, contract.ID, snapshot.SourceID)
	assert.InDelta(t, 10.0, snapshot.BudgetDays, 1e-9)
	assert.InDelta(t, 1.0, snapshot.ConsumedDays, 1e-9)
	assert.NotEmpty(t, snapshot.Report)

	history, err := env.svc.ListSnapshots(env.ctx, env.projectID.String())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, snapshot.ID, history[0].ID)
}

func TestSnapshotAll(t *testing.T) {
	env := newTestEnv(t)
	env.seedSignedContract(t, 10)
	env.logHours(t, 1, 8)

	written, err := env.svc.SnapshotAll(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	history, err := env.svc.ListSnapshots(env.ctx, env.projectID.String())
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
