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
	"github.com/atelierlab/devisio/internal/orgcontext"
	projectdomain "github.com/atelierlab/devisio/internal/project/domain"
	quotedomain "github.com/atelierlab/devisio/internal/quote/domain"
	quoterepository "github.com/atelierlab/devisio/internal/quote/repository"
)

type stubProjectRepo struct {
	project *projectdomain.Project
}

func (s *stubProjectRepo) Insert(ctx context.Context, db *gorm.DB, p *projectdomain.Project) error {
	return nil
}

func (s *stubProjectRepo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*projectdomain.Project, error) {
	if s.project != nil && s.project.OrgID == orgID && s.project.ID == id {
		return s.project, nil
	}
	return nil, nil
}

func (s *stubProjectRepo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter projectdomain.ListFilter) ([]projectdomain.Project, error) {
	return nil, nil
}

func (s *stubProjectRepo) Update(ctx context.Context, db *gorm.DB, p *projectdomain.Project) error {
	return nil
}

type testEnv struct {
	svc       quotedomain.Service
	db        *gorm.DB
	clock     *clock.FakeClock
	ctx       context.Context
	orgID     snowflake.ID
	projectID snowflake.ID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&quotedomain.Quote{},
		&quotedomain.Profile{},
		&quotedomain.AbaqueEntry{},
		&quotedomain.CostingCategory{},
		&quotedomain.CostingActivity{},
		&quotedomain.CostingComponent{},
		&quotedomain.TransverseLevel{},
		&quotedomain.TransverseActivity{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	orgID := node.Generate()
	projectID := node.Generate()
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fakeClock,
		Repo:  quoterepository.Provide(),
		ProjectRepo: &stubProjectRepo{project: &projectdomain.Project{
			ID:    projectID,
			OrgID: orgID,
			Name:  "Refonte site",
		}},
	})

	return &testEnv{
		svc:       svc,
		db:        db,
		clock:     fakeClock,
		ctx:       orgcontext.WithOrgID(context.Background(), orgID.Int64()),
		orgID:     orgID,
		projectID: projectID,
	}
}

func f64(v float64) *float64 { return &v }

func (e *testEnv) createQuote(t *testing.T) *quotedomain.Response {
	t.Helper()

	active := true
	resp, err := e.svc.Create(e.ctx, quotedomain.CreateRequest{
		ProjectID: e.projectID.String(),
		Title:     "Refonte site vitrine",
		Profiles: []quotedomain.ProfileInput{
			{Name: "Dev", DailyRate: 500},
		},
		Abaques: []quotedomain.AbaqueInput{
			{ComponentName: "Login Page", ProfileName: "Dev", DaysTS: 0.5, DaysS: 1, DaysM: 2, DaysC: 3.5, DaysTC: 5},
		},
		Categories: []quotedomain.CategoryInput{{
			Name: "Front",
			Activities: []quotedomain.ActivityInput{{
				Name:   "Auth",
				Active: &active,
				Components: []quotedomain.ComponentInput{
					{ComponentName: "Login Page", Complexity: "m", Coefficient: f64(3)},
				},
			}},
		}},
	})
	require.NoError(t, err)
	return resp
}

func TestCreateComputesTotals(t *testing.T) {
	env := newTestEnv(t)

	resp := env.createQuote(t)

	assert.Equal(t, quotedomain.StatusDraft, resp.Status)
	assert.Equal(t, int32(1), resp.Version)
	assert.Equal(t, "Q-2026-001", resp.Number)
	assert.Equal(t, int32(30), resp.ValidityDays)
	assert.InDelta(t, 6.0, resp.Totals.TotalDays, 1e-9)
	assert.InDelta(t, 3000.0, resp.Totals.TotalHT, 1e-9)
	assert.InDelta(t, 3600.0, resp.Totals.TotalTTC, 1e-9)
	assert.Empty(t, resp.Warnings)
}

func TestCreateRejectsUnknownProject(t *testing.T) {
	env := newTestEnv(t)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	_, err = env.svc.Create(env.ctx, quotedomain.CreateRequest{
		ProjectID: node.Generate().String(),
		Title:     "Orphan",
	})
	assert.ErrorIs(t, err, quotedomain.ErrInvalidProject)
}

func TestCreateRejectsInvalidComplexity(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(env.ctx, quotedomain.CreateRequest{
		ProjectID: env.projectID.String(),
		Title:     "Bad complexity",
		Categories: []quotedomain.CategoryInput{{
			Name: "Front",
			Activities: []quotedomain.ActivityInput{{
				Name: "Auth",
				Components: []quotedomain.ComponentInput{
					{ComponentName: "Login Page", Complexity: "xl", Coefficient: f64(1)},
				},
			}},
		}},
	})
	assert.ErrorIs(t, err, quotedomain.ErrInvalidComplexity)
}

func TestCreateRejectsDuplicateProfileNames(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(env.ctx, quotedomain.CreateRequest{
		ProjectID: env.projectID.String(),
		Title:     "Doublons",
		Profiles: []quotedomain.ProfileInput{
			{Name: "Dev", DailyRate: 500},
			{Name: "Dev", DailyRate: 700},
		},
	})
	assert.ErrorIs(t, err, quotedomain.ErrInvalidProfile)
}

func TestOmittedCoefficientDefaultsToOne(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.svc.Create(env.ctx, quotedomain.CreateRequest{
		ProjectID: env.projectID.String(),
		Title:     "Coefficient implicite",
		Profiles:  []quotedomain.ProfileInput{{Name: "Dev", DailyRate: 500}},
		Abaques: []quotedomain.AbaqueInput{
			{ComponentName: "Login Page", ProfileName: "Dev", DaysM: 2},
		},
		Categories: []quotedomain.CategoryInput{{
			Name: "Front",
			Activities: []quotedomain.ActivityInput{{
				Name: "Auth",
				Components: []quotedomain.ComponentInput{
					{ComponentName: "Login Page", Complexity: "m"},
				},
			}},
		}},
	})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, resp.Totals.TotalDays, 1e-9)
}

func TestInactiveAndZeroCoefficientSurviveStorage(t *testing.T) {
	env := newTestEnv(t)

	inactive := false
	active := true
	resp, err := env.svc.Create(env.ctx, quotedomain.CreateRequest{
		ProjectID: env.projectID.String(),
		Title:     "Refonte back-office",
		Profiles:  []quotedomain.ProfileInput{{Name: "Dev", DailyRate: 500}},
		Abaques: []quotedomain.AbaqueInput{
			{ComponentName: "Login Page", ProfileName: "Dev", DaysM: 3},
		},
		Categories: []quotedomain.CategoryInput{{
			Name: "Front",
			Activities: []quotedomain.ActivityInput{
				{
					Name:   "Suspendue",
					Active: &inactive,
					Components: []quotedomain.ComponentInput{
						{ComponentName: "Login Page", Complexity: "m", Coefficient: f64(2)},
					},
				},
				{
					Name:   "Offerte",
					Active: &active,
					Components: []quotedomain.ComponentInput{
						{ComponentName: "Login Page", Complexity: "m", Coefficient: f64(0)},
					},
				},
			},
		}},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, resp.Totals.TotalDays, 1e-9)

	// reload through storage: false and 0 must survive the insert untouched
	reloaded, err := env.svc.Get(env.ctx, resp.ID.String())
	require.NoError(t, err)
	require.Len(t, reloaded.Categories, 1)
	require.Len(t, reloaded.Categories[0].Activities, 2)
	assert.False(t, reloaded.Categories[0].Activities[0].Active)
	require.Len(t, reloaded.Categories[0].Activities[1].Components, 1)
	assert.Equal(t, 0.0, reloaded.Categories[0].Activities[1].Components[0].Coefficient)
	assert.InDelta(t, 0.0, reloaded.Totals.TotalDays, 1e-9)
}

func TestUpdateReplacesCostingTree(t *testing.T) {
	env := newTestEnv(t)
	created := env.createQuote(t)

	resp, err := env.svc.Update(env.ctx, created.ID.String(), quotedomain.UpdateRequest{
		Title: "Refonte site vitrine v2",
		Profiles: []quotedomain.ProfileInput{
			{Name: "Dev", DailyRate: 600},
		},
		Abaques: []quotedomain.AbaqueInput{
			{ComponentName: "Login Page", ProfileName: "Dev", DaysM: 2},
		},
		Categories: []quotedomain.CategoryInput{{
			Name: "Front",
			Activities: []quotedomain.ActivityInput{{
				Name: "Auth",
				Components: []quotedomain.ComponentInput{
					{ComponentName: "Login Page", Complexity: "m", Coefficient: f64(1)},
				},
			}},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Refonte site vitrine v2", resp.Title)
	assert.InDelta(t, 2.0, resp.Totals.TotalDays, 1e-9)
	assert.InDelta(t, 1200.0, resp.Totals.TotalHT, 1e-9)

	// reload from storage to prove the old tree is gone
	reloaded, err := env.svc.Get(env.ctx, created.ID.String())
	require.NoError(t, err)
	assert.InDelta(t, 1200.0, reloaded.Totals.TotalHT, 1e-9)
	require.Len(t, reloaded.Profiles, 1)
	assert.Equal(t, 600.0, reloaded.Profiles[0].DailyRate)
}

func TestUpdateRequiresDraft(t *testing.T) {
	env := newTestEnv(t)
	created := env.createQuote(t)

	_, err := env.svc.Send(env.ctx, created.ID.String())
	require.NoError(t, err)

	_, err = env.svc.Update(env.ctx, created.ID.String(), quotedomain.UpdateRequest{Title: "nope"})
	assert.ErrorIs(t, err, quotedomain.ErrNotDraft)
}

func TestLifecycleTransitions(t *testing.T) {
	env := newTestEnv(t)
	created := env.createQuote(t)

	sent, err := env.svc.Send(env.ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, quotedomain.StatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)
	require.NotNil(t, sent.ExpiresAt)
	assert.Equal(t, sent.SentAt.AddDate(0, 0, 30), *sent.ExpiresAt)

	// double send is refused
	_, err = env.svc.Send(env.ctx, created.ID.String())
	assert.ErrorIs(t, err, quotedomain.ErrNotDraft)

	accepted, err := env.svc.Accept(env.ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, quotedomain.StatusAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)

	// accepted is terminal
	_, err = env.svc.Reject(env.ctx, created.ID.String())
	assert.ErrorIs(t, err, quotedomain.ErrNotSent)
}

func TestRejectFromSent(t *testing.T) {
	env := newTestEnv(t)
	created := env.createQuote(t)

	_, err := env.svc.Send(env.ctx, created.ID.String())
	require.NoError(t, err)

	rejected, err := env.svc.Reject(env.ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, quotedomain.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectedAt)
}

func TestExpiryOnRead(t *testing.T) {
	env := newTestEnv(t)
	created := env.createQuote(t)

	_, err := env.svc.Send(env.ctx, created.ID.String())
	require.NoError(t, err)

	env.clock.Advance(31 * 24 * time.Hour)

	resp, err := env.svc.Get(env.ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, quotedomain.StatusExpired, resp.Status)
	require.NotNil(t, resp.ExpiredAt)

	// expired quotes cannot be accepted
	_, err = env.svc.Accept(env.ctx, created.ID.String())
	assert.ErrorIs(t, err, quotedomain.ErrNotSent)
}

func TestExpireDue(t *testing.T) {
	env := newTestEnv(t)
	first := env.createQuote(t)
	second := env.createQuote(t)

	_, err := env.svc.Send(env.ctx, first.ID.String())
	require.NoError(t, err)

	env.clock.Advance(10 * 24 * time.Hour)
	_, err = env.svc.Send(env.ctx, second.ID.String())
	require.NoError(t, err)

	// first is past its 30-day window, second is not
	env.clock.Advance(21 * 24 * time.Hour)

	expired, err := env.svc.ExpireDue(env.ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	resp, err := env.svc.Get(env.ctx, second.ID.String())
	require.NoError(t, err)
	assert.Equal(t, quotedomain.StatusSent, resp.Status)
}

func TestNewVersionDeepCopies(t *testing.T) {
	env := newTestEnv(t)
	created := env.createQuote(t)

	_, err := env.svc.Send(env.ctx, created.ID.String())
	require.NoError(t, err)
	_, err = env.svc.Reject(env.ctx, created.ID.String())
	require.NoError(t, err)

	next, err := env.svc.NewVersion(env.ctx, created.ID.String())
	require.NoError(t, err)

	assert.NotEqual(t, created.ID, next.ID)
	assert.Equal(t, created.Number, next.Number)
	assert.Equal(t, int32(2), next.Version)
	require.NotNil(t, next.ParentID)
	assert.Equal(t, created.ID, *next.ParentID)
	assert.Equal(t, quotedomain.StatusDraft, next.Status)
	assert.Nil(t, next.SentAt)

	// same costing result, fully independent rows
	assert.InDelta(t, created.Totals.TotalHT, next.Totals.TotalHT, 1e-9)
	require.Len(t, next.Profiles, 1)
	assert.NotEqual(t, created.Profiles[0].ID, next.Profiles[0].ID)

	// editing the copy leaves the original untouched
	_, err = env.svc.Update(env.ctx, next.ID.String(), quotedomain.UpdateRequest{
		Title: created.Title,
		Profiles: []quotedomain.ProfileInput{
			{Name: "Dev", DailyRate: 900},
		},
	})
	require.NoError(t, err)

	original, err := env.svc.Get(env.ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 500.0, original.Profiles[0].DailyRate)
}

func TestListFiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	first := env.createQuote(t)
	env.createQuote(t)

	_, err := env.svc.Send(env.ctx, first.ID.String())
	require.NoError(t, err)

	drafts, err := env.svc.List(env.ctx, quotedomain.ListRequest{Status: "draft"})
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	all, err := env.svc.List(env.ctx, quotedomain.ListRequest{ProjectID: env.projectID.String()})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = env.svc.List(env.ctx, quotedomain.ListRequest{Status: "bogus"})
	assert.ErrorIs(t, err, quotedomain.ErrInvalidStatus)
}

func TestOrgScoping(t *testing.T) {
	env := newTestEnv(t)
	created := env.createQuote(t)

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	otherCtx := orgcontext.WithOrgID(context.Background(), node.Generate().Int64())

	_, err = env.svc.Get(otherCtx, created.ID.String())
	assert.ErrorIs(t, err, quotedomain.ErrNotFound)

	_, err = env.svc.Get(context.Background(), created.ID.String())
	assert.ErrorIs(t, err, quotedomain.ErrInvalidOrganization)
}
