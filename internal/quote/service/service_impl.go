package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/atelierlab/devisio/internal/clock"
	obsmetrics "github.com/atelierlab/devisio/internal/observability/metrics"
	"github.com/atelierlab/devisio/internal/orgcontext"
	projectdomain "github.com/atelierlab/devisio/internal/project/domain"
	"github.com/atelierlab/devisio/internal/quote/costing"
	quotedomain "github.com/atelierlab/devisio/internal/quote/domain"
)

const defaultValidityDays = 30

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        quotedomain.Repository
	ProjectRepo projectdomain.Repository
	Metrics     *obsmetrics.Domain `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        quotedomain.Repository
	projectRepo projectdomain.Repository
	metrics     *obsmetrics.Domain
}

func New(p Params) quotedomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("quote.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		projectRepo: p.ProjectRepo,
		metrics:     p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req quotedomain.CreateRequest) (*quotedomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, quotedomain.ErrInvalidOrganization
	}

	projectID, err := parseID(req.ProjectID)
	if err != nil {
		return nil, quotedomain.ErrInvalidProject
	}
	project, err := s.projectRepo.FindByID(ctx, s.db, orgID, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, quotedomain.ErrInvalidProject
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, quotedomain.ErrInvalidTitle
	}

	validityDays, err := parseValidityDays(req.ValidityDays)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	entity := &quotedomain.Quote{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		ProjectID:    projectID,
		Title:        title,
		Status:       quotedomain.StatusDraft,
		Version:      1,
		ValidityDays: validityDays,
		PaymentTerms: strings.TrimSpace(req.PaymentTerms),
		Notes:        req.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.Metadata != nil {
		entity.Metadata = datatypes.JSONMap(req.Metadata)
	}
	if err := s.buildChildren(entity, req.Profiles, req.Abaques, req.Categories, req.TransverseLevels); err != nil {
		return nil, err
	}

	seq, err := s.repo.CountByProject(ctx, s.db, orgID, projectID)
	if err != nil {
		return nil, err
	}
	entity.Number = fmt.Sprintf("Q-%d-%03d", now.Year(), seq+1)

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		return nil, err
	}

	s.log.Info("quote created",
		zap.String("quote_id", entity.ID.String()),
		zap.String("number", entity.Number),
	)
	return s.toResponse(entity), nil
}

func (s *Service) Update(ctx context.Context, id string, req quotedomain.UpdateRequest) (*quotedomain.Response, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity.Status != quotedomain.StatusDraft {
		return nil, quotedomain.ErrNotDraft
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, quotedomain.ErrInvalidTitle
	}
	validityDays, err := parseValidityDays(req.ValidityDays)
	if err != nil {
		return nil, err
	}

	entity.Title = title
	entity.ValidityDays = validityDays
	entity.PaymentTerms = strings.TrimSpace(req.PaymentTerms)
	entity.Notes = req.Notes
	entity.UpdatedAt = s.clock.Now().UTC()
	entity.Metadata = nil
	if req.Metadata != nil {
		entity.Metadata = datatypes.JSONMap(req.Metadata)
	}
	if err := s.buildChildren(entity, req.Profiles, req.Abaques, req.Categories, req.TransverseLevels); err != nil {
		return nil, err
	}

	if err := s.repo.Replace(ctx, s.db, entity); err != nil {
		return nil, err
	}
	return s.toResponse(entity), nil
}

func (s *Service) Get(ctx context.Context, id string) (*quotedomain.Response, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.expireIfDue(ctx, entity); err != nil {
		return nil, err
	}
	return s.toResponse(entity), nil
}

func (s *Service) List(ctx context.Context, req quotedomain.ListRequest) ([]quotedomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, quotedomain.ErrInvalidOrganization
	}

	var filter quotedomain.ListFilter
	if strings.TrimSpace(req.ProjectID) != "" {
		projectID, err := parseID(req.ProjectID)
		if err != nil {
			return nil, quotedomain.ErrInvalidProject
		}
		filter.ProjectID = projectID
	}
	if req.Status != "" {
		status, err := quotedomain.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}

	items, err := s.repo.List(ctx, s.db, orgID, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]quotedomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *s.toHeaderResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Send(ctx context.Context, id string) (*quotedomain.Response, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity.Status != quotedomain.StatusDraft {
		return nil, quotedomain.ErrNotDraft
	}

	now := s.clock.Now().UTC()
	entity.Status = quotedomain.StatusSent
	entity.SentAt = &now
	entity.UpdatedAt = now
	if err := s.repo.UpdateStatus(ctx, s.db, entity); err != nil {
		return nil, err
	}

	s.metrics.RecordQuoteTransition(ctx, string(quotedomain.StatusSent))
	s.log.Info("quote sent", zap.String("quote_id", entity.ID.String()))
	return s.toResponse(entity), nil
}

func (s *Service) Accept(ctx context.Context, id string) (*quotedomain.Response, error) {
	return s.resolve(ctx, id, quotedomain.StatusAccepted)
}

func (s *Service) Reject(ctx context.Context, id string) (*quotedomain.Response, error) {
	return s.resolve(ctx, id, quotedomain.StatusRejected)
}

func (s *Service) resolve(ctx context.Context, id string, target quotedomain.Status) (*quotedomain.Response, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.expireIfDue(ctx, entity); err != nil {
		return nil, err
	}
	if entity.Status != quotedomain.StatusSent {
		return nil, quotedomain.ErrNotSent
	}

	now := s.clock.Now().UTC()
	entity.Status = target
	entity.UpdatedAt = now
	switch target {
	case quotedomain.StatusAccepted:
		entity.AcceptedAt = &now
	case quotedomain.StatusRejected:
		entity.RejectedAt = &now
	}
	if err := s.repo.UpdateStatus(ctx, s.db, entity); err != nil {
		return nil, err
	}

	s.metrics.RecordQuoteTransition(ctx, string(target))
	s.log.Info("quote resolved",
		zap.String("quote_id", entity.ID.String()),
		zap.String("status", string(target)),
	)
	return s.toResponse(entity), nil
}

func (s *Service) NewVersion(ctx context.Context, id string) (*quotedomain.Response, error) {
	source, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	parentID := source.ID
	next := &quotedomain.Quote{
		ID:           s.genID.Generate(),
		OrgID:        source.OrgID,
		ProjectID:    source.ProjectID,
		Number:       source.Number,
		Title:        source.Title,
		Status:       quotedomain.StatusDraft,
		Version:      source.Version + 1,
		ParentID:     &parentID,
		ValidityDays: source.ValidityDays,
		PaymentTerms: source.PaymentTerms,
		Notes:        source.Notes,
		Metadata:     source.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.copyChildren(next, source)

	if err := s.repo.Insert(ctx, s.db, next); err != nil {
		return nil, err
	}

	s.log.Info("quote version created",
		zap.String("quote_id", next.ID.String()),
		zap.String("parent_id", parentID.String()),
		zap.Int32("version", next.Version),
	)
	return s.toResponse(next), nil
}

func (s *Service) Totals(ctx context.Context, id string) (*quotedomain.TotalsResponse, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	input := entity.ToCosting()
	return &quotedomain.TotalsResponse{
		QuoteID:  entity.ID,
		Totals:   costing.Totalize(input),
		Warnings: costing.Lint(input),
	}, nil
}

func (s *Service) ExpireDue(ctx context.Context, batchSize int) (int, error) {
	now := s.clock.Now().UTC()
	items, err := s.repo.ListSentBefore(ctx, s.db, now, batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range items {
		entity := &items[i]
		deadline := entity.ExpiresAt()
		if deadline == nil || deadline.After(now) {
			continue
		}
		entity.Status = quotedomain.StatusExpired
		entity.ExpiredAt = &now
		entity.UpdatedAt = now
		if err := s.repo.UpdateStatus(ctx, s.db, entity); err != nil {
			return expired, err
		}
		s.metrics.RecordQuoteTransition(ctx, string(quotedomain.StatusExpired))
		expired++
	}
	return expired, nil
}

// load fetches the full aggregate scoped to the caller's organization.
func (s *Service) load(ctx context.Context, id string) (*quotedomain.Quote, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, quotedomain.ErrInvalidOrganization
	}
	quoteID, err := parseID(id)
	if err != nil {
		return nil, quotedomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, orgID, quoteID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, quotedomain.ErrNotFound
	}
	return entity, nil
}

// expireIfDue transitions a sent quote past its validity window to expired
// before the caller acts on it, so reads never hand out stale sent status.
func (s *Service) expireIfDue(ctx context.Context, entity *quotedomain.Quote) error {
	if entity.Status != quotedomain.StatusSent {
		return nil
	}
	deadline := entity.ExpiresAt()
	now := s.clock.Now().UTC()
	if deadline == nil || deadline.After(now) {
		return nil
	}

	entity.Status = quotedomain.StatusExpired
	entity.ExpiredAt = &now
	entity.UpdatedAt = now
	return s.repo.UpdateStatus(ctx, s.db, entity)
}

func (s *Service) buildChildren(
	entity *quotedomain.Quote,
	profiles []quotedomain.ProfileInput,
	abaques []quotedomain.AbaqueInput,
	categories []quotedomain.CategoryInput,
	levels []quotedomain.TransverseLevelInput,
) error {
	entity.Profiles = nil
	entity.Abaques = nil
	entity.Categories = nil
	entity.TransverseLevels = nil

	seenProfiles := make(map[string]struct{}, len(profiles))
	for i, input := range profiles {
		name := strings.TrimSpace(input.Name)
		if name == "" {
			return quotedomain.ErrInvalidProfile
		}
		// profile names key abaques, transverse activities and budget
		// lines, so duplicates would silently merge
		if _, dup := seenProfiles[name]; dup {
			return quotedomain.ErrInvalidProfile
		}
		seenProfiles[name] = struct{}{}
		if input.DailyRate < 0 {
			return quotedomain.ErrInvalidDailyRate
		}
		entity.Profiles = append(entity.Profiles, quotedomain.Profile{
			ID:        s.genID.Generate(),
			QuoteID:   entity.ID,
			Name:      name,
			DailyRate: input.DailyRate,
			Position:  int32(i),
		})
	}

	for _, input := range abaques {
		componentName := strings.TrimSpace(input.ComponentName)
		profileName := strings.TrimSpace(input.ProfileName)
		if componentName == "" || profileName == "" {
			return quotedomain.ErrInvalidAbaque
		}
		if input.DaysTS < 0 || input.DaysS < 0 || input.DaysM < 0 || input.DaysC < 0 || input.DaysTC < 0 {
			return quotedomain.ErrInvalidAbaque
		}
		entity.Abaques = append(entity.Abaques, quotedomain.AbaqueEntry{
			ID:            s.genID.Generate(),
			QuoteID:       entity.ID,
			ComponentName: componentName,
			ProfileName:   profileName,
			DaysTS:        input.DaysTS,
			DaysS:         input.DaysS,
			DaysM:         input.DaysM,
			DaysC:         input.DaysC,
			DaysTC:        input.DaysTC,
		})
	}

	for i, input := range categories {
		category := quotedomain.CostingCategory{
			ID:       s.genID.Generate(),
			QuoteID:  entity.ID,
			Name:     strings.TrimSpace(input.Name),
			Position: int32(i),
		}
		for j, activityInput := range input.Activities {
			active := true
			if activityInput.Active != nil {
				active = *activityInput.Active
			}
			activity := quotedomain.CostingActivity{
				ID:         s.genID.Generate(),
				CategoryID: category.ID,
				Name:       strings.TrimSpace(activityInput.Name),
				Active:     active,
				Position:   int32(j),
			}
			for k, componentInput := range activityInput.Components {
				complexity, err := costing.ParseComplexity(componentInput.Complexity)
				if err != nil {
					return quotedomain.ErrInvalidComplexity
				}
				coefficient := 1.0
				if componentInput.Coefficient != nil {
					if *componentInput.Coefficient < 0 {
						return quotedomain.ErrInvalidCoefficient
					}
					coefficient = *componentInput.Coefficient
				}
				activity.Components = append(activity.Components, quotedomain.CostingComponent{
					ID:            s.genID.Generate(),
					ActivityID:    activity.ID,
					ComponentName: strings.TrimSpace(componentInput.ComponentName),
					Complexity:    complexity,
					Coefficient:   coefficient,
					Position:      int32(k),
				})
			}
			category.Activities = append(category.Activities, activity)
		}
		entity.Categories = append(entity.Categories, category)
	}

	for _, input := range levels {
		if input.Level <= 0 {
			return quotedomain.ErrInvalidTransverse
		}
		level := quotedomain.TransverseLevel{
			ID:      s.genID.Generate(),
			QuoteID: entity.ID,
			Level:   input.Level,
		}
		for j, activityInput := range input.Activities {
			kind, err := costing.ParseTransverseKind(activityInput.Kind)
			if err != nil {
				return quotedomain.ErrInvalidTransverse
			}
			profileName := strings.TrimSpace(activityInput.ProfileName)
			if profileName == "" || activityInput.Value < 0 {
				return quotedomain.ErrInvalidTransverse
			}
			level.Activities = append(level.Activities, quotedomain.TransverseActivity{
				ID:          s.genID.Generate(),
				LevelID:     level.ID,
				Name:        strings.TrimSpace(activityInput.Name),
				ProfileName: profileName,
				Kind:        kind,
				Value:       activityInput.Value,
				Position:    int32(j),
			})
		}
		entity.TransverseLevels = append(entity.TransverseLevels, level)
	}

	return nil
}

// copyChildren deep-copies the aggregate with fresh IDs so the new version
// shares nothing with its parent.
func (s *Service) copyChildren(next, source *quotedomain.Quote) {
	for _, profile := range source.Profiles {
		profile.ID = s.genID.Generate()
		profile.QuoteID = next.ID
		next.Profiles = append(next.Profiles, profile)
	}
	for _, entry := range source.Abaques {
		entry.ID = s.genID.Generate()
		entry.QuoteID = next.ID
		next.Abaques = append(next.Abaques, entry)
	}
	for _, category := range source.Categories {
		copied := category
		copied.ID = s.genID.Generate()
		copied.QuoteID = next.ID
		copied.Activities = nil
		for _, activity := range category.Activities {
			copiedActivity := activity
			copiedActivity.ID = s.genID.Generate()
			copiedActivity.CategoryID = copied.ID
			copiedActivity.Components = nil
			for _, component := range activity.Components {
				component.ID = s.genID.Generate()
				component.ActivityID = copiedActivity.ID
				copiedActivity.Components = append(copiedActivity.Components, component)
			}
			copied.Activities = append(copied.Activities, copiedActivity)
		}
		next.Categories = append(next.Categories, copied)
	}
	for _, level := range source.TransverseLevels {
		copied := level
		copied.ID = s.genID.Generate()
		copied.QuoteID = next.ID
		copied.Activities = nil
		for _, activity := range level.Activities {
			activity.ID = s.genID.Generate()
			activity.LevelID = copied.ID
			copied.Activities = append(copied.Activities, activity)
		}
		next.TransverseLevels = append(next.TransverseLevels, copied)
	}
}

func (s *Service) toResponse(q *quotedomain.Quote) *quotedomain.Response {
	resp := s.toHeaderResponse(q)
	resp.Profiles = q.Profiles
	resp.Abaques = q.Abaques
	resp.Categories = q.Categories
	resp.Transverse = q.TransverseLevels

	input := q.ToCosting()
	resp.Totals = costing.Totalize(input)
	resp.Warnings = costing.Lint(input)
	return resp
}

func (s *Service) toHeaderResponse(q *quotedomain.Quote) *quotedomain.Response {
	return &quotedomain.Response{
		ID:           q.ID,
		OrgID:        q.OrgID,
		ProjectID:    q.ProjectID,
		Number:       q.Number,
		Title:        q.Title,
		Status:       q.Status,
		Version:      q.Version,
		ParentID:     q.ParentID,
		ValidityDays: q.ValidityDays,
		ExpiresAt:    q.ExpiresAt(),
		PaymentTerms: q.PaymentTerms,
		Notes:        q.Notes,
		SentAt:       q.SentAt,
		AcceptedAt:   q.AcceptedAt,
		RejectedAt:   q.RejectedAt,
		ExpiredAt:    q.ExpiredAt,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    q.UpdatedAt,
	}
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}

func parseValidityDays(value *int32) (int32, error) {
	if value == nil {
		return defaultValidityDays, nil
	}
	if *value <= 0 {
		return 0, quotedomain.ErrInvalidValidityDays
	}
	return *value, nil
}
