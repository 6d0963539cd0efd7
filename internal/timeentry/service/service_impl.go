package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/atelierlab/devisio/internal/clock"
	"github.com/atelierlab/devisio/internal/config"
	obscontext "github.com/atelierlab/devisio/internal/observability/context"
	"github.com/atelierlab/devisio/internal/orgcontext"
	projectdomain "github.com/atelierlab/devisio/internal/project/domain"
	timeentrydomain "github.com/atelierlab/devisio/internal/timeentry/domain"
)

const maxHoursPerEntry = 24

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Finance     *config.FinanceConfigHolder
	Repo        timeentrydomain.Repository
	ProjectRepo projectdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	finance     *config.FinanceConfigHolder
	repo        timeentrydomain.Repository
	projectRepo projectdomain.Repository
}

func New(p Params) timeentrydomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("timeentry.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		finance:     p.Finance,
		repo:        p.Repo,
		projectRepo: p.ProjectRepo,
	}
}

func (s *Service) Create(ctx context.Context, req timeentrydomain.CreateRequest) (*timeentrydomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, timeentrydomain.ErrInvalidOrganization
	}

	projectID, err := snowflake.ParseString(strings.TrimSpace(req.ProjectID))
	if err != nil {
		return nil, timeentrydomain.ErrInvalidProject
	}
	project, err := s.projectRepo.FindByID(ctx, s.db, orgID, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, timeentrydomain.ErrInvalidProject
	}

	profileName := strings.TrimSpace(req.ProfileName)
	if profileName == "" {
		return nil, timeentrydomain.ErrInvalidProfile
	}
	if req.Hours <= 0 || req.Hours > maxHoursPerEntry {
		return nil, timeentrydomain.ErrInvalidHours
	}
	if req.EntryDate.IsZero() {
		return nil, timeentrydomain.ErrInvalidDate
	}

	// attribution comes from the verified token, never from the payload
	_, engineerID := obscontext.ActorFromContext(ctx)

	now := s.clock.Now().UTC()
	entity := &timeentrydomain.TimeEntry{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		ProjectID:    projectID,
		EngineerID:   engineerID,
		ProfileName:  profileName,
		CategoryName: strings.TrimSpace(req.CategoryName),
		Description:  req.Description,
		EntryDate:    req.EntryDate.UTC().Truncate(24 * time.Hour),
		Hours:        req.Hours,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		return nil, err
	}
	return s.toResponse(entity), nil
}

func (s *Service) Update(ctx context.Context, id string, req timeentrydomain.UpdateRequest) (*timeentrydomain.Response, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ProfileName != nil {
		profileName := strings.TrimSpace(*req.ProfileName)
		if profileName == "" {
			return nil, timeentrydomain.ErrInvalidProfile
		}
		entity.ProfileName = profileName
	}
	if req.CategoryName != nil {
		entity.CategoryName = strings.TrimSpace(*req.CategoryName)
	}
	if req.Description != nil {
		entity.Description = *req.Description
	}
	if req.EntryDate != nil {
		if req.EntryDate.IsZero() {
			return nil, timeentrydomain.ErrInvalidDate
		}
		entity.EntryDate = req.EntryDate.UTC().Truncate(24 * time.Hour)
	}
	if req.Hours != nil {
		if *req.Hours <= 0 || *req.Hours > maxHoursPerEntry {
			return nil, timeentrydomain.ErrInvalidHours
		}
		entity.Hours = *req.Hours
	}

	entity.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, s.db, entity); err != nil {
		return nil, err
	}
	return s.toResponse(entity), nil
}

func (s *Service) Get(ctx context.Context, id string) (*timeentrydomain.Response, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(entity), nil
}

func (s *Service) List(ctx context.Context, req timeentrydomain.ListRequest) ([]timeentrydomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, timeentrydomain.ErrInvalidOrganization
	}

	var filter timeentrydomain.ListFilter
	if strings.TrimSpace(req.ProjectID) != "" {
		projectID, err := snowflake.ParseString(strings.TrimSpace(req.ProjectID))
		if err != nil {
			return nil, timeentrydomain.ErrInvalidProject
		}
		filter.ProjectID = projectID
	}
	filter.ProfileName = strings.TrimSpace(req.ProfileName)

	if req.From != "" {
		from, err := time.Parse("2006-01-02", req.From)
		if err != nil {
			return nil, timeentrydomain.ErrInvalidDateRange
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := time.Parse("2006-01-02", req.To)
		if err != nil {
			return nil, timeentrydomain.ErrInvalidDateRange
		}
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, timeentrydomain.ErrInvalidDateRange
	}

	items, err := s.repo.List(ctx, s.db, orgID, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]timeentrydomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *s.toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	entity, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, entity.OrgID, entity.ID)
}

func (s *Service) load(ctx context.Context, id string) (*timeentrydomain.TimeEntry, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, timeentrydomain.ErrInvalidOrganization
	}
	entryID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, timeentrydomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, orgID, entryID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, timeentrydomain.ErrNotFound
	}
	return entity, nil
}

func (s *Service) toResponse(e *timeentrydomain.TimeEntry) *timeentrydomain.Response {
	hoursPerDay := s.finance.Get().HoursPerDay
	return &timeentrydomain.Response{
		ID:           e.ID,
		OrgID:        e.OrgID,
		ProjectID:    e.ProjectID,
		EngineerID:   e.EngineerID,
		ProfileName:  e.ProfileName,
		CategoryName: e.CategoryName,
		Description:  e.Description,
		EntryDate:    e.EntryDate,
		Hours:        e.Hours,
		Days:         e.Hours / hoursPerDay,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}
