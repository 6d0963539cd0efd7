package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	clientdomain "github.com/atelierlab/devisio/internal/client/domain"
	"github.com/atelierlab/devisio/internal/clock"
	"github.com/atelierlab/devisio/internal/orgcontext"
	projectdomain "github.com/atelierlab/devisio/internal/project/domain"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       projectdomain.Repository
	ClientRepo clientdomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       projectdomain.Repository
	clientRepo clientdomain.Repository
}

func New(p Params) projectdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("project.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		clientRepo: p.ClientRepo,
	}
}

func (s *Service) Create(ctx context.Context, req projectdomain.CreateRequest) (*projectdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, projectdomain.ErrInvalidOrganization
	}

	clientID, err := parseID(req.ClientID)
	if err != nil {
		return nil, projectdomain.ErrInvalidClient
	}
	client, err := s.clientRepo.FindByID(ctx, s.db, orgID, clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, projectdomain.ErrInvalidClient
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, projectdomain.ErrInvalidName
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, projectdomain.ErrInvalidDateRange
	}

	now := s.clock.Now().UTC()
	entity := &projectdomain.Project{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		ClientID:    clientID,
		Name:        name,
		Description: req.Description,
		Status:      projectdomain.StatusActive,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Metadata != nil {
		entity.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		return nil, err
	}

	s.log.Info("project created", zap.String("project_id", entity.ID.String()))
	return toResponse(entity), nil
}

func (s *Service) Update(ctx context.Context, id string, req projectdomain.UpdateRequest) (*projectdomain.Response, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, projectdomain.ErrInvalidName
		}
		entity.Name = name
	}
	if req.Description != nil {
		entity.Description = *req.Description
	}
	if req.Status != nil {
		status, err := projectdomain.ParseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		entity.Status = status
	}
	if req.StartDate != nil {
		entity.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		entity.EndDate = req.EndDate
	}
	if entity.StartDate != nil && entity.EndDate != nil && entity.EndDate.Before(*entity.StartDate) {
		return nil, projectdomain.ErrInvalidDateRange
	}

	entity.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, s.db, entity); err != nil {
		return nil, err
	}
	return toResponse(entity), nil
}

func (s *Service) Get(ctx context.Context, id string) (*projectdomain.Response, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(entity), nil
}

func (s *Service) List(ctx context.Context, req projectdomain.ListRequest) ([]projectdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, projectdomain.ErrInvalidOrganization
	}

	var filter projectdomain.ListFilter
	if strings.TrimSpace(req.ClientID) != "" {
		clientID, err := parseID(req.ClientID)
		if err != nil {
			return nil, projectdomain.ErrInvalidClient
		}
		filter.ClientID = clientID
	}
	if req.Status != "" {
		status, err := projectdomain.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}

	items, err := s.repo.List(ctx, s.db, orgID, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]projectdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) load(ctx context.Context, id string) (*projectdomain.Project, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, projectdomain.ErrInvalidOrganization
	}
	projectID, err := parseID(id)
	if err != nil {
		return nil, projectdomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, orgID, projectID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, projectdomain.ErrNotFound
	}
	return entity, nil
}

func toResponse(p *projectdomain.Project) *projectdomain.Response {
	return &projectdomain.Response{
		ID:          p.ID,
		OrgID:       p.OrgID,
		ClientID:    p.ClientID,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
