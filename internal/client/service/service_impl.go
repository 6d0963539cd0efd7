package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	clientdomain "github.com/atelierlab/devisio/internal/client/domain"
	"github.com/atelierlab/devisio/internal/clock"
	"github.com/atelierlab/devisio/internal/orgcontext"
	"github.com/atelierlab/devisio/pkg/db"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  clientdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  clientdomain.Repository
}

func New(p Params) clientdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("client.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req clientdomain.CreateRequest) (*clientdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, clientdomain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, clientdomain.ErrInvalidName
	}
	email := strings.TrimSpace(req.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, clientdomain.ErrInvalidEmail
		}
	}

	now := s.clock.Now().UTC()
	entity := &clientdomain.Client{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Name:        name,
		Slug:        slug.Make(name),
		CompanyName: strings.TrimSpace(req.CompanyName),
		Email:       email,
		Phone:       strings.TrimSpace(req.Phone),
		Address:     req.Address,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Metadata != nil {
		entity.Metadata = datatypes.JSONMap(req.Metadata)
	}

	err := s.repo.Insert(ctx, s.db, entity)
	if db.IsDuplicateKeyErr(err) {
		// slug collision within the org: retry once with an ID suffix
		entity.Slug = fmt.Sprintf("%s-%d", entity.Slug, entity.ID.Int64()%10000)
		err = s.repo.Insert(ctx, s.db, entity)
		if db.IsDuplicateKeyErr(err) {
			return nil, clientdomain.ErrSlugTaken
		}
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("client created",
		zap.String("client_id", entity.ID.String()),
		zap.String("slug", entity.Slug),
	)
	return toResponse(entity), nil
}

func (s *Service) Update(ctx context.Context, id string, req clientdomain.UpdateRequest) (*clientdomain.Response, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, clientdomain.ErrInvalidName
		}
		// renames keep the slug stable so bookmarked URLs survive
		entity.Name = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != "" {
			if _, err := mail.ParseAddress(email); err != nil {
				return nil, clientdomain.ErrInvalidEmail
			}
		}
		entity.Email = email
	}
	if req.CompanyName != nil {
		entity.CompanyName = strings.TrimSpace(*req.CompanyName)
	}
	if req.Phone != nil {
		entity.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		entity.Address = *req.Address
	}
	if req.Notes != nil {
		entity.Notes = *req.Notes
	}

	entity.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, s.db, entity); err != nil {
		return nil, err
	}
	return toResponse(entity), nil
}

func (s *Service) Get(ctx context.Context, id string) (*clientdomain.Response, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(entity), nil
}

func (s *Service) GetBySlug(ctx context.Context, value string) (*clientdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, clientdomain.ErrInvalidOrganization
	}

	entity, err := s.repo.FindBySlug(ctx, s.db, orgID, strings.TrimSpace(value))
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, clientdomain.ErrNotFound
	}
	return toResponse(entity), nil
}

func (s *Service) List(ctx context.Context, includeArchived bool) ([]clientdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, clientdomain.ErrInvalidOrganization
	}

	items, err := s.repo.List(ctx, s.db, orgID, includeArchived)
	if err != nil {
		return nil, err
	}

	resp := make([]clientdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Archive(ctx context.Context, id string) (*clientdomain.Response, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	entity.Archived = true
	entity.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, s.db, entity); err != nil {
		return nil, err
	}

	s.log.Info("client archived", zap.String("client_id", entity.ID.String()))
	return toResponse(entity), nil
}

func (s *Service) load(ctx context.Context, id string) (*clientdomain.Client, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, clientdomain.ErrInvalidOrganization
	}
	clientID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, clientdomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, orgID, clientID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, clientdomain.ErrNotFound
	}
	return entity, nil
}

func toResponse(c *clientdomain.Client) *clientdomain.Response {
	return &clientdomain.Response{
		ID:          c.ID,
		OrgID:       c.OrgID,
		Name:        c.Name,
		Slug:        c.Slug,
		CompanyName: c.CompanyName,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
		Notes:       c.Notes,
		Archived:    c.Archived,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
