package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/atelierlab/devisio/internal/clock"
	messagedomain "github.com/atelierlab/devisio/internal/message/domain"
	obscontext "github.com/atelierlab/devisio/internal/observability/context"
	obsmetrics "github.com/atelierlab/devisio/internal/observability/metrics"
	"github.com/atelierlab/devisio/internal/orgcontext"
	projectdomain "github.com/atelierlab/devisio/internal/project/domain"
	"github.com/atelierlab/devisio/internal/ratelimit"
)

const maxBodyLength = 10_000

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        messagedomain.Repository
	ProjectRepo projectdomain.Repository
	Limiter     *ratelimit.MessageLimiter
	Notifier    messagedomain.Notifier `optional:"true"`
	Metrics     *obsmetrics.Domain     `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        messagedomain.Repository
	projectRepo projectdomain.Repository
	limiter     *ratelimit.MessageLimiter
	notifier    messagedomain.Notifier
	metrics     *obsmetrics.Domain
}

func New(p Params) messagedomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("message.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		projectRepo: p.ProjectRepo,
		limiter:     p.Limiter,
		notifier:    p.Notifier,
		metrics:     p.Metrics,
	}
}

func (s *Service) Post(ctx context.Context, req messagedomain.PostRequest) (*messagedomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, messagedomain.ErrInvalidOrganization
	}

	projectID, err := snowflake.ParseString(strings.TrimSpace(req.ProjectID))
	if err != nil {
		return nil, messagedomain.ErrInvalidProject
	}
	project, err := s.projectRepo.FindByID(ctx, s.db, orgID, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, messagedomain.ErrInvalidProject
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, messagedomain.ErrEmptyBody
	}
	if len(body) > maxBodyLength {
		return nil, messagedomain.ErrBodyTooLong
	}

	_, actor := obscontext.ActorFromContext(ctx)
	if err := s.allow(ctx, orgID, actor); err != nil {
		return nil, err
	}

	entity := &messagedomain.Message{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		ProjectID: projectID,
		Author:    actor,
		Body:      body,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.MessagePosted(ctx, *entity)
	}
	return toResponse(entity), nil
}

func (s *Service) allow(ctx context.Context, orgID snowflake.ID, actor string) error {
	ok, err := s.limiter.AllowOrg(ctx, orgID.String())
	if err != nil {
		// redis being down should not block the conversation
		s.log.Warn("message rate limit check failed", zap.Error(err))
		return nil
	}
	if !ok {
		s.metrics.RecordMessageThrottled(ctx, "org")
		return messagedomain.ErrRateLimited
	}

	if actor == "" {
		return nil
	}
	ok, err = s.limiter.AllowActor(ctx, actor)
	if err != nil {
		s.log.Warn("message rate limit check failed", zap.Error(err))
		return nil
	}
	if !ok {
		s.metrics.RecordMessageThrottled(ctx, "actor")
		return messagedomain.ErrRateLimited
	}
	return nil
}

func (s *Service) List(ctx context.Context, projectID string) ([]messagedomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, messagedomain.ErrInvalidOrganization
	}
	id, err := snowflake.ParseString(strings.TrimSpace(projectID))
	if err != nil {
		return nil, messagedomain.ErrInvalidProject
	}

	items, err := s.repo.ListByProject(ctx, s.db, orgID, id)
	if err != nil {
		return nil, err
	}

	resp := make([]messagedomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) MarkRead(ctx context.Context, id string) (*messagedomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, messagedomain.ErrInvalidOrganization
	}
	messageID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, messagedomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, orgID, messageID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, messagedomain.ErrNotFound
	}

	if entity.ReadAt == nil {
		now := s.clock.Now().UTC()
		if err := s.repo.MarkRead(ctx, s.db, orgID, messageID, now); err != nil {
			return nil, err
		}
		entity.ReadAt = &now
	}
	return toResponse(entity), nil
}

func toResponse(m *messagedomain.Message) *messagedomain.Response {
	return &messagedomain.Response{
		ID:        m.ID,
		OrgID:     m.OrgID,
		ProjectID: m.ProjectID,
		Author:    m.Author,
		Body:      m.Body,
		ReadAt:    m.ReadAt,
		CreatedAt: m.CreatedAt,
	}
}
