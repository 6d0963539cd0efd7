package service

import (
	"context"
	"io"
	"math/rand"
	"path/filepath"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/atelierlab/devisio/internal/clock"
	documentdomain "github.com/atelierlab/devisio/internal/document/domain"
	obscontext "github.com/atelierlab/devisio/internal/observability/context"
	"github.com/atelierlab/devisio/internal/orgcontext"
	projectdomain "github.com/atelierlab/devisio/internal/project/domain"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        documentdomain.Repository
	ProjectRepo projectdomain.Repository
	Blobs       documentdomain.BlobStore
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        documentdomain.Repository
	projectRepo projectdomain.Repository
	blobs       documentdomain.BlobStore
}

func New(p Params) documentdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("document.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		projectRepo: p.ProjectRepo,
		blobs:       p.Blobs,
	}
}

func (s *Service) Upload(ctx context.Context, req documentdomain.UploadRequest) (*documentdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, documentdomain.ErrInvalidOrganization
	}

	projectID, err := snowflake.ParseString(strings.TrimSpace(req.ProjectID))
	if err != nil {
		return nil, documentdomain.ErrInvalidProject
	}
	project, err := s.projectRepo.FindByID(ctx, s.db, orgID, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, documentdomain.ErrInvalidProject
	}

	fileName := filepath.Base(strings.TrimSpace(req.FileName))
	if fileName == "" || fileName == "." || fileName == "/" {
		return nil, documentdomain.ErrInvalidFileName
	}
	if req.Content == nil {
		return nil, documentdomain.ErrEmptyContent
	}

	now := s.clock.Now().UTC()
	key := ulid.MustNew(ulid.Timestamp(now), rand.New(rand.NewSource(now.UnixNano()))).String()

	size, err := s.blobs.Put(ctx, key, req.Content)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		s.blobs.Delete(ctx, key)
		return nil, documentdomain.ErrEmptyContent
	}

	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	actor, _ := obscontext.ActorFromContext(ctx)
	entity := &documentdomain.Document{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		ProjectID:   projectID,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   size,
		ObjectKey:   key,
		UploadedBy:  actor,
		CreatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		// don't leave orphan bytes behind
		s.blobs.Delete(ctx, key)
		return nil, err
	}

	s.log.Info("document uploaded",
		zap.String("document_id", entity.ID.String()),
		zap.String("file_name", fileName),
		zap.Int64("size_bytes", size),
	)
	return toResponse(entity), nil
}

func (s *Service) Download(ctx context.Context, id string) (*documentdomain.Response, io.ReadCloser, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.blobs.Get(ctx, entity.ObjectKey)
	if err != nil {
		return nil, nil, err
	}
	return toResponse(entity), rc, nil
}

func (s *Service) List(ctx context.Context, projectID string) ([]documentdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, documentdomain.ErrInvalidOrganization
	}
	id, err := snowflake.ParseString(strings.TrimSpace(projectID))
	if err != nil {
		return nil, documentdomain.ErrInvalidProject
	}

	items, err := s.repo.ListByProject(ctx, s.db, orgID, id)
	if err != nil {
		return nil, err
	}

	resp := make([]documentdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	entity, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, s.db, entity.OrgID, entity.ID); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, entity.ObjectKey); err != nil {
		s.log.Warn("document blob cleanup failed",
			zap.String("document_id", entity.ID.String()),
			zap.Error(err),
		)
	}
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*documentdomain.Document, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, documentdomain.ErrInvalidOrganization
	}
	documentID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, documentdomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, orgID, documentID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, documentdomain.ErrNotFound
	}
	return entity, nil
}

func toResponse(d *documentdomain.Document) *documentdomain.Response {
	return &documentdomain.Response{
		ID:          d.ID,
		OrgID:       d.OrgID,
		ProjectID:   d.ProjectID,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		SizeBytes:   d.SizeBytes,
		UploadedBy:  d.UploadedBy,
		CreatedAt:   d.CreatedAt,
	}
}
