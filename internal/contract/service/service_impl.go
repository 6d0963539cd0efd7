package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/atelierlab/devisio/internal/clock"
	contractdomain "github.com/atelierlab/devisio/internal/contract/domain"
	"github.com/atelierlab/devisio/internal/orgcontext"
	projectdomain "github.com/atelierlab/devisio/internal/project/domain"
	"github.com/atelierlab/devisio/internal/quote/costing"
	quotedomain "github.com/atelierlab/devisio/internal/quote/domain"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        contractdomain.Repository
	ProjectRepo projectdomain.Repository
	QuoteRepo   quotedomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        contractdomain.Repository
	projectRepo projectdomain.Repository
	quoteRepo   quotedomain.Repository
}

func New(p Params) contractdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("contract.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		projectRepo: p.ProjectRepo,
		quoteRepo:   p.QuoteRepo,
	}
}

func (s *Service) Create(ctx context.Context, req contractdomain.CreateRequest) (*contractdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, contractdomain.ErrInvalidOrganization
	}

	projectID, err := parseID(req.ProjectID)
	if err != nil {
		return nil, contractdomain.ErrInvalidProject
	}
	project, err := s.projectRepo.FindByID(ctx, s.db, orgID, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, contractdomain.ErrInvalidProject
	}

	contractType, err := contractdomain.ParseType(req.Type)
	if err != nil {
		return nil, err
	}
	if req.TotalHT < 0 {
		return nil, contractdomain.ErrInvalidAmount
	}

	now := s.clock.Now().UTC()
	entity := &contractdomain.Contract{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		ProjectID:    projectID,
		Type:         contractType,
		Status:       contractdomain.StatusDraft,
		TotalHT:      req.TotalHT,
		TotalTTC:     req.TotalHT * (1 + costing.VATRate),
		PaymentTerms: strings.TrimSpace(req.PaymentTerms),
		Notes:        req.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.Metadata != nil {
		entity.Metadata = datatypes.JSONMap(req.Metadata)
	}
	if err := s.buildProfiles(entity, req.Profiles); err != nil {
		return nil, err
	}

	seq, err := s.repo.CountByOrg(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	entity.Reference = fmt.Sprintf("C-%d-%03d", now.Year(), seq+1)

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		return nil, err
	}

	s.log.Info("contract created",
		zap.String("contract_id", entity.ID.String()),
		zap.String("reference", entity.Reference),
	)
	return toResponse(entity), nil
}

func (s *Service) CreateFromQuote(ctx context.Context, quoteID string, req contractdomain.FromQuoteRequest) (*contractdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, contractdomain.ErrInvalidOrganization
	}

	id, err := parseID(quoteID)
	if err != nil {
		return nil, contractdomain.ErrInvalidQuote
	}
	quote, err := s.quoteRepo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, contractdomain.ErrInvalidQuote
	}
	if quote.Status != quotedomain.StatusAccepted {
		return nil, contractdomain.ErrQuoteNotAccepted
	}

	contractType := contractdomain.TypeFixedPrice
	if req.Type != "" {
		contractType, err = contractdomain.ParseType(req.Type)
		if err != nil {
			return nil, err
		}
	}

	totals := costing.Totalize(quote.ToCosting())

	now := s.clock.Now().UTC()
	entity := &contractdomain.Contract{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		ProjectID:    quote.ProjectID,
		QuoteID:      &quote.ID,
		Type:         contractType,
		Status:       contractdomain.StatusDraft,
		TotalHT:      totals.TotalHT,
		TotalTTC:     totals.TotalTTC,
		PaymentTerms: strings.TrimSpace(req.PaymentTerms),
		Notes:        req.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	rates := make(map[string]float64, len(quote.Profiles))
	for _, profile := range quote.Profiles {
		rates[profile.Name] = profile.DailyRate
	}
	names := make([]string, 0, len(totals.TotalDaysByProfile))
	for name := range totals.TotalDaysByProfile {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		entity.Profiles = append(entity.Profiles, contractdomain.ContractProfile{
			ID:         s.genID.Generate(),
			ContractID: entity.ID,
			Name:       name,
			DailyRate:  rates[name],
			BudgetDays: totals.TotalDaysByProfile[name],
			Position:   int32(i),
		})
	}

	seq, err := s.repo.CountByOrg(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	entity.Reference = fmt.Sprintf("C-%d-%03d", now.Year(), seq+1)

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		return nil, err
	}

	s.log.Info("contract created from quote",
		zap.String("contract_id", entity.ID.String()),
		zap.String("quote_id", quote.ID.String()),
	)
	return toResponse(entity), nil
}

func (s *Service) Update(ctx context.Context, id string, req contractdomain.UpdateRequest) (*contractdomain.Response, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity.Status != contractdomain.StatusDraft {
		return nil, contractdomain.ErrNotDraft
	}

	if req.Type != nil {
		contractType, err := contractdomain.ParseType(*req.Type)
		if err != nil {
			return nil, err
		}
		entity.Type = contractType
	}
	if req.TotalHT != nil {
		if *req.TotalHT < 0 {
			return nil, contractdomain.ErrInvalidAmount
		}
		entity.TotalHT = *req.TotalHT
		entity.TotalTTC = *req.TotalHT * (1 + costing.VATRate)
	}
	if req.PaymentTerms != nil {
		entity.PaymentTerms = strings.TrimSpace(*req.PaymentTerms)
	}
	if req.Notes != nil {
		entity.Notes = *req.Notes
	}
	if req.Profiles != nil {
		if err := s.buildProfiles(entity, req.Profiles); err != nil {
			return nil, err
		}
	}

	entity.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Replace(ctx, s.db, entity); err != nil {
		return nil, err
	}
	return toResponse(entity), nil
}

func (s *Service) Get(ctx context.Context, id string) (*contractdomain.Response, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(entity), nil
}

func (s *Service) List(ctx context.Context, req contractdomain.ListRequest) ([]contractdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, contractdomain.ErrInvalidOrganization
	}

	var filter contractdomain.ListFilter
	if strings.TrimSpace(req.ProjectID) != "" {
		projectID, err := parseID(req.ProjectID)
		if err != nil {
			return nil, contractdomain.ErrInvalidProject
		}
		filter.ProjectID = projectID
	}
	if req.Status != "" {
		status, err := contractdomain.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}

	items, err := s.repo.List(ctx, s.db, orgID, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]contractdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Send(ctx context.Context, id string) (*contractdomain.Response, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity.Status != contractdomain.StatusDraft {
		return nil, contractdomain.ErrNotDraft
	}

	now := s.clock.Now().UTC()
	entity.Status = contractdomain.StatusSent
	entity.SentAt = &now
	entity.UpdatedAt = now
	if err := s.repo.UpdateStatus(ctx, s.db, entity); err != nil {
		return nil, err
	}
	return toResponse(entity), nil
}

func (s *Service) Sign(ctx context.Context, id string) (*contractdomain.Response, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity.Status != contractdomain.StatusSent {
		return nil, contractdomain.ErrNotSent
	}

	existing, err := s.repo.FindSignedByProject(ctx, s.db, entity.OrgID, entity.ProjectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, contractdomain.ErrAlreadySigned
	}

	now := s.clock.Now().UTC()
	entity.Status = contractdomain.StatusSigned
	entity.SignedAt = &now
	entity.UpdatedAt = now
	if err := s.repo.UpdateStatus(ctx, s.db, entity); err != nil {
		return nil, err
	}

	s.log.Info("contract signed", zap.String("contract_id", entity.ID.String()))
	return toResponse(entity), nil
}

func (s *Service) Cancel(ctx context.Context, id string) (*contractdomain.Response, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity.Status == contractdomain.StatusCancelled {
		return toResponse(entity), nil
	}

	now := s.clock.Now().UTC()
	entity.Status = contractdomain.StatusCancelled
	entity.CancelledAt = &now
	entity.UpdatedAt = now
	if err := s.repo.UpdateStatus(ctx, s.db, entity); err != nil {
		return nil, err
	}

	s.log.Info("contract cancelled", zap.String("contract_id", entity.ID.String()))
	return toResponse(entity), nil
}

func (s *Service) buildProfiles(entity *contractdomain.Contract, inputs []contractdomain.ProfileInput) error {
	entity.Profiles = nil
	for i, input := range inputs {
		name := strings.TrimSpace(input.Name)
		if name == "" || input.DailyRate < 0 || input.BudgetDays < 0 {
			return contractdomain.ErrInvalidProfile
		}
		entity.Profiles = append(entity.Profiles, contractdomain.ContractProfile{
			ID:         s.genID.Generate(),
			ContractID: entity.ID,
			Name:       name,
			DailyRate:  input.DailyRate,
			BudgetDays: input.BudgetDays,
			Position:   int32(i),
		})
	}
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*contractdomain.Contract, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, contractdomain.ErrInvalidOrganization
	}
	contractID, err := parseID(id)
	if err != nil {
		return nil, contractdomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, orgID, contractID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, contractdomain.ErrNotFound
	}
	return entity, nil
}

func toResponse(c *contractdomain.Contract) *contractdomain.Response {
	return &contractdomain.Response{
		ID:           c.ID,
		OrgID:        c.OrgID,
		ProjectID:    c.ProjectID,
		QuoteID:      c.QuoteID,
		Reference:    c.Reference,
		Type:         c.Type,
		Status:       c.Status,
		TotalHT:      c.TotalHT,
		TotalTTC:     c.TotalTTC,
		PaymentTerms: c.PaymentTerms,
		Notes:        c.Notes,
		Profiles:     c.Profiles,
		SentAt:       c.SentAt,
		SignedAt:     c.SignedAt,
		CancelledAt:  c.CancelledAt,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
