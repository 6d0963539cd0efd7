package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/atelierlab/devisio/internal/clock"
	"github.com/atelierlab/devisio/internal/config"
	contractdomain "github.com/atelierlab/devisio/internal/contract/domain"
	financedomain "github.com/atelierlab/devisio/internal/finance/domain"
	"github.com/atelierlab/devisio/internal/finance/reconcile"
	obsmetrics "github.com/atelierlab/devisio/internal/observability/metrics"
	"github.com/atelierlab/devisio/internal/orgcontext"
	projectdomain "github.com/atelierlab/devisio/internal/project/domain"
	"github.com/atelierlab/devisio/internal/quote/costing"
	quotedomain "github.com/atelierlab/devisio/internal/quote/domain"
	timeentrydomain "github.com/atelierlab/devisio/internal/timeentry/domain"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Finance       *config.FinanceConfigHolder
	Repo          financedomain.Repository
	ProjectRepo   projectdomain.Repository
	QuoteRepo     quotedomain.Repository
	ContractRepo  contractdomain.Repository
	TimeEntryRepo timeentrydomain.Repository
	Metrics       *obsmetrics.Domain `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	finance       *config.FinanceConfigHolder
	repo          financedomain.Repository
	projectRepo   projectdomain.Repository
	quoteRepo     quotedomain.Repository
	contractRepo  contractdomain.Repository
	timeEntryRepo timeentrydomain.Repository
	metrics       *obsmetrics.Domain
}

func New(p Params) financedomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("finance.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		finance:       p.Finance,
		repo:          p.Repo,
		projectRepo:   p.ProjectRepo,
		quoteRepo:     p.QuoteRepo,
		contractRepo:  p.ContractRepo,
		timeEntryRepo: p.TimeEntryRepo,
		metrics:       p.Metrics,
	}
}

func (s *Service) ProjectReport(ctx context.Context, projectID string) (*financedomain.ReportResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, financedomain.ErrInvalidOrganization
	}
	id, err := snowflake.ParseString(strings.TrimSpace(projectID))
	if err != nil {
		return nil, financedomain.ErrInvalidID
	}
	return s.report(ctx, orgID, id)
}

func (s *Service) report(ctx context.Context, orgID, projectID snowflake.ID) (*financedomain.ReportResponse, error) {
	project, err := s.projectRepo.FindByID(ctx, s.db, orgID, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, financedomain.ErrInvalidProject
	}

	source, err := s.resolveBudget(ctx, orgID, projectID)
	if err != nil {
		return nil, err
	}

	entries, err := s.timeEntryRepo.List(ctx, s.db, orgID, timeentrydomain.ListFilter{ProjectID: projectID})
	if err != nil {
		return nil, err
	}

	financeCfg := s.finance.Get()
	report := reconcile.Reconcile(
		source.budget,
		entriesToReconcile(entries),
		reconcile.Config{
			HoursPerDay:     financeCfg.HoursPerDay,
			WarnPercent:     financeCfg.ConsumptionWarnPercent,
			CriticalPercent: financeCfg.ConsumptionCriticalPercent,
		},
	)

	return &financedomain.ReportResponse{
		ProjectID:       projectID,
		Source:          source.kind,
		SourceID:        source.id,
		SourceReference: source.reference,
		ContractType:    source.contractType,
		GeneratedAt:     s.clock.Now().UTC(),
		Report:          report,
	}, nil
}

// budgetSource is the resolved envelope a report is measured against.
type budgetSource struct {
	kind         financedomain.BudgetSource
	id           snowflake.ID
	reference    string
	contractType string
	budget       reconcile.Budget
}

// resolveBudget picks the authoritative budget: the latest accepted quote
// when the project has one, else the signed contract.
func (s *Service) resolveBudget(ctx context.Context, orgID, projectID snowflake.ID) (*budgetSource, error) {
	quote, err := s.quoteRepo.FindLatestAcceptedByProject(ctx, s.db, orgID, projectID)
	if err != nil {
		return nil, err
	}
	if quote != nil {
		return &budgetSource{
			kind:      financedomain.SourceAcceptedQuote,
			id:        quote.ID,
			reference: quote.Number,
			budget:    budgetFromQuote(quote),
		}, nil
	}

	contract, err := s.contractRepo.FindSignedByProject(ctx, s.db, orgID, projectID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, financedomain.ErrNoBudgetSource
	}
	return &budgetSource{
		kind:         financedomain.SourceSignedContract,
		id:           contract.ID,
		reference:    contract.Reference,
		contractType: string(contract.Type),
		budget:       budgetFromContract(contract),
	}, nil
}

func (s *Service) Snapshot(ctx context.Context, projectID string) (*financedomain.Snapshot, error) {
	resp, err := s.ProjectReport(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.persistSnapshot(ctx, resp)
}

func (s *Service) persistSnapshot(ctx context.Context, resp *financedomain.ReportResponse) (*financedomain.Snapshot, error) {
	orgID, _ := orgcontext.OrgIDFromContext(ctx)

	raw, err := json.Marshal(resp.Report)
	if err != nil {
		return nil, err
	}

	snapshot := &financedomain.Snapshot{
		ID:                 s.genID.Generate(),
		OrgID:              orgID,
		ProjectID:          resp.ProjectID,
		Source:             resp.Source,
		SourceID:           resp.SourceID,
		TakenAt:            resp.GeneratedAt,
		BudgetDays:         resp.Report.BudgetDays,
		ConsumedDays:       resp.Report.ConsumedDays,
		RemainingDays:      resp.Report.RemainingDays,
		ConsumptionPercent: resp.Report.ConsumptionPercent,
		BudgetAmountHT:     resp.Report.BudgetAmountHT,
		ConsumedAmountHT:   resp.Report.ConsumedAmountHT,
		Report:             datatypes.JSON(raw),
		CreatedAt:          resp.GeneratedAt,
	}
	if err := s.repo.InsertSnapshot(ctx, s.db, snapshot); err != nil {
		return nil, err
	}

	s.metrics.RecordSnapshotWritten(ctx, string(resp.Source))
	s.log.Info("finance snapshot taken",
		zap.String("project_id", resp.ProjectID.String()),
		zap.Float64("consumption_percent", resp.Report.ConsumptionPercent),
	)
	return snapshot, nil
}

func (s *Service) ListSnapshots(ctx context.Context, projectID string) ([]financedomain.Snapshot, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, financedomain.ErrInvalidOrganization
	}
	id, err := snowflake.ParseString(strings.TrimSpace(projectID))
	if err != nil {
		return nil, financedomain.ErrInvalidID
	}
	return s.repo.ListSnapshots(ctx, s.db, orgID, id)
}

func (s *Service) SnapshotAll(ctx context.Context, batchSize int) (int, error) {
	written := 0
	var afterID snowflake.ID
	for {
		contracts, err := s.repo.ListSignedContracts(ctx, s.db, afterID, batchSize)
		if err != nil {
			return written, err
		}
		if len(contracts) == 0 {
			return written, nil
		}

		for i := range contracts {
			contract := &contracts[i]
			afterID = contract.ID

			// the sweep runs outside any request, so scope each contract
			// to its own organization
			scoped := orgcontext.WithOrgID(ctx, contract.OrgID.Int64())
			resp, err := s.report(scoped, contract.OrgID, contract.ProjectID)
			if err != nil {
				s.log.Warn("finance snapshot skipped",
					zap.String("contract_id", contract.ID.String()),
					zap.Error(err),
				)
				continue
			}
			if _, err := s.persistSnapshot(scoped, resp); err != nil {
				return written, err
			}
			written++
		}

		if len(contracts) < batchSize {
			return written, nil
		}
	}
}

// budgetFromQuote prices the accepted quote through the costing engine:
// budget days per profile come from the totalizer, daily rates from the
// quote's own profile list.
func budgetFromQuote(quote *quotedomain.Quote) reconcile.Budget {
	totals := costing.Totalize(quote.ToCosting())

	budget := reconcile.Budget{
		Profiles: make([]reconcile.ProfileBudget, 0, len(quote.Profiles)),
	}
	seen := make(map[string]struct{}, len(quote.Profiles))
	for _, profile := range quote.Profiles {
		budget.Profiles = append(budget.Profiles, reconcile.ProfileBudget{
			Name:       profile.Name,
			DailyRate:  profile.DailyRate,
			BudgetDays: totals.TotalDaysByProfile[profile.Name],
		})
		seen[profile.Name] = struct{}{}
	}
	// abaque rows can reference profiles the quote never defined; their days
	// still count, at a zero rate
	for name, days := range totals.TotalDaysByProfile {
		if _, ok := seen[name]; ok {
			continue
		}
		budget.Profiles = append(budget.Profiles, reconcile.ProfileBudget{
			Name:       name,
			BudgetDays: days,
		})
	}
	return budget
}

func budgetFromContract(contract *contractdomain.Contract) reconcile.Budget {
	budget := reconcile.Budget{
		Profiles: make([]reconcile.ProfileBudget, 0, len(contract.Profiles)),
	}
	for _, profile := range contract.Profiles {
		budget.Profiles = append(budget.Profiles, reconcile.ProfileBudget{
			Name:       profile.Name,
			DailyRate:  profile.DailyRate,
			BudgetDays: profile.BudgetDays,
		})
	}
	if contract.Type == contractdomain.TypeFixedPrice && contract.TotalHT > 0 {
		budget.TotalAmountHT = contract.TotalHT
	}
	return budget
}

func entriesToReconcile(entries []timeentrydomain.TimeEntry) []reconcile.Entry {
	out := make([]reconcile.Entry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, reconcile.Entry{
			ProfileName:  entry.ProfileName,
			CategoryName: entry.CategoryName,
			Date:         entry.EntryDate,
			Hours:        entry.Hours,
		})
	}
	return out
}
