package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	clientdomain "github.com/atelierlab/devisio/internal/client/domain"
	financedomain "github.com/atelierlab/devisio/internal/finance/domain"
	"github.com/atelierlab/devisio/internal/orgcontext"
	projectdomain "github.com/atelierlab/devisio/internal/project/domain"
	"github.com/atelierlab/devisio/internal/quote/costing"
	quotedomain "github.com/atelierlab/devisio/internal/quote/domain"
)

// File is a rendered export ready to stream to the caller.
type File struct {
	Name        string
	ContentType string
	Content     io.Reader
}

type Service interface {
	// QuotePDF renders one quote as a client-facing PDF.
	QuotePDF(ctx context.Context, quoteID string) (*File, error)
	// FinanceWorkbook renders the project's reconciliation report as a
	// spreadsheet with summary and breakdown sheets.
	FinanceWorkbook(ctx context.Context, projectID string) (*File, error)
}

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	QuoteSvc    quotedomain.Service
	FinanceSvc  financedomain.Service
	ProjectRepo projectdomain.Repository
	ClientRepo  clientdomain.Repository
}

type service struct {
	db          *gorm.DB
	log         *zap.Logger
	quoteSvc    quotedomain.Service
	financeSvc  financedomain.Service
	projectRepo projectdomain.Repository
	clientRepo  clientdomain.Repository
}

func New(p Params) Service {
	return &service{
		db:          p.DB,
		log:         p.Log.Named("export.service"),
		quoteSvc:    p.QuoteSvc,
		financeSvc:  p.FinanceSvc,
		projectRepo: p.ProjectRepo,
		clientRepo:  p.ClientRepo,
	}
}

func (s *service) QuotePDF(ctx context.Context, quoteID string) (*File, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, quotedomain.ErrInvalidOrganization
	}

	quote, err := s.quoteSvc.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	project, err := s.projectRepo.FindByID(ctx, s.db, orgID, quote.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, quotedomain.ErrNotFound
	}
	client, err := s.clientRepo.FindByID(ctx, s.db, orgID, project.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, quotedomain.ErrNotFound
	}

	data := buildQuotePDFData(quote, project, client)
	content, err := renderQuotePDF(data)
	if err != nil {
		return nil, err
	}

	s.log.Info("quote pdf rendered",
		zap.String("quote_id", quote.ID.String()),
		zap.String("number", quote.Number),
	)
	return &File{
		Name:        fmt.Sprintf("%s-v%d.pdf", strings.ToLower(quote.Number), quote.Version),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

func (s *service) FinanceWorkbook(ctx context.Context, projectID string) (*File, error) {
	report, err := s.financeSvc.ProjectReport(ctx, projectID)
	if err != nil {
		return nil, err
	}

	content, err := renderFinanceWorkbook(report)
	if err != nil {
		return nil, err
	}

	s.log.Info("finance workbook rendered",
		zap.String("project_id", report.ProjectID.String()),
		zap.String("budget_source", string(report.Source)),
		zap.String("reference", report.SourceReference),
	)
	return &File{
		Name:        fmt.Sprintf("finance-%s.xlsx", strings.ToLower(report.SourceReference)),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     content,
	}, nil
}

func buildQuotePDFData(quote *quotedomain.Response, project *projectdomain.Project, client *clientdomain.Client) quotePDFData {
	data := quotePDFData{
		Number:        quote.Number,
		Title:         quote.Title,
		Version:       quote.Version,
		Status:        string(quote.Status),
		IssueDate:     quote.CreatedAt.Format("2006-01-02"),
		ExpiresAt:     "-",
		PaymentTerms:  quote.PaymentTerms,
		ClientName:    client.Name,
		ClientCompany: client.CompanyName,
		ClientAddress: client.Address,
		ClientEmail:   client.Email,
		ProjectName:   project.Name,
		TotalDays:     days(quote.Totals.TotalDays),
		TotalHT:       money(quote.Totals.TotalHT),
		VAT:           money(quote.Totals.TotalTTC - quote.Totals.TotalHT),
		TotalTTC:      money(quote.Totals.TotalTTC),
	}
	if quote.ExpiresAt != nil {
		data.ExpiresAt = quote.ExpiresAt.Format("2006-01-02")
	}

	rates := make(map[string]float64, len(quote.Profiles))
	for _, profile := range quote.Profiles {
		rates[profile.Name] = profile.DailyRate
		data.Lines = append(data.Lines, quotePDFLine{
			Profile:   profile.Name,
			Days:      days(quote.Totals.TotalDaysByProfile[profile.Name]),
			DailyRate: money(profile.DailyRate),
			AmountHT:  money(quote.Totals.AmountHTByProfile[profile.Name]),
		})
	}
	// Time booked against profiles the quote never declared still shows
	// up in the totals; surface those rows too.
	for name, profileDays := range quote.Totals.TotalDaysByProfile {
		if _, known := rates[name]; known {
			continue
		}
		data.Lines = append(data.Lines, quotePDFLine{
			Profile:   name,
			Days:      days(profileDays),
			DailyRate: money(0),
			AmountHT:  money(quote.Totals.AmountHTByProfile[name]),
		})
	}

	for _, level := range quote.Transverse {
		for _, activity := range level.Activities {
			data.Transverse = append(data.Transverse, transversePDFLine{
				Level:   level.Level,
				Name:    activity.Name,
				Profile: activity.ProfileName,
				Detail:  transverseDetail(activity.Kind, activity.Value),
			})
		}
	}

	return data
}

func transverseDetail(kind costing.TransverseKind, value float64) string {
	if kind == costing.Rate {
		return fmt.Sprintf("%.1f %%", value)
	}
	return days(value) + " d"
}

func money(v float64) string {
	return fmt.Sprintf("%.2f EUR", costing.Round2(v))
}

func days(v float64) string {
	return fmt.Sprintf("%.2f", costing.Round2(v))
}
