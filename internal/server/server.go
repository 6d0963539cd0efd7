package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/atelierlab/devisio/internal/authorization"
	"github.com/atelierlab/devisio/internal/client"
	clientdomain "github.com/atelierlab/devisio/internal/client/domain"
	"github.com/atelierlab/devisio/internal/config"
	"github.com/atelierlab/devisio/internal/contract"
	contractdomain "github.com/atelierlab/devisio/internal/contract/domain"
	"github.com/atelierlab/devisio/internal/document"
	documentdomain "github.com/atelierlab/devisio/internal/document/domain"
	"github.com/atelierlab/devisio/internal/export"
	"github.com/atelierlab/devisio/internal/finance"
	financedomain "github.com/atelierlab/devisio/internal/finance/domain"
	"github.com/atelierlab/devisio/internal/identity"
	"github.com/atelierlab/devisio/internal/message"
	messagedomain "github.com/atelierlab/devisio/internal/message/domain"
	"github.com/atelierlab/devisio/internal/observability"
	obslogger "github.com/atelierlab/devisio/internal/observability/logger"
	obsmetrics "github.com/atelierlab/devisio/internal/observability/metrics"
	obstracing "github.com/atelierlab/devisio/internal/observability/tracing"
	"github.com/atelierlab/devisio/internal/project"
	projectdomain "github.com/atelierlab/devisio/internal/project/domain"
	"github.com/atelierlab/devisio/internal/quote"
	quotedomain "github.com/atelierlab/devisio/internal/quote/domain"
	"github.com/atelierlab/devisio/internal/ratelimit"
	timeentry "github.com/atelierlab/devisio/internal/timeentry"
	timeentrydomain "github.com/atelierlab/devisio/internal/timeentry/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	identity.Module,
	authorization.Module,
	ratelimit.Module,
	client.Module,
	project.Module,
	quote.Module,
	contract.Module,
	timeentry.Module,
	finance.Module,
	message.Module,
	document.Module,
	export.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	verifier     *identity.Verifier
	authzSvc     authorization.Service
	clientSvc    clientdomain.Service
	projectSvc   projectdomain.Service
	quoteSvc     quotedomain.Service
	contractSvc  contractdomain.Service
	timeEntrySvc timeentrydomain.Service
	financeSvc   financedomain.Service
	messageSvc   messagedomain.Service
	documentSvc  documentdomain.Service
	exportSvc    export.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	Verifier     *identity.Verifier
	AuthzSvc     authorization.Service
	ClientSvc    clientdomain.Service
	ProjectSvc   projectdomain.Service
	QuoteSvc     quotedomain.Service
	ContractSvc  contractdomain.Service
	TimeEntrySvc timeentrydomain.Service
	FinanceSvc   financedomain.Service
	MessageSvc   messagedomain.Service
	DocumentSvc  documentdomain.Service
	ExportSvc    export.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		verifier:     p.Verifier,
		authzSvc:     p.AuthzSvc,
		clientSvc:    p.ClientSvc,
		projectSvc:   p.ProjectSvc,
		quoteSvc:     p.QuoteSvc,
		contractSvc:  p.ContractSvc,
		timeEntrySvc: p.TimeEntrySvc,
		financeSvc:   p.FinanceSvc,
		messageSvc:   p.MessageSvc,
		documentSvc:  p.DocumentSvc,
		exportSvc:    p.ExportSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.Authenticated())

	// -------- Clients --------
	api.GET("/clients", s.authorize(authorization.ObjectClient, authorization.ActionClientView), s.ListClients)
	api.POST("/clients", s.authorize(authorization.ObjectClient, authorization.ActionClientCreate), s.CreateClient)
	api.GET("/clients/:id", s.authorize(authorization.ObjectClient, authorization.ActionClientView), s.GetClientByID)
	api.PATCH("/clients/:id", s.authorize(authorization.ObjectClient, authorization.ActionClientUpdate), s.UpdateClient)
	api.POST("/clients/:id/archive", s.authorize(authorization.ObjectClient, authorization.ActionClientArchive), s.ArchiveClient)
	api.GET("/clients/slug/:slug", s.authorize(authorization.ObjectClient, authorization.ActionClientView), s.GetClientBySlug)

	// -------- Projects --------
	api.GET("/projects", s.authorize(authorization.ObjectProject, authorization.ActionProjectView), s.ListProjects)
	api.POST("/projects", s.authorize(authorization.ObjectProject, authorization.ActionProjectCreate), s.CreateProject)
	api.GET("/projects/:id", s.authorize(authorization.ObjectProject, authorization.ActionProjectView), s.GetProjectByID)
	api.PATCH("/projects/:id", s.authorize(authorization.ObjectProject, authorization.ActionProjectUpdate), s.UpdateProject)

	// -------- Quotes --------
	api.GET("/quotes", s.authorize(authorization.ObjectQuote, authorization.ActionQuoteView), s.ListQuotes)
	api.POST("/quotes", s.authorize(authorization.ObjectQuote, authorization.ActionQuoteCreate), s.CreateQuote)
	api.GET("/quotes/:id", s.authorize(authorization.ObjectQuote, authorization.ActionQuoteView), s.GetQuoteByID)
	api.PATCH("/quotes/:id", s.authorize(authorization.ObjectQuote, authorization.ActionQuoteUpdate), s.UpdateQuote)
	api.GET("/quotes/:id/totals", s.authorize(authorization.ObjectQuote, authorization.ActionQuoteView), s.GetQuoteTotals)
	api.POST("/quotes/:id/send", s.authorize(authorization.ObjectQuote, authorization.ActionQuoteSend), s.SendQuote)
	api.POST("/quotes/:id/accept", s.authorize(authorization.ObjectQuote, authorization.ActionQuoteAccept), s.AcceptQuote)
	api.POST("/quotes/:id/reject", s.authorize(authorization.ObjectQuote, authorization.ActionQuoteReject), s.RejectQuote)
	api.POST("/quotes/:id/versions", s.authorize(authorization.ObjectQuote, authorization.ActionQuoteVersion), s.NewQuoteVersion)
	api.GET("/quotes/:id/pdf", s.authorize(authorization.ObjectExport, authorization.ActionExportQuotePDF), s.ExportQuotePDF)

	// -------- Contracts --------
	api.GET("/contracts", s.authorize(authorization.ObjectContract, authorization.ActionContractView), s.ListContracts)
	api.POST("/contracts", s.authorize(authorization.ObjectContract, authorization.ActionContractCreate), s.CreateContract)
	api.POST("/quotes/:id/contract", s.authorize(authorization.ObjectContract, authorization.ActionContractCreate), s.CreateContractFromQuote)
	api.GET("/contracts/:id", s.authorize(authorization.ObjectContract, authorization.ActionContractView), s.GetContractByID)
	api.PATCH("/contracts/:id", s.authorize(authorization.ObjectContract, authorization.ActionContractUpdate), s.UpdateContract)
	api.POST("/contracts/:id/send", s.authorize(authorization.ObjectContract, authorization.ActionContractSend), s.SendContract)
	api.POST("/contracts/:id/sign", s.authorize(authorization.ObjectContract, authorization.ActionContractSign), s.SignContract)
	api.POST("/contracts/:id/cancel", s.authorize(authorization.ObjectContract, authorization.ActionContractCancel), s.CancelContract)

	// -------- Time entries --------
	api.GET("/time-entries", s.authorize(authorization.ObjectTimeEntry, authorization.ActionTimeEntryView), s.ListTimeEntries)
	api.POST("/time-entries", s.authorize(authorization.ObjectTimeEntry, authorization.ActionTimeEntryCreate), s.CreateTimeEntry)
	api.GET("/time-entries/:id", s.authorize(authorization.ObjectTimeEntry, authorization.ActionTimeEntryView), s.GetTimeEntryByID)
	api.PATCH("/time-entries/:id", s.authorize(authorization.ObjectTimeEntry, authorization.ActionTimeEntryUpdate), s.UpdateTimeEntry)
	api.DELETE("/time-entries/:id", s.authorize(authorization.ObjectTimeEntry, authorization.ActionTimeEntryDelete), s.DeleteTimeEntry)

	// -------- Finance --------
	api.GET("/projects/:id/finance", s.authorize(authorization.ObjectFinance, authorization.ActionFinanceView), s.GetProjectFinanceReport)
	api.POST("/projects/:id/finance/snapshots", s.authorize(authorization.ObjectFinance, authorization.ActionFinanceSnapshot), s.SnapshotProjectFinance)
	api.GET("/projects/:id/finance/snapshots", s.authorize(authorization.ObjectFinance, authorization.ActionFinanceView), s.ListProjectFinanceSnapshots)
	api.GET("/projects/:id/finance/export", s.authorize(authorization.ObjectExport, authorization.ActionExportFinanceWorkbook), s.ExportFinanceWorkbook)

	// -------- Messages --------
	api.GET("/projects/:id/messages", s.authorize(authorization.ObjectMessage, authorization.ActionMessageView), s.ListProjectMessages)
	api.POST("/projects/:id/messages", s.authorize(authorization.ObjectMessage, authorization.ActionMessagePost), s.PostProjectMessage)
	api.POST("/messages/:id/read", s.authorize(authorization.ObjectMessage, authorization.ActionMessageRead), s.MarkMessageRead)

	// -------- Documents --------
	api.GET("/projects/:id/documents", s.authorize(authorization.ObjectDocument, authorization.ActionDocumentView), s.ListProjectDocuments)
	api.POST("/projects/:id/documents", s.authorize(authorization.ObjectDocument, authorization.ActionDocumentUpload), s.UploadProjectDocument)
	api.GET("/documents/:id/download", s.authorize(authorization.ObjectDocument, authorization.ActionDocumentDownload), s.DownloadDocument)
	api.DELETE("/documents/:id", s.authorize(authorization.ObjectDocument, authorization.ActionDocumentDelete), s.DeleteDocument)
}
