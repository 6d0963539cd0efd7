package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, role string, orgID string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return ErrInvalidOrganization
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, err := s.resolveActor(actor, role)
	if err != nil {
		return err
	}

	domain := fmt.Sprintf("org:%s", orgID)
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("subject", subject),
			zap.String("role", roleName),
			zap.String("org_id", orgID),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) resolveActor(actor string, role string) (string, string, error) {
	if actor == "system" {
		return actor, "role:system", nil
	}
	if strings.HasPrefix(actor, "user:") {
		userIDRaw := strings.TrimPrefix(actor, "user:")
		userID, err := snowflake.ParseString(userIDRaw)
		if err != nil || userID == 0 {
			return "", "", ErrInvalidActor
		}
		role = strings.ToLower(strings.TrimSpace(role))
		switch role {
		case RoleOwner, RoleEngineer, RoleClient:
			return actor, "role:" + role, nil
		default:
			return "", "", ErrForbidden
		}
	}
	return "", "", ErrInvalidActor
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Owner: the freelancer or agency principal, full control.
		{"role:owner", ObjectClient, ActionClientView},
		{"role:owner", ObjectClient, ActionClientCreate},
		{"role:owner", ObjectClient, ActionClientUpdate},
		{"role:owner", ObjectClient, ActionClientArchive},
		{"role:owner", ObjectProject, ActionProjectView},
		{"role:owner", ObjectProject, ActionProjectCreate},
		{"role:owner", ObjectProject, ActionProjectUpdate},
		{"role:owner", ObjectQuote, ActionQuoteView},
		{"role:owner", ObjectQuote, ActionQuoteCreate},
		{"role:owner", ObjectQuote, ActionQuoteUpdate},
		{"role:owner", ObjectQuote, ActionQuoteSend},
		{"role:owner", ObjectQuote, ActionQuoteAccept},
		{"role:owner", ObjectQuote, ActionQuoteReject},
		{"role:owner", ObjectQuote, ActionQuoteVersion},
		{"role:owner", ObjectContract, ActionContractView},
		{"role:owner", ObjectContract, ActionContractCreate},
		{"role:owner", ObjectContract, ActionContractUpdate},
		{"role:owner", ObjectContract, ActionContractSend},
		{"role:owner", ObjectContract, ActionContractSign},
		{"role:owner", ObjectContract, ActionContractCancel},
		{"role:owner", ObjectTimeEntry, ActionTimeEntryView},
		{"role:owner", ObjectTimeEntry, ActionTimeEntryCreate},
		{"role:owner", ObjectTimeEntry, ActionTimeEntryUpdate},
		{"role:owner", ObjectTimeEntry, ActionTimeEntryDelete},
		{"role:owner", ObjectFinance, ActionFinanceView},
		{"role:owner", ObjectFinance, ActionFinanceSnapshot},
		{"role:owner", ObjectMessage, ActionMessageView},
		{"role:owner", ObjectMessage, ActionMessagePost},
		{"role:owner", ObjectMessage, ActionMessageRead},
		{"role:owner", ObjectDocument, ActionDocumentView},
		{"role:owner", ObjectDocument, ActionDocumentUpload},
		{"role:owner", ObjectDocument, ActionDocumentDownload},
		{"role:owner", ObjectDocument, ActionDocumentDelete},
		{"role:owner", ObjectExport, ActionExportQuotePDF},
		{"role:owner", ObjectExport, ActionExportFinanceWorkbook},

		// Engineer: builds quotes and logs time, no contract signing and
		// no client-book management.
		{"role:engineer", ObjectClient, ActionClientView},
		{"role:engineer", ObjectProject, ActionProjectView},
		{"role:engineer", ObjectProject, ActionProjectUpdate},
		{"role:engineer", ObjectQuote, ActionQuoteView},
		{"role:engineer", ObjectQuote, ActionQuoteCreate},
		{"role:engineer", ObjectQuote, ActionQuoteUpdate},
		{"role:engineer", ObjectQuote, ActionQuoteVersion},
		{"role:engineer", ObjectContract, ActionContractView},
		{"role:engineer", ObjectTimeEntry, ActionTimeEntryView},
		{"role:engineer", ObjectTimeEntry, ActionTimeEntryCreate},
		{"role:engineer", ObjectTimeEntry, ActionTimeEntryUpdate},
		{"role:engineer", ObjectTimeEntry, ActionTimeEntryDelete},
		{"role:engineer", ObjectFinance, ActionFinanceView},
		{"role:engineer", ObjectMessage, ActionMessageView},
		{"role:engineer", ObjectMessage, ActionMessagePost},
		{"role:engineer", ObjectMessage, ActionMessageRead},
		{"role:engineer", ObjectDocument, ActionDocumentView},
		{"role:engineer", ObjectDocument, ActionDocumentUpload},
		{"role:engineer", ObjectDocument, ActionDocumentDownload},
		{"role:engineer", ObjectExport, ActionExportQuotePDF},

		// Client: the customer side of the portal. Reads the shared
		// surface, decides on quotes, talks in the thread.
		{"role:client", ObjectProject, ActionProjectView},
		{"role:client", ObjectQuote, ActionQuoteView},
		{"role:client", ObjectQuote, ActionQuoteAccept},
		{"role:client", ObjectQuote, ActionQuoteReject},
		{"role:client", ObjectContract, ActionContractView},
		{"role:client", ObjectMessage, ActionMessageView},
		{"role:client", ObjectMessage, ActionMessagePost},
		{"role:client", ObjectDocument, ActionDocumentView},
		{"role:client", ObjectDocument, ActionDocumentDownload},
		{"role:client", ObjectExport, ActionExportQuotePDF},

		// System: scheduler jobs.
		{"role:system", ObjectQuote, ActionQuoteExpire},
		{"role:system", ObjectFinance, ActionFinanceSnapshot},
	}

	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
