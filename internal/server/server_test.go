package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atelierlab/devisio/internal/config"
	"github.com/atelierlab/devisio/internal/identity"
	"github.com/atelierlab/devisio/internal/orgcontext"
	quotedomain "github.com/atelierlab/devisio/internal/quote/domain"
)

type fakeQuoteService struct {
	quotedomain.Service

	sendErr   error
	sendCalls int
}

func (f *fakeQuoteService) Send(ctx context.Context, id string) (*quotedomain.Response, error) {
	f.sendCalls++
	_ = ctx
	_ = id
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &quotedomain.Response{}, nil
}

type fakeAuthzService struct {
	denied      bool
	lastActor   string
	lastRole    string
	lastOrgID   string
	lastObject  string
	lastAction  string
	authorizeCt int
}

func (f *fakeAuthzService) Authorize(ctx context.Context, actor, role, orgID, object, action string) error {
	f.authorizeCt++
	f.lastActor = actor
	f.lastRole = role
	f.lastOrgID = orgID
	f.lastObject = object
	f.lastAction = action
	_ = ctx
	if f.denied {
		return ErrForbidden
	}
	return nil
}

func TestErrorMappingStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", quotedomain.ErrInvalidTitle, http.StatusBadRequest},
		{"not_found", quotedomain.ErrNotFound, http.StatusNotFound},
		{"conflict", quotedomain.ErrNotDraft, http.StatusConflict},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"internal", ErrInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := mapError(tc.err)
			if status != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, status)
			}
		})
	}
}

func TestSendQuoteMapsLifecycleConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)

	quoteSvc := &fakeQuoteService{sendErr: quotedomain.ErrNotDraft}
	srv := &Server{quoteSvc: quoteSvc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/quotes/:id/send", srv.SendQuote)

	req := httptest.NewRequest(http.MethodPost, "/quotes/42/send", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
	if quoteSvc.sendCalls != 1 {
		t.Fatalf("expected one send call, got %d", quoteSvc.sendCalls)
	}
}

func TestAuthenticatedRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.Config{AuthJWTSecret: "test-secret"}
	srv := &Server{
		cfg:      cfg,
		verifier: identity.NewVerifier(cfg),
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/protected", srv.Authenticated(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestAuthenticatedPassesRoleToAuthorizer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.Config{AuthJWTSecret: "test-secret"}
	verifier := identity.NewVerifier(cfg)
	authz := &fakeAuthzService{}
	srv := &Server{
		cfg:      cfg,
		verifier: verifier,
		authzSvc: authz,
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/protected",
		srv.Authenticated(),
		srv.authorize("quote", "quote.view"),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "ok"}) },
	)

	token, err := verifier.Sign(identity.Identity{
		Subject: "7000001",
		OrgID:   "9000001",
		Role:    "engineer",
	}, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", resp.Code, resp.Body.String())
	}
	if authz.lastActor != "user:7000001" {
		t.Fatalf("unexpected actor %q", authz.lastActor)
	}
	if authz.lastRole != "engineer" {
		t.Fatalf("unexpected role %q", authz.lastRole)
	}
	if authz.lastOrgID != "9000001" {
		t.Fatalf("unexpected org %q", authz.lastOrgID)
	}
	if authz.lastObject != "quote" || authz.lastAction != "quote.view" {
		t.Fatalf("unexpected object/action %q/%q", authz.lastObject, authz.lastAction)
	}
}

func TestAuthorizeDenialMapsToForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.Config{AuthJWTSecret: "test-secret"}
	verifier := identity.NewVerifier(cfg)
	srv := &Server{
		cfg:      cfg,
		verifier: verifier,
		authzSvc: &fakeAuthzService{denied: true},
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/protected",
		srv.Authenticated(),
		srv.authorize("contract", "contract.sign"),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "ok"}) },
	)

	token, err := verifier.Sign(identity.Identity{
		Subject: "7000001",
		OrgID:   "9000001",
		Role:    "client",
	}, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
}

func TestSingleWorkspaceModeFallsBackToDefaultOrg(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.Config{DefaultOrgID: 424242}
	authz := &fakeAuthzService{}
	srv := &Server{
		cfg:      cfg,
		verifier: identity.NewVerifier(cfg),
		authzSvc: authz,
	}

	var seenOrg int64
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/protected",
		srv.Authenticated(),
		srv.authorize("project", "project.view"),
		func(c *gin.Context) {
			orgID, _ := orgcontext.OrgIDFromContext(c.Request.Context())
			seenOrg = int64(orgID)
			c.JSON(http.StatusOK, gin.H{"data": "ok"})
		},
	)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if seenOrg != 424242 {
		t.Fatalf("expected default workspace 424242, got %d", seenOrg)
	}
	if authz.authorizeCt != 0 {
		t.Fatal("expected authorizer to be skipped without a caller identity")
	}
}
