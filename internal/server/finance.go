package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	financedomain "github.com/atelierlab/devisio/internal/finance/domain"
)

func (s *Server) GetProjectFinanceReport(c *gin.Context) {
	resp, err := s.financeSvc.ProjectReport(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SnapshotProjectFinance(c *gin.Context) {
	resp, err := s.financeSvc.Snapshot(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListProjectFinanceSnapshots(c *gin.Context) {
	resp, err := s.financeSvc.ListSnapshots(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isFinanceValidationError(err error) bool {
	switch err {
	case financedomain.ErrInvalidOrganization,
		financedomain.ErrInvalidProject,
		financedomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
