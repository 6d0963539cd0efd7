package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	timeentrydomain "github.com/atelierlab/devisio/internal/timeentry/domain"
)

func (s *Server) CreateTimeEntry(c *gin.Context) {
	var req timeentrydomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.timeEntrySvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateTimeEntry(c *gin.Context) {
	var req timeentrydomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.timeEntrySvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTimeEntryByID(c *gin.Context) {
	resp, err := s.timeEntrySvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTimeEntries(c *gin.Context) {
	var query timeentrydomain.ListRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.timeEntrySvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteTimeEntry(c *gin.Context) {
	if err := s.timeEntrySvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func isTimeEntryValidationError(err error) bool {
	switch err {
	case timeentrydomain.ErrInvalidOrganization,
		timeentrydomain.ErrInvalidProject,
		timeentrydomain.ErrInvalidID,
		timeentrydomain.ErrInvalidProfile,
		timeentrydomain.ErrInvalidHours,
		timeentrydomain.ErrInvalidDate,
		timeentrydomain.ErrInvalidDateRange:
		return true
	default:
		return false
	}
}
