package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	messagedomain "github.com/atelierlab/devisio/internal/message/domain"
)

type postMessageRequest struct {
	Body string `json:"body"`
}

func (s *Server) PostProjectMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.messageSvc.Post(c.Request.Context(), messagedomain.PostRequest{
		ProjectID: strings.TrimSpace(c.Param("id")),
		Body:      req.Body,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListProjectMessages(c *gin.Context) {
	resp, err := s.messageSvc.List(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkMessageRead(c *gin.Context) {
	resp, err := s.messageSvc.MarkRead(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isMessageValidationError(err error) bool {
	switch err {
	case messagedomain.ErrInvalidOrganization,
		messagedomain.ErrInvalidProject,
		messagedomain.ErrInvalidID,
		messagedomain.ErrEmptyBody,
		messagedomain.ErrBodyTooLong:
		return true
	default:
		return false
	}
}
