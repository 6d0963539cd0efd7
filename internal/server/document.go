package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	documentdomain "github.com/atelierlab/devisio/internal/document/domain"
)

func (s *Server) UploadProjectDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "invalid_file", "missing multipart file"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		AbortWithError(c, newValidationError("file", "invalid_file", "unreadable multipart file"))
		return
	}
	defer file.Close()

	resp, err := s.documentSvc.Upload(c.Request.Context(), documentdomain.UploadRequest{
		ProjectID:   strings.TrimSpace(c.Param("id")),
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     file,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListProjectDocuments(c *gin.Context) {
	resp, err := s.documentSvc.List(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DownloadDocument(c *gin.Context) {
	resp, content, err := s.documentSvc.Download(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer content.Close()

	c.DataFromReader(http.StatusOK, resp.SizeBytes, resp.ContentType, content, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", resp.FileName),
	})
}

func (s *Server) DeleteDocument(c *gin.Context) {
	if err := s.documentSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func isDocumentValidationError(err error) bool {
	switch err {
	case documentdomain.ErrInvalidOrganization,
		documentdomain.ErrInvalidProject,
		documentdomain.ErrInvalidID,
		documentdomain.ErrInvalidFileName,
		documentdomain.ErrEmptyContent:
		return true
	default:
		return false
	}
}
