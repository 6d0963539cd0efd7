package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) ExportQuotePDF(c *gin.Context) {
	file, err := s.exportSvc.QuotePDF(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.serveExport(c, file.Name, file.ContentType, file.Content)
}

func (s *Server) ExportFinanceWorkbook(c *gin.Context) {
	file, err := s.exportSvc.FinanceWorkbook(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.serveExport(c, file.Name, file.ContentType, file.Content)
}

func (s *Server) serveExport(c *gin.Context, name, contentType string, content io.Reader) {
	data, err := io.ReadAll(content)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, data)
}
