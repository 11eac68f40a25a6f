// internal/adapters/httpapi/handlers.go
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"domscout/internal/core/domain"
	"domscout/internal/platform/errors"
)

// TargetRequest es el cuerpo de POST /api/target y POST /api/scan.
type TargetRequest struct {
	Domain    string `json:"domain" binding:"required"`
	RateLimit int    `json:"rate_limit,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{}
	for name, check := range s.opts.Checks {
		if err := check(c.Request.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status":    state,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) bindTarget(c *gin.Context) (TargetRequest, bool) {
	var req TargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Domain is required"})
		return req, false
	}
	return req, true
}

func (s *Server) createTarget(c *gin.Context) {
	req, ok := s.bindTarget(c)
	if !ok {
		return
	}
	scan, err := s.opts.Scans.CreateTarget(c.Request.Context(), req.Domain, req.RateLimit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scan_id": scan.ID, "status": "created"})
}

func (s *Server) startScan(c *gin.Context) {
	req, ok := s.bindTarget(c)
	if !ok {
		return
	}
	scan, err := s.opts.Scans.StartScan(c.Request.Context(), req.Domain, req.RateLimit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scan_id": scan.ID, "status": "started"})
}

func (s *Server) autoScan(c *gin.Context) {
	if err := s.opts.Scans.AutoScan(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "started"})
}

func (s *Server) runTool(c *gin.Context) {
	tool := c.Param("tool")
	if err := s.opts.Scans.RunTool(c.Request.Context(), c.Param("id"), tool); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tool": tool, "status": "started"})
}

func (s *Server) scanInfo(c *gin.Context) {
	info, err := s.opts.Scans.Info(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"scan":     info.Scan,
		"stats":    info.Stats,
		"progress": info.Progress.Percent,
		"message":  info.Progress.Message,
		"phase":    info.Progress.Phase,
		"step":     info.Progress.Step,
		"total":    info.Progress.Total,
	})
}

func (s *Server) listScans(c *gin.Context) {
	scans, err := s.opts.Scans.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scans": scans})
}

func (s *Server) toolStatus(c *gin.Context) {
	tools, err := s.opts.Scans.ToolStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tools": tools})
}

func (s *Server) toolResults(c *gin.Context) {
	tool := c.Param("tool")
	results, err := s.opts.Scans.ToolResults(c.Request.Context(), c.Param("id"), tool)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tool": tool, "results": results})
}

func (s *Server) subdomains(c *gin.Context) {
	subs, err := s.opts.Scans.Subdomains(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subdomains": subs})
}

func (s *Server) urls(c *gin.Context) {
	urls, err := s.opts.Scans.URLs(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"urls": urls})
}

func (s *Server) screenshots(c *gin.Context) {
	shots, err := s.opts.Scans.Screenshots(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"screenshots": shots})
}

func (s *Server) deleteScan(c *gin.Context) {
	if err := s.opts.Scans.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Scan deleted"})
}

// fail traduce errores de dominio a códigos HTTP.
func (s *Server) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Err(err, "method", c.Request.Method, "path", c.Request.URL.Path)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusFor mapea un error al código HTTP de la respuesta.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrScanNotFound), errors.Is(err, domain.ErrScanDeleted):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyTarget), errors.Is(err, domain.ErrInvalidDomain),
		errors.Is(err, domain.ErrInvalidRate), errors.Is(err, domain.ErrUnknownTool):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrScanAlreadyRunning), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMissingResolvers), errors.Is(err, errors.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
