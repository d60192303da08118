package api

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/navarrastar/portfolio/pkg/logger"
	"github.com/navarrastar/portfolio/pkg/models"
	"github.com/navarrastar/portfolio/pkg/services"
	"github.com/navarrastar/portfolio/pkg/site"
)

// maxBodyBytes caps contact form bodies.
const maxBodyBytes = 64 << 10

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	contactService services.ContactService
	content        *site.Content
	resumePath     string
	resumeFilename string
	lggr           logger.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	contactService services.ContactService,
	content *site.Content,
	resumePath, resumeFilename string,
	lggr logger.Logger,
) *Handlers {
	return &Handlers{
		contactService: contactService,
		content:        content,
		resumePath:     resumePath,
		resumeFilename: resumeFilename,
		lggr:           lggr.Named("API"),
	}
}

// RegisterRoutes mounts every route on r.
func (h *Handlers) RegisterRoutes(r *gin.Engine) {
	r.HandleMethodNotAllowed = true
	r.NoMethod(h.MethodNotAllowed)

	r.GET("/", h.Index)
	r.GET("/health", h.HealthCheck)

	apiGroup := r.Group("/api")
	apiGroup.POST("/contact", h.HandleContact)
	apiGroup.GET("/contacts", h.ListContacts)
	apiGroup.GET("/download-resume", h.DownloadResume)
	apiGroup.GET("/profile", h.Profile)
}

// HealthCheck handler for monitoring
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func (h *Handlers) MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{"message": "Method not allowed"})
}

// HandleContact processes submissions from the portfolio contact form
func (h *Handlers) HandleContact(c *gin.Context) {
	var form models.ContactFormData

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		h.lggr.Warnw("Error reading request body", "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid contact data"})
		return
	}

	if err := json.Unmarshal(body, &form); err != nil {
		h.lggr.Debugw("Error parsing contact JSON", "bytes", len(body), "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid contact data"})
		return
	}

	out, err := h.contactService.Submit(c.Request.Context(), form, services.RequestMeta{ClientIP: ClientIP(c)})
	if err != nil {
		h.lggr.Errorw("Contact form error", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": services.MsgInternalError})
		return
	}

	if out.Response.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(out.Response.RetryAfter))
	}
	c.JSON(out.Status, out.Response)
}

// ListContacts returns every stored submission, newest first
func (h *Handlers) ListContacts(c *gin.Context) {
	contacts, err := h.contactService.ListContacts(c.Request.Context())
	if err != nil {
		h.lggr.Errorw("Error listing contacts", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch contacts"})
		return
	}

	c.JSON(http.StatusOK, contacts)
}

// DownloadResume sends the PDF resume, or the plain text one when no PDF is
// deployed.
func (h *Handlers) DownloadResume(c *gin.Context) {
	info, err := os.Stat(h.resumePath)
	if err == nil && !info.IsDir() {
		c.Header("Content-Type", "application/pdf")
		c.FileAttachment(h.resumePath, h.resumeFilename)
		return
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		h.lggr.Warnw("Error reading resume file", "path", h.resumePath, "err", err)
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": h.content.ResumeFilename()}))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(strings.TrimSpace(h.content.Resume)))
}

// Index renders the portfolio page
func (h *Handlers) Index(c *gin.Context) {
	page, err := h.content.RenderIndex()
	if err != nil {
		h.lggr.Errorw("Error rendering index", "err", err)
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// Profile returns the portfolio content as JSON
func (h *Handlers) Profile(c *gin.Context) {
	c.JSON(http.StatusOK, h.content)
}

// ClientIP returns the visitor address. Forwarding headers count only when
// the connection comes from a trusted proxy (server.trusted_proxies).
func ClientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}

	return "unknown"
}
