package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/roster/internal/database"
	"github.com/jonesrussell/roster/internal/domain"
	"github.com/jonesrussell/roster/internal/infrastructure/logger"
	"github.com/jonesrussell/roster/internal/service"
)

// ContactService defines the contact operations needed by the handler.
type ContactService interface {
	List(ctx context.Context) ([]domain.ContactRecord, error)
	Search(ctx context.Context, name, location string) ([]domain.ContactRecord, error)
	Paginate(ctx context.Context, skip, limit *int) (service.Page, error)
	Get(ctx context.Context, id int64) (domain.ContactRecord, error)
	Create(ctx context.Context, in domain.ContactInput) (domain.ContactRecord, error)
	Update(ctx context.Context, id int64, fields map[string]any) (domain.ContactRecord, error)
	DeleteByName(ctx context.Context, name string) (int64, error)
	DeleteByID(ctx context.Context, id int64) error
	Positions(ctx context.Context) ([]database.PositionCount, error)
	Export(ctx context.Context, format service.ExportFormat, w io.Writer) error
}

// ContactHandler handles contact query and command requests.
type ContactHandler struct {
	svc ContactService
	log logger.Logger
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(svc ContactService, log logger.Logger) *ContactHandler {
	return &ContactHandler{svc: svc, log: log}
}

// List handles GET /api/v1/contacts.
func (h *ContactHandler) List(c *gin.Context) {
	contacts, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

// Search handles GET /api/v1/contacts/search?name=&location=.
func (h *ContactHandler) Search(c *gin.Context) {
	contacts, err := h.svc.Search(c.Request.Context(), c.Query("name"), c.Query("location"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

// Paginate handles GET /api/v1/contacts/paginated?skip=&limit=.
func (h *ContactHandler) Paginate(c *gin.Context) {
	skip, err := optionalInt(c, "skip")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	limit, err := optionalInt(c, "limit")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	page, err := h.svc.Paginate(c.Request.Context(), skip, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get handles GET /api/v1/contacts/:id.
func (h *ContactHandler) Get(c *gin.Context) {
	id, err := service.ParseID(c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	contact, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// Create handles POST /api/v1/contacts.
func (h *ContactHandler) Create(c *gin.Context) {
	var in domain.ContactInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Update handles PUT /api/v1/contacts/:id. Only the fields present in the body change.
func (h *ContactHandler) Update(c *gin.Context) {
	id, err := service.ParseID(c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var fields map[string]any
	if bindErr := c.ShouldBindJSON(&fields); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), id, fields)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteByID handles DELETE /api/v1/contacts/:id.
func (h *ContactHandler) DeleteByID(c *gin.Context) {
	id, err := service.ParseID(c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err = h.svc.DeleteByID(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "contact deleted", "id": id})
}

// DeleteByName handles DELETE /api/v1/contacts/by-name/:name.
func (h *ContactHandler) DeleteByName(c *gin.Context) {
	name := c.Param("name")

	removed, err := h.svc.DeleteByName(c.Request.Context(), name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "contacts deleted", "name": name, "deleted": removed})
}

// Positions handles GET /api/v1/contacts/positions.
func (h *ContactHandler) Positions(c *gin.Context) {
	counts, err := h.svc.Positions(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// Export handles GET /api/v1/contacts/export?format=csv|xlsx. The file is built in memory so a
// failure can still be reported with a proper status.
func (h *ContactHandler) Export(c *gin.Context) {
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var buf bytes.Buffer
	if err = h.svc.Export(c.Request.Context(), format, &buf); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func optionalInt(c *gin.Context, key string) (*int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil //nolint:nilnil // absent parameter takes the service default
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", service.ErrInvalidQuery, key)
	}
	return &v, nil
}
