package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"invoice-api/internal/extract"
	"invoice-api/internal/shared/server/middleware"
	"invoice-api/internal/shared/server/respond"
	"invoice-api/internal/shared/telemetry"
)

const (
	defaultMaxUploadBytes = 10 << 20 // 10MB
	// multipartOverhead leaves room for form fields and part headers.
	multipartOverhead     = 1 << 20

	msgNoFile       = "No file uploaded"
	msgInvalidType  = "Invalid file type. Only JPEG, PNG, and PDF are allowed."
	msgNotFound     = "Invoice not found"
	msgProcessed    = "Document processed successfully"
	msgDeleted      = "Invoice deleted successfully"
	msgListFailed   = "Failed to fetch invoices"
	msgGetFailed    = "Failed to fetch invoice"
	msgDeleteFailed = "Failed to delete invoice"
)

var allowedMediaTypes = map[string]struct{}{
	extract.MediaJPEG: {},
	extract.MediaPNG:  {},
	extract.MediaPDF:  {},
}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
	validate       *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes, validate: validator.New()}
}

// RegisterRoutes attaches invoice routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/process", h.process)
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.DELETE("/:id", h.delete)
}

func (h *Handler) process(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+multipartOverhead)

	fileHeader, err := c.FormFile("invoice")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusBadRequest, h.tooLargeMessage())
			return
		}
		respond.Bare(c, http.StatusBadRequest, msgNoFile)
		return
	}
	if fileHeader.Size > h.MaxUploadBytes {
		respond.Error(c, http.StatusBadRequest, h.tooLargeMessage())
		return
	}

	mediaType := extract.NormalizeMediaType(fileHeader.Header.Get("Content-Type"))
	if _, ok := allowedMediaTypes[mediaType]; !ok {
		respond.Error(c, http.StatusBadRequest, msgInvalidType)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Bare(c, http.StatusBadRequest, msgNoFile)
		return
	}
	defer file.Close()

	ctx := context.WithoutCancel(c.Request.Context())
	inv, err := h.Svc.Process(ctx, ProcessInput{
		OwnerID:      ownerID,
		FileName:     fileHeader.Filename,
		MediaType:    mediaType,
		DocumentType: strings.TrimSpace(c.PostForm("documentType")),
		CustomFields: h.parseCustomFields(c, c.PostForm("customFields")),
		Body:         file,
	})
	if err != nil {
		var stepErr *StepError
		switch {
		case errors.As(err, &stepErr):
			respond.Error(c, http.StatusInternalServerError, stepErr.Message)
		case errors.Is(err, ErrInvalidInput):
			respond.Bare(c, http.StatusBadRequest, msgNoFile)
		default:
			respond.Error(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	c.Set("invoiceId", inv.ID)
	respond.OK(c, ProcessResponse{Success: true, Message: msgProcessed, Invoice: inv})
}

func (h *Handler) tooLargeMessage() string {
	return fmt.Sprintf("File too large. Maximum size is %dMB.", h.MaxUploadBytes>>20)
}

// parseCustomFields decodes the customFields form value. Malformed JSON is
// treated as no fields; entries missing a field name or description are dropped.
func (h *Handler) parseCustomFields(c *gin.Context, raw string) CustomFields {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		telemetry.FromContext(c.Request.Context()).WithError(err).Warn("invoices.custom_fields_invalid")
		return nil
	}

	var out CustomFields
	for _, entry := range entries {
		var f CustomField
		if err := json.Unmarshal(entry, &f); err != nil {
			continue
		}
		f.Field = strings.TrimSpace(f.Field)
		f.Description = strings.TrimSpace(f.Description)
		if err := h.validate.Struct(f); err != nil {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (h *Handler) list(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)

	q := ListQuery{Status: strings.TrimSpace(c.Query("status"))}
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			q.Limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			q.Offset = parsed
		}
	}

	items, total, applied, err := h.Svc.List(c.Request.Context(), ownerID, q)
	if err != nil {
		telemetry.FromContext(c.Request.Context()).WithError(err).Error("invoices.list_failed")
		respond.Error(c, http.StatusInternalServerError, msgListFailed)
		return
	}

	respond.OK(c, ListResponse{
		Success:  true,
		Invoices: items,
		Pagination: Pagination{
			Total:  total,
			Limit:  applied.Limit,
			Offset: applied.Offset,
		},
	})
}

func (h *Handler) get(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	id := c.Param("id")
	c.Set("invoiceId", id)

	inv, err := h.Svc.Get(c.Request.Context(), ownerID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, msgNotFound)
			return
		}
		telemetry.FromContext(c.Request.Context()).WithError(err).Error("invoices.get_failed")
		respond.Error(c, http.StatusInternalServerError, msgGetFailed)
		return
	}

	respond.OK(c, GetResponse{Success: true, Invoice: inv})
}

func (h *Handler) delete(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	id := c.Param("id")
	c.Set("invoiceId", id)

	if err := h.Svc.Delete(c.Request.Context(), ownerID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, msgNotFound)
			return
		}
		telemetry.FromContext(c.Request.Context()).WithError(err).Error("invoices.delete_failed")
		respond.Error(c, http.StatusInternalServerError, msgDeleteFailed)
		return
	}

	respond.OK(c, MessageResponse{Success: true, Message: msgDeleted})
}
