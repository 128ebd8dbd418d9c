package handler

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcustody "github.com/notaria/backend/internal/application/custody"
	"github.com/notaria/backend/internal/domain/custody"
	"github.com/notaria/backend/internal/interfaces/http/dto"
	"github.com/notaria/backend/internal/interfaces/http/middleware"
)

// DocumentService is the use-case surface the HTTP layer calls
type DocumentService interface {
	RegisterDocument(ctx context.Context, actor custody.Actor, req appcustody.RegisterDocumentRequest) (*appcustody.DocumentResponse, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*appcustody.DocumentResponse, error)
	GetDocumentByTrackingCode(ctx context.Context, code string) (*appcustody.DocumentResponse, error)
	ListPayments(ctx context.Context, id uuid.UUID) ([]appcustody.PaymentEventResponse, error)
	ListAudit(ctx context.Context, id uuid.UUID) ([]appcustody.AuditRecordResponse, error)
	SetNotificationPreference(ctx context.Context, actor custody.Actor, id uuid.UUID, req appcustody.NotificationPreferenceRequest) (*appcustody.DocumentResponse, error)
	MarkReady(ctx context.Context, actor custody.Actor, id uuid.UUID) (*appcustody.MarkReadyResponse, error)
	Deliver(ctx context.Context, actor custody.Actor, id uuid.UUID, req appcustody.DeliverRequest) (*appcustody.DocumentResponse, error)
	Cancel(ctx context.Context, actor custody.Actor, id uuid.UUID, req appcustody.CancelRequest) (*appcustody.DocumentResponse, error)
	Eliminate(ctx context.Context, actor custody.Actor, id uuid.UUID, req appcustody.EliminateRequest) (*appcustody.DocumentResponse, error)
	RegisterPayment(ctx context.Context, actor custody.Actor, id uuid.UUID, req appcustody.RegisterPaymentRequest) (*appcustody.LedgerMutationResponse, error)
	PreviewRetention(ctx context.Context, actor custody.Actor, id uuid.UUID, xmlData []byte) (*appcustody.RetentionPreviewResponse, error)
	ApplyRetention(ctx context.Context, actor custody.Actor, id uuid.UUID, xmlData []byte) (*appcustody.LedgerMutationResponse, error)
	ReversePayment(ctx context.Context, actor custody.Actor, id, eventID uuid.UUID, req appcustody.ReversePaymentRequest) (*appcustody.LedgerMutationResponse, error)
}

var _ DocumentService = (*appcustody.DocumentService)(nil)

// DocumentHandler serves the document custody API
type DocumentHandler struct {
	BaseHandler
	service        DocumentService
	deliverLimiter *middleware.RateLimiter
}

// NewDocumentHandler creates a new DocumentHandler. A nil deliverLimiter
// leaves delivery attempts unlimited.
func NewDocumentHandler(service DocumentService, deliverLimiter *middleware.RateLimiter) *DocumentHandler {
	return &DocumentHandler{service: service, deliverLimiter: deliverLimiter}
}

// Register handles POST /documents
func (h *DocumentHandler) Register(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appcustody.RegisterDocumentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	doc, err := h.service.RegisterDocument(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// Get handles GET /documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetDocument(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// GetByTrackingCode handles GET /documents/tracking/:code
func (h *DocumentHandler) GetByTrackingCode(c *gin.Context) {
	var uri dto.TrackingCodeRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}

	doc, err := h.service.GetDocumentByTrackingCode(c.Request.Context(), uri.Code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// MarkReady handles POST /documents/:id/ready
func (h *DocumentHandler) MarkReady(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	resp, err := h.service.MarkReady(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Deliver handles POST /documents/:id/deliver
func (h *DocumentHandler) Deliver(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req appcustody.DeliverRequest
	if !h.bindJSON(c, &req) {
		return
	}

	doc, err := h.service.Deliver(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Cancel handles POST /documents/:id/cancel
func (h *DocumentHandler) Cancel(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req appcustody.CancelRequest
	if !h.bindJSON(c, &req) {
		return
	}

	doc, err := h.service.Cancel(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Eliminate handles POST /documents/:id/eliminate
func (h *DocumentHandler) Eliminate(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req appcustody.EliminateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	doc, err := h.service.Eliminate(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// SetNotificationPreference handles POST /documents/:id/notification-preference
func (h *DocumentHandler) SetNotificationPreference(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req appcustody.NotificationPreferenceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	doc, err := h.service.SetNotificationPreference(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// ListPayments handles GET /documents/:id/payments
func (h *DocumentHandler) ListPayments(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	events, err := h.service.ListPayments(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, events)
}

// RegisterPayment handles POST /documents/:id/payments
func (h *DocumentHandler) RegisterPayment(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req appcustody.RegisterPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.RegisterPayment(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ReversePayment handles POST /documents/:id/payments/:eventId/reverse
func (h *DocumentHandler) ReversePayment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var uri dto.PaymentEventRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}
	var req appcustody.ReversePaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.ReversePayment(c.Request.Context(), actor, uuid.MustParse(uri.ID), uuid.MustParse(uri.EventID), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// PreviewRetention handles POST /documents/:id/retentions/preview with the
// certificate XML as the raw body
func (h *DocumentHandler) PreviewRetention(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	xmlData, ok := h.readCertificate(c)
	if !ok {
		return
	}

	resp, err := h.service.PreviewRetention(c.Request.Context(), actor, id, xmlData)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ApplyRetention handles POST /documents/:id/retentions
func (h *DocumentHandler) ApplyRetention(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	xmlData, ok := h.readCertificate(c)
	if !ok {
		return
	}

	resp, err := h.service.ApplyRetention(c.Request.Context(), actor, id, xmlData)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListAudit handles GET /documents/:id/audit
func (h *DocumentHandler) ListAudit(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	trail, err := h.service.ListAudit(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, trail)
}

func (h *DocumentHandler) actorAndID(c *gin.Context) (custody.Actor, uuid.UUID, bool) {
	actor, ok := h.actor(c)
	if !ok {
		return custody.Actor{}, uuid.Nil, false
	}
	id, ok := h.documentID(c)
	if !ok {
		return custody.Actor{}, uuid.Nil, false
	}
	return actor, id, true
}

func (h *DocumentHandler) readCertificate(c *gin.Context) ([]byte, bool) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		middleware.HandleBindingError(c, err)
		return nil, false
	}
	if len(data) == 0 {
		h.BadRequest(c, "Certificate XML body is required")
		return nil, false
	}
	return data, true
}

// RegisterRoutes mounts the document routes on rg. Every route requires the
// actor headers; delivery attempts are rate limited per document and client.
func (h *DocumentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	docs := rg.Group("/documents", middleware.RequireActor(), middleware.SpanAttributes())

	docs.POST("", h.Register)
	docs.GET("/tracking/:code", h.GetByTrackingCode)
	docs.GET("/:id", h.Get)
	docs.POST("/:id/ready", h.MarkReady)
	deliver := []gin.HandlerFunc{h.Deliver}
	if h.deliverLimiter != nil {
		deliver = append([]gin.HandlerFunc{middleware.RateLimitByKey(h.deliverLimiter, middleware.DocumentClientKey)}, deliver...)
	}
	docs.POST("/:id/deliver", deliver...)
	docs.POST("/:id/cancel", h.Cancel)
	docs.POST("/:id/eliminate", h.Eliminate)
	docs.POST("/:id/notification-preference", h.SetNotificationPreference)
	docs.GET("/:id/payments", h.ListPayments)
	docs.POST("/:id/payments", h.RegisterPayment)
	docs.POST("/:id/payments/:eventId/reverse", h.ReversePayment)
	docs.POST("/:id/retentions", h.ApplyRetention)
	docs.POST("/:id/retentions/preview", h.PreviewRetention)
	docs.GET("/:id/audit", h.ListAudit)
}
