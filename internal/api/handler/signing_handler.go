package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"acadef/backend/internal/dto"
	"acadef/backend/internal/service"
	"acadef/backend/pkg/response"
)

// SigningHandler public signing links sent by email
type SigningHandler struct {
	signingSvc service.SigningService
	docSvc     service.DocumentService
}

// NewSigningHandler creates a SigningHandler
func NewSigningHandler(signingSvc service.SigningService, docSvc service.DocumentService) *SigningHandler {
	return &SigningHandler{signingSvc: signingSvc, docSvc: docSvc}
}

// Show document and signature state behind a link. An expired link is still
// shown, flagged as expired.
// GET /api/v1/signing/:token
func (h *SigningHandler) Show(c *gin.Context) {
	view, err := h.signingSvc.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeSigningError(c, err)
		return
	}
	response.OK(c, view)
}

// File the PDF behind a link
// GET /api/v1/signing/:token/file
func (h *SigningHandler) File(c *gin.Context) {
	file, err := h.docSvc.OpenByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeSigningError(c, err)
		return
	}
	serveDocument(c, file)
}

// Sign records the signature of the candidate or a guardian
// POST /api/v1/signing/:token
func (h *SigningHandler) Sign(c *gin.Context) {
	var req dto.TokenSignRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "Paramètres invalides")
		return
	}

	result, err := h.signingSvc.SignWithToken(c.Request.Context(), c.Param("token"), &req)
	if err != nil {
		writeSigningError(c, err)
		return
	}
	response.OK(c, result)
}

// ── helpers ──

// serveDocument streams a PDF inline
func serveDocument(c *gin.Context, file *service.DocumentFile) {
	c.Header("Content-Disposition", "inline; filename*=UTF-8''"+url.PathEscape(file.Name))
	c.Header("Cache-Control", "private, no-store")
	if file.ContentType != "" {
		c.Header("Content-Type", file.ContentType)
	}
	c.File(file.Path)
}

func writeSigningError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSigningProcessNotFound):
		response.NotFound(c, 13001, err.Error())
	case errors.Is(err, service.ErrSigningLinkExpired):
		response.Gone(c, 13002, err.Error())
	case errors.Is(err, service.ErrInvalidSignerRole):
		response.BadRequest(c, 13003, err.Error())
	case errors.Is(err, service.ErrIncompleteSignature):
		response.Unprocessable(c, 13004, err.Error(), nil)
	case errors.Is(err, service.ErrSignerMismatch):
		response.Forbidden(c, 13005, err.Error())
	case errors.Is(err, service.ErrSignerNotAuthorized):
		response.Forbidden(c, 13006, err.Error())
	case errors.Is(err, service.ErrDocumentNotFound):
		response.NotFound(c, 15001, err.Error())
	case errors.Is(err, service.ErrDocumentFileMissing):
		response.NotFound(c, 15002, err.Error())
	case errors.Is(err, service.ErrDocumentAccessDenied):
		response.Forbidden(c, 15003, err.Error())
	case errors.Is(err, service.ErrApplicationNotFound), errors.Is(err, service.ErrCandidateNotFound):
		response.Error(c, http.StatusNotFound, 15004, err.Error())
	default:
		response.InternalError(c)
	}
}
