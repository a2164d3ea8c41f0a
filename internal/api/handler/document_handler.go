package handler

import (
	"github.com/gin-gonic/gin"

	"acadef/backend/internal/dto"
	"acadef/backend/internal/service"
	"acadef/backend/pkg/response"
)

// DocumentHandler documents of a logged-in candidate or guardian
type DocumentHandler struct {
	docSvc     service.DocumentService
	signingSvc service.SigningService
}

// NewDocumentHandler creates a DocumentHandler
func NewDocumentHandler(docSvc service.DocumentService, signingSvc service.SigningService) *DocumentHandler {
	return &DocumentHandler{docSvc: docSvc, signingSvc: signingSvc}
}

// File GET /api/v1/documents/:id/file
func (h *DocumentHandler) File(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	file, err := h.docSvc.OpenDocument(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		writeSigningError(c, err)
		return
	}
	serveDocument(c, file)
}

// Sign signature by the logged-in party; the role comes from the session
// POST /api/v1/documents/:id/sign
func (h *DocumentHandler) Sign(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.SessionSignRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "Paramètres invalides")
		return
	}

	result, err := h.signingSvc.SignAsUser(c.Request.Context(), c.Param("id"), actor, &req)
	if err != nil {
		writeSigningError(c, err)
		return
	}
	response.OK(c, result)
}
