package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"acadef/backend/internal/dto"
	"acadef/backend/internal/service"
	"acadef/backend/pkg/response"
)

// ReviewHandler admission review of submitted applications
type ReviewHandler struct {
	reviewSvc service.ReviewService
}

// NewReviewHandler creates a ReviewHandler
func NewReviewHandler(reviewSvc service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewSvc: reviewSvc}
}

// List GET /api/v1/admin/applications
func (h *ReviewHandler) List(c *gin.Context) {
	var req dto.ApplicationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "Paramètres invalides")
		return
	}

	list, total, err := h.reviewSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleReviewError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// PromotionYears distinct promotion years for the list filter
// GET /api/v1/admin/applications/promotion-years
func (h *ReviewHandler) PromotionYears(c *gin.Context) {
	years, err := h.reviewSvc.PromotionYears(c.Request.Context())
	if err != nil {
		h.handleReviewError(c, err)
		return
	}
	response.OK(c, years)
}

// Detail GET /api/v1/admin/applications/:id
func (h *ReviewHandler) Detail(c *gin.Context) {
	detail, err := h.reviewSvc.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleReviewError(c, err)
		return
	}
	response.OK(c, detail)
}

// Approve POST /api/v1/admin/applications/:id/approve
func (h *ReviewHandler) Approve(c *gin.Context) {
	h.decide(c, h.reviewSvc.Approve)
}

// Reject POST /api/v1/admin/applications/:id/reject
func (h *ReviewHandler) Reject(c *gin.Context) {
	h.decide(c, h.reviewSvc.Reject)
}

// Delete removes the application, and the candidate when delete_candidate is set
// DELETE /api/v1/admin/applications/:id
func (h *ReviewHandler) Delete(c *gin.Context) {
	var req dto.DeleteApplicationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "Paramètres invalides")
		return
	}

	result, err := h.reviewSvc.Delete(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleReviewError(c, err)
		return
	}
	response.OK(c, result)
}

// UpdatePromotion PUT /api/v1/admin/applications/:id/promotion
func (h *ReviewHandler) UpdatePromotion(c *gin.Context) {
	var req dto.UpdatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Paramètres invalides")
		return
	}

	if err := h.reviewSvc.UpdatePromotion(c.Request.Context(), c.Param("id"), &req); err != nil {
		h.handleReviewError(c, err)
		return
	}
	response.OK(c, nil)
}

// RegenerateDocuments POST /api/v1/admin/applications/:id/documents/regenerate
func (h *ReviewHandler) RegenerateDocuments(c *gin.Context) {
	docs, err := h.reviewSvc.RegenerateDocuments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleReviewError(c, err)
		return
	}
	response.OK(c, docs)
}

// ── helpers ──

type decisionFunc func(ctx context.Context, applicationID, reviewerID string, req *dto.ReviewDecisionRequest) (*dto.ReviewResult, error)

func (h *ReviewHandler) decide(c *gin.Context, fn decisionFunc) {
	reviewerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ReviewDecisionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "Paramètres invalides")
			return
		}
	}

	result, err := fn(c.Request.Context(), c.Param("id"), reviewerID, &req)
	if err != nil {
		h.handleReviewError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *ReviewHandler) handleReviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrApplicationNotFound):
		response.NotFound(c, 16001, err.Error())
	case errors.Is(err, service.ErrApplicationNotReviewable):
		response.Conflict(c, 16002, err.Error())
	case errors.Is(err, service.ErrInvalidPromotionYear):
		response.BadRequest(c, 16003, err.Error())
	case errors.Is(err, service.ErrCandidateNotFound):
		response.NotFound(c, 12004, err.Error())
	default:
		response.InternalError(c)
	}
}
