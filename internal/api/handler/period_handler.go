package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"acadef/backend/internal/dto"
	"acadef/backend/internal/service"
	"acadef/backend/pkg/response"
)

// PeriodHandler application period administration
type PeriodHandler struct {
	periodSvc service.PeriodService
}

// NewPeriodHandler creates a PeriodHandler
func NewPeriodHandler(periodSvc service.PeriodService) *PeriodHandler {
	return &PeriodHandler{periodSvc: periodSvc}
}

// List GET /api/v1/admin/periods
func (h *PeriodHandler) List(c *gin.Context) {
	periods, err := h.periodSvc.List(c.Request.Context())
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}
	response.OK(c, periods)
}

// Get GET /api/v1/admin/periods/:id
func (h *PeriodHandler) Get(c *gin.Context) {
	period, err := h.periodSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}
	response.OK(c, period)
}

// Create POST /api/v1/admin/periods
func (h *PeriodHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Paramètres invalides")
		return
	}

	period, err := h.periodSvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}
	response.Created(c, period)
}

// Update PUT /api/v1/admin/periods/:id
func (h *PeriodHandler) Update(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Paramètres invalides")
		return
	}

	period, err := h.periodSvc.Update(c.Request.Context(), c.Param("id"), &req, userID)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}
	response.OK(c, period)
}

// Toggle flips is_active; activating a period deactivates the others
// PUT /api/v1/admin/periods/:id/toggle
func (h *PeriodHandler) Toggle(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	period, err := h.periodSvc.Toggle(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}
	response.OK(c, period)
}

// Delete DELETE /api/v1/admin/periods/:id
func (h *PeriodHandler) Delete(c *gin.Context) {
	if err := h.periodSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handlePeriodError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *PeriodHandler) handlePeriodError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPeriodNotFound):
		response.NotFound(c, 14001, err.Error())
	case errors.Is(err, service.ErrPeriodDateInvalid):
		response.BadRequest(c, 14002, err.Error())
	default:
		response.InternalError(c)
	}
}

// writePeriodClosed maps the registration window errors; it reports whether
// err was one of them.
func writePeriodClosed(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrNoActivePeriod):
		response.Error(c, http.StatusForbidden, 14003, err.Error())
	case errors.Is(err, service.ErrPeriodNotStarted):
		response.Error(c, http.StatusForbidden, 14004, err.Error())
	case errors.Is(err, service.ErrPeriodEnded):
		response.Error(c, http.StatusForbidden, 14005, err.Error())
	default:
		return false
	}
	return true
}
