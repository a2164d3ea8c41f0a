package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"acadef/backend/internal/dto"
	"acadef/backend/internal/service"
	pkgerrors "acadef/backend/pkg/errors"
	"acadef/backend/pkg/response"
)

// RegistrationHandler the five-step registration wizard
type RegistrationHandler struct {
	regSvc    service.RegistrationService
	periodSvc service.PeriodService
}

// NewRegistrationHandler creates a RegistrationHandler
func NewRegistrationHandler(regSvc service.RegistrationService, periodSvc service.PeriodService) *RegistrationHandler {
	return &RegistrationHandler{regSvc: regSvc, periodSvc: periodSvc}
}

// Window whether registrations are open today
// GET /api/v1/registration/period
func (h *RegistrationHandler) Window(c *gin.Context) {
	window, err := h.periodSvc.Window(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, window)
}

// StartStep empty step 1 for a new applicant
// GET /api/v1/registration/steps/1
func (h *RegistrationHandler) StartStep(c *gin.Context) {
	view, err := h.regSvc.GetStep(c.Request.Context(), nil, "", 1)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}
	response.OK(c, view)
}

// Start submits step 1 for a new applicant and creates the candidate account
// POST /api/v1/registration/steps/1
func (h *RegistrationHandler) Start(c *gin.Context) {
	var req dto.Step1Request
	if !bindForm(c, &req) {
		return
	}
	uploads, ok := collectUploads(c)
	if !ok {
		return
	}
	req.Uploads = uploads

	result, err := h.regSvc.SubmitStep1(c.Request.Context(), nil, "", &req)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}
	response.Created(c, result)
}

// GetStep persisted state of one step
// GET /api/v1/registration/candidates/:candidate_id/steps/:step
func (h *RegistrationHandler) GetStep(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	step, ok := parseStep(c)
	if !ok {
		return
	}

	view, err := h.regSvc.GetStep(c.Request.Context(), actor, c.Param("candidate_id"), step)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}
	response.OK(c, view)
}

// SubmitStep saves one step of an existing candidate
// POST /api/v1/registration/candidates/:candidate_id/steps/:step
func (h *RegistrationHandler) SubmitStep(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	step, ok := parseStep(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	candidateID := c.Param("candidate_id")

	var (
		result *dto.StepResult
		err    error
	)
	switch step {
	case 1:
		var req dto.Step1Request
		if !bindForm(c, &req) {
			return
		}
		if req.Uploads, ok = collectUploads(c); !ok {
			return
		}
		result, err = h.regSvc.SubmitStep1(ctx, actor, candidateID, &req)
	case 2:
		var req dto.Step2Request
		if !bindForm(c, &req) {
			return
		}
		result, err = h.regSvc.SubmitStep2(ctx, actor, candidateID, &req)
	case 3:
		var req dto.Step3Request
		if !bindForm(c, &req) {
			return
		}
		result, err = h.regSvc.SubmitStep3(ctx, actor, candidateID, &req)
	case 4:
		var req dto.Step4Request
		if req.Uploads, ok = collectUploads(c); !ok {
			return
		}
		result, err = h.regSvc.SubmitStep4(ctx, actor, candidateID, &req)
	case 5:
		var req dto.Step5Request
		if !bindForm(c, &req) {
			return
		}
		result, err = h.regSvc.SubmitStep5(ctx, actor, candidateID, &req)
	}
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}
	response.OK(c, result)
}

// LegacyRegister single-form registration
// POST /api/v1/registration/legacy
func (h *RegistrationHandler) LegacyRegister(c *gin.Context) {
	var req dto.LegacyRegisterRequest
	if !bindForm(c, &req) {
		return
	}
	uploads, ok := collectUploads(c)
	if !ok {
		return
	}
	req.Uploads = uploads

	result, err := h.regSvc.LegacyRegister(c.Request.Context(), &req)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}
	response.Created(c, result)
}

// ── helpers ──

func parseStep(c *gin.Context) (int, bool) {
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil || step < 1 || step > 5 {
		response.BadRequest(c, 12006, service.ErrInvalidStep.Error())
		return 0, false
	}
	return step, true
}

// bindForm decodes a JSON, urlencoded or multipart body. Field rules are
// checked by the service so every violation is reported at once.
func bindForm(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBind(req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "Requête trop volumineuse")
			return false
		}
		response.BadRequest(c, 10001, "Paramètres invalides")
		return false
	}
	return true
}

// collectUploads first file of every multipart file field, keyed by field name
func collectUploads(c *gin.Context) (map[string]dto.FileUpload, bool) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, true
	}

	form, err := c.MultipartForm()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "Requête trop volumineuse")
			return nil, false
		}
		response.BadRequest(c, 10001, "Formulaire invalide")
		return nil, false
	}

	uploads := make(map[string]dto.FileUpload, len(form.File))
	for field, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		uploads[field] = fileUpload(headers[0])
	}
	return uploads, true
}

func fileUpload(fh *multipart.FileHeader) dto.FileUpload {
	return dto.FileUpload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open:     func() (io.ReadCloser, error) { return fh.Open() },
	}
}

func (h *RegistrationHandler) handleRegistrationError(c *gin.Context, err error) {
	var ve *pkgerrors.ValidationError
	var missing *pkgerrors.MissingItemsError

	switch {
	case errors.As(err, &ve):
		response.Unprocessable(c, 12001, "Certains champs sont invalides", gin.H{"fields": ve.Fields})
	case errors.As(err, &missing):
		response.Unprocessable(c, 12002, "Le dossier est incomplet", gin.H{"missing_items": missing.Items})
	case errors.Is(err, service.ErrDuplicateEmail):
		response.Conflict(c, 12003, err.Error())
	case errors.Is(err, service.ErrCandidateNotFound):
		response.NotFound(c, 12004, err.Error())
	case errors.Is(err, service.ErrCandidateAccessDenied):
		response.Forbidden(c, 12005, err.Error())
	case errors.Is(err, service.ErrInvalidStep):
		response.BadRequest(c, 12006, err.Error())
	case errors.Is(err, service.ErrStepNotReached):
		response.Conflict(c, 12007, err.Error())
	case errors.Is(err, service.ErrRegistrationSubmitted):
		response.Conflict(c, 12008, err.Error())
	case errors.Is(err, service.ErrPasswordMismatch):
		response.Unprocessable(c, 12009, err.Error(), nil)
	case errors.Is(err, service.ErrPasswordRequired):
		response.Unprocessable(c, 12010, err.Error(), nil)
	case errors.Is(err, service.ErrTermsNotAccepted):
		response.Unprocessable(c, 12011, err.Error(), nil)
	case errors.Is(err, service.ErrInvalidUpload):
		response.BadRequest(c, 12012, err.Error())
	case errors.Is(err, service.ErrLegacyRegistrationDisabled):
		response.NotFound(c, 12013, err.Error())
	default:
		if !writePeriodClosed(c, err) {
			response.InternalError(c)
		}
	}
}
