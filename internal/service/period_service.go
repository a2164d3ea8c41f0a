package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"acadef/backend/internal/dto"
	"acadef/backend/internal/model"
	"acadef/backend/internal/repository"
)

var (
	ErrPeriodNotFound    = errors.New("période d'inscription introuvable")
	ErrPeriodDateInvalid = errors.New("la date de fin doit être postérieure à la date de début")
	ErrNoActivePeriod    = errors.New("aucune période d'inscription n'est actuellement active")
	ErrPeriodNotStarted  = errors.New("la période d'inscription n'a pas encore commencé")
	ErrPeriodEnded       = errors.New("la période d'inscription est terminée")
)

// PeriodService registration windows. At most one period is active.
type PeriodService interface {
	Create(ctx context.Context, req *dto.CreatePeriodRequest, callerID string) (*dto.PeriodResponse, error)
	GetByID(ctx context.Context, id string) (*dto.PeriodResponse, error)
	List(ctx context.Context) ([]dto.PeriodResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdatePeriodRequest, callerID string) (*dto.PeriodResponse, error)
	// Toggle flips is_active; activating a period deactivates every other one.
	Toggle(ctx context.Context, id string, callerID string) (*dto.PeriodResponse, error)
	Delete(ctx context.Context, id string) error
	// CheckOpen returns the active period when day falls inside it.
	CheckOpen(ctx context.Context, day time.Time) (*model.ApplicationPeriod, error)
	// ActivePromotionYear promotion year of the active period, nil without one.
	ActivePromotionYear(ctx context.Context) *int
	Window(ctx context.Context) (*dto.RegistrationWindowResponse, error)
}

type periodService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPeriodService creates a PeriodService
func NewPeriodService(repo *repository.Repository, logger *zap.Logger) PeriodService {
	return &periodService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *periodService) Create(ctx context.Context, req *dto.CreatePeriodRequest, callerID string) (*dto.PeriodResponse, error) {
	start, end, err := parsePeriodDates(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	period := &model.ApplicationPeriod{
		Name:          req.Name,
		StartDate:     start,
		EndDate:       end,
		PromotionYear: req.PromotionYear,
		IsActive:      req.IsActive,
		Description:   req.Description,
	}
	period.CreatedBy = &callerID
	period.UpdatedBy = &callerID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if period.IsActive {
			if err := tx.ApplicationPeriod.ClearActive(ctx, ""); err != nil {
				return err
			}
		}
		return tx.ApplicationPeriod.Create(ctx, period)
	})
	if err != nil {
		s.logger.Error("create period failed", zap.Error(err))
		return nil, err
	}

	return toPeriodResponse(period), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *periodService) GetByID(ctx context.Context, id string) (*dto.PeriodResponse, error) {
	period, err := s.get(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return toPeriodResponse(period), nil
}

func (s *periodService) List(ctx context.Context) ([]dto.PeriodResponse, error) {
	periods, err := s.repo.ApplicationPeriod.List(ctx)
	if err != nil {
		s.logger.Error("list periods failed", zap.Error(err))
		return nil, err
	}

	result := make([]dto.PeriodResponse, 0, len(periods))
	for i := range periods {
		result = append(result, *toPeriodResponse(&periods[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *periodService) Update(ctx context.Context, id string, req *dto.UpdatePeriodRequest, callerID string) (*dto.PeriodResponse, error) {
	period, err := s.get(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		period.Name = *req.Name
	}
	if req.StartDate != nil {
		start, err := time.Parse(time.DateOnly, *req.StartDate)
		if err != nil {
			return nil, ErrPeriodDateInvalid
		}
		period.StartDate = start
	}
	if req.EndDate != nil {
		end, err := time.Parse(time.DateOnly, *req.EndDate)
		if err != nil {
			return nil, ErrPeriodDateInvalid
		}
		period.EndDate = end
	}
	if !period.EndDate.After(period.StartDate) {
		return nil, ErrPeriodDateInvalid
	}
	if req.PromotionYear != nil {
		period.PromotionYear = *req.PromotionYear
	}
	if req.Description != nil {
		period.Description = *req.Description
	}
	if req.IsActive != nil {
		period.IsActive = *req.IsActive
	}
	period.UpdatedBy = &callerID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if period.IsActive {
			if err := tx.ApplicationPeriod.ClearActive(ctx, period.PeriodID); err != nil {
				return err
			}
		}
		return tx.ApplicationPeriod.Update(ctx, period)
	})
	if err != nil {
		s.logger.Error("update period failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toPeriodResponse(period), nil
}

// ────────────────────── Toggle ──────────────────────

// Toggle concurrent activations are serialized by the database only per row;
// two racing activations both commit and the last writer stays active.
func (s *periodService) Toggle(ctx context.Context, id string, callerID string) (*dto.PeriodResponse, error) {
	var period *model.ApplicationPeriod

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		p, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}

		p.IsActive = !p.IsActive
		p.UpdatedBy = &callerID
		if p.IsActive {
			if err := tx.ApplicationPeriod.ClearActive(ctx, p.PeriodID); err != nil {
				return err
			}
		}
		if err := tx.ApplicationPeriod.Update(ctx, p); err != nil {
			return err
		}
		period = p
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrPeriodNotFound) {
			s.logger.Error("toggle period failed", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("period toggled",
		zap.String("id", id),
		zap.Bool("is_active", period.IsActive),
		zap.String("by", callerID),
	)
	return toPeriodResponse(period), nil
}

// ────────────────────── Delete ──────────────────────

func (s *periodService) Delete(ctx context.Context, id string) error {
	if _, err := s.get(ctx, s.repo, id); err != nil {
		return err
	}
	if err := s.repo.ApplicationPeriod.Delete(ctx, id); err != nil {
		s.logger.Error("delete period failed", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Registration window ──────────────────────

func (s *periodService) CheckOpen(ctx context.Context, day time.Time) (*model.ApplicationPeriod, error) {
	period, err := s.repo.ApplicationPeriod.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActivePeriod
		}
		s.logger.Error("lookup active period failed", zap.Error(err))
		return nil, err
	}

	switch period.Window(day) {
	case -1:
		return period, fmt.Errorf("%w: ouverture le %s", ErrPeriodNotStarted, period.StartDate.Format("02/01/2006"))
	case 1:
		return period, fmt.Errorf("%w depuis le %s", ErrPeriodEnded, period.EndDate.Format("02/01/2006"))
	}
	return period, nil
}

func (s *periodService) ActivePromotionYear(ctx context.Context) *int {
	period, err := s.repo.ApplicationPeriod.GetActive(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("lookup active period failed", zap.Error(err))
		}
		return nil
	}
	year := period.PromotionYear
	return &year
}

func (s *periodService) Window(ctx context.Context) (*dto.RegistrationWindowResponse, error) {
	period, err := s.CheckOpen(ctx, time.Now())

	resp := &dto.RegistrationWindowResponse{Open: err == nil}
	if period != nil {
		resp.Period = toPeriodResponse(period)
	}

	switch {
	case err == nil:
	case errors.Is(err, ErrNoActivePeriod):
		resp.Reason, resp.Message = "no_active_period", err.Error()
	case errors.Is(err, ErrPeriodNotStarted):
		resp.Reason, resp.Message = "not_started", err.Error()
	case errors.Is(err, ErrPeriodEnded):
		resp.Reason, resp.Message = "ended", err.Error()
	default:
		return nil, err
	}
	return resp, nil
}

// ── helpers ──

func (s *periodService) get(ctx context.Context, repo *repository.Repository, id string) (*model.ApplicationPeriod, error) {
	period, err := repo.ApplicationPeriod.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPeriodNotFound
		}
		s.logger.Error("lookup period failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return period, nil
}

func parsePeriodDates(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.DateOnly, startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, ErrPeriodDateInvalid
	}
	end, err := time.Parse(time.DateOnly, endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, ErrPeriodDateInvalid
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, ErrPeriodDateInvalid
	}
	return start, end, nil
}

func toPeriodResponse(p *model.ApplicationPeriod) *dto.PeriodResponse {
	return &dto.PeriodResponse{
		ID:            p.PeriodID,
		Name:          p.Name,
		StartDate:     p.StartDate.Format(time.DateOnly),
		EndDate:       p.EndDate.Format(time.DateOnly),
		PromotionYear: p.PromotionYear,
		IsActive:      p.IsActive,
		Description:   p.Description,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.Format(time.RFC3339),
	}
}
