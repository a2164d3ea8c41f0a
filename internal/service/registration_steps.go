package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"acadef/backend/internal/dto"
	"acadef/backend/internal/model"
	"acadef/backend/internal/notify"
	"acadef/backend/internal/repository"
)

// ────────────────────── Step 1: personal information ──────────────────────

func (s *registrationService) SubmitStep1(ctx context.Context, actor *Actor, candidateID string, req *dto.Step1Request) (*dto.StepResult, error) {
	dob, err := s.validateStep1(req, candidateID == "")
	if err != nil {
		return nil, err
	}
	uploads, err := s.validateUploads(req.Uploads)
	if err != nil {
		return nil, err
	}

	if candidateID == "" {
		return s.createCandidate(ctx, req, dob, uploads)
	}

	cand, err := s.beginStep(ctx, actor, candidateID, 1)
	if err != nil {
		return nil, err
	}
	if err := s.checkEmailAvailable(ctx, req.Email, cand.UserID); err != nil {
		return nil, err
	}

	saved, err := s.saveUploads(cand.CandidateID, uploads)
	if err != nil {
		return nil, err
	}

	applyStep1(cand, req, dob)
	replaced := applyUploads(cand, saved)

	var transitioned bool
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Candidate.Update(ctx, cand); err != nil {
			return err
		}
		if cand.UserID != nil {
			if err := s.updateCandidateUser(ctx, tx, *cand.UserID, actor.UserID, cand.Email, req.Password); err != nil {
				return err
			}
		}
		transitioned, err = advance(ctx, tx, cand, 1)
		return err
	})
	if err != nil {
		s.removeIdentityFiles(saved)
		s.logger.Error("submit step 1 failed", zap.String("candidate_id", candidateID), zap.Error(err))
		return nil, err
	}
	s.removeIdentityFiles(replaced)

	if transitioned {
		s.stepCompleted(ctx, cand, 1)
	}
	return s.stepResult(cand, 1), nil
}

// createCandidate first submission of step 1: the account and the candidate
// are created together, only while registration is open.
func (s *registrationService) createCandidate(ctx context.Context, req *dto.Step1Request, dob time.Time, uploads map[model.IdentityFileKind]dto.FileUpload) (*dto.StepResult, error) {
	if _, err := s.period.CheckOpen(ctx, s.now()); err != nil {
		return nil, err
	}
	if err := s.checkEmailAvailable(ctx, req.Email, nil); err != nil {
		return nil, err
	}

	cand := &model.Candidate{CandidateID: uuid.NewString()}
	applyStep1(cand, req, dob)

	saved, err := s.saveUploads(cand.CandidateID, uploads)
	if err != nil {
		return nil, err
	}
	applyUploads(cand, saved)

	var user *model.User
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		u, err := s.createCandidateUser(ctx, tx, cand, req.Password)
		if err != nil {
			return err
		}
		user = u

		cand.UserID = &user.UserID
		cand.ApplicationStatus = model.StatusStep2
		return tx.Candidate.Create(ctx, cand)
	})
	if err != nil {
		s.removeIdentityFiles(saved)
		s.logger.Error("create candidate failed", zap.String("email", cand.Email), zap.Error(err))
		return nil, err
	}

	s.logger.Info("candidate registered",
		zap.String("candidate_id", cand.CandidateID),
		zap.String("username", user.Username),
	)
	s.metrics.IncRegistrationStarted()
	s.stepCompleted(ctx, cand, 1)

	result := s.stepResult(cand, 1)
	tokens, err := s.auth.IssueTokens(ctx, user, false)
	if err != nil {
		s.logger.Warn("issue tokens after registration failed", zap.Error(err))
	} else {
		result.Tokens = tokens
	}
	return result, nil
}

func (s *registrationService) createCandidateUser(ctx context.Context, tx *repository.Repository, cand *model.Candidate, password string) (*model.User, error) {
	username, err := generateUsername(ctx, tx.User, cand.FirstName, cand.LastName, s.cfg.Registration.UsernameMaxAttempts)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Email:        cand.Email,
		PasswordHash: hash,
		Role:         model.RoleCandidate,
		IsActive:     true,
	}
	if err := tx.User.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// updateCandidateUser syncs the login email and password; editorID is the
// acting user, the candidate or an admin.
func (s *registrationService) updateCandidateUser(ctx context.Context, tx *repository.Repository, userID, editorID, email, password string) error {
	user, err := tx.User.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.Email = email
	if password != "" {
		hash, err := hashPassword(password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
	}
	user.UpdatedBy = &editorID
	return tx.User.Update(ctx, user)
}

func applyStep1(c *model.Candidate, req *dto.Step1Request, dob time.Time) {
	trim := strings.TrimSpace
	c.FirstName = trim(req.FirstName)
	c.LastName = trim(req.LastName)
	c.DateOfBirth = dob
	c.Nationality = trim(req.Nationality)
	c.BirthPlace = trim(req.BirthPlace)
	c.BirthPlacePostalCode = trim(req.BirthPlacePostalCode)
	c.BirthPlaceCity = trim(req.BirthPlaceCity)
	c.Address = trim(req.Address)
	c.City = trim(req.City)
	c.PostalCode = trim(req.PostalCode)
	c.Phone = trim(req.Phone)
	c.MobilePhone = trim(req.MobilePhone)
	c.Email = strings.ToLower(trim(req.Email))
	c.School = trim(req.School)
	c.Grade = trim(req.Grade)
	c.FirstAidCertified = req.FirstAidCertified
	c.ImageRights = req.ImageRights
	c.AdditionalInfo = trim(req.AdditionalInfo)
}

// ────────────────────── Step 2: measurements and medical ──────────────────────

func (s *registrationService) SubmitStep2(ctx context.Context, actor *Actor, candidateID string, req *dto.Step2Request) (*dto.StepResult, error) {
	certDate, err := s.validateStep2(req)
	if err != nil {
		return nil, err
	}
	cand, err := s.beginStep(ctx, actor, candidateID, 2)
	if err != nil {
		return nil, err
	}

	var transitioned bool
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := saveStep2(ctx, tx, cand.CandidateID, req, certDate); err != nil {
			return err
		}
		transitioned, err = advance(ctx, tx, cand, 2)
		return err
	})
	if err != nil {
		s.logger.Error("submit step 2 failed", zap.String("candidate_id", candidateID), zap.Error(err))
		return nil, err
	}

	if transitioned {
		s.stepCompleted(ctx, cand, 2)
	}
	return s.stepResult(cand, 2), nil
}

// saveStep2 upserts the measurements and, when provided, the medical answers.
func saveStep2(ctx context.Context, tx *repository.Repository, candidateID string, req *dto.Step2Request, certDate *time.Time) error {
	m, err := tx.PhysicalMeasurements.GetByCandidate(ctx, candidateID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		m = &model.PhysicalMeasurements{CandidateID: candidateID}
	case err != nil:
		return err
	}
	m.Height = req.Height
	m.Weight = req.Weight
	m.HeadSize = req.HeadSize
	m.NeckSize = req.NeckSize
	m.ChestSize = req.ChestSize
	m.WaistSize = req.WaistSize
	m.BustHeight = req.BustHeight
	m.Inseam = req.Inseam
	m.ShoeSize = req.ShoeSize
	if err := tx.PhysicalMeasurements.Save(ctx, m); err != nil {
		return err
	}

	if !req.HasMedicalInfo {
		return nil
	}

	info, err := tx.MedicalInformation.GetByCandidate(ctx, candidateID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		info = &model.MedicalInformation{CandidateID: candidateID}
	case err != nil:
		return err
	}
	f := &req.MedicalFields
	info.MedicalCertificateDate = certDate
	info.DoctorName = strings.TrimSpace(f.DoctorName)
	info.SportAllowed = f.SportAllowed
	info.SportCompetitionAllowed = f.SportCompetitionAllowed
	info.CollectiveLivingAllowed = f.CollectiveLivingAllowed
	info.VaccinationsUpToDate = f.VaccinationsUpToDate
	info.FlightAllowed = f.FlightAllowed
	info.FamilyCardiacDeath = f.FamilyCardiacDeath
	info.ChestPain = f.ChestPain
	info.Asthma = f.Asthma
	info.Fainting = f.Fainting
	info.StoppedSportForHealth = f.StoppedSportForHealth
	info.LongTermTreatment = f.LongTermTreatment
	info.PainAfterInjury = f.PainAfterInjury
	info.SportInterruptedHealth = f.SportInterruptedHealth
	info.MedicalAdviceNeeded = f.MedicalAdviceNeeded
	info.AdditionalMedicalInfo = strings.TrimSpace(f.AdditionalMedicalInfo)
	return tx.MedicalInformation.Save(ctx, info)
}

// ────────────────────── Step 3: guardians ──────────────────────

func (s *registrationService) SubmitStep3(ctx context.Context, actor *Actor, candidateID string, req *dto.Step3Request) (*dto.StepResult, error) {
	cand, err := s.beginStep(ctx, actor, candidateID, 3)
	if err != nil {
		return nil, err
	}
	if err := s.validateStep3(req, cand.Email); err != nil {
		return nil, err
	}

	applyEmergencyContact(cand, req)

	var (
		accounts     []guardianAccount
		transitioned bool
	)
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		accounts, err = s.replaceGuardians(ctx, tx, cand, guardiansFromRequest(req))
		if err != nil {
			return err
		}
		if err := tx.Candidate.Update(ctx, cand); err != nil {
			return err
		}
		transitioned, err = advance(ctx, tx, cand, 3)
		return err
	})
	if err != nil {
		s.logger.Error("submit step 3 failed", zap.String("candidate_id", candidateID), zap.Error(err))
		return nil, err
	}

	s.sendGuardianAccounts(ctx, cand, accounts)
	if transitioned {
		s.stepCompleted(ctx, cand, 3)
	}
	return s.stepResult(cand, 3), nil
}

func applyEmergencyContact(c *model.Candidate, req *dto.Step3Request) {
	c.EmergencyContactFirstName = strings.TrimSpace(req.EmergencyContactFirstName)
	c.EmergencyContactLastName = strings.TrimSpace(req.EmergencyContactLastName)
	c.EmergencyContactName = strings.TrimSpace(c.EmergencyContactFirstName + " " + c.EmergencyContactLastName)
	c.EmergencyContactPhone = strings.TrimSpace(req.EmergencyContactPhone)
}

// ────────────────────── Step 4: documents ──────────────────────

func (s *registrationService) SubmitStep4(ctx context.Context, actor *Actor, candidateID string, req *dto.Step4Request) (*dto.StepResult, error) {
	cand, err := s.beginStep(ctx, actor, candidateID, 4)
	if err != nil {
		return nil, err
	}
	uploads, err := s.validateStep4(req)
	if err != nil {
		return nil, err
	}

	app, err := s.ensureApplication(ctx, cand)
	if err != nil {
		return nil, err
	}
	if _, err := s.docs.EnsureSignableDocuments(ctx, cand, app); err != nil {
		return nil, err
	}
	if err := s.docs.VerifyDocumentFiles(ctx, cand, app); err != nil {
		return nil, err
	}
	docs, err := s.repo.Document.ListByApplication(ctx, app.ApplicationID)
	if err != nil {
		return nil, err
	}
	if err := missingError(missingItems(cand, docs, uploads)); err != nil {
		return nil, err
	}

	saved, err := s.saveUploads(cand.CandidateID, uploads)
	if err != nil {
		return nil, err
	}
	replaced := applyUploads(cand, saved)

	var transitioned bool
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if len(saved) > 0 {
			if err := tx.Candidate.Update(ctx, cand); err != nil {
				return err
			}
		}
		transitioned, err = advance(ctx, tx, cand, 4)
		return err
	})
	if err != nil {
		s.removeIdentityFiles(saved)
		s.logger.Error("submit step 4 failed", zap.String("candidate_id", candidateID), zap.Error(err))
		return nil, err
	}
	s.removeIdentityFiles(replaced)

	if transitioned {
		s.stepCompleted(ctx, cand, 4)
	}
	return s.stepResult(cand, 4), nil
}

// ────────────────────── Step 5: finalize ──────────────────────

func (s *registrationService) SubmitStep5(ctx context.Context, actor *Actor, candidateID string, req *dto.Step5Request) (*dto.StepResult, error) {
	cand, err := s.beginStep(ctx, actor, candidateID, 5)
	if err != nil {
		return nil, err
	}
	if err := s.validateStep5(req); err != nil {
		return nil, err
	}

	app, err := s.ensureApplication(ctx, cand)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.Document.ListByApplication(ctx, app.ApplicationID)
	if err != nil {
		return nil, err
	}
	if err := missingError(missingItems(cand, docs, nil)); err != nil {
		return nil, err
	}

	in := SummaryInput{Candidate: cand, GeneratedAt: s.now()}
	if in.Guardians, err = s.repo.Guardian.ListByCandidate(ctx, cand.CandidateID); err != nil {
		return nil, err
	}
	if in.Medical, err = s.medical(ctx, cand.CandidateID); err != nil {
		return nil, err
	}
	if in.Measurements, err = s.measurements(ctx, cand.CandidateID); err != nil {
		return nil, err
	}

	summary, err := s.docs.PrepareSummary(ctx, in, app)
	if err != nil {
		return nil, err
	}

	submittedAt := s.now()
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		app.Status = model.ApplicationPending
		app.ApplicationDate = submittedAt
		app.SubmittedAt = &submittedAt
		if err := tx.Application.Update(ctx, app); err != nil {
			return err
		}
		if err := tx.Candidate.UpdateStatus(ctx, cand.CandidateID, model.StatusPending); err != nil {
			return err
		}
		return tx.Document.Create(ctx, summary)
	})
	if err != nil {
		_ = s.store.Remove(summary.FilePath)
		s.logger.Error("finalize registration failed", zap.String("candidate_id", candidateID), zap.Error(err))
		return nil, err
	}
	cand.ApplicationStatus = model.StatusPending

	s.logger.Info("registration submitted",
		zap.String("candidate_id", cand.CandidateID),
		zap.String("application_id", app.ApplicationID),
	)
	s.metrics.IncStepCompleted("5")

	data := map[string]any{
		"FirstName": cand.FirstName,
		"LastName":  cand.LastName,
		"Email":     cand.Email,
		"URL":       s.baseURL() + "/admin/applications/" + app.ApplicationID,
	}
	s.notifier.Send(ctx, notify.KindAllStepsCompleted, []string{cand.Email}, data)
	if admins := s.adminRecipients(ctx); len(admins) > 0 {
		s.notifier.Send(ctx, notify.KindAdminNewApplication, admins, data)
	}

	return s.stepResult(cand, 5), nil
}

// ────────────────────── Legacy single-form registration ──────────────────────

func (s *registrationService) LegacyRegister(ctx context.Context, req *dto.LegacyRegisterRequest) (*dto.LegacyRegisterResult, error) {
	if !s.cfg.Feature.LegacyRegisterEnabled {
		return nil, ErrLegacyRegistrationDisabled
	}

	dob, err := s.validateStep1(&req.Step1Request, true)
	if err != nil {
		return nil, err
	}
	certDate, err := s.validateStep2(&req.Step2Request)
	if err != nil {
		return nil, err
	}
	if err := s.validateStep3(&req.Step3Request, req.Email); err != nil {
		return nil, err
	}
	uploads, err := s.validateUploads(req.Uploads)
	if err != nil {
		return nil, err
	}

	period, err := s.period.CheckOpen(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.checkEmailAvailable(ctx, req.Email, nil); err != nil {
		return nil, err
	}

	cand := &model.Candidate{CandidateID: uuid.NewString()}
	applyStep1(cand, &req.Step1Request, dob)
	applyEmergencyContact(cand, &req.Step3Request)

	saved, err := s.saveUploads(cand.CandidateID, uploads)
	if err != nil {
		return nil, err
	}
	applyUploads(cand, saved)

	now := s.now()
	promotion := period.PromotionYear
	app := &model.Application{
		Status:          model.ApplicationPending,
		PromotionYear:   &promotion,
		ApplicationDate: now,
		SubmittedAt:     &now,
	}

	var (
		user     *model.User
		accounts []guardianAccount
	)
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		u, err := s.createCandidateUser(ctx, tx, cand, req.Password)
		if err != nil {
			return err
		}
		user = u

		cand.UserID = &user.UserID
		cand.ApplicationStatus = model.StatusPending
		if err := tx.Candidate.Create(ctx, cand); err != nil {
			return err
		}
		if err := saveStep2(ctx, tx, cand.CandidateID, &req.Step2Request, certDate); err != nil {
			return err
		}
		if accounts, err = s.replaceGuardians(ctx, tx, cand, guardiansFromRequest(&req.Step3Request)); err != nil {
			return err
		}

		app.CandidateID = cand.CandidateID
		return tx.Application.Create(ctx, app)
	})
	if err != nil {
		s.removeIdentityFiles(saved)
		s.logger.Error("legacy registration failed", zap.String("email", cand.Email), zap.Error(err))
		return nil, err
	}

	s.metrics.IncRegistrationStarted()
	s.sendGuardianAccounts(ctx, cand, accounts)

	result := &dto.LegacyRegisterResult{
		CandidateID:   cand.CandidateID,
		ApplicationID: app.ApplicationID,
	}

	doc, sp, err := s.docs.CreateLegacyDossier(ctx, cand, app)
	if err != nil {
		s.logger.Error("create registration dossier failed", zap.String("candidate_id", cand.CandidateID), zap.Error(err))
	} else {
		result.Document = toDocumentView(doc, sp)
		s.notifier.Send(ctx, notify.KindLegacyRegistration, []string{cand.Email}, map[string]any{
			"FirstName":     cand.FirstName,
			"LastName":      cand.LastName,
			"DocumentTitle": model.DocumentTitle(doc.DocumentType),
			"URL":           s.baseURL() + "/signing/" + sp.SigningToken,
			"ExpiresOn":     formatDate(sp.ExpiryDate),
		})
	}

	if tokens, err := s.auth.IssueTokens(ctx, user, false); err != nil {
		s.logger.Warn("issue tokens after registration failed", zap.Error(err))
	} else {
		result.Tokens = tokens
	}

	s.logger.Info("legacy registration done", zap.String("candidate_id", cand.CandidateID))
	return result, nil
}
