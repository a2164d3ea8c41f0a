package service

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"acadef/backend/internal/dto"
	"acadef/backend/internal/model"
	pkgerrors "acadef/backend/pkg/errors"
)

// newValidator reports field errors under their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStep1 returns the parsed date of birth.
func (s *registrationService) validateStep1(req *dto.Step1Request, isNew bool) (time.Time, error) {
	if err := s.validate.Struct(req); err != nil {
		return time.Time{}, pkgerrors.FromValidator(err)
	}

	if isNew && req.Password == "" {
		return time.Time{}, ErrPasswordRequired
	}
	if (req.Password != "" || req.PasswordConfirm != "") && req.Password != req.PasswordConfirm {
		return time.Time{}, ErrPasswordMismatch
	}

	dob, err := time.Parse(time.DateOnly, req.DateOfBirth)
	if err != nil {
		return time.Time{}, pkgerrors.NewValidationError("date_of_birth", "date invalide")
	}
	if !dob.Before(s.now()) {
		return time.Time{}, pkgerrors.NewValidationError("date_of_birth", "la date de naissance doit être dans le passé")
	}
	return dob, nil
}

// validateStep2 returns the parsed medical certificate date, if any.
func (s *registrationService) validateStep2(req *dto.Step2Request) (*time.Time, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, pkgerrors.FromValidator(err)
	}
	if !req.HasMedicalInfo || req.MedicalCertificateDate == "" {
		return nil, nil
	}
	d, err := time.Parse(time.DateOnly, req.MedicalCertificateDate)
	if err != nil {
		return nil, pkgerrors.NewValidationError("medical_certificate_date", "date invalide")
	}
	return &d, nil
}

func (s *registrationService) validateStep3(req *dto.Step3Request, candidateEmail string) error {
	if err := s.validate.Struct(req); err != nil {
		return pkgerrors.FromValidator(err)
	}

	ve := &pkgerrors.ValidationError{}
	if req.HasSecondGuardian {
		if strings.TrimSpace(req.Guardian2FirstName) == "" {
			ve.Add("guardian2_first_name", "champ obligatoire")
		}
		if strings.TrimSpace(req.Guardian2LastName) == "" {
			ve.Add("guardian2_last_name", "champ obligatoire")
		}
		if strings.TrimSpace(req.Guardian2Email) == "" {
			ve.Add("guardian2_email", "champ obligatoire")
		}
	}

	const sameEmail = "l'email du tuteur doit être différent de celui du candidat"
	if strings.EqualFold(strings.TrimSpace(req.Guardian1Email), strings.TrimSpace(candidateEmail)) {
		ve.Add("guardian1_email", sameEmail)
	}
	if req.HasSecondGuardian && strings.EqualFold(strings.TrimSpace(req.Guardian2Email), strings.TrimSpace(candidateEmail)) {
		ve.Add("guardian2_email", sameEmail)
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}

// validateStep4 checks every upload before anything is written.
func (s *registrationService) validateStep4(req *dto.Step4Request) (map[model.IdentityFileKind]dto.FileUpload, error) {
	return s.validateUploads(req.Uploads)
}

func (s *registrationService) validateStep5(req *dto.Step5Request) error {
	if !req.TermsAgreement {
		return ErrTermsNotAccepted
	}
	return nil
}

func (s *registrationService) validateUploads(uploads map[string]dto.FileUpload) (map[model.IdentityFileKind]dto.FileUpload, error) {
	known := make(map[string]model.IdentityFileKind, len(model.IdentityFileKinds))
	for _, k := range model.IdentityFileKinds {
		known[string(k)] = k
	}

	out := make(map[model.IdentityFileKind]dto.FileUpload, len(uploads))
	for field, up := range uploads {
		if up.Filename == "" || up.Open == nil {
			continue
		}
		kind, ok := known[field]
		if !ok {
			return nil, fmt.Errorf("%w: champ %q inconnu", ErrInvalidUpload, field)
		}
		if _, err := s.store.ValidateExtension(up.Filename); err != nil {
			return nil, fmt.Errorf("%w: %s (formats acceptés: %s)", ErrInvalidUpload, up.Filename,
				strings.Join(s.cfg.Storage.AllowedExtensions, ", "))
		}
		if limit := s.cfg.Storage.MaxUploadSize; limit > 0 && up.Size > limit {
			return nil, fmt.Errorf("%w: %s dépasse la taille maximale", ErrInvalidUpload, up.Filename)
		}
		out[kind] = up
	}
	return out, nil
}
