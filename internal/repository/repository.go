package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregates every repository over one connection or transaction.
type Repository struct {
	db *gorm.DB

	User                 UserRepository
	Candidate            CandidateRepository
	Guardian             GuardianRepository
	Application          ApplicationRepository
	Document             DocumentRepository
	SigningProcess       SigningProcessRepository
	ApplicationPeriod    ApplicationPeriodRepository
	MedicalInformation   MedicalInformationRepository
	PhysicalMeasurements PhysicalMeasurementsRepository
}

// NewRepository creates the aggregate bound to db
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:                   db,
		User:                 NewUserRepo(db),
		Candidate:            NewCandidateRepo(db),
		Guardian:             NewGuardianRepo(db),
		Application:          NewApplicationRepo(db),
		Document:             NewDocumentRepo(db),
		SigningProcess:       NewSigningProcessRepo(db),
		ApplicationPeriod:    NewApplicationPeriodRepo(db),
		MedicalInformation:   NewMedicalInformationRepo(db),
		PhysicalMeasurements: NewPhysicalMeasurementsRepo(db),
	}
}

// BeginTx starts a transaction. Returns nil when the aggregate has no
// database (unit tests with mock repositories).
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx returns an aggregate bound to tx; a nil tx returns r itself.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Transaction runs fn inside a transaction, committing when fn returns nil
// and rolling back on error or panic.
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) (err error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(p)
		}
	}()

	if err := fn(r.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		return tx.Commit().Error
	}
	return nil
}
