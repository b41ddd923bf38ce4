// Package store persists the medical-finance records. Implementations report
// facts via pkg/platform/sentinel; services translate those into domain errors.
package store

import (
	"context"

	"github.com/google/uuid"

	"seiwa/internal/finance/models"
	"seiwa/pkg/money"
)

// EventFilter narrows production/transfer queries. Nil fields mean "no
// constraint"; From and To are inclusive calendar-date bounds.
type EventFilter struct {
	DoctorID   *uuid.UUID
	HospitalID *uuid.UUID
	From       *models.Date
	To         *models.Date
}

// Matches reports whether an event with the given fields passes the filter.
func (f EventFilter) Matches(doctorID, hospitalID uuid.UUID, date models.Date) bool {
	if f.DoctorID != nil && *f.DoctorID != doctorID {
		return false
	}
	if f.HospitalID != nil && *f.HospitalID != hospitalID {
		return false
	}
	if f.From != nil && date.Before(*f.From) {
		return false
	}
	if f.To != nil && date.After(*f.To) {
		return false
	}
	return true
}

type DoctorStore interface {
	CreateDoctor(ctx context.Context, doctor *models.Doctor) error
	ListDoctors(ctx context.Context) ([]*models.Doctor, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*models.Doctor, error)
	UpdateDoctor(ctx context.Context, doctor *models.Doctor) error
	// DeleteDoctor cascades to the doctor's productions and transfers.
	DeleteDoctor(ctx context.Context, id uuid.UUID) error
}

type HospitalStore interface {
	CreateHospital(ctx context.Context, hospital *models.Hospital) error
	ListHospitals(ctx context.Context) ([]*models.Hospital, error)
	GetHospital(ctx context.Context, id uuid.UUID) (*models.Hospital, error)
	UpdateHospital(ctx context.Context, hospital *models.Hospital) error
	// DeleteHospital cascades to productions and transfers referencing it.
	DeleteHospital(ctx context.Context, id uuid.UUID) error
}

type ProductionStore interface {
	CreateProduction(ctx context.Context, production *models.Production) error
	ListProductions(ctx context.Context, filter EventFilter) ([]*models.Production, error)
	GetProduction(ctx context.Context, id uuid.UUID) (*models.Production, error)
	UpdateProduction(ctx context.Context, production *models.Production) error
	DeleteProduction(ctx context.Context, id uuid.UUID) error
	// SumProductions returns the exact-decimal sum of amounts over the
	// filtered subset, and exact zero when nothing matches.
	SumProductions(ctx context.Context, filter EventFilter) (money.Amount, error)
}

type TransferStore interface {
	CreateTransfer(ctx context.Context, transfer *models.Transfer) error
	ListTransfers(ctx context.Context, filter EventFilter) ([]*models.Transfer, error)
	GetTransfer(ctx context.Context, id uuid.UUID) (*models.Transfer, error)
	UpdateTransfer(ctx context.Context, transfer *models.Transfer) error
	DeleteTransfer(ctx context.Context, id uuid.UUID) error
	SumTransfers(ctx context.Context, filter EventFilter) (money.Amount, error)
}

// Store is the combined persistence surface the finance service depends on.
type Store interface {
	DoctorStore
	HospitalStore
	ProductionStore
	TransferStore
}
