// Package service holds the finance domain logic: resource lifecycle with
// uniqueness and referential validation, and the per-doctor financial summary.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"seiwa/internal/finance/models"
	"seiwa/internal/finance/store"
	"seiwa/internal/platform/metrics"
	dErrors "seiwa/pkg/domain-errors"
	"seiwa/pkg/money"
	"seiwa/pkg/platform/sentinel"
)

// Service orchestrates finance operations against the store.
type Service struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(st store.Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   st,
		logger:  logger,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Doctors

func (s *Service) CreateDoctor(ctx context.Context, req *models.CreateDoctorRequest) (*models.Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	doctor := &models.Doctor{
		ID:        uuid.New(),
		Name:      req.Name,
		CRM:       req.CRM,
		Specialty: req.Specialty,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateDoctor(ctx, doctor); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "crm is already registered")
		}
		return nil, s.internal(ctx, "create doctor", err)
	}
	return doctor, nil
}

func (s *Service) ListDoctors(ctx context.Context) ([]*models.Doctor, error) {
	doctors, err := s.store.ListDoctors(ctx)
	if err != nil {
		return nil, s.internal(ctx, "list doctors", err)
	}
	return doctors, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*models.Doctor, error) {
	doctor, err := s.store.GetDoctor(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "doctor not found")
		}
		return nil, s.internal(ctx, "get doctor", err)
	}
	return doctor, nil
}

// ReplaceDoctor overwrites every mutable field of an existing doctor.
func (s *Service) ReplaceDoctor(ctx context.Context, id uuid.UUID, req *models.CreateDoctorRequest) (*models.Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	doctor, err := s.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	doctor.Name = req.Name
	doctor.CRM = req.CRM
	doctor.Specialty = req.Specialty
	return s.saveDoctor(ctx, doctor)
}

// PatchDoctor applies only the fields present in the request.
func (s *Service) PatchDoctor(ctx context.Context, id uuid.UUID, req *models.UpdateDoctorRequest) (*models.Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	doctor, err := s.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		doctor.Name = *req.Name
	}
	if req.CRM != nil {
		doctor.CRM = *req.CRM
	}
	if req.Specialty != nil {
		doctor.Specialty = *req.Specialty
	}
	return s.saveDoctor(ctx, doctor)
}

func (s *Service) saveDoctor(ctx context.Context, doctor *models.Doctor) (*models.Doctor, error) {
	if err := s.store.UpdateDoctor(ctx, doctor); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeBadRequest, "crm is already registered")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "doctor not found")
		}
		return nil, s.internal(ctx, "update doctor", err)
	}
	return doctor, nil
}

// DeleteDoctor removes the doctor and, by cascade, its productions and transfers.
func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteDoctor(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "doctor not found")
		}
		return s.internal(ctx, "delete doctor", err)
	}
	return nil
}

// Hospitals

func (s *Service) CreateHospital(ctx context.Context, req *models.CreateHospitalRequest) (*models.Hospital, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	hospital := &models.Hospital{
		ID:        uuid.New(),
		Name:      req.Name,
		Code:      req.Code,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateHospital(ctx, hospital); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "code is already registered")
		}
		return nil, s.internal(ctx, "create hospital", err)
	}
	return hospital, nil
}

func (s *Service) ListHospitals(ctx context.Context) ([]*models.Hospital, error) {
	hospitals, err := s.store.ListHospitals(ctx)
	if err != nil {
		return nil, s.internal(ctx, "list hospitals", err)
	}
	return hospitals, nil
}

func (s *Service) GetHospital(ctx context.Context, id uuid.UUID) (*models.Hospital, error) {
	hospital, err := s.store.GetHospital(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "hospital not found")
		}
		return nil, s.internal(ctx, "get hospital", err)
	}
	return hospital, nil
}

func (s *Service) ReplaceHospital(ctx context.Context, id uuid.UUID, req *models.CreateHospitalRequest) (*models.Hospital, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	hospital, err := s.GetHospital(ctx, id)
	if err != nil {
		return nil, err
	}
	hospital.Name = req.Name
	hospital.Code = req.Code
	return s.saveHospital(ctx, hospital)
}

func (s *Service) PatchHospital(ctx context.Context, id uuid.UUID, req *models.UpdateHospitalRequest) (*models.Hospital, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	hospital, err := s.GetHospital(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		hospital.Name = *req.Name
	}
	if req.Code != nil {
		hospital.Code = *req.Code
	}
	return s.saveHospital(ctx, hospital)
}

func (s *Service) saveHospital(ctx context.Context, hospital *models.Hospital) (*models.Hospital, error) {
	if err := s.store.UpdateHospital(ctx, hospital); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeBadRequest, "code is already registered")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "hospital not found")
		}
		return nil, s.internal(ctx, "update hospital", err)
	}
	return hospital, nil
}

// DeleteHospital removes the hospital and every production and transfer
// referencing it.
func (s *Service) DeleteHospital(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteHospital(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "hospital not found")
		}
		return s.internal(ctx, "delete hospital", err)
	}
	return nil
}

// Productions

func (s *Service) CreateProduction(ctx context.Context, req *models.CreateEventRequest) (*models.Production, error) {
	fields, err := s.parseEvent(ctx, req, "production_date")
	if err != nil {
		return nil, err
	}
	production := &models.Production{
		ID:             uuid.New(),
		DoctorID:       fields.DoctorID,
		HospitalID:     fields.HospitalID,
		Amount:         fields.Amount,
		ProductionDate: fields.Date,
		CreatedAt:      s.now(),
	}
	if err := s.store.CreateProduction(ctx, production); err != nil {
		if errors.Is(err, sentinel.ErrForeignKey) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "doctor or hospital does not exist")
		}
		return nil, s.internal(ctx, "create production", err)
	}
	return production, nil
}

func (s *Service) ListProductions(ctx context.Context, filter store.EventFilter) ([]*models.Production, error) {
	productions, err := s.store.ListProductions(ctx, filter)
	if err != nil {
		return nil, s.internal(ctx, "list productions", err)
	}
	return productions, nil
}

func (s *Service) GetProduction(ctx context.Context, id uuid.UUID) (*models.Production, error) {
	production, err := s.store.GetProduction(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "production not found")
		}
		return nil, s.internal(ctx, "get production", err)
	}
	return production, nil
}

func (s *Service) ReplaceProduction(ctx context.Context, id uuid.UUID, req *models.CreateEventRequest) (*models.Production, error) {
	fields, err := s.parseEvent(ctx, req, "production_date")
	if err != nil {
		return nil, err
	}
	production, err := s.GetProduction(ctx, id)
	if err != nil {
		return nil, err
	}
	production.DoctorID = fields.DoctorID
	production.HospitalID = fields.HospitalID
	production.Amount = fields.Amount
	production.ProductionDate = fields.Date
	return s.saveProduction(ctx, production)
}

func (s *Service) PatchProduction(ctx context.Context, id uuid.UUID, req *models.UpdateEventRequest) (*models.Production, error) {
	production, err := s.GetProduction(ctx, id)
	if err != nil {
		return nil, err
	}
	patch, err := s.parseEventPatch(ctx, req, "production_date")
	if err != nil {
		return nil, err
	}
	if patch.DoctorID != nil {
		production.DoctorID = *patch.DoctorID
	}
	if patch.HospitalID != nil {
		production.HospitalID = *patch.HospitalID
	}
	if patch.Amount != nil {
		production.Amount = *patch.Amount
	}
	if patch.Date != nil {
		production.ProductionDate = *patch.Date
	}
	return s.saveProduction(ctx, production)
}

func (s *Service) saveProduction(ctx context.Context, production *models.Production) (*models.Production, error) {
	if err := s.store.UpdateProduction(ctx, production); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrForeignKey):
			return nil, dErrors.New(dErrors.CodeBadRequest, "doctor or hospital does not exist")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "production not found")
		}
		return nil, s.internal(ctx, "update production", err)
	}
	return production, nil
}

func (s *Service) DeleteProduction(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteProduction(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "production not found")
		}
		return s.internal(ctx, "delete production", err)
	}
	return nil
}

// Transfers

func (s *Service) CreateTransfer(ctx context.Context, req *models.CreateEventRequest) (*models.Transfer, error) {
	fields, err := s.parseEvent(ctx, req, "transfer_date")
	if err != nil {
		return nil, err
	}
	transfer := &models.Transfer{
		ID:           uuid.New(),
		DoctorID:     fields.DoctorID,
		HospitalID:   fields.HospitalID,
		Amount:       fields.Amount,
		TransferDate: fields.Date,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateTransfer(ctx, transfer); err != nil {
		if errors.Is(err, sentinel.ErrForeignKey) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "doctor or hospital does not exist")
		}
		return nil, s.internal(ctx, "create transfer", err)
	}
	return transfer, nil
}

func (s *Service) ListTransfers(ctx context.Context, filter store.EventFilter) ([]*models.Transfer, error) {
	transfers, err := s.store.ListTransfers(ctx, filter)
	if err != nil {
		return nil, s.internal(ctx, "list transfers", err)
	}
	return transfers, nil
}

func (s *Service) GetTransfer(ctx context.Context, id uuid.UUID) (*models.Transfer, error) {
	transfer, err := s.store.GetTransfer(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "transfer not found")
		}
		return nil, s.internal(ctx, "get transfer", err)
	}
	return transfer, nil
}

func (s *Service) ReplaceTransfer(ctx context.Context, id uuid.UUID, req *models.CreateEventRequest) (*models.Transfer, error) {
	fields, err := s.parseEvent(ctx, req, "transfer_date")
	if err != nil {
		return nil, err
	}
	transfer, err := s.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}
	transfer.DoctorID = fields.DoctorID
	transfer.HospitalID = fields.HospitalID
	transfer.Amount = fields.Amount
	transfer.TransferDate = fields.Date
	return s.saveTransfer(ctx, transfer)
}

func (s *Service) PatchTransfer(ctx context.Context, id uuid.UUID, req *models.UpdateEventRequest) (*models.Transfer, error) {
	transfer, err := s.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}
	patch, err := s.parseEventPatch(ctx, req, "transfer_date")
	if err != nil {
		return nil, err
	}
	if patch.DoctorID != nil {
		transfer.DoctorID = *patch.DoctorID
	}
	if patch.HospitalID != nil {
		transfer.HospitalID = *patch.HospitalID
	}
	if patch.Amount != nil {
		transfer.Amount = *patch.Amount
	}
	if patch.Date != nil {
		transfer.TransferDate = *patch.Date
	}
	return s.saveTransfer(ctx, transfer)
}

func (s *Service) saveTransfer(ctx context.Context, transfer *models.Transfer) (*models.Transfer, error) {
	if err := s.store.UpdateTransfer(ctx, transfer); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrForeignKey):
			return nil, dErrors.New(dErrors.CodeBadRequest, "doctor or hospital does not exist")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "transfer not found")
		}
		return nil, s.internal(ctx, "update transfer", err)
	}
	return transfer, nil
}

func (s *Service) DeleteTransfer(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteTransfer(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "transfer not found")
		}
		return s.internal(ctx, "delete transfer", err)
	}
	return nil
}

// Financial summary

// FinancialSummary aggregates one doctor's productions and transfers over an
// optional inclusive date window. Both windows are independently optional;
// empty subsets sum to exact zero and balance may go negative.
func (s *Service) FinancialSummary(ctx context.Context, doctorID uuid.UUID, from, to *models.Date) (*models.FinancialSummary, error) {
	if _, err := s.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}

	filter := store.EventFilter{DoctorID: &doctorID, From: from, To: to}

	produced, err := s.store.SumProductions(ctx, filter)
	if err != nil {
		return nil, s.internal(ctx, "sum productions", err)
	}
	transferred, err := s.store.SumTransfers(ctx, filter)
	if err != nil {
		return nil, s.internal(ctx, "sum transfers", err)
	}

	s.metrics.IncrementSummariesComputed()
	return &models.FinancialSummary{
		TotalProduced:    produced,
		TotalTransferred: transferred,
		Balance:          produced.Sub(transferred),
	}, nil
}

// parseEvent parses a create/replace payload and verifies both references
// resolve, so callers get a precise validation message. The store-level FK
// check remains the backstop under concurrency.
func (s *Service) parseEvent(ctx context.Context, req *models.CreateEventRequest, dateField string) (models.EventFields, error) {
	fields, err := req.Parse(dateField)
	if err != nil {
		return fields, err
	}
	if err := s.checkRefs(ctx, fields.DoctorID, fields.HospitalID); err != nil {
		return fields, err
	}
	return fields, nil
}

// eventPatch is the typed form of an UpdateEventRequest.
type eventPatch struct {
	DoctorID   *uuid.UUID
	HospitalID *uuid.UUID
	Amount     *money.Amount
	Date       *models.Date
}

func (s *Service) parseEventPatch(ctx context.Context, req *models.UpdateEventRequest, dateField string) (eventPatch, error) {
	var patch eventPatch

	if req.Doctor != nil {
		doctorID, err := uuid.Parse(*req.Doctor)
		if err != nil {
			return patch, dErrors.New(dErrors.CodeBadRequest, "doctor must be a valid id")
		}
		if _, err := s.GetDoctor(ctx, doctorID); err != nil {
			if dErrors.Is(err, dErrors.CodeNotFound) {
				return patch, dErrors.New(dErrors.CodeBadRequest, "doctor does not exist")
			}
			return patch, err
		}
		patch.DoctorID = &doctorID
	}
	if req.Hospital != nil {
		hospitalID, err := uuid.Parse(*req.Hospital)
		if err != nil {
			return patch, dErrors.New(dErrors.CodeBadRequest, "hospital must be a valid id")
		}
		if _, err := s.GetHospital(ctx, hospitalID); err != nil {
			if dErrors.Is(err, dErrors.CodeNotFound) {
				return patch, dErrors.New(dErrors.CodeBadRequest, "hospital does not exist")
			}
			return patch, err
		}
		patch.HospitalID = &hospitalID
	}
	if req.Amount != nil {
		amount, err := money.Parse(*req.Amount)
		if err != nil {
			return patch, dErrors.New(dErrors.CodeBadRequest, "amount must be a decimal with at most 12 digits and 2 decimal places")
		}
		patch.Amount = &amount
	}
	if raw := req.DateValue(dateField); raw != nil {
		date, err := models.ParseDate(*raw)
		if err != nil {
			return patch, dErrors.New(dErrors.CodeBadRequest, dateField+" must be a yyyy-mm-dd date")
		}
		patch.Date = &date
	}
	return patch, nil
}

func (s *Service) checkRefs(ctx context.Context, doctorID, hospitalID uuid.UUID) error {
	if _, err := s.store.GetDoctor(ctx, doctorID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeBadRequest, "doctor does not exist")
		}
		return s.internal(ctx, "resolve doctor", err)
	}
	if _, err := s.store.GetHospital(ctx, hospitalID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeBadRequest, "hospital does not exist")
		}
		return s.internal(ctx, "resolve hospital", err)
	}
	return nil
}

func (s *Service) internal(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "store operation failed",
		"op", op,
		"error", err.Error(),
	)
	return dErrors.New(dErrors.CodeInternal, op+" failed")
}
