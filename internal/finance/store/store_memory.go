package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"seiwa/internal/finance/models"
	"seiwa/pkg/money"
	"seiwa/pkg/platform/sentinel"
)

// InMemory is the map-backed Store used by tests and local development. It
// mirrors the relational semantics: CRM/code uniqueness and cascade deletes.
type InMemory struct {
	mu          sync.RWMutex
	doctors     map[uuid.UUID]models.Doctor
	hospitals   map[uuid.UUID]models.Hospital
	productions map[uuid.UUID]models.Production
	transfers   map[uuid.UUID]models.Transfer
}

var _ Store = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{
		doctors:     make(map[uuid.UUID]models.Doctor),
		hospitals:   make(map[uuid.UUID]models.Hospital),
		productions: make(map[uuid.UUID]models.Production),
		transfers:   make(map[uuid.UUID]models.Transfer),
	}
}

func (s *InMemory) crmTaken(crm string, exclude uuid.UUID) bool {
	for _, d := range s.doctors {
		if d.CRM == crm && d.ID != exclude {
			return true
		}
	}
	return false
}

func (s *InMemory) codeTaken(code string, exclude uuid.UUID) bool {
	for _, h := range s.hospitals {
		if h.Code == code && h.ID != exclude {
			return true
		}
	}
	return false
}

// Doctors

func (s *InMemory) CreateDoctor(_ context.Context, doctor *models.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.crmTaken(doctor.CRM, doctor.ID) {
		return fmt.Errorf("crm %q: %w", doctor.CRM, sentinel.ErrConflict)
	}
	s.doctors[doctor.ID] = *doctor
	return nil
}

func (s *InMemory) ListDoctors(_ context.Context) ([]*models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Doctor, 0, len(s.doctors))
	for _, d := range s.doctors {
		d := d
		out = append(out, &d)
	}
	sortByCreation(out, func(d *models.Doctor) (int64, string) { return d.CreatedAt.UnixNano(), d.ID.String() })
	return out, nil
}

func (s *InMemory) GetDoctor(_ context.Context, id uuid.UUID) (*models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.doctors[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &d, nil
}

func (s *InMemory) UpdateDoctor(_ context.Context, doctor *models.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doctors[doctor.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.crmTaken(doctor.CRM, doctor.ID) {
		return fmt.Errorf("crm %q: %w", doctor.CRM, sentinel.ErrConflict)
	}
	s.doctors[doctor.ID] = *doctor
	return nil
}

func (s *InMemory) DeleteDoctor(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doctors[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.doctors, id)
	for pid, p := range s.productions {
		if p.DoctorID == id {
			delete(s.productions, pid)
		}
	}
	for tid, t := range s.transfers {
		if t.DoctorID == id {
			delete(s.transfers, tid)
		}
	}
	return nil
}

// Hospitals

func (s *InMemory) CreateHospital(_ context.Context, hospital *models.Hospital) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codeTaken(hospital.Code, hospital.ID) {
		return fmt.Errorf("code %q: %w", hospital.Code, sentinel.ErrConflict)
	}
	s.hospitals[hospital.ID] = *hospital
	return nil
}

func (s *InMemory) ListHospitals(_ context.Context) ([]*models.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Hospital, 0, len(s.hospitals))
	for _, h := range s.hospitals {
		h := h
		out = append(out, &h)
	}
	sortByCreation(out, func(h *models.Hospital) (int64, string) { return h.CreatedAt.UnixNano(), h.ID.String() })
	return out, nil
}

func (s *InMemory) GetHospital(_ context.Context, id uuid.UUID) (*models.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hospitals[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &h, nil
}

func (s *InMemory) UpdateHospital(_ context.Context, hospital *models.Hospital) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hospitals[hospital.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.codeTaken(hospital.Code, hospital.ID) {
		return fmt.Errorf("code %q: %w", hospital.Code, sentinel.ErrConflict)
	}
	s.hospitals[hospital.ID] = *hospital
	return nil
}

func (s *InMemory) DeleteHospital(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hospitals[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.hospitals, id)
	for pid, p := range s.productions {
		if p.HospitalID == id {
			delete(s.productions, pid)
		}
	}
	for tid, t := range s.transfers {
		if t.HospitalID == id {
			delete(s.transfers, tid)
		}
	}
	return nil
}

// Productions

func (s *InMemory) CreateProduction(_ context.Context, production *models.Production) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRefs(production.DoctorID, production.HospitalID); err != nil {
		return err
	}
	s.productions[production.ID] = *production
	return nil
}

func (s *InMemory) ListProductions(_ context.Context, filter EventFilter) ([]*models.Production, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Production, 0)
	for _, p := range s.productions {
		if filter.Matches(p.DoctorID, p.HospitalID, p.ProductionDate) {
			p := p
			out = append(out, &p)
		}
	}
	sortByCreation(out, func(p *models.Production) (int64, string) { return p.CreatedAt.UnixNano(), p.ID.String() })
	return out, nil
}

func (s *InMemory) GetProduction(_ context.Context, id uuid.UUID) (*models.Production, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.productions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (s *InMemory) UpdateProduction(_ context.Context, production *models.Production) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.productions[production.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if err := s.checkRefs(production.DoctorID, production.HospitalID); err != nil {
		return err
	}
	s.productions[production.ID] = *production
	return nil
}

func (s *InMemory) DeleteProduction(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.productions[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.productions, id)
	return nil
}

func (s *InMemory) SumProductions(_ context.Context, filter EventFilter) (money.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := money.Zero
	for _, p := range s.productions {
		if filter.Matches(p.DoctorID, p.HospitalID, p.ProductionDate) {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

// Transfers

func (s *InMemory) CreateTransfer(_ context.Context, transfer *models.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRefs(transfer.DoctorID, transfer.HospitalID); err != nil {
		return err
	}
	s.transfers[transfer.ID] = *transfer
	return nil
}

func (s *InMemory) ListTransfers(_ context.Context, filter EventFilter) ([]*models.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Transfer, 0)
	for _, t := range s.transfers {
		if filter.Matches(t.DoctorID, t.HospitalID, t.TransferDate) {
			t := t
			out = append(out, &t)
		}
	}
	sortByCreation(out, func(t *models.Transfer) (int64, string) { return t.CreatedAt.UnixNano(), t.ID.String() })
	return out, nil
}

func (s *InMemory) GetTransfer(_ context.Context, id uuid.UUID) (*models.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transfers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &t, nil
}

func (s *InMemory) UpdateTransfer(_ context.Context, transfer *models.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transfers[transfer.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if err := s.checkRefs(transfer.DoctorID, transfer.HospitalID); err != nil {
		return err
	}
	s.transfers[transfer.ID] = *transfer
	return nil
}

func (s *InMemory) DeleteTransfer(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transfers[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.transfers, id)
	return nil
}

func (s *InMemory) SumTransfers(_ context.Context, filter EventFilter) (money.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := money.Zero
	for _, t := range s.transfers {
		if filter.Matches(t.DoctorID, t.HospitalID, t.TransferDate) {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

// checkRefs enforces referential integrity under the write lock.
func (s *InMemory) checkRefs(doctorID, hospitalID uuid.UUID) error {
	if _, ok := s.doctors[doctorID]; !ok {
		return fmt.Errorf("doctor %s: %w", doctorID, sentinel.ErrForeignKey)
	}
	if _, ok := s.hospitals[hospitalID]; !ok {
		return fmt.Errorf("hospital %s: %w", hospitalID, sentinel.ErrForeignKey)
	}
	return nil
}

// sortByCreation orders records by creation time, breaking ties by id so
// listings are stable.
func sortByCreation[T any](items []*T, key func(*T) (int64, string)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if ti != tj {
			return ti < tj
		}
		return idi < idj
	})
}
