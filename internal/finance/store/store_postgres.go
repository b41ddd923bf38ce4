package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"seiwa/internal/finance/models"
	"seiwa/pkg/money"
	"seiwa/pkg/platform/sentinel"
)

// Postgres persists records via database/sql. Uniqueness and referential
// integrity are enforced by the schema; driver violations are folded into
// sentinel errors. Amounts are NUMERIC(12,2) and never pass through a float.
type Postgres struct {
	db *sql.DB
}

var _ Store = (*Postgres)(nil)

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func mapPQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", pqErr.Constraint, sentinel.ErrConflict)
		case "23503":
			return fmt.Errorf("%s: %w", pqErr.Constraint, sentinel.ErrForeignKey)
		}
	}
	return err
}

// Doctors

func (s *Postgres) CreateDoctor(ctx context.Context, doctor *models.Doctor) error {
	query := `
		INSERT INTO doctors (id, name, crm, specialty, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		doctor.ID, doctor.Name, doctor.CRM, doctor.Specialty, doctor.CreatedAt)
	if err != nil {
		return fmt.Errorf("create doctor: %w", mapPQError(err))
	}
	return nil
}

func (s *Postgres) ListDoctors(ctx context.Context) ([]*models.Doctor, error) {
	query := `
		SELECT id, name, crm, specialty, created_at
		FROM doctors
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	var out []*models.Doctor
	for rows.Next() {
		var d models.Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.CRM, &d.Specialty, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan doctor: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (s *Postgres) GetDoctor(ctx context.Context, id uuid.UUID) (*models.Doctor, error) {
	query := `
		SELECT id, name, crm, specialty, created_at
		FROM doctors
		WHERE id = $1
	`
	var d models.Doctor
	err := s.db.QueryRowContext(ctx, query, id).Scan(&d.ID, &d.Name, &d.CRM, &d.Specialty, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return &d, nil
}

func (s *Postgres) UpdateDoctor(ctx context.Context, doctor *models.Doctor) error {
	query := `
		UPDATE doctors
		SET name = $2, crm = $3, specialty = $4
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, doctor.ID, doctor.Name, doctor.CRM, doctor.Specialty)
	if err != nil {
		return fmt.Errorf("update doctor: %w", mapPQError(err))
	}
	return requireRow(res)
}

func (s *Postgres) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	// Productions and transfers go with the doctor via ON DELETE CASCADE.
	res, err := s.db.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	return requireRow(res)
}

// Hospitals

func (s *Postgres) CreateHospital(ctx context.Context, hospital *models.Hospital) error {
	query := `
		INSERT INTO hospitals (id, name, code, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query,
		hospital.ID, hospital.Name, hospital.Code, hospital.CreatedAt)
	if err != nil {
		return fmt.Errorf("create hospital: %w", mapPQError(err))
	}
	return nil
}

func (s *Postgres) ListHospitals(ctx context.Context) ([]*models.Hospital, error) {
	query := `
		SELECT id, name, code, created_at
		FROM hospitals
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list hospitals: %w", err)
	}
	defer rows.Close()

	var out []*models.Hospital
	for rows.Next() {
		var h models.Hospital
		if err := rows.Scan(&h.ID, &h.Name, &h.Code, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan hospital: %w", err)
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}

func (s *Postgres) GetHospital(ctx context.Context, id uuid.UUID) (*models.Hospital, error) {
	query := `
		SELECT id, name, code, created_at
		FROM hospitals
		WHERE id = $1
	`
	var h models.Hospital
	err := s.db.QueryRowContext(ctx, query, id).Scan(&h.ID, &h.Name, &h.Code, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get hospital: %w", err)
	}
	return &h, nil
}

func (s *Postgres) UpdateHospital(ctx context.Context, hospital *models.Hospital) error {
	query := `
		UPDATE hospitals
		SET name = $2, code = $3
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, hospital.ID, hospital.Name, hospital.Code)
	if err != nil {
		return fmt.Errorf("update hospital: %w", mapPQError(err))
	}
	return requireRow(res)
}

func (s *Postgres) DeleteHospital(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM hospitals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete hospital: %w", err)
	}
	return requireRow(res)
}

// Productions

func (s *Postgres) CreateProduction(ctx context.Context, production *models.Production) error {
	query := `
		INSERT INTO productions (id, doctor_id, hospital_id, amount, production_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		production.ID, production.DoctorID, production.HospitalID,
		production.Amount, production.ProductionDate, production.CreatedAt)
	if err != nil {
		return fmt.Errorf("create production: %w", mapPQError(err))
	}
	return nil
}

func (s *Postgres) ListProductions(ctx context.Context, filter EventFilter) ([]*models.Production, error) {
	query := `
		SELECT id, doctor_id, hospital_id, amount, production_date, created_at
		FROM productions
	`
	where, args := buildEventWhere(filter, "production_date")
	rows, err := s.db.QueryContext(ctx, query+where+" ORDER BY created_at, id", args...)
	if err != nil {
		return nil, fmt.Errorf("list productions: %w", err)
	}
	defer rows.Close()

	var out []*models.Production
	for rows.Next() {
		var p models.Production
		if err := rows.Scan(&p.ID, &p.DoctorID, &p.HospitalID, &p.Amount, &p.ProductionDate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan production: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *Postgres) GetProduction(ctx context.Context, id uuid.UUID) (*models.Production, error) {
	query := `
		SELECT id, doctor_id, hospital_id, amount, production_date, created_at
		FROM productions
		WHERE id = $1
	`
	var p models.Production
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.DoctorID, &p.HospitalID, &p.Amount, &p.ProductionDate, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get production: %w", err)
	}
	return &p, nil
}

func (s *Postgres) UpdateProduction(ctx context.Context, production *models.Production) error {
	query := `
		UPDATE productions
		SET doctor_id = $2, hospital_id = $3, amount = $4, production_date = $5
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		production.ID, production.DoctorID, production.HospitalID,
		production.Amount, production.ProductionDate)
	if err != nil {
		return fmt.Errorf("update production: %w", mapPQError(err))
	}
	return requireRow(res)
}

func (s *Postgres) DeleteProduction(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM productions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete production: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) SumProductions(ctx context.Context, filter EventFilter) (money.Amount, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM productions`
	where, args := buildEventWhere(filter, "production_date")

	var total money.Amount
	if err := s.db.QueryRowContext(ctx, query+where, args...).Scan(&total); err != nil {
		return money.Zero, fmt.Errorf("sum productions: %w", err)
	}
	return total, nil
}

// Transfers

func (s *Postgres) CreateTransfer(ctx context.Context, transfer *models.Transfer) error {
	query := `
		INSERT INTO transfers (id, doctor_id, hospital_id, amount, transfer_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		transfer.ID, transfer.DoctorID, transfer.HospitalID,
		transfer.Amount, transfer.TransferDate, transfer.CreatedAt)
	if err != nil {
		return fmt.Errorf("create transfer: %w", mapPQError(err))
	}
	return nil
}

func (s *Postgres) ListTransfers(ctx context.Context, filter EventFilter) ([]*models.Transfer, error) {
	query := `
		SELECT id, doctor_id, hospital_id, amount, transfer_date, created_at
		FROM transfers
	`
	where, args := buildEventWhere(filter, "transfer_date")
	rows, err := s.db.QueryContext(ctx, query+where+" ORDER BY created_at, id", args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var out []*models.Transfer
	for rows.Next() {
		var t models.Transfer
		if err := rows.Scan(&t.ID, &t.DoctorID, &t.HospitalID, &t.Amount, &t.TransferDate, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (s *Postgres) GetTransfer(ctx context.Context, id uuid.UUID) (*models.Transfer, error) {
	query := `
		SELECT id, doctor_id, hospital_id, amount, transfer_date, created_at
		FROM transfers
		WHERE id = $1
	`
	var t models.Transfer
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.DoctorID, &t.HospitalID, &t.Amount, &t.TransferDate, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return &t, nil
}

func (s *Postgres) UpdateTransfer(ctx context.Context, transfer *models.Transfer) error {
	query := `
		UPDATE transfers
		SET doctor_id = $2, hospital_id = $3, amount = $4, transfer_date = $5
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		transfer.ID, transfer.DoctorID, transfer.HospitalID,
		transfer.Amount, transfer.TransferDate)
	if err != nil {
		return fmt.Errorf("update transfer: %w", mapPQError(err))
	}
	return requireRow(res)
}

func (s *Postgres) DeleteTransfer(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transfers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transfer: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) SumTransfers(ctx context.Context, filter EventFilter) (money.Amount, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM transfers`
	where, args := buildEventWhere(filter, "transfer_date")

	var total money.Amount
	if err := s.db.QueryRowContext(ctx, query+where, args...).Scan(&total); err != nil {
		return money.Zero, fmt.Errorf("sum transfers: %w", err)
	}
	return total, nil
}

// buildEventWhere renders the filter as a WHERE clause with positional args.
// dateColumn is "production_date" or "transfer_date".
func buildEventWhere(filter EventFilter, dateColumn string) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, clause+" $"+strconv.Itoa(len(args)))
	}

	if filter.DoctorID != nil {
		add("doctor_id =", *filter.DoctorID)
	}
	if filter.HospitalID != nil {
		add("hospital_id =", *filter.HospitalID)
	}
	if filter.From != nil {
		add(dateColumn+" >=", *filter.From)
	}
	if filter.To != nil {
		add(dateColumn+" <=", *filter.To)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	where := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

// requireRow maps "zero rows affected" onto ErrNotFound for keyed mutations.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
