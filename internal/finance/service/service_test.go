package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seiwa/internal/finance/models"
	"seiwa/internal/finance/store"
	dErrors "seiwa/pkg/domain-errors"
)

func newTestService(t *testing.T) (*Service, *store.InMemory) {
	t.Helper()
	st := store.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(st, logger, nil), st
}

func createDoctor(t *testing.T, svc *Service, crm string) *models.Doctor {
	t.Helper()
	doctor, err := svc.CreateDoctor(context.Background(), &models.CreateDoctorRequest{
		Name:      "Dr. Ana",
		CRM:       crm,
		Specialty: "cardiology",
	})
	require.NoError(t, err)
	return doctor
}

func createHospital(t *testing.T, svc *Service, code string) *models.Hospital {
	t.Helper()
	hospital, err := svc.CreateHospital(context.Background(), &models.CreateHospitalRequest{
		Name: "Santa Casa",
		Code: code,
	})
	require.NoError(t, err)
	return hospital
}

func createProduction(t *testing.T, svc *Service, doctor *models.Doctor, hospital *models.Hospital, amount, date string) *models.Production {
	t.Helper()
	production, err := svc.CreateProduction(context.Background(), &models.CreateEventRequest{
		Doctor:         doctor.ID.String(),
		Hospital:       hospital.ID.String(),
		Amount:         amount,
		ProductionDate: date,
	})
	require.NoError(t, err)
	return production
}

func createTransfer(t *testing.T, svc *Service, doctor *models.Doctor, hospital *models.Hospital, amount, date string) *models.Transfer {
	t.Helper()
	transfer, err := svc.CreateTransfer(context.Background(), &models.CreateEventRequest{
		Doctor:       doctor.ID.String(),
		Hospital:     hospital.ID.String(),
		Amount:       amount,
		TransferDate: date,
	})
	require.NoError(t, err)
	return transfer
}

func datePtr(t *testing.T, raw string) *models.Date {
	t.Helper()
	d, err := models.ParseDate(raw)
	require.NoError(t, err)
	return &d
}

func TestCreateDoctorValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateDoctor(ctx, &models.CreateDoctorRequest{CRM: "12345-SP", Specialty: "cardiology"})
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest), "missing name must be rejected")

	_, err = svc.CreateDoctor(ctx, &models.CreateDoctorRequest{Name: "Dr. Ana", Specialty: "cardiology"})
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest), "missing crm must be rejected")
}

func TestCreateDoctorDuplicateCRM(t *testing.T) {
	svc, _ := newTestService(t)
	createDoctor(t, svc, "12345-SP")

	_, err := svc.CreateDoctor(context.Background(), &models.CreateDoctorRequest{
		Name:      "Dr. Bia",
		CRM:       "12345-SP",
		Specialty: "oncology",
	})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
}

func TestPatchDoctorPartial(t *testing.T) {
	svc, _ := newTestService(t)
	doctor := createDoctor(t, svc, "12345-SP")

	name := "Dr. Ana Souza"
	patched, err := svc.PatchDoctor(context.Background(), doctor.ID, &models.UpdateDoctorRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Dr. Ana Souza", patched.Name)
	assert.Equal(t, "12345-SP", patched.CRM, "untouched fields survive a patch")
	assert.Equal(t, "cardiology", patched.Specialty)
}

func TestGetDoctorNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetDoctor(context.Background(), uuid.New())
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestCreateProductionUnknownReferences(t *testing.T) {
	svc, _ := newTestService(t)
	doctor := createDoctor(t, svc, "12345-SP")
	hospital := createHospital(t, svc, "HSP-01")
	ctx := context.Background()

	_, err := svc.CreateProduction(ctx, &models.CreateEventRequest{
		Doctor:         uuid.New().String(),
		Hospital:       hospital.ID.String(),
		Amount:         "100.00",
		ProductionDate: "2024-01-05",
	})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest), "unknown doctor is a validation failure, not a 404")

	_, err = svc.CreateProduction(ctx, &models.CreateEventRequest{
		Doctor:         doctor.ID.String(),
		Hospital:       uuid.New().String(),
		Amount:         "100.00",
		ProductionDate: "2024-01-05",
	})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
}

func TestCreateProductionValidation(t *testing.T) {
	svc, _ := newTestService(t)
	doctor := createDoctor(t, svc, "12345-SP")
	hospital := createHospital(t, svc, "HSP-01")
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.CreateEventRequest
	}{
		{name: "missing amount", req: models.CreateEventRequest{
			Doctor: doctor.ID.String(), Hospital: hospital.ID.String(), ProductionDate: "2024-01-05",
		}},
		{name: "amount too precise", req: models.CreateEventRequest{
			Doctor: doctor.ID.String(), Hospital: hospital.ID.String(), Amount: "10.123", ProductionDate: "2024-01-05",
		}},
		{name: "amount too large", req: models.CreateEventRequest{
			Doctor: doctor.ID.String(), Hospital: hospital.ID.String(), Amount: "10000000000.00", ProductionDate: "2024-01-05",
		}},
		{name: "missing date", req: models.CreateEventRequest{
			Doctor: doctor.ID.String(), Hospital: hospital.ID.String(), Amount: "100.00",
		}},
		{name: "malformed date", req: models.CreateEventRequest{
			Doctor: doctor.ID.String(), Hospital: hospital.ID.String(), Amount: "100.00", ProductionDate: "05/01/2024",
		}},
		{name: "doctor not a uuid", req: models.CreateEventRequest{
			Doctor: "abc", Hospital: hospital.ID.String(), Amount: "100.00", ProductionDate: "2024-01-05",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProduction(ctx, &tt.req)
			require.Error(t, err)
			assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
		})
	}
}

func TestCreateTransferReadsTransferDate(t *testing.T) {
	svc, _ := newTestService(t)
	doctor := createDoctor(t, svc, "12345-SP")
	hospital := createHospital(t, svc, "HSP-01")

	// A production_date on a transfer payload does not satisfy the date field.
	_, err := svc.CreateTransfer(context.Background(), &models.CreateEventRequest{
		Doctor:         doctor.ID.String(),
		Hospital:       hospital.ID.String(),
		Amount:         "300.00",
		ProductionDate: "2024-01-10",
	})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))

	transfer := createTransfer(t, svc, doctor, hospital, "300.00", "2024-01-10")
	assert.Equal(t, "2024-01-10", transfer.TransferDate.String())
}

func TestPatchProductionPartial(t *testing.T) {
	svc, _ := newTestService(t)
	doctor := createDoctor(t, svc, "12345-SP")
	hospital := createHospital(t, svc, "HSP-01")
	production := createProduction(t, svc, doctor, hospital, "100.00", "2024-01-05")

	amount := "250.00"
	patched, err := svc.PatchProduction(context.Background(), production.ID, &models.UpdateEventRequest{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, "250.00", patched.Amount.String())
	assert.Equal(t, doctor.ID, patched.DoctorID)
	assert.Equal(t, "2024-01-05", patched.ProductionDate.String())
}

func TestPatchProductionUnknownDoctor(t *testing.T) {
	svc, _ := newTestService(t)
	doctor := createDoctor(t, svc, "12345-SP")
	hospital := createHospital(t, svc, "HSP-01")
	production := createProduction(t, svc, doctor, hospital, "100.00", "2024-01-05")

	ghost := uuid.New().String()
	_, err := svc.PatchProduction(context.Background(), production.ID, &models.UpdateEventRequest{Doctor: &ghost})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
}

func TestDeleteDoctorRemovesEvents(t *testing.T) {
	svc, _ := newTestService(t)
	doctor := createDoctor(t, svc, "12345-SP")
	hospital := createHospital(t, svc, "HSP-01")
	production := createProduction(t, svc, doctor, hospital, "100.00", "2024-01-05")
	transfer := createTransfer(t, svc, doctor, hospital, "50.00", "2024-01-06")
	ctx := context.Background()

	require.NoError(t, svc.DeleteDoctor(ctx, doctor.ID))

	_, err := svc.GetProduction(ctx, production.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	_, err = svc.GetTransfer(ctx, transfer.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestFinancialSummary(t *testing.T) {
	svc, _ := newTestService(t)
	doctor := createDoctor(t, svc, "12345-SP")
	hospital := createHospital(t, svc, "HSP-01")
	createProduction(t, svc, doctor, hospital, "1000.00", "2024-01-05")
	createTransfer(t, svc, doctor, hospital, "300.00", "2024-01-10")
	ctx := context.Background()

	summary, err := svc.FinancialSummary(ctx, doctor.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", summary.TotalProduced.String())
	assert.Equal(t, "300.00", summary.TotalTransferred.String())
	assert.Equal(t, "700.00", summary.Balance.String())
}

func TestFinancialSummaryWindowExcludesProduction(t *testing.T) {
	svc, _ := newTestService(t)
	doctor := createDoctor(t, svc, "12345-SP")
	hospital := createHospital(t, svc, "HSP-01")
	createProduction(t, svc, doctor, hospital, "1000.00", "2024-01-05")
	createTransfer(t, svc, doctor, hospital, "300.00", "2024-01-10")

	// Window opens after the production: only the transfer counts, and the
	// balance goes negative.
	summary, err := svc.FinancialSummary(context.Background(), doctor.ID, datePtr(t, "2024-01-06"), nil)
	require.NoError(t, err)
	assert.Equal(t, "0.00", summary.TotalProduced.String())
	assert.Equal(t, "300.00", summary.TotalTransferred.String())
	assert.Equal(t, "-300.00", summary.Balance.String())
}

func TestFinancialSummaryInclusiveBounds(t *testing.T) {
	svc, _ := newTestService(t)
	doctor := createDoctor(t, svc, "12345-SP")
	hospital := createHospital(t, svc, "HSP-01")
	createProduction(t, svc, doctor, hospital, "1000.00", "2024-01-05")
	createTransfer(t, svc, doctor, hospital, "300.00", "2024-01-10")

	summary, err := svc.FinancialSummary(context.Background(), doctor.ID, datePtr(t, "2024-01-05"), datePtr(t, "2024-01-10"))
	require.NoError(t, err)
	assert.Equal(t, "1000.00", summary.TotalProduced.String())
	assert.Equal(t, "300.00", summary.TotalTransferred.String())
	assert.Equal(t, "700.00", summary.Balance.String())
}

func TestFinancialSummaryEmptyDoctor(t *testing.T) {
	svc, _ := newTestService(t)
	doctor := createDoctor(t, svc, "12345-SP")

	summary, err := svc.FinancialSummary(context.Background(), doctor.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.00", summary.TotalProduced.String())
	assert.Equal(t, "0.00", summary.TotalTransferred.String())
	assert.Equal(t, "0.00", summary.Balance.String())
}

func TestFinancialSummaryIgnoresOtherDoctors(t *testing.T) {
	svc, _ := newTestService(t)
	ana := createDoctor(t, svc, "12345-SP")
	other := createDoctor(t, svc, "99999-RJ")
	hospital := createHospital(t, svc, "HSP-01")
	createProduction(t, svc, ana, hospital, "1000.00", "2024-01-05")
	createProduction(t, svc, other, hospital, "5000.00", "2024-01-05")
	createTransfer(t, svc, other, hospital, "2000.00", "2024-01-06")

	summary, err := svc.FinancialSummary(context.Background(), ana.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", summary.TotalProduced.String())
	assert.Equal(t, "0.00", summary.TotalTransferred.String())
}

func TestFinancialSummaryUnknownDoctor(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.FinancialSummary(context.Background(), uuid.New(), nil, nil)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestFinancialSummaryExactDecimals(t *testing.T) {
	svc, _ := newTestService(t)
	doctor := createDoctor(t, svc, "12345-SP")
	hospital := createHospital(t, svc, "HSP-01")
	// 0.1 + 0.2 is the classic float trap; the sum must be exactly 0.30.
	createProduction(t, svc, doctor, hospital, "0.10", "2024-01-05")
	createProduction(t, svc, doctor, hospital, "0.20", "2024-01-05")

	summary, err := svc.FinancialSummary(context.Background(), doctor.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.30", summary.TotalProduced.String())
	assert.Equal(t, "0.30", summary.Balance.String())
}
