// Package models defines the medical-finance records: doctors, hospitals,
// production events (revenue a doctor generated at a hospital) and transfer
// events (payments disbursed to a doctor).
package models

import (
	"time"

	"github.com/google/uuid"

	"seiwa/pkg/money"
)

// Doctor is a physician tracked by the system.
// CRM is the registration code, unique across all doctors.
type Doctor struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CRM       string    `json:"crm"`
	Specialty string    `json:"specialty"`
	CreatedAt time.Time `json:"created_at"`
}

// Hospital is an institution where productions and transfers happen.
// Code is unique across all hospitals.
type Hospital struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// Production records revenue a doctor generated at a hospital on a given day.
type Production struct {
	ID             uuid.UUID    `json:"id"`
	DoctorID       uuid.UUID    `json:"doctor"`
	HospitalID     uuid.UUID    `json:"hospital"`
	Amount         money.Amount `json:"amount"`
	ProductionDate Date         `json:"production_date"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Transfer records a payment disbursed to a doctor, attributed to a hospital.
type Transfer struct {
	ID           uuid.UUID    `json:"id"`
	DoctorID     uuid.UUID    `json:"doctor"`
	HospitalID   uuid.UUID    `json:"hospital"`
	Amount       money.Amount `json:"amount"`
	TransferDate Date         `json:"transfer_date"`
	CreatedAt    time.Time    `json:"created_at"`
}

// FinancialSummary is the derived aggregate for one doctor over an optional
// date window. Balance may be negative.
type FinancialSummary struct {
	TotalProduced    money.Amount `json:"total_produced"`
	TotalTransferred money.Amount `json:"total_transferred"`
	Balance          money.Amount `json:"balance"`
}
