package models

import (
	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	dErrors "seiwa/pkg/domain-errors"
	"seiwa/pkg/money"
)

// Request payloads carry wire-typed fields (strings) and validate themselves;
// the service parses them into record fields. Field names follow the wire
// contract: foreign keys are "doctor" and "hospital", amounts are decimal
// strings.

// CreateDoctorRequest is the payload for creating or fully replacing a doctor.
type CreateDoctorRequest struct {
	Name      string `json:"name"`
	CRM       string `json:"crm"`
	Specialty string `json:"specialty"`
}

func (r *CreateDoctorRequest) Validate() error {
	if !govalidator.StringLength(r.Name, "1", "255") {
		return dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if !govalidator.StringLength(r.CRM, "1", "50") {
		return dErrors.New(dErrors.CodeBadRequest, "crm is required")
	}
	if !govalidator.StringLength(r.Specialty, "1", "100") {
		return dErrors.New(dErrors.CodeBadRequest, "specialty is required")
	}
	return nil
}

// UpdateDoctorRequest is the partial-update payload; nil fields are untouched.
type UpdateDoctorRequest struct {
	Name      *string `json:"name"`
	CRM       *string `json:"crm"`
	Specialty *string `json:"specialty"`
}

func (r *UpdateDoctorRequest) Validate() error {
	if r.Name != nil && !govalidator.StringLength(*r.Name, "1", "255") {
		return dErrors.New(dErrors.CodeBadRequest, "name must not be empty")
	}
	if r.CRM != nil && !govalidator.StringLength(*r.CRM, "1", "50") {
		return dErrors.New(dErrors.CodeBadRequest, "crm must not be empty")
	}
	if r.Specialty != nil && !govalidator.StringLength(*r.Specialty, "1", "100") {
		return dErrors.New(dErrors.CodeBadRequest, "specialty must not be empty")
	}
	return nil
}

// CreateHospitalRequest is the payload for creating or fully replacing a hospital.
type CreateHospitalRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (r *CreateHospitalRequest) Validate() error {
	if !govalidator.StringLength(r.Name, "1", "255") {
		return dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if !govalidator.StringLength(r.Code, "1", "50") {
		return dErrors.New(dErrors.CodeBadRequest, "code is required")
	}
	return nil
}

// UpdateHospitalRequest is the partial-update payload; nil fields are untouched.
type UpdateHospitalRequest struct {
	Name *string `json:"name"`
	Code *string `json:"code"`
}

func (r *UpdateHospitalRequest) Validate() error {
	if r.Name != nil && !govalidator.StringLength(*r.Name, "1", "255") {
		return dErrors.New(dErrors.CodeBadRequest, "name must not be empty")
	}
	if r.Code != nil && !govalidator.StringLength(*r.Code, "1", "50") {
		return dErrors.New(dErrors.CodeBadRequest, "code must not be empty")
	}
	return nil
}

// CreateEventRequest is the payload shared by productions and transfers: a
// doctor, a hospital, an amount and the event date. Only the date field
// matching the resource is read.
type CreateEventRequest struct {
	Doctor         string `json:"doctor"`
	Hospital       string `json:"hospital"`
	Amount         string `json:"amount"`
	ProductionDate string `json:"production_date,omitempty"`
	TransferDate   string `json:"transfer_date,omitempty"`
}

// EventFields is the parsed form of a CreateEventRequest.
type EventFields struct {
	DoctorID   uuid.UUID
	HospitalID uuid.UUID
	Amount     money.Amount
	Date       Date
}

// Parse validates the payload and converts it into typed fields. dateField
// names the wire field in error messages ("production_date" or "transfer_date").
func (r *CreateEventRequest) Parse(dateField string) (EventFields, error) {
	var out EventFields

	if r.Doctor == "" {
		return out, dErrors.New(dErrors.CodeBadRequest, "doctor is required")
	}
	doctorID, err := uuid.Parse(r.Doctor)
	if err != nil {
		return out, dErrors.New(dErrors.CodeBadRequest, "doctor must be a valid id")
	}

	if r.Hospital == "" {
		return out, dErrors.New(dErrors.CodeBadRequest, "hospital is required")
	}
	hospitalID, err := uuid.Parse(r.Hospital)
	if err != nil {
		return out, dErrors.New(dErrors.CodeBadRequest, "hospital must be a valid id")
	}

	if r.Amount == "" {
		return out, dErrors.New(dErrors.CodeBadRequest, "amount is required")
	}
	amount, err := money.Parse(r.Amount)
	if err != nil {
		return out, dErrors.New(dErrors.CodeBadRequest, "amount must be a decimal with at most 12 digits and 2 decimal places")
	}

	rawDate := r.TransferDate
	if dateField == "production_date" {
		rawDate = r.ProductionDate
	}
	if rawDate == "" {
		return out, dErrors.New(dErrors.CodeBadRequest, dateField+" is required")
	}
	date, err := ParseDate(rawDate)
	if err != nil {
		return out, dErrors.New(dErrors.CodeBadRequest, dateField+" must be a yyyy-mm-dd date")
	}

	out.DoctorID = doctorID
	out.HospitalID = hospitalID
	out.Amount = amount
	out.Date = date
	return out, nil
}

// UpdateEventRequest is the partial-update payload for productions and
// transfers; nil fields are untouched.
type UpdateEventRequest struct {
	Doctor         *string `json:"doctor"`
	Hospital       *string `json:"hospital"`
	Amount         *string `json:"amount"`
	ProductionDate *string `json:"production_date"`
	TransferDate   *string `json:"transfer_date"`
}

// DateValue returns the patch value for the resource's date field, or nil.
func (r *UpdateEventRequest) DateValue(dateField string) *string {
	if dateField == "production_date" {
		return r.ProductionDate
	}
	return r.TransferDate
}
