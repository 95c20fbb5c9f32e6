package complaint

import (
	"bhrc/backend/internal/validation"
	"strings"
)

// Input is a complaint as submitted through the public form.
// Dates use the YYYY-MM-DD layout.
type Input struct {
	FullName    string `json:"full_name" form:"full_name" validate:"required,min=2,max=150"`
	Email       string `json:"email" form:"email" validate:"omitempty,email,max=254"`
	Phone       string `json:"phone" form:"phone" validate:"required,phone_in"`
	DateOfBirth string `json:"date_of_birth" form:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Gender      string `json:"gender" form:"gender" validate:"omitempty,oneof=male female other"`
	Address     string `json:"address" form:"address" validate:"max=500"`
	City        string `json:"city" form:"city" validate:"max=100"`
	State       string `json:"state" form:"state" validate:"max=100"`
	PinCode     string `json:"pin_code" form:"pin_code" validate:"omitempty,pincode"`

	Category         string `json:"category" form:"category" validate:"required"`
	Subject          string `json:"subject" form:"subject" validate:"required,min=5,max=200"`
	Description      string `json:"description" form:"description" validate:"required,min=50"`
	IncidentDate     string `json:"incident_date" form:"incident_date" validate:"required,datetime=2006-01-02"`
	IncidentLocation string `json:"incident_location" form:"incident_location" validate:"required,max=255"`
	AccusedDetails   string `json:"accused_details" form:"accused_details"`
	WitnessDetails   string `json:"witness_details" form:"witness_details"`
}

// normalize trims every field and canonicalises contact details.
func (in *Input) normalize() {
	for _, f := range []*string{
		&in.FullName, &in.Gender, &in.Address, &in.City, &in.State, &in.PinCode,
		&in.Category, &in.Subject, &in.Description, &in.IncidentDate, &in.DateOfBirth,
		&in.IncidentLocation, &in.AccusedDetails, &in.WitnessDetails,
	} {
		*f = strings.TrimSpace(*f)
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = validation.NormalizePhone(in.Phone)
	in.Gender = strings.ToLower(in.Gender)
	in.Category = strings.ToLower(in.Category)
}
