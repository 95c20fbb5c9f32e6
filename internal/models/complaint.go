package models

import (
	"time"

	"gorm.io/datatypes"
)

// Complaint lifecycle statuses.
const (
	ComplaintSubmitted     = "submitted"
	ComplaintUnderReview   = "under_review"
	ComplaintInvestigating = "investigating"
	ComplaintResolved      = "resolved"
	ComplaintClosed        = "closed"
	ComplaintRejected      = "rejected"
)

// ComplaintStatuses is the fixed set of lifecycle statuses, in their usual order.
var ComplaintStatuses = []string{
	ComplaintSubmitted,
	ComplaintUnderReview,
	ComplaintInvestigating,
	ComplaintResolved,
	ComplaintClosed,
	ComplaintRejected,
}

// IsComplaintStatus reports whether s is one of ComplaintStatuses.
func IsComplaintStatus(s string) bool {
	for _, status := range ComplaintStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ComplaintDocument describes a file uploaded together with a complaint.
type ComplaintDocument struct {
	FileName     string `json:"file_name"`
	OriginalName string `json:"original_name"`
	Path         string `json:"path"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
}

// Complaint is a single grievance submitted through the public form.
// The complainant fields are written once on submission; afterwards only the
// status, notes and bookkeeping columns change.
type Complaint struct {
	// ComplaintID is the public identifier (prefix + date + random suffix).
	ComplaintID string `gorm:"primaryKey;size:32" json:"complaint_id"`

	FullName    string `gorm:"size:150;not null" json:"full_name"`
	Email       string `gorm:"size:254;index" json:"email"`
	Phone       string `gorm:"size:20;not null" json:"phone"`
	DateOfBirth Date   `json:"date_of_birth"`
	Gender      string `gorm:"size:16" json:"gender"`
	Address     string `gorm:"size:500" json:"address"`
	City        string `gorm:"size:100" json:"city"`
	State       string `gorm:"size:100" json:"state"`
	PinCode     string `gorm:"size:6" json:"pin_code"`

	Category         string `gorm:"size:64;not null;index" json:"category"`
	Priority         string `gorm:"size:16;index" json:"priority"`
	Subject          string `gorm:"size:200;not null" json:"subject"`
	Description      string `gorm:"type:text;not null" json:"description"`
	IncidentDate     Date   `gorm:"not null" json:"incident_date"`
	IncidentLocation string `gorm:"size:255;not null" json:"incident_location"`
	AccusedDetails   string `gorm:"type:text" json:"accused_details"`
	WitnessDetails   string `gorm:"type:text" json:"witness_details"`

	Status     string `gorm:"size:32;not null;index;default:submitted" json:"status"`
	AdminNotes string `gorm:"type:text" json:"admin_notes"`
	UpdatedBy  string `gorm:"size:254" json:"updated_by"`

	// Documents is stored as a JSON list next to the record.
	Documents datatypes.JSONSlice[ComplaintDocument] `gorm:"type:jsonb" json:"documents"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentPaths returns the storage paths of all attached documents.
func (c *Complaint) DocumentPaths() []string {
	paths := make([]string, 0, len(c.Documents))
	for _, d := range c.Documents {
		paths = append(paths, d.Path)
	}
	return paths
}
