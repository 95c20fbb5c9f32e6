package config

import "time"

const (
	// Complaint identifiers: prefix + YYYYMMDD + random suffix
	ComplaintIDPrefix     = "BHRC"
	ComplaintIDDateLayout = "20060102"
	ComplaintIDSuffixMin  = 1000
	ComplaintIDSuffixMax  = 9999
	ComplaintIDAttempts   = 8

	// Submission rules
	MinDescriptionLength  = 50
	MinComplainantAge     = 18
	MaxComplaintDocuments = 5

	// Public submission throttling, per client address
	DefaultSubmitLimit  = 5
	DefaultSubmitWindow = time.Hour

	// Listing
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ComplaintCategories maps every accepted complaint category to its review priority.
var ComplaintCategories = map[string]string{
	"custodial_violence":   "critical",
	"police_excess":        "high",
	"domestic_violence":    "high",
	"women_rights":         "high",
	"child_rights":         "high",
	"caste_discrimination": "high",
	"labour_rights":        "medium",
	"land_dispute":         "medium",
	"corruption":           "medium",
	"consumer_rights":      "low",
	"environmental":        "low",
	"other":                "low",
}

// UploadTypes lists the MIME types accepted per upload bucket. Uploads are
// served from the site's origin, so nothing a browser would run as a document
// (SVG, HTML) is allowed.
var UploadTypes = map[string][]string{
	"complaints": {
		"application/pdf",
		"image/jpeg",
		"image/png",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	},
	"gallery": {"image/jpeg", "image/png", "image/webp", "image/gif", "video/mp4", "video/webm"},
	"members": {"image/jpeg", "image/png", "image/webp"},
	"events":  {"image/jpeg", "image/png", "image/webp"},
}
