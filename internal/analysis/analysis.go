// Package analysis triages incoming complaints.
// It assigns each complaint a review priority from its category.
package analysis

import "bhrc/backend/internal/config"

// Priority levels, most urgent first.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// Priority returns the review priority for a complaint category.
// It returns PriorityLow if the category is not recognized.
func Priority(category string) string {
	if p, ok := config.ComplaintCategories[category]; ok {
		return p
	}
	return PriorityLow
}

// IsUrgent reports whether a priority warrants an immediate staff alert.
func IsUrgent(priority string) bool {
	return priority == PriorityCritical || priority == PriorityHigh
}
