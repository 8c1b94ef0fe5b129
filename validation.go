package zipstock

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// requireField checks a required string field is non-empty.
func requireField(ve *ValidationErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		ve.Add(field, "is required")
	}
}

// validateDate checks a field is a valid date (YYYY-MM-DD).
func validateDate(ve *ValidationErrors, field, value string) {
	if value == "" {
		return // only validate if set; combine with requireField if mandatory
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		ve.Add(field, "must be a valid date in YYYY-MM-DD format")
	}
}
