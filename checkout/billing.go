package checkout

import (
	"strings"

	"shopfront/models"
)

// ValidateBilling checks that every billing field is present, in form order.
// Whitespace-only counts as missing. Formats are not checked.
func ValidateBilling(b models.BillingDetails) error {
	fields := []struct {
		name  string
		value string
	}{
		{"fullName", b.FullName},
		{"email", b.Email},
		{"phone", b.Phone},
		{"address", b.Address},
		{"city", b.City},
		{"pincode", b.Pincode},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &MissingFieldError{Field: f.name}
		}
	}
	return nil
}

func validateMethod(m models.PaymentMethod) error {
	if !m.Valid() {
		return &MissingFieldError{Field: "paymentMethod"}
	}
	return nil
}
