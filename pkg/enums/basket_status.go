package enums

import "fmt"

// BasketStatus tracks the lifecycle of a predicted basket.
type BasketStatus string

const (
	BasketStatusGenerated BasketStatus = "generated"
	BasketStatusModified  BasketStatus = "modified"
	BasketStatusAccepted  BasketStatus = "accepted"
	BasketStatusRejected  BasketStatus = "rejected"
)

var validBasketStatuses = []BasketStatus{
	BasketStatusGenerated,
	BasketStatusModified,
	BasketStatusAccepted,
	BasketStatusRejected,
}

// String implements fmt.Stringer.
func (b BasketStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BasketStatus.
func (b BasketStatus) IsValid() bool {
	for _, candidate := range validBasketStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// IsOpen reports whether the basket can still be accepted or rejected.
func (b BasketStatus) IsOpen() bool {
	return b == BasketStatusGenerated || b == BasketStatusModified
}

// ParseBasketStatus converts raw input into a BasketStatus.
func ParseBasketStatus(value string) (BasketStatus, error) {
	for _, candidate := range validBasketStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid basket status %q", value)
}
