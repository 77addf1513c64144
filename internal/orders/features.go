package orders

import (
	"fmt"
	"math"
	"time"

	pkgerrors "github.com/avelasquez/freshbasket-backend/pkg/errors"
)

// TemporalFeatures is the order-time encoding the prediction model was
// trained on. OrderDow uses the fixed mapping 0=Sunday…6=Saturday; a
// different numbering would silently degrade prediction quality, so the
// fields are validated before every persist.
type TemporalFeatures struct {
	OrderDow            int
	OrderHourOfDay      int
	DaysSincePriorOrder *int
}

// ComputeTemporalFeatures derives the features for an order placed at
// now. priorOrderAt is the creation time of the user's most recent
// order, or nil for a first order.
func ComputeTemporalFeatures(now time.Time, priorOrderAt *time.Time) (TemporalFeatures, error) {
	features := TemporalFeatures{
		OrderDow:       int(now.Weekday()),
		OrderHourOfDay: now.Hour(),
	}

	if priorOrderAt != nil {
		delta := now.Sub(*priorOrderAt)
		if delta < 0 {
			return TemporalFeatures{}, pkgerrors.New(pkgerrors.CodeValidation,
				"prior order is newer than the order being placed")
		}
		days := int(math.Round(delta.Hours() / 24))
		features.DaysSincePriorOrder = &days
	}

	if err := ValidateTemporalFeatures(features); err != nil {
		return TemporalFeatures{}, err
	}
	return features, nil
}

// ValidateTemporalFeatures hard-rejects out-of-range encodings. This
// runs before any order write; malformed features corrupt downstream
// predictions without ever crashing anything.
func ValidateTemporalFeatures(f TemporalFeatures) error {
	if f.OrderDow < 0 || f.OrderDow > 6 {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("order day-of-week %d outside [0,6]", f.OrderDow))
	}
	if f.OrderHourOfDay < 0 || f.OrderHourOfDay > 23 {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("order hour %d outside [0,23]", f.OrderHourOfDay))
	}
	if f.DaysSincePriorOrder != nil && *f.DaysSincePriorOrder < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation,
			"days since prior order must be non-negative")
	}
	return nil
}
