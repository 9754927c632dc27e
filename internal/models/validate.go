package models

import (
	"fmt"
)

// ValidationError reports a single field that failed validation. Callers can
// pick it out of a wrapped chain with errors.As.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Recompute refreshes the derived monetary fields. Product.Price.Total is
// always recalculated from quantity and per-unit price. ProfitMargin is only
// recalculated when both ActualRevenue and a non-zero total are present;
// otherwise it is left untouched. A deal closed below cost yields a negative
// margin; the upper bound is 100 since revenue and total are both positive.
func (e *Export) Recompute() {
	e.Product.Price.Total = e.Product.Quantity.Value * e.Product.Price.PerUnit

	if e.ActualRevenue != nil && *e.ActualRevenue > 0 && e.Product.Price.Total > 0 {
		margin := (*e.ActualRevenue - e.Product.Price.Total) / *e.ActualRevenue * 100
		e.ProfitMargin = &margin
	}
}

// ValidateExport checks required fields, enum membership and numeric bounds.
// It returns the first violation found as a *ValidationError.
func ValidateExport(e *Export) error {
	if e.OwnerID == "" {
		return invalid("owner_id", "required")
	}
	if e.Title == "" {
		return invalid("title", "required")
	}
	if e.Product.CropName == "" {
		return invalid("product.crop_name", "required")
	}
	if e.Product.Quantity.Value < 0 {
		return invalid("product.quantity.value", "must not be negative")
	}
	if e.Product.Quantity.Unit != "" && !validQuantityUnits[e.Product.Quantity.Unit] {
		return invalid("product.quantity.unit", "unknown unit %q", e.Product.Quantity.Unit)
	}
	if e.Product.Price.PerUnit < 0 {
		return invalid("product.price.per_unit", "must not be negative")
	}
	if e.Status != "" && !e.Status.Valid() {
		return invalid("status", "unknown status %q", e.Status)
	}
	if e.Priority != "" && !e.Priority.Valid() {
		return invalid("priority", "unknown priority %q", e.Priority)
	}
	if e.ExpectedRevenue < 0 {
		return invalid("expected_revenue", "must not be negative")
	}
	if e.ActualRevenue != nil && *e.ActualRevenue < 0 {
		return invalid("actual_revenue", "must not be negative")
	}
	// Negative margins are legitimate (loss-making deals); only the upper
	// bound is a hard limit.
	if e.ProfitMargin != nil && *e.ProfitMargin > 100 {
		return invalid("profit_margin", "must not exceed 100")
	}

	for i, b := range e.Buyers {
		if err := ValidateBuyer(&b); err != nil {
			return fmt.Errorf("buyers[%d]: %w", i, err)
		}
	}

	// Selected buyers should reference embedded buyer ids. This is advisory
	// only and not enforced at the storage layer, so it is checked only when
	// the record carries both fields.
	if len(e.SelectedBuyerIDs) > 0 && len(e.Buyers) > 0 {
		known := make(map[string]bool, len(e.Buyers))
		for _, b := range e.Buyers {
			known[b.ID] = true
		}
		for _, id := range e.SelectedBuyerIDs {
			if !known[id] {
				return invalid("selected_buyer_ids", "buyer %q is not in buyers", id)
			}
		}
	}

	for i, d := range e.Documents {
		if !d.Type.Valid() {
			return invalid(fmt.Sprintf("documents[%d].type", i), "unknown document type %q", d.Type)
		}
		if d.Status != "" && !d.Status.Valid() {
			return invalid(fmt.Sprintf("documents[%d].status", i), "unknown document status %q", d.Status)
		}
	}

	if e.Logistics.Status != "" && !e.Logistics.Status.Valid() {
		return invalid("logistics.status", "unknown logistics status %q", e.Logistics.Status)
	}
	if e.Logistics.ShippingCost < 0 || e.Logistics.InsuranceCost < 0 || e.Logistics.CustomsCost < 0 {
		return invalid("logistics", "costs must not be negative")
	}

	if e.Payment.Method != "" && !e.Payment.Method.Valid() {
		return invalid("payment.method", "unknown payment method %q", e.Payment.Method)
	}
	if e.Payment.Status != "" && !e.Payment.Status.Valid() {
		return invalid("payment.status", "unknown payment status %q", e.Payment.Status)
	}
	if e.Payment.Amount < 0 {
		return invalid("payment.amount", "must not be negative")
	}

	for i, r := range e.Risks {
		if !r.Type.Valid() {
			return invalid(fmt.Sprintf("risks[%d].type", i), "unknown risk type %q", r.Type)
		}
		if !r.Probability.Valid() {
			return invalid(fmt.Sprintf("risks[%d].probability", i), "unknown risk level %q", r.Probability)
		}
		if !r.Impact.Valid() {
			return invalid(fmt.Sprintf("risks[%d].impact", i), "unknown risk level %q", r.Impact)
		}
	}

	if e.Feedback != nil {
		if err := validateRating("feedback.buyer_rating", e.Feedback.BuyerRating); err != nil {
			return err
		}
		if err := validateRating("feedback.farmer_rating", e.Feedback.FarmerRating); err != nil {
			return err
		}
	}

	for i, entry := range e.ActivityLog {
		if !entry.Action.Valid() {
			return invalid(fmt.Sprintf("activity_log[%d].action", i), "unknown action %q", entry.Action)
		}
	}

	return nil
}

// ValidateBuyer checks a single embedded buyer record.
func ValidateBuyer(b *Buyer) error {
	if b.Name == "" {
		return invalid("name", "required")
	}
	if !b.Type.Valid() {
		return invalid("type", "unknown buyer type %q", b.Type)
	}
	if b.Commission < 0 || b.Commission > 100 {
		return invalid("commission", "must be between 0 and 100")
	}
	return nil
}

func validateRating(field string, r *int) error {
	if r != nil && (*r < 1 || *r > 5) {
		return invalid(field, "must be between 1 and 5")
	}
	return nil
}
