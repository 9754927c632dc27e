package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validExport() *Export {
	return &Export{
		OwnerID: "farmer-1",
		Title:   "Basmati rice shipment",
		Status:  StatusDraft,
		Product: Product{
			CropName: "Basmati Rice",
			Quantity: Quantity{Value: 100, Unit: "quintal"},
			Price:    Price{PerUnit: 25, Currency: "USD"},
		},
	}
}

func TestValidateExport_RequiredFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(e *Export)
		field  string
	}{
		{"missing owner", func(e *Export) { e.OwnerID = "" }, "owner_id"},
		{"missing title", func(e *Export) { e.Title = "" }, "title"},
		{"missing crop name", func(e *Export) { e.Product.CropName = "" }, "product.crop_name"},
		{"negative quantity", func(e *Export) { e.Product.Quantity.Value = -1 }, "product.quantity.value"},
		{"bad unit", func(e *Export) { e.Product.Quantity.Unit = "bushel" }, "product.quantity.unit"},
		{"negative price", func(e *Export) { e.Product.Price.PerUnit = -5 }, "product.price.per_unit"},
		{"bad status", func(e *Export) { e.Status = "archived" }, "status"},
		{"bad priority", func(e *Export) { e.Priority = "extreme" }, "priority"},
		{"negative expected revenue", func(e *Export) { e.ExpectedRevenue = -100 }, "expected_revenue"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := validExport()
			tc.mutate(e)
			err := ValidateExport(e)
			var vErr *ValidationError
			assert.True(t, errors.As(err, &vErr), "expected validation error, got %v", err)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestValidateExport_Valid(t *testing.T) {
	assert.NoError(t, ValidateExport(validExport()))
}

func TestValidateBuyer(t *testing.T) {
	b := Buyer{Name: "Gulf Traders", Type: BuyerInternational, Commission: 5}
	assert.NoError(t, ValidateBuyer(&b))

	b.Name = ""
	err := ValidateBuyer(&b)
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))

	b.Name = "Gulf Traders"
	b.Commission = 120
	assert.Error(t, ValidateBuyer(&b))

	b.Commission = 5
	b.Type = "wholesale"
	assert.Error(t, ValidateBuyer(&b))
}

func TestValidateExport_SelectedBuyersMustBeKnown(t *testing.T) {
	e := validExport()
	e.Buyers = []Buyer{{ID: "b1", Name: "Gulf Traders", Type: BuyerInternational}}
	e.SelectedBuyerIDs = []string{"b1"}
	assert.NoError(t, ValidateExport(e))

	e.SelectedBuyerIDs = []string{"b2"}
	err := ValidateExport(e)
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Equal(t, "selected_buyer_ids", vErr.Field)
}

func TestValidateExport_FeedbackRatings(t *testing.T) {
	e := validExport()
	bad := 6
	e.Feedback = &Feedback{BuyerRating: &bad}
	assert.Error(t, ValidateExport(e))

	good := 5
	e.Feedback = &Feedback{BuyerRating: &good}
	assert.NoError(t, ValidateExport(e))
}

func TestRecompute_Total(t *testing.T) {
	e := validExport()
	e.Product.Price.Total = 999999 // stale value supplied by caller

	e.Recompute()
	assert.Equal(t, 2500.0, e.Product.Price.Total)
	assert.Nil(t, e.ProfitMargin)
}

func TestRecompute_ProfitMargin(t *testing.T) {
	e := validExport()
	actual := 3000.0
	e.ActualRevenue = &actual

	e.Recompute()
	// (3000 - 2500) / 3000 * 100
	assert.NotNil(t, e.ProfitMargin)
	assert.InDelta(t, 16.6666, *e.ProfitMargin, 0.001)
}

func TestRecompute_LossDealValidates(t *testing.T) {
	e := validExport()
	actual := 2000.0 // below the 2500 total
	e.ActualRevenue = &actual

	e.Recompute()
	require.NotNil(t, e.ProfitMargin)
	assert.Equal(t, -25.0, *e.ProfitMargin)

	// A record carrying its own recomputed margin must pass validation, loss
	// or not.
	assert.NoError(t, ValidateExport(e))
}

func TestValidateExport_ProfitMarginUpperBound(t *testing.T) {
	e := validExport()
	over := 150.0
	e.ProfitMargin = &over

	err := ValidateExport(e)
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "profit_margin", vErr.Field)

	negative := -40.0
	e.ProfitMargin = &negative
	assert.NoError(t, ValidateExport(e))
}

func TestRecompute_ProfitMarginLeftAloneWithoutRevenue(t *testing.T) {
	e := validExport()
	prior := 42.0
	e.ProfitMargin = &prior

	e.Recompute()
	assert.Equal(t, 42.0, *e.ProfitMargin)

	zero := 0.0
	e.ActualRevenue = &zero
	e.Recompute()
	assert.Equal(t, 42.0, *e.ProfitMargin)
}
