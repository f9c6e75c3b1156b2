package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/roosmar/backoffice/pkg/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func validProduct() ProductInput {
	return ProductInput{
		Name:        "Miel de Lavande",
		Description: "Miel artisanal de Provence",
		Weight:      dec("0.25"),
		SalePrice:   dec("12.50"),
	}
}

func TestAddProduct(t *testing.T) {
	svc := NewService(nil, nil, nil, testLogger())

	product, err := svc.AddProduct(validProduct())
	require.NoError(t, err)
	require.NotEmpty(t, product.ID)
	require.False(t, product.CreatedAt.IsZero())
	require.Len(t, svc.Products(), 1)
}

func TestAddProductValidation(t *testing.T) {
	svc := NewService(nil, nil, nil, testLogger())

	cases := []struct {
		name  string
		morph func(*ProductInput)
	}{
		{"missing name", func(p *ProductInput) { p.Name = "" }},
		{"zero weight", func(p *ProductInput) { p.Weight = decimal.Zero }},
		{"negative weight", func(p *ProductInput) { p.Weight = dec("-1") }},
		{"zero sale price", func(p *ProductInput) { p.SalePrice = decimal.Zero }},
		{"variant without name", func(p *ProductInput) {
			p.Variants = []VariantInput{{SalePrice: dec("5"), WeightModifier: dec("1")}}
		}},
		{"variant zero modifier", func(p *ProductInput) {
			p.Variants = []VariantInput{{Name: "100g", SalePrice: dec("5"), WeightModifier: decimal.Zero}}
		}},
		{"variant zero sale price", func(p *ProductInput) {
			p.Variants = []VariantInput{{Name: "100g", SalePrice: decimal.Zero, WeightModifier: dec("1")}}
		}},
	}

	for _, tc := range cases {
		input := validProduct()
		tc.morph(&input)
		_, err := svc.AddProduct(input)
		require.Errorf(t, err, "case %q should be rejected", tc.name)
	}
	require.Empty(t, svc.Products())
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	svc := NewService(nil, nil, nil, testLogger())
	product, err := svc.AddProduct(validProduct())
	require.NoError(t, err)

	input := validProduct()
	input.SalePrice = dec("14.00")
	updated, err := svc.UpdateProduct(product.ID, input)
	require.NoError(t, err)
	require.True(t, updated.SalePrice.Equal(dec("14.00")))
	require.Equal(t, product.CreatedAt, updated.CreatedAt)

	_, err = svc.UpdateProduct("missing", input)
	require.ErrorIs(t, err, ErrProductNotFound)

	require.NoError(t, svc.DeleteProduct(product.ID))
	require.ErrorIs(t, svc.DeleteProduct(product.ID), ErrProductNotFound)
	require.Empty(t, svc.Products())
}

func TestClientNameRequired(t *testing.T) {
	svc := NewService(nil, nil, nil, testLogger())

	_, err := svc.AddClient(ClientInput{Email: "marie@example.com"})
	require.Error(t, err)

	client, err := svc.AddClient(ClientInput{Name: "Marie Dupont", Email: "marie@example.com"})
	require.NoError(t, err)

	_, err = svc.UpdateClient(client.ID, ClientInput{})
	require.Error(t, err)

	_, err = svc.UpdateClient(client.ID, ClientInput{Name: "Marie Martin"})
	require.NoError(t, err)
	got, err := svc.Client(client.ID)
	require.NoError(t, err)
	require.Equal(t, "Marie Martin", got.Name)
}

func TestValidateDeliveryRulesAcceptsDefaults(t *testing.T) {
	require.NoError(t, ValidateDeliveryRules(DefaultDeliveryRules()))
}

func TestValidateDeliveryRulesAdjacentTiersDoNotOverlap(t *testing.T) {
	// [0,5) and [5,10) share the boundary 5 but not a weight: max is
	// exclusive, min inclusive.
	rules := []models.DeliveryRule{
		{Mode: models.DeliveryGLS, MinWeight: dec("0"), MaxWeight: dec("5"), Price: dec("6")},
		{Mode: models.DeliveryGLS, MinWeight: dec("5"), MaxWeight: dec("10"), Price: dec("9")},
	}
	require.NoError(t, ValidateDeliveryRules(rules))
}

func TestValidateDeliveryRulesRejectsOverlap(t *testing.T) {
	rules := []models.DeliveryRule{
		{Mode: models.DeliveryGLS, MinWeight: dec("0"), MaxWeight: dec("6"), Price: dec("6")},
		{Mode: models.DeliveryGLS, MinWeight: dec("5"), MaxWeight: dec("10"), Price: dec("9")},
	}
	require.Error(t, ValidateDeliveryRules(rules))
}

func TestValidateDeliveryRulesAllowsOverlapAcrossModes(t *testing.T) {
	rules := []models.DeliveryRule{
		{Mode: models.DeliveryColissimo, MinWeight: dec("0"), MaxWeight: dec("10"), Price: dec("5")},
		{Mode: models.DeliveryGLS, MinWeight: dec("0"), MaxWeight: dec("10"), Price: dec("6")},
	}
	require.NoError(t, ValidateDeliveryRules(rules))
}

func TestValidateDeliveryRulesRejectsBadRanges(t *testing.T) {
	cases := []models.DeliveryRule{
		{Mode: models.DeliveryGLS, MinWeight: dec("-1"), MaxWeight: dec("5"), Price: dec("6")},
		{Mode: models.DeliveryGLS, MinWeight: dec("5"), MaxWeight: dec("5"), Price: dec("6")},
		{Mode: models.DeliveryGLS, MinWeight: dec("0"), MaxWeight: dec("5"), Price: dec("-1")},
		{Mode: "chronopost", MinWeight: dec("0"), MaxWeight: dec("5"), Price: dec("6")},
	}
	for i, rule := range cases {
		require.Errorf(t, ValidateDeliveryRules([]models.DeliveryRule{rule}), "case %d", i)
	}
}

func TestValidateDeliveryRulesAllowsGaps(t *testing.T) {
	// Contiguity is not required; a weight in the gap resolves to fee 0.
	rules := []models.DeliveryRule{
		{Mode: models.DeliveryGLS, MinWeight: dec("0"), MaxWeight: dec("5"), Price: dec("6")},
		{Mode: models.DeliveryGLS, MinWeight: dec("10"), MaxWeight: dec("20"), Price: dec("14")},
	}
	require.NoError(t, ValidateDeliveryRules(rules))
}
