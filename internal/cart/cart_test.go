package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-pos-backend/internal/models"
	"cafe-pos-backend/internal/pricing"
)

var (
	mocha = models.Product{
		ID: "P-MOCHA", Name: "Mocha", ProductType: models.ProductDrink,
		Prices: models.Prices{
			models.ServingHot:  {General: 50, Teacher: 45, Student: 40},
			models.ServingIced: {General: 55, Teacher: 50, Student: 45},
		},
	}
	toast = models.Product{
		ID: "P-TOAST", Name: "Toast", ProductType: models.ProductSnack,
		Prices: models.Prices{models.ServingSnack: {General: 30, Teacher: 25, Student: 20}},
	}
)

func TestAddAssignsUniqueIDs(t *testing.T) {
	c := New(models.ClassGeneral)
	a, err := c.Add(mocha, models.ServingHot, "normal")
	require.NoError(t, err)
	b, err := c.Add(mocha, models.ServingHot, "normal")
	require.NoError(t, err)

	assert.NotEqual(t, a.CartID, b.CartID)
	assert.Equal(t, 50.0, a.AppliedPrice)
	assert.Equal(t, 1, a.Quantity)
	assert.Equal(t, 2, c.Len())
}

func TestLinesKeepTheirOwnProductCopy(t *testing.T) {
	p := mocha.Clone()
	p.AdditionalImages = []models.Asset{models.Ref("https://cdn/mocha.png")}

	c := New(models.ClassGeneral)
	_, err := c.Add(p, models.ServingHot, "")
	require.NoError(t, err)

	p.Prices[models.ServingHot] = models.PriceTier{General: 999, Teacher: 999, Student: 999}
	p.AdditionalImages[0] = models.Ref("https://cdn/other.png")

	require.NoError(t, c.SetCustomerClass(models.ClassStudent))
	items := c.Items()
	assert.Equal(t, 40.0, items[0].AppliedPrice)
	assert.Equal(t, 50.0, items[0].Prices[models.ServingHot].General)
	assert.Equal(t, "https://cdn/mocha.png", items[0].AdditionalImages[0].URL)

	// Changing a returned line leaves the cart alone.
	items[0].Prices[models.ServingHot] = models.PriceTier{}
	assert.Equal(t, 40.0, c.Items()[0].Prices[models.ServingHot].Student)
}

func TestAddSnackForcesVariantAndSweetness(t *testing.T) {
	c := New(models.ClassStudent)
	it, err := c.Add(toast, models.ServingIced, "sweet")
	require.NoError(t, err)
	assert.Equal(t, models.ServingSnack, it.SelectedServingType)
	assert.Equal(t, "-", it.Sweetness)
	assert.Equal(t, 20.0, it.AppliedPrice)
}

func TestAddRejectsUnpricedVariant(t *testing.T) {
	c := New(models.ClassGeneral)
	_, err := c.Add(mocha, models.ServingFrappe, "")
	assert.ErrorIs(t, err, pricing.ErrNotOrderable)
	assert.Equal(t, 0, c.Len())
}

func TestQuantityNeverBelowOne(t *testing.T) {
	c := New(models.ClassGeneral)
	it, err := c.Add(mocha, models.ServingIced, "less")
	require.NoError(t, err)

	q, err := c.AdjustQuantity(it.CartID, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, q)

	q, err = c.AdjustQuantity(it.CartID, -100)
	require.NoError(t, err)
	assert.Equal(t, 1, q)

	_, err = c.AdjustQuantity("missing", 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestTotalIsSumOfLines(t *testing.T) {
	c := New(models.ClassGeneral)
	hot, _ := c.Add(mocha, models.ServingHot, "")
	_, _ = c.Add(toast, models.ServingSnack, "")
	_, _ = c.AdjustQuantity(hot.CartID, 1)

	assert.Equal(t, 130.0, c.Total())

	assert.True(t, c.Remove(hot.CartID))
	assert.False(t, c.Remove(hot.CartID))
	assert.Equal(t, 30.0, c.Total())

	c.Clear()
	assert.Equal(t, 0.0, c.Total())
	assert.Empty(t, c.Items())
}

func TestSetCustomerClassReprices(t *testing.T) {
	c := New(models.ClassGeneral)
	hot, _ := c.Add(mocha, models.ServingHot, "")
	_, _ = c.Add(mocha, models.ServingIced, "")
	_, _ = c.AdjustQuantity(hot.CartID, 2)

	require.NoError(t, c.SetCustomerClass(models.ClassStudent))

	items := c.Items()
	assert.Equal(t, 40.0, items[0].AppliedPrice)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 45.0, items[1].AppliedPrice)
	assert.Equal(t, 1, items[1].Quantity)
	for _, it := range items {
		assert.Equal(t, models.ClassStudent, it.SelectedUserType)
	}
	assert.Equal(t, models.ClassStudent, c.CustomerClass())

	assert.ErrorIs(t, c.SetCustomerClass("vip"), pricing.ErrUnknownClass)
	assert.Equal(t, models.ClassStudent, c.CustomerClass())
}
