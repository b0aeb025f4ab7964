package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-pos-backend/internal/models"
)

func icedOnly() models.Product {
	return models.Product{
		ID:          "P-LATTE",
		Name:        "Latte",
		ProductType: models.ProductDrink,
		Prices: models.Prices{
			models.ServingIced: {General: 45, Teacher: 40, Student: 35},
		},
	}
}

func TestResolve(t *testing.T) {
	p := icedOnly()

	price, err := Resolve(p, models.ServingIced, models.ClassTeacher)
	require.NoError(t, err)
	assert.Equal(t, 40.0, price)

	_, err = Resolve(p, models.ServingHot, models.ClassStudent)
	assert.ErrorIs(t, err, ErrNotOrderable)

	_, err = Resolve(p, models.ServingIced, models.CustomerClass("vip"))
	assert.ErrorIs(t, err, ErrUnknownClass)
}

func TestStartingPrice(t *testing.T) {
	assert.Equal(t, 35.0, StartingPrice(icedOnly()))
	assert.Equal(t, 0.0, StartingPrice(models.Product{}))

	p := icedOnly()
	p.Prices[models.ServingHot] = models.PriceTier{General: 40, Teacher: 35, Student: 30}
	assert.Equal(t, 30.0, StartingPrice(p))
	assert.Equal(t, []models.ServingType{models.ServingHot, models.ServingIced}, Variants(p))
}

func TestItemsTotal(t *testing.T) {
	items := []models.CartItem{
		{AppliedPrice: 50, Quantity: 2},
		{AppliedPrice: 30, Quantity: 1},
	}
	assert.Equal(t, 130.0, ItemsTotal(items))
	assert.Equal(t, 0.3, ItemsTotal([]models.CartItem{{AppliedPrice: 0.1, Quantity: 3}}))
}

func TestCheckVariants(t *testing.T) {
	assert.NoError(t, CheckVariants(icedOnly()))
	assert.Error(t, CheckVariants(models.Product{ProductType: models.ProductDrink}))

	snack := models.Product{ProductType: models.ProductSnack, Prices: models.Prices{
		models.ServingSnack: {General: 25, Teacher: 25, Student: 20},
	}}
	assert.NoError(t, CheckVariants(snack))

	snack.Prices[models.ServingHot] = models.PriceTier{}
	assert.Error(t, CheckVariants(snack))

	assert.Error(t, CheckVariants(models.Product{Prices: models.Prices{"warm": {}}}))
}
