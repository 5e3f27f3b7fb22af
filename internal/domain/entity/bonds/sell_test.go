package bonds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSellType(t *testing.T) {
	st, err := NewSellType("maturity")
	require.NoError(t, err)
	assert.Equal(t, SellTypeMaturity, st)

	_, err = NewSellType("hold")
	assert.Error(t, err)
}

func TestSellTypeOptions(t *testing.T) {
	mat := date(2030, 6, 1)
	offer := date(2027, 6, 1)

	without := SellTypeOptions(Bond{MatDate: &mat})
	require.Len(t, without, 2)
	assert.Equal(t, SellTypeMaturity, without[0].Value)
	assert.Equal(t, SellTypeSell, without[1].Value)

	with := SellTypeOptions(Bond{MatDate: &mat, OfferDate: &offer})
	require.Len(t, with, 3)
	assert.Equal(t, SellTypeOffer, with[0].Value)
}

func TestDefaultSellDate(t *testing.T) {
	mat := date(2030, 6, 1)
	offer := date(2027, 6, 1)

	assert.Equal(t, &offer, DefaultSellDate(Bond{MatDate: &mat, OfferDate: &offer}))
	assert.Equal(t, &mat, DefaultSellDate(Bond{MatDate: &mat}))
	assert.Nil(t, DefaultSellDate(Bond{}))
}

func TestSwitchSellType(t *testing.T) {
	mat := date(2030, 6, 1)
	offer := date(2027, 6, 1)
	b := Bond{MatDate: &mat, OfferDate: &offer}
	buy := date(2025, 12, 31)

	plan, err := SwitchSellType(SellTypeMaturity, b, buy, 97.3)
	require.NoError(t, err)
	assert.Equal(t, &mat, plan.Date)
	assert.Equal(t, RedemptionPrice, plan.Price)

	plan, err = SwitchSellType(SellTypeOffer, b, buy, 97.3)
	require.NoError(t, err)
	assert.Equal(t, &offer, plan.Date)
	assert.Equal(t, RedemptionPrice, plan.Price)

	plan, err = SwitchSellType(SellTypeSell, b, buy, 97.3)
	require.NoError(t, err)
	require.NotNil(t, plan.Date)
	assert.Equal(t, date(2026, 1, 1), *plan.Date)
	assert.Equal(t, 97.3, plan.Price)

	_, err = SwitchSellType("hold", b, buy, 97.3)
	assert.Error(t, err)
}
