package models

import (
	"strings"
	"testing"
	"time"

	"bondscalc/internal/domain/entity/bonds"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBondColumns(t *testing.T) {
	columns, err := BondColumns()
	require.NoError(t, err)

	var m BondModel
	require.Len(t, m.Values(), len(columns))
	require.Len(t, m.ScanTargets(), len(columns))
	assert.Equal(t, "secid", columns[0])
	assert.Equal(t, "shortname_lc", columns[2])
	assert.Equal(t, "nkd", columns[10])
	assert.Equal(t, "updated_at", columns[len(columns)-1])
}

func TestBondTableDDL(t *testing.T) {
	ddl, err := BondTableDDL()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ddl, "CREATE TABLE IF NOT EXISTS moex_bonds ("))
	assert.Contains(t, ddl, "mat_date date,")
	assert.Contains(t, ddl, "coupon_date date NOT NULL")
	assert.Contains(t, ddl, "PRIMARY KEY (secid)")
	assert.Contains(t, ddl, "DEFAULT CURRENT_TIMESTAMP")
}

func TestDomainRoundTrip(t *testing.T) {
	coupon := 7.1
	mat := time.Date(2041, 5, 15, 0, 0, 0, 0, time.UTC)
	b := bonds.Bond{
		ShortName:       "ОФЗ 26238",
		SecID:           "SU26238RMFS4",
		ISIN:            "RU000A1038V6",
		MatDate:         &mat,
		CouponPercent:   &coupon,
		ListLevel:       1,
		CouponDate:      time.Date(2025, 12, 3, 0, 0, 0, 0, time.UTC),
		AccruedInterest: 12.3,
		FaceValue:       1000,
	}

	m := FromDomain(b, time.Now())
	assert.Equal(t, "офз 26238", m.ShortNameLC)
	assert.Equal(t, bonds.StableUID(b.SecID), m.UID)
	assert.NotEqual(t, uuid.Nil, m.UID)

	back := m.ToDomain()
	b.UID = m.UID
	assert.Equal(t, b, back)
}
