package models

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"bondscalc/internal/domain/entity/bonds"

	"github.com/google/uuid"
	"gorm.io/gorm/schema"
)

// BondModel is a row of the moex_bonds table. Field order defines column order.
type BondModel struct {
	SecID         string     `gorm:"primaryKey;column:secid;type:text;not null"`
	UID           uuid.UUID  `gorm:"column:uid;type:uuid;not null"`
	ShortNameLC   string     `gorm:"column:shortname_lc;type:text;not null"`
	ShortName     string     `gorm:"column:shortname;type:text;not null"`
	ISIN          string     `gorm:"column:isin;type:text;not null"`
	MatDate       *time.Time `gorm:"column:mat_date;type:date"`
	CouponPercent *float64   `gorm:"column:coupon_percent;type:double precision"`
	ListLevel     int32      `gorm:"column:list_level;type:integer;not null"`
	CouponValue   *float64   `gorm:"column:coupon_value;type:double precision"`
	CouponDate    time.Time  `gorm:"column:coupon_date;type:date;not null"`
	Nkd           float64    `gorm:"column:nkd;type:double precision;not null"`
	CurrencyID    string     `gorm:"column:currency_id;type:text;not null"`
	FaceUnit      string     `gorm:"column:face_unit;type:text;not null"`
	FaceValue     float64    `gorm:"column:face_value;type:double precision;not null"`
	CouponPeriod  int32      `gorm:"column:coupon_period;type:integer;not null"`
	IssueSize     int64      `gorm:"column:issue_size;type:bigint;not null"`
	OfferDate     *time.Time `gorm:"column:offer_date;type:date"`
	PrevPrice     *float64   `gorm:"column:prev_price;type:double precision"`
	RegNumber     *string    `gorm:"column:reg_number;type:text"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (BondModel) TableName() string {
	return "moex_bonds"
}

var parseBondSchema = sync.OnceValues(func() (*schema.Schema, error) {
	return schema.Parse(&BondModel{}, &sync.Map{}, schema.NamingStrategy{})
})

// BondColumns returns the table columns in field order.
func BondColumns() ([]string, error) {
	s, err := parseBondSchema()
	if err != nil {
		return nil, fmt.Errorf("parse bond schema: %w", err)
	}
	columns := make([]string, len(s.DBNames))
	copy(columns, s.DBNames)
	return columns, nil
}

// BondTableDDL renders CREATE TABLE IF NOT EXISTS for the model.
func BondTableDDL() (string, error) {
	s, err := parseBondSchema()
	if err != nil {
		return "", fmt.Errorf("parse bond schema: %w", err)
	}
	defs := make([]string, 0, len(s.Fields)+1)
	var keys []string
	for _, f := range s.Fields {
		if f.DBName == "" {
			continue
		}
		def := f.DBName + " " + string(f.DataType)
		if f.NotNull {
			def += " NOT NULL"
		}
		if f.HasDefaultValue && f.DefaultValue != "" {
			def += " DEFAULT " + f.DefaultValue
		}
		defs = append(defs, def)
		if f.PrimaryKey {
			keys = append(keys, f.DBName)
		}
	}
	if len(keys) > 0 {
		defs = append(defs, "PRIMARY KEY ("+strings.Join(keys, ", ")+")")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", s.Table, strings.Join(defs, ",\n\t")), nil
}

func FromDomain(b bonds.Bond, updatedAt time.Time) BondModel {
	uid := b.UID
	if uid == uuid.Nil {
		uid = bonds.StableUID(b.SecID)
	}
	return BondModel{
		SecID:         b.SecID,
		UID:           uid,
		ShortNameLC:   strings.ToLower(b.ShortName),
		ShortName:     b.ShortName,
		ISIN:          b.ISIN,
		MatDate:       b.MatDate,
		CouponPercent: b.CouponPercent,
		ListLevel:     b.ListLevel,
		CouponValue:   b.CouponValue,
		CouponDate:    b.CouponDate,
		Nkd:           b.AccruedInterest,
		CurrencyID:    b.CurrencyID,
		FaceUnit:      b.FaceUnit,
		FaceValue:     b.FaceValue,
		CouponPeriod:  b.CouponPeriod,
		IssueSize:     b.IssueSize,
		OfferDate:     b.OfferDate,
		PrevPrice:     b.PrevPrice,
		RegNumber:     b.RegNumber,
		UpdatedAt:     updatedAt,
	}
}

func (m BondModel) ToDomain() bonds.Bond {
	return bonds.Bond{
		UID:             m.UID,
		ShortName:       m.ShortName,
		SecID:           m.SecID,
		ISIN:            m.ISIN,
		MatDate:         m.MatDate,
		CouponPercent:   m.CouponPercent,
		ListLevel:       m.ListLevel,
		CouponValue:     m.CouponValue,
		CouponDate:      m.CouponDate,
		AccruedInterest: m.Nkd,
		CurrencyID:      m.CurrencyID,
		FaceUnit:        m.FaceUnit,
		FaceValue:       m.FaceValue,
		CouponPeriod:    m.CouponPeriod,
		IssueSize:       m.IssueSize,
		OfferDate:       m.OfferDate,
		PrevPrice:       m.PrevPrice,
		RegNumber:       m.RegNumber,
	}
}

// Values returns column values in BondColumns order.
func (m BondModel) Values() []any {
	return []any{
		m.SecID,
		m.UID,
		m.ShortNameLC,
		m.ShortName,
		m.ISIN,
		m.MatDate,
		m.CouponPercent,
		m.ListLevel,
		m.CouponValue,
		m.CouponDate,
		m.Nkd,
		m.CurrencyID,
		m.FaceUnit,
		m.FaceValue,
		m.CouponPeriod,
		m.IssueSize,
		m.OfferDate,
		m.PrevPrice,
		m.RegNumber,
		m.UpdatedAt,
	}
}

// ScanTargets returns pointers to the fields in BondColumns order.
func (m *BondModel) ScanTargets() []any {
	return []any{
		&m.SecID,
		&m.UID,
		&m.ShortNameLC,
		&m.ShortName,
		&m.ISIN,
		&m.MatDate,
		&m.CouponPercent,
		&m.ListLevel,
		&m.CouponValue,
		&m.CouponDate,
		&m.Nkd,
		&m.CurrencyID,
		&m.FaceUnit,
		&m.FaceValue,
		&m.CouponPeriod,
		&m.IssueSize,
		&m.OfferDate,
		&m.PrevPrice,
		&m.RegNumber,
		&m.UpdatedAt,
	}
}
