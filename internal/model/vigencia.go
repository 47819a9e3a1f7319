package model

import (
	"time"

	"github.com/google/uuid"
)

// MinVigenciaYear is the earliest tax year the system accepts.
const MinVigenciaYear = 2000

// Vigencia is a yearly vehicle-tax obligation. At most one exists per
// (vehicle, year), and once paid it is immutable: is_paid only moves
// false -> true, never back.
type Vigencia struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VehicleID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_vigencias_vehicle_year" json:"vehicle_id"`
	Vehicle   *Vehicle  `gorm:"foreignKey:VehicleID" json:"-"`
	Year      int       `gorm:"not null;uniqueIndex:idx_vigencias_vehicle_year" json:"year"`
	AmountCOP int64     `gorm:"column:amount_cop;not null" json:"amount_cop"` // minor currency units
	IsPaid    bool      `gorm:"not null;default:false" json:"is_paid"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Vigencia) TableName() string {
	return "vigencias"
}

// MaxVigenciaYear is the latest tax year accepted: obligations may be
// registered up to one year ahead.
func MaxVigenciaYear() int {
	return time.Now().Year() + 1
}

// ValidVigenciaYear reports whether year falls in the accepted range.
func ValidVigenciaYear(year int) bool {
	return year >= MinVigenciaYear && year <= MaxVigenciaYear()
}

// ValidAmount reports whether an obligation amount is acceptable.
func ValidAmount(amountCOP int64) bool {
	return amountCOP > 0
}
