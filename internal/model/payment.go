package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// governorRatio is the government's share of every settled amount: 95%.
// The platform keeps the remainder, including any rounding residue.
var governorRatio = decimal.New(95, -2)

// Payment is the durable proof that a vigencia was settled. Rows are
// append-only: the core never updates or deletes them, and the unique index
// on vigencia_id guarantees at most one payment per obligation.
type Payment struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID            uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User              *User     `gorm:"foreignKey:UserID" json:"-"`
	VehicleID         uuid.UUID `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Vehicle           *Vehicle  `gorm:"foreignKey:VehicleID" json:"-"`
	VigenciaID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"vigencia_id"`
	VigenciaYear      int       `gorm:"not null" json:"vigencia_year"`
	AmountCOP         int64     `gorm:"column:amount_cop;not null" json:"amount_cop"`
	GovernorAmountCOP int64     `gorm:"column:governor_amount_cop;not null" json:"governor_amount_cop"`
	PlatformFeeCOP    int64     `gorm:"column:platform_fee_cop;not null" json:"platform_fee_cop"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// PaymentStats aggregates the ledger: count and revenue totals in COP.
type PaymentStats struct {
	TotalPayments   int64 `json:"total_payments"`
	TotalRevenue    int64 `json:"total_revenue"`
	GovernorRevenue int64 `json:"governor_revenue"`
	PlatformRevenue int64 `json:"platform_revenue"`
}

// SplitAmount divides a settled total between the government and the
// platform. The government gets floor(total * 0.95); the platform gets the
// rest, so the two shares always sum back to the total and the rounding
// residue accrues to the platform. Amounts are integer COP; decimal is used
// so the 95% ratio is applied exactly, never through floats.
//
// This is the only place the split is computed.
func SplitAmount(totalCOP int64) (governorCOP, platformFeeCOP int64) {
	governorCOP = decimal.NewFromInt(totalCOP).Mul(governorRatio).Floor().IntPart()
	platformFeeCOP = totalCOP - governorCOP
	return governorCOP, platformFeeCOP
}
