package model

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Colombian plate format: three letters, two digits, one trailing digit
// (cars, e.g. ABC123) or letter (motorcycles, e.g. ABC12D).
var plateRegex = regexp.MustCompile(`^[A-Z]{3}[0-9]{2}[A-Z0-9]$`)

// Vehicle represents a registered vehicle tied to exactly one owner
type Vehicle struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Plate     string    `gorm:"type:varchar(10);uniqueIndex;not null" json:"plate"`
	Brand     string    `gorm:"type:varchar(100)" json:"brand,omitempty"`
	Model     string    `gorm:"type:varchar(100)" json:"model,omitempty"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner     *User     `gorm:"foreignKey:OwnerID" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// NormalizePlate uppercases a plate before validation and storage.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// ValidPlate reports whether a normalized plate matches the accepted format.
func ValidPlate(plate string) bool {
	return plateRegex.MatchString(plate)
}
