package model

import (
	"time"

	"github.com/google/uuid"
)

type TagStatus string

const (
	TagActive   TagStatus = "active"
	TagInactive TagStatus = "inactive"
	TagAssigned TagStatus = "assigned"
)

// RFIDTag binds a tag code to exactly one product. Only active tags sell.
type RFIDTag struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TagCode   string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Status    TagStatus `gorm:"type:varchar(20);not null;default:'active'"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// TableName overrides GORM's default pluralization (r_f_i_d_tags → rfid_tags).
func (RFIDTag) TableName() string { return "rfid_tags" }
