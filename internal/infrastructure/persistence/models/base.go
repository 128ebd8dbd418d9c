package models

import (
	"time"

	"github.com/google/uuid"
)

// AggregateModel holds the columns every aggregate table shares. Version backs
// the optimistic check in the repositories' Save.
type AggregateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Version   int       `gorm:"not null;default:1"`
}
