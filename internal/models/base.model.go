package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BaseUUIDModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime"       json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"       json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index"                json:"deletedAt"`
}

func (b *BaseUUIDModel) BeforeCreate(tx *gorm.DB) error {
	b.ensureID()
	return nil
}

func (b *BaseUUIDModel) ensureID() {
	if b.ID == uuid.Nil {
		b.ID = uuid.Must(uuid.NewV7())
	}
}
