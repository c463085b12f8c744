package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Message struct {
	BaseUUIDModel
	ServiceRequestID uuid.UUID  `gorm:"type:uuid;not null;index:idx_messages_service_request" json:"serviceRequestId"`
	SenderID         uuid.UUID  `gorm:"type:uuid;not null"                                   json:"senderId"`
	Body             string     `gorm:"type:text;not null"                                   json:"body"`
	ReadAt           *time.Time `gorm:"type:timestamp"                                       json:"readAt,omitempty"`

	Sender *Profile `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	m.ensureID()
	if m.ServiceRequestID == uuid.Nil || m.SenderID == uuid.Nil || m.Body == "" {
		return gorm.ErrInvalidValue
	}
	return nil
}
