package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// Profile is the role table. Its ID is the subject of the access token issued by the
// hosted auth platform, so it is never generated here.
type Profile struct {
	BaseUUIDModel
	CompanyID *uuid.UUID `gorm:"type:uuid;index:idx_profiles_company" json:"companyId,omitempty"`
	FullName  string     `gorm:"type:text"                            json:"fullName"`
	Email     *string    `gorm:"type:text;uniqueIndex"                json:"email,omitempty"`
	Phone     *string    `gorm:"type:text"                            json:"phone,omitempty"`
	Role      Role       `gorm:"type:text;not null;default:'client'"  json:"role"`

	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if p.Role == "" {
		p.Role = RoleClient
	}
	return nil
}

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// ContactEmail returns the address notifications go to, empty when none is on file.
func (p *Profile) ContactEmail() string {
	if p.Email == nil {
		return ""
	}
	return *p.Email
}
