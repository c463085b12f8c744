package models

import "gorm.io/gorm"

type Company struct {
	BaseUUIDModel
	Name    string  `gorm:"type:text;not null" json:"name"    validate:"required"`
	Siret   *string `gorm:"type:text"          json:"siret,omitempty"`
	Email   *string `gorm:"type:text"          json:"email,omitempty"`
	Phone   *string `gorm:"type:text"          json:"phone,omitempty"`
	Address *string `gorm:"type:text"          json:"address,omitempty"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	c.ensureID()
	if c.Name == "" {
		return gorm.ErrInvalidValue
	}
	return nil
}
