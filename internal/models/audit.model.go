package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditStatus string

const (
	AuditStatusDraft     AuditStatus = "draft"
	AuditStatusCompleted AuditStatus = "completed"
)

type AuditAnswer struct {
	Category string  `json:"category"`
	Question string  `json:"question"`
	Score    int     `json:"score"`
	Weight   float64 `json:"weight"`
}

type Audit struct {
	BaseUUIDModel
	CompanyID         *uuid.UUID       `gorm:"type:uuid;index:idx_audits_company"         json:"companyId,omitempty"`
	ClientID          uuid.UUID        `gorm:"type:uuid;not null;index:idx_audits_client" json:"clientId"`
	Title             string           `gorm:"type:text;not null"                         json:"title"`
	Answers           datatypes.JSON   `gorm:"type:jsonb"                                 json:"answers"`
	Status            AuditStatus      `gorm:"type:text;not null;default:'draft'"         json:"status"`
	Score             *decimal.Decimal `gorm:"type:decimal(5,2)"                          json:"score,omitempty"`
	GeneratedReport   *string          `gorm:"type:text"                                  json:"generatedReport,omitempty"`
	ReportGeneratedAt *time.Time       `gorm:"type:timestamp"                             json:"reportGeneratedAt,omitempty"`
	ReportPDFURL      *string          `gorm:"column:report_pdf_url;type:text"            json:"reportPdfUrl,omitempty"`

	Client  *Profile `gorm:"foreignKey:ClientID"  json:"client,omitempty"`
	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

func (a *Audit) BeforeCreate(tx *gorm.DB) error {
	a.ensureID()
	if a.ClientID == uuid.Nil || a.Title == "" {
		return gorm.ErrInvalidValue
	}
	if a.Status == "" {
		a.Status = AuditStatusDraft
	}
	return nil
}

func (a *Audit) AnswerList() ([]AuditAnswer, error) {
	var answers []AuditAnswer
	if len(a.Answers) == 0 {
		return answers, nil
	}
	if err := json.Unmarshal(a.Answers, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (a *Audit) SetAnswers(answers []AuditAnswer) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	a.Answers = datatypes.JSON(data)
	return nil
}

func (a *Audit) HasCachedReport() bool {
	return a.GeneratedReport != nil && *a.GeneratedReport != ""
}
