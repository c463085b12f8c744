package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuoteStatus string

const (
	QuoteStatusPending        QuoteStatus = "pending"
	QuoteStatusAwaitingClient QuoteStatus = "En attente validation client"
	QuoteStatusValidated      QuoteStatus = "Validé"
	QuoteStatusRejected       QuoteStatus = "Refusé"
)

type QuoteLineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (li QuoteLineItem) Total() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

type Quote struct {
	BaseUUIDModel
	ServiceRequestID uuid.UUID       `gorm:"type:uuid;not null;index:idx_quotes_service_request" json:"serviceRequestId"`
	CompanyID        *uuid.UUID      `gorm:"type:uuid;index:idx_quotes_company"                 json:"companyId,omitempty"`
	ClientID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_quotes_client"         json:"clientId"`
	Reference        string          `gorm:"type:text;not null;uniqueIndex"                     json:"reference"`
	LineItems        datatypes.JSON  `gorm:"type:jsonb"                                         json:"lineItems"`
	VatRate          decimal.Decimal `gorm:"type:decimal(5,2);not null;default:20"              json:"vatRate"`
	TotalHT          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"              json:"totalHt"`
	TotalTVA         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"              json:"totalTva"`
	TotalTTC         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"              json:"totalTtc"`
	Status           QuoteStatus     `gorm:"type:text;not null;default:'pending';index"         json:"status"`
	SentAt           *time.Time      `gorm:"type:timestamp"                                     json:"sentAt,omitempty"`
	ValidatedAt      *time.Time      `gorm:"type:timestamp"                                     json:"validatedAt,omitempty"`
	RejectedAt       *time.Time      `gorm:"type:timestamp"                                     json:"rejectedAt,omitempty"`
	ValidUntil       *time.Time      `gorm:"type:timestamp"                                     json:"validUntil,omitempty"`
	PDFURL           *string         `gorm:"column:pdf_url;type:text"                           json:"pdfUrl,omitempty"`

	ServiceRequest *ServiceRequest `gorm:"foreignKey:ServiceRequestID" json:"serviceRequest,omitempty"`
	Client         *Profile        `gorm:"foreignKey:ClientID"         json:"client,omitempty"`
	Company        *Company        `gorm:"foreignKey:CompanyID"        json:"company,omitempty"`
}

func (q *Quote) BeforeCreate(tx *gorm.DB) error {
	q.ensureID()
	if q.ServiceRequestID == uuid.Nil || q.ClientID == uuid.Nil || q.Reference == "" {
		return gorm.ErrInvalidValue
	}
	if q.Status == "" {
		q.Status = QuoteStatusPending
	}
	return nil
}

func (q *Quote) Items() ([]QuoteLineItem, error) {
	var items []QuoteLineItem
	if len(q.LineItems) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(q.LineItems, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Quote) SetItems(items []QuoteLineItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	q.LineItems = datatypes.JSON(data)
	return nil
}

// AwaitsClientDecision reports whether the client may still accept or reject the quote.
func (q *Quote) AwaitsClientDecision() bool {
	return q.Status == QuoteStatusPending || q.Status == QuoteStatusAwaitingClient
}
