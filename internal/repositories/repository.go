package repositories

import (
	"errors"
	"fmt"

	"opsflow/internal/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned by every lookup that matches no row.
var ErrNotFound = errors.New("not found")

// StatusCount is one row of a GROUP BY status aggregate.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type Repository struct {
	Company        CompanyRepository
	Profile        ProfileRepository
	ServiceRequest ServiceRequestRepository
	Quote          QuoteRepository
	Intervention   InterventionRepository
	Audit          AuditRepository
	Message        MessageRepository
	WorkflowLog    WorkflowLogRepository
	Followup       FollowupRepository
}

func New(db database.DB) Repository {
	return Repository{
		Company:        NewCompanyRepository(),
		Profile:        NewProfileRepository(db.Cache.Profile),
		ServiceRequest: NewServiceRequestRepository(),
		Quote:          NewQuoteRepository(),
		Intervention:   NewInterventionRepository(),
		Audit:          NewAuditRepository(),
		Message:        NewMessageRepository(),
		WorkflowLog:    NewWorkflowLogRepository(),
		Followup:       NewFollowupRepository(),
	}
}

func notFound(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return nil
}
