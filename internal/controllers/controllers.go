package controllers

import (
	"opsflow/config"
	"opsflow/internal/database"
	"opsflow/internal/repositories"
	"opsflow/internal/services"

	auditController "opsflow/internal/controllers/audits"
	dashboardController "opsflow/internal/controllers/dashboard"
	followupController "opsflow/internal/controllers/followups"
	interventionController "opsflow/internal/controllers/interventions"
	messageController "opsflow/internal/controllers/messages"
	quoteController "opsflow/internal/controllers/quotes"
	serviceRequestController "opsflow/internal/controllers/serviceRequests"
)

type Controllers struct {
	ServiceRequest serviceRequestController.ServiceRequestControllerInterface
	Quote          quoteController.QuoteControllerInterface
	Intervention   interventionController.InterventionControllerInterface
	Audit          auditController.AuditControllerInterface
	Message        messageController.MessageControllerInterface
	Dashboard      dashboardController.DashboardControllerInterface
	Followup       followupController.FollowupControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	config config.Config,
	db database.DB,
) Controllers {
	return Controllers{
		ServiceRequest: serviceRequestController.New(repos, services, config, db),
		Quote:          quoteController.New(repos, services, config, db),
		Intervention:   interventionController.New(repos, services, config, db),
		Audit:          auditController.New(repos, services, config, db),
		Message:        messageController.New(repos, services, config, db),
		Dashboard:      dashboardController.New(repos, services, config, db),
		Followup:       followupController.New(repos, services, config, db),
	}
}
