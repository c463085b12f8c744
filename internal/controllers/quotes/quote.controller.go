package quoteController

import (
	"context"
	"fmt"
	"strings"
	"time"

	"opsflow/config"
	"opsflow/internal/database"
	. "opsflow/internal/models"
	"opsflow/internal/repositories"
	"opsflow/internal/services"
	"opsflow/internal/validation"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var defaultVatRate = decimal.NewFromInt(20)

type LineItemRequest struct {
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type CreateQuoteRequest struct {
	ServiceRequestID uuid.UUID         `json:"serviceRequestId"     validate:"required"`
	Items            []LineItemRequest `json:"items"                validate:"required,min=1,dive"`
	VatRate          *decimal.Decimal  `json:"vatRate,omitempty"`
	ValidUntil       *time.Time        `json:"validUntil,omitempty"`
}

type QuoteControllerInterface interface {
	Create(ctx context.Context, user *Profile, request *CreateQuoteRequest) (*Quote, error)
	List(ctx context.Context, status QuoteStatus) ([]*Quote, error)
	ListOwn(ctx context.Context, user *Profile) ([]*Quote, error)
	Get(ctx context.Context, user *Profile, id uuid.UUID) (*Quote, error)
	Send(ctx context.Context, user *Profile, id uuid.UUID) (*services.WorkflowResult, error)
	Accept(ctx context.Context, user *Profile, id uuid.UUID) (*services.WorkflowResult, error)
	Reject(ctx context.Context, user *Profile, id uuid.UUID) (*Quote, error)
}

type QuoteController struct {
	quoteRepo          repositories.QuoteRepository
	serviceRequestRepo repositories.ServiceRequestRepository
	transactionService *services.TransactionService
	workflowService    *services.WorkflowService
	storage            services.DocumentStore
	validator          *validation.Validator
	db                 database.DB
	Config             config.Config
	log                logger.Logger
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) QuoteControllerInterface {
	return &QuoteController{
		quoteRepo:          repos.Quote,
		serviceRequestRepo: repos.ServiceRequest,
		transactionService: services.Transaction,
		workflowService:    services.Workflow,
		storage:            documentStore(services.Storage),
		validator:          validation.New(),
		db:                 db,
		Config:             config,
		log:                logger.New("quoteController"),
	}
}

// Create prices the quote server side. The PDF is generated and uploaded after the row
// exists; a failed upload leaves pdf_url empty and the quote usable.
func (c *QuoteController) Create(
	ctx context.Context,
	user *Profile,
	request *CreateQuoteRequest,
) (*Quote, error) {
	log := c.log.Function("Create")

	if err := c.validator.Validate(request); err != nil {
		return nil, err
	}

	items := make([]QuoteLineItem, 0, len(request.Items))
	for i, item := range request.Items {
		if !item.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: items[%d].quantity must be positive", services.ErrInvalidField, i)
		}
		if item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: items[%d].unitPrice must not be negative", services.ErrInvalidField, i)
		}
		items = append(items, QuoteLineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	vatRate := defaultVatRate
	if request.VatRate != nil {
		if request.VatRate.IsNegative() {
			return nil, fmt.Errorf("%w: vatRate must not be negative", services.ErrInvalidField)
		}
		vatRate = *request.VatRate
	}

	serviceRequest, err := c.serviceRequestRepo.GetByID(ctx, c.db.SQL, request.ServiceRequestID)
	if err != nil {
		return nil, err
	}

	totals := services.ComputeQuoteTotals(items, vatRate)
	now := time.Now().UTC()

	quote := &Quote{
		ServiceRequestID: serviceRequest.ID,
		CompanyID:        serviceRequest.CompanyID,
		ClientID:         serviceRequest.ClientID,
		Reference:        newReference(now),
		VatRate:          vatRate,
		TotalHT:          totals.HT,
		TotalTVA:         totals.TVA,
		TotalTTC:         totals.TTC,
		Status:           QuoteStatusPending,
		ValidUntil:       request.ValidUntil,
	}
	if err := quote.SetItems(items); err != nil {
		return nil, log.Err("failed to encode line items", err)
	}

	if err := c.quoteRepo.Create(ctx, c.db.SQL, quote); err != nil {
		return nil, log.Err("failed to create quote", err, "serviceRequestID", serviceRequest.ID)
	}

	log.Info(
		"Quote created",
		"quoteID", quote.ID,
		"reference", quote.Reference,
		"totalTTC", quote.TotalTTC.StringFixed(2),
		"createdBy", user.ID,
	)

	c.attachPDF(ctx, quote, serviceRequest, items, now)

	return quote, nil
}

func (c *QuoteController) attachPDF(
	ctx context.Context,
	quote *Quote,
	serviceRequest *ServiceRequest,
	items []QuoteLineItem,
	issuedAt time.Time,
) {
	log := c.log.Function("attachPDF")

	input := services.QuotePDFInput{
		Reference:  quote.Reference,
		IssuedAt:   issuedAt,
		ValidUntil: quote.ValidUntil,
		Title:      serviceRequest.Title,
		Items:      items,
		VatRate:    quote.VatRate,
	}
	if serviceRequest.Company != nil {
		input.Company = partyFromCompany(serviceRequest.Company)
	}
	if serviceRequest.Client != nil {
		input.Client = services.PartyInfo{
			Name:  serviceRequest.Client.FullName,
			Email: serviceRequest.Client.ContactEmail(),
		}
	}

	if c.storage == nil {
		return
	}

	pdf, err := services.GenerateQuotePDF(input)
	if err != nil {
		log.Er("failed to generate quote pdf", err, "quoteID", quote.ID)
		return
	}

	url, err := c.storage.Upload(ctx, c.Config.QuotesBucket, "quotes/"+quote.Reference+".pdf", "application/pdf", pdf)
	if err != nil {
		log.Warn("quote pdf not uploaded", "quoteID", quote.ID, "error", err)
		return
	}

	if err := c.quoteRepo.Update(ctx, c.db.SQL, quote.ID, map[string]any{"pdf_url": url}); err != nil {
		log.Warn("failed to store quote pdf url", "quoteID", quote.ID, "error", err)
		return
	}
	quote.PDFURL = &url
}

func (c *QuoteController) List(ctx context.Context, status QuoteStatus) ([]*Quote, error) {
	return c.quoteRepo.List(ctx, c.db.SQL, status)
}

func (c *QuoteController) ListOwn(ctx context.Context, user *Profile) ([]*Quote, error) {
	return c.quoteRepo.ListByClient(ctx, c.db.SQL, user.ID)
}

func (c *QuoteController) Get(ctx context.Context, user *Profile, id uuid.UUID) (*Quote, error) {
	quote, err := c.quoteRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}

	if !user.IsAdmin() && quote.ClientID != user.ID {
		return nil, fmt.Errorf("%w: quote %s", services.ErrForbidden, id)
	}

	return quote, nil
}

func (c *QuoteController) Send(
	ctx context.Context,
	user *Profile,
	id uuid.UUID,
) (*services.WorkflowResult, error) {
	quote, err := c.quoteRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}

	if !quote.AwaitsClientDecision() {
		return nil, fmt.Errorf("%w: quote %s is %s", services.ErrInvalidTransition, id, quote.Status)
	}

	return c.workflowService.Dispatch(ctx, services.QuoteSent{QuoteID: id}, &user.ID)
}

// Accept hands the quote to the workflow, which marks it Validé and opens the
// intervention in the same transaction.
func (c *QuoteController) Accept(
	ctx context.Context,
	user *Profile,
	id uuid.UUID,
) (*services.WorkflowResult, error) {
	quote, err := c.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if !quote.AwaitsClientDecision() {
		return nil, fmt.Errorf("%w: quote %s is %s", services.ErrInvalidTransition, id, quote.Status)
	}

	return c.workflowService.Dispatch(ctx, services.QuoteValidated{QuoteID: id}, &user.ID)
}

func (c *QuoteController) Reject(ctx context.Context, user *Profile, id uuid.UUID) (*Quote, error) {
	log := c.log.Function("Reject")

	if _, err := c.Get(ctx, user, id); err != nil {
		return nil, err
	}

	var quote *Quote
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		changed, err := c.quoteRepo.MarkRejected(ctx, tx, id, time.Now().UTC())
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("%w: quote %s no longer awaits a decision", services.ErrInvalidTransition, id)
		}

		quote, err = c.quoteRepo.GetByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info("Quote rejected", "quoteID", id, "by", user.ID)
	return quote, nil
}

// documentStore keeps a nil *StorageService from becoming a non-nil interface.
func documentStore(storage *services.StorageService) services.DocumentStore {
	if storage == nil {
		return nil
	}
	return storage
}

func newReference(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("DEV-%s-%s", at.Format("20060102"), suffix)
}

func partyFromCompany(company *Company) services.PartyInfo {
	party := services.PartyInfo{Name: company.Name}
	if company.Address != nil {
		party.Address = *company.Address
	}
	if company.Email != nil {
		party.Email = *company.Email
	}
	if company.Phone != nil {
		party.Phone = *company.Phone
	}
	if company.Siret != nil {
		party.Siret = *company.Siret
	}
	return party
}
